package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "produtos.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads rows with canonical headers", func(t *testing.T) {
		path := writeCatalog(t, "sku,nome,preco,estoque\nSKU123,Camisa Azul,\"59,90\",4\n")
		idx := New(path, slog.Default())

		if got := idx.Len(); got != 1 {
			t.Fatalf("expected 1 product, got %d", got)
		}
	})

	t.Run("accepts accented and alternate headers", func(t *testing.T) {
		path := writeCatalog(t, "SKU,Título,Preço,Quantidade\nA1,Vestido Preto,\"120,00\",2\n")
		idx := New(path, slog.Default())

		results := idx.Search("A1", 3)
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].Name != "Vestido Preto" {
			t.Errorf("expected name from título column, got %q", results[0].Name)
		}
		if results[0].Price != "120,00" {
			t.Errorf("expected price from preço column, got %q", results[0].Price)
		}
		if results[0].Stock != "2" {
			t.Errorf("expected stock from quantidade column, got %q", results[0].Stock)
		}
	})

	t.Run("missing file yields empty index", func(t *testing.T) {
		idx := New(filepath.Join(t.TempDir(), "nope.csv"), slog.Default())

		if got := idx.Len(); got != 0 {
			t.Fatalf("expected empty index, got %d products", got)
		}
		if results := idx.Search("anything", 3); len(results) != 0 {
			t.Errorf("expected no results, got %d", len(results))
		}
	})

	t.Run("caches first load until reload", func(t *testing.T) {
		path := writeCatalog(t, "sku,nome,preco\nA1,Camisa,10\n")
		idx := New(path, slog.Default())
		if got := idx.Len(); got != 1 {
			t.Fatalf("expected 1 product, got %d", got)
		}

		if err := os.WriteFile(path, []byte("sku,nome,preco\nA1,Camisa,10\nB2,Calça,20\n"), 0o644); err != nil {
			t.Fatalf("failed to rewrite catalog: %v", err)
		}
		if got := idx.Len(); got != 1 {
			t.Errorf("expected stale cache of 1 product, got %d", got)
		}

		idx.Reload()
		if got := idx.Len(); got != 2 {
			t.Errorf("expected 2 products after reload, got %d", got)
		}
	})
}

func TestSearch(t *testing.T) {
	path := writeCatalog(t, "sku,nome,preco,estoque\n"+
		"SKU123,Camisa Azul,\"59,90\",4\n"+
		"SKU124,Camisa Verde,\"59,90\",\n"+
		"SKU200,Vestido Longo,\"189,00\",1\n")
	idx := New(path, slog.Default())

	t.Run("case-insensitive SKU substring wins and returns one result", func(t *testing.T) {
		results := idx.Search("sku123", 3)
		if len(results) != 1 {
			t.Fatalf("expected exactly 1 result, got %d", len(results))
		}
		if results[0].Name != "Camisa Azul" {
			t.Errorf("expected Camisa Azul, got %q", results[0].Name)
		}
	})

	t.Run("fuzzy name match respects limit and order", func(t *testing.T) {
		results := idx.Search("Camisa Azui", 3)
		if len(results) == 0 {
			t.Fatal("expected fuzzy matches")
		}
		if results[0].SKU != "SKU123" {
			t.Errorf("expected closest match first, got %q", results[0].SKU)
		}
		if len(results) > 3 {
			t.Errorf("expected at most 3 results, got %d", len(results))
		}
	})

	t.Run("limit caps results", func(t *testing.T) {
		results := idx.Search("Camisa Azul", 1)
		if len(results) != 1 {
			t.Errorf("expected 1 result with limit 1, got %d", len(results))
		}
	})

	t.Run("no match below threshold", func(t *testing.T) {
		if results := idx.Search("zzzzzzzzzzzz", 3); len(results) != 0 {
			t.Errorf("expected no results, got %d", len(results))
		}
	})
}

func TestSimilarity(t *testing.T) {
	t.Run("identical strings score 1", func(t *testing.T) {
		if got := similarity("Camisa", "Camisa"); got != 1 {
			t.Errorf("expected 1, got %v", got)
		}
	})

	t.Run("comparison is case-sensitive", func(t *testing.T) {
		if got := similarity("camisa", "CAMISA"); got >= SimilarityThreshold {
			t.Errorf("expected score below threshold for case mismatch, got %v", got)
		}
	})

	t.Run("one edit in a long name stays above threshold", func(t *testing.T) {
		if got := similarity("Camisa Azul", "Camisa Azui"); got < SimilarityThreshold {
			t.Errorf("expected score above threshold, got %v", got)
		}
	})
}
