// Package catalog holds the in-memory product listing used for
// availability and price lookups.
package catalog

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// SimilarityThreshold is the minimum name similarity for a fuzzy match.
const SimilarityThreshold = 0.5

// Product is a single catalog entry. Price and Stock are display strings
// taken verbatim from the source file.
type Product struct {
	SKU   string `json:"sku"`
	Name  string `json:"nome"`
	Price string `json:"preco"`
	Stock string `json:"estoque,omitempty"`
}

// Index is a read-only product listing loaded from a CSV file. The file
// is read once on first use and cached for the process lifetime; changes
// to the underlying file are only observed through Reload. A missing or
// malformed file yields an empty index, never an error.
type Index struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	products []Product
	loaded   bool
}

// New creates an index backed by the CSV file at path. The file is not
// read until the first search or an explicit Reload.
func New(path string, logger *slog.Logger) *Index {
	return &Index{
		path:   path,
		logger: logger.With("component", "catalog"),
	}
}

// Reload discards the cached listing and reads the source file again.
func (i *Index) Reload() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.products = i.read()
	i.loaded = true
}

// Len returns the number of loaded products.
func (i *Index) Len() int {
	return len(i.all())
}

// Search looks up products for a free-text term. An SKU containing the
// term as a case-insensitive substring wins immediately and returns that
// single product. Otherwise names are matched fuzzily and up to limit
// products are returned in descending similarity order, ties kept in
// catalog order.
func (i *Index) Search(term string, limit int) []Product {
	products := i.all()
	if len(products) == 0 {
		return nil
	}

	term = strings.TrimSpace(term)
	termLower := strings.ToLower(term)
	for _, p := range products {
		if p.SKU != "" && strings.Contains(strings.ToLower(p.SKU), termLower) {
			return []Product{p}
		}
	}

	type scored struct {
		product Product
		score   float64
	}
	var matches []scored
	for _, p := range products {
		score := similarity(term, p.Name)
		if score >= SimilarityThreshold {
			matches = append(matches, scored{product: p, score: score})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]Product, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.product)
	}
	return results
}

// all returns the cached listing, loading it on first use.
func (i *Index) all() []Product {
	i.mu.RLock()
	if i.loaded {
		defer i.mu.RUnlock()
		return i.products
	}
	i.mu.RUnlock()

	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.loaded {
		i.products = i.read()
		i.loaded = true
	}
	return i.products
}

// read parses the CSV source. Column names are matched case-insensitively
// and accept accented and unaccented variants. Unreadable files and
// unparseable rows are skipped silently.
func (i *Index) read() []Product {
	f, err := os.Open(i.path)
	if err != nil {
		i.logger.Warn("catalog source unavailable, using empty catalog",
			"path", i.path, "error", err)
		return nil
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		i.logger.Warn("catalog header unreadable, using empty catalog", "error", err)
		return nil
	}
	for idx := range header {
		header[idx] = strings.ToLower(strings.TrimSpace(header[idx]))
	}

	var products []Product
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		row := make(map[string]string, len(header))
		for idx, value := range record {
			if idx < len(header) {
				row[header[idx]] = strings.TrimSpace(value)
			}
		}

		p := Product{
			SKU:   row["sku"],
			Name:  pick(row, "nome", "título", "titulo"),
			Price: pick(row, "preco", "preço", "valor"),
			Stock: pick(row, "estoque", "qtd", "quantidade"),
		}
		if p.SKU == "" && p.Name == "" {
			continue
		}
		products = append(products, p)
	}

	i.logger.Info("catalog loaded", "path", i.path, "products", len(products))
	return products
}

// pick returns the first non-empty value among the given column names.
func pick(row map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := row[key]; v != "" {
			return v
		}
	}
	return ""
}

// similarity scores two strings in [0,1] from their edit distance,
// normalized by the longer length. Comparison is case-sensitive.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
