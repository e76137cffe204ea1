package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/desfrut/wabridge/catalog"
)

// StatusSource reports the connection state and pending pairing code.
// *Client implements it.
type StatusSource interface {
	Status() Status
	QRCode() string
}

// NewStatusHandler builds the status HTTP surface: a landing page, the
// health endpoint, the pairing QR image, a catalog lookup helper and the
// Prometheus metrics.
func NewStatusHandler(src StatusSource, idx *catalog.Index, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><h1>wabridge</h1>` +
			`<p>Status: <a href="/health">/health</a> · ` +
			`Pairing: <a href="/qr">/qr</a> · ` +
			`Metrics: <a href="/metrics">/metrics</a></p></body></html>`))
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": string(src.Status())})
	})

	r.Get("/qr", func(w http.ResponseWriter, req *http.Request) {
		if src.Status() == StatusConnected {
			http.Error(w, "already paired", http.StatusConflict)
			return
		}
		code := src.QRCode()
		if code == "" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte("aguardando código de pareamento, recarregue em instantes"))
			return
		}
		png, err := qrcode.Encode(code, qrcode.Medium, 256)
		if err != nil {
			logger.Error("failed to render QR code", "error", err)
			http.Error(w, "failed to render QR code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	// Manual catalog lookup, handy while tuning the CSV.
	r.Get("/produto", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query().Get("q")
		results := idx.Search(q, 5)
		if results == nil {
			results = []catalog.Product{}
		}
		writeJSON(w, http.StatusOK, results)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
