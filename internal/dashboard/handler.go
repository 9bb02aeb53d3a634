// Package dashboard serves the MPIE web UI: dataset upload, streamed
// analysis progress, and raw report download.
package dashboard

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rahuljishu/mpie/internal/analysis"
	"github.com/rahuljishu/mpie/internal/auth"
	"github.com/rahuljishu/mpie/pkg/models"
)

//go:embed static
var staticFiles embed.FS

// Pipeline runs one analysis of the dataset at inputPath, emitting progress
// to em. It is injected so tests can substitute the external process.
type Pipeline func(ctx context.Context, inputPath string, em analysis.ProgressEmitter) (*models.PresentationModel, error)

// Config holds dashboard settings.
type Config struct {
	Pipeline Pipeline
	Verifier *auth.Verifier // optional; nil leaves API routes open
	Limit    rate.Limit     // analyze requests per second; 0 uses a default
	Burst    int
}

// Handler serves the web dashboard and API endpoints.
type Handler struct {
	mux      *http.ServeMux
	pipeline Pipeline
	store    *reportStore
	limiter  *rate.Limiter
}

// NewHandler creates a web handler with all routes registered.
func NewHandler(cfg Config) *Handler {
	limit := cfg.Limit
	if limit == 0 {
		// Each analysis spawns an external process; keep requests scarce.
		limit = rate.Every(2 * time.Second)
	}
	burst := cfg.Burst
	if burst == 0 {
		burst = 1
	}

	h := &Handler{
		mux:      http.NewServeMux(),
		pipeline: cfg.Pipeline,
		store:    newReportStore(),
		limiter:  rate.NewLimiter(limit, burst),
	}

	protect := func(handler http.HandlerFunc) http.Handler {
		if cfg.Verifier == nil {
			return handler
		}
		return auth.Middleware(cfg.Verifier)(handler)
	}

	staticFS, _ := fs.Sub(staticFiles, "static")
	h.mux.Handle("GET /", http.FileServer(http.FS(staticFS)))
	h.mux.HandleFunc("GET /api/health", h.handleHealth)
	h.mux.Handle("POST /api/analyze", protect(h.handleAnalyze))
	h.mux.Handle("GET /api/reports/{id}", protect(h.handleDownload))

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
