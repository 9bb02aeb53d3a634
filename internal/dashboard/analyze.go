package dashboard

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/rahuljishu/mpie/internal/analysis"
	"github.com/rahuljishu/mpie/pkg/models"
)

const maxUploadBytes = 32 << 20

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		http.Error(w, "analysis already in progress, try again shortly", http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("dataset")
	if err != nil {
		http.Error(w, "dataset file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".txt" {
		http.Error(w, "only CSV or TXT datasets are supported", http.StatusBadRequest)
		return
	}

	inputPath, err := spoolUpload(file, ext)
	if err != nil {
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	defer os.Remove(inputPath)

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emitter := NewSSEEmitter(w)
	if emitter == nil {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	result, err := h.pipeline(r.Context(), inputPath, emitter)
	if err != nil {
		emitter.Emit(analysis.ProgressEvent{Type: "error", Message: err.Error()})
		return
	}

	id := h.store.Put(result.RawReport)
	emitter.Emit(analysis.ProgressEvent{Type: "done", Result: result, ReportID: id})
}

// spoolUpload writes the uploaded dataset to a private temp file so the
// agent process can read it by path. Each request gets its own file;
// concurrent uploads never share state.
func spoolUpload(src io.Reader, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "mpie-dataset-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid report ID", http.StatusBadRequest)
		return
	}

	stored, ok := h.store.Get(id.String())
	if !ok {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", models.ReportFilename(stored.created)))
	io.WriteString(w, stored.text)
}
