package analysis

import (
	"fmt"
	"io"

	"github.com/rahuljishu/mpie/pkg/models"
)

// ProgressEvent is a single progress update during an analysis.
type ProgressEvent struct {
	Type     string                    `json:"type"` // "info", "warn", "error", "done"
	Message  string                    `json:"message,omitempty"`
	Result   *models.PresentationModel `json:"result,omitempty"`    // set for "done"
	ReportID string                    `json:"report_id,omitempty"` // set for "done" when a report store is in play
}

// ProgressEmitter receives progress events during analysis.
type ProgressEmitter interface {
	Emit(event ProgressEvent)
}

// TextEmitter formats progress events as human-readable text for CLI output.
type TextEmitter struct {
	W io.Writer
}

// Emit writes a formatted progress line to the underlying writer.
func (e *TextEmitter) Emit(ev ProgressEvent) {
	switch ev.Type {
	case "info":
		fmt.Fprintf(e.W, "  %s\n", ev.Message)
	case "warn":
		fmt.Fprintf(e.W, "  warning: %s\n", ev.Message)
	case "error":
		fmt.Fprintf(e.W, "Error: %s\n", ev.Message)
	}
}
