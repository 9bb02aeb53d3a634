// Package analysis orchestrates the MPIE pipeline: run the external agent,
// parse its report, project presentation data.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rahuljishu/mpie/internal/agent"
	"github.com/rahuljishu/mpie/internal/report"
	"github.com/rahuljishu/mpie/pkg/models"
)

// Params configures an analysis run.
type Params struct {
	Executable  string // resolved analyzer path, injected by the caller
	Interpreter string
	Command     agent.CommandRunner // optional; defaults to os/exec
	Emitter     ProgressEmitter     // optional
}

// Run executes the full pipeline against the dataset at inputPath and
// returns the presentation model. There are no retries anywhere in this
// chain: the agent is assumed deterministic for a given dataset, and
// re-running would mask real failures.
//
// A non-zero agent exit surfaces as *ProcessError carrying the captured
// output; grammar violations surface as *MalformedOutputError. No partial
// or defaulted model is ever returned.
func Run(ctx context.Context, p Params, inputPath string) (*models.PresentationModel, error) {
	runner := &agent.Runner{
		Executable:  p.Executable,
		Interpreter: p.Interpreter,
		Command:     p.Command,
	}

	emit(p.Emitter, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("Analyzing %s...", filepath.Base(inputPath)),
	})

	result, err := runner.Run(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	if result.ExitCode != 0 {
		return nil, &ProcessError{ExitCode: result.ExitCode, Output: result.Output}
	}

	parsed, err := report.Parse(result.Output)
	if err != nil {
		var perr *report.ParseError
		if errors.As(err, &perr) {
			return nil, &MalformedOutputError{Field: perr.Field, Detail: perr.Detail}
		}
		return nil, err
	}

	// Out-of-range fit scores are syntactically valid but semantically
	// suspect; log them, don't fail on them.
	for _, rel := range parsed.OutOfRangeRelations() {
		emit(p.Emitter, ProgressEvent{
			Type:    "warn",
			Message: fmt.Sprintf("relation %s→%s has R²=%g outside [0, 1]", rel.Source, rel.Target, rel.FitScore),
		})
	}

	return report.Project(parsed, result.Output), nil
}

func emit(e ProgressEmitter, ev ProgressEvent) {
	if e != nil {
		e.Emit(ev)
	}
}
