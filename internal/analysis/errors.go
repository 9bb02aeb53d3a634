package analysis

import "fmt"

// ProcessError indicates the analysis agent exited non-zero. Output carries
// the agent's full captured text; it is the diagnostic payload and must be
// shown to the user verbatim, never dropped.
type ProcessError struct {
	ExitCode int
	Output   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("analysis process exited with code %d:\n%s", e.ExitCode, e.Output)
}

// MalformedOutputError indicates the agent exited zero but its output
// violated the report grammar at Field. Detail carries the offending
// snippet or line when available.
type MalformedOutputError struct {
	Field  string
	Detail string
}

func (e *MalformedOutputError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("analysis output is malformed: missing or invalid %s", e.Field)
	}
	return fmt.Sprintf("analysis output is malformed at %s: %s", e.Field, e.Detail)
}
