package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahuljishu/mpie/pkg/models"
)

const sampleOutput = `Best column: temperature
Reward break-down: {'accuracy': 0.91, 'stability': 0.77}
Top relations:
pressure → volume deg=2 R²=0.88
time → temperature deg=1 R²=0.65

`

type cannedCommand struct {
	output   string
	exitCode int
}

func (c *cannedCommand) Run(ctx context.Context, name string, args []string) ([]byte, int, error) {
	return []byte(c.output), c.exitCode, nil
}

// collectEmitter records every emitted event.
type collectEmitter struct {
	events []ProgressEvent
}

func (e *collectEmitter) Emit(ev ProgressEvent) {
	e.events = append(e.events, ev)
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))
	return path
}

func TestRun_EndToEnd(t *testing.T) {
	result, err := Run(context.Background(), Params{
		Executable: "analyze.py",
		Command:    &cannedCommand{output: sampleOutput},
	}, writeDataset(t))
	require.NoError(t, err)

	assert.Equal(t, "temperature", result.BestColumn)
	assert.Equal(t, []models.MetricPoint{
		{Label: "Accuracy", Value: 0.91},
		{Label: "Stability", Value: 0.77},
	}, result.Metrics)
	assert.Equal(t, []models.SeriesPoint{
		{Label: "pressure→volume", Value: 0.88},
		{Label: "time→temperature", Value: 0.65},
	}, result.ChartSeries)
	assert.Equal(t, sampleOutput, result.RawReport)
}

func TestRun_NonZeroExit(t *testing.T) {
	// Exit 2 with any output yields ProcessError, never a parsed report.
	_, err := Run(context.Background(), Params{
		Executable: "analyze.py",
		Command:    &cannedCommand{output: sampleOutput, exitCode: 2},
	}, writeDataset(t))

	var procErr *ProcessError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, 2, procErr.ExitCode)
	assert.Equal(t, sampleOutput, procErr.Output)
}

func TestRun_MalformedOutput(t *testing.T) {
	_, err := Run(context.Background(), Params{
		Executable: "analyze.py",
		Command:    &cannedCommand{output: "nothing useful here\n"},
	}, writeDataset(t))

	var malErr *MalformedOutputError
	require.ErrorAs(t, err, &malErr)
	assert.Equal(t, "bestColumn", malErr.Field)
}

func TestRun_MalformedRelationLineCarriesDetail(t *testing.T) {
	output := "Best column: x\nReward break-down: {'accuracy': 0.9}\n" +
		"Top relations:\nbroken line\n\n"

	_, err := Run(context.Background(), Params{
		Executable: "analyze.py",
		Command:    &cannedCommand{output: output},
	}, writeDataset(t))

	var malErr *MalformedOutputError
	require.ErrorAs(t, err, &malErr)
	assert.Equal(t, "relations", malErr.Field)
	assert.Equal(t, "broken line", malErr.Detail)
}

func TestRun_WarnsOnOutOfRangeFitScore(t *testing.T) {
	output := "Best column: x\nReward break-down: {'accuracy': 0.9}\n" +
		"Top relations:\na → b deg=1 R²=1.37\n\n"

	emitter := &collectEmitter{}
	result, err := Run(context.Background(), Params{
		Executable: "analyze.py",
		Command:    &cannedCommand{output: output},
		Emitter:    emitter,
	}, writeDataset(t))
	require.NoError(t, err)

	// Accepted as data, flagged as a warning.
	require.Len(t, result.ChartSeries, 1)
	assert.Equal(t, 1.37, result.ChartSeries[0].Value)

	var warned bool
	for _, ev := range emitter.events {
		if ev.Type == "warn" {
			warned = true
			assert.Contains(t, ev.Message, "a→b")
		}
	}
	assert.True(t, warned, "expected a data-quality warning")
}

func TestRun_Deterministic(t *testing.T) {
	dataset := writeDataset(t)
	params := Params{Executable: "analyze.py", Command: &cannedCommand{output: sampleOutput}}

	first, err := Run(context.Background(), params, dataset)
	require.NoError(t, err)
	second, err := Run(context.Background(), params, dataset)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
