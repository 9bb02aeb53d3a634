// Package report parses the textual output of the MPIE analysis agent into
// typed records and derives presentation-ready data from them.
package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rahuljishu/mpie/pkg/models"
)

// Section markers emitted by the agent. Each field is located by its marker
// independently, so a revision that reorders sections does not break
// extraction.
const (
	bestColumnMarker = "Best column:"
	rewardMarker     = "Reward break-down:"
	relationsMarker  = "Top relations:"
)

// ParseError reports agent output that violates the report grammar.
type ParseError struct {
	Field  string // "bestColumn", "rewardBreakdown", or "relations"
	Detail string // offending snippet or line, when available
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("malformed report: missing or invalid %s", e.Field)
	}
	return fmt.Sprintf("malformed report: %s: %s", e.Field, e.Detail)
}

// Each relation line reads: <source> → <target> deg=<int> R²=<float>.
// The deg value is accepted grammar but not retained.
var relationLine = regexp.MustCompile(`^(.*?)→(.*?)\s*deg=\d+\s*R²=([\d.]+)$`)

// Parse scans raw agent output against the report grammar and builds a
// typed AnalysisReport. It fails fast on the first missing or malformed
// mandatory field: a half-populated report would mislead the presentation
// layer, so no partial report is ever returned.
func Parse(raw string) (*models.AnalysisReport, error) {
	best, err := extractBestColumn(raw)
	if err != nil {
		return nil, err
	}

	reward, err := extractRewardBreakdown(raw)
	if err != nil {
		return nil, err
	}

	relations, err := extractRelations(raw)
	if err != nil {
		return nil, err
	}

	return &models.AnalysisReport{
		BestColumn:      best,
		RewardBreakdown: reward,
		Relations:       relations,
	}, nil
}

// extractBestColumn takes the text after the best-column marker up to end
// of line, trimmed.
func extractBestColumn(raw string) (string, error) {
	line, ok := lineAfter(raw, bestColumnMarker)
	if !ok {
		return "", &ParseError{Field: "bestColumn"}
	}
	best := strings.TrimSpace(line)
	if best == "" {
		return "", &ParseError{Field: "bestColumn", Detail: "empty value"}
	}
	return best, nil
}

// extractRewardBreakdown decodes the single-quoted object literal on the
// reward line. The agent emits Python-style single quotes; they are
// normalized to double quotes before JSON decoding. Component names
// containing an apostrophe would defeat this normalization, but the agent's
// fixed vocabulary never produces one.
func extractRewardBreakdown(raw string) ([]models.RewardComponent, error) {
	line, ok := lineAfter(raw, rewardMarker)
	if !ok {
		return nil, &ParseError{Field: "rewardBreakdown"}
	}

	open := strings.Index(line, "{")
	end := strings.LastIndex(line, "}")
	if open < 0 || end < open {
		return nil, &ParseError{Field: "rewardBreakdown", Detail: strings.TrimSpace(line)}
	}

	literal := strings.ReplaceAll(line[open:end+1], "'", `"`)
	components, err := decodeRewardObject(literal)
	if err != nil {
		return nil, &ParseError{Field: "rewardBreakdown", Detail: err.Error()}
	}
	return components, nil
}

// decodeRewardObject walks a flat JSON object token by token so that the
// source order of components is preserved; json.Unmarshal into a map would
// lose it.
func decodeRewardObject(literal string) ([]models.RewardComponent, error) {
	dec := json.NewDecoder(strings.NewReader(literal))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid object literal: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object literal, got %v", tok)
	}

	var components []models.RewardComponent
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid object literal: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid component name %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", key, err)
		}
		num, ok := valTok.(json.Number)
		if !ok {
			return nil, fmt.Errorf("component %q: value %v is not a number", key, valTok)
		}
		value, err := num.Float64()
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", key, err)
		}

		components = append(components, models.RewardComponent{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid object literal: %w", err)
	}

	if len(components) == 0 {
		return nil, fmt.Errorf("no components")
	}
	return components, nil
}

// extractRelations reads the block of lines after the relations marker up
// to the first blank line (or end of input). The marker is mandatory; an
// empty block is not, and yields zero relations. Line order is preserved:
// the agent ranks relations best first.
func extractRelations(raw string) ([]models.Relation, error) {
	block, ok := linesAfter(raw, relationsMarker)
	if !ok {
		return nil, &ParseError{Field: "relations"}
	}

	relations := []models.Relation{}
	for _, line := range block {
		if strings.TrimSpace(line) == "" {
			break
		}

		m := relationLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			return nil, &ParseError{Field: "relations", Detail: line}
		}

		source := strings.TrimSpace(m[1])
		target := strings.TrimSpace(m[2])
		if source == "" || target == "" {
			return nil, &ParseError{Field: "relations", Detail: line}
		}

		score, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return nil, &ParseError{Field: "relations", Detail: line}
		}

		relations = append(relations, models.Relation{
			Source:   source,
			Target:   target,
			FitScore: score,
		})
	}

	return relations, nil
}

// lineAfter returns the text between the marker and the next newline.
func lineAfter(raw, marker string) (string, bool) {
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return "", false
	}
	rest := raw[idx+len(marker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return rest, true
}

// linesAfter returns the lines following the marker's own line.
func linesAfter(raw, marker string) ([]string, bool) {
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return nil, false
	}
	rest := raw[idx+len(marker):]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return nil, true
	}
	return strings.Split(rest[nl+1:], "\n"), true
}
