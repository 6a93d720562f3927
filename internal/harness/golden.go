package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/spdxstore/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Document     string       `json:"document"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// Empty event fields are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step": event.Step,
			"op":   event.Op,
		}
		optional := map[string]string{
			"document": event.Document,
			"id":       event.ID,
			"type":     event.Type,
			"property": event.Property,
			"kind":     event.Kind,
			"error":    event.Error,
		}
		for k, v := range optional {
			if v != "" {
				eventMap[k] = v
			}
		}
		if event.Value != nil {
			eventMap["value"] = event.Value
		}
		if event.Output != nil {
			eventMap["output"] = event.Output
		}
		if event.Absent {
			eventMap["absent"] = true
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"document":      s.Document,
		"trace":         traceList,
	}
}

// MarshalTrace renders a trace as canonical JSON.
func MarshalTrace(scenarioName, document string, trace []TraceEvent) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Document:     document,
		Trace:        trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, scenario.Document, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName, document string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, document, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
