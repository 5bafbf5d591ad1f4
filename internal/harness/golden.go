package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tristore/internal/triple"
)

// TraceSnapshot is what golden files hold. The backend is deliberately
// absent so every backend shares one golden file.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// MarshalSnapshot renders the canonical JSON stored in golden files.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	raw, err := json.Marshal(TraceSnapshot{ScenarioName: name, Trace: result.Trace})
	if err != nil {
		return nil, err
	}
	return triple.CanonicalJSON(raw)
}

// AssertGolden compares result's trace against
// testdata/golden/{scenarioName}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenarioName, result)
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
