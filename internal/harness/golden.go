package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/twboot/internal/canonical"
)

// Snapshot captures what a scenario produced, for golden comparison.
type Snapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a Snapshot into values canonical JSON accepts.
func (s *Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Result.Trace))
	for i, ev := range s.Result.Trace {
		m := map[string]any{
			"seq":   ev.Seq,
			"title": ev.Title,
		}
		if ev.Deleted {
			m["deleted"] = true
		}
		trace[i] = m
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
	}
	if sum := s.Result.Summary; sum != nil {
		summary := map[string]any{
			"tiddlers": sum.Tiddlers,
			"shadows":  sum.Shadows,
			"plugins":  sum.Plugins,
			"modules":  sum.Modules,
			"startup":  sum.Startup,
		}
		if len(sum.Failures) > 0 {
			summary["failures"] = sum.Failures
		}
		out["summary"] = summary
	}
	if len(s.Result.Exports) > 0 {
		out["exports"] = s.Result.Exports
	}
	if len(s.Result.ExecErrors) > 0 {
		out["exec_errors"] = s.Result.ExecErrors
	}
	return out
}

// MarshalCanonical encodes the snapshot as canonical JSON.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	return canonical.Marshal(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{ScenarioName: scenarioName, Result: result}
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
