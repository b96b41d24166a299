package harness

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{
		"minimal",
		"plugin_overlay",
		"startup_order",
		"safe_mode",
		"exec_error",
		"wiki_folder",
	} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_TraceIsDeterministic(t *testing.T) {
	s := loadTestScenario(t, "plugin_overlay")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Exports, second.Exports)
}

func TestRun_RecordsTrace(t *testing.T) {
	result, err := Run(loadTestScenario(t, "minimal"))
	require.NoError(t, err)

	assert.Equal(t, []TraceEvent{
		{Seq: 1, Title: "B"},
		{Seq: 2, Title: "A"},
		{Seq: 3, Title: "B", Deleted: true},
	}, result.Trace)
	assert.Equal(t, 2, result.Summary.Tiddlers)
}

func TestRun_FailingAssertion(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: failing
description: "expects the wrong text"
tiddlers:
  - fields: {title: A, text: actual}
assertions:
  - type: tiddler
    title: A
    expect: {text: expected}
`), "")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `"actual"`)
}

func TestRun_BootErrorIsReturned(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: broken_plugin
description: "plugin text that is not JSON aborts the boot"
tiddlers:
  - fields:
      title: "$:/plugins/bad"
      type: application/json
      plugin-type: plugin
      text: "{not json"
assertions:
  - type: failures
    count: 0
`), "")
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken_plugin")
}

func TestRun_TimestampUsesHarnessClock(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: clock
description: "timestamp() reads the injected clock"
tiddlers:
  - fields:
      title: "$:/modules/now"
      type: application/x-hcl
      module-type: library
      text: "exports = { now = timestamp() }"
steps:
  - execute: "$:/modules/now"
assertions:
  - type: exports
    module: "$:/modules/now"
    expect: {now: "2030-01-02T03:04:05Z"}
`), "")
	require.NoError(t, err)

	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	result, err := New(WithNow(func() time.Time { return at })).Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Recompose(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: recompose
description: "a plugin added after boot contributes shadows once recomposed"
tiddlers:
  - fields: {title: Seed, text: seed}
steps:
  - add:
      title: "$:/plugins/late"
      type: application/json
      plugin-type: plugin
      text: '{"tiddlers": {"$:/plugins/late/x": {"title": "$:/plugins/late/x", "text": "late"}}}'
  - recompose: true
assertions:
  - type: shadow_source
    title: "$:/plugins/late/x"
    source: "$:/plugins/late"
  - type: plugins
    plugins: ["$:/plugins/late"]
`), "")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
