package wiki

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/twboot/internal/tiddler"
)

func newTestWiki(opts ...Option) *Wiki {
	codecs := tiddler.NewCodecs()
	codecs.Register(tiddler.ListCodec(tiddler.FieldTags))
	codecs.Register(tiddler.DateCodec(tiddler.FieldModified))
	return New(append([]Option{WithCodecs(codecs)}, opts...)...)
}

func add(t *testing.T, w *Wiki, fields tiddler.Bundle) *tiddler.Tiddler {
	t.Helper()
	td, err := w.AddFields(fields)
	require.NoError(t, err)
	return td
}

// addPlugin stores a plugin tiddler bundling contents. priority "" leaves
// plugin-priority unset.
func addPlugin(t *testing.T, w *Wiki, title, priority string, contents map[string]tiddler.Bundle) {
	t.Helper()
	body, err := json.Marshal(map[string]any{"tiddlers": contents})
	require.NoError(t, err)

	fields := tiddler.Bundle{
		"title":       title,
		"type":        TypeJSON,
		"plugin-type": "plugin",
		"text":        string(body),
	}
	if priority != "" {
		fields["plugin-priority"] = priority
	}
	add(t, w, fields)
}

func composePlugins(t *testing.T, w *Wiki) {
	t.Helper()
	_, err := w.ReadPluginInfo()
	require.NoError(t, err)
	w.RegisterPluginTiddlers("plugin")
	w.UnpackPluginTiddlers()
}
