package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twboot/internal/tiddler"
	"github.com/roach88/twboot/internal/wiki"
)

func TestPlugin_BundleUnpacks(t *testing.T) {
	w := wiki.New()
	_, err := w.AddFields(NewPlugin("$:/plugins/p").
		WithPriority("3").
		With("$:/plugins/p/readme", tiddler.Bundle{"text": "hi"}).
		Bundle())
	require.NoError(t, err)

	_, err = w.ReadPluginInfo()
	require.NoError(t, err)
	w.RegisterPluginTiddlers("plugin")
	w.UnpackPluginTiddlers()

	require.True(t, w.IsShadow("$:/plugins/p/readme"))
	assert.Equal(t, "hi", w.GetTiddler("$:/plugins/p/readme").Text())
	assert.Equal(t, "3", w.GetTiddler("$:/plugins/p").String(tiddler.FieldPriority))
}

func TestRecordingReporter(t *testing.T) {
	var r RecordingReporter
	r.ReportError(errors.New("one"))
	r.ReportError(errors.New("two"))

	errs := r.Errors()
	require.Len(t, errs, 2)
	assert.EqualError(t, errs[1], "two")
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	WriteFiles(t, dir, map[string]string{
		"a.tid":     "title: A\n\na",
		"sub/b.tid": "title: B\n\nb",
	})

	data, err := os.ReadFile(filepath.Join(dir, "sub", "b.tid"))
	require.NoError(t, err)
	assert.Equal(t, "title: B\n\nb", string(data))
}
