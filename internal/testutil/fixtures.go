package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/roach88/twboot/internal/tiddler"
	"github.com/roach88/twboot/internal/wiki"
)

// Plugin builds a plugin tiddler bundle.
type Plugin struct {
	Title    string
	Type     string
	Priority string
	Tiddlers map[string]tiddler.Bundle
}

// NewPlugin starts a plugin of type "plugin" with no contents.
func NewPlugin(title string) *Plugin {
	return &Plugin{Title: title, Type: "plugin", Tiddlers: make(map[string]tiddler.Bundle)}
}

// With adds a contained tiddler; fields need not repeat the title.
func (p *Plugin) With(title string, fields tiddler.Bundle) *Plugin {
	b := fields.Clone()
	if b == nil {
		b = make(tiddler.Bundle)
	}
	b[tiddler.FieldTitle] = title
	p.Tiddlers[title] = b
	return p
}

// WithPriority sets plugin-priority.
func (p *Plugin) WithPriority(priority string) *Plugin {
	p.Priority = priority
	return p
}

// Bundle returns the plugin tiddler's fields.
func (p *Plugin) Bundle() tiddler.Bundle {
	body, err := json.Marshal(map[string]any{"tiddlers": p.Tiddlers})
	if err != nil {
		panic(err)
	}
	b := tiddler.Bundle{
		tiddler.FieldTitle:      p.Title,
		tiddler.FieldType:       wiki.TypeJSON,
		tiddler.FieldPluginType: p.Type,
		tiddler.FieldText:       string(body),
	}
	if p.Priority != "" {
		b[tiddler.FieldPriority] = p.Priority
	}
	return b
}

// RecordingReporter collects reported errors.
type RecordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *RecordingReporter) ReportError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Errors returns a copy of everything reported so far.
func (r *RecordingReporter) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// WriteFiles creates files below dir from a map of slash-separated
// relative paths to contents.
func WriteFiles(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}
