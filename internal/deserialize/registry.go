package deserialize

import (
	"log/slog"
	"sync"

	"github.com/roach88/twboot/internal/tiddler"
)

// Content types understood by the built-in deserializers.
const (
	TypeTiddler           = "application/x-tiddler"
	TypeTiddlers          = "application/x-tiddlers"
	TypeTiddlerDictionary = "application/x-tiddler-dictionary"
	TypeJSON              = "application/json"
	TypeHCL               = "application/x-hcl"
	TypeYAML              = "application/x-yaml"
	TypeText              = "text/plain"
	TypeHTML              = "text/html"
)

// Func splits text into field bundles. fields holds the caller's defaults;
// a Func owns it and may modify or return it. contentType is the resolved
// type the Func was selected for.
type Func func(text string, fields tiddler.Bundle, contentType string) ([]tiddler.Bundle, error)

// Registry maps content types to deserializers.
type Registry struct {
	mu     sync.RWMutex
	funcs  map[string]Func
	types  *FileTypes
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for deserializer warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry returns an empty registry resolving extensions through types.
// The plain-text fallback is always available, even before anything is
// registered.
func NewRegistry(types *FileTypes, opts ...Option) *Registry {
	r := &Registry{
		funcs:  make(map[string]Func),
		types:  types,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register installs fn for a content type, replacing any earlier one.
func (r *Registry) Register(contentType string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[contentType] = fn
}

// Has reports whether a deserializer is registered for contentType.
func (r *Registry) Has(contentType string) bool {
	_, ok := r.Lookup(contentType)
	return ok
}

// Lookup returns the deserializer registered for contentType.
func (r *Registry) Lookup(contentType string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[contentType]
	return fn, ok
}

// Types returns the registered content types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for t := range r.funcs {
		out = append(out, t)
	}
	return out
}

// Deserialize splits text of the given type into field bundles. The type is
// looked up directly, then as a file extension, and finally the plain-text
// deserializer is used. base supplies default fields and is not modified.
//
// Deserialize never fails: a deserializer error is logged and the text is
// returned as a single plain record.
func (r *Registry) Deserialize(contentType, text string, base tiddler.Bundle) []tiddler.Bundle {
	resolved := contentType
	fn, ok := r.Lookup(resolved)
	if !ok {
		if ft, found := r.types.ByExtension(contentType); found {
			resolved = ft.Type
			fn, ok = r.Lookup(resolved)
		}
	}
	if !ok {
		fn = r.fallback()
	}

	bundles, err := fn(text, base.Clone(), resolved)
	if err != nil {
		r.logger.Warn("deserializer failed, keeping raw text",
			"type", resolved,
			"error", err)
		bundles, _ = Text(text, base.Clone(), resolved)
	}
	return bundles
}

func (r *Registry) fallback() Func {
	if fn, ok := r.Lookup(TypeText); ok {
		return fn
	}
	return Text
}
