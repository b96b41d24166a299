package module

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// DefaultSuffix is tried after a name that does not match exactly.
const DefaultSuffix = ".hcl"

// HostLoader resolves modules the registry does not know about.
type HostLoader func(name string) (Exports, error)

// ErrorReporter receives module execution failures.
type ErrorReporter interface {
	ReportError(err error)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(err error)

func (f ReporterFunc) ReportError(err error) { f(err) }

// Registry holds module descriptors and runs them on demand. It is not safe
// for concurrent use.
type Registry struct {
	titles map[string]*Descriptor
	types  map[string][]string

	hostLoader HostLoader
	reporter   ErrorReporter
	logger     *slog.Logger
	sandbox    *Sandbox
}

// Option configures a Registry.
type Option func(*Registry)

// WithHostLoader sets the fallback for unknown module names.
func WithHostLoader(l HostLoader) Option {
	return func(r *Registry) {
		r.hostLoader = l
	}
}

// WithReporter sets where execution failures are reported. The default
// logs them.
func WithReporter(rep ErrorReporter) Option {
	return func(r *Registry) {
		r.reporter = rep
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithSandbox sets the evaluator for Source modules.
func WithSandbox(s *Sandbox) Option {
	return func(r *Registry) {
		r.sandbox = s
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		titles: make(map[string]*Descriptor),
		types:  make(map[string][]string),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sandbox == nil {
		r.sandbox = NewSandbox()
	}
	if r.reporter == nil {
		logger := r.logger
		r.reporter = ReporterFunc(func(err error) {
			logger.Error("module execution failed", "error", err)
		})
	}
	return r
}

// Define registers a module, replacing any earlier definition of title.
// Redefining a module after it has run is the caller's responsibility:
// modules that already required it keep the old exports.
func (r *Registry) Define(title, moduleType string, def Definition) {
	if old, ok := r.titles[title]; ok {
		r.types[old.ModuleType] = slices.DeleteFunc(r.types[old.ModuleType], func(t string) bool {
			return t == title
		})
	}
	r.titles[title] = &Descriptor{Title: title, ModuleType: moduleType, Definition: def}
	r.types[moduleType] = append(r.types[moduleType], title)
}

// Has reports whether title is defined.
func (r *Registry) Has(title string) bool {
	_, ok := r.titles[title]
	return ok
}

// Lookup returns the descriptor for title.
func (r *Registry) Lookup(title string) (*Descriptor, bool) {
	d, ok := r.titles[title]
	return d, ok
}

// Titles returns the modules of a type in definition order.
func (r *Registry) Titles(moduleType string) []string {
	return slices.Clone(r.types[moduleType])
}

// Types returns the module types that have at least one module.
func (r *Registry) Types() []string {
	var out []string
	for t, titles := range r.types {
		if len(titles) > 0 {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

// Execute returns the exports of the module name, running it first if it
// has not run yet. from is the title of the requiring module and anchors
// relative names; it is empty at top level.
func (r *Registry) Execute(name, from string) (Exports, error) {
	resolved := name
	if strings.HasPrefix(name, ".") {
		resolved = ResolvePath(name, from)
	}

	d := r.find(resolved, name)
	if d == nil {
		return r.fromHost(name, from, resolved)
	}
	if d.exports != nil {
		return d.exports, nil
	}
	return r.run(d)
}

func (r *Registry) find(resolved, name string) *Descriptor {
	for _, candidate := range []string{resolved, resolved + DefaultSuffix, name, name + DefaultSuffix} {
		if d, ok := r.titles[candidate]; ok {
			return d
		}
	}
	return nil
}

func (r *Registry) fromHost(name, from, resolved string) (Exports, error) {
	nf := &NotFoundError{Name: name, Requester: from, Resolved: resolved}
	if r.hostLoader == nil {
		return nil, nf
	}
	exports, err := r.hostLoader(name)
	if err != nil {
		nf.Err = err
		return nil, nf
	}
	r.logger.Debug("module supplied by host", "name", name)
	return exports, nil
}

func (r *Registry) run(d *Descriptor) (exports Exports, err error) {
	// Published before running so cycles see the partial exports.
	d.exports = make(Exports)

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		if err != nil {
			d.exports = nil
			exports = nil
			err = &ExecutionError{Title: d.Title, Err: err}
			r.reporter.ReportError(err)
		}
	}()

	require := func(inner string) (Exports, error) {
		return r.Execute(inner, d.Title)
	}

	switch def := d.Definition.(type) {
	case Func:
		out, err := def(d, d.exports, require)
		if err != nil {
			return nil, err
		}
		if out != nil {
			d.exports = out
		}
	case Source:
		if err := r.sandbox.Evaluate(d.Title, string(def), d.exports, require); err != nil {
			return nil, err
		}
	case Exports:
		if def != nil {
			d.exports = def
		}
	default:
		return nil, fmt.Errorf("unsupported definition %T", d.Definition)
	}

	r.logger.Debug("module executed", "title", d.Title, "type", d.ModuleType)
	return d.exports, nil
}
