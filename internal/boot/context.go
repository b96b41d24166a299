package boot

import (
	"fmt"
	"log/slog"

	"github.com/roach88/twboot/internal/deserialize"
	"github.com/roach88/twboot/internal/module"
	"github.com/roach88/twboot/internal/tiddler"
	"github.com/roach88/twboot/internal/wiki"
)

// PluginType is the plugin-type registered during boot by default.
const PluginType = "plugin"

// Context is one instance of the kernel.
type Context struct {
	Codecs        *tiddler.Codecs
	FileTypes     *deserialize.FileTypes
	Deserializers *deserialize.Registry
	Wiki          *wiki.Wiki
	Modules       *module.Registry

	logger      *slog.Logger
	reporter    Reporter
	hooks       wiki.Hooks
	hostLoader  module.HostLoader
	sandbox     *module.Sandbox
	pluginTypes []string
	safeMode    bool

	failures []error
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithReporter sets where module failures are reported. The default
// only logs them.
func WithReporter(r Reporter) Option {
	return func(c *Context) {
		c.reporter = r
	}
}

// WithHooks installs change notification hooks on the store.
func WithHooks(h wiki.Hooks) Option {
	return func(c *Context) {
		c.hooks = h
	}
}

// WithHostLoader sets the fallback for module names no tiddler defines.
func WithHostLoader(l module.HostLoader) Option {
	return func(c *Context) {
		c.hostLoader = l
	}
}

// WithSandbox sets the evaluator for module source.
func WithSandbox(s *module.Sandbox) Option {
	return func(c *Context) {
		c.sandbox = s
	}
}

// WithPluginTypes sets the plugin types registered during boot, in order.
func WithPluginTypes(types ...string) Option {
	return func(c *Context) {
		c.pluginTypes = types
	}
}

// WithSafeMode limits boot to the core plugin.
func WithSafeMode(on bool) Option {
	return func(c *Context) {
		c.safeMode = on
	}
}

// New builds a context with the built-in modules defined and installed.
func New(opts ...Option) (*Context, error) {
	c := &Context{
		logger:      slog.Default(),
		pluginTypes: []string{PluginType},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reporter == nil {
		c.reporter = &LogReporter{Logger: c.logger}
	}

	c.Codecs = tiddler.NewCodecs()
	c.FileTypes = deserialize.DefaultFileTypes()
	c.Deserializers = deserialize.NewRegistry(c.FileTypes, deserialize.WithLogger(c.logger))

	wikiOpts := []wiki.Option{wiki.WithCodecs(c.Codecs), wiki.WithLogger(c.logger)}
	if c.hooks != nil {
		wikiOpts = append(wikiOpts, wiki.WithHooks(c.hooks))
	}
	c.Wiki = wiki.New(wikiOpts...)

	modOpts := []module.Option{
		module.WithLogger(c.logger),
		module.WithReporter(module.ReporterFunc(c.reportFailure)),
	}
	if c.hostLoader != nil {
		modOpts = append(modOpts, module.WithHostLoader(c.hostLoader))
	}
	if c.sandbox != nil {
		modOpts = append(modOpts, module.WithSandbox(c.sandbox))
	}
	c.Modules = module.NewRegistry(modOpts...)

	c.defineBuiltins()
	if err := c.InstallFieldCodecs(); err != nil {
		return nil, fmt.Errorf("install field codecs: %w", err)
	}
	if err := c.InstallDeserializers(); err != nil {
		return nil, fmt.Errorf("install deserializers: %w", err)
	}
	return c, nil
}

// Logger returns the context's logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Failures returns every failure reported so far.
func (c *Context) Failures() []error {
	return append([]error(nil), c.failures...)
}

func (c *Context) reportFailure(err error) {
	c.failures = append(c.failures, err)
	c.reporter.ReportError(err)
}
