package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/twboot/internal/boot"
	"github.com/roach88/twboot/internal/loader"
	"github.com/roach88/twboot/internal/module"
	"github.com/roach88/twboot/internal/testutil"
	"github.com/roach88/twboot/internal/tiddler"
	"github.com/roach88/twboot/internal/wiki"
)

// Harness runs scenarios against fresh boot contexts.
type Harness struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to each boot context. The default
// discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithNow sets the clock behind the sandbox's timestamp().
func WithNow(now func() time.Time) Option {
	return func(h *Harness) {
		if now != nil {
			h.now = now
		}
	}
}

// New returns a Harness with a frozen clock and a silent logger.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    testutil.NewFrozenClock().Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with default settings.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a scenario and returns the result. An error means the
// scenario could not run at all; assertion failures are reported in the
// result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	c, queue, err := h.newContext(scenario)
	if err != nil {
		return nil, err
	}

	var sources []boot.Source
	if scenario.Wiki != "" {
		l := loader.New(c.FileTypes, c.Deserializers,
			loader.WithLogger(h.logger),
			loader.WithCoreVersion(module.Version))
		var wopts []loader.WikiOption
		if scenario.Library != "" {
			wopts = append(wopts, loader.WithLibrary(scenario.Library))
		}
		sources = append(sources, l.Wiki(scenario.Wiki, wopts...))
	}
	if len(scenario.Tiddlers) > 0 {
		sources = append(sources, boot.NewStaticSource("scenario:"+scenario.Name, rawEntries(scenario.Tiddlers)...))
	}

	summary, err := c.Startup(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("boot scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Summary = summary

	for i, step := range scenario.Steps {
		if err := h.runStep(c, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	// Failures contained after boot count too.
	summary.Failures = nil
	for _, f := range c.Failures() {
		summary.Failures = append(summary.Failures, f.Error())
	}

	for _, ev := range queue.Drain() {
		result.Trace = append(result.Trace, TraceEvent{Seq: ev.Seq, Title: ev.Title, Deleted: ev.Deleted})
	}

	for _, a := range scenario.Assertions {
		if err := evaluate(c, result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

func (h *Harness) newContext(scenario *Scenario) (*boot.Context, *wiki.ChangeQueue, error) {
	queue := wiki.NewChangeQueue(wiki.NewClock())
	sandbox := module.NewSandbox()
	sandbox.Now = h.now

	opts := []boot.Option{
		boot.WithLogger(h.logger),
		boot.WithReporter(&boot.LogReporter{Logger: h.logger}),
		boot.WithHooks(queue),
		boot.WithSandbox(sandbox),
		boot.WithSafeMode(scenario.SafeMode),
	}
	if len(scenario.PluginTypes) > 0 {
		opts = append(opts, boot.WithPluginTypes(scenario.PluginTypes...))
	}
	c, err := boot.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create boot context: %w", err)
	}
	return c, queue, nil
}

func (h *Harness) runStep(c *boot.Context, step Step, result *Result) error {
	switch {
	case step.Add != nil:
		if _, err := c.Wiki.AddFields(tiddler.Bundle(step.Add)); err != nil {
			return fmt.Errorf("add: %w", err)
		}
	case step.Delete != "":
		c.Wiki.DeleteTiddler(step.Delete)
	case step.Execute != "":
		exports, err := c.Modules.Execute(step.Execute, "")
		if err != nil {
			result.ExecErrors[step.Execute] = err.Error()
			delete(result.Exports, step.Execute)
			return nil
		}
		result.Exports[step.Execute] = Normalize(exports)
	case step.Recompose:
		return c.ComposePlugins()
	}
	return nil
}

func rawEntries(tiddlers []RawTiddler) []boot.Raw {
	raws := make([]boot.Raw, 0, len(tiddlers))
	for _, rt := range tiddlers {
		fields := tiddler.Bundle(rt.Fields)
		if fields == nil {
			fields = make(tiddler.Bundle)
		}
		raws = append(raws, boot.Raw{
			ContentType: rt.Type,
			Text:        rt.Text,
			Fields:      fields,
		})
	}
	return raws
}
