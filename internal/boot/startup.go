package boot

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/twboot/internal/deserialize"
	"github.com/roach88/twboot/internal/module"
	"github.com/roach88/twboot/internal/tiddler"
	"github.com/roach88/twboot/internal/wiki"
)

// Summary describes a finished boot.
type Summary struct {
	Tiddlers int      `json:"tiddlers"`
	Shadows  int      `json:"shadows"`
	Plugins  []string `json:"plugins"`
	Modules  []string `json:"modules"`
	Startup  []string `json:"startup"`
	Failures []string `json:"failures,omitempty"`
}

// Startup loads every source in order and then boots.
func (c *Context) Startup(ctx context.Context, sources ...Source) (*Summary, error) {
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raws, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", src.Name(), err)
		}
		n := c.LoadRaw(raws...)
		c.logger.Debug("source loaded", "source", src.Name(), "tiddlers", n)
	}
	return c.Boot(ctx)
}

// LoadRaw deserializes entries into the real layer and returns how many
// tiddlers were stored. Bundles that cannot build a tiddler are logged and
// skipped.
func (c *Context) LoadRaw(raws ...Raw) int {
	stored := 0
	for _, raw := range raws {
		bundles := []tiddler.Bundle{raw.Fields}
		if raw.ContentType != "" {
			bundles = c.Deserializers.Deserialize(raw.ContentType, raw.Text, raw.Fields)
		}
		for _, b := range bundles {
			t, err := c.Wiki.AddFields(b)
			if err != nil {
				c.logger.Warn("skipping tiddler", "title", b[tiddler.FieldTitle], "error", err)
				continue
			}
			if t.Title() != "" {
				stored++
			}
		}
	}
	return stored
}

// Boot composes plugins, defines modules and runs startup modules over
// whatever is already in the store.
func (c *Context) Boot(ctx context.Context) (*Summary, error) {
	if err := c.ComposePlugins(); err != nil {
		return nil, err
	}

	defined := c.DefineTiddlerModules()
	defined = append(defined, c.DefineShadowModules()...)

	ran, err := c.RunStartupModules(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Tiddlers: c.Wiki.Count(),
		Shadows:  len(c.Wiki.ShadowTitles()),
		Plugins:  c.Wiki.PluginTiddlers(),
		Modules:  defined,
		Startup:  ran,
	}
	for _, f := range c.failures {
		summary.Failures = append(summary.Failures, f.Error())
	}
	return summary, nil
}

// ComposePlugins reads plugin info from every plugin tiddler, registers the
// configured plugin types and rebuilds the shadow layer. In safe mode only
// the core plugin is registered.
func (c *Context) ComposePlugins() error {
	if _, err := c.Wiki.ReadPluginInfo(); err != nil {
		return err
	}
	for _, pluginType := range c.pluginTypes {
		var only []string
		if c.safeMode {
			only = []string{wiki.CoreTitle}
		}
		c.Wiki.RegisterPluginTiddlers(pluginType, only...)
	}
	c.Wiki.UnpackPluginTiddlers()
	return nil
}

// DefineTiddlerModules defines a module for every real tiddler with a
// module-type field and returns their titles. Source modules already
// defined are left alone.
func (c *Context) DefineTiddlerModules() []string {
	var defined []string
	c.Wiki.Each(func(title string, t *tiddler.Tiddler) {
		if c.defineFromTiddler(t, true) {
			defined = append(defined, title)
		}
	})
	return defined
}

// DefineShadowModules defines a module for every shadow tiddler with a
// module-type field that no real tiddler overrides.
func (c *Context) DefineShadowModules() []string {
	var defined []string
	c.Wiki.EachShadow(func(title string, s wiki.Shadow) {
		if c.Wiki.TiddlerExists(title) {
			return
		}
		if c.defineFromTiddler(s.Tiddler, false) {
			defined = append(defined, title)
		}
	})
	return defined
}

func (c *Context) defineFromTiddler(t *tiddler.Tiddler, keepExisting bool) bool {
	moduleType := t.String(tiddler.FieldModuleType)
	if moduleType == "" {
		return false
	}
	title := t.Title()

	switch t.Type() {
	case deserialize.TypeHCL:
		if keepExisting && c.Modules.Has(title) {
			return false
		}
		c.Modules.Define(title, moduleType, module.Source(t.Text()))
	case deserialize.TypeJSON:
		var exports module.Exports
		if err := json.Unmarshal([]byte(t.Text()), &exports); err != nil {
			c.logger.Warn("skipping module with invalid JSON", "title", title, "error", err)
			return false
		}
		c.Modules.Define(title, moduleType, exports)
	case deserialize.TypeTiddlerDictionary:
		fields := tiddler.ParseFields(t.Text(), nil)
		c.Modules.Define(title, moduleType, module.Exports(fields))
	default:
		c.logger.Debug("module type not executable here", "title", title, "type", t.Type())
		return false
	}
	return true
}

type startupTask struct {
	name    string
	title   string
	exports module.Exports
	after   []string
}

// RunStartupModules executes every "startup" module and calls its startup
// export. A task runs once every task named in its after list has run; a
// task's before list adds it to the after list of the tasks it names.
// Names that match no task are ignored. Failing tasks are reported and do
// not stop the others.
func (c *Context) RunStartupModules(ctx context.Context) ([]string, error) {
	var tasks []*startupTask
	// Failures are already reported; their tasks are simply absent.
	_ = c.Modules.ForEachModuleOfType(TypeStartup, func(title string, exports module.Exports) {
		if exports["startup"] == nil {
			c.logger.Debug("startup module has no startup export", "title", title)
			return
		}
		name, _ := exports[module.DefaultNameField].(string)
		if name == "" {
			name = title
		}
		tasks = append(tasks, &startupTask{
			name:    name,
			title:   title,
			exports: exports,
			after:   stringList(exports["after"]),
		})
	})
	for _, task := range tasks {
		for _, target := range stringList(task.exports["before"]) {
			for _, other := range tasks {
				if other.name == target {
					other.after = append(other.after, task.name)
				}
			}
		}
	}

	known := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		known[task.name] = true
	}
	done := make(map[string]bool, len(tasks))
	var ran []string

	for len(tasks) > 0 {
		if err := ctx.Err(); err != nil {
			return ran, err
		}
		idx := slices.IndexFunc(tasks, func(task *startupTask) bool {
			for _, dep := range task.after {
				if known[dep] && !done[dep] {
					return false
				}
			}
			return true
		})
		if idx < 0 {
			names := make([]string, len(tasks))
			for i, task := range tasks {
				names[i] = task.name
			}
			return ran, fmt.Errorf("startup modules wait on each other: %s", strings.Join(names, ", "))
		}

		task := tasks[idx]
		tasks = slices.Delete(tasks, idx, idx+1)
		if err := c.runStartupTask(ctx, task); err != nil {
			c.reportFailure(&module.ExecutionError{Title: task.title, Err: err})
		}
		done[task.name] = true
		ran = append(ran, task.name)
	}
	return ran, nil
}

func (c *Context) runStartupTask(ctx context.Context, task *startupTask) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	switch fn := task.exports["startup"].(type) {
	case func(context.Context) error:
		return fn(ctx)
	case func() error:
		return fn()
	case func():
		fn()
		return nil
	default:
		c.logger.Info("startup module", "name", task.name, "startup", fn)
		return nil
	}
}

// stringList reads a list export, which may come from Go or from module
// source.
func stringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case string:
		return tiddler.ParseStringArray(val)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
