package wiki

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/twboot/internal/tiddler"
)

// TypeJSON is the content type of plugin tiddlers.
const TypeJSON = "application/json"

// CoreTitle is the plugin that can never be disabled.
const CoreTitle = "$:/core"

// DisabledPrefix prefixes the config tiddler that disables a plugin when its
// text is "yes".
const DisabledPrefix = "$:/config/Plugins/Disabled/"

// PluginInfo is the parsed body of a plugin tiddler. A nil bundle marks an
// entry that was not a JSON object; it is skipped when unpacking.
type PluginInfo struct {
	Tiddlers map[string]tiddler.Bundle
}

// PluginChanges lists what a ReadPluginInfo pass did.
type PluginChanges struct {
	Modified []string
	Deleted  []string
}

// ParsePluginInfo parses a plugin body.
func ParsePluginInfo(text string) (PluginInfo, error) {
	var doc struct {
		Tiddlers map[string]json.RawMessage `json:"tiddlers"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return PluginInfo{}, err
	}
	info := PluginInfo{Tiddlers: make(map[string]tiddler.Bundle, len(doc.Tiddlers))}
	for title, raw := range doc.Tiddlers {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			info.Tiddlers[title] = nil
			continue
		}
		info.Tiddlers[title] = tiddler.Bundle(fields)
	}
	return info, nil
}

// IsPlugin reports whether t is a plugin tiddler.
func IsPlugin(t *tiddler.Tiddler) bool {
	return t != nil && t.Type() == TypeJSON && t.HasField(tiddler.FieldPluginType)
}

// ReadPluginInfo parses the body of every plugin tiddler in the real layer,
// or only of the given titles. A listed title that is no longer a real
// tiddler has its info dropped.
//
// The pass is all or nothing: if any plugin body fails to parse, the error
// names that plugin and no info is changed.
func (w *Wiki) ReadPluginInfo(titles ...string) (PluginChanges, error) {
	if len(titles) == 0 {
		titles = w.AllTitles()
	}

	next := maps.Clone(w.pluginInfo)
	var changes PluginChanges
	for _, title := range titles {
		t, ok := w.real[title]
		if !ok {
			if _, had := next[title]; had {
				delete(next, title)
				changes.Deleted = append(changes.Deleted, title)
			}
			continue
		}
		if !IsPlugin(t) {
			continue
		}
		info, err := ParsePluginInfo(t.Text())
		if err != nil {
			return PluginChanges{}, &MalformedPluginInfoError{Title: title, Err: err}
		}
		next[title] = info
		changes.Modified = append(changes.Modified, title)
	}

	w.pluginInfo = next
	return changes, nil
}

// PluginInfo returns the parsed info of a plugin.
func (w *Wiki) PluginInfo(title string) (PluginInfo, bool) {
	info, ok := w.pluginInfo[title]
	return info, ok
}

// RegisterPluginTiddlers activates plugins of pluginType, either every
// matching real tiddler or only the listed candidate titles, and returns
// the titles added. A plugin already active is moved to the end. Plugins
// disabled by config are skipped, except the core.
func (w *Wiki) RegisterPluginTiddlers(pluginType string, titles ...string) []string {
	var registered []string
	check := func(title string, t *tiddler.Tiddler) {
		if !IsPlugin(t) || t.String(tiddler.FieldPluginType) != pluginType {
			return
		}
		if title != CoreTitle && w.isDisabled(title) {
			w.logger.Debug("plugin disabled", "title", title)
			return
		}
		w.UnregisterPluginTiddlers("", title)
		w.plugins = append(w.plugins, t)
		registered = append(registered, t.Title())
	}

	if len(titles) > 0 {
		for _, title := range titles {
			check(title, w.GetTiddler(title))
		}
	} else {
		w.Each(check)
	}
	return registered
}

// UnregisterPluginTiddlers deactivates plugins of pluginType, or of any
// type when pluginType is empty. When titles are given only those plugins
// are considered. It returns the titles removed.
func (w *Wiki) UnregisterPluginTiddlers(pluginType string, titles ...string) []string {
	var removed []string
	kept := w.plugins[:0]
	for _, t := range w.plugins {
		match := (pluginType == "" || t.String(tiddler.FieldPluginType) == pluginType) &&
			(len(titles) == 0 || slices.Contains(titles, t.Title()))
		if match {
			removed = append(removed, t.Title())
			continue
		}
		kept = append(kept, t)
	}
	clear(w.plugins[len(kept):])
	w.plugins = kept
	return removed
}

// PluginTiddlers returns the titles of active plugins in their current
// order.
func (w *Wiki) PluginTiddlers() []string {
	out := make([]string, len(w.plugins))
	for i, t := range w.plugins {
		out[i] = t.Title()
	}
	return out
}

// UnpackPluginTiddlers sorts the active plugins by plugin-priority and
// rebuilds the shadow layer from their info. Plugins are applied in
// ascending priority, so on a title collision the highest priority wins.
// Plugins without a priority sort after those with one, and by title among
// themselves.
//
// Entries with an empty title, and entries whose fields cannot build a
// tiddler, are skipped. Running it twice without changes in between yields
// the same shadow layer.
func (w *Wiki) UnpackPluginTiddlers() {
	type ranked struct {
		t        *tiddler.Tiddler
		priority float64
		has      bool
	}
	order := make([]ranked, len(w.plugins))
	for i, t := range w.plugins {
		p, has := w.priority(t)
		order[i] = ranked{t: t, priority: p, has: has}
	}
	slices.SortStableFunc(order, func(a, b ranked) int {
		switch {
		case a.has && b.has:
			if a.priority < b.priority {
				return -1
			}
			if a.priority > b.priority {
				return 1
			}
			return 0
		case a.has:
			return -1
		case b.has:
			return 1
		default:
			return strings.Compare(a.t.Title(), b.t.Title())
		}
	})
	for i, r := range order {
		w.plugins[i] = r.t
	}

	shadows := make(map[string]Shadow)
	for _, plugin := range w.plugins {
		source := plugin.Title()
		info, ok := w.pluginInfo[source]
		if !ok {
			w.logger.Debug("active plugin has no info", "title", source)
			continue
		}
		titles := slices.Sorted(maps.Keys(info.Tiddlers))
		for _, title := range titles {
			fields := info.Tiddlers[title]
			if title == "" || fields == nil {
				continue
			}
			t, err := w.codecs.New(fields, tiddler.Bundle{tiddler.FieldTitle: title})
			if err != nil {
				w.logger.Warn("skipping plugin tiddler",
					"plugin", source,
					"title", title,
					"error", err)
				continue
			}
			shadows[title] = Shadow{Source: source, Tiddler: t}
		}
	}

	w.shadows = shadows
	w.hooks.ClearGlobalCache()
}

// priority reads plugin-priority. Values that are not numbers count as
// missing.
func (w *Wiki) priority(t *tiddler.Tiddler) (float64, bool) {
	if !t.HasField(tiddler.FieldPriority) {
		return 0, false
	}
	raw := strings.TrimSpace(t.String(tiddler.FieldPriority))
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		w.logger.Warn("ignoring non-numeric plugin-priority",
			"title", t.Title(),
			"value", raw,
			"error", err)
		return 0, false
	}
	return p, true
}

func (w *Wiki) isDisabled(title string) bool {
	cfg := w.GetTiddler(DisabledPrefix + title)
	return cfg != nil && strings.TrimSpace(cfg.Text()) == "yes"
}
