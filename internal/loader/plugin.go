package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/roach88/twboot/internal/tiddler"
	"github.com/roach88/twboot/internal/wiki"
)

// pluginInfoFields are copied from plugin.info onto the plugin tiddler.
var pluginInfoFields = []string{
	tiddler.FieldPriority,
	"name",
	"version",
	"thumbnail",
	"description",
}

// LoadPluginFolder packs the tiddlers below a plugin folder into a single
// plugin tiddler described by the folder's plugin.info. A missing folder
// yields nil.
func (l *Loader) LoadPluginFolder(path string) (tiddler.Bundle, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, nil
	}

	infoPath := filepath.Join(path, PluginInfoName)
	data, err := os.ReadFile(infoPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", infoPath, err)
	}
	var pluginInfo map[string]any
	if err := json.Unmarshal(data, &pluginInfo); err != nil {
		return nil, fmt.Errorf("parse %s: %w", infoPath, err)
	}
	title, _ := pluginInfo[tiddler.FieldTitle].(string)
	if title == "" {
		return nil, fmt.Errorf("%s: plugin has no title", infoPath)
	}

	tiddlers := make(map[string]any)
	if declared, ok := pluginInfo["tiddlers"].(map[string]any); ok {
		for k, v := range declared {
			tiddlers[k] = v
		}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	for _, e := range entries {
		name := e.Name()
		if l.exclude.MatchString(name) || name == PluginInfoName || name == FilesInfoName {
			continue
		}
		files, err := l.LoadTiddlersFromPath(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			for _, b := range f.Tiddlers {
				if t, _ := b[tiddler.FieldTitle].(string); t != "" {
					tiddlers[t] = map[string]any(b)
				}
			}
		}
	}

	body, err := json.MarshalIndent(map[string]any{"tiddlers": tiddlers}, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode plugin %s: %w", title, err)
	}

	fields := tiddler.Bundle{
		tiddler.FieldTitle: title,
		tiddler.FieldType:  wiki.TypeJSON,
		tiddler.FieldText:  string(body),
	}
	if _, ok := pluginInfo["version"]; !ok && l.coreVersion != "" {
		pluginInfo["version"] = l.coreVersion
	}
	for _, name := range pluginInfoFields {
		if v, ok := pluginInfo[name]; ok && v != nil {
			fields[name] = scalarText(v)
		}
	}
	pluginType, _ := pluginInfo[tiddler.FieldPluginType].(string)
	if pluginType == "" {
		pluginType = "plugin"
	}
	fields[tiddler.FieldPluginType] = pluginType
	fields["dependents"] = tiddler.StringifyList(stringsOf(pluginInfo["dependents"]))
	return fields, nil
}

func scalarText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		data, _ := json.Marshal(x)
		return string(data)
	}
}

func stringsOf(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
