package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/twboot/internal/boot"
	"github.com/roach88/twboot/internal/deserialize"
	"github.com/roach88/twboot/internal/tiddler"
	"github.com/roach88/twboot/internal/wikiinfo"
)

// Sub-folders of a wiki folder, and of a plugin library.
const (
	TiddlersDir  = "tiddlers"
	PluginsDir   = "plugins"
	ThemesDir    = "themes"
	LanguagesDir = "languages"
)

// OriginalPathsTitle lists where each tiddler was loaded from when a wiki
// sets retain-original-tiddler-path.
const OriginalPathsTitle = "$:/config/OriginalTiddlerPaths"

// ErrNoWikiInfo is returned when a wiki folder has no tiddlywiki.info.
var ErrNoWikiInfo = errors.New("no " + wikiinfo.FileName)

// File records where a tiddler in a wiki's tiddlers folder came from.
type File struct {
	Path        string `json:"filepath"`
	Type        string `json:"type,omitempty"`
	HasMetaFile bool   `json:"hasMetaFile"`
}

// WikiSource loads a wiki folder: its included wikis, the plugins, themes
// and languages it names, its tiddlers folder and the plugin folders it
// carries.
type WikiSource struct {
	loader  *Loader
	path    string
	library string

	info  *wikiinfo.Info
	files map[string]File
}

// WikiOption configures a WikiSource.
type WikiOption func(*WikiSource)

// WithLibrary sets the folder holding plugins/, themes/ and languages/
// that a wiki's info file refers to by name.
func WithLibrary(dir string) WikiOption {
	return func(s *WikiSource) {
		s.library = dir
	}
}

// Wiki returns a source over the wiki folder at path.
func (l *Loader) Wiki(path string, opts ...WikiOption) *WikiSource {
	s := &WikiSource{loader: l, path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WikiSource) Name() string { return "wiki:" + s.path }

// Info returns the root wiki's info after Load.
func (s *WikiSource) Info() *wikiinfo.Info { return s.info }

// Files returns the file each tiddler from a tiddlers folder was loaded
// from, keyed by title.
func (s *WikiSource) Files() map[string]File {
	return maps.Clone(s.files)
}

// Load reads the wiki folder. A root folder without an info file is an
// error; an included one is skipped with a warning.
func (s *WikiSource) Load(ctx context.Context) ([]boot.Raw, error) {
	root, err := filepath.Abs(s.path)
	if err != nil {
		return nil, err
	}
	s.files = make(map[string]File)
	raws, info, err := s.loadWiki(ctx, root, nil)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%s: %w", s.path, ErrNoWikiInfo)
	}
	s.info = info
	return raws, nil
}

func (s *WikiSource) loadWiki(ctx context.Context, dir string, parents []string) ([]boot.Raw, *wikiinfo.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	logger := s.loader.logger

	info, err := wikiinfo.Load(filepath.Join(dir, wikiinfo.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var raws []boot.Raw

	if len(info.IncludeWikis) > 0 {
		parents = append(slices.Clone(parents), dir)
		for _, inc := range info.IncludeWikis {
			included := inc.Path
			if !filepath.IsAbs(included) {
				included = filepath.Join(dir, included)
			}
			if slices.Contains(parents, included) {
				logger.Error("cannot recursively include wiki", "wiki", included)
				continue
			}
			more, incInfo, err := s.loadWiki(ctx, included, parents)
			if err != nil {
				return nil, nil, err
			}
			if incInfo == nil {
				logger.Warn("included wiki has no info file", "wiki", included)
			}
			raws = append(raws, more...)
		}
	}

	for _, group := range []struct {
		sub   string
		names []string
	}{
		{PluginsDir, info.Plugins},
		{ThemesDir, info.Themes},
		{LanguagesDir, info.Languages},
	} {
		for _, name := range group.names {
			if s.library == "" {
				logger.Warn("no plugin library configured, skipping", "kind", group.sub, "name", name)
				continue
			}
			folder := filepath.Join(s.library, group.sub, filepath.FromSlash(name))
			fields, err := s.loader.LoadPluginFolder(folder)
			if err != nil {
				return nil, nil, err
			}
			if fields == nil {
				logger.Warn("plugin folder not found", "kind", group.sub, "name", name, "path", folder)
				continue
			}
			raws = append(raws, boot.Raw{Fields: fields})
		}
	}

	tiddlersPath := filepath.Join(dir, TiddlersDir)
	files, err := s.loader.LoadTiddlersFromPath(tiddlersPath)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		for _, b := range f.Tiddlers {
			if f.Path != "" {
				if title, _ := b[tiddler.FieldTitle].(string); title != "" {
					s.files[title] = File{Path: f.Path, Type: f.Type, HasMetaFile: f.HasMetaFile}
				}
			}
			raws = append(raws, boot.Raw{Fields: b})
		}
	}

	if info.Config.RetainOriginalTiddlerPath {
		raws = append(raws, boot.Raw{Fields: s.originalPaths(tiddlersPath)})
	}

	for _, sub := range []string{PluginsDir, ThemesDir, LanguagesDir} {
		more, err := s.loadPluginFolders(filepath.Join(dir, sub))
		if err != nil {
			return nil, nil, err
		}
		raws = append(raws, more...)
	}

	return raws, info, nil
}

func (s *WikiSource) originalPaths(tiddlersPath string) tiddler.Bundle {
	var b strings.Builder
	for _, title := range slices.Sorted(maps.Keys(s.files)) {
		rel, err := filepath.Rel(tiddlersPath, s.files[title].Path)
		if err != nil {
			rel = s.files[title].Path
		}
		fmt.Fprintf(&b, "%s: %s\n", title, filepath.ToSlash(rel))
	}
	return tiddler.Bundle{
		tiddler.FieldTitle: OriginalPathsTitle,
		tiddler.FieldType:  deserialize.TypeTiddlerDictionary,
		tiddler.FieldText:  b.String(),
	}
}

func (s *WikiSource) loadPluginFolders(dir string) ([]boot.Raw, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var raws []boot.Raw
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		fields, err := s.loader.LoadPluginFolder(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if fields != nil {
			raws = append(raws, boot.Raw{Fields: fields})
		}
	}
	return raws, nil
}

// Dir returns a source over every tiddler file below path, with no wiki
// info or plugin handling.
func (l *Loader) Dir(path string) boot.Source {
	return &dirSource{loader: l, path: path}
}

type dirSource struct {
	loader *Loader
	path   string
}

func (d *dirSource) Name() string { return "dir:" + d.path }

func (d *dirSource) Load(context.Context) ([]boot.Raw, error) {
	files, err := d.loader.LoadTiddlersFromPath(d.path)
	if err != nil {
		return nil, err
	}
	var raws []boot.Raw
	for _, f := range files {
		raws = append(raws, boot.Bundles(f.Tiddlers...)...)
	}
	return raws, nil
}
