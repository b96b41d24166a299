package loader

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/roach88/twboot/internal/deserialize"
	"github.com/roach88/twboot/internal/tiddler"
)

// Well-known names inside tiddler folders.
const (
	MetaSuffix     = ".meta"
	FilesInfoName  = "tiddlywiki.files"
	PluginInfoName = "plugin.info"
)

// DefaultExclude matches files skipped while walking a directory: editor and
// VCS debris, plus .meta sidecars which are read alongside their file.
var DefaultExclude = regexp.MustCompile(`^\.DS_Store$|^.*\.meta$|^\..*\.swp$|^\._.*$|^\.git$|^\.hg$|^\.lock-wscript$|^\.svn$|^\.wafpickle-.*$|^CVS$|^npm-debug\.log$`)

// TiddlerFile is the result of loading one file.
type TiddlerFile struct {
	// Path is empty for tiddlers drawn in by a tiddlywiki.files descriptor.
	Path        string
	Type        string
	HasMetaFile bool
	Tiddlers    []tiddler.Bundle
}

// Loader reads tiddler files using a file type table and a deserializer
// registry, usually the ones owned by a boot context.
type Loader struct {
	types         *deserialize.FileTypes
	deserializers *deserialize.Registry
	exclude       *regexp.Regexp
	logger        *slog.Logger
	coreVersion   string
}

// Option configures a Loader.
type Option func(*Loader)

// WithExclude replaces DefaultExclude.
func WithExclude(re *regexp.Regexp) Option {
	return func(l *Loader) {
		if re != nil {
			l.exclude = re
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithCoreVersion sets the version given to plugins that declare none.
func WithCoreVersion(v string) Option {
	return func(l *Loader) {
		l.coreVersion = v
	}
}

// New returns a Loader.
func New(types *deserialize.FileTypes, deserializers *deserialize.Registry, opts ...Option) *Loader {
	if types == nil {
		types = deserialize.DefaultFileTypes()
	}
	if deserializers == nil {
		deserializers = deserialize.NewRegistry(types)
	}
	l := &Loader{
		types:         types,
		deserializers: deserializers,
		exclude:       DefaultExclude,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadTiddlersFromFile deserializes the file at path using its extension.
// fields supplies defaults for every tiddler. When the file yields exactly
// one tiddler and is not JSON, a sibling .meta file adds or overrides
// fields.
func (l *Loader) LoadTiddlersFromFile(path string, fields tiddler.Bundle) (*TiddlerFile, error) {
	ext := strings.ToLower(filepath.Ext(path))
	ft, known := l.types.ByExtension(ext)

	text, err := l.readEncoded(path, ft.Encoding)
	if err != nil {
		return nil, err
	}

	out := &TiddlerFile{Path: path}
	contentType := ""
	if known {
		out.Type = ft.Type
		contentType = ft.Type
	}
	out.Tiddlers = l.deserializers.Deserialize(contentType, text, fields)

	if ext != ".json" && len(out.Tiddlers) == 1 {
		meta, err := os.ReadFile(path + MetaSuffix)
		switch {
		case err == nil:
			if len(meta) > 0 {
				out.Tiddlers[0] = tiddler.ParseFields(string(meta), out.Tiddlers[0])
				out.HasMetaFile = true
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read %s: %w", path+MetaSuffix, err)
		}
	}
	return out, nil
}

// LoadTiddlersFromPath loads a file, or every file below a directory. A
// directory holding a tiddlywiki.files descriptor loads only the files the
// descriptor names. A missing path yields nothing.
func (l *Loader) LoadTiddlersFromPath(path string) ([]TiddlerFile, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, nil
		}
		tf, err := l.LoadTiddlersFromFile(path, nil)
		if err != nil {
			return nil, err
		}
		return []TiddlerFile{*tf}, nil
	}

	descriptor := filepath.Join(path, FilesInfoName)
	if _, err := os.Stat(descriptor); err == nil {
		return l.loadFilesInfo(path, descriptor)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	var out []TiddlerFile
	for _, e := range entries {
		if l.exclude.MatchString(e.Name()) {
			continue
		}
		files, err := l.LoadTiddlersFromPath(filepath.Join(path, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

type filesInfo struct {
	Tiddlers []struct {
		File   string         `json:"file"`
		Fields map[string]any `json:"fields"`
		Prefix string         `json:"prefix"`
		Suffix string         `json:"suffix"`
	} `json:"tiddlers"`
}

func (l *Loader) loadFilesInfo(dir, descriptor string) ([]TiddlerFile, error) {
	data, err := os.ReadFile(descriptor)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", descriptor, err)
	}
	var info filesInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse %s: %w", descriptor, err)
	}

	var out []TiddlerFile
	for _, entry := range info.Tiddlers {
		fields := tiddler.Bundle(entry.Fields)
		if fields == nil {
			fields = make(tiddler.Bundle)
		}
		contentType, _ := fields[tiddler.FieldType].(string)
		if contentType == "" {
			contentType = deserialize.TypeText
		}
		ft, _ := l.types.ByType(contentType)

		target := entry.File
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		text, err := l.readEncoded(target, ft.Encoding)
		if err != nil {
			return nil, err
		}
		fields[tiddler.FieldText] = entry.Prefix + text + entry.Suffix
		out = append(out, TiddlerFile{Tiddlers: []tiddler.Bundle{fields}})
	}
	return out, nil
}

func (l *Loader) readEncoded(path, encoding string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if encoding == deserialize.EncodingBase64 {
		return base64.StdEncoding.EncodeToString(data), nil
	}
	return string(data), nil
}
