package wikiinfo

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// FileName is the name of the info file inside a wiki folder.
const FileName = "tiddlywiki.info"

// Info is a validated wiki info file.
type Info struct {
	Description  string
	Plugins      []string
	Themes       []string
	Languages    []string
	IncludeWikis []IncludeWiki
	Build        map[string][]string
	Config       Config
}

// IncludeWiki names another wiki folder, relative to the including one.
type IncludeWiki struct {
	Path     string
	ReadOnly bool
}

// Config holds the config block.
type Config struct {
	RetainOriginalTiddlerPath bool
}

type rawInfo struct {
	Description  string              `json:"description"`
	Plugins      []string            `json:"plugins"`
	Themes       []string            `json:"themes"`
	Languages    []string            `json:"languages"`
	IncludeWikis []any               `json:"includeWikis"`
	Build        map[string][]string `json:"build"`
	Config       struct {
		RetainOriginalTiddlerPath bool `json:"retain-original-tiddler-path"`
	} `json:"config"`
}

// Error is a validation failure with source position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsError reports whether err is a validation Error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// Load reads and validates the info file at path.
func Load(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wiki info: %w", err)
	}
	return Parse(path, data)
}

// Parse validates data, reporting positions against filename.
func Parse(filename string, data []byte) (*Info, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile wiki info schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &Error{Field: "info", Message: "must be an object", Pos: v.Pos()}
	}

	v = schema.LookupPath(cue.ParsePath("#WikiInfo")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var raw rawInfo
	if err := v.Decode(&raw); err != nil {
		return nil, formatCUEError(err)
	}

	info := &Info{
		Description: raw.Description,
		Plugins:     raw.Plugins,
		Themes:      raw.Themes,
		Languages:   raw.Languages,
		Build:       raw.Build,
		Config:      Config{RetainOriginalTiddlerPath: raw.Config.RetainOriginalTiddlerPath},
	}
	for _, entry := range raw.IncludeWikis {
		switch e := entry.(type) {
		case string:
			info.IncludeWikis = append(info.IncludeWikis, IncludeWiki{Path: e})
		case map[string]any:
			path, _ := e["path"].(string)
			readOnly, _ := e["read-only"].(bool)
			info.IncludeWikis = append(info.IncludeWikis, IncludeWiki{Path: path, ReadOnly: readOnly})
		}
	}
	return info, nil
}

// formatCUEError extracts field and position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := strings.Join(cueerrors.Path(first), ".")
	if field == "" {
		field = "info"
	}
	format, args := first.Msg()
	out := &Error{Field: field, Message: fmt.Sprintf(format, args...)}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		out.Pos = positions[0]
	}
	return out
}
