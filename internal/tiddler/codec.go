package tiddler

import (
	"fmt"
	"maps"
	"sync"
)

// Codec converts a field between its textual form and its semantic form.
// Either function may be nil: a codec without Parse leaves the raw value in
// place, one without Stringify renders the value with the default encoding.
type Codec struct {
	Name      string
	Parse     func(value any) (any, error)
	Stringify func(value any) string

	// Editor hints; not used by the kernel itself.
	EditTag  string
	EditType string
}

// Codecs is the field codec registry. A nil *Codecs behaves as an empty
// registry, so every field passes through unchanged.
type Codecs struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewCodecs returns an empty registry.
func NewCodecs() *Codecs {
	return &Codecs{codecs: make(map[string]Codec)}
}

// Register installs or replaces the codec for c.Name.
func (c *Codecs) Register(codec Codec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codecs == nil {
		c.codecs = make(map[string]Codec)
	}
	c.codecs[codec.Name] = codec
}

// Lookup returns the codec registered for a field name.
func (c *Codecs) Lookup(name string) (Codec, bool) {
	if c == nil {
		return Codec{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	codec, ok := c.codecs[name]
	return codec, ok
}

// Names returns the registered field names.
func (c *Codecs) Names() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.codecs))
	for name := range maps.Keys(c.codecs) {
		names = append(names, name)
	}
	return names
}

// New builds a tiddler by merging bundles left to right. Later values win,
// Absent removes a field, and every remaining field with a registered
// parser is converted to its semantic form.
func (c *Codecs) New(bundles ...Bundle) (*Tiddler, error) {
	merged := make(Bundle)
	for _, b := range bundles {
		for k, v := range b {
			if v == Absent {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
	}

	for name, raw := range merged {
		codec, ok := c.Lookup(name)
		if !ok || codec.Parse == nil {
			continue
		}
		parsed, err := codec.Parse(raw)
		if err != nil {
			return nil, &FieldError{Field: name, Err: err}
		}
		merged[name] = parsed
	}

	return &Tiddler{fields: merged}, nil
}

// MustNew is like New but panics on a codec failure. Intended for fixtures
// and built-in tiddlers whose fields are known to be well-formed.
func (c *Codecs) MustNew(bundles ...Bundle) *Tiddler {
	t, err := c.New(bundles...)
	if err != nil {
		panic(err)
	}
	return t
}

// StringifyField renders one field value in textual form.
func (c *Codecs) StringifyField(name string, value any) string {
	if codec, ok := c.Lookup(name); ok && codec.Stringify != nil {
		return codec.Stringify(value)
	}
	return textOf(value)
}

// Stringify returns the textual form of every field of t.
func (c *Codecs) Stringify(t *Tiddler) map[string]string {
	out := make(map[string]string)
	if t == nil {
		return out
	}
	for name, v := range t.fields {
		out[name] = c.StringifyField(name, v)
	}
	return out
}

// FieldError reports a codec failure while constructing a tiddler.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
