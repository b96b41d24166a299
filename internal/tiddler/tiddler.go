package tiddler

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Bundle is a raw set of named field values, as produced by a deserializer
// or written by hand. Values are strings, values already in semantic form,
// or Absent.
type Bundle map[string]any

// Clone returns a shallow copy of the bundle. A nil bundle clones to an
// empty one.
func (b Bundle) Clone() Bundle {
	out := make(Bundle, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

type absent struct{}

// Absent marks a field for removal during construction.
var Absent any = absent{}

// Well-known field names.
const (
	FieldTitle      = "title"
	FieldText       = "text"
	FieldType       = "type"
	FieldTags       = "tags"
	FieldList       = "list"
	FieldModified   = "modified"
	FieldCreated    = "created"
	FieldModuleType = "module-type"
	FieldPluginType = "plugin-type"
	FieldPriority   = "plugin-priority"
)

// Tiddler is an immutable content record. The zero value has no fields and
// no title; construct tiddlers with (*Codecs).New.
type Tiddler struct {
	fields Bundle
}

// Title returns the title field as text.
func (t *Tiddler) Title() string {
	return t.String(FieldTitle)
}

// Type returns the content type field, or "" when unset.
func (t *Tiddler) Type() string {
	return t.String(FieldType)
}

// Text returns the body of the tiddler.
func (t *Tiddler) Text() string {
	return t.String(FieldText)
}

// HasField reports whether the field is present.
func (t *Tiddler) HasField(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.fields[name]
	return ok
}

// Field returns the stored (possibly parsed) value of a field.
func (t *Tiddler) Field(name string) (any, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.fields[name]
	return v, ok
}

// String returns the field in textual form. Parsed values are rendered
// with the built-in encodings; missing fields yield "".
func (t *Tiddler) String(name string) string {
	v, ok := t.Field(name)
	if !ok {
		return ""
	}
	return textOf(v)
}

// List returns a list-valued field. A string value is parsed as a
// bracketed list.
func (t *Tiddler) List(name string) []string {
	v, ok := t.Field(name)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return slices.Clone(val)
	case string:
		return ParseStringArray(val)
	}
	return nil
}

// Time returns a timestamp field.
func (t *Tiddler) Time(name string) (time.Time, bool) {
	v, ok := t.Field(name)
	if !ok {
		return time.Time{}, false
	}
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		parsed, err := ParseDate(val)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

// Fields returns a copy of the field bundle, suitable as the first argument
// when building a modified tiddler.
func (t *Tiddler) Fields() Bundle {
	if t == nil {
		return Bundle{}
	}
	out := t.fields.Clone()
	for k, v := range out {
		if list, ok := v.([]string); ok {
			out[k] = slices.Clone(list)
		}
	}
	return out
}

// FieldNames returns the names of all fields in ascending order.
func (t *Tiddler) FieldNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.fields))
	for k := range t.fields {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// textOf renders a field value without consulting a codec registry.
func textOf(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return StringifyList(val)
	case time.Time:
		return StringifyDate(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
