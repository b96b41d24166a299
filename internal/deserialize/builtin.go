package deserialize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/twboot/internal/tiddler"
)

var (
	blankLine = regexp.MustCompile(`\r?\n\r?\n`)
	lineBreak = regexp.MustCompile(`\r?\n`)
)

// Tid reads a header block of "name: value" lines, a blank line and the
// body. Text without a blank line is all header and has an empty body.
func Tid(text string, fields tiddler.Bundle, _ string) ([]tiddler.Bundle, error) {
	parts := blankLine.Split(text, -1)
	fields = tiddler.ParseFields(parts[0], fields)
	if len(parts) >= 2 {
		fields[tiddler.FieldText] = strings.Join(parts[1:], "\n\n")
	} else {
		fields[tiddler.FieldText] = ""
	}
	return []tiddler.Bundle{fields}, nil
}

// Tids returns a Func for the multi-record format. A header block is
// followed by one "title: text" line per record; lines without ": " are
// skipped. The header title, if
// any, prefixes every record title. Duplicate titles are kept and logged.
func Tids(logger *slog.Logger) Func {
	if logger == nil {
		logger = slog.Default()
	}
	return func(text string, fields tiddler.Bundle, _ string) ([]tiddler.Bundle, error) {
		loc := blankLine.FindStringIndex(text)
		if loc == nil {
			return nil, nil
		}
		header := tiddler.ParseFields(text[:loc[0]], fields)
		prefix, _ := header[tiddler.FieldTitle].(string)

		var out []tiddler.Bundle
		seen := make(map[string]bool)
		for _, line := range lineBreak.Split(text[loc[1]:], -1) {
			if strings.HasPrefix(line, "#") {
				continue
			}
			sep := strings.Index(line, ": ")
			if sep < 0 {
				continue
			}
			rec := header.Clone()
			title := prefix + strings.TrimSpace(line[:sep])
			if seen[title] {
				logger.Warn("multiple definitions in multi-record block", "title", title)
			}
			seen[title] = true
			rec[tiddler.FieldTitle] = title
			rec[tiddler.FieldText] = line[sep+2:]
			out = append(out, rec)
		}
		return out, nil
	}
}

// Text stores the whole text as the body and stamps the content type.
func Text(text string, fields tiddler.Bundle, contentType string) ([]tiddler.Bundle, error) {
	if fields == nil {
		fields = make(tiddler.Bundle)
	}
	if contentType == "" {
		contentType = TypeText
	}
	fields[tiddler.FieldText] = text
	fields[tiddler.FieldType] = contentType
	return []tiddler.Bundle{fields}, nil
}

// HTML stores the whole text as an HTML body.
func HTML(text string, fields tiddler.Bundle, _ string) ([]tiddler.Bundle, error) {
	return Text(text, fields, TypeHTML)
}

// JSON reads an array of field bundles. A single object is treated as a
// one-element array. fields supplies defaults for every record.
func JSON(text string, fields tiddler.Bundle, _ string) ([]tiddler.Bundle, error) {
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return bundlesFrom(raw, fields)
}

// bundlesFrom converts a decoded document into bundles layered over defaults.
func bundlesFrom(doc any, defaults tiddler.Bundle) ([]tiddler.Bundle, error) {
	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("expected array of objects, got %T", doc)
	}

	out := make([]tiddler.Bundle, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d: expected object, got %T", i, item)
		}
		rec := defaults.Clone()
		for k, v := range obj {
			rec[k] = fieldValue(v)
		}
		out = append(out, rec)
	}
	return out, nil
}

// fieldValue maps a decoded scalar or list to a field value. Lists stay
// lists so list codecs can take them as they are; other scalars become text.
func fieldValue(v any) any {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = scalarText(item)
		}
		return out
	default:
		return scalarText(val)
	}
}

func scalarText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
