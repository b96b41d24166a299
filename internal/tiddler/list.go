package tiddler

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseStringArray parses a bracketed list. Items are separated by
// whitespace; an item containing whitespace is written as [[item]]. The
// result keeps the first occurrence of each item.
func ParseStringArray(s string) []string {
	out := []string{}
	seen := make(map[string]bool)
	add := func(item string) {
		if item == "" || seen[item] {
			return
		}
		seen[item] = true
		out = append(out, item)
	}

	i := 0
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		if strings.HasPrefix(s[i:], "[[") {
			if end, ok := bracketEnd(s, i+2); ok {
				add(s[i+2 : end])
				i = end + 2
				continue
			}
		}
		start := i
		for i < len(s) && !isSpace(s[i]) {
			i++
		}
		add(s[start:i])
	}
	return out
}

// bracketEnd finds the "]]" closing a bracketed item that begins at from.
// The closing brackets must be followed by whitespace or the end of input,
// and the item may not span a line break.
func bracketEnd(s string, from int) (int, bool) {
	for j := from; j+1 < len(s); j++ {
		if s[j] == '\n' || s[j] == '\r' {
			return 0, false
		}
		if s[j] == ']' && s[j+1] == ']' && (j+2 == len(s) || isSpace(s[j+2])) {
			return j, true
		}
	}
	return 0, false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

// StringifyList renders items as a bracketed list.
func StringifyList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		if strings.IndexFunc(item, unicode.IsSpace) >= 0 {
			b.WriteString("[[")
			b.WriteString(item)
			b.WriteString("]]")
		} else {
			b.WriteString(item)
		}
	}
	return b.String()
}

// ParseListField is the Parse half of the list codec.
func ParseListField(v any) (any, error) {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list item %v is %T, not string", item, item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		return ParseStringArray(val), nil
	}
	return nil, fmt.Errorf("cannot parse %T as list", v)
}

// StringifyListField is the Stringify half of the list codec.
func StringifyListField(v any) string {
	if items, ok := v.([]string); ok {
		return StringifyList(items)
	}
	return textOf(v)
}

// ListCodec returns the list codec for a field name.
func ListCodec(name string) Codec {
	return Codec{Name: name, Parse: ParseListField, Stringify: StringifyListField}
}
