package tiddler

import (
	"fmt"
	"strconv"
	"time"
)

// ParseDate parses the fixed UTC encoding YYYYMMDDHHMMSSmmm. Trailing
// components may be omitted and default to zero, so "20240102" is midnight
// on 2 January 2024.
func ParseDate(s string) (time.Time, error) {
	if len(s) < 4 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}
	}

	part := func(from, to int, def int) int {
		if len(s) < to {
			return def
		}
		n, _ := strconv.Atoi(s[from:to])
		return n
	}

	year := part(0, 4, 0)
	month := part(4, 6, 1)
	day := part(6, 8, 1)
	// Partial trailing components still count; "2024010212" is noon.
	hour := part(8, 10, 0)
	minute := part(10, 12, 0)
	second := part(12, 14, 0)
	milli := part(14, 17, 0)

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, milli*int(time.Millisecond), time.UTC), nil
}

// StringifyDate renders t in UTC with millisecond precision.
func StringifyDate(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%04d%02d%02d%02d%02d%02d%03d",
		u.Year(), int(u.Month()), u.Day(),
		u.Hour(), u.Minute(), u.Second(), u.Nanosecond()/int(time.Millisecond))
}

// ParseDateField is the Parse half of the timestamp codec.
func ParseDateField(v any) (any, error) {
	switch val := v.(type) {
	case time.Time:
		return val.UTC(), nil
	case string:
		return ParseDate(val)
	}
	return nil, fmt.Errorf("cannot parse %T as date", v)
}

// StringifyDateField is the Stringify half of the timestamp codec.
func StringifyDateField(v any) string {
	if t, ok := v.(time.Time); ok {
		return StringifyDate(t)
	}
	return textOf(v)
}

// DateCodec returns the timestamp codec for a field name.
func DateCodec(name string) Codec {
	return Codec{Name: name, Parse: ParseDateField, Stringify: StringifyDateField}
}
