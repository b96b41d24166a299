package deserialize

import (
	"slices"
	"strings"

	"github.com/roach88/twboot/internal/tiddler"
)

// StringifyTid renders t in the header-and-body format read by Tid. Header
// fields are sorted by name with the title first.
func StringifyTid(t *tiddler.Tiddler, codecs *tiddler.Codecs) string {
	fields := codecs.Stringify(t)
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == tiddler.FieldText || name == tiddler.FieldTitle {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	if _, ok := fields[tiddler.FieldTitle]; ok {
		names = append([]string{tiddler.FieldTitle}, names...)
	}

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(fields[name])
		b.WriteByte('\n')
	}
	if text, ok := fields[tiddler.FieldText]; ok {
		b.WriteByte('\n')
		b.WriteString(text)
	}
	return b.String()
}

// StringifyMulti renders records in the multi-record format read by Tids.
// header holds fields shared by every record; each record contributes
// its title and single-line text.
func StringifyMulti(header map[string]string, records []*tiddler.Tiddler) string {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(header[name])
		b.WriteByte('\n')
	}
	if len(names) == 0 {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	for _, rec := range records {
		b.WriteString(rec.Title())
		b.WriteString(": ")
		b.WriteString(rec.Text())
		b.WriteByte('\n')
	}
	return b.String()
}
