package deserialize

import (
	"regexp"

	"github.com/roach88/twboot/internal/tiddler"
)

// moduleHeader matches a leading /*\ ... \*/ comment whose lines are
// "name: value" fields. It is an ordinary HCL block comment, so the module
// source stays valid with the header in place.
var moduleHeader = regexp.MustCompile(`(?m)^/\*\\(?:\r?\n)((?:^[^\r\n]*(?:\r?\n))+?)(^\\\*/$(?:\r?\n)?)`)

// HCL keeps the whole text as a module body and reads fields from its
// header comment. Only the first paragraph of the header is parsed, the
// rest is free-form description.
func HCL(text string, fields tiddler.Bundle, contentType string) ([]tiddler.Bundle, error) {
	if fields == nil {
		fields = make(tiddler.Bundle)
	}
	fields[tiddler.FieldText] = text
	if m := moduleHeader.FindStringSubmatch(text); m != nil {
		fields = tiddler.ParseFields(blankLine.Split(m[1], 2)[0], fields)
	}
	if _, ok := fields[tiddler.FieldType]; !ok {
		if contentType == "" {
			contentType = TypeHCL
		}
		fields[tiddler.FieldType] = contentType
	}
	return []tiddler.Bundle{fields}, nil
}
