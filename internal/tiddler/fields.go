package tiddler

import "strings"

// ParseFields reads "name: value" lines into base, which is returned. Lines
// starting with '#' and lines without a colon are ignored. A nil base
// allocates a fresh bundle.
func ParseFields(text string, base Bundle) Bundle {
	if base == nil {
		base = make(Bundle)
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		base[name] = strings.TrimSpace(value)
	}
	return base
}
