package deserialize

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/twboot/internal/tiddler"
)

// YAML reads a sequence of field bundles, or a single mapping.
func YAML(text string, fields tiddler.Bundle, _ string) ([]tiddler.Bundle, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	return bundlesFrom(doc, fields)
}
