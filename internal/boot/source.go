package boot

import (
	"context"

	"github.com/roach88/twboot/internal/tiddler"
)

// Raw is one entry of a source feed: a block of content of some type plus
// default fields. An empty ContentType means Fields is already a complete
// bundle and Text is ignored.
type Raw struct {
	ContentType string
	Text        string
	Fields      tiddler.Bundle
}

// Source produces raw content for the store. Sources do their own I/O; the
// kernel only consumes what they return.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Raw, error)
}

// StaticSource is a Source over a fixed list of entries.
type StaticSource struct {
	Label string
	Items []Raw
}

// NewStaticSource returns a Source yielding items.
func NewStaticSource(label string, items ...Raw) *StaticSource {
	return &StaticSource{Label: label, Items: items}
}

func (s *StaticSource) Name() string { return s.Label }

func (s *StaticSource) Load(context.Context) ([]Raw, error) {
	return s.Items, nil
}

// Bundles wraps ready-made bundles as raw entries.
func Bundles(bundles ...tiddler.Bundle) []Raw {
	out := make([]Raw, len(bundles))
	for i, b := range bundles {
		out[i] = Raw{Fields: b}
	}
	return out
}
