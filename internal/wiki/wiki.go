package wiki

import (
	"log/slog"
	"slices"

	"github.com/roach88/twboot/internal/tiddler"
)

// Shadow is a tiddler contributed by a plugin.
type Shadow struct {
	Source  string
	Tiddler *tiddler.Tiddler
}

// Wiki is the content store.
type Wiki struct {
	codecs *tiddler.Codecs
	hooks  Hooks
	logger *slog.Logger

	real    map[string]*tiddler.Tiddler
	shadows map[string]Shadow

	pluginInfo map[string]PluginInfo
	plugins    []*tiddler.Tiddler
}

// Option configures a Wiki.
type Option func(*Wiki)

// WithHooks installs change notification hooks.
func WithHooks(h Hooks) Option {
	return func(w *Wiki) {
		if h != nil {
			w.hooks = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wiki) {
		w.logger = logger
	}
}

// WithCodecs sets the field codecs used to build shadow tiddlers and
// tiddlers created through AddFields.
func WithCodecs(c *tiddler.Codecs) Option {
	return func(w *Wiki) {
		w.codecs = c
	}
}

// New returns an empty store.
func New(opts ...Option) *Wiki {
	w := &Wiki{
		hooks:      NopHooks{},
		logger:     slog.Default(),
		real:       make(map[string]*tiddler.Tiddler),
		shadows:    make(map[string]Shadow),
		pluginInfo: make(map[string]PluginInfo),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Codecs returns the field codecs the store builds tiddlers with.
func (w *Wiki) Codecs() *tiddler.Codecs {
	return w.codecs
}

// AddTiddler stores t in the real layer, replacing any tiddler with the
// same title. A nil tiddler or one without a title is ignored.
func (w *Wiki) AddTiddler(t *tiddler.Tiddler) {
	if t == nil {
		return
	}
	title := t.Title()
	if title == "" {
		return
	}
	w.real[title] = t
	w.notify(title, false)
}

// AddTiddlers stores each tiddler in order.
func (w *Wiki) AddTiddlers(ts ...*tiddler.Tiddler) {
	for _, t := range ts {
		w.AddTiddler(t)
	}
}

// AddFields builds a tiddler from bundles and stores it.
func (w *Wiki) AddFields(bundles ...tiddler.Bundle) (*tiddler.Tiddler, error) {
	t, err := w.codecs.New(bundles...)
	if err != nil {
		return nil, err
	}
	w.AddTiddler(t)
	return t, nil
}

// GetTiddler returns the real tiddler for title, else its shadow, else nil.
func (w *Wiki) GetTiddler(title string) *tiddler.Tiddler {
	if t, ok := w.real[title]; ok {
		return t
	}
	if s, ok := w.shadows[title]; ok {
		return s.Tiddler
	}
	return nil
}

// DeleteTiddler removes title from the real layer and reports whether it
// was there. A shadow tiddler with the same title becomes visible again.
// Hooks fire even when title was absent.
func (w *Wiki) DeleteTiddler(title string) bool {
	_, ok := w.real[title]
	delete(w.real, title)
	w.notify(title, true)
	return ok
}

// Each calls fn for every real tiddler in title order.
func (w *Wiki) Each(fn func(title string, t *tiddler.Tiddler)) {
	for _, title := range w.AllTitles() {
		// fn may delete tiddlers it has not been handed yet.
		if t, ok := w.real[title]; ok {
			fn(title, t)
		}
	}
}

// AllTitles returns the titles of the real layer in ascending order.
func (w *Wiki) AllTitles() []string {
	titles := make([]string, 0, len(w.real))
	for title := range w.real {
		titles = append(titles, title)
	}
	slices.Sort(titles)
	return titles
}

// Count returns the size of the real layer.
func (w *Wiki) Count() int {
	return len(w.real)
}

// TiddlerExists reports whether title is in the real layer.
func (w *Wiki) TiddlerExists(title string) bool {
	_, ok := w.real[title]
	return ok
}

// IsShadow reports whether title is in the shadow layer, whether or not a
// real tiddler overrides it.
func (w *Wiki) IsShadow(title string) bool {
	_, ok := w.shadows[title]
	return ok
}

// GetShadowTiddler returns the shadow for title even when a real tiddler
// overrides it.
func (w *Wiki) GetShadowTiddler(title string) *tiddler.Tiddler {
	if s, ok := w.shadows[title]; ok {
		return s.Tiddler
	}
	return nil
}

// ShadowSource returns the plugin that supplied the shadow for title.
func (w *Wiki) ShadowSource(title string) (string, bool) {
	s, ok := w.shadows[title]
	if !ok {
		return "", false
	}
	return s.Source, true
}

// EachShadow calls fn for every shadow tiddler in title order.
func (w *Wiki) EachShadow(fn func(title string, s Shadow)) {
	for _, title := range w.ShadowTitles() {
		fn(title, w.shadows[title])
	}
}

// ShadowTitles returns the titles of the shadow layer in ascending order.
func (w *Wiki) ShadowTitles() []string {
	titles := make([]string, 0, len(w.shadows))
	for title := range w.shadows {
		titles = append(titles, title)
	}
	slices.Sort(titles)
	return titles
}

func (w *Wiki) notify(title string, deleted bool) {
	w.hooks.ClearCache(title)
	w.hooks.ClearGlobalCache()
	w.hooks.EnqueueTiddlerEvent(title, deleted)
}
