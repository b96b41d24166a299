package wiki

// Hooks receives change notifications from the store. Implementations
// invalidate whatever caches they keep; the store itself keeps none.
type Hooks interface {
	// ClearCache drops derived data cached for one title.
	ClearCache(title string)

	// ClearGlobalCache drops store-wide aggregates.
	ClearGlobalCache()

	// EnqueueTiddlerEvent records that a title was written or deleted.
	EnqueueTiddlerEvent(title string, deleted bool)
}

// NopHooks ignores every notification. Embed it to override only some
// hooks.
type NopHooks struct{}

func (NopHooks) ClearCache(string)                {}
func (NopHooks) ClearGlobalCache()                {}
func (NopHooks) EnqueueTiddlerEvent(string, bool) {}

// MultiHooks fans notifications out to several hooks in order.
type MultiHooks []Hooks

func (m MultiHooks) ClearCache(title string) {
	for _, h := range m {
		h.ClearCache(title)
	}
}

func (m MultiHooks) ClearGlobalCache() {
	for _, h := range m {
		h.ClearGlobalCache()
	}
}

func (m MultiHooks) EnqueueTiddlerEvent(title string, deleted bool) {
	for _, h := range m {
		h.EnqueueTiddlerEvent(title, deleted)
	}
}
