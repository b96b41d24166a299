// Package wiki implements the two-layer content store and the plugin
// overlay engine.
//
// # Layers
//
// The real layer maps titles to tiddlers written directly by callers. The
// shadow layer maps titles to tiddlers contributed by plugins, together
// with the title of the plugin that supplied them. A lookup returns the real
// tiddler when there is one and otherwise the shadow tiddler:
//
//	w.AddTiddler(t)        // real layer
//	w.GetTiddler(title)    // real, else shadow, else nil
//	w.DeleteTiddler(title) // real layer only; a shadow shows through again
//
// Generic enumeration (Each, AllTitles, TiddlerExists) only sees the real
// layer. The shadow layer is never written directly; it is rebuilt as a
// whole by UnpackPluginTiddlers.
//
// # Plugins
//
// A plugin is a real tiddler of type application/json with a plugin-type
// field whose body is
//
//	{"tiddlers": {"<title>": {<field>: <value>, ...}, ...}}
//
// Composing plugins runs three phases, in order, whenever the set of plugins
// changes:
//
//  1. ReadPluginInfo parses plugin bodies. A malformed body aborts the pass.
//  2. RegisterPluginTiddlers activates plugins of a given plugin-type.
//  3. UnpackPluginTiddlers sorts active plugins by plugin-priority and
//     rebuilds the shadow layer. Later (higher priority) plugins overwrite
//     earlier ones on title collisions.
//
// # Change notification
//
// Every add and delete calls the store's Hooks. The default hooks do
// nothing; a ChangeQueue records changes for an external indexer.
//
// A Wiki is not safe for concurrent use. Boot runs single-threaded and every
// mutation is visible to the next lookup.
package wiki
