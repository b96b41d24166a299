// Package harness runs boot scenarios described in YAML and checks the
// resulting store.
//
// # Scenario Format
//
//	name: plugin_overlay
//	description: "A real tiddler overrides the shadow a plugin provides"
//	wiki: wikis/basic            # optional wiki folder, relative to the file
//	library: library             # optional plugin library for the wiki
//	safe_mode: false
//	plugin_types: [plugin, theme]
//	tiddlers:
//	  - fields: {title: Note, text: hello}
//	  - type: application/x-tiddlers
//	    text: |
//	      title: prefix/
//
//	      a: one
//	steps:
//	  - add: {title: Other, text: later}
//	  - delete: Note
//	  - execute: $:/modules/answer
//	  - recompose: true
//	assertions:
//	  - type: tiddler
//	    title: Other
//	    layer: real
//	    expect: {text: later}
//	  - type: absent
//	    title: Note
//	  - type: shadow_source
//	    title: $:/plugins/me/readme
//	    source: $:/plugins/me
//	  - type: exports
//	    module: $:/modules/answer
//	    expect: {value: 42}
//	  - type: startup_order
//	    modules: [first, second]
//	  - type: plugins
//	    plugins: [$:/core, $:/plugins/me]
//	  - type: failures
//	    count: 0
//	  - type: change
//	    title: Note
//	    deleted: true
//
// # Deterministic Testing
//
// Every scenario runs against a fresh boot context with a frozen sandbox
// clock and a change queue whose sequence starts at zero, so the trace of
// store changes is identical across runs and can be compared against
// golden files in testdata/golden.
package harness
