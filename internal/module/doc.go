// Package module implements the lazy module registry.
//
// Modules are registered with Define and run on first use by Execute. A
// module's definition is one of:
//
//   - Func: Go code, called with the descriptor, an exports map and a
//     require function;
//   - Source: HCL text evaluated by a Sandbox;
//   - Exports: a ready-made exports map.
//
// Each module runs at most once; its exports are memoized and every later
// Execute returns the same map. A module that fails is reported through the
// ErrorReporter and keeps no exports, so the next Execute tries again.
//
// # Resolution
//
// A name starting with "." is resolved against the requiring module's
// title with ResolvePath, so "./d" required from "a/b/c" is "a/b/d" and
// "../d" is "a/d". The resolved name is then looked up as is, with the
// ".hcl" suffix, and finally the raw name is tried the same two ways. When
// nothing matches, the HostLoader (if any) gets a chance before Execute
// fails with a NotFoundError.
//
// # Cycles
//
// A module required again while it is still running gets the exports it
// has built so far, as with CommonJS. Source modules only publish their
// exports when evaluation finishes, so a cycle through a Source module sees
// an empty map.
//
// # Sandbox
//
// Source modules are HCL bodies made only of attributes:
//
//	/*\
//	title: $:/plugins/demo/greeting.hcl
//	module-type: library
//	\*/
//	base    = require("./names.hcl")
//	message = format("hello, %s", local.base.default)
//	exports = {
//	  greet = upper(local.message)
//	}
//
// Attributes are evaluated top to bottom; each one is visible to those
// after it as local.<name>. The exports attribute, when present, is merged
// into the module's exports. The only names in scope are module.id,
// exports, host.platform, host.version and the functions listed in
// Functions. Nothing else of the host is reachable.
package module
