// Package canonical produces RFC 8785 canonical JSON and content hashes.
//
// Canonical JSON is the only encoding used for content identity: two field
// sets that mean the same thing always serialize to the same bytes. Keys are
// sorted by UTF-16 code units, strings are NFC normalized, and nothing but
// quote, backslash and control characters is escaped. Floats and null are
// rejected; tiddler fields are text by the time they are hashed.
//
// Hashes are SHA-256 over a domain prefix, a zero byte and the data, so
// hashes from different domains can never collide.
package canonical
