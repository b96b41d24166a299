// Package deserialize turns raw content blocks into field bundles.
//
// A Registry maps a content type to a Func that splits one block of text
// into zero or more tiddler.Bundle values. Lookup falls back first through
// the FileTypes extension table and then to the plain-text deserializer, so
// deserialization of an unknown type always yields the whole text as a
// single record.
//
// Built-in deserializers:
//
//	application/x-tiddler   .tid      header block, blank line, body
//	application/x-tiddlers  .multids  header block, blank line, "title: text" lines
//	application/json        .json     array of field bundles
//	application/x-hcl       .hcl      module source with a /*\ ... \*/ header
//	application/x-yaml      .yaml     sequence of field bundles
//	text/plain              .txt      whole text as body
//	text/html               .html     whole text as body
package deserialize
