// Package tiddler defines the immutable content record of the boot kernel.
//
// A Tiddler is a titled bundle of fields. Fields are plain strings unless a
// field codec is registered for the field name, in which case the textual
// form is parsed into a semantic value (a time.Time for timestamp fields, a
// []string for list fields) when the tiddler is constructed.
//
// Tiddlers never change after construction. "Changing" a tiddler means
// building a new one from the old fields plus an overriding bundle:
//
//	updated, err := codecs.New(old.Fields(), tiddler.Bundle{"text": "new body"})
//
// Bundles merge left to right. A later bundle overrides earlier values field
// by field, and a field set to Absent removes any earlier value instead of
// overriding it.
package tiddler
