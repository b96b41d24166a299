// Package wikiinfo loads and validates a wiki folder's tiddlywiki.info.
//
// The file is JSON (or CUE, when the name ends in .cue). It is compiled with
// the CUE SDK and unified with an embedded schema, so type errors are
// reported with the offending field and source position:
//
//	info, err := wikiinfo.Load("mywiki/tiddlywiki.info")
//	var verr *wikiinfo.Error
//	if errors.As(err, &verr) {
//		fmt.Println(verr.Field, verr.Message)
//	}
//
// Unknown top-level keys are allowed and ignored.
package wikiinfo
