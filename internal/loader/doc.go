// Package loader feeds tiddlers from the filesystem into a boot context.
//
// It reads single tiddler files (with optional .meta sidecars), whole
// directories (honouring tiddlywiki.files descriptors), plugin folders
// described by plugin.info, and wiki folders described by tiddlywiki.info.
// A wiki folder is exposed as a boot.Source:
//
//	c, _ := boot.New()
//	l := loader.New(c.FileTypes, c.Deserializers)
//	summary, err := c.Startup(ctx, l.Wiki("mywiki", loader.WithLibrary("editions")))
//
// The kernel never touches the filesystem itself; everything here is a thin
// feed over the deserializer registry.
package loader
