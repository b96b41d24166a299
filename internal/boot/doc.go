// Package boot assembles the kernel and runs the startup sequence.
//
// A Context owns every registry the kernel needs: field codecs, file types,
// deserializers, the content store and the module registry. Nothing is
// global; two contexts never share state.
//
// New defines the built-in modules and installs them the same way any other
// module would be installed: field codecs come from the "tiddlerfield"
// modules and deserializers from the "tiddlerdeserializer" modules.
//
// Startup then runs the sequence:
//
//  1. load every Source, deserializing raw content into the real layer;
//  2. read plugin info (a malformed plugin stops the boot);
//  3. register and unpack plugins into the shadow layer;
//  4. define modules from real tiddlers, then from shadow tiddlers that no
//     real tiddler overrides;
//  5. run the "startup" modules, honouring their after and before lists.
//
// Module failures during boot never stop it. They go to the Reporter, and
// are listed in the returned Summary.
package boot
