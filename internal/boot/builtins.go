package boot

import (
	"github.com/roach88/twboot/internal/deserialize"
	"github.com/roach88/twboot/internal/module"
	"github.com/roach88/twboot/internal/tiddler"
)

// Module types used by the kernel.
const (
	TypeTiddlerField = "tiddlerfield"
	TypeDeserializer = "tiddlerdeserializer"
	TypeStartup      = "startup"
)

const (
	fieldModulePrefix       = "$:/boot/tiddlerfields/"
	deserializerModuleTitle = "$:/boot/tiddlerdeserializer/"
)

// defineBuiltins registers the kernel's own codec and deserializer modules.
func (c *Context) defineBuiltins() {
	fields := []module.Exports{
		codecExports(tiddler.DateCodec(tiddler.FieldModified)),
		codecExports(tiddler.DateCodec(tiddler.FieldCreated)),
		{"name": "color", "editTag": "input", "editType": "color"},
		codecExports(tiddler.ListCodec(tiddler.FieldTags)),
		codecExports(tiddler.ListCodec(tiddler.FieldList)),
	}
	for _, exports := range fields {
		c.Modules.Define(fieldModulePrefix+exports["name"].(string), TypeTiddlerField, exports)
	}

	deserializers := map[string]module.Exports{
		"tid":  {deserialize.TypeTiddler: deserialize.Func(deserialize.Tid)},
		"tids": {deserialize.TypeTiddlers: deserialize.Tids(c.logger)},
		"txt":  {deserialize.TypeText: deserialize.Func(deserialize.Text)},
		"html": {deserialize.TypeHTML: deserialize.Func(deserialize.HTML)},
		"json": {deserialize.TypeJSON: deserialize.Func(deserialize.JSON)},
		"hcl":  {deserialize.TypeHCL: deserialize.Func(deserialize.HCL)},
		"yaml": {deserialize.TypeYAML: deserialize.Func(deserialize.YAML)},
	}
	for _, name := range []string{"tid", "tids", "txt", "html", "json", "hcl", "yaml"} {
		c.Modules.Define(deserializerModuleTitle+name, TypeDeserializer, deserializers[name])
	}
}

func codecExports(codec tiddler.Codec) module.Exports {
	return module.Exports{
		"name":      codec.Name,
		"parse":     codec.Parse,
		"stringify": codec.Stringify,
	}
}

// InstallFieldCodecs registers a codec for every "tiddlerfield" module.
// Modules may supply parse and stringify functions and editor hints; a
// module written as HCL can only supply the hints.
func (c *Context) InstallFieldCodecs() error {
	byName, err := c.Modules.ModulesByTypeAsHashmap(TypeTiddlerField, module.DefaultNameField)
	for name, exports := range byName {
		codec := tiddler.Codec{Name: name}
		if fn, ok := exports["parse"].(func(any) (any, error)); ok {
			codec.Parse = fn
		}
		if fn, ok := exports["stringify"].(func(any) string); ok {
			codec.Stringify = fn
		}
		codec.EditTag, _ = exports["editTag"].(string)
		codec.EditType, _ = exports["editType"].(string)
		c.Codecs.Register(codec)
	}
	return err
}

// InstallDeserializers registers every content type exported by a
// "tiddlerdeserializer" module. Exports that are not deserializer
// functions are ignored.
func (c *Context) InstallDeserializers() error {
	methods, err := c.Modules.ApplyMethods(TypeDeserializer, nil)
	for contentType, v := range methods {
		switch fn := v.(type) {
		case deserialize.Func:
			c.Deserializers.Register(contentType, fn)
		case func(string, tiddler.Bundle, string) ([]tiddler.Bundle, error):
			c.Deserializers.Register(contentType, fn)
		default:
			c.logger.Debug("ignoring non-function deserializer export", "type", contentType)
		}
	}
	return err
}
