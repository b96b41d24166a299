package deserialize

import (
	"slices"
	"strings"
	"sync"
)

// Content encodings a file type may declare.
const (
	EncodingUTF8   = "utf8"
	EncodingBase64 = "base64"
)

// FlagImage marks image content types.
const FlagImage = "image"

// FileType describes how files of one extension map to a content type.
type FileType struct {
	Type      string
	Encoding  string
	Extension string
	Flags     []string
}

// IsImage reports whether the type carries the image flag.
func (f FileType) IsImage() bool {
	return slices.Contains(f.Flags, FlagImage)
}

// FileTypes is the extension to content type table.
type FileTypes struct {
	mu     sync.RWMutex
	byExt  map[string]FileType
	byType map[string]FileType
}

// NewFileTypes returns an empty table.
func NewFileTypes() *FileTypes {
	return &FileTypes{
		byExt:  make(map[string]FileType),
		byType: make(map[string]FileType),
	}
}

// Register adds an extension for a content type. When a content type is
// registered with several extensions the first one is its canonical
// extension; registering an extension again replaces its mapping.
func (f *FileTypes) Register(contentType, encoding, extension string, flags ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft := FileType{
		Type:      contentType,
		Encoding:  encoding,
		Extension: extension,
		Flags:     slices.Clone(flags),
	}
	f.byExt[strings.ToLower(extension)] = ft
	if _, ok := f.byType[contentType]; !ok {
		f.byType[contentType] = ft
	}
}

// ByExtension looks up a file extension, including the leading dot.
func (f *FileTypes) ByExtension(ext string) (FileType, bool) {
	if f == nil {
		return FileType{}, false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	ft, ok := f.byExt[strings.ToLower(ext)]
	return ft, ok
}

// ByType looks up the canonical file type for a content type.
func (f *FileTypes) ByType(contentType string) (FileType, bool) {
	if f == nil {
		return FileType{}, false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	ft, ok := f.byType[contentType]
	return ft, ok
}

// DefaultFileTypes returns the table the boot kernel starts with.
func DefaultFileTypes() *FileTypes {
	f := NewFileTypes()
	f.Register(TypeTiddler, EncodingUTF8, ".tid")
	f.Register(TypeTiddlers, EncodingUTF8, ".multids")
	f.Register(TypeTiddlerDictionary, EncodingUTF8, ".dictionary")
	f.Register("application/x-tiddler-html-div", EncodingUTF8, ".tiddler")
	f.Register("text/vnd.tiddlywiki2-recipe", EncodingUTF8, ".recipe")
	f.Register(TypeText, EncodingUTF8, ".txt")
	f.Register("text/css", EncodingUTF8, ".css")
	f.Register(TypeHTML, EncodingUTF8, ".html")
	f.Register(TypeHTML, EncodingUTF8, ".htm")
	f.Register("application/javascript", EncodingUTF8, ".js")
	f.Register(TypeJSON, EncodingUTF8, ".json")
	f.Register(TypeHCL, EncodingUTF8, ".hcl")
	f.Register(TypeYAML, EncodingUTF8, ".yaml")
	f.Register(TypeYAML, EncodingUTF8, ".yml")
	f.Register("application/pdf", EncodingBase64, ".pdf")
	f.Register("image/jpeg", EncodingBase64, ".jpg", FlagImage)
	f.Register("image/jpeg", EncodingBase64, ".jpeg", FlagImage)
	f.Register("image/png", EncodingBase64, ".png", FlagImage)
	f.Register("image/gif", EncodingBase64, ".gif", FlagImage)
	f.Register("image/svg+xml", EncodingUTF8, ".svg", FlagImage)
	f.Register("image/x-icon", EncodingBase64, ".ico", FlagImage)
	f.Register("application/font-woff", EncodingBase64, ".woff")
	return f
}
