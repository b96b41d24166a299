package module

// Exports is the public surface of an executed module.
type Exports map[string]any

// RequireFunc executes another module relative to the caller.
type RequireFunc func(name string) (Exports, error)

// Definition is the body of a module. It is implemented by Func, Source
// and Exports only.
type Definition interface {
	definition()
}

// Func is a module written in Go. It may fill exports in place or return a
// replacement map; a nil return keeps exports.
type Func func(d *Descriptor, exports Exports, require RequireFunc) (Exports, error)

// Source is module text evaluated in the sandbox.
type Source string

func (Func) definition()    {}
func (Source) definition()  {}
func (Exports) definition() {}

// Descriptor is the registration record of one module.
type Descriptor struct {
	Title      string
	ModuleType string
	Definition Definition

	// exports is nil until the first successful run starts. While the
	// module runs it holds the partial exports handed out to cycles.
	exports Exports
}

// Exports returns the memoized exports, or nil if the module has not run
// successfully yet.
func (d *Descriptor) Exports() Exports {
	return d.exports
}

// Executed reports whether the module has exports.
func (d *Descriptor) Executed() bool {
	return d.exports != nil
}
