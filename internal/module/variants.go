package module

import "maps"

// Methods is a table of named capabilities: functions, constants or nested
// data.
type Methods map[string]any

// Variant is a capability table composed from a base table and the
// exports of one module. Exports override base entries with the same name.
type Variant struct {
	Name    string
	Title   string
	methods Methods
}

// Method returns the named capability.
func (v *Variant) Method(name string) (any, bool) {
	m, ok := v.methods[name]
	return m, ok
}

// Methods returns a copy of the composed table.
func (v *Variant) Methods() Methods {
	return maps.Clone(v.methods)
}

// CreateVariants builds one Variant per module of moduleType, keyed by the
// module's name export. When subType is set only modules whose types
// export marks subType are used, e.g. types = { rendering = true }.
func (r *Registry) CreateVariants(moduleType, subType string, base Methods) (map[string]*Variant, error) {
	out := make(map[string]*Variant)
	err := r.ForEachModuleOfType(moduleType, func(title string, exports Exports) {
		if subType != "" && !declaresType(exports, subType) {
			return
		}
		name, ok := exports[DefaultNameField].(string)
		if !ok {
			r.logger.Warn("variant module has no name export", "title", title)
			return
		}
		methods := make(Methods, len(base)+len(exports))
		maps.Copy(methods, base)
		maps.Copy(methods, exports)
		out[name] = &Variant{Name: name, Title: title, methods: methods}
	})
	return out, err
}

func declaresType(exports Exports, subType string) bool {
	var v any
	switch types := exports["types"].(type) {
	case map[string]any:
		v = types[subType]
	case Exports:
		v = types[subType]
	case Methods:
		v = types[subType]
	default:
		return false
	}
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}
	return true
}
