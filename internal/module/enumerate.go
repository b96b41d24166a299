package module

import (
	"errors"
	"maps"
)

// DefaultNameField is the export that names a module in
// ModulesByTypeAsHashmap.
const DefaultNameField = "name"

// ForEachModuleOfType executes every module of a type in definition order
// and calls fn with the exports of each one that succeeds. Failures do not
// stop the walk; they are returned joined.
func (r *Registry) ForEachModuleOfType(moduleType string, fn func(title string, exports Exports)) error {
	var errs []error
	for _, title := range r.Titles(moduleType) {
		exports, err := r.Execute(title, "")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fn(title, exports)
	}
	return errors.Join(errs...)
}

// ModulesByTypeAsHashmap executes every module of a type and indexes the
// exports by their nameField export (DefaultNameField when empty). Modules
// whose name export is not a string are left out. A later module replaces
// an earlier one with the same name.
func (r *Registry) ModulesByTypeAsHashmap(moduleType, nameField string) (map[string]Exports, error) {
	if nameField == "" {
		nameField = DefaultNameField
	}
	out := make(map[string]Exports)
	err := r.ForEachModuleOfType(moduleType, func(title string, exports Exports) {
		name, ok := exports[nameField].(string)
		if !ok {
			r.logger.Warn("module has no name export",
				"title", title,
				"field", nameField)
			return
		}
		out[name] = exports
	})
	return out, err
}

// ApplyMethods executes every module of a type and copies all of their
// exports into target, later modules overwriting earlier ones. A nil target
// allocates a new map.
func (r *Registry) ApplyMethods(moduleType string, target map[string]any) (map[string]any, error) {
	if target == nil {
		target = make(map[string]any)
	}
	err := r.ForEachModuleOfType(moduleType, func(_ string, exports Exports) {
		maps.Copy(target, exports)
	})
	return target, err
}
