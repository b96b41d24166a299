package module

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Version is reported to modules as host.version.
const Version = "5.3.0"

// ExportsAttribute is the attribute whose value becomes the module's
// exports.
const ExportsAttribute = "exports"

// Sandbox evaluates Source modules. The zero value is not usable; create
// one with NewSandbox.
type Sandbox struct {
	// Platform and Version are exposed as host.platform and host.version.
	Platform string
	Version  string

	// Now backs timestamp().
	Now func() time.Time
}

// NewSandbox returns a sandbox reporting the running platform and the wall
// clock.
func NewSandbox() *Sandbox {
	return &Sandbox{
		Platform: runtime.GOOS,
		Version:  Version,
		Now:      time.Now,
	}
}

// Functions lists the functions available to module source.
func Functions() []string {
	fns := (&Sandbox{Now: time.Now}).functions(nil, nil)
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Evaluate runs src as the module title, merging its exports attribute into
// exports. require resolves the module's require() calls.
func (s *Sandbox) Evaluate(title, src string, exports Exports, require RequireFunc) error {
	file, diags := hclsyntax.ParseConfig([]byte(src), title, hcl.InitialPos)
	if diags.HasErrors() {
		return fmt.Errorf("parse: %w", diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return errors.New("unexpected body type")
	}
	if len(body.Blocks) > 0 {
		b := body.Blocks[0]
		return fmt.Errorf("%s: blocks are not allowed in modules, found %q", b.TypeRange, b.Type)
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	slices.SortFunc(attrs, func(a, b *hclsyntax.Attribute) int {
		return a.SrcRange.Start.Byte - b.SrcRange.Start.Byte
	})

	// The first require failure is kept so callers can match on it; HCL
	// flattens function errors into diagnostics.
	var requireErr error
	locals := make(map[string]cty.Value, len(attrs))
	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"module": cty.ObjectVal(map[string]cty.Value{
				"id": cty.StringVal(title),
			}),
			"exports": objectOf(exports),
			"host": cty.ObjectVal(map[string]cty.Value{
				"platform": cty.StringVal(s.Platform),
				"version":  cty.StringVal(s.Version),
			}),
			"local": cty.EmptyObjectVal,
		},
		Functions: s.functions(require, &requireErr),
	}

	for _, a := range attrs {
		val, diags := a.Expr.Value(ctx)
		if diags.HasErrors() {
			if requireErr != nil {
				return fmt.Errorf("%s: %w", a.Name, requireErr)
			}
			return fmt.Errorf("%s: %w", a.Name, diags)
		}
		locals[a.Name] = val
		ctx.Variables["local"] = cty.ObjectVal(locals)
	}

	out, ok := locals[ExportsAttribute]
	if !ok || out.IsNull() {
		return nil
	}
	if !out.Type().IsObjectType() && !out.Type().IsMapType() {
		return fmt.Errorf("%s must be an object, got %s", ExportsAttribute, out.Type().FriendlyName())
	}
	converted, err := fromCty(out)
	if err != nil {
		return fmt.Errorf("%s: %w", ExportsAttribute, err)
	}
	for k, v := range converted.(map[string]any) {
		exports[k] = v
	}
	return nil
}

func (s *Sandbox) functions(require RequireFunc, requireErr *error) map[string]function.Function {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	return map[string]function.Function{
		"require":    requireFunction(require, requireErr),
		"timestamp":  timestampFunction(now),
		"timeadd":    timeAddFunction,
		"formatdate": stdlib.FormatDateFunc,
		"upper":      stdlib.UpperFunc,
		"lower":      stdlib.LowerFunc,
		"format":     stdlib.FormatFunc,
		"join":       stdlib.JoinFunc,
		"split":      stdlib.SplitFunc,
		"length":     stdlib.LengthFunc,
		"merge":      stdlib.MergeFunc,
		"keys":       stdlib.KeysFunc,
		"concat":     stdlib.ConcatFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
		"jsondecode": stdlib.JSONDecodeFunc,
		"coalesce":   stdlib.CoalesceFunc,
	}
}

func requireFunction(require RequireFunc, requireErr *error) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if require == nil {
				return cty.NilVal, errors.New("require is not available")
			}
			exports, err := require(args[0].AsString())
			if err != nil {
				if requireErr != nil && *requireErr == nil {
					*requireErr = err
				}
				return cty.NilVal, err
			}
			return objectOf(exports), nil
		},
	})
}

func timestampFunction(now func() time.Time) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{},
		Type:   function.StaticReturnType(cty.String),
		Impl: func(_ []cty.Value, _ cty.Type) (cty.Value, error) {
			return cty.StringVal(now().UTC().Format(time.RFC3339)), nil
		},
	})
}

var timeAddFunction = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "timestamp", Type: cty.String},
		{Name: "duration", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		ts, err := time.Parse(time.RFC3339, args[0].AsString())
		if err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		d, err := time.ParseDuration(args[1].AsString())
		if err != nil {
			return cty.NilVal, function.NewArgError(1, err)
		}
		return cty.StringVal(ts.Add(d).Format(time.RFC3339)), nil
	},
})
