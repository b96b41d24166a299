package module

import (
	"fmt"
	"math/big"
	"time"

	"github.com/zclconf/go-cty/cty"
)

// toCty converts a Go value into the sandbox's view of it. Values with no
// HCL counterpart, such as functions, report false and are left out of
// enclosing objects and tuples.
func toCty(v any) (cty.Value, bool) {
	switch val := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), true
	case cty.Value:
		return val, true
	case string:
		return cty.StringVal(val), true
	case bool:
		return cty.BoolVal(val), true
	case int:
		return cty.NumberIntVal(int64(val)), true
	case int64:
		return cty.NumberIntVal(val), true
	case float64:
		return cty.NumberFloatVal(val), true
	case time.Time:
		return cty.StringVal(val.UTC().Format(time.RFC3339)), true
	case []string:
		items := make([]cty.Value, len(val))
		for i, s := range val {
			items[i] = cty.StringVal(s)
		}
		return tupleOf(items), true
	case []any:
		items := make([]cty.Value, 0, len(val))
		for _, item := range val {
			if cv, ok := toCty(item); ok {
				items = append(items, cv)
			}
		}
		return tupleOf(items), true
	case Exports:
		return objectOf(val), true
	case Methods:
		return objectOf(val), true
	case map[string]any:
		return objectOf(val), true
	case map[string]string:
		attrs := make(map[string]any, len(val))
		for k, s := range val {
			attrs[k] = s
		}
		return objectOf(attrs), true
	}
	return cty.NilVal, false
}

func objectOf(m map[string]any) cty.Value {
	attrs := make(map[string]cty.Value, len(m))
	for k, v := range m {
		if cv, ok := toCty(v); ok {
			attrs[k] = cv
		}
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}

func tupleOf(items []cty.Value) cty.Value {
	if len(items) == 0 {
		return cty.EmptyTupleVal
	}
	return cty.TupleVal(items)
}

// fromCty converts an evaluated value back to Go. Whole numbers become
// int64, other numbers float64; objects and maps become map[string]any,
// and lists, tuples and sets become []any.
func fromCty(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			conv, err := fromCty(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.AsString(), err)
			}
			out[k.AsString()] = conv
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			conv, err := fromCty(v)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type %s", ty.FriendlyName())
}
