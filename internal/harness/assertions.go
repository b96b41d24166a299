package harness

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/twboot/internal/boot"
	"github.com/roach88/twboot/internal/canonical"
	"github.com/roach88/twboot/internal/module"
	"github.com/roach88/twboot/internal/tiddler"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Store changes for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nStore changes:\n")
		for _, event := range e.Trace {
			verb := "write"
			if event.Deleted {
				verb = "delete"
			}
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, verb, event.Title)
		}
	}
	return buf.String()
}

func evaluate(c *boot.Context, result *Result, a Assertion) error {
	switch a.Type {
	case AssertTiddler:
		return assertTiddler(c, result, a)
	case AssertAbsent:
		return assertAbsent(c, a)
	case AssertShadowSource:
		return assertShadowSource(c, a)
	case AssertExports:
		return assertExports(result, a)
	case AssertExecError:
		return assertExecError(result, a)
	case AssertStartupOrder:
		return assertStartupOrder(result, a)
	case AssertPlugins:
		return assertPlugins(c, a)
	case AssertFailures:
		return assertFailures(result, a)
	case AssertChange:
		return assertChange(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTiddler checks a tiddler's textual fields (subset semantics). A
// list expectation is compared against the parsed list.
func assertTiddler(c *boot.Context, result *Result, a Assertion) error {
	var t *tiddler.Tiddler
	switch a.Layer {
	case LayerReal:
		if c.Wiki.TiddlerExists(a.Title) {
			t = c.Wiki.GetTiddler(a.Title)
		}
	case LayerShadow:
		t = c.Wiki.GetShadowTiddler(a.Title)
	default:
		t = c.Wiki.GetTiddler(a.Title)
	}
	if t == nil {
		where := "store"
		if a.Layer != "" {
			where = a.Layer + " layer"
		}
		return &AssertionError{
			Type:     AssertTiddler,
			Expected: fmt.Sprintf("%q in the %s", a.Title, where),
			Actual:   "not found",
			Trace:    result.Trace,
		}
	}

	textual := c.Wiki.Codecs().Stringify(t)
	for _, name := range sortedKeys(a.Expect) {
		want := a.Expect[name]
		if items, ok := want.([]any); ok {
			wantList := make([]string, len(items))
			for i, item := range items {
				wantList[i] = scalarString(item)
			}
			if got := t.List(name); !slices.Equal(got, wantList) {
				return &AssertionError{
					Type:     AssertTiddler,
					Expected: fmt.Sprintf("%s.%s = %q", a.Title, name, wantList),
					Actual:   fmt.Sprintf("%q", got),
				}
			}
			continue
		}
		got, ok := textual[name]
		if !ok {
			return &AssertionError{
				Type:     AssertTiddler,
				Expected: fmt.Sprintf("%s.%s = %q", a.Title, name, scalarString(want)),
				Actual:   "field missing",
			}
		}
		if got != scalarString(want) {
			return &AssertionError{
				Type:     AssertTiddler,
				Expected: fmt.Sprintf("%s.%s = %q", a.Title, name, scalarString(want)),
				Actual:   fmt.Sprintf("%q", got),
			}
		}
	}
	return nil
}

func assertAbsent(c *boot.Context, a Assertion) error {
	if t := c.Wiki.GetTiddler(a.Title); t != nil {
		layer := LayerShadow
		if c.Wiki.TiddlerExists(a.Title) {
			layer = LayerReal
		}
		return &AssertionError{
			Type:     AssertAbsent,
			Expected: fmt.Sprintf("no tiddler %q", a.Title),
			Actual:   "found in the " + layer + " layer",
		}
	}
	return nil
}

func assertShadowSource(c *boot.Context, a Assertion) error {
	source, ok := c.Wiki.ShadowSource(a.Title)
	if !ok {
		return &AssertionError{
			Type:     AssertShadowSource,
			Expected: fmt.Sprintf("%q supplied by %q", a.Title, a.Source),
			Actual:   "not a shadow tiddler",
		}
	}
	if source != a.Source {
		return &AssertionError{
			Type:     AssertShadowSource,
			Expected: fmt.Sprintf("%q supplied by %q", a.Title, a.Source),
			Actual:   fmt.Sprintf("supplied by %q", source),
		}
	}
	return nil
}

// assertExports compares normalized exports with subset semantics.
func assertExports(result *Result, a Assertion) error {
	got, ok := result.Exports[a.Module].(map[string]any)
	if !ok {
		actual := "module not executed"
		if msg, failed := result.ExecErrors[a.Module]; failed {
			actual = "execution failed: " + msg
		}
		return &AssertionError{
			Type:     AssertExports,
			Expected: fmt.Sprintf("exports of %s", a.Module),
			Actual:   actual,
		}
	}
	for _, name := range sortedKeys(a.Expect) {
		want := Normalize(a.Expect[name])
		have, present := got[name]
		if !present || !valuesEqual(have, want) {
			return &AssertionError{
				Type:     AssertExports,
				Expected: fmt.Sprintf("%s.%s = %s", a.Module, name, render(want)),
				Actual:   render(have),
			}
		}
	}
	return nil
}

func assertExecError(result *Result, a Assertion) error {
	msg, ok := result.ExecErrors[a.Module]
	if !ok {
		return &AssertionError{
			Type:     AssertExecError,
			Expected: fmt.Sprintf("execution of %s to fail", a.Module),
			Actual:   "no error",
		}
	}
	if a.Contains != "" && !strings.Contains(msg, a.Contains) {
		return &AssertionError{
			Type:     AssertExecError,
			Expected: fmt.Sprintf("error containing %q", a.Contains),
			Actual:   msg,
		}
	}
	return nil
}

// assertStartupOrder checks that modules ran in the given relative order.
// Other modules may run in between.
func assertStartupOrder(result *Result, a Assertion) error {
	ran := result.Summary.Startup
	last := -1
	for _, name := range a.Modules {
		pos := slices.Index(ran, name)
		if pos < 0 {
			return &AssertionError{
				Type:     AssertStartupOrder,
				Expected: fmt.Sprintf("startup modules %v", a.Modules),
				Actual:   fmt.Sprintf("%s did not run; ran %v", name, ran),
			}
		}
		if pos <= last {
			return &AssertionError{
				Type:     AssertStartupOrder,
				Expected: fmt.Sprintf("startup modules in order %v", a.Modules),
				Actual:   fmt.Sprintf("ran %v", ran),
			}
		}
		last = pos
	}
	return nil
}

func assertPlugins(c *boot.Context, a Assertion) error {
	got := c.Wiki.PluginTiddlers()
	if len(got) == 0 && len(a.Plugins) == 0 {
		return nil
	}
	if !slices.Equal(got, a.Plugins) {
		return &AssertionError{
			Type:     AssertPlugins,
			Expected: fmt.Sprintf("%v", a.Plugins),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertFailures(result *Result, a Assertion) error {
	failures := result.Summary.Failures
	if a.Count != nil && len(failures) != *a.Count {
		return &AssertionError{
			Type:     AssertFailures,
			Expected: fmt.Sprintf("%d contained failures", *a.Count),
			Actual:   fmt.Sprintf("%d: %v", len(failures), failures),
		}
	}
	if a.Contains != "" {
		for _, f := range failures {
			if strings.Contains(f, a.Contains) {
				return nil
			}
		}
		return &AssertionError{
			Type:     AssertFailures,
			Expected: fmt.Sprintf("a failure containing %q", a.Contains),
			Actual:   fmt.Sprintf("%v", failures),
		}
	}
	return nil
}

func assertChange(result *Result, a Assertion) error {
	for _, ev := range result.Trace {
		if ev.Title == a.Title && ev.Deleted == a.Deleted {
			return nil
		}
	}
	verb := "write"
	if a.Deleted {
		verb = "delete"
	}
	return &AssertionError{
		Type:     AssertChange,
		Expected: fmt.Sprintf("%s of %q", verb, a.Title),
		Actual:   "not in trace",
		Trace:    result.Trace,
	}
}

// Normalize turns exports into values canonical JSON can encode: whole
// floats become integers, other floats become strings, functions and
// unknown types become a placeholder naming their type.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return "null"
	case module.Exports:
		return Normalize(map[string]any(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Normalize(item)
		}
		return out
	case map[string]string:
		return x
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Normalize(item)
		}
		return out
	case []string:
		return x
	case string, bool, int64:
		return x
	case int:
		return int64(x)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return int64(x)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	if reflect.ValueOf(v).Kind() == reflect.Func {
		return "<function>"
	}
	return fmt.Sprintf("<%T>", v)
}

func valuesEqual(a, b any) bool {
	ja, errA := canonical.Marshal(a)
	jb, errB := canonical.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}

func render(v any) string {
	data, err := canonical.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	}
	n := Normalize(v)
	if s, ok := n.(string); ok {
		return s
	}
	return render(n)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
