package module

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) ReportError(err error) { r.errs = append(r.errs, err) }

func newTestRegistry(opts ...Option) (*Registry, *recordingReporter) {
	rep := &recordingReporter{}
	return NewRegistry(append([]Option{WithReporter(rep)}, opts...)...), rep
}

func samePointer(t *testing.T, a, b Exports) {
	t.Helper()
	assert.Equal(t, reflect.ValueOf(a).Pointer(), reflect.ValueOf(b).Pointer(), "exports should be the same map")
}

func TestExecute_MemoizesExports(t *testing.T) {
	r, _ := newTestRegistry()
	runs := 0
	r.Define("$:/mod", "library", Func(func(_ *Descriptor, exports Exports, _ RequireFunc) (Exports, error) {
		runs++
		exports["value"] = 42
		return nil, nil
	}))

	first, err := r.Execute("$:/mod", "")
	require.NoError(t, err)
	second, err := r.Execute("$:/mod", "")
	require.NoError(t, err)

	assert.Equal(t, 1, runs)
	assert.Equal(t, 42, first["value"])
	samePointer(t, first, second)
}

func TestExecute_FuncReturnReplacesExports(t *testing.T) {
	r, _ := newTestRegistry()
	replacement := Exports{"replaced": true}
	r.Define("m", "library", Func(func(_ *Descriptor, exports Exports, _ RequireFunc) (Exports, error) {
		exports["ignored"] = true
		return replacement, nil
	}))

	got, err := r.Execute("m", "")
	require.NoError(t, err)
	samePointer(t, replacement, got)
}

func TestExecute_PlainObjectIsExports(t *testing.T) {
	r, _ := newTestRegistry()
	obj := Exports{"name": "x"}
	r.Define("obj", "library", obj)

	got, err := r.Execute("obj", "")
	require.NoError(t, err)
	samePointer(t, obj, got)

	r.Define("empty", "library", Exports(nil))
	got, err = r.Execute("empty", "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExecute_RelativeRequire(t *testing.T) {
	r, _ := newTestRegistry()
	r.Define("a/b/d", "library", Exports{"who": "sibling"})
	r.Define("a/d", "library", Exports{"who": "parent"})
	r.Define("a/b/c", "library", Func(func(_ *Descriptor, exports Exports, req RequireFunc) (Exports, error) {
		sib, err := req("./d")
		if err != nil {
			return nil, err
		}
		par, err := req("../d")
		if err != nil {
			return nil, err
		}
		exports["sibling"] = sib["who"]
		exports["parent"] = par["who"]
		return nil, nil
	}))

	got, err := r.Execute("a/b/c", "")
	require.NoError(t, err)
	assert.Equal(t, "sibling", got["sibling"])
	assert.Equal(t, "parent", got["parent"])
}

func TestExecute_FourWayLookup(t *testing.T) {
	r, _ := newTestRegistry()
	r.Define("lib/util.hcl", "library", Exports{"from": "suffixed"})
	r.Define("./raw", "library", Exports{"from": "raw"})

	got, err := r.Execute("lib/util", "")
	require.NoError(t, err)
	assert.Equal(t, "suffixed", got["from"])

	// "./util" from lib/main resolves to lib/util, found with the suffix.
	got, err = r.Execute("./util", "lib/main")
	require.NoError(t, err)
	assert.Equal(t, "suffixed", got["from"])

	// Resolution misses, the raw name matches.
	got, err = r.Execute("./raw", "x/y")
	require.NoError(t, err)
	assert.Equal(t, "raw", got["from"])
}

func TestExecute_NotFound(t *testing.T) {
	r, rep := newTestRegistry()

	_, err := r.Execute("nonexistent/title", "")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), `"nonexistent/title"`)
	assert.Empty(t, rep.errs, "lookup failures are returned, not reported")

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nonexistent/title", nf.Name)
}

func TestExecute_NotFoundNamesRequester(t *testing.T) {
	r, _ := newTestRegistry()
	r.Define("a/b", "library", Func(func(_ *Descriptor, _ Exports, req RequireFunc) (Exports, error) {
		_, err := req("./missing")
		return nil, err
	}))

	_, err := r.Execute("a/b", "")
	require.Error(t, err)
	assert.True(t, IsExecutionError(err))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "./missing", nf.Name)
	assert.Equal(t, "a/b", nf.Requester)
	assert.Equal(t, "a/missing", nf.Resolved)
}

func TestExecute_HostLoaderFallback(t *testing.T) {
	host := Exports{"host": true}
	r, _ := newTestRegistry(WithHostLoader(func(name string) (Exports, error) {
		if name == "os" {
			return host, nil
		}
		return nil, errors.New("no such host module")
	}))

	got, err := r.Execute("os", "")
	require.NoError(t, err)
	samePointer(t, host, got)

	_, err = r.Execute("net", "")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "no such host module")
}

func TestExecute_FailureIsReportedAndRetried(t *testing.T) {
	r, rep := newTestRegistry()
	attempts := 0
	r.Define("flaky", "library", Func(func(_ *Descriptor, exports Exports, _ RequireFunc) (Exports, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient")
		}
		exports["ok"] = true
		return nil, nil
	}))

	_, err := r.Execute("flaky", "")
	require.Error(t, err)
	assert.True(t, IsExecutionError(err))
	require.Len(t, rep.errs, 1)
	assert.Same(t, err, rep.errs[0])

	d, _ := r.Lookup("flaky")
	assert.False(t, d.Executed())

	got, err := r.Execute("flaky", "")
	require.NoError(t, err)
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, 2, attempts)
}

func TestExecute_PanicIsContained(t *testing.T) {
	r, rep := newTestRegistry()
	r.Define("boom", "library", Func(func(*Descriptor, Exports, RequireFunc) (Exports, error) {
		panic("kaboom")
	}))

	_, err := r.Execute("boom", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Len(t, rep.errs, 1)
}

func TestExecute_CycleSeesPartialExports(t *testing.T) {
	r, _ := newTestRegistry()
	r.Define("a", "library", Func(func(_ *Descriptor, exports Exports, req RequireFunc) (Exports, error) {
		exports["early"] = "a-early"
		b, err := req("b")
		if err != nil {
			return nil, err
		}
		exports["fromB"] = b["seen"]
		return nil, nil
	}))
	r.Define("b", "library", Func(func(_ *Descriptor, exports Exports, req RequireFunc) (Exports, error) {
		a, err := req("a")
		if err != nil {
			return nil, err
		}
		exports["seen"] = a["early"]
		return nil, nil
	}))

	got, err := r.Execute("a", "")
	require.NoError(t, err)
	assert.Equal(t, "a-early", got["fromB"])
}

func TestDefine_ReplacesBeforeExecution(t *testing.T) {
	r, _ := newTestRegistry()
	r.Define("m", "old", Exports{"v": 1})
	r.Define("m", "new", Exports{"v": 2})

	got, err := r.Execute("m", "")
	require.NoError(t, err)
	assert.Equal(t, 2, got["v"])
	assert.Empty(t, r.Titles("old"))
	assert.Equal(t, []string{"m"}, r.Titles("new"))
	assert.Equal(t, []string{"new"}, r.Types())
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name, from, want string
	}{
		{"./d", "a/b/c", "a/b/d"},
		{"../d", "a/b/c", "a/d"},
		{"../../../d", "a/b/c", "d"},
		{"./x/./y", "a/b", "a/x/y"},
		{"./d", "", "d"},
		{".hidden", "a/b", "a/.hidden"},
		{"abs", "", "abs"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolvePath(tt.name, tt.from), "%s from %s", tt.name, tt.from)
	}
}
