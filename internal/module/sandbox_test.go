package module

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSandbox() *Sandbox {
	return &Sandbox{
		Platform: "test",
		Version:  "0.0.1",
		Now: func() time.Time {
			return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		},
	}
}

func TestSandbox_ExportsAndLocals(t *testing.T) {
	r, _ := newTestRegistry(WithSandbox(fixedSandbox()))
	r.Define("$:/greet.hcl", "library", Source(`
/*\
title: $:/greet.hcl
module-type: library
\*/
who     = "world"
message = format("hello, %s", local.who)
exports = {
  greeting = upper(local.message)
  id       = module.id
  host     = "${host.platform}/${host.version}"
  count    = length(["a", "b"])
  ratio    = 1.5
  tags     = split(",", "x,y")
}
`))

	got, err := r.Execute("$:/greet", "")
	require.NoError(t, err)

	assert.Equal(t, "HELLO, WORLD", got["greeting"])
	assert.Equal(t, "$:/greet.hcl", got["id"])
	assert.Equal(t, "test/0.0.1", got["host"])
	assert.Equal(t, int64(2), got["count"])
	assert.Equal(t, 1.5, got["ratio"])
	assert.Equal(t, []any{"x", "y"}, got["tags"])
	assert.NotContains(t, got, "who", "only the exports attribute is published")
}

func TestSandbox_RequireAcrossModules(t *testing.T) {
	r, _ := newTestRegistry(WithSandbox(fixedSandbox()))
	r.Define("lib/names.hcl", "library", Source(`exports = { default = "ada" }`))
	r.Define("lib/go", "library", Exports{
		"prefix": "dr.",
		"fn":     func() {},
	})
	r.Define("lib/main.hcl", "library", Source(`
names   = require("./names")
native  = require("./go")
exports = {
  who = "${local.native.prefix} ${local.names.default}"
  has_fn = contains(keys(local.native), "fn")
}
`))

	_, err := r.Execute("lib/main.hcl", "")
	require.Error(t, err, "contains is not on the allow-list")

	r.Define("lib/main.hcl", "library", Source(`
names   = require("./names")
native  = require("./go")
exports = {
  who  = "${local.native.prefix} ${local.names.default}"
  keys = keys(local.native)
}
`))
	got, err := r.Execute("lib/main.hcl", "")
	require.NoError(t, err)
	assert.Equal(t, "dr. ada", got["who"])
	assert.Equal(t, []any{"prefix"}, got["keys"])
}

func TestSandbox_RequireMissingModule(t *testing.T) {
	r, rep := newTestRegistry()
	r.Define("a/main.hcl", "library", Source(`dep = require("./absent")`))

	_, err := r.Execute("a/main.hcl", "")
	require.Error(t, err)
	assert.True(t, IsExecutionError(err))
	assert.True(t, IsNotFound(err))
	assert.Len(t, rep.errs, 1)
}

func TestSandbox_NoAmbientAccess(t *testing.T) {
	for name, src := range map[string]string{
		"env":         `x = env("HOME")`,
		"file":        `x = file("/etc/passwd")`,
		"unknown":     `x = path.module`,
		"block":       "resource \"x\" {\n}\n",
		"syntax":      `x = `,
		"bad-exports": `exports = "not an object"`,
	} {
		t.Run(name, func(t *testing.T) {
			r, rep := newTestRegistry()
			r.Define("m.hcl", "library", Source(src))

			_, err := r.Execute("m.hcl", "")
			require.Error(t, err)
			assert.True(t, IsExecutionError(err))
			assert.Len(t, rep.errs, 1)
		})
	}
}

func TestSandbox_TimerPrimitives(t *testing.T) {
	r, _ := newTestRegistry(WithSandbox(fixedSandbox()))
	r.Define("t.hcl", "library", Source(`
now = timestamp()
exports = {
  now   = local.now
  later = timeadd(local.now, "90m")
  day   = formatdate("YYYY-MM-DD", local.now)
}
`))

	got, err := r.Execute("t.hcl", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T12:00:00Z", got["now"])
	assert.Equal(t, "2024-03-01T13:30:00Z", got["later"])
	assert.Equal(t, "2024-03-01", got["day"])
}

func TestSandbox_SeesInitialExportsAndMerges(t *testing.T) {
	sb := fixedSandbox()
	exports := Exports{"existing": "kept"}

	err := sb.Evaluate("m", `exports = { copy = exports.existing, added = true }`, exports, nil)
	require.NoError(t, err)
	assert.Equal(t, Exports{"existing": "kept", "copy": "kept", "added": true}, exports)
}

func TestSandbox_NoExportsAttribute(t *testing.T) {
	exports := Exports{}
	err := fixedSandbox().Evaluate("m", `x = 1`, exports, nil)
	require.NoError(t, err)
	assert.Empty(t, exports)
}

func TestSandbox_CycleThroughSourceModules(t *testing.T) {
	r, _ := newTestRegistry()
	r.Define("a.hcl", "library", Source(`
b = require("b")
exports = { b_saw = local.b.saw_a_keys }
`))
	r.Define("b.hcl", "library", Source(`
a = require("a")
exports = { saw_a_keys = length(keys(local.a)) }
`))

	got, err := r.Execute("a", "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got["b_saw"])
}

func TestFunctions_AllowList(t *testing.T) {
	assert.Equal(t, []string{
		"coalesce", "concat", "format", "formatdate", "join", "jsondecode",
		"jsonencode", "keys", "length", "lower", "merge", "require", "split",
		"timeadd", "timestamp", "upper",
	}, Functions())
}
