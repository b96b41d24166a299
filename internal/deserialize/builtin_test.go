package deserialize

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twboot/internal/tiddler"
)

func TestTid_BodyKeepsBlankLines(t *testing.T) {
	got, err := Tid("title: A\r\n\r\nfirst\n\nsecond", nil, TypeTiddler)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "first\n\nsecond", got[0]["text"])
}

func TestTid_HeaderOnly(t *testing.T) {
	got, err := Tid("title: A\ncaption: c", nil, TypeTiddler)
	require.NoError(t, err)

	assert.Equal(t, tiddler.Bundle{"title": "A", "caption": "c", "text": ""}, got[0])
}

func TestTids_MultiRecordBlock(t *testing.T) {
	fn := Tids(nil)
	got, err := fn("type: text/plain\n\nfoo: bar\nbaz: qux\n", tiddler.Bundle{}, TypeTiddlers)
	require.NoError(t, err)

	assert.Equal(t, []tiddler.Bundle{
		{"title": "foo", "text": "bar", "type": "text/plain"},
		{"title": "baz", "text": "qux", "type": "text/plain"},
	}, got)
}

func TestTids_TitlePrefixCommentsAndBadLines(t *testing.T) {
	fn := Tids(nil)
	text := "title: $:/language/\n\n# comment: skipped\nno separator\nButtons/Save: Save\nEmpty:\nfoo:bar\n"
	got, err := fn(text, tiddler.Bundle{}, TypeTiddlers)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "$:/language/Buttons/Save", got[0]["title"])
	assert.Equal(t, "Save", got[0]["text"])
}

func TestTids_SplitsAtColonSpace(t *testing.T) {
	fn := Tids(nil)
	text := "type: text/plain\n\n$:/a/b: text\n$:/foo: bar: baz \nfoo:bar\n"
	got, err := fn(text, tiddler.Bundle{}, TypeTiddlers)
	require.NoError(t, err)

	assert.Equal(t, []tiddler.Bundle{
		{"title": "$:/a/b", "text": "text", "type": "text/plain"},
		{"title": "$:/foo", "text": "bar: baz ", "type": "text/plain"},
	}, got)
}

func TestTids_DuplicateTitlesWarnAndKeepBoth(t *testing.T) {
	var buf bytes.Buffer
	fn := Tids(slog.New(slog.NewTextHandler(&buf, nil)))

	got, err := fn("\n\na: 1\na: 2\n", tiddler.Bundle{}, TypeTiddlers)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "2", got[1]["text"])
	assert.Contains(t, buf.String(), "multiple definitions")
	assert.Contains(t, buf.String(), "title=a")
}

func TestTids_NoBlankLineYieldsNothing(t *testing.T) {
	got, err := Tids(nil)("a: 1\nb: 2", tiddler.Bundle{}, TypeTiddlers)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSON_ArrayAndSingleObject(t *testing.T) {
	got, err := JSON(`[{"title":"A","tags":["x y","z"],"plugin-priority":10}]`, tiddler.Bundle{"type": "text/plain"}, TypeJSON)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tiddler.Bundle{
		"title":           "A",
		"type":            "text/plain",
		"tags":            []any{"x y", "z"},
		"plugin-priority": "10",
	}, got[0])

	got, err = JSON(`{"title":"B"}`, nil, TypeJSON)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0]["title"])
}

func TestJSON_Invalid(t *testing.T) {
	_, err := JSON(`{not json`, nil, TypeJSON)
	assert.Error(t, err)

	_, err = JSON(`[1,2]`, nil, TypeJSON)
	assert.Error(t, err)
}

func TestYAML_Sequence(t *testing.T) {
	text := "- title: A\n  text: hello\n  tags: [one, two words]\n- title: B\n"
	got, err := YAML(text, nil, TypeYAML)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "hello", got[0]["text"])
	assert.Equal(t, []any{"one", "two words"}, got[0]["tags"])
	assert.Equal(t, "B", got[1]["title"])
}

func TestHCL_HeaderFields(t *testing.T) {
	src := "/*\\\ntitle: $:/mod/greet\nmodule-type: library\n\nFree text.\n\\*/\n\ngreeting = \"hi\"\n"
	got, err := HCL(src, nil, TypeHCL)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "$:/mod/greet", got[0]["title"])
	assert.Equal(t, "library", got[0]["module-type"])
	assert.Equal(t, TypeHCL, got[0]["type"])
	assert.Equal(t, src, got[0]["text"])
	assert.NotContains(t, got[0], "Free text.")
}

func TestHCL_NoHeader(t *testing.T) {
	got, err := HCL("x = 1\n", tiddler.Bundle{"type": "application/x-custom"}, TypeHCL)
	require.NoError(t, err)

	assert.Equal(t, tiddler.Bundle{"text": "x = 1\n", "type": "application/x-custom"}, got[0])
}

func TestTid_RoundTrip(t *testing.T) {
	codecs := tiddler.NewCodecs()
	codecs.Register(tiddler.DateCodec(tiddler.FieldModified))
	codecs.Register(tiddler.ListCodec(tiddler.FieldTags))

	orig := codecs.MustNew(tiddler.Bundle{
		"title":    "Round Trip",
		"tags":     []string{"alpha", "beta gamma"},
		"modified": time.Date(2024, 5, 6, 7, 8, 9, 10*int(time.Millisecond), time.UTC),
		"caption":  "A caption",
		"text":     "Line one\n\nLine three",
	})

	got, err := Tid(StringifyTid(orig, codecs), tiddler.Bundle{}, TypeTiddler)
	require.NoError(t, err)
	require.Len(t, got, 1)

	back, err := codecs.New(got[0])
	require.NoError(t, err)
	assert.Equal(t, codecs.Stringify(orig), codecs.Stringify(back))
	assert.Equal(t, orig.List("tags"), back.List("tags"))
}

func TestTids_RoundTrip(t *testing.T) {
	codecs := tiddler.NewCodecs()
	records := []*tiddler.Tiddler{
		codecs.MustNew(tiddler.Bundle{"title": "one", "text": "1"}),
		codecs.MustNew(tiddler.Bundle{"title": "two", "text": "2"}),
	}

	for _, header := range []map[string]string{nil, {"type": "text/plain"}} {
		got, err := Tids(nil)(StringifyMulti(header, records), tiddler.Bundle{}, TypeTiddlers)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "one", got[0]["title"])
		assert.Equal(t, "2", got[1]["text"])
	}
}
