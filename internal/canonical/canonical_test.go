package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsKeysAndSkipsHTMLEscaping(t *testing.T) {
	got, err := Marshal(map[string]any{
		"b":     "<tag> & \"quote\"",
		"a":     int64(1),
		"list":  []any{"x", true},
		"empty": map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":"<tag> & \"quote\"","empty":{},"list":["x",true]}`, string(got))
}

func TestMarshal_ControlCharacters(t *testing.T) {
	got, err := Marshal("a\nb\tc\x01\\")
	require.NoError(t, err)
	assert.Equal(t, `"a\nb\tc\u0001\\"`, string(got))
}

func TestMarshal_LineSeparatorsNotEscaped(t *testing.T) {
	got, err := Marshal("x\u2028y\u2029z")
	require.NoError(t, err)
	assert.Equal(t, "\"x\u2028y\u2029z\"", string(got))
}

func TestMarshal_NFCNormalizes(t *testing.T) {
	decomposed, err := Marshal("e\u0301")
	require.NoError(t, err)
	composed, err := Marshal("\u00e9")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshal_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates starting 0xD83D, which sort before
	// U+FF61 even though its UTF-8 bytes sort after.
	got, err := Marshal(map[string]string{"\uff61": "1", "\U0001F600": "2"})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":\"2\",\"\uff61\":\"1\"}", string(got))
}

func TestMarshal_Rejects(t *testing.T) {
	for _, v := range []any{nil, 1.5, struct{}{}, []any{nil}} {
		_, err := Marshal(v)
		assert.Error(t, err, "%#v", v)
	}
}

func TestTiddlerHash_StableAndDomainSeparated(t *testing.T) {
	fields := map[string]string{"title": "A", "text": "body"}
	h1, err := TiddlerHash(fields)
	require.NoError(t, err)
	h2, err := TiddlerHash(map[string]string{"text": "body", "title": "A"})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	data, _ := Marshal(fields)
	assert.NotEqual(t, h1, HashWithDomain(DomainSnapshot, data))
}

func TestSnapshotHash_OrderMatters(t *testing.T) {
	assert.NotEqual(t, SnapshotHash([]string{"a", "b"}), SnapshotHash([]string{"b", "a"}))
}
