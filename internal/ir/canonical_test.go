package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"b": 2,
		"a": 1,
		"c": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(out))
}

// Keys outside the BMP encode as surrogate pairs and must sort by those
// UTF-16 units, not by UTF-8 bytes. U+10000 (surrogates D800 DC00)
// precedes U+FF61 in UTF-16 but follows it in UTF-8.
func TestMarshalCanonical_SortsKeysByUTF16Units(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"｡":     1,
		"\U00010000": 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"｡\":1}", string(out))
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null")
}

func TestMarshalCanonical_StringEscaping(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"quote", `say "hi"`, `"say \"hi\""`},
		{"backslash", `a\b`, `"a\\b"`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"control", "a\x01b", `"a\u0001b"`},
		{"html stays literal", "<a>&</a>", `"<a>&</a>"`},
		{"line separator stays literal", "a b", "\"a b\""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := MarshalCanonical(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(out))
		})
	}
}

// Decomposed and precomposed forms of the same text must serialize
// identically: identity hashes are computed over this output.
func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	composed, err := MarshalCanonical("café")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("café")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
	assert.Equal(t, "\"café\"", string(composed))
}

func TestMarshalCanonical_NestedArrays(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"xs": []any{int64(1), "two", true},
		"ys": []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"xs":[1,"two",true],"ys":["a","b"]}`, string(out))
}
