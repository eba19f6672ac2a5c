package bundle

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veil-verify/veil/internal/ir"
)

func intPtr(i int) *int { return &i }

// encodeBundle runs records through the Writer and returns the wire bytes.
func encodeBundle(t *testing.T, types []TypeRecord, items ...ItemRecord) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteTypeTable(types))
	for _, rec := range items {
		require.NoError(t, w.WriteItem(rec))
	}
	return buf.Bytes()
}

// rawBundle builds a valid header followed by arbitrary frame payloads,
// for malformations the Writer refuses to produce.
func rawBundle(frames ...[]byte) []byte {
	out := []byte{'V', 'E', 'I', 'L', 0, ir.SchemaVersion}
	for _, f := range frames {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(f)))
		out = append(out, lenBuf[:]...)
		out = append(out, f...)
	}
	return out
}

func TestRead_RoundTrip(t *testing.T) {
	data := encodeBundle(t,
		[]TypeRecord{
			{Kind: "int", Width: 32},
			{Kind: "bool"},
		},
		ItemRecord{
			LocalID: 1, Kind: "function", Path: []string{"demo", "inc"},
			Params: []ParamRecord{{Name: "x", Type: 0}},
			Result: intPtr(0),
			Body: &ExprRecord{Node: "app",
				Fn:   &ExprRecord{Node: "var", Name: "+"},
				Args: []*ExprRecord{{Node: "var", Name: "x"}, {Node: "lit", Kind: "int", Int: 1}},
			},
		},
		ItemRecord{
			LocalID: 2, Kind: "function", Path: []string{"demo", "use"},
			Result: intPtr(0),
			Body:   &ExprRecord{Node: "var", Name: "inc", Item: 1},
		},
		ItemRecord{
			LocalID: 3, Kind: "const", Path: []string{"demo", "LIMIT"},
			Underlying: intPtr(0),
			ConstValue: &ExprRecord{Node: "lit", Kind: "int", Int: 10},
		},
	)

	b, err := ReadBytes(data)
	require.NoError(t, err)
	require.Equal(t, 3, b.Arena.Len())
	assert.Equal(t, 2, b.Types.Len())

	inc := b.Arena.Get(b.Locals[1])
	assert.Equal(t, ir.KindFunction, inc.Kind)
	assert.Equal(t, "demo::inc", inc.Path.String())
	require.Len(t, inc.Params, 1)
	assert.Equal(t, "u32", ir.TypeKey(inc.Params[0].Type))
	assert.Equal(t, "u32", ir.TypeKey(inc.Result))
	assert.Equal(t, "(app + x 1)", ir.ExprKey(inc.Body))

	use := b.Arena.Get(b.Locals[2])
	v, ok := use.Body.(*ir.Var)
	require.True(t, ok)
	assert.Equal(t, inc.ID, v.Item)
	assert.Contains(t, use.Refs, inc.ID)

	limit := b.Arena.Get(b.Locals[3])
	assert.Equal(t, ir.KindConst, limit.Kind)
	assert.Equal(t, "10", ir.ExprKey(limit.ConstValue))
}

// Functions without a declared result are unit-valued.
func TestRead_DefaultsResultToUnit(t *testing.T) {
	data := encodeBundle(t, nil,
		ItemRecord{
			LocalID: 1, Kind: "function", Path: []string{"demo", "noop"},
			Body: &ExprRecord{Node: "lit", Kind: "unit"},
		},
	)
	b, err := ReadBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "unit", ir.TypeKey(b.Arena.Get(b.Locals[1]).Result))
}

// Named types declared inside the unit get their Item handle filled in.
func TestRead_LinksNamedTypes(t *testing.T) {
	data := encodeBundle(t,
		[]TypeRecord{
			{Kind: "int", Width: 8},
			{Kind: "named", Path: []string{"demo", "Small"}},
		},
		ItemRecord{
			LocalID: 1, Kind: "type", Path: []string{"demo", "Small"},
			Underlying: intPtr(0),
		},
		ItemRecord{
			LocalID: 2, Kind: "function", Path: []string{"demo", "f"},
			Params: []ParamRecord{{Name: "s", Type: 1}},
			Body:   &ExprRecord{Node: "var", Name: "s"},
		},
	)
	b, err := ReadBytes(data)
	require.NoError(t, err)

	f := b.Arena.Get(b.Locals[2])
	named, ok := f.Params[0].Type.(*ir.TNamed)
	require.True(t, ok)
	assert.Equal(t, b.Locals[1], named.Item)
	assert.Contains(t, f.Refs, b.Locals[1])
}

func TestRead_TraitAndImpl(t *testing.T) {
	data := encodeBundle(t,
		[]TypeRecord{
			{Kind: "int", Width: 32},
			{Kind: "bool"},
		},
		ItemRecord{
			LocalID: 1, Kind: "trait", Path: []string{"demo", "Ord"},
			Methods: []MethodRecord{
				{Name: "lt", Params: []ParamRecord{{Name: "other", Type: 0}}, Result: intPtr(1)},
			},
		},
		ItemRecord{
			LocalID: 2, Kind: "function", Path: []string{"demo", "u32_lt"},
			Params: []ParamRecord{{Name: "other", Type: 0}},
			Result: intPtr(1),
			Body:   &ExprRecord{Node: "lit", Kind: "bool", Bool: true},
		},
		ItemRecord{
			LocalID: 3, Kind: "impl", Path: []string{"demo", "impl_Ord_u32"},
			TraitRef: []string{"demo", "Ord"},
			RecvType: intPtr(0),
			Provides: map[string]int64{"lt": 2},
		},
	)
	b, err := ReadBytes(data)
	require.NoError(t, err)

	trait := b.Arena.Get(b.Locals[1])
	require.Len(t, trait.Methods, 1)
	assert.Equal(t, "lt", trait.Methods[0].Name)
	assert.Equal(t, "bool", ir.TypeKey(trait.Methods[0].Result))

	impl := b.Arena.Get(b.Locals[3])
	assert.Equal(t, "demo::Ord", impl.TraitRef.String())
	assert.Equal(t, "u32", ir.TypeKey(impl.RecvType))
	assert.Equal(t, b.Locals[2], impl.Provides["lt"])
}

func TestRead_StructuralErrors(t *testing.T) {
	oversized := []byte{'V', 'E', 'I', 'L', 0, ir.SchemaVersion, 0xFF, 0xFF, 0xFF, 0xFF}

	cases := []struct {
		name string
		data []byte
		code string
	}{
		{"bad magic", append([]byte("NOPE"), 0, ir.SchemaVersion), ErrBadMagic},
		{"future version", []byte{'V', 'E', 'I', 'L', 0, ir.SchemaVersion + 1}, ErrIncompatibleVersion},
		{"truncated header", []byte("VE"), ErrTruncated},
		{"no type table", rawBundle(), ErrTruncated},
		{"truncated frame", append(rawBundle(), 0, 0, 0, 10, 'x'), ErrTruncated},
		{"oversized frame", oversized, ErrOversizedFrame},
		{"type table not JSON", rawBundle([]byte("{")), ErrMalformedRecord},
		{"unknown type kind", rawBundle([]byte(`[{"kind":"wobble"}]`)), ErrUnsupportedTag},
		{"cyclic type entry", rawBundle([]byte(`[{"kind":"tuple","elems":[0]}]`)), ErrBadTypeIndex},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadBytes(tc.data)
			var ie *ImportError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tc.code, ie.Code)
		})
	}
}

func TestRead_RecordErrors(t *testing.T) {
	unitBody := &ExprRecord{Node: "lit", Kind: "unit"}

	cases := []struct {
		name  string
		types []TypeRecord
		items []ItemRecord
		code  string
	}{
		{
			name: "schema rejects zero id",
			items: []ItemRecord{
				{LocalID: 0, Kind: "function", Path: []string{"demo", "f"}, Body: unitBody},
			},
			code: ErrMalformedRecord,
		},
		{
			name: "schema rejects unknown kind",
			items: []ItemRecord{
				{LocalID: 1, Kind: "widget", Path: []string{"demo", "f"}, Body: unitBody},
			},
			code: ErrMalformedRecord,
		},
		{
			name: "duplicate local id",
			items: []ItemRecord{
				{LocalID: 1, Kind: "function", Path: []string{"demo", "f"}, Body: unitBody},
				{LocalID: 1, Kind: "function", Path: []string{"demo", "g"}, Body: unitBody},
			},
			code: ErrDuplicateLocalID,
		},
		{
			name: "dangling item reference",
			items: []ItemRecord{
				{LocalID: 1, Kind: "function", Path: []string{"demo", "f"},
					Body: &ExprRecord{Node: "var", Name: "ghost", Item: 99}},
			},
			code: ErrDanglingReference,
		},
		{
			name: "type index out of range",
			items: []ItemRecord{
				{LocalID: 1, Kind: "function", Path: []string{"demo", "f"},
					Params: []ParamRecord{{Name: "x", Type: 5}}, Body: unitBody},
			},
			code: ErrBadTypeIndex,
		},
		{
			name: "unsupported node tag",
			items: []ItemRecord{
				{LocalID: 1, Kind: "function", Path: []string{"demo", "f"},
					Body: &ExprRecord{Node: "frobnicate"}},
			},
			code: ErrUnsupportedTag,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := encodeBundle(t, tc.types, tc.items...)
			_, err := ReadBytes(data)
			var ie *ImportError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tc.code, ie.Code)
		})
	}
}

func TestWriter_RequiresTypeTableFirst(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	err := w.WriteItem(ItemRecord{LocalID: 1, Kind: "function", Path: []string{"demo", "f"}})
	require.Error(t, err)

	require.NoError(t, w.WriteTypeTable(nil))
	assert.Error(t, w.WriteTypeTable(nil))
}
