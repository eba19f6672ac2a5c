package bundle

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"

	"github.com/veil-verify/veil/internal/ir"
)

// Wire framing constants. A bundle is:
//
//	magic "VEIL" | u16 BE schema version | frames...
//
// where each frame is a u32 BE byte length followed by a JSON payload.
// The first frame is the type table ([]TypeRecord); every later frame is
// one ItemRecord.
var magic = [4]byte{'V', 'E', 'I', 'L'}

// maxFrameSize bounds a single frame. Larger frames indicate a corrupt
// length prefix, not a legitimate record.
const maxFrameSize = 16 << 20

// Bundle is a fully imported compilation unit.
type Bundle struct {
	Arena *ir.Arena
	Types *TypeTable

	// Locals maps the frontend's local ids to arena handles, kept for
	// diagnostics that want to speak the frontend's language.
	Locals map[int64]ir.ItemID
}

// Read imports one bundle from r. It is the only place top-level Items
// are allocated. The reader consumes the stream fully on success; any
// structural malformation aborts with an ImportError and no partial
// arena escapes.
func Read(r io.Reader) (*Bundle, error) {
	if err := readHeader(r); err != nil {
		return nil, err
	}

	frames, err := readFrames(r)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, importErrf(ErrTruncated, 0, "bundle has no type table frame")
	}

	var typeRecords []TypeRecord
	if err := json.Unmarshal(frames[0], &typeRecords); err != nil {
		return nil, importErrf(ErrMalformedRecord, 1, "type table: %v", err)
	}
	types, err := buildTypeTable(typeRecords)
	if err != nil {
		return nil, err
	}

	itemFrames := frames[1:]
	records := make([]ItemRecord, len(itemFrames))
	arena := ir.NewArena()
	locals := make(map[int64]ir.ItemID, len(itemFrames))

	// Pass 1: validate shapes, allocate Items, build the local id map so
	// pass 2 can resolve forward references.
	for i, frame := range itemFrames {
		ordinal := i + 2 // 1-based, after the type table frame
		if err := validateItemRecord(frame, ordinal); err != nil {
			return nil, err
		}
		var rec ItemRecord
		if err := json.Unmarshal(frame, &rec); err != nil {
			return nil, importErrf(ErrMalformedRecord, ordinal, "item record: %v", err)
		}
		if !ir.ValidItemKinds[ir.ItemKind(rec.Kind)] {
			return nil, importErrf(ErrUnsupportedTag, ordinal, "unsupported item kind %q", rec.Kind)
		}
		if _, dup := locals[rec.LocalID]; dup {
			return nil, importErrf(ErrDuplicateLocalID, ordinal, "duplicate local item id %d", rec.LocalID)
		}
		it := arena.New(ir.ItemKind(rec.Kind), ir.NamePath(rec.Path))
		it.Span = ir.Span{File: rec.Span.File, Line: rec.Span.Line, Col: rec.Span.Col}
		for _, g := range rec.Generics {
			it.Generics = append(it.Generics, ir.GenericParam{Name: g})
		}
		locals[rec.LocalID] = it.ID
		records[i] = rec
	}

	// Pass 2: decode payloads with all references resolvable.
	for i, rec := range records {
		ordinal := i + 2
		d := &decoder{types: types, locals: locals, record: ordinal}
		it := arena.Get(locals[rec.LocalID])
		if err := decodeItemPayload(d, it, &rec); err != nil {
			return nil, err
		}
		ir.RecomputeRefs(it)
	}

	// Link named types to their Items where the unit declares them.
	linkNamedTypes(arena)

	return &Bundle{Arena: arena, Types: types, Locals: locals}, nil
}

func readHeader(r io.Reader) error {
	var header [6]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return importErrf(ErrTruncated, 0, "bundle header: %v", err)
	}
	if !bytes.Equal(header[:4], magic[:]) {
		return importErrf(ErrBadMagic, 0, "bad magic %q, want %q", header[:4], magic[:])
	}
	version := binary.BigEndian.Uint16(header[4:6])
	if version != ir.SchemaVersion {
		return importErrf(ErrIncompatibleVersion, 0,
			"incompatible schema version %d, engine supports %d", version, ir.SchemaVersion)
	}
	return nil
}

func readFrames(r io.Reader) ([][]byte, error) {
	var frames [][]byte
	var lenBuf [4]byte
	for {
		_, err := io.ReadFull(r, lenBuf[:])
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, importErrf(ErrTruncated, len(frames)+1, "frame length: %v", err)
		}
		size := binary.BigEndian.Uint32(lenBuf[:])
		if size > maxFrameSize {
			return nil, importErrf(ErrOversizedFrame, len(frames)+1, "frame of %d bytes exceeds limit %d", size, maxFrameSize)
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, importErrf(ErrTruncated, len(frames)+1, "frame payload: %v", err)
		}
		frames = append(frames, payload)
	}
}

// decodeItemPayload fills the kind-specific fields of an Item.
func decodeItemPayload(d *decoder, it *ir.Item, rec *ItemRecord) error {
	var err error
	switch it.Kind {
	case ir.KindFunction:
		if it.Params, err = d.params(rec.Params); err != nil {
			return err
		}
		if it.Result, err = d.typ(rec.Result); err != nil {
			return err
		}
		if it.Result == nil {
			it.Result = &ir.TUnit{}
		}
		if it.Body, err = d.expr(rec.Body); err != nil {
			return err
		}
	case ir.KindType:
		if it.Underlying, err = d.typ(rec.Underlying); err != nil {
			return err
		}
		// A type item's body holds only refinement markers, if any.
		if it.Body, err = d.expr(rec.Body); err != nil {
			return err
		}
	case ir.KindTrait:
		for _, m := range rec.Methods {
			params, err := d.params(m.Params)
			if err != nil {
				return err
			}
			result, err := d.typ(m.Result)
			if err != nil {
				return err
			}
			if result == nil {
				result = &ir.TUnit{}
			}
			it.Methods = append(it.Methods, ir.MethodSig{Name: m.Name, Params: params, Result: result})
		}
	case ir.KindImpl:
		it.TraitRef = ir.NamePath(rec.TraitRef)
		if it.RecvType, err = d.typ(rec.RecvType); err != nil {
			return err
		}
		if len(rec.Provides) > 0 {
			it.Provides = make(map[string]ir.ItemID, len(rec.Provides))
			for name, local := range rec.Provides {
				id, err := d.item(local)
				if err != nil {
					return err
				}
				if id == ir.NoItem {
					return importErrf(ErrDanglingReference, d.record, "impl method %q references absent item", name)
				}
				it.Provides[name] = id
			}
		}
	case ir.KindConst:
		if it.Underlying, err = d.typ(rec.Underlying); err != nil {
			return err
		}
		if it.ConstValue, err = d.expr(rec.ConstValue); err != nil {
			return err
		}
	}
	return nil
}

// linkNamedTypes fills TNamed.Item for named types whose declaring Item
// is in this unit. Paths the unit only knows externally stay unlinked.
func linkNamedTypes(arena *ir.Arena) {
	byPath := make(map[string]ir.ItemID, arena.Len())
	for _, it := range arena.Items() {
		if it.Kind == ir.KindType || it.Kind == ir.KindTrait {
			byPath[it.Path.String()] = it.ID
		}
	}
	link := func(t ir.Type) {
		walkTypes(t, func(t ir.Type) {
			if named, ok := t.(*ir.TNamed); ok && named.Item == ir.NoItem {
				if id, ok := byPath[named.Path.String()]; ok {
					named.Item = id
				}
			}
		})
	}
	for _, it := range arena.Items() {
		for i := range it.Params {
			link(it.Params[i].Type)
		}
		link(it.Result)
		link(it.Underlying)
		link(it.RecvType)
		ir.Rewrite(it.Body, func(e ir.Expr) ir.Expr {
			switch n := e.(type) {
			case *ir.Construct:
				link(n.Type)
			case *ir.Cast:
				link(n.From)
				link(n.To)
			case *ir.Ascribe:
				link(n.To)
			case *ir.MethodCall:
				link(n.RecvType)
				for _, t := range n.TypeArgs {
					link(t)
				}
			case *ir.Var:
				for _, t := range n.TypeArgs {
					link(t)
				}
			}
			return e
		})
		ir.RecomputeRefs(it)
	}
}

func walkTypes(t ir.Type, f func(ir.Type)) {
	if t == nil {
		return
	}
	f(t)
	switch tt := t.(type) {
	case *ir.TTuple:
		for _, e := range tt.Elems {
			walkTypes(e, f)
		}
	case *ir.TArray:
		walkTypes(tt.Elem, f)
	case *ir.TSlice:
		walkTypes(tt.Elem, f)
	case *ir.TRef:
		walkTypes(tt.Elem, f)
	case *ir.TFunc:
		for _, p := range tt.Params {
			walkTypes(p, f)
		}
		walkTypes(tt.Result, f)
	case *ir.TNamed:
		for _, a := range tt.Args {
			walkTypes(a, f)
		}
	}
}

// ReadBytes is a convenience wrapper reading a bundle from a byte slice.
func ReadBytes(data []byte) (*Bundle, error) {
	return Read(bytes.NewReader(data))
}
