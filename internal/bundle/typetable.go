package bundle

import "github.com/veil-verify/veil/internal/ir"

// TypeTable holds the bundle's decoded types. It is immutable after
// Read returns and safe to share read-only across parallel workers.
type TypeTable struct {
	types []ir.Type
}

// Len returns the number of table entries.
func (t *TypeTable) Len() int {
	return len(t.types)
}

// Resolve returns the type at a wire index.
func (t *TypeTable) Resolve(idx int, record int) (ir.Type, error) {
	if idx < 0 || idx >= len(t.types) {
		return nil, importErrf(ErrBadTypeIndex, record, "type index %d out of range (table size %d)", idx, len(t.types))
	}
	return t.types[idx], nil
}

// resolveOpt resolves an optional index, mapping nil to a nil type.
func (t *TypeTable) resolveOpt(idx *int, record int) (ir.Type, error) {
	if idx == nil {
		return nil, nil
	}
	return t.Resolve(*idx, record)
}

// buildTypeTable decodes the wire records into ir.Types. Entries may
// reference later entries; cycles through structural indices are
// malformed (recursion goes through named types, which hold paths).
func buildTypeTable(records []TypeRecord) (*TypeTable, error) {
	table := &TypeTable{types: make([]ir.Type, len(records))}
	state := make([]uint8, len(records)) // 0 unvisited, 1 in progress, 2 done

	var build func(idx int) (ir.Type, error)
	build = func(idx int) (ir.Type, error) {
		if idx < 0 || idx >= len(records) {
			return nil, importErrf(ErrBadTypeIndex, 1, "type index %d out of range (table size %d)", idx, len(records))
		}
		switch state[idx] {
		case 2:
			return table.types[idx], nil
		case 1:
			return nil, importErrf(ErrBadTypeIndex, 1, "type table entry %d is structurally cyclic", idx)
		}
		state[idx] = 1

		rec := records[idx]
		var t ir.Type
		switch rec.Kind {
		case "bool":
			t = &ir.TBool{}
		case "int":
			t = &ir.TInt{Width: rec.Width, Signed: rec.Signed}
		case "float":
			t = &ir.TFloat{Width: rec.Width}
		case "bigint":
			t = &ir.TBigInt{}
		case "unit":
			t = &ir.TUnit{}
		case "tuple":
			elems := make([]ir.Type, len(rec.Elems))
			for i, e := range rec.Elems {
				et, err := build(e)
				if err != nil {
					return nil, err
				}
				elems[i] = et
			}
			t = &ir.TTuple{Elems: elems}
		case "array":
			if rec.Elem == nil {
				return nil, importErrf(ErrMalformedRecord, 1, "array type entry %d missing elem", idx)
			}
			et, err := build(*rec.Elem)
			if err != nil {
				return nil, err
			}
			t = &ir.TArray{Elem: et, Size: rec.Size}
		case "slice":
			if rec.Elem == nil {
				return nil, importErrf(ErrMalformedRecord, 1, "slice type entry %d missing elem", idx)
			}
			et, err := build(*rec.Elem)
			if err != nil {
				return nil, err
			}
			t = &ir.TSlice{Elem: et}
		case "ref":
			if rec.Elem == nil {
				return nil, importErrf(ErrMalformedRecord, 1, "ref type entry %d missing elem", idx)
			}
			et, err := build(*rec.Elem)
			if err != nil {
				return nil, err
			}
			t = &ir.TRef{Elem: et, Mut: rec.Mut}
		case "func":
			params := make([]ir.Type, len(rec.Params))
			for i, p := range rec.Params {
				pt, err := build(p)
				if err != nil {
					return nil, err
				}
				params[i] = pt
			}
			var res ir.Type = &ir.TUnit{}
			if rec.Result != nil {
				rt, err := build(*rec.Result)
				if err != nil {
					return nil, err
				}
				res = rt
			}
			t = &ir.TFunc{Params: params, Result: res}
		case "named":
			if len(rec.Path) == 0 {
				return nil, importErrf(ErrMalformedRecord, 1, "named type entry %d missing path", idx)
			}
			args := make([]ir.Type, len(rec.Args))
			for i, a := range rec.Args {
				at, err := build(a)
				if err != nil {
					return nil, err
				}
				args[i] = at
			}
			t = &ir.TNamed{Path: ir.NamePath(rec.Path), Args: args}
		case "var":
			if rec.Name == "" {
				return nil, importErrf(ErrMalformedRecord, 1, "type variable entry %d missing name", idx)
			}
			t = &ir.TVar{Name: rec.Name}
		default:
			return nil, importErrf(ErrUnsupportedTag, 1, "unsupported type kind %q at entry %d", rec.Kind, idx)
		}

		table.types[idx] = t
		state[idx] = 2
		return t, nil
	}

	for i := range records {
		if _, err := build(i); err != nil {
			return nil, err
		}
	}
	return table, nil
}
