package bundle

import (
	"github.com/veil-verify/veil/internal/ir"
)

// decoder resolves wire references for one item record.
type decoder struct {
	types  *TypeTable
	locals map[int64]ir.ItemID
	record int // frame ordinal for error reporting
}

// item resolves a frontend-local item id to an arena handle.
func (d *decoder) item(local int64) (ir.ItemID, error) {
	if local == 0 {
		return ir.NoItem, nil
	}
	id, ok := d.locals[local]
	if !ok {
		return ir.NoItem, importErrf(ErrDanglingReference, d.record, "reference to absent local item id %d", local)
	}
	return id, nil
}

func (d *decoder) typ(idx *int) (ir.Type, error) {
	return d.types.resolveOpt(idx, d.record)
}

func (d *decoder) typeList(idxs []int) ([]ir.Type, error) {
	if len(idxs) == 0 {
		return nil, nil
	}
	out := make([]ir.Type, len(idxs))
	for i, idx := range idxs {
		t, err := d.types.Resolve(idx, d.record)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (d *decoder) params(recs []ParamRecord) ([]ir.Param, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	out := make([]ir.Param, len(recs))
	for i, p := range recs {
		t, err := d.types.Resolve(p.Type, d.record)
		if err != nil {
			return nil, err
		}
		out[i] = ir.Param{Name: p.Name, Type: t}
	}
	return out, nil
}

func (d *decoder) exprList(recs []*ExprRecord) ([]ir.Expr, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	out := make([]ir.Expr, len(recs))
	for i, r := range recs {
		e, err := d.expr(r)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// expr decodes one expression node. nil records decode to nil.
func (d *decoder) expr(rec *ExprRecord) (ir.Expr, error) {
	if rec == nil {
		return nil, nil
	}
	switch rec.Node {
	case "lit":
		kind := ir.LitKind(rec.Kind)
		switch kind {
		case ir.LitUnit, ir.LitBool, ir.LitInt, ir.LitBigInt, ir.LitFloat, ir.LitString:
			return &ir.Lit{Kind: kind, Bool: rec.Bool, Int: rec.Int, Text: rec.Text}, nil
		default:
			return nil, importErrf(ErrUnsupportedTag, d.record, "unsupported literal kind %q", rec.Kind)
		}
	case "var":
		id, err := d.item(rec.Item)
		if err != nil {
			return nil, err
		}
		targs, err := d.typeList(rec.TypeArgs)
		if err != nil {
			return nil, err
		}
		return &ir.Var{Name: rec.Name, Item: id, TypeArgs: targs}, nil
	case "app":
		fn, err := d.expr(rec.Fn)
		if err != nil {
			return nil, err
		}
		args, err := d.exprList(rec.Args)
		if err != nil {
			return nil, err
		}
		return &ir.App{Fn: fn, Args: args}, nil
	case "method_call":
		recv, err := d.expr(rec.Recv)
		if err != nil {
			return nil, err
		}
		args, err := d.exprList(rec.Args)
		if err != nil {
			return nil, err
		}
		recvType, err := d.typ(rec.RecvTypeIdx)
		if err != nil {
			return nil, err
		}
		targs, err := d.typeList(rec.TypeArgs)
		if err != nil {
			return nil, err
		}
		return &ir.MethodCall{
			Trait:    ir.NamePath(rec.Trait),
			Method:   rec.Method,
			RecvType: recvType,
			Recv:     recv,
			Args:     args,
			TypeArgs: targs,
		}, nil
	case "lambda":
		params, err := d.params(rec.Params)
		if err != nil {
			return nil, err
		}
		body, err := d.expr(rec.Body)
		if err != nil {
			return nil, err
		}
		return &ir.Lambda{Params: params, Body: body}, nil
	case "let":
		value, err := d.expr(rec.Value)
		if err != nil {
			return nil, err
		}
		body, err := d.expr(rec.Body)
		if err != nil {
			return nil, err
		}
		return &ir.Let{Name: rec.Name, Value: value, Body: body}, nil
	case "match":
		scrut, err := d.expr(rec.Scrutinee)
		if err != nil {
			return nil, err
		}
		arms := make([]ir.MatchArm, len(rec.Arms))
		for i, arm := range rec.Arms {
			pat, err := d.pattern(arm.Pat)
			if err != nil {
				return nil, err
			}
			guard, err := d.expr(arm.Guard)
			if err != nil {
				return nil, err
			}
			body, err := d.expr(arm.Body)
			if err != nil {
				return nil, err
			}
			arms[i] = ir.MatchArm{Pat: pat, Guard: guard, Body: body}
		}
		return &ir.Match{Scrutinee: scrut, Arms: arms}, nil
	case "if":
		cond, err := d.expr(rec.Cond)
		if err != nil {
			return nil, err
		}
		then, err := d.expr(rec.Then)
		if err != nil {
			return nil, err
		}
		els, err := d.expr(rec.Else)
		if err != nil {
			return nil, err
		}
		if els == nil {
			els = ir.Unit()
		}
		return &ir.If{Cond: cond, Then: then, Else: els}, nil
	case "construct":
		t, err := d.typ(rec.Type)
		if err != nil {
			return nil, err
		}
		fields := make([]ir.FieldInit, len(rec.Fields))
		for i, f := range rec.Fields {
			v, err := d.expr(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = ir.FieldInit{Name: f.Name, Value: v}
		}
		return &ir.Construct{Type: t, Case: rec.Case, Fields: fields}, nil
	case "field":
		recv, err := d.expr(rec.Recv)
		if err != nil {
			return nil, err
		}
		return &ir.FieldAccess{Recv: recv, Field: rec.Field}, nil
	case "index":
		recv, err := d.expr(rec.Recv)
		if err != nil {
			return nil, err
		}
		idx, err := d.expr(rec.Index)
		if err != nil {
			return nil, err
		}
		return &ir.Index{Recv: recv, Index: idx}, nil
	case "cast":
		value, err := d.expr(rec.Value)
		if err != nil {
			return nil, err
		}
		from, err := d.typ(rec.FromType)
		if err != nil {
			return nil, err
		}
		to, err := d.typ(rec.ToType)
		if err != nil {
			return nil, err
		}
		return &ir.Cast{Value: value, From: from, To: to, Kind: ir.CastPlain}, nil
	case "ascribe":
		value, err := d.expr(rec.Value)
		if err != nil {
			return nil, err
		}
		to, err := d.typ(rec.ToType)
		if err != nil {
			return nil, err
		}
		return &ir.Ascribe{Value: value, To: to}, nil
	case "loop":
		body, err := d.expr(rec.Body)
		if err != nil {
			return nil, err
		}
		return &ir.Loop{Label: rec.Label, Body: body}, nil
	case "break":
		return &ir.Break{Label: rec.Label}, nil
	case "continue":
		return &ir.Continue{Label: rec.Label}, nil
	case "return":
		value, err := d.expr(rec.Value)
		if err != nil {
			return nil, err
		}
		return &ir.Return{Value: value}, nil
	case "marker":
		kind := ir.MarkerKind(rec.Kind)
		if !ir.ValidMarkerKinds[kind] {
			return nil, importErrf(ErrUnsupportedTag, d.record, "unsupported marker kind %q", rec.Kind)
		}
		args, err := d.exprList(rec.Args)
		if err != nil {
			return nil, err
		}
		return &ir.Marker{Kind: kind, Args: args, Span: spanOf(rec.Span)}, nil
	case "quant":
		kind := ir.QuantKind(rec.Kind)
		if kind != ir.QuantForall && kind != ir.QuantExists {
			return nil, importErrf(ErrUnsupportedTag, d.record, "unsupported quantifier kind %q", rec.Kind)
		}
		binders, err := d.params(rec.Params)
		if err != nil {
			return nil, err
		}
		body, err := d.expr(rec.Body)
		if err != nil {
			return nil, err
		}
		return &ir.Quant{Kind: kind, Binders: binders, Body: body}, nil
	case "implies":
		lhs, err := d.expr(rec.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := d.expr(rec.Rhs)
		if err != nil {
			return nil, err
		}
		return &ir.Implies{Lhs: lhs, Rhs: rhs}, nil
	case "for_range":
		from, err := d.expr(rec.From)
		if err != nil {
			return nil, err
		}
		to, err := d.expr(rec.To)
		if err != nil {
			return nil, err
		}
		body, err := d.expr(rec.Body)
		if err != nil {
			return nil, err
		}
		return &ir.ForRange{Var: rec.Var, From: from, To: to, Body: body}, nil
	case "while":
		cond, err := d.expr(rec.Cond)
		if err != nil {
			return nil, err
		}
		body, err := d.expr(rec.Body)
		if err != nil {
			return nil, err
		}
		return &ir.While{Cond: cond, Body: body}, nil
	case "chain":
		recv, err := d.expr(rec.Recv)
		if err != nil {
			return nil, err
		}
		links := make([]ir.ChainLink, len(rec.Links))
		for i, l := range rec.Links {
			args, err := d.exprList(l.Args)
			if err != nil {
				return nil, err
			}
			links[i] = ir.ChainLink{Name: l.Name, Args: args}
		}
		return &ir.MethodChain{Recv: recv, Links: links}, nil
	case "unsupported":
		return &ir.Unsupported{Construct: rec.Construct, Span: spanOf(rec.Span)}, nil
	default:
		return nil, importErrf(ErrUnsupportedTag, d.record, "unsupported node tag %q", rec.Node)
	}
}

// pattern decodes one pattern node.
func (d *decoder) pattern(rec *PatternRecord) (ir.Pattern, error) {
	if rec == nil {
		return nil, importErrf(ErrMalformedRecord, d.record, "match arm missing pattern")
	}
	switch rec.Pat {
	case "var":
		return &ir.PatVar{Name: rec.Name}, nil
	case "wildcard":
		return &ir.PatWildcard{}, nil
	case "lit":
		v, err := d.expr(rec.Value)
		if err != nil {
			return nil, err
		}
		lit, ok := v.(*ir.Lit)
		if !ok {
			return nil, importErrf(ErrMalformedRecord, d.record, "literal pattern value is not a literal")
		}
		return &ir.PatLit{Value: lit}, nil
	case "construct":
		t, err := d.typ(rec.Type)
		if err != nil {
			return nil, err
		}
		elems := make([]ir.Pattern, len(rec.Elems))
		for i, e := range rec.Elems {
			p, err := d.pattern(e)
			if err != nil {
				return nil, err
			}
			elems[i] = p
		}
		return &ir.PatConstruct{Type: t, Case: rec.Case, Elems: elems}, nil
	case "record":
		fields := make([]ir.PatFieldEntry, len(rec.Fields))
		for i, f := range rec.Fields {
			p, err := d.pattern(f.Pat)
			if err != nil {
				return nil, err
			}
			fields[i] = ir.PatFieldEntry{Name: f.Name, Pat: p}
		}
		return &ir.PatRecord{Fields: fields}, nil
	case "array":
		elems := make([]ir.Pattern, len(rec.Elems))
		for i, e := range rec.Elems {
			p, err := d.pattern(e)
			if err != nil {
				return nil, err
			}
			elems[i] = p
		}
		return &ir.PatArray{Elems: elems}, nil
	case "or":
		alts := make([]ir.Pattern, len(rec.Alts))
		for i, a := range rec.Alts {
			p, err := d.pattern(a)
			if err != nil {
				return nil, err
			}
			alts[i] = p
		}
		return &ir.PatOr{Alts: alts}, nil
	case "guarded":
		inner, err := d.pattern(rec.Inner)
		if err != nil {
			return nil, err
		}
		cond, err := d.expr(rec.Cond)
		if err != nil {
			return nil, err
		}
		return &ir.PatGuarded{Pat: inner, Cond: cond}, nil
	default:
		return nil, importErrf(ErrUnsupportedTag, d.record, "unsupported pattern tag %q", rec.Pat)
	}
}

func spanOf(rec SpanRecord) ir.Span {
	return ir.Span{File: rec.File, Line: rec.Line, Col: rec.Col}
}
