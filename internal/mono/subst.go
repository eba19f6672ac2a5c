package mono

import "github.com/veil-verify/veil/internal/ir"

// substType replaces type variables by the instantiation's bindings.
// Unbound variables stay, which only happens inside nested templates.
func substType(t ir.Type, subst map[string]ir.Type) ir.Type {
	switch tt := t.(type) {
	case nil:
		return nil
	case *ir.TVar:
		if bound, ok := subst[tt.Name]; ok {
			return bound
		}
		return tt
	case *ir.TTuple:
		elems := make([]ir.Type, len(tt.Elems))
		for i, e := range tt.Elems {
			elems[i] = substType(e, subst)
		}
		return &ir.TTuple{Elems: elems}
	case *ir.TArray:
		return &ir.TArray{Elem: substType(tt.Elem, subst), Size: tt.Size}
	case *ir.TSlice:
		return &ir.TSlice{Elem: substType(tt.Elem, subst)}
	case *ir.TRef:
		return &ir.TRef{Elem: substType(tt.Elem, subst), Mut: tt.Mut}
	case *ir.TFunc:
		params := make([]ir.Type, len(tt.Params))
		for i, p := range tt.Params {
			params[i] = substType(p, subst)
		}
		return &ir.TFunc{Params: params, Result: substType(tt.Result, subst)}
	case *ir.TNamed:
		args := make([]ir.Type, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = substType(a, subst)
		}
		return &ir.TNamed{Path: tt.Path, Item: tt.Item, Args: args}
	default:
		return t
	}
}

func substTypes(ts []ir.Type, subst map[string]ir.Type) []ir.Type {
	if ts == nil {
		return nil
	}
	out := make([]ir.Type, len(ts))
	for i, t := range ts {
		out[i] = substType(t, subst)
	}
	return out
}

// substExpr applies a type substitution to every type embedded in an
// already-cloned expression tree.
func substExpr(e ir.Expr, subst map[string]ir.Type) ir.Expr {
	return ir.Rewrite(e, func(n ir.Expr) ir.Expr {
		switch x := n.(type) {
		case *ir.Var:
			x.TypeArgs = substTypes(x.TypeArgs, subst)
		case *ir.MethodCall:
			x.RecvType = substType(x.RecvType, subst)
			x.TypeArgs = substTypes(x.TypeArgs, subst)
		case *ir.Lambda:
			for i := range x.Params {
				x.Params[i].Type = substType(x.Params[i].Type, subst)
			}
		case *ir.Construct:
			x.Type = substType(x.Type, subst)
		case *ir.Cast:
			x.From = substType(x.From, subst)
			x.To = substType(x.To, subst)
		case *ir.Ascribe:
			x.To = substType(x.To, subst)
		case *ir.Quant:
			for i := range x.Binders {
				x.Binders[i].Type = substType(x.Binders[i].Type, subst)
			}
		}
		return n
	})
}
