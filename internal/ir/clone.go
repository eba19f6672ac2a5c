package ir

// CloneExpr deep-copies an expression tree. Types are shared: they are
// immutable once built, so copying them would only waste allocations.
// Cloning is what lets monomorphization stamp out specializations and
// the simplifier duplicate fallthrough branches without aliasing.
func CloneExpr(e Expr) Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *Lit:
		c := *n
		return &c
	case *Var:
		c := *n
		c.TypeArgs = append([]Type(nil), n.TypeArgs...)
		return &c
	case *App:
		return &App{Fn: CloneExpr(n.Fn), Args: cloneExprs(n.Args)}
	case *MethodCall:
		c := *n
		c.Recv = CloneExpr(n.Recv)
		c.Args = cloneExprs(n.Args)
		c.TypeArgs = append([]Type(nil), n.TypeArgs...)
		return &c
	case *Lambda:
		return &Lambda{Params: append([]Param(nil), n.Params...), Body: CloneExpr(n.Body)}
	case *Let:
		return &Let{Name: n.Name, Value: CloneExpr(n.Value), Body: CloneExpr(n.Body)}
	case *Match:
		arms := make([]MatchArm, len(n.Arms))
		for i, arm := range n.Arms {
			arms[i] = MatchArm{Pat: ClonePattern(arm.Pat), Guard: CloneExpr(arm.Guard), Body: CloneExpr(arm.Body)}
		}
		return &Match{Scrutinee: CloneExpr(n.Scrutinee), Arms: arms}
	case *If:
		return &If{Cond: CloneExpr(n.Cond), Then: CloneExpr(n.Then), Else: CloneExpr(n.Else)}
	case *Construct:
		fields := make([]FieldInit, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = FieldInit{Name: f.Name, Value: CloneExpr(f.Value)}
		}
		return &Construct{Type: n.Type, Case: n.Case, Fields: fields}
	case *FieldAccess:
		return &FieldAccess{Recv: CloneExpr(n.Recv), Field: n.Field}
	case *Index:
		return &Index{Recv: CloneExpr(n.Recv), Index: CloneExpr(n.Index)}
	case *Cast:
		return &Cast{Value: CloneExpr(n.Value), From: n.From, To: n.To, Kind: n.Kind, Check: CloneExpr(n.Check)}
	case *Ascribe:
		return &Ascribe{Value: CloneExpr(n.Value), To: n.To}
	case *Loop:
		return &Loop{Label: n.Label, Body: CloneExpr(n.Body), Spec: cloneLoopSpec(n.Spec)}
	case *Break:
		c := *n
		return &c
	case *Continue:
		c := *n
		return &c
	case *Return:
		return &Return{Value: CloneExpr(n.Value)}
	case *Obligation:
		return &Obligation{Kind: n.Kind, Pred: CloneExpr(n.Pred)}
	case *Marker:
		return &Marker{Kind: n.Kind, Args: cloneExprs(n.Args), Span: n.Span}
	case *Quant:
		return &Quant{Kind: n.Kind, Binders: append([]Param(nil), n.Binders...), Body: CloneExpr(n.Body)}
	case *Implies:
		return &Implies{Lhs: CloneExpr(n.Lhs), Rhs: CloneExpr(n.Rhs)}
	case *ForRange:
		return &ForRange{Var: n.Var, From: CloneExpr(n.From), To: CloneExpr(n.To), Body: CloneExpr(n.Body), Spec: cloneLoopSpec(n.Spec)}
	case *While:
		return &While{Cond: CloneExpr(n.Cond), Body: CloneExpr(n.Body), Spec: cloneLoopSpec(n.Spec)}
	case *MethodChain:
		links := make([]ChainLink, len(n.Links))
		for i, l := range n.Links {
			links[i] = ChainLink{Name: l.Name, Args: cloneExprs(l.Args)}
		}
		return &MethodChain{Recv: CloneExpr(n.Recv), Links: links}
	case *Unsupported:
		c := *n
		return &c
	default:
		panic("ir: CloneExpr of unknown node")
	}
}

func cloneExprs(es []Expr) []Expr {
	if es == nil {
		return nil
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = CloneExpr(e)
	}
	return out
}

func cloneLoopSpec(s *LoopSpec) *LoopSpec {
	if s == nil {
		return nil
	}
	return &LoopSpec{Invariants: cloneExprs(s.Invariants), Decreases: CloneExpr(s.Decreases)}
}

// ClonePattern deep-copies a pattern tree.
func ClonePattern(p Pattern) Pattern {
	switch pn := p.(type) {
	case nil:
		return nil
	case *PatVar:
		c := *pn
		return &c
	case *PatWildcard:
		return &PatWildcard{}
	case *PatLit:
		lit := *pn.Value
		return &PatLit{Value: &lit}
	case *PatConstruct:
		elems := make([]Pattern, len(pn.Elems))
		for i, e := range pn.Elems {
			elems[i] = ClonePattern(e)
		}
		return &PatConstruct{Type: pn.Type, Case: pn.Case, Elems: elems}
	case *PatRecord:
		fields := make([]PatFieldEntry, len(pn.Fields))
		for i, f := range pn.Fields {
			fields[i] = PatFieldEntry{Name: f.Name, Pat: ClonePattern(f.Pat)}
		}
		return &PatRecord{Fields: fields}
	case *PatArray:
		elems := make([]Pattern, len(pn.Elems))
		for i, e := range pn.Elems {
			elems[i] = ClonePattern(e)
		}
		return &PatArray{Elems: elems}
	case *PatOr:
		alts := make([]Pattern, len(pn.Alts))
		for i, a := range pn.Alts {
			alts[i] = ClonePattern(a)
		}
		return &PatOr{Alts: alts}
	case *PatGuarded:
		return &PatGuarded{Pat: ClonePattern(pn.Pat), Cond: CloneExpr(pn.Cond)}
	default:
		panic("ir: ClonePattern of unknown node")
	}
}
