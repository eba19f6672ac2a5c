package ir

// Rewrite applies f bottom-up over an expression tree and returns the
// replacement. Children are rewritten before their parent, so f always
// sees already-rewritten subtrees. A nil input stays nil.
//
// Rewrite never visits Contract/LoopSpec/RefinementSpec predicates stored
// on Items; phases that need those walk them explicitly.
func Rewrite(e Expr, f func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Lit, *Var, *Break, *Continue, *Unsupported:
		// leaves
	case *App:
		n.Fn = Rewrite(n.Fn, f)
		for i := range n.Args {
			n.Args[i] = Rewrite(n.Args[i], f)
		}
	case *MethodCall:
		n.Recv = Rewrite(n.Recv, f)
		for i := range n.Args {
			n.Args[i] = Rewrite(n.Args[i], f)
		}
	case *Lambda:
		n.Body = Rewrite(n.Body, f)
	case *Let:
		n.Value = Rewrite(n.Value, f)
		n.Body = Rewrite(n.Body, f)
	case *Match:
		n.Scrutinee = Rewrite(n.Scrutinee, f)
		for i := range n.Arms {
			if n.Arms[i].Guard != nil {
				n.Arms[i].Guard = Rewrite(n.Arms[i].Guard, f)
			}
			n.Arms[i].Body = Rewrite(n.Arms[i].Body, f)
		}
	case *If:
		n.Cond = Rewrite(n.Cond, f)
		n.Then = Rewrite(n.Then, f)
		n.Else = Rewrite(n.Else, f)
	case *Construct:
		for i := range n.Fields {
			n.Fields[i].Value = Rewrite(n.Fields[i].Value, f)
		}
	case *FieldAccess:
		n.Recv = Rewrite(n.Recv, f)
	case *Index:
		n.Recv = Rewrite(n.Recv, f)
		n.Index = Rewrite(n.Index, f)
	case *Cast:
		n.Value = Rewrite(n.Value, f)
		if n.Check != nil {
			n.Check = Rewrite(n.Check, f)
		}
	case *Ascribe:
		n.Value = Rewrite(n.Value, f)
	case *Loop:
		n.Body = Rewrite(n.Body, f)
	case *Return:
		if n.Value != nil {
			n.Value = Rewrite(n.Value, f)
		}
	case *Obligation:
		n.Pred = Rewrite(n.Pred, f)
	case *Marker:
		for i := range n.Args {
			n.Args[i] = Rewrite(n.Args[i], f)
		}
	case *Quant:
		n.Body = Rewrite(n.Body, f)
	case *Implies:
		n.Lhs = Rewrite(n.Lhs, f)
		n.Rhs = Rewrite(n.Rhs, f)
	case *ForRange:
		n.From = Rewrite(n.From, f)
		n.To = Rewrite(n.To, f)
		n.Body = Rewrite(n.Body, f)
	case *While:
		n.Cond = Rewrite(n.Cond, f)
		n.Body = Rewrite(n.Body, f)
	case *MethodChain:
		n.Recv = Rewrite(n.Recv, f)
		for i := range n.Links {
			for j := range n.Links[i].Args {
				n.Links[i].Args[j] = Rewrite(n.Links[i].Args[j], f)
			}
		}
	}
	return f(e)
}

// Walk visits e and every descendant in pre-order, left to right. The
// visit order is the "source order" that clause extraction preserves.
// Walk stops early when f returns false for a node's subtree.
func Walk(e Expr, f func(Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	switch n := e.(type) {
	case *App:
		Walk(n.Fn, f)
		for _, a := range n.Args {
			Walk(a, f)
		}
	case *MethodCall:
		Walk(n.Recv, f)
		for _, a := range n.Args {
			Walk(a, f)
		}
	case *Lambda:
		Walk(n.Body, f)
	case *Let:
		Walk(n.Value, f)
		Walk(n.Body, f)
	case *Match:
		Walk(n.Scrutinee, f)
		for _, arm := range n.Arms {
			if arm.Guard != nil {
				Walk(arm.Guard, f)
			}
			Walk(arm.Body, f)
		}
	case *If:
		Walk(n.Cond, f)
		Walk(n.Then, f)
		Walk(n.Else, f)
	case *Construct:
		for _, fl := range n.Fields {
			Walk(fl.Value, f)
		}
	case *FieldAccess:
		Walk(n.Recv, f)
	case *Index:
		Walk(n.Recv, f)
		Walk(n.Index, f)
	case *Cast:
		Walk(n.Value, f)
		Walk(n.Check, f)
	case *Ascribe:
		Walk(n.Value, f)
	case *Loop:
		Walk(n.Body, f)
	case *Return:
		Walk(n.Value, f)
	case *Obligation:
		Walk(n.Pred, f)
	case *Marker:
		for _, a := range n.Args {
			Walk(a, f)
		}
	case *Quant:
		Walk(n.Body, f)
	case *Implies:
		Walk(n.Lhs, f)
		Walk(n.Rhs, f)
	case *ForRange:
		Walk(n.From, f)
		Walk(n.To, f)
		Walk(n.Body, f)
	case *While:
		Walk(n.Cond, f)
		Walk(n.Body, f)
	case *MethodChain:
		Walk(n.Recv, f)
		for _, l := range n.Links {
			for _, a := range l.Args {
				Walk(a, f)
			}
		}
	}
}
