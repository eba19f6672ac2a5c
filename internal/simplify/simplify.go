// Package simplify rewrites surface control flow into the canonical
// expression core.
//
// Representative rules:
//   - an N-arm match becomes a right-nested If sequence guarded by
//     pattern-test predicates, with Let-bound extractions
//   - bounded iteration becomes an index-counted Loop with an explicit
//     bound check and Break
//   - fluent call chains become nested Application/FieldAccess
//
// Every rule strictly reduces the surface-complexity measure, so
// desugaring terminates and is idempotent: re-running on desugared input
// is a no-op.
package simplify

import (
	"errors"
	"fmt"

	"github.com/veil-verify/veil/internal/ir"
)

// KindUnsupported is the error kind for genuinely unsupported forms.
const KindUnsupported = "UnsupportedConstruct"

// UnsupportedError is a per-item recoverable desugaring failure naming
// the offending node kind and the enclosing item.
type UnsupportedError struct {
	Item      ir.ItemID
	Path      ir.NamePath
	Construct string
	Span      ir.Span
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s in %s", KindUnsupported, e.Construct, e.Path)
}

// IsUnsupported reports whether err is (or wraps) an UnsupportedError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

// Measure counts surface nodes remaining in a tree. Zero means the tree
// is in the canonical core; every rewrite rule strictly decreases it.
func Measure(e ir.Expr) int {
	n := 0
	ir.Walk(e, func(x ir.Expr) bool {
		switch x.(type) {
		case *ir.Match, *ir.ForRange, *ir.While, *ir.MethodChain, *ir.Unsupported:
			n++
		}
		return true
	})
	return n
}

// Run desugars the bodies of all non-failed items. Returns per-item
// failures; siblings continue.
func Run(arena *ir.Arena, failed map[ir.ItemID]bool) []*UnsupportedError {
	var errs []*UnsupportedError
	for _, it := range arena.Items() {
		if failed[it.ID] {
			continue
		}
		s := &simplifier{item: it}
		if it.Body != nil {
			it.Body = s.rewrite(it.Body)
		}
		if it.ConstValue != nil {
			it.ConstValue = s.rewrite(it.ConstValue)
		}
		if s.err != nil {
			errs = append(errs, s.err)
			failed[it.ID] = true
			continue
		}
		ir.RecomputeRefs(it)
	}
	return errs
}

// Desugar rewrites a single expression tree. Exported for the fixed
// point property tests; the pipeline goes through Run.
func Desugar(e ir.Expr) (ir.Expr, error) {
	s := &simplifier{item: &ir.Item{}}
	out := s.rewrite(e)
	if s.err != nil {
		return nil, s.err
	}
	return out, nil
}

type simplifier struct {
	item *ir.Item
	temp int
	err  *UnsupportedError
}

// fresh returns a body-unique temporary name. The "%" prefix cannot
// collide with frontend identifiers.
func (s *simplifier) fresh(stem string) string {
	s.temp++
	return fmt.Sprintf("%%%s%d", stem, s.temp)
}

func (s *simplifier) unsupported(construct string, span ir.Span) {
	if s.err == nil {
		s.err = &UnsupportedError{Item: s.item.ID, Path: s.item.Path, Construct: construct, Span: span}
	}
}

// rewrite desugars bottom-up: children are canonical before a parent
// rule fires, so one pass reaches the fixed point.
func (s *simplifier) rewrite(e ir.Expr) ir.Expr {
	return ir.Rewrite(e, func(n ir.Expr) ir.Expr {
		if s.err != nil {
			return n
		}
		switch x := n.(type) {
		case *ir.Match:
			return s.lowerMatch(x)
		case *ir.ForRange:
			return s.lowerForRange(x)
		case *ir.While:
			return s.lowerWhile(x)
		case *ir.MethodChain:
			return s.lowerChain(x)
		case *ir.Unsupported:
			s.unsupported(x.Construct, x.Span)
			return x
		default:
			return n
		}
	})
}

// lowerMatch compiles a match into right-nested If. Arms compile from
// last to first; the accumulated else branch is deep-copied where a
// guard can fall through, preserving exclusive ownership.
func (s *simplifier) lowerMatch(m *ir.Match) ir.Expr {
	tmp := s.fresh("scrut")
	subject := &ir.Var{Name: tmp}

	// An exhausted match is a proof failure, not undefined behavior.
	var acc ir.Expr = &ir.Obligation{Kind: ir.ObAssert, Pred: ir.BoolLit(false)}

	for i := len(m.Arms) - 1; i >= 0; i-- {
		arm := m.Arms[i]
		test, binds, ok := s.compilePattern(subject, arm.Pat)
		if !ok {
			return m
		}

		body := arm.Body
		if arm.Guard != nil {
			// Guard failure falls through to the remaining arms.
			body = &ir.If{Cond: arm.Guard, Then: body, Else: ir.CloneExpr(acc)}
		}
		for j := len(binds) - 1; j >= 0; j-- {
			body = &ir.Let{Name: binds[j].name, Value: binds[j].value, Body: body}
		}

		if isAlwaysTrue(test) {
			acc = body
		} else {
			acc = &ir.If{Cond: test, Then: body, Else: acc}
		}
	}

	return &ir.Let{Name: tmp, Value: m.Scrutinee, Body: acc}
}

// lowerForRange compiles bounded iteration into an index-counted Loop
// with an explicit bound check and Break. The induction step uses the
// ":=" builtin, the core's only mutation form.
func (s *simplifier) lowerForRange(f *ir.ForRange) ir.Expr {
	idx := &ir.Var{Name: f.Var}
	step := ir.App2(":=", idx, ir.App2("+", &ir.Var{Name: f.Var}, ir.IntLit(1)))
	guarded := &ir.If{
		Cond: ir.App2("<", &ir.Var{Name: f.Var}, f.To),
		Then: &ir.Let{Name: "_", Value: f.Body, Body: step},
		Else: &ir.Break{},
	}
	loop := &ir.Loop{Body: guarded, Spec: f.Spec}
	return &ir.Let{Name: f.Var, Value: f.From, Body: loop}
}

// lowerWhile compiles conditional iteration into Loop+Break.
func (s *simplifier) lowerWhile(w *ir.While) ir.Expr {
	return &ir.Loop{
		Body: &ir.If{Cond: w.Cond, Then: w.Body, Else: &ir.Break{}},
		Spec: w.Spec,
	}
}

// lowerChain folds a fluent chain into nested Application/FieldAccess.
func (s *simplifier) lowerChain(c *ir.MethodChain) ir.Expr {
	acc := c.Recv
	for _, link := range c.Links {
		acc = &ir.App{
			Fn:   &ir.FieldAccess{Recv: acc, Field: link.Name},
			Args: link.Args,
		}
	}
	return acc
}

func isAlwaysTrue(e ir.Expr) bool {
	lit, ok := e.(*ir.Lit)
	return ok && lit.Kind == ir.LitBool && lit.Bool
}
