package simplify

import (
	"github.com/veil-verify/veil/internal/ir"
)

// binding is one Let-bound extraction produced by pattern compilation.
type binding struct {
	name  string
	value ir.Expr
}

// compilePattern turns a pattern over subject into a boolean test plus
// the extractions the arm body needs. Extractions are projections that
// are only evaluated once the test has passed.
//
// Or-patterns that bind names have no single extraction site and are
// reported as UnsupportedConstruct; the frontend is expected to expand
// them into separate arms.
func (s *simplifier) compilePattern(subject ir.Expr, p ir.Pattern) (ir.Expr, []binding, bool) {
	switch pn := p.(type) {
	case *ir.PatVar:
		return ir.BoolLit(true), []binding{{name: pn.Name, value: ir.CloneExpr(subject)}}, true

	case *ir.PatWildcard:
		return ir.BoolLit(true), nil, true

	case *ir.PatLit:
		lit := *pn.Value
		return ir.App2("==", ir.CloneExpr(subject), &lit), nil, true

	case *ir.PatConstruct:
		test := variantTest(subject, pn.Case)
		var binds []binding
		for i, elem := range pn.Elems {
			proj := variantProj(subject, pn.Case, i)
			elemTest, elemBinds, ok := s.compilePattern(proj, elem)
			if !ok {
				return nil, nil, false
			}
			test = conj(test, elemTest)
			binds = append(binds, elemBinds...)
		}
		return test, binds, true

	case *ir.PatRecord:
		var test ir.Expr = ir.BoolLit(true)
		var binds []binding
		for _, f := range pn.Fields {
			proj := &ir.FieldAccess{Recv: ir.CloneExpr(subject), Field: f.Name}
			fieldTest, fieldBinds, ok := s.compilePattern(proj, f.Pat)
			if !ok {
				return nil, nil, false
			}
			test = conj(test, fieldTest)
			binds = append(binds, fieldBinds...)
		}
		return test, binds, true

	case *ir.PatArray:
		lenCheck := ir.App2("==",
			&ir.App{Fn: ir.Builtin("len"), Args: []ir.Expr{ir.CloneExpr(subject)}},
			ir.IntLit(int64(len(pn.Elems))))
		test := ir.Expr(lenCheck)
		var binds []binding
		for i, elem := range pn.Elems {
			proj := &ir.Index{Recv: ir.CloneExpr(subject), Index: ir.IntLit(int64(i))}
			elemTest, elemBinds, ok := s.compilePattern(proj, elem)
			if !ok {
				return nil, nil, false
			}
			test = conj(test, elemTest)
			binds = append(binds, elemBinds...)
		}
		return test, binds, true

	case *ir.PatOr:
		var test ir.Expr
		for _, alt := range pn.Alts {
			altTest, altBinds, ok := s.compilePattern(subject, alt)
			if !ok {
				return nil, nil, false
			}
			if len(altBinds) > 0 {
				s.unsupported("or-pattern with bindings", ir.Span{})
				return nil, nil, false
			}
			if test == nil {
				test = altTest
			} else {
				test = ir.App2("||", test, altTest)
			}
		}
		if test == nil {
			test = ir.BoolLit(false)
		}
		return test, nil, true

	case *ir.PatGuarded:
		// The side condition sees the inner pattern's bindings, so it
		// becomes part of the arm guard rather than the arm test.
		innerTest, binds, ok := s.compilePattern(subject, pn.Pat)
		if !ok {
			return nil, nil, false
		}
		cond := pn.Cond
		for j := len(binds) - 1; j >= 0; j-- {
			cond = &ir.Let{Name: binds[j].name, Value: ir.CloneExpr(binds[j].value), Body: cond}
		}
		return conj(innerTest, cond), binds, true

	default:
		s.unsupported("unknown pattern", ir.Span{})
		return nil, nil, false
	}
}

// variantTest builds the is-this-case predicate for a sum value. Plain
// records (empty case) always pass.
func variantTest(subject ir.Expr, caseName string) ir.Expr {
	if caseName == "" {
		return ir.BoolLit(true)
	}
	return &ir.App{
		Fn:   ir.Builtin("is_variant"),
		Args: []ir.Expr{ir.CloneExpr(subject), &ir.Lit{Kind: ir.LitString, Text: caseName}},
	}
}

// variantProj projects the i-th payload of a sum case, or the i-th
// positional field of a record constructor.
func variantProj(subject ir.Expr, caseName string, i int) ir.Expr {
	return &ir.App{
		Fn: ir.Builtin("proj"),
		Args: []ir.Expr{
			ir.CloneExpr(subject),
			&ir.Lit{Kind: ir.LitString, Text: caseName},
			ir.IntLit(int64(i)),
		},
	}
}

// conj conjoins two tests, dropping literal-true operands so the
// generated trees stay readable.
func conj(a, b ir.Expr) ir.Expr {
	if isAlwaysTrue(a) {
		return b
	}
	if isAlwaysTrue(b) {
		return a
	}
	return ir.App2("&&", a, b)
}
