package mono

import (
	"fmt"
	"math/big"

	"github.com/veil-verify/veil/internal/ir"
)

// elaborateCasts rewrites plain numeric casts into explicit Lift and
// Concretize nodes. Lift (fixed width into the unbounded integers) is
// always representable. Concretize binds the value once and attaches the
// representability obligation over the binding, so the check shares no
// subtree with the converted value.
func elaborateCasts(e ir.Expr, fresh func(string) string) ir.Expr {
	return ir.Rewrite(e, func(n ir.Expr) ir.Expr {
		cast, ok := n.(*ir.Cast)
		if !ok || cast.Kind != ir.CastPlain {
			return n
		}

		_, fromFixed := cast.From.(*ir.TInt)
		_, fromBig := cast.From.(*ir.TBigInt)
		toInt, toFixed := cast.To.(*ir.TInt)
		_, toBig := cast.To.(*ir.TBigInt)

		switch {
		case fromFixed && toBig:
			cast.Kind = ir.CastLift
			return cast

		case fromBig && toFixed:
			tmp := fresh("concretize")
			lo, hi := intBounds(toInt)
			bound := &ir.Var{Name: tmp}
			check := ir.App2("&&",
				ir.App2("<=", ir.BigIntLit(lo), ir.CloneExpr(bound)),
				ir.App2("<=", ir.CloneExpr(bound), ir.BigIntLit(hi)))
			inner := &ir.Cast{
				Value: &ir.Var{Name: tmp},
				From:  cast.From,
				To:    cast.To,
				Kind:  ir.CastConcretize,
				Check: check,
			}
			return &ir.Let{Name: tmp, Value: cast.Value, Body: inner}

		default:
			return n
		}
	})
}

// intBounds returns the inclusive decimal bounds of a fixed-width
// integer type. Computed with big.Int because u64's maximum does not
// fit an int64 literal.
func intBounds(t *ir.TInt) (lo, hi string) {
	one := big.NewInt(1)
	if t.Signed {
		// -2^(w-1) .. 2^(w-1)-1
		half := new(big.Int).Lsh(one, uint(t.Width-1))
		lo = new(big.Int).Neg(half).String()
		hi = new(big.Int).Sub(half, one).String()
		return lo, hi
	}
	// 0 .. 2^w - 1
	max := new(big.Int).Lsh(one, uint(t.Width))
	return "0", new(big.Int).Sub(max, one).String()
}

// freshNamer returns a per-item temporary name generator. Elaboration
// temporaries use the "%" prefix like the simplifier's, so they can
// never collide with frontend identifiers.
func freshNamer() func(string) string {
	n := 0
	return func(stem string) string {
		n++
		return fmt.Sprintf("%%%s%d", stem, n)
	}
}
