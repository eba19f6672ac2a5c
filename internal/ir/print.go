package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeKey renders a type as a compact, deterministic key. Keys are used
// for structural equality, monomorphization dedup, and specialization
// name suffixes; two types are equal iff their keys are equal.
func TypeKey(t Type) string {
	switch tt := t.(type) {
	case nil:
		return "_"
	case *TBool:
		return "bool"
	case *TInt:
		if tt.Signed {
			return "i" + strconv.Itoa(int(tt.Width))
		}
		return "u" + strconv.Itoa(int(tt.Width))
	case *TFloat:
		return "f" + strconv.Itoa(int(tt.Width))
	case *TBigInt:
		return "int"
	case *TUnit:
		return "unit"
	case *TTuple:
		return "(" + joinTypeKeys(tt.Elems, ",") + ")"
	case *TArray:
		return "[" + TypeKey(tt.Elem) + ";" + strconv.FormatInt(tt.Size, 10) + "]"
	case *TSlice:
		return "[" + TypeKey(tt.Elem) + "]"
	case *TRef:
		if tt.Mut {
			return "&mut " + TypeKey(tt.Elem)
		}
		return "&" + TypeKey(tt.Elem)
	case *TFunc:
		return "fn(" + joinTypeKeys(tt.Params, ",") + ")->" + TypeKey(tt.Result)
	case *TNamed:
		key := tt.Path.String()
		if len(tt.Args) > 0 {
			key += "<" + joinTypeKeys(tt.Args, ",") + ">"
		}
		return key
	case *TVar:
		return "?" + tt.Name
	default:
		return fmt.Sprintf("!%T", t)
	}
}

func joinTypeKeys(ts []Type, sep string) string {
	keys := make([]string, len(ts))
	for i, t := range ts {
		keys[i] = TypeKey(t)
	}
	return strings.Join(keys, sep)
}

// SuffixKey renders a type tuple as a path-safe specialization suffix:
// "::"-free, lowercase path leaves, "_"-joined (u32, bool, pair_u8_u8).
func SuffixKey(args []Type) string {
	parts := make([]string, len(args))
	for i, a := range args {
		key := TypeKey(a)
		r := strings.NewReplacer(
			"::", "_", "<", "_", ">", "", ",", "_",
			"(", "", ")", "", "[", "", "]", "",
			";", "_", "&", "ref_", " ", "_", "?", "",
		)
		parts[i] = r.Replace(key)
	}
	return strings.Join(parts, "_")
}

// ExprKey renders an expression as a compact, deterministic S-expression
// key. It is total over the node set and stable across runs; content
// hashing and golden tests build on it.
func ExprKey(e Expr) string {
	var b strings.Builder
	writeExprKey(&b, e)
	return b.String()
}

func writeExprKey(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		b.WriteString("_")
	case *Lit:
		switch n.Kind {
		case LitUnit:
			b.WriteString("()")
		case LitBool:
			b.WriteString(strconv.FormatBool(n.Bool))
		case LitInt:
			b.WriteString(strconv.FormatInt(n.Int, 10))
		case LitBigInt, LitFloat:
			b.WriteString(n.Text)
		case LitString:
			b.WriteString(strconv.Quote(n.Text))
		}
	case *Var:
		b.WriteString(n.Name)
		if n.Item != NoItem {
			fmt.Fprintf(b, "#%d", n.Item)
		}
		if len(n.TypeArgs) > 0 {
			b.WriteString("<" + joinTypeKeys(n.TypeArgs, ",") + ">")
		}
	case *App:
		b.WriteString("(app ")
		writeExprKey(b, n.Fn)
		for _, a := range n.Args {
			b.WriteByte(' ')
			writeExprKey(b, a)
		}
		b.WriteByte(')')
	case *MethodCall:
		fmt.Fprintf(b, "(method %s.%s:%s", n.Trait, n.Method, TypeKey(n.RecvType))
		if n.Target != NoItem {
			fmt.Fprintf(b, "=>#%d", n.Target)
		}
		if n.Dict != "" {
			fmt.Fprintf(b, "@%s", n.Dict)
		}
		b.WriteByte(' ')
		writeExprKey(b, n.Recv)
		for _, a := range n.Args {
			b.WriteByte(' ')
			writeExprKey(b, a)
		}
		b.WriteByte(')')
	case *Lambda:
		b.WriteString("(fn (")
		for i, p := range n.Params {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(p.Name + ":" + TypeKey(p.Type))
		}
		b.WriteString(") ")
		writeExprKey(b, n.Body)
		b.WriteByte(')')
	case *Let:
		b.WriteString("(let " + n.Name + " ")
		writeExprKey(b, n.Value)
		b.WriteByte(' ')
		writeExprKey(b, n.Body)
		b.WriteByte(')')
	case *Match:
		b.WriteString("(match ")
		writeExprKey(b, n.Scrutinee)
		for _, arm := range n.Arms {
			b.WriteString(" [" + PatternKey(arm.Pat))
			if arm.Guard != nil {
				b.WriteString(" if ")
				writeExprKey(b, arm.Guard)
			}
			b.WriteString(" => ")
			writeExprKey(b, arm.Body)
			b.WriteByte(']')
		}
		b.WriteByte(')')
	case *If:
		b.WriteString("(if ")
		writeExprKey(b, n.Cond)
		b.WriteByte(' ')
		writeExprKey(b, n.Then)
		b.WriteByte(' ')
		writeExprKey(b, n.Else)
		b.WriteByte(')')
	case *Construct:
		b.WriteString("(new " + TypeKey(n.Type))
		if n.Case != "" {
			b.WriteString("::" + n.Case)
		}
		for _, f := range n.Fields {
			b.WriteString(" " + f.Name + "=")
			writeExprKey(b, f.Value)
		}
		b.WriteByte(')')
	case *FieldAccess:
		b.WriteString("(field ")
		writeExprKey(b, n.Recv)
		b.WriteString(" " + n.Field + ")")
	case *Index:
		b.WriteString("(index ")
		writeExprKey(b, n.Recv)
		b.WriteByte(' ')
		writeExprKey(b, n.Index)
		b.WriteByte(')')
	case *Cast:
		fmt.Fprintf(b, "(%s ", n.Kind)
		writeExprKey(b, n.Value)
		b.WriteString(" " + TypeKey(n.From) + "->" + TypeKey(n.To))
		if n.Check != nil {
			b.WriteString(" check=")
			writeExprKey(b, n.Check)
		}
		b.WriteByte(')')
	case *Ascribe:
		b.WriteString("(ascribe ")
		writeExprKey(b, n.Value)
		b.WriteString(" " + TypeKey(n.To) + ")")
	case *Loop:
		b.WriteString("(loop")
		if n.Label != "" {
			b.WriteString(" '" + n.Label)
		}
		if !n.Spec.IsEmpty() {
			b.WriteString(" spec[")
			for _, inv := range n.Spec.Invariants {
				b.WriteString("(inv ")
				writeExprKey(b, inv)
				b.WriteByte(')')
			}
			if n.Spec.Decreases != nil {
				b.WriteString("(dec ")
				writeExprKey(b, n.Spec.Decreases)
				b.WriteByte(')')
			}
			b.WriteByte(']')
		}
		b.WriteByte(' ')
		writeExprKey(b, n.Body)
		b.WriteByte(')')
	case *Break:
		b.WriteString("(break")
		if n.Label != "" {
			b.WriteString(" '" + n.Label)
		}
		b.WriteByte(')')
	case *Continue:
		b.WriteString("(continue")
		if n.Label != "" {
			b.WriteString(" '" + n.Label)
		}
		b.WriteByte(')')
	case *Return:
		b.WriteString("(return ")
		writeExprKey(b, n.Value)
		b.WriteByte(')')
	case *Obligation:
		fmt.Fprintf(b, "(%s ", n.Kind)
		writeExprKey(b, n.Pred)
		b.WriteByte(')')
	case *Marker:
		fmt.Fprintf(b, "(marker %s", n.Kind)
		for _, a := range n.Args {
			b.WriteByte(' ')
			writeExprKey(b, a)
		}
		b.WriteByte(')')
	case *Quant:
		fmt.Fprintf(b, "(%s (", n.Kind)
		for i, p := range n.Binders {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(p.Name + ":" + TypeKey(p.Type))
		}
		b.WriteString(") ")
		writeExprKey(b, n.Body)
		b.WriteByte(')')
	case *Implies:
		b.WriteString("(==> ")
		writeExprKey(b, n.Lhs)
		b.WriteByte(' ')
		writeExprKey(b, n.Rhs)
		b.WriteByte(')')
	case *ForRange:
		b.WriteString("(for " + n.Var + " ")
		writeExprKey(b, n.From)
		b.WriteString("..")
		writeExprKey(b, n.To)
		b.WriteByte(' ')
		writeExprKey(b, n.Body)
		b.WriteByte(')')
	case *While:
		b.WriteString("(while ")
		writeExprKey(b, n.Cond)
		b.WriteByte(' ')
		writeExprKey(b, n.Body)
		b.WriteByte(')')
	case *MethodChain:
		b.WriteString("(chain ")
		writeExprKey(b, n.Recv)
		for _, l := range n.Links {
			b.WriteString(" ." + l.Name + "(")
			for i, a := range l.Args {
				if i > 0 {
					b.WriteByte(' ')
				}
				writeExprKey(b, a)
			}
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case *Unsupported:
		b.WriteString("(unsupported " + n.Construct + ")")
	default:
		fmt.Fprintf(b, "!%T", e)
	}
}

// PatternKey renders a pattern as a compact, deterministic key.
func PatternKey(p Pattern) string {
	switch pn := p.(type) {
	case nil:
		return "_"
	case *PatVar:
		return pn.Name
	case *PatWildcard:
		return "_"
	case *PatLit:
		return ExprKey(pn.Value)
	case *PatConstruct:
		key := TypeKey(pn.Type)
		if pn.Case != "" {
			key += "::" + pn.Case
		}
		if len(pn.Elems) > 0 {
			elems := make([]string, len(pn.Elems))
			for i, e := range pn.Elems {
				elems[i] = PatternKey(e)
			}
			key += "(" + strings.Join(elems, " ") + ")"
		}
		return key
	case *PatRecord:
		fields := make([]string, len(pn.Fields))
		for i, f := range pn.Fields {
			fields[i] = f.Name + ":" + PatternKey(f.Pat)
		}
		return "{" + strings.Join(fields, " ") + "}"
	case *PatArray:
		elems := make([]string, len(pn.Elems))
		for i, e := range pn.Elems {
			elems[i] = PatternKey(e)
		}
		return "[" + strings.Join(elems, " ") + "]"
	case *PatOr:
		alts := make([]string, len(pn.Alts))
		for i, a := range pn.Alts {
			alts[i] = PatternKey(a)
		}
		return strings.Join(alts, "|")
	case *PatGuarded:
		return PatternKey(pn.Pat) + " if " + ExprKey(pn.Cond)
	default:
		return fmt.Sprintf("!%T", p)
	}
}
