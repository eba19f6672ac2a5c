// Package mono elaborates the resolved, desugared, spec-extracted item
// graph into a fully monomorphic one.
//
// Two jobs happen here. Generic templates are specialized per ground
// type-argument tuple (one specialization per distinct tuple, shared by
// every caller), and plain numeric casts are elaborated into explicit
// Lift/Concretize nodes carrying their representability obligations.
// Deferred dictionary-threaded trait calls resolve during
// specialization, once their receiver types are ground.
//
// Instantiation chains are depth-limited. A chain that exceeds the
// limit is MonomorphizationOverflow: the requesting root item is
// dropped together with the specializations created on its behalf, and
// items depending on the root fail with it. Templates themselves never
// appear in the output; unreferenced ones are simply skipped by the
// dependency orderer.
package mono

import (
	"errors"
	"fmt"

	"github.com/veil-verify/veil/internal/ir"
	"github.com/veil-verify/veil/internal/resolve"
)

// KindOverflow identifies instantiation-depth failures.
const KindOverflow = "MonomorphizationOverflow"

// maxInstantiationDepth bounds the instantiation chain started from any
// single root item. Deep chains are almost always runaway recursive
// generics (Wrap<Wrap<Wrap<...>>>), not real programs.
const maxInstantiationDepth = 64

// MonoError is a per-item recoverable monomorphization failure.
type MonoError struct {
	Kind   string
	Item   ir.ItemID
	Path   ir.NamePath
	Detail string
}

// Error implements the error interface.
func (e *MonoError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Detail)
}

// IsOverflow reports whether err is a MonomorphizationOverflow failure.
func IsOverflow(err error) bool {
	var me *MonoError
	return errors.As(err, &me) && me.Kind == KindOverflow
}

type monomorphizer struct {
	arena  *ir.Arena
	reg    *resolve.Registry
	failed map[ir.ItemID]bool

	// insts maps (template, argument tuple) to the shared specialization.
	insts map[string]ir.ItemID
	// created tracks the specializations each root is responsible for,
	// so an overflow can drop all of them together.
	created map[ir.ItemID][]ir.ItemID
	// overflowed marks roots already reported, so one runaway root
	// produces one error.
	overflowed map[ir.ItemID]bool

	errs []error
}

// Run elaborates every live item. The registry must be the one built
// during resolution so deferred dictionary calls see the same impls.
// Returned errors are *MonoError and *resolve.ResolutionError values.
func Run(arena *ir.Arena, reg *resolve.Registry, failed map[ir.ItemID]bool) []error {
	m := &monomorphizer{
		arena:      arena,
		reg:        reg,
		failed:     failed,
		insts:      make(map[string]ir.ItemID),
		created:    make(map[ir.ItemID][]ir.ItemID),
		overflowed: make(map[ir.ItemID]bool),
	}

	// Snapshot: instantiation appends to the arena, and specializations
	// are fully processed inside instantiate.
	roots := make([]*ir.Item, 0, arena.Len())
	for _, it := range arena.Items() {
		if !failed[it.ID] && !it.IsGeneric() {
			roots = append(roots, it)
		}
	}

	for _, it := range roots {
		if m.failed[it.ID] {
			continue
		}
		m.processItem(it, it.ID, 0)
	}

	m.failDependents()
	return m.errs
}

// processItem elaborates one concrete item in place: numeric casts,
// deferred dictionary calls, and ground generic references. root and
// depth track the instantiation chain this work belongs to.
func (m *monomorphizer) processItem(it *ir.Item, root ir.ItemID, depth int) {
	fresh := freshNamer()
	m.rewriteItemExprs(it, func(e ir.Expr) ir.Expr {
		e = elaborateCasts(e, fresh)
		if m.failed[it.ID] {
			return e
		}
		e = m.resolveDeferred(e, it)
		if m.failed[it.ID] {
			return e
		}
		return m.specializeUses(e, it, root, depth)
	})
	if !m.failed[it.ID] {
		ir.RecomputeRefs(it)
	}
}

// rewriteItemExprs applies f to every expression slot an item carries:
// body, const value, contract clauses, refinement predicate, and the
// loop specs nested inside the body (Rewrite does not descend into
// those).
func (m *monomorphizer) rewriteItemExprs(it *ir.Item, f func(ir.Expr) ir.Expr) {
	if it.Body != nil {
		it.Body = f(it.Body)
		ir.Walk(it.Body, func(e ir.Expr) bool {
			loop, ok := e.(*ir.Loop)
			if !ok || loop.Spec == nil {
				return true
			}
			for i, inv := range loop.Spec.Invariants {
				loop.Spec.Invariants[i] = f(inv)
			}
			if loop.Spec.Decreases != nil {
				loop.Spec.Decreases = f(loop.Spec.Decreases)
			}
			return true
		})
	}
	if it.ConstValue != nil {
		it.ConstValue = f(it.ConstValue)
	}
	if c := it.Contract; c != nil {
		for i, pre := range c.Preconditions {
			c.Preconditions[i] = f(pre)
		}
		for i := range c.Postconditions {
			c.Postconditions[i].Pred = f(c.Postconditions[i].Pred)
		}
		if c.Decreases != nil {
			c.Decreases = f(c.Decreases)
		}
	}
	if r := it.Refinement; r != nil && r.Pred != nil {
		r.Pred = f(r.Pred)
	}
}

// resolveDeferred resolves dictionary-threaded trait calls whose
// receiver type became ground through substitution. A receiver that is
// still a type variable inside a concrete item means resolution missed
// it, which resolution by construction cannot do.
func (m *monomorphizer) resolveDeferred(e ir.Expr, it *ir.Item) ir.Expr {
	return ir.Rewrite(e, func(n ir.Expr) ir.Expr {
		call, ok := n.(*ir.MethodCall)
		if !ok || call.Dict == "" || call.Target != ir.NoItem || m.failed[it.ID] {
			return n
		}
		if !ir.IsGround(call.RecvType) {
			panic(fmt.Sprintf("mono: non-ground receiver %s survived substitution in %s",
				ir.TypeKey(call.RecvType), it.Path))
		}
		target, dict, err := m.reg.ResolveCall(call, it.ID, it.Path, false)
		if err != nil {
			m.errs = append(m.errs, err)
			m.failed[it.ID] = true
			return n
		}
		if dict != "" || target == ir.NoItem {
			panic(fmt.Sprintf("mono: ground receiver deferred again in %s", it.Path))
		}
		call.Target = target
		call.Dict = ""
		return n
	})
}

// specializeUses redirects every ground reference to a generic template
// at the template's specialization, instantiating on first use.
func (m *monomorphizer) specializeUses(e ir.Expr, it *ir.Item, root ir.ItemID, depth int) ir.Expr {
	return ir.Rewrite(e, func(n ir.Expr) ir.Expr {
		if m.failed[it.ID] {
			return n
		}
		switch x := n.(type) {
		case *ir.Var:
			spec := m.maybeInstantiate(x.Item, x.TypeArgs, root, depth)
			if m.failed[it.ID] || spec == ir.NoItem {
				return n
			}
			return &ir.Var{Name: m.arena.Get(spec).Path.Leaf(), Item: spec}
		case *ir.MethodCall:
			spec := m.maybeInstantiate(x.Target, x.TypeArgs, root, depth)
			if m.failed[it.ID] || spec == ir.NoItem {
				return n
			}
			x.Target = spec
			x.TypeArgs = nil
			return x
		default:
			return n
		}
	})
}

// maybeInstantiate returns the specialization for a generic reference,
// or NoItem when the reference needs no redirection (non-generic
// target, or type arguments not yet ground). On overflow the chain's
// root is failed and NoItem returned.
func (m *monomorphizer) maybeInstantiate(target ir.ItemID, args []ir.Type, root ir.ItemID, depth int) ir.ItemID {
	if target == ir.NoItem || len(args) == 0 {
		return ir.NoItem
	}
	tmpl := m.arena.Get(target)
	if !tmpl.IsGeneric() {
		return ir.NoItem
	}
	for _, a := range args {
		if !ir.IsGround(a) {
			return ir.NoItem
		}
	}
	return m.instantiate(tmpl, args, root, depth+1)
}

// instantiate returns the shared specialization of template for a
// ground argument tuple, creating and fully processing it on first
// request.
func (m *monomorphizer) instantiate(tmpl *ir.Item, args []ir.Type, root ir.ItemID, depth int) ir.ItemID {
	if len(args) != len(tmpl.Generics) {
		panic(fmt.Sprintf("mono: %s expects %d type arguments, got %d",
			tmpl.Path, len(tmpl.Generics), len(args)))
	}

	key := fmt.Sprintf("%d<%s>", tmpl.ID, ir.SuffixKey(args))
	if id, ok := m.insts[key]; ok {
		return id
	}

	if depth > maxInstantiationDepth {
		m.overflow(root)
		return ir.NoItem
	}

	subst := make(map[string]ir.Type, len(args))
	for i, g := range tmpl.Generics {
		subst[g.Name] = args[i]
	}

	sp := m.arena.New(tmpl.Kind, tmpl.Path.WithSuffix(ir.SuffixKey(args)))
	sp.Span = tmpl.Span
	sp.Visibility = tmpl.Visibility
	sp.Template = tmpl.ID
	sp.TypeArgs = args
	sp.Result = substType(tmpl.Result, subst)
	sp.Underlying = substType(tmpl.Underlying, subst)
	if len(tmpl.Params) > 0 {
		sp.Params = make([]ir.Param, len(tmpl.Params))
		for i, p := range tmpl.Params {
			sp.Params[i] = ir.Param{Name: p.Name, Type: substType(p.Type, subst)}
		}
	}
	if tmpl.Body != nil {
		sp.Body = substExpr(ir.CloneExpr(tmpl.Body), subst)
		substLoopSpecs(sp.Body, subst)
	}
	if tmpl.ConstValue != nil {
		sp.ConstValue = substExpr(ir.CloneExpr(tmpl.ConstValue), subst)
	}
	sp.Contract = cloneContract(tmpl.Contract, subst)
	sp.Refinement = cloneRefinement(tmpl.Refinement, subst)

	m.insts[key] = sp.ID
	m.created[root] = append(m.created[root], sp.ID)

	// Specialization bodies may reference further templates with now
	// ground arguments; process in the same chain.
	m.processItem(sp, root, depth)
	return sp.ID
}

// overflow drops an instantiation root: the root fails along with every
// specialization created on its behalf.
func (m *monomorphizer) overflow(root ir.ItemID) {
	if m.overflowed[root] {
		return
	}
	m.overflowed[root] = true
	rootItem := m.arena.Get(root)
	m.errs = append(m.errs, &MonoError{
		Kind:   KindOverflow,
		Item:   root,
		Path:   rootItem.Path,
		Detail: fmt.Sprintf("instantiation chain exceeds depth %d", maxInstantiationDepth),
	})
	m.failed[root] = true
	for _, id := range m.created[root] {
		m.failed[id] = true
	}
}

// failDependents propagates overflow failures to items that reference a
// dropped root. Transitive: a dependent of a dependent fails too.
func (m *monomorphizer) failDependents() {
	if len(m.overflowed) == 0 {
		return
	}
	dropped := make(map[ir.ItemID]ir.NamePath)
	for root := range m.overflowed {
		dropped[root] = m.arena.Get(root).Path
	}
	for changed := true; changed; {
		changed = false
		for _, it := range m.arena.Items() {
			if m.failed[it.ID] {
				continue
			}
			for _, ref := range it.Refs {
				cause, isDropped := dropped[ref]
				if !isDropped {
					continue
				}
				m.failed[it.ID] = true
				dropped[it.ID] = it.Path
				m.errs = append(m.errs, &MonoError{
					Kind:   KindOverflow,
					Item:   it.ID,
					Path:   it.Path,
					Detail: fmt.Sprintf("depends on dropped item %s", cause),
				})
				changed = true
				break
			}
		}
	}
}

// substLoopSpecs applies a substitution to the loop specs Rewrite skips.
func substLoopSpecs(body ir.Expr, subst map[string]ir.Type) {
	ir.Walk(body, func(e ir.Expr) bool {
		loop, ok := e.(*ir.Loop)
		if !ok || loop.Spec == nil {
			return true
		}
		for i, inv := range loop.Spec.Invariants {
			loop.Spec.Invariants[i] = substExpr(inv, subst)
		}
		if loop.Spec.Decreases != nil {
			loop.Spec.Decreases = substExpr(loop.Spec.Decreases, subst)
		}
		return true
	})
}

func cloneContract(c *ir.Contract, subst map[string]ir.Type) *ir.Contract {
	if c == nil {
		return nil
	}
	out := &ir.Contract{}
	for _, pre := range c.Preconditions {
		out.Preconditions = append(out.Preconditions, substExpr(ir.CloneExpr(pre), subst))
	}
	for _, post := range c.Postconditions {
		out.Postconditions = append(out.Postconditions, ir.Postcondition{
			Result: post.Result,
			Pred:   substExpr(ir.CloneExpr(post.Pred), subst),
		})
	}
	if c.Decreases != nil {
		out.Decreases = substExpr(ir.CloneExpr(c.Decreases), subst)
	}
	return out
}

func cloneRefinement(r *ir.RefinementSpec, subst map[string]ir.Type) *ir.RefinementSpec {
	if r == nil {
		return nil
	}
	return &ir.RefinementSpec{
		Base:   substType(r.Base, subst),
		Binder: r.Binder,
		Pred:   substExpr(ir.CloneExpr(r.Pred), subst),
	}
}
