package ir

import "strings"

// ItemID is an arena handle for a top-level Item.
// The zero value is NoItem and never refers to a live Item.
type ItemID uint32

// NoItem is the null Item handle.
const NoItem ItemID = 0

// ItemKind discriminates top-level declarations.
type ItemKind string

const (
	KindFunction ItemKind = "function"
	KindType     ItemKind = "type"
	KindTrait    ItemKind = "trait"
	KindImpl     ItemKind = "impl"
	KindConst    ItemKind = "const"
)

// ValidItemKinds defines the allowed item kinds.
var ValidItemKinds = map[ItemKind]bool{
	KindFunction: true,
	KindType:     true,
	KindTrait:    true,
	KindImpl:     true,
	KindConst:    true,
}

// Visibility is the per-item trust/emission mode. Exactly one mode per
// item; conflicting markers are a SpecificationError, not a merge.
type Visibility string

const (
	VisNormal   Visibility = "normal"
	VisOpaque   Visibility = "opaque"   // body hidden from backends, contract trusted
	VisLemma    Visibility = "lemma"    // proof-only item, no runtime meaning
	VisExcluded Visibility = "excluded" // dropped from output, must be unreferenced
	VisIncluded Visibility = "included" // force-included regardless of glob filters
)

// NamePath is a fully qualified item name, outermost segment first.
type NamePath []string

// String renders the path with "::" separators.
func (p NamePath) String() string {
	return strings.Join(p, "::")
}

// Leaf returns the final path segment, or "" for an empty path.
func (p NamePath) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// WithSuffix returns a copy of the path whose leaf has suffix appended,
// used for monomorphized specializations (e.g. "id" -> "id_u32").
func (p NamePath) WithSuffix(suffix string) NamePath {
	out := make(NamePath, len(p))
	copy(out, p)
	if len(out) == 0 {
		return NamePath{suffix}
	}
	out[len(out)-1] = out[len(out)-1] + "_" + suffix
	return out
}

// Span is a source location carried through for diagnostics.
// A zero Span means "no source information".
type Span struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// IsValid reports whether the span carries real source information.
func (s Span) IsValid() bool {
	return s.File != "" && s.Line > 0
}

// GenericParam is a declared type parameter on an Item.
type GenericParam struct {
	Name string `json:"name"`
}

// Param is a named value parameter of a function or lambda.
type Param struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// MethodSig is a method declared by a Trait item.
type MethodSig struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
	Result Type    `json:"result"`
}

// Item is a top-level declaration. Items are created by the importer,
// mutated in place by every phase, and immutable once dispatched.
type Item struct {
	ID       ItemID         `json:"id"`
	Kind     ItemKind       `json:"kind"`
	Path     NamePath       `json:"path"`
	Generics []GenericParam `json:"generics,omitempty"`
	Span     Span           `json:"span,omitempty"`

	// Refs is the recorded reference set. It must match the identifiers
	// actually reachable from the item's payload; RecomputeRefs restores
	// the invariant after tree mutation.
	Refs []ItemID `json:"refs,omitempty"`

	// Function payload.
	Params     []Param    `json:"params,omitempty"`
	Result     Type       `json:"result,omitempty"`
	Body       Expr       `json:"-"`
	Contract   *Contract  `json:"contract,omitempty"`
	Visibility Visibility `json:"visibility,omitempty"`

	// Type payload.
	Underlying Type            `json:"underlying,omitempty"`
	Refinement *RefinementSpec `json:"refinement,omitempty"`

	// Trait payload.
	Methods []MethodSig `json:"methods,omitempty"`

	// Impl payload: the implemented trait, the receiver type pattern
	// (may contain TypeVars bound by the impl's generics), and the
	// function Items providing each method.
	TraitRef NamePath          `json:"trait_ref,omitempty"`
	RecvType Type              `json:"recv_type,omitempty"`
	Provides map[string]ItemID `json:"provides,omitempty"`

	// Const payload.
	ConstValue Expr `json:"-"`

	// Monomorphization bookkeeping: for specialized items, the generic
	// template and the ground argument tuple it was instantiated with.
	Template ItemID `json:"template,omitempty"`
	TypeArgs []Type `json:"type_args,omitempty"`
}

// IsGeneric reports whether the item is a generic template.
func (it *Item) IsGeneric() bool {
	return len(it.Generics) > 0
}

// Arena owns every Item for the duration of a run. Handles are stable;
// nothing is reclaimed before process end.
type Arena struct {
	items []*Item // index = ItemID-1
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// New allocates a fresh Item with the given kind and path and returns it.
// The returned Item has its ID already assigned.
func (a *Arena) New(kind ItemKind, path NamePath) *Item {
	it := &Item{
		ID:         ItemID(len(a.items) + 1),
		Kind:       kind,
		Path:       path,
		Visibility: VisNormal,
	}
	a.items = append(a.items, it)
	return it
}

// Get returns the Item for a handle. Panics on NoItem or an out-of-range
// handle: dereferencing a dead handle is an internal invariant violation,
// never a recoverable input error.
func (a *Arena) Get(id ItemID) *Item {
	if id == NoItem || int(id) > len(a.items) {
		panic("ir: dereference of invalid ItemID")
	}
	return a.items[id-1]
}

// Contains reports whether the handle refers to a live Item.
func (a *Arena) Contains(id ItemID) bool {
	return id != NoItem && int(id) <= len(a.items)
}

// Len returns the number of Items allocated.
func (a *Arena) Len() int {
	return len(a.items)
}

// Items iterates all Items in allocation (ID) order. Iteration order is
// deterministic, which every order-sensitive phase relies on.
func (a *Arena) Items() []*Item {
	return a.items
}

// Lookup finds an Item by fully qualified path. Linear scan; the arena is
// small relative to the work each phase does per item.
func (a *Arena) Lookup(path NamePath) (*Item, bool) {
	want := path.String()
	for _, it := range a.items {
		if it.Path.String() == want {
			return it, true
		}
	}
	return nil, false
}
