package ir

// Expr is the sealed interface over expression node variants.
// Only the types in this file implement it. Every node exclusively owns
// its children; the only non-owning links are ItemID fields.
type Expr interface {
	exprNode()
}

// LitKind discriminates literal values.
type LitKind string

const (
	LitUnit   LitKind = "unit"
	LitBool   LitKind = "bool"
	LitInt    LitKind = "int"
	LitBigInt LitKind = "bigint" // unbounded integer, decimal text
	LitFloat  LitKind = "float"  // decimal text, never a Go float
	LitString LitKind = "string"
)

// Lit is a literal. Int carries LitInt values; Text carries the decimal
// rendering for LitBigInt/LitFloat and the payload for LitString. Floats
// are kept as text end to end so hashing stays deterministic.
type Lit struct {
	Kind LitKind `json:"kind"`
	Bool bool    `json:"bool,omitempty"`
	Int  int64   `json:"int,omitempty"`
	Text string  `json:"text,omitempty"`
}

func (*Lit) exprNode() {}

// Var is a variable reference: a local binding when Item is NoItem,
// otherwise a non-owning lookup of a top-level Item. TypeArgs carries
// explicit generic arguments at the use site.
type Var struct {
	Name     string `json:"name"`
	Item     ItemID `json:"item,omitempty"`
	TypeArgs []Type `json:"type_args,omitempty"`
}

func (*Var) exprNode() {}

// App is function application.
type App struct {
	Fn   Expr   `json:"fn"`
	Args []Expr `json:"args"`
}

func (*App) exprNode() {}

// MethodCall is a trait-method call site. Before resolution Target is
// NoItem; the resolver either fills Target with the concrete function
// Item or sets Dict to the generic parameter whose dictionary threads
// the method at monomorphization time.
type MethodCall struct {
	Trait    NamePath `json:"trait"`
	Method   string   `json:"method"`
	RecvType Type     `json:"recv_type"`
	Recv     Expr     `json:"recv"`
	Args     []Expr   `json:"args"`
	TypeArgs []Type   `json:"type_args,omitempty"`

	Target ItemID `json:"target,omitempty"`
	Dict   string `json:"dict,omitempty"`
}

func (*MethodCall) exprNode() {}

// Lambda is an anonymous function value.
type Lambda struct {
	Params []Param `json:"params"`
	Body   Expr    `json:"body"`
}

func (*Lambda) exprNode() {}

// Let binds Value to Name inside Body. A Name of "_" sequences two
// expressions for effect.
type Let struct {
	Name  string `json:"name"`
	Value Expr   `json:"value"`
	Body  Expr   `json:"body"`
}

func (*Let) exprNode() {}

// MatchArm is one arm of a Match.
type MatchArm struct {
	Pat   Pattern `json:"pat"`
	Guard Expr    `json:"guard,omitempty"` // nil when unguarded
	Body  Expr    `json:"body"`
}

// Match is surface pattern matching. The simplifier rewrites it into
// right-nested If with Let-bound extractions; it never reaches a backend.
type Match struct {
	Scrutinee Expr       `json:"scrutinee"`
	Arms      []MatchArm `json:"arms"`
}

func (*Match) exprNode() {}

// If is conditional evaluation.
type If struct {
	Cond Expr `json:"cond"`
	Then Expr `json:"then"`
	Else Expr `json:"else"`
}

func (*If) exprNode() {}

// FieldInit is a named field in a Construct.
type FieldInit struct {
	Name  string `json:"name"`
	Value Expr   `json:"value"`
}

// Construct builds a value of a named type. Case selects the variant for
// sum types and is empty for plain records.
type Construct struct {
	Type   Type        `json:"type"`
	Case   string      `json:"case,omitempty"`
	Fields []FieldInit `json:"fields,omitempty"`
}

func (*Construct) exprNode() {}

// FieldAccess projects a named field.
type FieldAccess struct {
	Recv  Expr   `json:"recv"`
	Field string `json:"field"`
}

func (*FieldAccess) exprNode() {}

// Index is array/slice indexing.
type Index struct {
	Recv  Expr `json:"recv"`
	Index Expr `json:"index"`
}

func (*Index) exprNode() {}

// CastKind discriminates numeric cast elaborations.
type CastKind string

const (
	// CastPlain is an unelaborated surface cast, as imported.
	CastPlain CastKind = "plain"
	// CastLift widens a fixed-width integer into the unbounded integers.
	// Always representable, carries no obligation.
	CastLift CastKind = "lift"
	// CastConcretize narrows an unbounded integer into a fixed width and
	// carries a representability obligation in Check.
	CastConcretize CastKind = "concretize"
)

// Cast converts Value from type From to type To. The elaborator rewrites
// plain casts between fixed-width and unbounded integers into Lift or
// Concretize; a Concretize's Check predicate is the representability
// obligation, never silently discharged.
type Cast struct {
	Value Expr     `json:"value"`
	From  Type     `json:"from"`
	To    Type     `json:"to"`
	Kind  CastKind `json:"cast_kind"`
	Check Expr     `json:"check,omitempty"`
}

func (*Cast) exprNode() {}

// Ascribe annotates Value with a type without conversion.
type Ascribe struct {
	Value Expr `json:"value"`
	To    Type `json:"to"`
}

func (*Ascribe) exprNode() {}

// Loop is an unconditional loop exited by Break. Spec is populated by the
// specification extractor from invariant/decreases markers in the body.
type Loop struct {
	Label string    `json:"label,omitempty"`
	Body  Expr      `json:"body"`
	Spec  *LoopSpec `json:"spec,omitempty"`
}

func (*Loop) exprNode() {}

// Break exits the innermost loop, or the labelled one.
type Break struct {
	Label string `json:"label,omitempty"`
}

func (*Break) exprNode() {}

// Continue restarts the innermost loop, or the labelled one.
type Continue struct {
	Label string `json:"label,omitempty"`
}

func (*Continue) exprNode() {}

// Return exits the enclosing function with Value (nil for unit).
type Return struct {
	Value Expr `json:"value,omitempty"`
}

func (*Return) exprNode() {}

// ObligationKind discriminates in-tree proof nodes left behind by the
// specification extractor.
type ObligationKind string

const (
	// ObAssert is a position-sensitive proof obligation.
	ObAssert ObligationKind = "assert"
	// ObAssume is a position-sensitive axiom.
	ObAssume ObligationKind = "assume"
	// ObAssertProp is an obligation whose predicate is a Proposition
	// (may contain quantifiers, has no runtime evaluation).
	ObAssertProp ObligationKind = "assert_prop"
)

// Obligation is a proof obligation or axiom embedded in an executable
// body. Unlike markers these survive extraction; their position matters.
type Obligation struct {
	Kind ObligationKind `json:"kind"`
	Pred Expr           `json:"pred"`
}

func (*Obligation) exprNode() {}

// MarkerKind is the closed set of specification marker shapes. Markers
// are first-class tagged nodes recognized structurally, never runtime
// calls intercepted by name.
type MarkerKind string

const (
	MarkRequires      MarkerKind = "requires"
	MarkEnsures       MarkerKind = "ensures"
	MarkInvariant     MarkerKind = "invariant"
	MarkDecreases     MarkerKind = "decreases"
	MarkLoopDecreases MarkerKind = "loop_decreases"
	MarkRefinement    MarkerKind = "refine_invariant"
	MarkAssert        MarkerKind = "assert"
	MarkAssume        MarkerKind = "assume"
	MarkAssertProp    MarkerKind = "assert_prop"
	MarkOpaque        MarkerKind = "opaque"
	MarkLemma         MarkerKind = "lemma"
	MarkInclude       MarkerKind = "include"
	MarkExclude       MarkerKind = "exclude"
)

// ValidMarkerKinds defines the recognized marker shapes. Unrecognized
// shapes are reportable import errors, not silent no-ops.
var ValidMarkerKinds = map[MarkerKind]bool{
	MarkRequires:      true,
	MarkEnsures:       true,
	MarkInvariant:     true,
	MarkDecreases:     true,
	MarkLoopDecreases: true,
	MarkRefinement:    true,
	MarkAssert:        true,
	MarkAssume:        true,
	MarkAssertProp:    true,
	MarkOpaque:        true,
	MarkLemma:         true,
	MarkInclude:       true,
	MarkExclude:       true,
}

// Marker carries specification data through the front half of the
// pipeline. The extractor lifts item/loop-level markers into Contract,
// LoopSpec and RefinementSpec fields and deletes the nodes; no marker
// survives into a backend.
type Marker struct {
	Kind MarkerKind `json:"kind"`
	Args []Expr     `json:"args,omitempty"`
	Span Span       `json:"span,omitempty"`
}

func (*Marker) exprNode() {}

// QuantKind discriminates quantifier propositions.
type QuantKind string

const (
	QuantForall QuantKind = "forall"
	QuantExists QuantKind = "exists"
)

// Quant is a quantified proposition. Quantifiers are proposition-only:
// they never appear in executable positions.
type Quant struct {
	Kind    QuantKind `json:"kind"`
	Binders []Param   `json:"binders"`
	Body    Expr      `json:"body"`
}

func (*Quant) exprNode() {}

// Implies is logical implication, proposition-only like Quant.
type Implies struct {
	Lhs Expr `json:"lhs"`
	Rhs Expr `json:"rhs"`
}

func (*Implies) exprNode() {}

// ForRange is surface bounded iteration over [From, To). The simplifier
// rewrites it into an index-counted Loop with an explicit bound check.
type ForRange struct {
	Var  string    `json:"var"`
	From Expr      `json:"from"`
	To   Expr      `json:"to"`
	Body Expr      `json:"body"`
	Spec *LoopSpec `json:"spec,omitempty"`
}

func (*ForRange) exprNode() {}

// While is surface conditional iteration, rewritten to Loop+Break.
type While struct {
	Cond Expr      `json:"cond"`
	Body Expr      `json:"body"`
	Spec *LoopSpec `json:"spec,omitempty"`
}

func (*While) exprNode() {}

// ChainLink is one link of a MethodChain.
type ChainLink struct {
	Name string `json:"name"`
	Args []Expr `json:"args"`
}

// MethodChain is a surface fluent call chain (a.b(x).c(y)), rewritten to
// nested Application/FieldAccess by the simplifier.
type MethodChain struct {
	Recv  Expr        `json:"recv"`
	Links []ChainLink `json:"links"`
}

func (*MethodChain) exprNode() {}

// Unsupported is a surface form the exchange schema names but the engine
// cannot lower. The importer accepts it structurally; the simplifier
// fails the enclosing item with UnsupportedConstruct naming Construct.
type Unsupported struct {
	Construct string `json:"construct"`
	Span      Span   `json:"span,omitempty"`
}

func (*Unsupported) exprNode() {}

// Unit returns the unit literal.
func Unit() *Lit { return &Lit{Kind: LitUnit} }

// BoolLit returns a boolean literal.
func BoolLit(b bool) *Lit { return &Lit{Kind: LitBool, Bool: b} }

// IntLit returns a 64-bit integer literal.
func IntLit(n int64) *Lit { return &Lit{Kind: LitInt, Int: n} }

// BigIntLit returns an unbounded integer literal from decimal text.
func BigIntLit(text string) *Lit { return &Lit{Kind: LitBigInt, Text: text} }

// Builtin returns a Var naming an engine builtin operator ("&&", "<=",
// "+", ...). Builtins have no Item; backends map them to their own
// primitives.
func Builtin(op string) *Var { return &Var{Name: op} }

// App2 applies a builtin binary operator.
func App2(op string, lhs, rhs Expr) *App {
	return &App{Fn: Builtin(op), Args: []Expr{lhs, rhs}}
}
