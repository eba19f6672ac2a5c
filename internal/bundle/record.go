package bundle

// Wire record shapes. These are the JSON frames a frontend emits; the
// importer turns them into arena Items. Type references are indices into
// the bundle's type table; item references are the frontend's local ids.

// TypeRecord is one type-table entry.
type TypeRecord struct {
	Kind   string   `json:"kind"` // bool|int|float|bigint|unit|tuple|array|slice|ref|func|named|var
	Width  uint8    `json:"width,omitempty"`
	Signed bool     `json:"signed,omitempty"`
	Elems  []int    `json:"elems,omitempty"`
	Elem   *int     `json:"elem,omitempty"`
	Size   int64    `json:"size,omitempty"`
	Mut    bool     `json:"mut,omitempty"`
	Params []int    `json:"params,omitempty"`
	Result *int     `json:"result,omitempty"`
	Path   []string `json:"path,omitempty"`
	Args   []int    `json:"args,omitempty"`
	Name   string   `json:"name,omitempty"`
}

// SpanRecord is an optional source location.
type SpanRecord struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// ParamRecord is a named, typed parameter.
type ParamRecord struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}

// MethodRecord is a trait method signature.
type MethodRecord struct {
	Name   string        `json:"name"`
	Params []ParamRecord `json:"params,omitempty"`
	Result *int          `json:"result,omitempty"`
}

// ItemRecord is one top-level declaration frame.
type ItemRecord struct {
	LocalID  int64      `json:"id"`
	Kind     string     `json:"kind"`
	Path     []string   `json:"path"`
	Generics []string   `json:"generics,omitempty"`
	Span     SpanRecord `json:"span,omitempty"`

	Params []ParamRecord `json:"params,omitempty"`
	Result *int          `json:"result,omitempty"`
	Body   *ExprRecord   `json:"body,omitempty"`

	Underlying *int `json:"underlying,omitempty"`

	Methods []MethodRecord `json:"methods,omitempty"`

	TraitRef []string         `json:"trait_ref,omitempty"`
	RecvType *int             `json:"recv_type,omitempty"`
	Provides map[string]int64 `json:"provides,omitempty"`

	ConstValue *ExprRecord `json:"const_value,omitempty"`
}

// ArmRecord is one match arm.
type ArmRecord struct {
	Pat   *PatternRecord `json:"pat"`
	Guard *ExprRecord    `json:"guard,omitempty"`
	Body  *ExprRecord    `json:"body"`
}

// FieldRecord is one named field initializer.
type FieldRecord struct {
	Name  string      `json:"name"`
	Value *ExprRecord `json:"value"`
}

// LinkRecord is one link of a surface method chain.
type LinkRecord struct {
	Name string        `json:"name"`
	Args []*ExprRecord `json:"args,omitempty"`
}

// ExprRecord is one expression node. Node selects the variant; the other
// fields are variant-specific. Unknown Node tags are an ImportError.
type ExprRecord struct {
	Node string `json:"node"`

	// lit / marker / quant / cast selector
	Kind string `json:"kind,omitempty"`

	// lit payload
	Bool bool   `json:"bool,omitempty"`
	Int  int64  `json:"int,omitempty"`
	Text string `json:"text,omitempty"`

	// var
	Name     string `json:"name,omitempty"`
	Item     int64  `json:"item,omitempty"`
	TypeArgs []int  `json:"type_args,omitempty"`

	// app / method_call
	Fn     *ExprRecord   `json:"fn,omitempty"`
	Args   []*ExprRecord `json:"args,omitempty"`
	Recv   *ExprRecord   `json:"recv,omitempty"`
	Trait  []string      `json:"trait,omitempty"`
	Method string        `json:"method,omitempty"`

	// lambda / quant
	Params []ParamRecord `json:"params,omitempty"`
	Body   *ExprRecord   `json:"body,omitempty"`

	// let
	Value *ExprRecord `json:"value,omitempty"`

	// match
	Scrutinee *ExprRecord `json:"scrutinee,omitempty"`
	Arms      []ArmRecord `json:"arms,omitempty"`

	// if / while
	Cond *ExprRecord `json:"cond,omitempty"`
	Then *ExprRecord `json:"then,omitempty"`
	Else *ExprRecord `json:"else,omitempty"`

	// construct
	Type   *int          `json:"type,omitempty"`
	Case   string        `json:"case,omitempty"`
	Fields []FieldRecord `json:"fields,omitempty"`

	// field / index
	Field string      `json:"field,omitempty"`
	Index *ExprRecord `json:"index,omitempty"`

	// cast / ascribe (type-table indices)
	FromType *int `json:"from_type,omitempty"`
	ToType   *int `json:"to_type,omitempty"`

	// recv_type of method_call (type-table index)
	RecvTypeIdx *int `json:"recv_type,omitempty"`

	// loop / break / continue
	Label string `json:"label,omitempty"`

	// implies
	Lhs *ExprRecord `json:"lhs,omitempty"`
	Rhs *ExprRecord `json:"rhs,omitempty"`

	// for_range (From/To are expressions, unlike cast's type indices)
	Var  string      `json:"var,omitempty"`
	From *ExprRecord `json:"from,omitempty"`
	To   *ExprRecord `json:"to,omitempty"`

	// chain
	Links []LinkRecord `json:"links,omitempty"`

	// unsupported
	Construct string `json:"construct,omitempty"`

	Span SpanRecord `json:"span,omitempty"`
}

// PatternRecord is one pattern node. Pat selects the variant.
type PatternRecord struct {
	Pat string `json:"pat"` // var|wildcard|lit|construct|record|array|or|guarded

	Name  string      `json:"name,omitempty"`
	Value *ExprRecord `json:"value,omitempty"`

	Type  *int             `json:"type,omitempty"`
	Case  string           `json:"case,omitempty"`
	Elems []*PatternRecord `json:"elems,omitempty"`

	Fields []PatternFieldRecord `json:"fields,omitempty"`
	Alts   []*PatternRecord     `json:"alts,omitempty"`

	Inner *PatternRecord `json:"inner,omitempty"`
	Cond  *ExprRecord    `json:"cond,omitempty"`
}

// PatternFieldRecord is one named field of a record pattern.
type PatternFieldRecord struct {
	Name string         `json:"name"`
	Pat  *PatternRecord `json:"pat"`
}
