package ir

// Pattern is the sealed interface over pattern node variants.
type Pattern interface {
	patNode()
}

// PatVar binds the matched value to a name.
type PatVar struct {
	Name string `json:"name"`
}

func (*PatVar) patNode() {}

// PatWildcard matches anything without binding.
type PatWildcard struct{}

func (*PatWildcard) patNode() {}

// PatLit matches a literal value exactly.
type PatLit struct {
	Value *Lit `json:"value"`
}

func (*PatLit) patNode() {}

// PatConstruct matches a variant of a named type positionally.
type PatConstruct struct {
	Type  Type      `json:"type"`
	Case  string    `json:"case,omitempty"`
	Elems []Pattern `json:"elems,omitempty"`
}

func (*PatConstruct) patNode() {}

// PatFieldEntry is one named field of a PatRecord.
type PatFieldEntry struct {
	Name string  `json:"name"`
	Pat  Pattern `json:"pat"`
}

// PatRecord matches named fields of a record.
type PatRecord struct {
	Fields []PatFieldEntry `json:"fields"`
}

func (*PatRecord) patNode() {}

// PatArray matches a fixed-length array elementwise.
type PatArray struct {
	Elems []Pattern `json:"elems"`
}

func (*PatArray) patNode() {}

// PatOr matches if any alternative matches. Alternatives must bind the
// same names; the frontend guarantees this, the engine does not re-check.
type PatOr struct {
	Alts []Pattern `json:"alts"`
}

func (*PatOr) patNode() {}

// PatGuarded attaches a boolean side condition to an inner pattern.
type PatGuarded struct {
	Pat  Pattern `json:"pat"`
	Cond Expr    `json:"cond"`
}

func (*PatGuarded) patNode() {}
