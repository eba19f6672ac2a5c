package ir

// Type is the sealed interface over type variants. Types are ground
// (contain no TypeVar) after elaboration.
type Type interface {
	typeNode()
}

// TBool is the boolean type.
type TBool struct{}

func (*TBool) typeNode() {}

// TInt is a fixed-width machine integer.
type TInt struct {
	Width  uint8 `json:"width"` // 8, 16, 32, 64
	Signed bool  `json:"signed"`
}

func (*TInt) typeNode() {}

// TFloat is a binary floating-point type.
type TFloat struct {
	Width uint8 `json:"width"` // 32 or 64
}

func (*TFloat) typeNode() {}

// TBigInt is the unbounded mathematical integer type used by
// specifications and by Lift/Concretize elaboration.
type TBigInt struct{}

func (*TBigInt) typeNode() {}

// TUnit is the unit type.
type TUnit struct{}

func (*TUnit) typeNode() {}

// TTuple is a product of positional element types.
type TTuple struct {
	Elems []Type `json:"elems"`
}

func (*TTuple) typeNode() {}

// TArray is a fixed-size array.
type TArray struct {
	Elem Type  `json:"elem"`
	Size int64 `json:"size"`
}

func (*TArray) typeNode() {}

// TSlice is a dynamically sized sequence.
type TSlice struct {
	Elem Type `json:"elem"`
}

func (*TSlice) typeNode() {}

// TRef is a reference with mutability.
type TRef struct {
	Elem Type `json:"elem"`
	Mut  bool `json:"mut"`
}

func (*TRef) typeNode() {}

// TFunc is a function type.
type TFunc struct {
	Params []Type `json:"params"`
	Result Type   `json:"result"`
}

func (*TFunc) typeNode() {}

// TNamed refers to a Type item, possibly applied to type arguments.
// Item is a non-owning lookup; it may be NoItem for types the current
// unit only knows by path.
type TNamed struct {
	Path NamePath `json:"path"`
	Item ItemID   `json:"item,omitempty"`
	Args []Type   `json:"args,omitempty"`
}

func (*TNamed) typeNode() {}

// TVar is an unbound type variable. Present only before elaboration.
type TVar struct {
	Name string `json:"name"`
}

func (*TVar) typeNode() {}

// IsGround reports whether a type contains no TypeVars.
func IsGround(t Type) bool {
	switch tt := t.(type) {
	case nil:
		return true
	case *TVar:
		return false
	case *TTuple:
		for _, e := range tt.Elems {
			if !IsGround(e) {
				return false
			}
		}
		return true
	case *TArray:
		return IsGround(tt.Elem)
	case *TSlice:
		return IsGround(tt.Elem)
	case *TRef:
		return IsGround(tt.Elem)
	case *TFunc:
		for _, p := range tt.Params {
			if !IsGround(p) {
				return false
			}
		}
		return IsGround(tt.Result)
	case *TNamed:
		for _, a := range tt.Args {
			if !IsGround(a) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// FreeTypeVars returns the distinct type-variable names in t, in first
// occurrence order. Resolution specificity ranks impls by this count.
func FreeTypeVars(t Type) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Type)
	walk = func(t Type) {
		switch tt := t.(type) {
		case *TVar:
			if !seen[tt.Name] {
				seen[tt.Name] = true
				names = append(names, tt.Name)
			}
		case *TTuple:
			for _, e := range tt.Elems {
				walk(e)
			}
		case *TArray:
			walk(tt.Elem)
		case *TSlice:
			walk(tt.Elem)
		case *TRef:
			walk(tt.Elem)
		case *TFunc:
			for _, p := range tt.Params {
				walk(p)
			}
			walk(tt.Result)
		case *TNamed:
			for _, a := range tt.Args {
				walk(a)
			}
		}
	}
	walk(t)
	return names
}

// TypeEqual reports structural equality of two types.
func TypeEqual(a, b Type) bool {
	return TypeKey(a) == TypeKey(b)
}
