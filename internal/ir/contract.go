package ir

// Postcondition is one ensures clause, closed over a named result binder.
// Binder names are unique per closure; Pred may reference Result and the
// function's parameters.
type Postcondition struct {
	Result string `json:"result"`
	Pred   Expr   `json:"pred"`
}

// Contract is the proof-obligation bundle on a function Item. Clause
// lists are conjoined; source order is preserved for diagnostics even
// though conjunction is semantically order-independent.
type Contract struct {
	Preconditions  []Expr          `json:"preconditions,omitempty"`
	Postconditions []Postcondition `json:"postconditions,omitempty"`
	Decreases      Expr            `json:"decreases,omitempty"`
}

// IsEmpty reports whether the contract carries no clauses.
func (c *Contract) IsEmpty() bool {
	return c == nil ||
		(len(c.Preconditions) == 0 && len(c.Postconditions) == 0 && c.Decreases == nil)
}

// LoopSpec is the invariant/termination bundle on a Loop node.
type LoopSpec struct {
	Invariants []Expr `json:"invariants,omitempty"`
	Decreases  Expr   `json:"decreases,omitempty"`
}

// IsEmpty reports whether the loop spec carries no clauses.
func (s *LoopSpec) IsEmpty() bool {
	return s == nil || (len(s.Invariants) == 0 && s.Decreases == nil)
}

// RefinementSpec attaches an invariant predicate to a Type item. Pred is
// closed over Binder (one value of Base) and may otherwise reference only
// globally visible items.
type RefinementSpec struct {
	Base   Type   `json:"base"`
	Binder string `json:"binder"`
	Pred   Expr   `json:"pred"`
}
