package model

// FilterOp defines the supported filter operators.
type FilterOp string

const (
	OpEq  FilterOp = "==" // Equal
	OpNe  FilterOp = "!=" // Not equal
	OpGt  FilterOp = ">"  // Greater than
	OpGte FilterOp = ">=" // Greater than or equal
	OpLt  FilterOp = "<"  // Less than
	OpLte FilterOp = "<=" // Less than or equal
	OpIn  FilterOp = "in" // Value in array

	// OpMatches is a case-insensitive pattern match. The value is an already
	// escaped pattern string; storage backends must not escape it again.
	OpMatches FilterOp = "matches"
)

// ValidOps returns all valid filter operators.
func ValidOps() []FilterOp {
	return []FilterOp{OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpMatches}
}

// IsValid checks if the operator is valid.
func (op FilterOp) IsValid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpMatches:
		return true
	}
	return false
}

// IsRange reports whether op is one of the ordering comparisons.
func (op FilterOp) IsRange() bool {
	switch op {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// Filters is a slice of Filter.
type Filters []Filter

// Filter represents a query filter
type Filter struct {
	Field string      `json:"field"`
	Op    FilterOp    `json:"op"`
	Value interface{} `json:"value"`
}

// Validate checks if the filter is valid.
func (f Filter) Validate() bool {
	if f.Field == "" {
		return false
	}
	return f.Op.IsValid()
}
