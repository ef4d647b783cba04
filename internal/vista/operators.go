package vista

// Operator is one of the fixed filter operators. The set is enumerable on
// purpose: this is not a general query language.
type Operator string

const (
	OpEquals    Operator = "eq"
	OpNotEquals Operator = "ne"
	OpContains  Operator = "contains"
	OpGreater   Operator = "gt"
	OpLess      Operator = "lt"
	OpIn        Operator = "in"
	OpIsNull    Operator = "isnull"
)

// allowedOperators maps each semantic type to its operator set. Both the
// codec (validation) and the query builder (predicate construction) consult
// this one table so the two can never diverge.
var allowedOperators = map[SemanticType][]Operator{
	TypeText:      {OpEquals, OpNotEquals, OpContains, OpIn, OpIsNull},
	TypeLongText:  {OpEquals, OpNotEquals, OpContains, OpIn, OpIsNull},
	TypeInteger:   {OpEquals, OpNotEquals, OpGreater, OpLess, OpIn, OpIsNull},
	TypeDecimal:   {OpEquals, OpNotEquals, OpGreater, OpLess, OpIn, OpIsNull},
	TypeBoolean:   {OpEquals, OpNotEquals, OpIn, OpIsNull},
	TypeDate:      {OpEquals, OpNotEquals, OpGreater, OpLess, OpIn, OpIsNull},
	TypeDateTime:  {OpEquals, OpNotEquals, OpGreater, OpLess, OpIn, OpIsNull},
	TypeReference: {OpEquals, OpNotEquals, OpIn, OpIsNull},
}

// OperatorAllowed reports whether op may be applied to a field of type t.
func OperatorAllowed(t SemanticType, op Operator) bool {
	for _, allowed := range allowedOperators[t] {
		if allowed == op {
			return true
		}
	}
	return false
}
