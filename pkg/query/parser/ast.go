package parser

type Value interface {
	value() interface{}
}

type NumberExpr struct {
	Value float64
}

func (n NumberExpr) value() interface{} { return n.Value }

type StringExpr struct {
	Value string
}

func (s StringExpr) value() interface{} { return s.Value }

// ListExpr is the right hand side of IN and NOT IN.
type ListExpr struct {
	Values []Value
}

func (l ListExpr) value() interface{} {
	values := make([]interface{}, len(l.Values))
	for i, v := range l.Values {
		values[i] = v.value()
	}

	return values
}

// Identifier is either a bare attribute (Entity is empty) or entity.key,
// e.g. columns.petal_width or dataset.name.
type Identifier struct {
	Entity string
	Key    string
}

type OperatorKind int

const (
	Equals OperatorKind = iota
	NotEquals
	Less
	LessEquals
	Greater
	GreaterEquals
	Like
	ILike
	In
	NotIn
)

//nolint:gochecknoglobals
var operatorSQL = map[OperatorKind]string{
	Equals:        "=",
	NotEquals:     "!=",
	Less:          "<",
	LessEquals:    "<=",
	Greater:       ">",
	GreaterEquals: ">=",
	Like:          "LIKE",
	ILike:         "ILIKE",
	In:            "IN",
	NotIn:         "NOT IN",
}

// String returns the SQL spelling of the operator.
func (op OperatorKind) String() string {
	return operatorSQL[op]
}

type CompareExpr struct {
	Left     Identifier
	Operator OperatorKind
	Right    Value
}

type AndExpr struct {
	Exprs []*CompareExpr
}
