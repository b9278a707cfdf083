package criteria

import "strings"

const (
	TokenSeparator = ","
	ValueSeparator = " "
	SortSeparator  = ":"
	// GroupMarker opens a disjunctive group ahead of the token it prefixes.
	GroupMarker = "()"
)

type Operator int

const (
	OpEqual Operator = iota + 1
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpLike
	OpFts
	OpIn
	OpNotIn
	OpIsNull
	OpIsNotNull
	OpTrue
	OpFalse
)

var symbols = map[Operator]string{
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpGreater:      ">>",
	OpGreaterEqual: ">=",
	OpLess:         "<<",
	OpLessEqual:    "<=",
	OpLike:         "~~",
	OpFts:          "@@",
	OpIn:           "^^",
	OpNotIn:        "!^",
	OpIsNull:       "@",
	OpIsNotNull:    "!@",
	OpTrue:         "",
	OpFalse:        "!",
}

var names = map[Operator]string{
	OpEqual:        "equal",
	OpNotEqual:     "not_equal",
	OpGreater:      "greater",
	OpGreaterEqual: "greater_equal",
	OpLess:         "less",
	OpLessEqual:    "less_equal",
	OpLike:         "like",
	OpFts:          "fts",
	OpIn:           "in",
	OpNotIn:        "not_in",
	OpIsNull:       "is_null",
	OpIsNotNull:    "is_not_null",
	OpTrue:         "true",
	OpFalse:        "false",
}

// binaryOperators are the infix operators, matched by their first position in a token.
var binaryOperators = []Operator{
	OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual,
	OpLike, OpFts, OpIn, OpNotIn,
}

func (o Operator) Symbol() string {
	return symbols[o]
}

func (o Operator) String() string {
	if name, ok := names[o]; ok {
		return name
	}
	return "unknown"
}

// IsMultiValued reports whether the operand is a space separated list.
func (o Operator) IsMultiValued() bool {
	return o == OpIn || o == OpNotIn
}

// IsUnary reports whether the operator takes no operand.
func (o Operator) IsUnary() bool {
	switch o {
	case OpIsNull, OpIsNotNull, OpTrue, OpFalse:
		return true
	}
	return false
}

// findBinary locates the leftmost infix operator in token.
func findBinary(token string) (Operator, int) {
	var (
		found Operator
		at    = -1
	)
	for _, op := range binaryOperators {
		i := strings.Index(token, op.Symbol())
		if i >= 0 && (at < 0 || i < at) {
			found, at = op, i
		}
	}
	return found, at
}
