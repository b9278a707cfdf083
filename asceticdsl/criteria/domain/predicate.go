package criteria

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var ErrMalformedToken = errors.New("malformed criteria token")

// Predicate is one decoded token. Values is set for In and NotIn only.
type Predicate struct {
	Field    string
	Operator Operator
	Value    string
	Values   []string
	// OrGroup marks a token that opens a disjunctive group.
	OrGroup bool
}

// Token renders the predicate back into its wire form.
func (p Predicate) Token() string {
	var b strings.Builder
	if p.OrGroup {
		b.WriteString(GroupMarker)
	}
	switch p.Operator {
	case OpIsNull, OpIsNotNull, OpFalse:
		b.WriteString(p.Operator.Symbol())
		b.WriteString(p.Field)
	case OpTrue:
		b.WriteString(p.Field)
	case OpIn, OpNotIn:
		b.WriteString(p.Field)
		b.WriteString(p.Operator.Symbol())
		b.WriteString(strings.Join(p.Values, ValueSeparator))
	default:
		b.WriteString(p.Field)
		b.WriteString(p.Operator.Symbol())
		b.WriteString(p.Value)
	}
	return b.String()
}

// UUIDs parses the operand list of an In or NotIn predicate, keeping its order.
func (p Predicate) UUIDs() ([]uuid.UUID, error) {
	if p.Operator.IsMultiValued() {
		return ParseUUIDs(p.Values)
	}
	return ParseUUIDs([]string{p.Value})
}

// ParseToken decodes a single token.
func ParseToken(token string) (Predicate, error) {
	token = strings.TrimSpace(token)
	var p Predicate
	if rest, ok := strings.CutPrefix(token, GroupMarker); ok {
		p.OrGroup = true
		token = rest
	}
	if token == "" {
		return Predicate{}, errors.Wrap(ErrMalformedToken, "empty token")
	}

	switch {
	case strings.HasPrefix(token, OpIsNotNull.Symbol()):
		return prefixed(p, OpIsNotNull, token)
	case strings.HasPrefix(token, OpIsNull.Symbol()):
		return prefixed(p, OpIsNull, token)
	case strings.HasPrefix(token, OpFalse.Symbol()):
		return prefixed(p, OpFalse, token)
	}

	op, at := findBinary(token)
	if at < 0 {
		p.Field, p.Operator = token, OpTrue
		return p, nil
	}
	p.Field, p.Operator = token[:at], op
	operand := token[at+len(op.Symbol()):]
	if p.Field == "" || operand == "" {
		return Predicate{}, errors.Wrapf(ErrMalformedToken, "%q", token)
	}
	if op.IsMultiValued() {
		p.Values = strings.Fields(operand)
	} else {
		p.Value = operand
	}
	return p, nil
}

func prefixed(p Predicate, op Operator, token string) (Predicate, error) {
	field := strings.TrimPrefix(token, op.Symbol())
	if field == "" {
		return Predicate{}, errors.Wrapf(ErrMalformedToken, "%q has no field", token)
	}
	if _, at := findBinary(field); at >= 0 {
		return Predicate{}, errors.Wrapf(ErrMalformedToken, "%q mixes a prefix and an infix operator", token)
	}
	p.Field, p.Operator = field, op
	return p, nil
}

// ParseQuery decodes a decoded query string. Every malformed token is reported.
func ParseQuery(query string) ([]Predicate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	tokens := strings.Split(query, TokenSeparator)
	predicates := make([]Predicate, 0, len(tokens))
	var result error
	for i, token := range tokens {
		p, err := ParseToken(token)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "token %d", i+1))
			continue
		}
		predicates = append(predicates, p)
	}
	if result != nil {
		return nil, result
	}
	return predicates, nil
}

// ParseUUIDs parses identifiers in order.
func ParseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedToken, "%q is not an identifier", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
