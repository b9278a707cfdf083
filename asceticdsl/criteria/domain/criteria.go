package criteria

import (
	"strings"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/sqlsafe"
)

const IDField = "id"

type groupState int

const (
	noPendingGroup groupState = iota
	pendingGroup
)

// Criteria is one query specification: filter tokens, paging, sorting, projection and
// the text search language. It is built by chained calls from a single caller and is
// read-only once handed over; it is not safe for concurrent mutation.
//
// Builder calls with an empty field or an absent value leave the Criteria unchanged.
type Criteria struct {
	query  string
	page   int
	size   int
	sort   string
	lang   string
	fields []string
	group  groupState
}

// New starts an empty Criteria with paging unset.
func New() *Criteria {
	return Parse("")
}

// Parse wraps an already encoded query.
func Parse(query string) *Criteria {
	return &Criteria{query: query, page: Unset, size: Unset}
}

// NewWith restores a Criteria from its transport form. Nil page or size mean unset.
func NewWith(query string, page, size *int, sort, lang string, fields []string) *Criteria {
	c := Parse(query)
	if page != nil {
		c.page = *page
	}
	if size != nil {
		c.size = *size
	}
	c.sort = sort
	c.lang = lang
	c.fields = nonEmpty(fields)
	return c
}

func (c *Criteria) Equals(field string, value any) *Criteria {
	return c.binary(field, OpEqual, value)
}

func (c *Criteria) NotEquals(field string, value any) *Criteria {
	return c.binary(field, OpNotEqual, value)
}

func (c *Criteria) GreaterThan(field string, value any) *Criteria {
	return c.binary(field, OpGreater, value)
}

func (c *Criteria) GreaterThanOrEquals(field string, value any) *Criteria {
	return c.binary(field, OpGreaterEqual, value)
}

func (c *Criteria) LessThan(field string, value any) *Criteria {
	return c.binary(field, OpLess, value)
}

func (c *Criteria) LessThanOrEquals(field string, value any) *Criteria {
	return c.binary(field, OpLessEqual, value)
}

// ID filters on the identifier field.
func (c *Criteria) ID(value any) *Criteria {
	return c.Equals(IDField, value)
}

func (c *Criteria) IsTrue(field string) *Criteria {
	if field == "" {
		return c
	}
	return c.append(field)
}

func (c *Criteria) IsFalse(field string) *Criteria {
	if field == "" {
		return c
	}
	return c.append(OpFalse.Symbol() + field)
}

func (c *Criteria) IsNull(field string) *Criteria {
	if field == "" {
		return c
	}
	return c.append(OpIsNull.Symbol() + field)
}

func (c *Criteria) IsNotNull(field string) *Criteria {
	if field == "" {
		return c
	}
	return c.append(OpIsNotNull.Symbol() + field)
}

// Like appends a containment filter with the surrounding blanks of filter removed.
func (c *Criteria) Like(field, filter string) *Criteria {
	return c.binary(field, OpLike, strings.TrimSpace(filter))
}

// In accepts identifiers, numbers or strings, individually or as slices.
func (c *Criteria) In(field string, values ...any) *Criteria {
	return c.multi(field, OpIn, values)
}

func (c *Criteria) NotIn(field string, values ...any) *Criteria {
	return c.multi(field, OpNotIn, values)
}

// InSlice is In for a typed slice.
func InSlice[T any](c *Criteria, field string, values []T) *Criteria {
	return c.multi(field, OpIn, toAny(values))
}

func NotInSlice[T any](c *Criteria, field string, values []T) *Criteria {
	return c.multi(field, OpNotIn, toAny(values))
}

// Fts appends a full text search on field. The text is rejected with an
// *sqlsafe.InjectionError when it carries an injected statement.
func (c *Criteria) Fts(field, text string) (*Criteria, error) {
	if field == "" {
		return c, nil
	}
	if err := sqlsafe.Check(text); err != nil {
		return c, err
	}
	return c.binary(field, OpFts, strings.TrimSpace(text)), nil
}

// FullText searches the default text search field.
func (c *Criteria) FullText(text string) (*Criteria, error) {
	return c.Fts(CurrentDefaults().FtsField, text)
}

// Or makes the next appended token open a disjunctive group.
func (c *Criteria) Or() *Criteria {
	c.group = pendingGroup
	return c
}

// Pageable selects the zero-based page of the given size.
func (c *Criteria) Pageable(page, size int) *Criteria {
	c.page = page
	c.size = size
	return c
}

func (c *Criteria) Limit(size int) *Criteria {
	c.size = size
	return c
}

func (c *Criteria) Sorting(field, direction string) *Criteria {
	if field == "" {
		return c
	}
	return c.SortBy(field + SortSeparator + direction)
}

func (c *Criteria) Order(field string, direction Direction) *Criteria {
	return c.Sorting(field, direction.String())
}

// SortBy appends raw field:direction pairs.
func (c *Criteria) SortBy(raw string) *Criteria {
	if raw == "" {
		return c
	}
	if c.sort != "" {
		c.sort += TokenSeparator
	}
	c.sort += raw
	return c
}

// Fields sets the projection. No fields means all fields.
func (c *Criteria) Fields(fields ...string) *Criteria {
	c.fields = nonEmpty(fields)
	return c
}

func (c *Criteria) SetResultFields(fields []string) {
	c.fields = nonEmpty(fields)
}

// Lang sets the text search language; an empty lang keeps the current one.
func (c *Criteria) Lang(lang string) *Criteria {
	if lang != "" {
		c.lang = lang
	}
	return c
}

func (c *Criteria) binary(field string, op Operator, value any) *Criteria {
	if field == "" {
		return c
	}
	literal, ok := render(value)
	if !ok {
		return c
	}
	return c.append(field + op.Symbol() + literal)
}

func (c *Criteria) multi(field string, op Operator, values []any) *Criteria {
	if field == "" {
		return c
	}
	literals := make([]string, 0, len(values))
	for _, value := range flatten(values) {
		if literal, ok := render(value); ok {
			literals = append(literals, literal)
		}
	}
	if len(literals) == 0 {
		return c
	}
	return c.append(field + op.Symbol() + strings.Join(literals, ValueSeparator))
}

// append adds one token and consumes a pending group marker. The first token of a
// query carries no marker, so a pending one waits for the token after it.
func (c *Criteria) append(token string) *Criteria {
	switch {
	case strings.TrimSpace(c.query) == "":
		c.query = token
	case c.group == pendingGroup:
		c.query += TokenSeparator + GroupMarker + token
		c.group = noPendingGroup
	default:
		c.query += TokenSeparator + token
	}
	return c
}

func toAny[T any](values []T) []any {
	result := make([]any, len(values))
	for i, v := range values {
		result[i] = v
	}
	return result
}

func nonEmpty(fields []string) []string {
	result := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			result = append(result, f)
		}
	}
	return result
}
