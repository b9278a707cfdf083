package criteria

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

var ErrDecoding = errors.New("malformed percent-encoding in criteria query")

// Query returns the accumulated query, trimmed and percent-decoded.
func (c *Criteria) Query() (string, error) {
	decoded, err := url.QueryUnescape(strings.TrimSpace(c.query))
	if err != nil {
		return "", errors.Wrapf(ErrDecoding, "%q: %v", c.query, err)
	}
	return decoded, nil
}

// RawQuery returns the query exactly as accumulated.
func (c *Criteria) RawQuery() string {
	return c.query
}

// IsPaged reports whether both page and size are set.
func (c *Criteria) IsPaged() bool {
	return c.page != Unset && c.size != Unset
}

// IsSorted reports whether the sort carries at least one field:direction pair.
func (c *Criteria) IsSorted() bool {
	return c.sort != "" && strings.Contains(c.sort, SortSeparator)
}

// CriteriaCount is the number of tokens in the decoded query; an empty query has none.
func (c *Criteria) CriteriaCount() (int, error) {
	q, err := c.Query()
	if err != nil {
		return 0, err
	}
	if q == "" {
		return 0, nil
	}
	return len(strings.Split(q, TokenSeparator)), nil
}

// ResultFields returns the projection; never nil.
func (c *Criteria) ResultFields() []string {
	result := make([]string, len(c.fields))
	copy(result, c.fields)
	return result
}

// Page is the zero-based page number, or Unset.
func (c *Criteria) Page() int {
	return c.page
}

// Size is the page size, or Unset.
func (c *Criteria) Size() int {
	return c.size
}

func (c *Criteria) Sort() string {
	return c.sort
}

func (c *Criteria) LangTag() string {
	return c.lang
}

// Predicates decodes the query into its predicates.
func (c *Criteria) Predicates() ([]Predicate, error) {
	q, err := c.Query()
	if err != nil {
		return nil, err
	}
	return ParseQuery(q)
}

// Value returns the operand of the first equality on field, or "true" / "false" for a
// flag on field.
func (c *Criteria) Value(field string) (string, bool) {
	predicates, err := c.Predicates()
	if err != nil {
		return "", false
	}
	for _, p := range predicates {
		if p.Field != field {
			continue
		}
		switch p.Operator {
		case OpEqual:
			return p.Value, true
		case OpTrue:
			return "true", true
		case OpFalse:
			return "false", true
		}
	}
	return "", false
}

func (c *Criteria) String() string {
	return c.query
}
