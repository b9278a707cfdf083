package criteria

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrMalformedSort = errors.New("malformed sort order")

type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// ParseDirection reads a direction case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	}
	return Asc, errors.Wrapf(ErrMalformedSort, "unknown direction %q", s)
}

type SortOrder struct {
	Field     string
	Direction Direction
}

// SortOrders parses the field:direction pairs of the sort specification. A pair
// without a direction sorts ascending.
func (c *Criteria) SortOrders() ([]SortOrder, error) {
	if c.sort == "" {
		return nil, nil
	}
	var orders []SortOrder
	for _, pair := range strings.Split(c.sort, TokenSeparator) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		field, dir, hasDir := strings.Cut(pair, SortSeparator)
		if field == "" {
			return nil, errors.Wrapf(ErrMalformedSort, "%q has no field", pair)
		}
		order := SortOrder{Field: field, Direction: Asc}
		if hasDir {
			d, err := ParseDirection(dir)
			if err != nil {
				return nil, err
			}
			order.Direction = d
		}
		orders = append(orders, order)
	}
	return orders, nil
}
