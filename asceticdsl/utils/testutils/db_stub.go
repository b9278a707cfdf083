package testutils

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spf13/cast"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/session"
)

// NewDbSessionStub answers successive queries with results in order.
func NewDbSessionStub(results ...*RowsStub) *DbSessionStub {
	stub := &DbSessionStub{Results: results}
	stub.conn = &connectionStub{session: stub}
	return stub
}

type DbSessionStub struct {
	Results      []*RowsStub
	ActualQuery  []string
	ActualParams [][]any
	conn         *connectionStub
}

func (s *DbSessionStub) Context() context.Context {
	return context.Background()
}

func (s *DbSessionStub) Atomic(callback session.SessionCallback) error {
	return callback(s)
}

func (s *DbSessionStub) Connection() session.DbConnection {
	return s.conn
}

func (s *DbSessionStub) next(query string, args []any) *RowsStub {
	s.ActualQuery = append(s.ActualQuery, query)
	s.ActualParams = append(s.ActualParams, args)
	if len(s.Results) == 0 {
		return NewRowsStub(nil)
	}
	rows := s.Results[0]
	s.Results = s.Results[1:]
	return rows
}

type connectionStub struct {
	session *DbSessionStub
}

func (c *connectionStub) Exec(query string, args ...any) (int64, error) {
	c.session.ActualQuery = append(c.session.ActualQuery, query)
	c.session.ActualParams = append(c.session.ActualParams, args)
	return 0, nil
}

func (c *connectionStub) Query(query string, args ...any) (session.Rows, error) {
	return c.session.next(query, args), nil
}

func (c *connectionStub) QueryRow(query string, args ...any) session.Row {
	return &RowStub{rows: c.session.next(query, args)}
}

func NewRowsStub(columns []string, rows ...[]any) *RowsStub {
	return &RowsStub{
		columns: columns,
		rows:    rows,
		idx:     -1,
		Closed:  false,
	}
}

type RowsStub struct {
	columns []string
	rows    [][]any
	idx     int
	Closed  bool
}

func (r *RowsStub) Close() error {
	r.Closed = true
	return nil
}

func (r *RowsStub) Err() error {
	return nil
}

func (r *RowsStub) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *RowsStub) Columns() []string {
	return r.columns
}

func (r *RowsStub) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return nil, errors.New("no current row")
	}
	return r.rows[r.idx], nil
}

func (r *RowsStub) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return errors.New("no current row")
	}

	row := r.rows[r.idx]
	for i, val := range row {
		if i >= len(dest) {
			break
		}

		var err error
		switch d := dest[i].(type) {
		case *int:
			*d, err = cast.ToIntE(val)
		case *int64:
			*d, err = cast.ToInt64E(val)
		case *int32:
			*d, err = cast.ToInt32E(val)
		case *string:
			*d, err = cast.ToStringE(val)
		case *bool:
			*d, err = cast.ToBoolE(val)
		case *float64:
			*d, err = cast.ToFloat64E(val)
		case *[]byte:
			b, ok := val.([]byte)
			if !ok {
				err = errors.New("not a byte slice")
			}
			*d = b
		case sql.Scanner:
			err = d.Scan(val)
		default:
			err = errors.New("unsupported scan type")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// RowStub reads the first row of its result.
type RowStub struct {
	rows *RowsStub
}

func (r *RowStub) Scan(dest ...any) error {
	if !r.rows.Next() {
		return sql.ErrNoRows
	}
	return r.rows.Scan(dest...)
}
