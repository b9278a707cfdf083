package repository

import (
	"reflect"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	domaincriteria "github.com/krew-solutions/ascetic-dsl-go/asceticdsl/criteria/domain"
	criteria "github.com/krew-solutions/ascetic-dsl-go/asceticdsl/criteria/infrastructure"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/jsondoc"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/reflection"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/session"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/signals"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/utils"
)

var ErrQuery = errors.New("criteria query failed")

// Repository reads T rows selected by criteria. Columns map onto fields by their
// snake_case names.
type Repository[T any] struct {
	table          string
	onQueryStarted *signals.SignalImp[QueryStartedEvent]
	onQueryEnded   *signals.SignalImp[QueryEndedEvent]
}

// New reads from table, or from the table named after T when table is empty.
func New[T any](table string) *Repository[T] {
	if table == "" {
		table = criteria.TableName(reflect.TypeFor[T]())
	}
	return &Repository[T]{
		table:          table,
		onQueryStarted: signals.NewSignal[QueryStartedEvent](),
		onQueryEnded:   signals.NewSignal[QueryEndedEvent](),
	}
}

func (r *Repository[T]) OnQueryStarted() signals.Signal[QueryStartedEvent] {
	return r.onQueryStarted
}

func (r *Repository[T]) OnQueryEnded() signals.Signal[QueryEndedEvent] {
	return r.onQueryEnded
}

// observe announces a query and returns the function that reports its outcome.
func (r *Repository[T]) observe(s session.DbSession, sql string, params []any) func(error) {
	r.onQueryStarted.Notify(QueryStartedEvent{Query: sql, Params: params, Session: s})
	start := time.Now()
	return func(err error) {
		r.onQueryEnded.Notify(QueryEndedEvent{
			Query:        sql,
			Params:       params,
			Session:      s,
			ResponseTime: time.Since(start),
			Err:          err,
		})
	}
}

func (r *Repository[T]) compiler() *criteria.PgCriteriaCompiler {
	return criteria.NewPgCriteriaCompiler(r.table, reflect.TypeFor[T]())
}

func (r *Repository[T]) FindAll(s session.DbSession, c *domaincriteria.Criteria) ([]T, error) {
	sql, params, err := r.compiler().Compile(c)
	if err != nil {
		return nil, err
	}
	return r.query(s, sql, params)
}

func (r *Repository[T]) Count(s session.DbSession, c *domaincriteria.Criteria) (int64, error) {
	sql, params, err := r.compiler().CompileCount(c)
	if err != nil {
		return 0, err
	}
	done := r.observe(s, sql, params)
	var total int64
	if err := s.Connection().QueryRow(sql, params...).Scan(&total); err != nil {
		err = errors.Wrapf(ErrQuery, "%s: %v", sql, err)
		done(err)
		return 0, err
	}
	done(nil)
	return total, nil
}

// FindPage counts the matching rows and reads the page of them c asks for, using
// the default page size when c has none.
func (r *Repository[T]) FindPage(s session.DbSession, c *domaincriteria.Criteria) (domaincriteria.Page[T], error) {
	total, err := r.Count(s, c)
	if err != nil {
		return domaincriteria.Page[T]{}, err
	}
	request := domaincriteria.NewPageRequest(c, total)
	paged := *c
	paged.Pageable(request.Number, request.Size)
	content, err := r.FindAll(s, &paged)
	if err != nil {
		return domaincriteria.Page[T]{}, err
	}
	return domaincriteria.NewPage(request, content), nil
}

func (r *Repository[T]) query(s session.DbSession, sql string, params []any) (result []T, err error) {
	done := r.observe(s, sql, params)
	defer func() { done(err) }()

	rows, err := s.Connection().Query(sql, params...)
	if err != nil {
		return nil, errors.Wrapf(ErrQuery, "%s: %v", sql, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
	}()

	names := fieldNames[T](rows.Columns())
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrapf(ErrQuery, "%s: %v", sql, err)
		}
		tree := make(map[string]any, len(values))
		for i, value := range values {
			if i < len(names) {
				tree[names[i]] = value
			}
		}
		obj, err := jsondoc.ToObject[T](tree)
		if err != nil {
			return nil, err
		}
		result = append(result, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(ErrQuery, "%s: %v", sql, err)
	}
	if result == nil {
		result = []T{}
	}
	return result, nil
}

// fieldNames resolves each column to the field of T whose snake_case name it is,
// falling back to the camelCase form of the column.
func fieldNames[T any](columns []string) []string {
	byColumn := make(map[string]string)
	for _, f := range reflection.FieldsOf(reflect.TypeFor[T]()) {
		column := utils.CamelToSQL(f.Name)
		if _, dup := byColumn[column]; !dup {
			byColumn[column] = f.Name
		}
	}
	names := make([]string, len(columns))
	for i, column := range columns {
		if name, ok := byColumn[column]; ok {
			names[i] = name
		} else {
			names[i] = utils.SQLToCamel(column)
		}
	}
	return names
}
