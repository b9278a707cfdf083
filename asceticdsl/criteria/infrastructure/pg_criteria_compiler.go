package criteria

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/coerce"
	domaincriteria "github.com/krew-solutions/ascetic-dsl-go/asceticdsl/criteria/domain"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/reflection"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/utils"
)

var (
	ErrUnsupportedGrouping = errors.New("disjunctive criteria groups cannot be compiled")
	ErrInvalidIdentifier   = errors.New("invalid sql identifier")
	ErrUnknownField        = errors.New("unknown criteria field")
	ErrInvalidOperand      = errors.New("criteria operand does not fit the field type")
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

var sqlOps = map[domaincriteria.Operator]string{
	domaincriteria.OpEqual:        "=",
	domaincriteria.OpNotEqual:     "<>",
	domaincriteria.OpGreater:      ">",
	domaincriteria.OpGreaterEqual: ">=",
	domaincriteria.OpLess:         "<",
	domaincriteria.OpLessEqual:    "<=",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PgCriteriaCompiler renders a Criteria as a PostgreSQL query with $n placeholders.
// When an entity type is given, fields are checked against it and operands are
// converted to the field types. A compiler is not safe for concurrent use.
type PgCriteriaCompiler struct {
	table    string
	entity   reflect.Type
	lang     string
	sqlParts []string
	params   []any
}

func NewPgCriteriaCompiler(table string, entity reflect.Type) *PgCriteriaCompiler {
	entity = reflection.Indirect(entity)
	if table == "" && entity != nil {
		table = TableName(entity)
	}
	return &PgCriteriaCompiler{table: table, entity: entity}
}

// ForEntity builds a compiler for T reading from the table TableName derives.
func ForEntity[T any]() *PgCriteriaCompiler {
	return NewPgCriteriaCompiler("", reflect.TypeFor[T]())
}

// TableName is the plural snake_case form of the type name: Order -> orders,
// OrderLine -> order_lines.
func TableName(t reflect.Type) string {
	return inflection.Plural(utils.CamelToSQL(reflection.Indirect(t).Name()))
}

func (c *PgCriteriaCompiler) Table() string {
	return c.table
}

// Compile renders the full SELECT for criteria.
func (c *PgCriteriaCompiler) Compile(criteria *domaincriteria.Criteria) (string, []any, error) {
	if err := checkIdentifier(c.table); err != nil {
		return "", nil, err
	}
	columns, err := c.columns(criteria.ResultFields())
	if err != nil {
		return "", nil, err
	}
	where, params, err := c.Where(criteria)
	if err != nil {
		return "", nil, err
	}
	orderBy, err := c.orderBy(criteria)
	if err != nil {
		return "", nil, err
	}

	parts := []string{"SELECT", columns, "FROM", c.table}
	if where != "" {
		parts = append(parts, "WHERE", where)
	}
	if orderBy != "" {
		parts = append(parts, "ORDER BY", orderBy)
	}
	if size := criteria.Size(); size >= 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", size))
		if page := criteria.Page(); page > 0 {
			parts = append(parts, fmt.Sprintf("OFFSET %d", page*size))
		}
	}
	return strings.Join(parts, " "), params, nil
}

// CompileCount renders a count of the rows criteria selects. Paging and sorting are
// ignored.
func (c *PgCriteriaCompiler) CompileCount(criteria *domaincriteria.Criteria) (string, []any, error) {
	if err := checkIdentifier(c.table); err != nil {
		return "", nil, err
	}
	where, params, err := c.Where(criteria)
	if err != nil {
		return "", nil, err
	}
	sql := "SELECT count(*) FROM " + c.table
	if where != "" {
		sql += " WHERE " + where
	}
	return sql, params, nil
}

// Where renders the predicates of criteria joined with AND. An empty query yields an
// empty clause.
func (c *PgCriteriaCompiler) Where(criteria *domaincriteria.Criteria) (string, []any, error) {
	c.sqlParts = nil
	c.params = nil
	c.lang = criteria.LangTag()
	if c.lang == "" {
		c.lang = domaincriteria.CurrentDefaults().Lang
	}
	predicates, err := criteria.Predicates()
	if err != nil {
		return "", nil, err
	}
	for _, p := range predicates {
		if err := c.visit(p); err != nil {
			return "", nil, err
		}
	}
	sql := replaceParamMarkers(c.sql())
	return sql, c.params, nil
}

func (c *PgCriteriaCompiler) sql() string {
	if len(c.sqlParts) == 0 {
		return ""
	}
	return strings.Join(c.sqlParts, " AND ")
}

func (c *PgCriteriaCompiler) visit(p domaincriteria.Predicate) error {
	if p.OrGroup {
		return errors.Wrapf(ErrUnsupportedGrouping, "at %q", p.Token())
	}
	if p.Operator == domaincriteria.OpFts {
		return c.visitFts(p)
	}
	column, fieldType, err := c.column(p.Field)
	if err != nil {
		return err
	}
	switch p.Operator {
	case domaincriteria.OpIsNull:
		c.sqlParts = append(c.sqlParts, column+" IS NULL")
	case domaincriteria.OpIsNotNull:
		c.sqlParts = append(c.sqlParts, column+" IS NOT NULL")
	case domaincriteria.OpTrue:
		c.sqlParts = append(c.sqlParts, column+" = TRUE")
	case domaincriteria.OpFalse:
		c.sqlParts = append(c.sqlParts, column+" = FALSE")
	case domaincriteria.OpLike:
		c.sqlParts = append(c.sqlParts, column+` ILIKE ? ESCAPE '\'`)
		c.params = append(c.params, "%"+likeEscaper.Replace(p.Value)+"%")
	case domaincriteria.OpIn, domaincriteria.OpNotIn:
		markers := make([]string, 0, len(p.Values))
		for _, raw := range p.Values {
			value, err := operand(p.Field, raw, fieldType)
			if err != nil {
				return err
			}
			markers = append(markers, "?")
			c.params = append(c.params, value)
		}
		keyword := "IN"
		if p.Operator == domaincriteria.OpNotIn {
			keyword = "NOT IN"
		}
		c.sqlParts = append(c.sqlParts, fmt.Sprintf("%s %s (%s)", column, keyword, strings.Join(markers, ", ")))
	default:
		sqlOp, ok := sqlOps[p.Operator]
		if !ok {
			return errors.Wrapf(domaincriteria.ErrMalformedToken, "operator %s", p.Operator)
		}
		value, err := operand(p.Field, p.Value, fieldType)
		if err != nil {
			return err
		}
		c.sqlParts = append(c.sqlParts, fmt.Sprintf("%s %s ?", column, sqlOp))
		c.params = append(c.params, value)
	}
	return nil
}

// visitFts matches a tsvector column with the criteria language, or the configured
// one. The column is not looked up on the entity.
func (c *PgCriteriaCompiler) visitFts(p domaincriteria.Predicate) error {
	if err := checkIdentifier(p.Field); err != nil {
		return err
	}
	column := utils.CamelToSQL(p.Field)
	if c.lang == "" {
		c.sqlParts = append(c.sqlParts, column+" @@ plainto_tsquery(?)")
		c.params = append(c.params, p.Value)
		return nil
	}
	c.sqlParts = append(c.sqlParts, column+" @@ plainto_tsquery(?::regconfig, ?)")
	c.params = append(c.params, c.lang, p.Value)
	return nil
}

func (c *PgCriteriaCompiler) column(field string) (string, reflect.Type, error) {
	if err := checkIdentifier(field); err != nil {
		return "", nil, err
	}
	if c.entity == nil {
		return utils.CamelToSQL(field), nil, nil
	}
	f, ok := reflection.FieldOf(c.entity, field)
	if !ok || f.Static {
		return "", nil, errors.Wrapf(ErrUnknownField, "%s.%s", c.entity, field)
	}
	return utils.CamelToSQL(f.Name), f.Type, nil
}

func (c *PgCriteriaCompiler) columns(fields []string) (string, error) {
	if len(fields) == 0 {
		return "*", nil
	}
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		column, _, err := c.column(field)
		if err != nil {
			return "", err
		}
		columns = append(columns, column)
	}
	return strings.Join(columns, ", "), nil
}

func (c *PgCriteriaCompiler) orderBy(criteria *domaincriteria.Criteria) (string, error) {
	orders, err := criteria.SortOrders()
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(orders))
	for _, order := range orders {
		column, _, err := c.column(order.Field)
		if err != nil {
			return "", err
		}
		parts = append(parts, column+" "+order.Direction.String())
	}
	return strings.Join(parts, ", "), nil
}

// operand converts raw to the field type when it is known. Types nothing can parse
// are passed as text and left to the server.
func operand(field, raw string, t reflect.Type) (any, error) {
	if t == nil {
		return raw, nil
	}
	v, err := coerce.Parse(raw, t)
	if err == nil {
		return v.Interface(), nil
	}
	if errors.Is(err, coerce.ErrNoConverter) {
		return raw, nil
	}
	return nil, errors.Wrapf(ErrInvalidOperand, "%s=%q: %v", field, raw, err)
}

func checkIdentifier(name string) error {
	if !identifier.MatchString(name) {
		return errors.Wrapf(ErrInvalidIdentifier, "%q", name)
	}
	return nil
}

func replaceParamMarkers(sql string) string {
	var b strings.Builder
	idx := 1
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			b.WriteString(fmt.Sprintf("$%d", idx))
			idx++
		} else {
			b.WriteByte(sql[i])
		}
	}
	return b.String()
}
