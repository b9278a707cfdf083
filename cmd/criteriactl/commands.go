package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	domaincriteria "github.com/krew-solutions/ascetic-dsl-go/asceticdsl/criteria/domain"
	criteria "github.com/krew-solutions/ascetic-dsl-go/asceticdsl/criteria/infrastructure"
	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/sqlsafe"
)

type predicateView struct {
	Field    string   `json:"field" yaml:"field"`
	Operator string   `json:"operator" yaml:"operator"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty"`
	Values   []string `json:"values,omitempty" yaml:"values,omitempty"`
	OrGroup  bool     `json:"orGroup,omitempty" yaml:"orGroup,omitempty"`
}

func viewOf(p domaincriteria.Predicate) predicateView {
	return predicateView{
		Field:    p.Field,
		Operator: p.Operator.String(),
		Value:    p.Value,
		Values:   p.Values,
		OrGroup:  p.OrGroup,
	}
}

func NewDecodeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <query>",
		Short: "Decode a criteria query into its predicates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			predicates, err := domaincriteria.Parse(args[0]).Predicates()
			if err != nil {
				return err
			}
			views := make([]predicateView, 0, len(predicates))
			for _, p := range predicates {
				views = append(views, viewOf(p))
			}
			return opts.write(cmd.OutOrStdout(), views)
		},
	}
}

func NewCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count <query>",
		Short: "Count the predicates of a criteria query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := domaincriteria.Parse(args[0]).CriteriaCount()
			if err != nil {
				return err
			}
			return opts.write(cmd.OutOrStdout(), map[string]int{"count": count})
		},
	}
}

type sqlOptions struct {
	table  string
	sort   string
	lang   string
	fields []string
	page   int
	size   int
	count  bool
}

type compiledView struct {
	SQL    string `json:"sql" yaml:"sql"`
	Params []any  `json:"params" yaml:"params"`
}

func NewSQLCommand(opts *RootOptions) *cobra.Command {
	sqlOpts := &sqlOptions{}
	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Compile a criteria query into PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := domaincriteria.Parse(args[0]).
				SortBy(sqlOpts.sort).
				Lang(sqlOpts.lang).
				Fields(sqlOpts.fields...)
			if sqlOpts.size >= 0 {
				c.Pageable(sqlOpts.page, sqlOpts.size)
			}
			compiler := criteria.NewPgCriteriaCompiler(sqlOpts.table, nil)
			compile := compiler.Compile
			if sqlOpts.count {
				compile = compiler.CompileCount
			}
			sql, params, err := compile(c)
			if err != nil {
				return err
			}
			if params == nil {
				params = []any{}
			}
			opts.Logger.Debug("compiled criteria", "query", args[0], "sql", sql)
			return opts.write(cmd.OutOrStdout(), compiledView{SQL: sql, Params: params})
		},
	}
	cmd.Flags().StringVar(&sqlOpts.table, "table", "", "table to select from")
	cmd.Flags().StringVar(&sqlOpts.sort, "sort", "", "sort specification, e.g. name:asc,createdAt:desc")
	cmd.Flags().StringVar(&sqlOpts.lang, "lang", "", "text search configuration")
	cmd.Flags().StringSliceVar(&sqlOpts.fields, "fields", nil, "projected fields")
	cmd.Flags().IntVar(&sqlOpts.page, "page", 0, "page number")
	cmd.Flags().IntVar(&sqlOpts.size, "size", domaincriteria.Unset, "page size")
	cmd.Flags().BoolVar(&sqlOpts.count, "count", false, "compile a count instead of a select")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

// tokens renders each predicate of query on its own line.
func tokens(query string) (string, error) {
	predicates, err := domaincriteria.Parse(query).Predicates()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, p := range predicates {
		b.WriteString(p.Token())
		b.WriteByte('\n')
	}
	return b.String(), nil
}

type diffView struct {
	Equal   bool     `json:"equal" yaml:"equal"`
	Added   []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []string `json:"removed,omitempty" yaml:"removed,omitempty"`
}

func NewDiffCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <query> <query>",
		Short: "Compare the predicates of two criteria queries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := tokens(args[0])
			if err != nil {
				return err
			}
			after, err := tokens(args[1])
			if err != nil {
				return err
			}
			return opts.write(cmd.OutOrStdout(), diffTokens(before, after))
		},
	}
}

func diffTokens(before, after string) diffView {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	view := diffView{Equal: true}
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		view.Equal = false
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if d.Type == diffmatchpatch.DiffInsert {
				view.Added = append(view.Added, line)
			} else {
				view.Removed = append(view.Removed, line)
			}
		}
	}
	return view
}

type checkView struct {
	Safe      bool   `json:"safe" yaml:"safe"`
	Construct string `json:"construct,omitempty" yaml:"construct,omitempty"`
}

func NewCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <text>",
		Short: "Check free text for SQL injection constructs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := sqlsafe.Check(args[0])
			view := checkView{Safe: err == nil}
			var injection *sqlsafe.InjectionError
			if errors.As(err, &injection) {
				view.Construct = injection.Construct
			}
			if werr := opts.write(cmd.OutOrStdout(), view); werr != nil {
				return werr
			}
			return err
		},
	}
}
