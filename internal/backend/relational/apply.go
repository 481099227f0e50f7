package relational

import (
	"errors"
	"strings"

	"github.com/nlstn/go-odata-query/internal/backend"
	"github.com/nlstn/go-odata-query/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNilDB is returned when Apply or ApplyFilter receive no database handle.
var ErrNilDB = errors.New("relational: nil *gorm.DB")

// ApplyOptions configures Apply.
type ApplyOptions struct {
	// SearchFields are the paths $search matches against with LIKE. $search is
	// ignored when empty.
	SearchFields []query.Path
}

// Apply adds the options to db without executing it: joins and WHERE from
// $filter and $search, ORDER BY, root-level $select columns, Preload for
// $expand, then OFFSET and LIMIT. $count is left to the caller, who counts on
// opts.WithoutPagination().
func Apply(db *gorm.DB, opts *query.QueryOptions, t *Translator, applyOpts ApplyOptions) (*gorm.DB, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if opts == nil {
		return db, nil
	}
	if t == nil {
		t = NewForDB(db, nil)
	}

	c := t.newCompiler()
	var where []clause.Expression

	if opts.Filter != nil {
		if err := backend.Prepare(opts.Filter); err != nil {
			return nil, taggedOption(err, query.OptionFilter)
		}
		expr, err := query.Accept[clause.Expression](opts.Filter, c)
		if err != nil {
			return nil, taggedOption(err, query.OptionFilter)
		}
		where = append(where, expr)
	}

	if opts.Search != nil && *opts.Search != "" && len(applyOpts.SearchFields) > 0 {
		expr, err := c.search(*opts.Search, applyOpts.SearchFields)
		if err != nil {
			return nil, taggedOption(err, query.OptionSearch)
		}
		where = append(where, expr)
	}

	var order []clause.OrderByColumn
	for _, item := range opts.OrderBy {
		col, err := c.column(item.Path)
		if err != nil {
			return nil, taggedOption(err, query.OptionOrderBy)
		}
		order = append(order, clause.OrderByColumn{Column: col, Desc: item.Descending()})
	}

	var columns []clause.Column
	for _, path := range opts.Select {
		if len(path) != 1 || path[0] == "*" {
			continue
		}
		name, err := t.resolver.Column(t.resolver.Root(), path[0])
		if err != nil {
			return nil, taggedOption(err, query.OptionSelect)
		}
		columns = append(columns, clause.Column{Table: clause.CurrentTable, Name: name})
	}

	if joins := c.joins.list(); len(joins) > 0 {
		db = db.Clauses(clause.From{Joins: joins})
	}
	if len(where) > 0 {
		db = db.Clauses(clause.Where{Exprs: where})
	}
	if len(order) > 0 {
		db = db.Clauses(clause.OrderBy{Columns: order})
	}
	if len(columns) > 0 {
		db = db.Clauses(clause.Select{Columns: columns})
	}
	for _, path := range opts.Expand {
		db = db.Preload(strings.Join(path, "."))
	}
	if opts.Skip != nil {
		db = db.Offset(*opts.Skip)
	}
	if opts.Top != nil {
		db = db.Limit(*opts.Top)
	}
	return db, nil
}

// ApplyFilter adds only the filter predicate, for counting without pagination.
func ApplyFilter(db *gorm.DB, filter query.Node, t *Translator) (*gorm.DB, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if filter == nil {
		return db, nil
	}
	if t == nil {
		t = NewForDB(db, nil)
	}
	pred, err := t.Translate(filter)
	if err != nil {
		return nil, err
	}
	return db.Scopes(pred.Scope()), nil
}

// search ORs a case-insensitive substring match over fields.
func (c *compiler) search(term string, fields []query.Path) (clause.Expression, error) {
	var expr clause.Expression
	for _, field := range fields {
		col, err := c.column(field)
		if err != nil {
			return nil, err
		}
		match := likeExpr(clause.Expr{SQL: "LOWER(?)", Vars: []interface{}{col}}, strings.ToLower(term), true, true)
		if expr == nil {
			expr = match
			continue
		}
		expr = logicalExpr{Operator: "OR", Left: expr, Right: match}
	}
	return expr, nil
}

func taggedOption(err error, option string) error {
	if qerr, ok := backend.Tag(backend.Relational, err).(*query.Error); ok {
		return qerr.WithOption(option)
	}
	return err
}
