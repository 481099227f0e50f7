// Package relational translates filter trees into gorm clause expressions.
package relational

import (
	"strings"
	"time"

	"github.com/nlstn/go-odata-query/internal/backend"
	"github.com/nlstn/go-odata-query/internal/query"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Config configures a Translator. Zero fields take defaults: the SQLite dialect,
// a ConventionResolver and DefaultCapabilities for the dialect.
type Config struct {
	Dialect      string
	Resolver     RelationResolver
	Capabilities *Capabilities
}

// Translator compiles filters into Predicates.
type Translator struct {
	dialect  string
	resolver RelationResolver
	caps     *Capabilities
}

var _ backend.Translator[Predicate] = (*Translator)(nil)

// New returns a Translator for cfg.
func New(cfg Config) *Translator {
	t := &Translator{dialect: cfg.Dialect, resolver: cfg.Resolver, caps: cfg.Capabilities}
	if t.dialect == "" {
		t.dialect = DialectSQLite
	}
	if t.resolver == nil {
		t.resolver = ConventionResolver{}
	}
	if t.caps == nil {
		t.caps = DefaultCapabilities(t.dialect)
	}
	return t
}

// NewForDB returns a Translator using the dialect of db.
func NewForDB(db *gorm.DB, resolver RelationResolver) *Translator {
	cfg := Config{Resolver: resolver}
	if db != nil && db.Dialector != nil {
		cfg.Dialect = db.Dialector.Name()
	}
	if resolver == nil && db != nil && db.Config != nil && db.NamingStrategy != nil {
		cfg.Resolver = ConventionResolver{Naming: db.NamingStrategy}
	}
	return New(cfg)
}

func (t *Translator) Variant() backend.Variant {
	return backend.Relational
}

// Dialect returns the SQL dialect the translator emits.
func (t *Translator) Dialect() string {
	return t.dialect
}

// Translate compiles node into a Predicate. Every non-terminal path segment adds
// one LEFT JOIN aliased by its path prefix.
func (t *Translator) Translate(node query.Node) (Predicate, error) {
	if err := backend.Prepare(node); err != nil {
		return Predicate{}, backend.Tag(backend.Relational, err)
	}
	c := t.newCompiler()
	where, err := query.Accept[clause.Expression](node, c)
	if err != nil {
		return Predicate{}, backend.Tag(backend.Relational, err)
	}
	return Predicate{Joins: c.joins.list(), Where: where}, nil
}

func (t *Translator) newCompiler() *compiler {
	return &compiler{t: t, joins: newJoinSet()}
}

// compiler is the per-call state of a translation.
type compiler struct {
	t     *Translator
	joins *joinSet
}

// column resolves path to a column of the root table or of a joined alias.
func (c *compiler) column(path query.Path) (clause.Column, error) {
	table := c.t.resolver.Root()
	alias := clause.CurrentTable

	for i, segment := range path[:len(path)-1] {
		rel, err := c.t.resolver.Relation(table, segment)
		if err != nil {
			return clause.Column{}, err
		}
		joinAlias := strings.Join(path[:i+1], "__")
		c.joins.add(clause.Join{
			Type:  clause.LeftJoin,
			Table: clause.Table{Name: rel.Table, Alias: joinAlias},
			ON: clause.Where{Exprs: []clause.Expression{
				clause.Eq{
					Column: clause.Column{Table: alias, Name: rel.ParentColumn},
					Value:  clause.Column{Table: joinAlias, Name: rel.ChildColumn},
				},
			}},
		})
		table, alias = rel.Table, joinAlias
	}

	name, err := c.t.resolver.Column(table, path.Last())
	if err != nil {
		return clause.Column{}, err
	}
	return clause.Column{Table: alias, Name: name}, nil
}

// operand compiles a comparison operand: a column, a value function, or a bind value.
func (c *compiler) operand(node query.Node) (interface{}, error) {
	switch n := node.(type) {
	case *query.IdentifierExpr:
		return c.column(n.Path)
	case *query.LiteralExpr:
		return literalValue(n), nil
	case *query.FunctionCallExpr:
		return c.VisitFunctionCall(n)
	}
	return nil, query.NewError(query.ErrUnexpectedToken).WithDetail("%s is not a value", query.Print(node))
}

func (c *compiler) VisitBinary(e *query.BinaryExpr) (clause.Expression, error) {
	switch e.Operator {
	case query.OpAnd, query.OpOr:
		left, err := query.Accept[clause.Expression](e.Left, c)
		if err != nil {
			return nil, err
		}
		right, err := query.Accept[clause.Expression](e.Right, c)
		if err != nil {
			return nil, err
		}
		return logicalExpr{Operator: strings.ToUpper(e.Operator), Left: left, Right: right}, nil
	}

	build, ok := c.t.caps.Comparisons[e.Operator]
	if !ok {
		return nil, backend.NotSupported(backend.Relational, e.Operator)
	}
	left, err := c.operand(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.operand(e.Right)
	if err != nil {
		return nil, err
	}
	return build(left, right)
}

func (c *compiler) VisitUnary(e *query.UnaryExpr) (clause.Expression, error) {
	operand, err := query.Accept[clause.Expression](e.Operand, c)
	if err != nil {
		return nil, err
	}
	return notExpr{Expr: operand}, nil
}

func (c *compiler) VisitMembership(e *query.MembershipExpr) (clause.Expression, error) {
	build, ok := c.t.caps.Membership[e.Operator]
	if !ok {
		return nil, backend.NotSupported(backend.Relational, e.Operator)
	}
	col, err := c.column(e.Identifier.Path)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, len(e.List))
	for i, item := range e.List {
		values[i] = literalValue(item)
	}
	return build(col, values)
}

func (c *compiler) VisitCollection(e *query.CollectionExpr) (clause.Expression, error) {
	build, ok := c.t.caps.Comparisons[e.Operator]
	if !ok {
		return nil, backend.NotSupported(backend.Relational, e.Operator)
	}
	col, err := c.column(e.Identifier.Path)
	if err != nil {
		return nil, err
	}
	return build(col, literalValue(e.Value))
}

func (c *compiler) VisitFunctionCall(e *query.FunctionCallExpr) (clause.Expression, error) {
	build, ok := c.t.caps.Functions[e.Name]
	if !ok {
		return nil, backend.UnknownFunction(backend.Relational, e.Name)
	}
	col, err := c.column(e.Identifier.Path)
	if err != nil {
		return nil, err
	}
	args := make([]interface{}, len(e.Args))
	for i, arg := range e.Args {
		args[i] = literalValue(arg)
	}
	return build(col, args)
}

// VisitIdentifier handles a bare boolean property.
func (c *compiler) VisitIdentifier(e *query.IdentifierExpr) (clause.Expression, error) {
	col, err := c.column(e.Path)
	if err != nil {
		return nil, err
	}
	return clause.Expr{SQL: "? = ?", Vars: []interface{}{col, true}}, nil
}

func (c *compiler) VisitLiteral(e *query.LiteralExpr) (clause.Expression, error) {
	return nil, query.NewError(query.ErrUnexpectedToken).WithDetail("literal %s is not a predicate", query.FormatLiteral(e))
}

// literalValue maps a literal onto the value bound to the statement. Durations
// follow gorm's int64 nanosecond storage; decimals become float64 when exact.
func literalValue(lit *query.LiteralExpr) interface{} {
	switch v := lit.Value.(type) {
	case time.Duration:
		return int64(v)
	case decimal.Decimal:
		if f, exact := v.Float64(); exact {
			return f
		}
		return v
	}
	return lit.Value
}
