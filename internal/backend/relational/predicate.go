package relational

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Predicate is the relational form of a filter: the LEFT JOINs that nested paths
// need and a WHERE expression referencing the joined aliases.
type Predicate struct {
	Joins []clause.Join
	Where clause.Expression
}

// Scope returns a gorm scope adding the predicate to a statement.
//
//	db.Model(&User{}).Scopes(pred.Scope()).Find(&users)
func (p Predicate) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(p.Joins) > 0 {
			db = db.Clauses(clause.From{Joins: p.Joins})
		}
		if p.Where != nil {
			db = db.Clauses(clause.Where{Exprs: []clause.Expression{p.Where}})
		}
		return db
	}
}

// logicalExpr renders (left AND right) or (left OR right).
type logicalExpr struct {
	Operator string
	Left     clause.Expression
	Right    clause.Expression
}

func (e logicalExpr) Build(builder clause.Builder) {
	builder.WriteByte('(')
	e.Left.Build(builder)
	builder.WriteByte(' ')
	builder.WriteString(e.Operator)
	builder.WriteByte(' ')
	e.Right.Build(builder)
	builder.WriteByte(')')
}

// notExpr renders NOT (expr).
type notExpr struct {
	Expr clause.Expression
}

func (e notExpr) Build(builder clause.Builder) {
	builder.WriteString("NOT (")
	e.Expr.Build(builder)
	builder.WriteByte(')')
}

// joinSet collects LEFT JOINs keyed by alias, in first-use order.
type joinSet struct {
	joins []clause.Join
	seen  map[string]struct{}
}

func newJoinSet() *joinSet {
	return &joinSet{seen: make(map[string]struct{})}
}

func (s *joinSet) add(join clause.Join) {
	if _, ok := s.seen[join.Table.Alias]; ok {
		return
	}
	s.seen[join.Table.Alias] = struct{}{}
	s.joins = append(s.joins, join)
}

func (s *joinSet) list() []clause.Join {
	if len(s.joins) == 0 {
		return nil
	}
	return append([]clause.Join(nil), s.joins...)
}
