// Package document translates filter trees into MongoDB query filters.
package document

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nlstn/go-odata-query/internal/backend"
	"github.com/nlstn/go-odata-query/internal/query"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PathResolver maps an OData path onto a document field reference.
type PathResolver func(query.Path) string

// DottedPath joins the segments with '.', the MongoDB embedded-field notation.
func DottedPath(p query.Path) string {
	return strings.Join(p, ".")
}

// Config configures a Translator. Zero fields take defaults.
type Config struct {
	Resolver     PathResolver
	Capabilities *Capabilities
}

// Translator compiles filters into bson.M query documents.
type Translator struct {
	resolver PathResolver
	caps     *Capabilities
}

var _ backend.Translator[bson.M] = (*Translator)(nil)

// New returns a Translator for cfg.
func New(cfg Config) *Translator {
	t := &Translator{resolver: cfg.Resolver, caps: cfg.Capabilities}
	if t.resolver == nil {
		t.resolver = DottedPath
	}
	if t.caps == nil {
		t.caps = DefaultCapabilities()
	}
	return t
}

func (t *Translator) Variant() backend.Variant {
	return backend.Document
}

// Translate compiles node into a query filter.
func (t *Translator) Translate(node query.Node) (bson.M, error) {
	if err := backend.Prepare(node); err != nil {
		return nil, backend.Tag(backend.Document, err)
	}
	filter, err := query.Accept[bson.M](node, t)
	if err != nil {
		return nil, backend.Tag(backend.Document, err)
	}
	return filter, nil
}

func (t *Translator) field(ident *query.IdentifierExpr) string {
	return t.resolver(ident.Path)
}

// mirrored flips a comparison so the field can stay on the left.
var mirrored = map[string]string{
	"$gt":  "$lt",
	"$gte": "$lte",
	"$lt":  "$gt",
	"$lte": "$gte",
}

func (t *Translator) VisitBinary(e *query.BinaryExpr) (bson.M, error) {
	switch e.Operator {
	case query.OpAnd, query.OpOr:
		left, err := query.Accept[bson.M](e.Left, t)
		if err != nil {
			return nil, err
		}
		right, err := query.Accept[bson.M](e.Right, t)
		if err != nil {
			return nil, err
		}
		return bson.M{"$" + e.Operator: bson.A{left, right}}, nil
	}

	op, ok := t.caps.Operators[e.Operator]
	if !ok {
		return nil, backend.NotSupported(backend.Document, e.Operator)
	}

	leftIdent, leftIsIdent := e.Left.(*query.IdentifierExpr)
	rightIdent, rightIsIdent := e.Right.(*query.IdentifierExpr)
	leftLit, leftIsLit := e.Left.(*query.LiteralExpr)
	rightLit, rightIsLit := e.Right.(*query.LiteralExpr)

	switch {
	case leftIsIdent && rightIsLit:
		v, err := literalValue(rightLit)
		if err != nil {
			return nil, err
		}
		return bson.M{t.field(leftIdent): bson.M{op: v}}, nil
	case leftIsLit && rightIsIdent:
		v, err := literalValue(leftLit)
		if err != nil {
			return nil, err
		}
		if m, ok := mirrored[op]; ok {
			op = m
		}
		return bson.M{t.field(rightIdent): bson.M{op: v}}, nil
	}

	left, err := t.exprOperand(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := t.exprOperand(e.Right)
	if err != nil {
		return nil, err
	}
	return bson.M{"$expr": bson.M{op: bson.A{left, right}}}, nil
}

// exprOperand renders a comparison operand in aggregation syntax.
func (t *Translator) exprOperand(node query.Node) (interface{}, error) {
	switch n := node.(type) {
	case *query.IdentifierExpr:
		return "$" + t.field(n), nil
	case *query.LiteralExpr:
		v, err := literalValue(n)
		if err != nil {
			return nil, err
		}
		// Strings starting with '$' would read as field paths.
		if s, ok := v.(string); ok && strings.HasPrefix(s, "$") {
			return bson.M{"$literal": s}, nil
		}
		return v, nil
	case *query.FunctionCallExpr:
		build, ok := t.caps.Transforms[n.Name]
		if !ok {
			return nil, backend.UnknownFunction(backend.Document, n.Name)
		}
		args, err := literalValues(n.Args)
		if err != nil {
			return nil, err
		}
		return build("$"+t.field(n.Identifier), args)
	}
	return nil, query.NewError(query.ErrUnexpectedToken).WithDetail("%s is not a value", query.Print(node))
}

func (t *Translator) VisitUnary(e *query.UnaryExpr) (bson.M, error) {
	operand, err := query.Accept[bson.M](e.Operand, t)
	if err != nil {
		return nil, err
	}
	return bson.M{"$nor": bson.A{operand}}, nil
}

func (t *Translator) VisitMembership(e *query.MembershipExpr) (bson.M, error) {
	op, ok := t.caps.Operators[e.Operator]
	if !ok {
		return nil, backend.NotSupported(backend.Document, e.Operator)
	}
	values, err := literalValues(e.List)
	if err != nil {
		return nil, err
	}
	return bson.M{t.field(e.Identifier): bson.M{op: bson.A(values)}}, nil
}

// VisitCollection matches an array element equal to the value, or all bits of an
// integer flag value.
func (t *Translator) VisitCollection(e *query.CollectionExpr) (bson.M, error) {
	op, ok := t.caps.Operators[e.Operator]
	if !ok {
		return nil, backend.NotSupported(backend.Document, e.Operator)
	}
	v, err := literalValue(e.Value)
	if err != nil {
		return nil, err
	}
	if _, isInt := v.(int64); isInt {
		op = "$bitsAllSet"
	}
	return bson.M{t.field(e.Identifier): bson.M{op: v}}, nil
}

func (t *Translator) VisitFunctionCall(e *query.FunctionCallExpr) (bson.M, error) {
	build, ok := t.caps.Predicates[e.Name]
	if !ok {
		return nil, backend.UnknownFunction(backend.Document, e.Name)
	}
	args, err := literalValues(e.Args)
	if err != nil {
		return nil, err
	}
	return build(t.field(e.Identifier), args)
}

// VisitIdentifier handles a bare boolean property.
func (t *Translator) VisitIdentifier(e *query.IdentifierExpr) (bson.M, error) {
	return bson.M{t.field(e): true}, nil
}

func (t *Translator) VisitLiteral(e *query.LiteralExpr) (bson.M, error) {
	return nil, query.NewError(query.ErrUnexpectedToken).WithDetail("literal %s is not a predicate", query.FormatLiteral(e))
}

// literalValue maps a literal onto its BSON representation: decimals as
// Decimal128, GUIDs as UUID binaries, times as BSON dates and durations as
// milliseconds.
func literalValue(lit *query.LiteralExpr) (interface{}, error) {
	switch v := lit.Value.(type) {
	case decimal.Decimal:
		d, err := primitive.ParseDecimal128(v.String())
		if err != nil {
			return nil, query.NewError(query.ErrNoNumericValue).WithDetail("%s does not fit a decimal128", v.String())
		}
		return d, nil
	case uuid.UUID:
		return primitive.Binary{Subtype: bson.TypeBinaryUUID, Data: v[:]}, nil
	case time.Time:
		return primitive.NewDateTimeFromTime(v), nil
	case time.Duration:
		return v.Milliseconds(), nil
	}
	return lit.Value, nil
}

func literalValues(list []*query.LiteralExpr) ([]interface{}, error) {
	values := make([]interface{}, len(list))
	for i, item := range list {
		v, err := literalValue(item)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
