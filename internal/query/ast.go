package query

import "strings"

// Node represents a node in the filter abstract syntax tree. Trees are built once
// by the parser and never mutated afterwards.
type Node interface {
	astNode()
}

// Path is a '/'-separated identifier path such as user/profile/city.
type Path []string

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Last returns the terminal segment.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Clone returns a copy that shares no backing array with p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return append(Path(nil), p...)
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// BinaryExpr represents a comparison or logical expression (e.g., Price gt 100, A and B)
type BinaryExpr struct {
	Operator string
	Left     Node
	Right    Node
}

func (e *BinaryExpr) astNode() {}

// UnaryExpr represents a unary expression (e.g., not X)
type UnaryExpr struct {
	Operator string
	Operand  Node
}

func (e *UnaryExpr) astNode() {}

// MembershipExpr represents Status in ('a','b') and its nin counterpart.
type MembershipExpr struct {
	Operator   string
	Identifier *IdentifierExpr
	List       []*LiteralExpr
}

func (e *MembershipExpr) astNode() {}

// CollectionExpr represents Tags has 'x'.
type CollectionExpr struct {
	Operator   string
	Identifier *IdentifierExpr
	Value      *LiteralExpr
}

func (e *CollectionExpr) astNode() {}

// FunctionCallExpr represents a function call (e.g., contains(Name, 'text')).
// Identifier is the leading property argument; Args holds the literal arguments after it.
type FunctionCallExpr struct {
	Name       string
	Identifier *IdentifierExpr
	Args       []*LiteralExpr
}

func (e *FunctionCallExpr) astNode() {}

// IdentifierExpr represents a property path
type IdentifierExpr struct {
	Path Path
}

func (e *IdentifierExpr) astNode() {}

// LiteralKind tags the Go type held by LiteralExpr.Value.
type LiteralKind int

const (
	LiteralString   LiteralKind = iota + 1 // string
	LiteralInt                             // int64
	LiteralFloat                           // decimal.Decimal
	LiteralBool                            // bool
	LiteralNull                            // nil
	LiteralDate                            // time.Time, midnight UTC
	LiteralDateTime                        // time.Time
	LiteralDuration                        // time.Duration
	LiteralGUID                            // uuid.UUID
)

var literalKindNames = map[LiteralKind]string{
	LiteralString:   "string",
	LiteralInt:      "int",
	LiteralFloat:    "float",
	LiteralBool:     "bool",
	LiteralNull:     "null",
	LiteralDate:     "date",
	LiteralDateTime: "datetime",
	LiteralDuration: "duration",
	LiteralGUID:     "guid",
}

func (k LiteralKind) String() string {
	if name, ok := literalKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// LiteralExpr represents a literal value
type LiteralExpr struct {
	Kind  LiteralKind
	Value interface{}
}

func (e *LiteralExpr) astNode() {}

// IsNull reports whether the literal is null.
func (e *LiteralExpr) IsNull() bool {
	return e.Kind == LiteralNull
}

// IsBoolean reports whether node evaluates to a boolean: comparisons, logical and
// unary operators, membership and collection tests, predicate functions and bare
// identifiers (boolean properties).
func IsBoolean(node Node) bool {
	switch n := node.(type) {
	case *BinaryExpr, *UnaryExpr, *MembershipExpr, *CollectionExpr, *IdentifierExpr:
		return true
	case *FunctionCallExpr:
		spec, err := LookupFunction(n.Name)
		return err == nil && spec.Boolean
	}
	return false
}

// IsValue reports whether node can be a comparison operand: identifiers, literals and
// value-returning functions.
func IsValue(node Node) bool {
	switch n := node.(type) {
	case *IdentifierExpr, *LiteralExpr:
		return true
	case *FunctionCallExpr:
		spec, err := LookupFunction(n.Name)
		return err == nil && !spec.Boolean
	}
	return false
}
