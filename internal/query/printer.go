package query

import (
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Print renders node in canonical filter syntax. Binary, membership and collection
// expressions are always parenthesized, so the output reparses to an equal tree.
func Print(node Node) string {
	var b strings.Builder
	writeNode(&b, false, node)
	return b.String()
}

// writeNode renders node into b. With utc set, date-time literals are written in
// UTC so that equal instants print alike.
func writeNode(b *strings.Builder, utc bool, node Node) {
	switch n := node.(type) {
	case *BinaryExpr:
		b.WriteByte('(')
		writeNode(b, utc, n.Left)
		b.WriteByte(' ')
		b.WriteString(n.Operator)
		b.WriteByte(' ')
		writeNode(b, utc, n.Right)
		b.WriteByte(')')
	case *UnaryExpr:
		b.WriteString(n.Operator)
		b.WriteByte(' ')
		writeNode(b, utc, n.Operand)
	case *MembershipExpr:
		b.WriteByte('(')
		writeNode(b, utc, n.Identifier)
		b.WriteByte(' ')
		b.WriteString(n.Operator)
		b.WriteString(" (")
		for i, item := range n.List {
			if i > 0 {
				b.WriteString(", ")
			}
			writeNode(b, utc, item)
		}
		b.WriteString("))")
	case *CollectionExpr:
		b.WriteByte('(')
		writeNode(b, utc, n.Identifier)
		b.WriteString(" " + n.Operator + " ")
		writeNode(b, utc, n.Value)
		b.WriteByte(')')
	case *FunctionCallExpr:
		b.WriteString(n.Name)
		b.WriteByte('(')
		writeNode(b, utc, n.Identifier)
		for _, arg := range n.Args {
			b.WriteString(", ")
			writeNode(b, utc, arg)
		}
		b.WriteByte(')')
	case *IdentifierExpr:
		if n != nil {
			b.WriteString(n.Path.String())
		}
	case *LiteralExpr:
		if n == nil {
			break
		}
		if t, ok := n.Value.(time.Time); ok && utc && n.Kind != LiteralDate {
			b.WriteString(FormatLiteral(&LiteralExpr{Kind: n.Kind, Value: t.UTC()}))
			break
		}
		b.WriteString(FormatLiteral(n))
	}
}

// Hash returns a structural hash of node. Equal trees hash equally, including
// date-times that denote the same instant in different zones, which makes it
// usable as a cache key outside this package.
func Hash(node Node) uint64 {
	var b strings.Builder
	writeNode(&b, true, node)
	return xxhash.Sum64String(b.String())
}

// Equal reports whether two trees are structurally equal. Decimal, time and duration
// literals are compared by value.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Operator == y.Operator && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Operator == y.Operator && Equal(x.Operand, y.Operand)
	case *MembershipExpr:
		y, ok := b.(*MembershipExpr)
		return ok && x.Operator == y.Operator && identEqual(x.Identifier, y.Identifier) && literalsEqual(x.List, y.List)
	case *CollectionExpr:
		y, ok := b.(*CollectionExpr)
		return ok && x.Operator == y.Operator && identEqual(x.Identifier, y.Identifier) && literalEqual(x.Value, y.Value)
	case *FunctionCallExpr:
		y, ok := b.(*FunctionCallExpr)
		return ok && x.Name == y.Name && identEqual(x.Identifier, y.Identifier) && literalsEqual(x.Args, y.Args)
	case *IdentifierExpr:
		y, ok := b.(*IdentifierExpr)
		return ok && identEqual(x, y)
	case *LiteralExpr:
		y, ok := b.(*LiteralExpr)
		return ok && literalEqual(x, y)
	}
	return false
}

func identEqual(a, b *IdentifierExpr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Path.Equal(b.Path)
}

func literalsEqual(a, b []*LiteralExpr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !literalEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func literalEqual(a, b *LiteralExpr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch x := a.Value.(type) {
	case decimal.Decimal:
		y, ok := b.Value.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.Value.(time.Time)
		return ok && x.Equal(y)
	case uuid.UUID:
		y, ok := b.Value.(uuid.UUID)
		return ok && x == y
	}
	return a.Value == b.Value
}

// Inspect traverses the tree depth-first, calling fn for every node until fn returns false.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *BinaryExpr:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *UnaryExpr:
		Inspect(n.Operand, fn)
	case *MembershipExpr:
		Inspect(n.Identifier, fn)
		for _, item := range n.List {
			Inspect(item, fn)
		}
	case *CollectionExpr:
		Inspect(n.Identifier, fn)
		Inspect(n.Value, fn)
	case *FunctionCallExpr:
		Inspect(n.Identifier, fn)
		for _, arg := range n.Args {
			Inspect(arg, fn)
		}
	}
}

// CountNodes returns the number of nodes in the tree.
func CountNodes(node Node) int {
	count := 0
	Inspect(node, func(Node) bool {
		count++
		return true
	})
	return count
}

// CloneNode returns a deep copy of node.
func CloneNode(node Node) Node {
	switch n := node.(type) {
	case *BinaryExpr:
		return &BinaryExpr{Operator: n.Operator, Left: CloneNode(n.Left), Right: CloneNode(n.Right)}
	case *UnaryExpr:
		return &UnaryExpr{Operator: n.Operator, Operand: CloneNode(n.Operand)}
	case *MembershipExpr:
		return &MembershipExpr{Operator: n.Operator, Identifier: cloneIdent(n.Identifier), List: cloneLiterals(n.List)}
	case *CollectionExpr:
		return &CollectionExpr{Operator: n.Operator, Identifier: cloneIdent(n.Identifier), Value: cloneLiteral(n.Value)}
	case *FunctionCallExpr:
		return &FunctionCallExpr{Name: n.Name, Identifier: cloneIdent(n.Identifier), Args: cloneLiterals(n.Args)}
	case *IdentifierExpr:
		return cloneIdent(n)
	case *LiteralExpr:
		return cloneLiteral(n)
	}
	return node
}

func cloneIdent(e *IdentifierExpr) *IdentifierExpr {
	if e == nil {
		return nil
	}
	return &IdentifierExpr{Path: e.Path.Clone()}
}

// Literal values are immutable, so copying the struct is a deep copy.
func cloneLiteral(e *LiteralExpr) *LiteralExpr {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func cloneLiterals(list []*LiteralExpr) []*LiteralExpr {
	if list == nil {
		return nil
	}
	out := make([]*LiteralExpr, len(list))
	for i, item := range list {
		out[i] = cloneLiteral(item)
	}
	return out
}
