package query

import (
	"errors"
	"strings"
	"testing"
)

// nameVisitor renders node kinds, enough to observe dispatch.
type nameVisitor struct{}

func (nameVisitor) VisitBinary(e *BinaryExpr) (string, error) {
	return "binary:" + e.Operator, nil
}
func (nameVisitor) VisitUnary(e *UnaryExpr) (string, error) {
	return "unary:" + e.Operator, nil
}
func (nameVisitor) VisitMembership(e *MembershipExpr) (string, error) {
	return "membership:" + e.Operator, nil
}
func (nameVisitor) VisitCollection(e *CollectionExpr) (string, error) {
	return "collection:" + e.Operator, nil
}
func (nameVisitor) VisitFunctionCall(e *FunctionCallExpr) (string, error) {
	return "function:" + e.Name, nil
}
func (nameVisitor) VisitIdentifier(e *IdentifierExpr) (string, error) {
	return "identifier:" + e.Path.String(), nil
}
func (nameVisitor) VisitLiteral(e *LiteralExpr) (string, error) {
	return "literal:" + e.Kind.String(), nil
}

type foreignNode struct {
	*IdentifierExpr
}

func TestAccept_Dispatch(t *testing.T) {
	tests := []struct {
		node     Node
		expected string
	}{
		{mustParse(t, "a eq 1"), "binary:eq"},
		{mustParse(t, "not a"), "unary:not"},
		{mustParse(t, "a nin (1)"), "membership:nin"},
		{mustParse(t, "a has 'x'"), "collection:has"},
		{mustParse(t, "endswith(a, 'x')"), "function:endswith"},
		{NewIdentifier("a/b"), "identifier:a/b"},
		{NewLiteral(1.5), "literal:float"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got, err := Accept[string](tt.node, nameVisitor{})
			if err != nil {
				t.Fatalf("Accept failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestAccept_Errors(t *testing.T) {
	var nilBinary *BinaryExpr

	tests := []struct {
		name string
		node Node
		kind ErrorKind
	}{
		{"Nil node", nil, ErrUnexpectedNullNodeType},
		{"Typed nil", nilBinary, ErrUnexpectedNullNodeType},
		{"Foreign node", foreignNode{NewIdentifier("a")}, ErrUnknownNodeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Accept[string](tt.node, nameVisitor{})
			if !errors.Is(err, tt.kind) {
				t.Errorf("Expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		node Node
		kind ErrorKind
	}{
		{"Nil operand", &BinaryExpr{Operator: OpEq, Left: NewIdentifier("a")}, ErrUnexpectedNullOperand},
		{"Unknown operator", &BinaryExpr{Operator: "like", Left: NewIdentifier("a"), Right: NewLiteral("x")}, ErrUnknownOperator},
		{"Binary in", &BinaryExpr{Operator: OpIn, Left: NewIdentifier("a"), Right: NewLiteral(int64(1))}, ErrUnknownOperator},
		{"Binary has", &BinaryExpr{Operator: OpHas, Left: NewIdentifier("a"), Right: NewLiteral("x")}, ErrUnknownOperator},
		{"Binary not", &BinaryExpr{Operator: OpNot, Left: NewIdentifier("a"), Right: NewIdentifier("b")}, ErrUnknownOperator},
		{"Nil unary operand", &UnaryExpr{Operator: OpNot}, ErrUnexpectedNullOperand},
		{"Nil list", &MembershipExpr{Operator: OpIn, Identifier: NewIdentifier("a")}, ErrUnexpectedNullList},
		{"Empty list", &MembershipExpr{Operator: OpIn, Identifier: NewIdentifier("a"), List: []*LiteralExpr{}}, ErrUnexpectedEmptyArguments},
		{"Nil identifier", &CollectionExpr{Operator: OpHas, Value: NewLiteral("x")}, ErrUnexpectedNullIdentifier},
		{"Empty segment", &IdentifierExpr{Path: Path{"a", ""}}, ErrUnexpectedNullIdentifier},
		{"Empty function name", &FunctionCallExpr{Identifier: NewIdentifier("a")}, ErrUnexpectedNullFunctionName},
		{"Unknown function", &FunctionCallExpr{Name: "soundex", Identifier: NewIdentifier("a")}, ErrUnknownFunction},
		{"Wrong arity", &FunctionCallExpr{Name: FuncContains, Identifier: NewIdentifier("a")}, ErrUnexpectedNumberOfArguments},
		{"Null argument", &FunctionCallExpr{Name: FuncContains, Identifier: NewIdentifier("a"), Args: []*LiteralExpr{NewLiteral(nil)}}, ErrUnexpectedNullLiteral},
		{"Nested invalid", &UnaryExpr{Operator: OpNot, Operand: &BinaryExpr{Operator: OpAnd}}, ErrUnexpectedNullOperand},
		{"Foreign node", foreignNode{NewIdentifier("a")}, ErrUnknownNodeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.node); !errors.Is(err, tt.kind) {
				t.Errorf("Expected %v, got %v", tt.kind, err)
			}
		})
	}

	if err := Validate(mustParse(t, "a eq 1 and b in (1) and c has 'x' and contains(d, 'y')")); err != nil {
		t.Errorf("Expected parsed tree to validate, got %v", err)
	}
}

func TestCloneNode_Independent(t *testing.T) {
	node := mustParse(t, "a/b in (1, 2) and substring(c, 1, 2) eq 'x'")
	clone := CloneNode(node)
	if !Equal(node, clone) {
		t.Fatalf("Expected equal clone, got %s", Print(clone))
	}

	m := clone.(*BinaryExpr).Left.(*MembershipExpr)
	m.Identifier.Path[0] = "z"
	m.List[0].Value = int64(9)

	if strings.Contains(Print(node), "z/b") || strings.Contains(Print(node), "9") {
		t.Errorf("Original changed: %s", Print(node))
	}
	if Equal(node, clone) {
		t.Error("Expected clone to differ after mutation")
	}
}

func TestInspect_Stop(t *testing.T) {
	node := mustParse(t, "a eq 1 and b eq 2")
	visited := 0
	Inspect(node, func(n Node) bool {
		visited++
		_, isBinary := n.(*BinaryExpr)
		return !isBinary || n == node
	})
	// Root plus its two comparison children, whose operands are skipped.
	if visited != 3 {
		t.Errorf("Expected 3 visited nodes, got %d", visited)
	}
}
