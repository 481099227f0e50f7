package query

// Visitor is implemented by backends that compile a filter tree into a native form T.
type Visitor[T any] interface {
	VisitBinary(*BinaryExpr) (T, error)
	VisitUnary(*UnaryExpr) (T, error)
	VisitMembership(*MembershipExpr) (T, error)
	VisitCollection(*CollectionExpr) (T, error)
	VisitFunctionCall(*FunctionCallExpr) (T, error)
	VisitIdentifier(*IdentifierExpr) (T, error)
	VisitLiteral(*LiteralExpr) (T, error)
}

// Accept dispatches node to the matching Visitor method. A nil node, including a
// typed nil pointer, fails with ErrUnexpectedNullNodeType; any type not declared in
// this package fails with ErrUnknownNodeType.
func Accept[T any](node Node, v Visitor[T]) (T, error) {
	var zero T
	switch n := node.(type) {
	case nil:
		return zero, NewError(ErrUnexpectedNullNodeType)
	case *BinaryExpr:
		if n == nil {
			return zero, NewError(ErrUnexpectedNullNodeType)
		}
		return v.VisitBinary(n)
	case *UnaryExpr:
		if n == nil {
			return zero, NewError(ErrUnexpectedNullNodeType)
		}
		return v.VisitUnary(n)
	case *MembershipExpr:
		if n == nil {
			return zero, NewError(ErrUnexpectedNullNodeType)
		}
		return v.VisitMembership(n)
	case *CollectionExpr:
		if n == nil {
			return zero, NewError(ErrUnexpectedNullNodeType)
		}
		return v.VisitCollection(n)
	case *FunctionCallExpr:
		if n == nil {
			return zero, NewError(ErrUnexpectedNullNodeType)
		}
		return v.VisitFunctionCall(n)
	case *IdentifierExpr:
		if n == nil {
			return zero, NewError(ErrUnexpectedNullNodeType)
		}
		return v.VisitIdentifier(n)
	case *LiteralExpr:
		if n == nil {
			return zero, NewError(ErrUnexpectedNullNodeType)
		}
		return v.VisitLiteral(n)
	}
	return zero, NewError(ErrUnknownNodeType).WithDetail("%T", node)
}

// Validate checks the structural invariants the parser guarantees. Backends call it
// before translating trees that may have been built in code.
func Validate(node Node) error {
	switch n := node.(type) {
	case nil:
		return NewError(ErrUnexpectedNullNodeType)
	case *BinaryExpr:
		if n == nil {
			return NewError(ErrUnexpectedNullNodeType)
		}
		op, err := LookupOperator(n.Operator)
		if err != nil {
			return err
		}
		if op.Class != ClassLogical && op.Class != ClassComparison {
			return NewError(ErrUnknownOperator).WithName(n.Operator).WithDetail("not a binary operator")
		}
		if n.Left == nil || n.Right == nil {
			return NewError(ErrUnexpectedNullOperand).WithName(n.Operator)
		}
		if err := Validate(n.Left); err != nil {
			return err
		}
		return Validate(n.Right)
	case *UnaryExpr:
		if n == nil {
			return NewError(ErrUnexpectedNullNodeType)
		}
		if n.Operator != OpNot {
			return NewError(ErrUnknownOperator).WithName(n.Operator)
		}
		if n.Operand == nil {
			return NewError(ErrUnexpectedNullOperand).WithName(n.Operator)
		}
		return Validate(n.Operand)
	case *MembershipExpr:
		if n == nil {
			return NewError(ErrUnexpectedNullNodeType)
		}
		if n.Operator != OpIn && n.Operator != OpNin {
			return NewError(ErrUnknownOperator).WithName(n.Operator)
		}
		if err := validateIdentifier(n.Identifier); err != nil {
			return err
		}
		if n.List == nil {
			return NewError(ErrUnexpectedNullList).WithName(n.Operator)
		}
		if len(n.List) == 0 {
			return NewError(ErrUnexpectedEmptyArguments).WithName(n.Operator)
		}
		for _, item := range n.List {
			if item == nil {
				return NewError(ErrUnexpectedNullLiteral).WithName(n.Operator)
			}
		}
		return nil
	case *CollectionExpr:
		if n == nil {
			return NewError(ErrUnexpectedNullNodeType)
		}
		if n.Operator != OpHas {
			return NewError(ErrUnknownOperator).WithName(n.Operator)
		}
		if err := validateIdentifier(n.Identifier); err != nil {
			return err
		}
		if n.Value == nil || n.Value.IsNull() {
			return NewError(ErrUnexpectedNullLiteral).WithName(n.Operator)
		}
		return nil
	case *FunctionCallExpr:
		if n == nil {
			return NewError(ErrUnexpectedNullNodeType)
		}
		if n.Name == "" {
			return NewError(ErrUnexpectedNullFunctionName)
		}
		spec, err := LookupFunction(n.Name)
		if err != nil {
			return err
		}
		if err := validateIdentifier(n.Identifier); err != nil {
			return err
		}
		if got := len(n.Args) + 1; got != spec.Arity {
			e := NewError(ErrUnexpectedNumberOfArguments).WithName(n.Name)
			e.Expected = spec.Arity
			e.Actual = got
			return e
		}
		for _, arg := range n.Args {
			if arg == nil || arg.IsNull() {
				return NewError(ErrUnexpectedNullLiteral).WithName(n.Name)
			}
		}
		return nil
	case *IdentifierExpr:
		return validateIdentifier(n)
	case *LiteralExpr:
		if n == nil {
			return NewError(ErrUnexpectedNullNodeType)
		}
		return nil
	}
	return NewError(ErrUnknownNodeType).WithDetail("%T", node)
}

func validateIdentifier(ident *IdentifierExpr) error {
	if ident == nil || len(ident.Path) == 0 {
		return NewError(ErrUnexpectedNullIdentifier)
	}
	for _, segment := range ident.Path {
		if segment == "" {
			return NewError(ErrUnexpectedNullIdentifier).WithDetail("empty segment in %q", ident.Path.String())
		}
	}
	return nil
}
