package query

import "strings"

// ASTParser parses filter expressions into an AST by precedence climbing.
type ASTParser struct {
	tokens   []*Token
	current  int
	registry *Registry
}

// NewASTParser creates a new AST parser
func NewASTParser(tokens []*Token) *ASTParser {
	return &ASTParser{
		tokens:   tokens,
		current:  0,
		registry: defaultRegistry,
	}
}

// ParseFilter tokenizes and parses a $filter expression.
func ParseFilter(text string) (Node, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	return NewASTParser(tokens).Parse()
}

// currentToken returns the current token
func (p *ASTParser) currentToken() *Token {
	if p.current >= len(p.tokens) {
		pos := 0
		if n := len(p.tokens); n > 0 {
			pos = p.tokens[n-1].Pos
		}
		return &Token{Type: TokenEOF, Pos: pos}
	}
	return p.tokens[p.current]
}

func (p *ASTParser) peekToken() *Token {
	if p.current+1 >= len(p.tokens) {
		return &Token{Type: TokenEOF}
	}
	return p.tokens[p.current+1]
}

// advance moves to the next token
func (p *ASTParser) advance() *Token {
	token := p.currentToken()
	if p.current < len(p.tokens) {
		p.current++
	}
	return token
}

func unexpectedToken(tok *Token) *Error {
	if tok.Type == TokenEOF {
		return newError(ErrUnexpectedEndOfExpression, tok.Pos)
	}
	err := newError(ErrUnexpectedToken, tok.Pos)
	err.Token = tok.Value
	return err
}

// Parse parses the tokens into an AST. The result is always a boolean expression.
func (p *ASTParser) Parse() (Node, error) {
	start := p.currentToken()
	node, err := p.parseExpression(PrecedenceOr)
	if err != nil {
		return nil, err
	}

	if tok := p.currentToken(); tok.Type != TokenEOF {
		if tok.Type == TokenRParen {
			return nil, newError(ErrOpeningParenthesisExpected, tok.Pos)
		}
		return nil, unexpectedToken(tok)
	}

	if !IsBoolean(node) {
		return nil, unexpectedToken(start).WithDetail("filter must be a boolean expression")
	}
	return node, nil
}

// parseExpression parses operators binding at least as tightly as minPrec.
func (p *ASTParser) parseExpression(minPrec int) (Node, error) {
	start := p.currentToken()
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		opTok := p.currentToken()
		if opTok.Type != TokenOperator {
			return left, nil
		}
		spec, err := p.registry.LookupOperator(opTok.Value)
		if err != nil {
			return nil, err
		}
		if spec.Class == ClassUnary || spec.Precedence < minPrec {
			return left, nil
		}
		p.advance()

		switch spec.Class {
		case ClassLogical:
			left, err = p.parseLogical(spec, left, start)
		case ClassComparison:
			left, err = p.parseComparison(spec, left, start)
		case ClassMembership:
			left, err = p.parseMembership(spec, left, start)
		case ClassCollection:
			left, err = p.parseCollection(spec, left, start)
		}
		if err != nil {
			return nil, err
		}
	}
}

func operandError(tok *Token, op, detail string) *Error {
	return unexpectedToken(tok).WithName(op).WithDetail("%s", detail)
}

func (p *ASTParser) parseLogical(spec OperatorSpec, left Node, leftTok *Token) (Node, error) {
	if !IsBoolean(left) {
		return nil, operandError(leftTok, spec.Name, "operand must be a boolean expression")
	}
	rightTok := p.currentToken()
	right, err := p.parseExpression(spec.Precedence + 1)
	if err != nil {
		return nil, err
	}
	if !IsBoolean(right) {
		return nil, operandError(rightTok, spec.Name, "operand must be a boolean expression")
	}
	return &BinaryExpr{Operator: spec.Name, Left: left, Right: right}, nil
}

func (p *ASTParser) parseComparison(spec OperatorSpec, left Node, leftTok *Token) (Node, error) {
	if !IsValue(left) {
		return nil, operandError(leftTok, spec.Name, "operand must be a value")
	}
	rightTok := p.currentToken()
	right, err := p.parseExpression(spec.Precedence + 1)
	if err != nil {
		return nil, err
	}
	if !IsValue(right) {
		return nil, operandError(rightTok, spec.Name, "operand must be a value")
	}
	return &BinaryExpr{Operator: spec.Name, Left: left, Right: right}, nil
}

func (p *ASTParser) parseMembership(spec OperatorSpec, left Node, leftTok *Token) (Node, error) {
	ident, ok := left.(*IdentifierExpr)
	if !ok {
		return nil, operandError(leftTok, spec.Name, "left operand must be a property")
	}
	list, err := p.parseLiteralList(spec.Name)
	if err != nil {
		return nil, err
	}
	return &MembershipExpr{Operator: spec.Name, Identifier: ident, List: list}, nil
}

func (p *ASTParser) parseCollection(spec OperatorSpec, left Node, leftTok *Token) (Node, error) {
	ident, ok := left.(*IdentifierExpr)
	if !ok {
		return nil, operandError(leftTok, spec.Name, "left operand must be a property")
	}
	valueTok := p.currentToken()
	if !valueTok.IsLiteral() {
		return nil, operandError(valueTok, spec.Name, "right operand must be a literal")
	}
	value, err := literalFromToken(p.advance())
	if err != nil {
		return nil, err
	}
	if value.IsNull() {
		return nil, newError(ErrUnexpectedNullLiteral, valueTok.Pos).WithName(spec.Name)
	}
	return &CollectionExpr{Operator: spec.Name, Identifier: ident, Value: value}, nil
}

// parseLiteralList parses ('a','b') or ['a','b']. The closer must match the opener.
func (p *ASTParser) parseLiteralList(op string) ([]*LiteralExpr, error) {
	open := p.currentToken()
	var closer TokenType
	switch open.Type {
	case TokenLParen:
		closer = TokenRParen
	case TokenListOpen:
		closer = TokenListClose
	default:
		return nil, newError(ErrOpeningParenthesisExpected, open.Pos).WithName(op)
	}
	p.advance()

	if p.currentToken().Type == closer {
		return nil, newError(ErrUnexpectedEmptyArguments, open.Pos).WithName(op)
	}

	var list []*LiteralExpr
	for {
		tok := p.currentToken()
		if tok.Type == TokenEOF {
			return nil, newError(ErrMissingClosingParenthesis, open.Pos)
		}
		if !tok.IsLiteral() {
			return nil, operandError(tok, op, "list items must be literals")
		}
		lit, err := literalFromToken(p.advance())
		if err != nil {
			return nil, err
		}
		list = append(list, lit)

		switch next := p.currentToken(); next.Type {
		case TokenComma:
			p.advance()
		case closer:
			p.advance()
			return list, nil
		case TokenEOF:
			return nil, newError(ErrMissingClosingParenthesis, open.Pos)
		default:
			return nil, unexpectedToken(next).withKind(ErrCommaOrClosingParenthesisExpected)
		}
	}
}

// parseUnary handles the prefix not operator, which is right-associative.
func (p *ASTParser) parseUnary() (Node, error) {
	tok := p.currentToken()
	if tok.Type != TokenOperator || tok.Value != OpNot {
		return p.parsePrimary()
	}
	p.advance()

	operandTok := p.currentToken()
	operand, err := p.parseExpression(PrecedenceNot)
	if err != nil {
		return nil, err
	}
	if !IsBoolean(operand) {
		return nil, operandError(operandTok, OpNot, "operand must be a boolean expression")
	}
	return &UnaryExpr{Operator: OpNot, Operand: operand}, nil
}

// parsePrimary handles literals, identifiers, function calls and parenthesized groups
func (p *ASTParser) parsePrimary() (Node, error) {
	tok := p.currentToken()

	switch {
	case tok.Type == TokenLParen:
		return p.parseGroup()
	case tok.Type == TokenFunction:
		return p.parseFunctionCall()
	case tok.Type == TokenIdentifier:
		next := p.peekToken()
		if next.Type == TokenLParen && next.Pos == tok.Pos+len(tok.Value) {
			return nil, newError(ErrUnknownFunction, tok.Pos).WithName(tok.Value)
		}
		p.advance()
		return identifierFromToken(tok)
	case tok.IsLiteral():
		p.advance()
		return literalFromToken(tok)
	}

	return nil, unexpectedToken(tok)
}

func (p *ASTParser) parseGroup() (Node, error) {
	open := p.advance()
	node, err := p.parseExpression(PrecedenceOr)
	if err != nil {
		return nil, err
	}
	if p.currentToken().Type != TokenRParen {
		if tok := p.currentToken(); tok.Type != TokenEOF {
			return nil, unexpectedToken(tok)
		}
		return nil, newError(ErrMissingClosingParenthesis, open.Pos)
	}
	p.advance()
	return node, nil
}

// identifierFromToken splits an identifier lexeme into its path segments.
func identifierFromToken(tok *Token) (*IdentifierExpr, error) {
	path := Path(strings.Split(tok.Value, "/"))
	for _, segment := range path {
		if segment == "" {
			err := newError(ErrUnexpectedNullIdentifier, tok.Pos)
			err.Token = tok.Value
			return nil, err
		}
	}
	return &IdentifierExpr{Path: path}, nil
}

// parseFunctionCall parses name(identifier, literal...). Argument count is checked
// before argument kinds.
func (p *ASTParser) parseFunctionCall() (Node, error) {
	nameTok := p.advance()
	spec, err := p.registry.LookupFunction(nameTok.Value)
	if err != nil {
		return nil, err
	}

	open := p.currentToken()
	if open.Type != TokenLParen {
		return nil, newError(ErrOpeningParenthesisExpected, open.Pos).WithName(spec.Name)
	}
	p.advance()

	var args []Node
	var argToks []*Token
	if p.currentToken().Type == TokenRParen {
		p.advance()
	} else {
		for {
			argTok := p.currentToken()
			if argTok.Type == TokenEOF {
				return nil, newError(ErrMissingClosingParenthesis, open.Pos)
			}
			arg, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			argToks = append(argToks, argTok)

			next := p.currentToken()
			if next.Type == TokenComma {
				p.advance()
				continue
			}
			if next.Type == TokenRParen {
				p.advance()
				break
			}
			if next.Type == TokenEOF {
				return nil, newError(ErrMissingClosingParenthesis, open.Pos)
			}
			return nil, unexpectedToken(next).withKind(ErrCommaOrClosingParenthesisExpected)
		}
	}

	if len(args) != spec.Arity {
		err := newError(ErrUnexpectedNumberOfArguments, nameTok.Pos).WithName(spec.Name)
		err.Expected = spec.Arity
		err.Actual = len(args)
		return nil, err
	}

	call := &FunctionCallExpr{Name: spec.Name}
	switch first := args[0].(type) {
	case *IdentifierExpr:
		call.Identifier = first
	case *LiteralExpr:
		if first.IsNull() {
			return nil, newError(ErrUnexpectedNullIdentifier, argToks[0].Pos).WithName(spec.Name)
		}
		return nil, operandError(argToks[0], spec.Name, "first argument must be a property")
	default:
		return nil, operandError(argToks[0], spec.Name, "first argument must be a property")
	}

	for i, arg := range args[1:] {
		argTok := argToks[i+1]
		lit, ok := arg.(*LiteralExpr)
		if !ok {
			return nil, operandError(argTok, spec.Name, "argument must be a literal")
		}
		if lit.IsNull() {
			return nil, newError(ErrUnexpectedNullLiteral, argTok.Pos).WithName(spec.Name)
		}
		if err := checkArgument(spec, spec.Args[i], lit, argTok); err != nil {
			return nil, err
		}
		call.Args = append(call.Args, lit)
	}

	return call, nil
}

func checkArgument(spec FunctionSpec, kind ArgKind, lit *LiteralExpr, tok *Token) error {
	if kind != ArgNonNegativeInt {
		return nil
	}
	n, ok := lit.Value.(int64)
	if !ok {
		return newError(ErrNoNumericValue, tok.Pos).WithName(spec.Name)
	}
	if n < 0 {
		return newError(ErrNoPositiveValue, tok.Pos).WithName(spec.Name)
	}
	return nil
}
