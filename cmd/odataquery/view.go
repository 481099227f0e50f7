package main

import (
	odata "github.com/nlstn/go-odata-query"
)

type orderView struct {
	Path      string `json:"path" yaml:"path"`
	Direction string `json:"direction" yaml:"direction"`
}

type optionsView struct {
	Filter  string      `json:"filter,omitempty" yaml:"filter,omitempty"`
	Tree    *treeNode   `json:"tree,omitempty" yaml:"tree,omitempty"`
	Select  []string    `json:"select,omitempty" yaml:"select,omitempty"`
	Expand  []string    `json:"expand,omitempty" yaml:"expand,omitempty"`
	OrderBy []orderView `json:"orderby,omitempty" yaml:"orderby,omitempty"`
	Search  *string     `json:"search,omitempty" yaml:"search,omitempty"`
	Top     *int        `json:"top,omitempty" yaml:"top,omitempty"`
	Skip    *int        `json:"skip,omitempty" yaml:"skip,omitempty"`
	Count   bool        `json:"count,omitempty" yaml:"count,omitempty"`
	Format  string      `json:"format,omitempty" yaml:"format,omitempty"`
}

func newOptionsView(opts *odata.QueryOptions) optionsView {
	v := optionsView{
		Select: pathStrings(opts.Select),
		Expand: pathStrings(opts.Expand),
		Search: opts.Search,
		Top:    opts.Top,
		Skip:   opts.Skip,
		Count:  opts.Count,
		Format: string(opts.Format),
	}
	if opts.Filter != nil {
		v.Filter = odata.PrintFilter(opts.Filter)
		// The tree was validated by the parser, so building the view cannot fail.
		v.Tree, _ = odata.Accept[*treeNode](opts.Filter, treeBuilder{})
	}
	for _, item := range opts.OrderBy {
		v.OrderBy = append(v.OrderBy, orderView{Path: item.Path.String(), Direction: string(item.Direction)})
	}
	return v
}

func pathStrings(paths []odata.Path) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}

// treeNode is the printable shape of a filter node.
type treeNode struct {
	Node     string      `json:"node" yaml:"node"`
	Operator string      `json:"operator,omitempty" yaml:"operator,omitempty"`
	Function string      `json:"function,omitempty" yaml:"function,omitempty"`
	Path     string      `json:"path,omitempty" yaml:"path,omitempty"`
	Kind     string      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Value    string      `json:"value,omitempty" yaml:"value,omitempty"`
	Children []*treeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

type treeBuilder struct{}

func (b treeBuilder) visit(node odata.Node) (*treeNode, error) {
	return odata.Accept[*treeNode](node, b)
}

func (b treeBuilder) literals(list []*odata.LiteralExpr) []*treeNode {
	out := make([]*treeNode, len(list))
	for i, item := range list {
		out[i], _ = b.VisitLiteral(item)
	}
	return out
}

func (b treeBuilder) VisitBinary(e *odata.BinaryExpr) (*treeNode, error) {
	left, err := b.visit(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.visit(e.Right)
	if err != nil {
		return nil, err
	}
	return &treeNode{Node: "binary", Operator: e.Operator, Children: []*treeNode{left, right}}, nil
}

func (b treeBuilder) VisitUnary(e *odata.UnaryExpr) (*treeNode, error) {
	operand, err := b.visit(e.Operand)
	if err != nil {
		return nil, err
	}
	return &treeNode{Node: "unary", Operator: e.Operator, Children: []*treeNode{operand}}, nil
}

func (b treeBuilder) VisitMembership(e *odata.MembershipExpr) (*treeNode, error) {
	ident, _ := b.VisitIdentifier(e.Identifier)
	return &treeNode{Node: "membership", Operator: e.Operator, Children: append([]*treeNode{ident}, b.literals(e.List)...)}, nil
}

func (b treeBuilder) VisitCollection(e *odata.CollectionExpr) (*treeNode, error) {
	ident, _ := b.VisitIdentifier(e.Identifier)
	value, _ := b.VisitLiteral(e.Value)
	return &treeNode{Node: "collection", Operator: e.Operator, Children: []*treeNode{ident, value}}, nil
}

func (b treeBuilder) VisitFunctionCall(e *odata.FunctionCallExpr) (*treeNode, error) {
	ident, _ := b.VisitIdentifier(e.Identifier)
	return &treeNode{Node: "function", Function: e.Name, Children: append([]*treeNode{ident}, b.literals(e.Args)...)}, nil
}

func (b treeBuilder) VisitIdentifier(e *odata.IdentifierExpr) (*treeNode, error) {
	return &treeNode{Node: "identifier", Path: e.Path.String()}, nil
}

func (b treeBuilder) VisitLiteral(e *odata.LiteralExpr) (*treeNode, error) {
	return &treeNode{Node: "literal", Kind: e.Kind.String(), Value: odata.PrintFilter(e)}, nil
}
