package odata

import "github.com/nlstn/go-odata-query/internal/query"

// QueryOptions is the parsed record of a query string. Fields for options that
// were not given stay at their zero value.
//
// Example:
//
//	opts, err := parser.Parse(ctx, r.URL.Query())
//	if err != nil {
//	    return err
//	}
//	if opts.Top != nil {
//	    log.Printf("client requested top %d items", *opts.Top)
//	}
//	countOpts := opts.WithoutPagination()
type QueryOptions = query.QueryOptions

// OrderByItem is one $orderby entry.
type OrderByItem = query.OrderByItem

// Direction is an $orderby direction.
type Direction = query.Direction

// Format is a $format value.
type Format = query.Format

// Path is a '/'-separated property path.
type Path = query.Path

// Filter tree node types.
type (
	Node             = query.Node
	BinaryExpr       = query.BinaryExpr
	UnaryExpr        = query.UnaryExpr
	MembershipExpr   = query.MembershipExpr
	CollectionExpr   = query.CollectionExpr
	FunctionCallExpr = query.FunctionCallExpr
	IdentifierExpr   = query.IdentifierExpr
	LiteralExpr      = query.LiteralExpr
	LiteralKind      = query.LiteralKind
)

// Visitor dispatches over filter tree nodes; see Accept.
type Visitor[T any] = query.Visitor[T]

// System query option names, as accepted by WithSupportedOptions.
const (
	OptionFilter  = query.OptionFilter
	OptionSelect  = query.OptionSelect
	OptionExpand  = query.OptionExpand
	OptionOrderBy = query.OptionOrderBy
	OptionSearch  = query.OptionSearch
	OptionTop     = query.OptionTop
	OptionSkip    = query.OptionSkip
	OptionCount   = query.OptionCount
	OptionFormat  = query.OptionFormat
)

const (
	FormatJSON = query.FormatJSON
	FormatXML  = query.FormatXML
	FormatCSV  = query.FormatCSV
	FormatTSV  = query.FormatTSV
)

// Accept dispatches node to the matching method of v.
func Accept[T any](node Node, v Visitor[T]) (T, error) {
	return query.Accept[T](node, v)
}

// PrintFilter renders node in canonical filter syntax.
func PrintFilter(node Node) string {
	return query.Print(node)
}

// EqualFilters reports whether two trees are structurally equal.
func EqualFilters(a, b Node) bool {
	return query.Equal(a, b)
}
