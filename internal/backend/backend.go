// Package backend defines the contract shared by filter translators. Each variant
// compiles a validated filter tree into its native predicate form.
package backend

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/nlstn/go-odata-query/internal/query"
)

// Variant identifies the query model a translator targets.
type Variant int

const (
	Relational Variant = iota + 1
	Document
)

func (v Variant) String() string {
	switch v {
	case Relational:
		return "relational"
	case Document:
		return "document"
	}
	return "variant(" + strconv.Itoa(int(v)) + ")"
}

// Translator compiles a filter tree into a native predicate of type T.
// Implementations hold only immutable configuration and are safe for concurrent use.
type Translator[T any] interface {
	Variant() Variant
	Translate(node query.Node) (T, error)
}

// Prepare rejects an absent filter and checks the structural invariants of node.
func Prepare(node query.Node) error {
	if node == nil {
		return query.NewError(query.ErrUnexpectedNullFilters)
	}
	return query.Validate(node)
}

// NotSupported reports an operator the variant cannot express.
func NotSupported(v Variant, operator string) *query.Error {
	return query.NewError(query.ErrOperatorNotSupported).WithName(operator).WithBackend(v.String())
}

// UnknownFunction reports a registered function the variant has no mapping for.
func UnknownFunction(v Variant, name string) *query.Error {
	return query.NewError(query.ErrUnknownFunction).WithName(name).WithBackend(v.String())
}

// Tag stamps the variant on a *query.Error that does not carry a backend yet.
// Other errors pass through unchanged.
func Tag(v Variant, err error) error {
	if qerr, ok := err.(*query.Error); ok && qerr.Backend == "" {
		return qerr.WithBackend(v.String())
	}
	return err
}

// CacheKey returns a structural key for (node, variant). The core never caches;
// hosts that memoize translations outside of it key them with this value.
func CacheKey(v Variant, node query.Node) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(v.String())
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(query.Print(node))
	return d.Sum64()
}
