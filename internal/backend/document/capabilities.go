package document

import (
	"fmt"
	"regexp"

	"github.com/nlstn/go-odata-query/internal/query"
	"go.mongodb.org/mongo-driver/bson"
)

// PredicateBuilder builds a boolean function as a query filter on field.
type PredicateBuilder func(field string, args []interface{}) (bson.M, error)

// TransformBuilder builds a value function as an aggregation expression over
// fieldRef ("$path"). Transforms are used inside $expr comparisons.
type TransformBuilder func(fieldRef string, args []interface{}) (interface{}, error)

// Capabilities is the set of operators and functions a translator can express.
// Operators maps comparison, membership and has operators to MongoDB query
// operators; a name missing from a map is rejected.
type Capabilities struct {
	Operators  map[string]string
	Predicates map[string]PredicateBuilder
	Transforms map[string]TransformBuilder
}

// DefaultCapabilities maps every registered operator and every string function
// except indexof.
func DefaultCapabilities() *Capabilities {
	return &Capabilities{
		Operators: map[string]string{
			query.OpEq:  "$eq",
			query.OpNe:  "$ne",
			query.OpGt:  "$gt",
			query.OpGe:  "$gte",
			query.OpLt:  "$lt",
			query.OpLe:  "$lte",
			query.OpIn:  "$in",
			query.OpNin: "$nin",
			query.OpHas: "$eq",
		},
		Predicates: map[string]PredicateBuilder{
			query.FuncStartsWith: regexPredicate("^", ""),
			query.FuncEndsWith:   regexPredicate("", "$"),
			query.FuncContains:   regexPredicate("", ""),
		},
		Transforms: map[string]TransformBuilder{
			query.FuncToLower: func(ref string, _ []interface{}) (interface{}, error) {
				return bson.M{"$toLower": ref}, nil
			},
			query.FuncToUpper: func(ref string, _ []interface{}) (interface{}, error) {
				return bson.M{"$toUpper": ref}, nil
			},
			query.FuncTrim: func(ref string, _ []interface{}) (interface{}, error) {
				return bson.M{"$trim": bson.M{"input": ref}}, nil
			},
			query.FuncLength: func(ref string, _ []interface{}) (interface{}, error) {
				return bson.M{"$strLenCP": ref}, nil
			},
			query.FuncSubstring: func(ref string, args []interface{}) (interface{}, error) {
				return bson.M{"$substrCP": bson.A{ref, args[0], args[1]}}, nil
			},
		},
	}
}

// regexPredicate anchors the quoted argument; regex metacharacters in the
// argument match literally.
func regexPredicate(prefix, suffix string) PredicateBuilder {
	return func(field string, args []interface{}) (bson.M, error) {
		pattern := prefix + regexp.QuoteMeta(fmt.Sprint(args[0])) + suffix
		return bson.M{field: bson.M{"$regex": pattern}}, nil
	}
}
