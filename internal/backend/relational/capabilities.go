package relational

import (
	"github.com/nlstn/go-odata-query/internal/query"
	"gorm.io/gorm/clause"
)

// Dialect names as reported by gorm.Dialector.Name().
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// An operand is a clause.Column, a clause.Expression, or a plain bind value.
// A nil operand stands for the null literal.

// ComparisonBuilder builds a binary comparison or the has test.
type ComparisonBuilder func(left, right interface{}) (clause.Expression, error)

// MembershipBuilder builds in and nin tests against a non-empty value list.
type MembershipBuilder func(operand interface{}, values []interface{}) (clause.Expression, error)

// FunctionBuilder builds a function call. Predicate functions return a boolean
// expression, the others a value expression usable as a comparison operand.
type FunctionBuilder func(operand interface{}, args []interface{}) (clause.Expression, error)

// Capabilities is the set of operators and functions a translator can express.
// A name missing from a map is rejected rather than translated loosely.
type Capabilities struct {
	Comparisons map[string]ComparisonBuilder
	Membership  map[string]MembershipBuilder
	Functions   map[string]FunctionBuilder
}

// DefaultCapabilities covers every registered operator and function for dialect.
// Unknown dialects get the SQLite forms.
func DefaultCapabilities(dialect string) *Capabilities {
	caps := &Capabilities{
		Comparisons: map[string]ComparisonBuilder{
			query.OpEq:  nullableComparison("=", "IS NULL"),
			query.OpNe:  nullableComparison("<>", "IS NOT NULL"),
			query.OpGt:  comparison(">"),
			query.OpGe:  comparison(">="),
			query.OpLt:  comparison("<"),
			query.OpLe:  comparison("<="),
			query.OpHas: flagsTest,
		},
		Membership: map[string]MembershipBuilder{
			query.OpIn:  membership(false),
			query.OpNin: membership(true),
		},
		Functions: map[string]FunctionBuilder{
			query.FuncStartsWith: like(false, true),
			query.FuncEndsWith:   like(true, false),
			query.FuncContains:   like(true, true),
			query.FuncToLower:    unary("LOWER"),
			query.FuncToUpper:    unary("UPPER"),
			query.FuncTrim:       unary("TRIM"),
			query.FuncLength:     unary("LENGTH"),
			query.FuncSubstring:  substring("SUBSTR(?, ?, ?)"),
			query.FuncIndexOf:    indexOf("(INSTR(?, ?) - 1)", false),
		},
	}

	switch dialect {
	case DialectPostgres:
		caps.Functions[query.FuncSubstring] = substring("SUBSTRING(? FROM ? FOR ?)")
		caps.Functions[query.FuncIndexOf] = indexOf("(POSITION(? IN ?) - 1)", true)
	case DialectMySQL:
		caps.Functions[query.FuncLength] = unary("CHAR_LENGTH")
		caps.Functions[query.FuncIndexOf] = indexOf("(LOCATE(?, ?) - 1)", true)
	}
	return caps
}

func comparison(op string) ComparisonBuilder {
	return func(left, right interface{}) (clause.Expression, error) {
		return clause.Expr{SQL: "? " + op + " ?", Vars: []interface{}{left, right}}, nil
	}
}

func nullableComparison(op, nullTest string) ComparisonBuilder {
	return func(left, right interface{}) (clause.Expression, error) {
		switch {
		case left == nil && right == nil:
			return clause.Expr{SQL: "NULL " + nullTest}, nil
		case right == nil:
			return clause.Expr{SQL: "? " + nullTest, Vars: []interface{}{left}}, nil
		case left == nil:
			return clause.Expr{SQL: "? " + nullTest, Vars: []interface{}{right}}, nil
		}
		return clause.Expr{SQL: "? " + op + " ?", Vars: []interface{}{left, right}}, nil
	}
}

// flagsTest implements has for integer flag columns: (col & v) = v.
func flagsTest(left, right interface{}) (clause.Expression, error) {
	v, ok := right.(int64)
	if !ok {
		return nil, query.NewError(query.ErrOperatorNotSupported).WithName(query.OpHas).WithDetail("requires an integer flag value")
	}
	return clause.Expr{SQL: "(? & ?) = ?", Vars: []interface{}{left, v, v}}, nil
}

// membership splits null out of the list, since IN never matches NULL.
func membership(negate bool) MembershipBuilder {
	return func(operand interface{}, values []interface{}) (clause.Expression, error) {
		var (
			present []interface{}
			hasNull bool
		)
		for _, v := range values {
			if v == nil {
				hasNull = true
				continue
			}
			present = append(present, v)
		}

		inSQL, nullSQL, join := "? IN ?", "? IS NULL", "OR"
		if negate {
			inSQL, nullSQL, join = "? NOT IN ?", "? IS NOT NULL", "AND"
		}

		switch {
		case len(present) == 0:
			return clause.Expr{SQL: nullSQL, Vars: []interface{}{operand}}, nil
		case !hasNull:
			return clause.Expr{SQL: inSQL, Vars: []interface{}{operand, present}}, nil
		}
		return logicalExpr{
			Operator: join,
			Left:     clause.Expr{SQL: inSQL, Vars: []interface{}{operand, present}},
			Right:    clause.Expr{SQL: nullSQL, Vars: []interface{}{operand}},
		}, nil
	}
}

func like(prefixWildcard, suffixWildcard bool) FunctionBuilder {
	return func(operand interface{}, args []interface{}) (clause.Expression, error) {
		return likeExpr(operand, args[0], prefixWildcard, suffixWildcard), nil
	}
}

func unary(fn string) FunctionBuilder {
	return func(operand interface{}, _ []interface{}) (clause.Expression, error) {
		return clause.Expr{SQL: fn + "(?)", Vars: []interface{}{operand}}, nil
	}
}

// substring converts the zero-based OData start into SQL's one-based position.
func substring(sql string) FunctionBuilder {
	return func(operand interface{}, args []interface{}) (clause.Expression, error) {
		start, ok := args[0].(int64)
		length, ok2 := args[1].(int64)
		if !ok || !ok2 {
			return nil, query.NewError(query.ErrNoNumericValue).WithName(query.FuncSubstring)
		}
		return clause.Expr{SQL: sql, Vars: []interface{}{operand, start + 1, length}}, nil
	}
}

// indexOf yields a zero-based position, -1 when absent. needleFirst selects the
// argument order of the SQL function.
func indexOf(sql string, needleFirst bool) FunctionBuilder {
	return func(operand interface{}, args []interface{}) (clause.Expression, error) {
		vars := []interface{}{operand, args[0]}
		if needleFirst {
			vars = []interface{}{args[0], operand}
		}
		return clause.Expr{SQL: sql, Vars: vars}, nil
	}
}
