package relational

import (
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

const likeEscapeClause = "ESCAPE '\\'"

var likeReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"%", "\\%",
	"_", "\\_",
)

func escapeLikePattern(value string) string {
	return likeReplacer.Replace(value)
}

// likeExpr matches operand against value with optional wildcards on either side.
// Wildcard characters inside value match literally.
func likeExpr(operand interface{}, value interface{}, prefixWildcard, suffixWildcard bool) clause.Expression {
	pattern := escapeLikePattern(fmt.Sprint(value))
	if prefixWildcard {
		pattern = "%" + pattern
	}
	if suffixWildcard {
		pattern += "%"
	}
	return clause.Expr{SQL: "? LIKE ? " + likeEscapeClause, Vars: []interface{}{operand, pattern}}
}
