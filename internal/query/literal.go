package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// literalFromToken converts a literal token into its typed value.
func literalFromToken(tok *Token) (*LiteralExpr, error) {
	switch tok.Type {
	case TokenString:
		return &LiteralExpr{Kind: LiteralString, Value: tok.Value}, nil
	case TokenBoolean:
		return &LiteralExpr{Kind: LiteralBool, Value: tok.Value == "true"}, nil
	case TokenNull:
		return &LiteralExpr{Kind: LiteralNull}, nil
	case TokenNumber:
		return parseNumberLiteral(tok)
	case TokenDate:
		return parseDateLiteral(tok)
	case TokenDuration:
		d, err := parseISODuration(tok.Value)
		if err != nil {
			return nil, invalidLiteral(tok, "invalid duration")
		}
		return &LiteralExpr{Kind: LiteralDuration, Value: d}, nil
	case TokenGUID:
		id, err := uuid.Parse(tok.Value)
		if err != nil {
			return nil, invalidLiteral(tok, "invalid guid")
		}
		return &LiteralExpr{Kind: LiteralGUID, Value: id}, nil
	}
	return nil, unexpectedToken(tok)
}

func invalidLiteral(tok *Token, detail string) *Error {
	err := newError(ErrUnexpectedToken, tok.Pos)
	err.Token = tok.Value
	err.Detail = detail
	return err
}

// parseNumberLiteral parses a number literal (integer or float). Integers that do
// not fit into int64 become floats.
func parseNumberLiteral(tok *Token) (*LiteralExpr, error) {
	value := tok.Value
	if !strings.ContainsAny(value, ".eE") {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return &LiteralExpr{Kind: LiteralInt, Value: intVal}, nil
		}
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, invalidLiteral(tok, "invalid number")
	}
	return &LiteralExpr{Kind: LiteralFloat, Value: d}, nil
}

func parseDateLiteral(tok *Token) (*LiteralExpr, error) {
	value := tok.Value
	datePart, timePart, isDateTime := strings.Cut(value, "T")
	if !isDateTime {
		t, err := time.Parse(dateLayout, value)
		if err != nil {
			return nil, invalidLiteral(tok, "invalid date")
		}
		return &LiteralExpr{Kind: LiteralDate, Value: t}, nil
	}

	zone := "Z"
	if i := strings.IndexAny(timePart, "Z+-"); i >= 0 {
		zone = timePart[i:]
		timePart = timePart[:i]
	}
	if len(timePart) == len("15:04") {
		timePart += ":00"
	}
	t, err := time.Parse(time.RFC3339, datePart+"T"+timePart+zone)
	if err != nil {
		return nil, invalidLiteral(tok, "invalid date-time")
	}
	return &LiteralExpr{Kind: LiteralDateTime, Value: t}, nil
}

var nanosPerSecond = decimal.NewFromInt(int64(time.Second))

// parseISODuration parses the day-time subset of ISO 8601 durations:
// [-]P[nD][T[nH][nM][n[.n]S]].
func parseISODuration(s string) (time.Duration, error) {
	invalid := fmt.Errorf("invalid duration %q", s)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if !strings.HasPrefix(s, "P") {
		return 0, invalid
	}
	s = s[1:]

	var total decimal.Decimal
	inTime, seen := false, false
	for len(s) > 0 {
		if s[0] == 'T' {
			if inTime || len(s) == 1 {
				return 0, invalid
			}
			inTime = true
			s = s[1:]
			continue
		}

		i := 0
		for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
			i++
		}
		if i == 0 || i == len(s) {
			return 0, invalid
		}
		n, err := decimal.NewFromString(s[:i])
		if err != nil {
			return 0, invalid
		}

		var unit time.Duration
		switch {
		case s[i] == 'D' && !inTime:
			unit = 24 * time.Hour
		case s[i] == 'H' && inTime:
			unit = time.Hour
		case s[i] == 'M' && inTime:
			unit = time.Minute
		case s[i] == 'S' && inTime:
			unit = time.Second
		default:
			return 0, invalid
		}
		total = total.Add(n.Mul(decimal.NewFromInt(int64(unit))))
		seen = true
		s = s[i+1:]
	}
	if !seen {
		return 0, invalid
	}

	d := time.Duration(total.IntPart())
	if neg {
		d = -d
	}
	return d, nil
}

// formatISODuration is the inverse of parseISODuration.
func formatISODuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')

	day := 24 * time.Hour
	days := d / day
	d -= days * day
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
		if d == 0 {
			return b.String()
		}
	}

	b.WriteByte('T')
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if d > 0 || (hours == 0 && minutes == 0) {
		b.WriteString(decimal.NewFromInt(int64(d)).Div(nanosPerSecond).String())
		b.WriteByte('S')
	}
	return b.String()
}

// FormatLiteral renders a literal in filter syntax so that it reparses to an equal value.
func FormatLiteral(lit *LiteralExpr) string {
	switch v := lit.Value.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(v, 10)
	case decimal.Decimal:
		s := v.String()
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if lit.Kind == LiteralDate {
			return v.Format(dateLayout)
		}
		return v.Format(time.RFC3339Nano)
	case time.Duration:
		return durationPrefix + formatISODuration(v) + "'"
	case uuid.UUID:
		return v.String()
	case nil:
		return "null"
	}
	return fmt.Sprintf("%v", lit.Value)
}

// NewLiteral builds a literal from a Go value. It panics on unsupported types and is
// meant for constructing trees in code.
func NewLiteral(value interface{}) *LiteralExpr {
	switch v := value.(type) {
	case nil:
		return &LiteralExpr{Kind: LiteralNull}
	case string:
		return &LiteralExpr{Kind: LiteralString, Value: v}
	case int:
		return &LiteralExpr{Kind: LiteralInt, Value: int64(v)}
	case int64:
		return &LiteralExpr{Kind: LiteralInt, Value: v}
	case float64:
		return &LiteralExpr{Kind: LiteralFloat, Value: decimal.NewFromFloat(v)}
	case decimal.Decimal:
		return &LiteralExpr{Kind: LiteralFloat, Value: v}
	case bool:
		return &LiteralExpr{Kind: LiteralBool, Value: v}
	case time.Time:
		return &LiteralExpr{Kind: LiteralDateTime, Value: v}
	case time.Duration:
		return &LiteralExpr{Kind: LiteralDuration, Value: v}
	case uuid.UUID:
		return &LiteralExpr{Kind: LiteralGUID, Value: v}
	}
	panic(fmt.Sprintf("query: unsupported literal type %T", value))
}

// NewIdentifier builds an identifier from a '/'-separated path.
func NewIdentifier(path string) *IdentifierExpr {
	return &IdentifierExpr{Path: strings.Split(path, "/")}
}
