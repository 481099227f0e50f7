package query

import "strings"

// parseOrderBy parses the $orderby query option: a comma-separated list of
// "path [asc|desc]" items. The direction defaults to asc and is case-sensitive.
// Empty items are skipped.
func parseOrderBy(orderByStr string) ([]OrderByItem, error) {
	parts := strings.Split(orderByStr, ",")
	result := make([]OrderByItem, 0, len(parts))

	for _, part := range parts {
		tokens := strings.Fields(part)
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) > 2 {
			e := NewError(ErrUnexpectedToken)
			e.Token = tokens[2]
			return nil, e
		}

		path, err := parsePath(tokens[0])
		if err != nil {
			return nil, err
		}
		item := OrderByItem{Path: path, Direction: Ascending}

		if len(tokens) == 2 {
			switch Direction(tokens[1]) {
			case Ascending:
			case Descending:
				item.Direction = Descending
			default:
				e := NewError(ErrInvalidOrderDirection)
				e.Token = tokens[1]
				return nil, e
			}
		}

		result = append(result, item)
	}

	return result, nil
}
