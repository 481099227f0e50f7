package query

import (
	"net/url"
	"strconv"
	"strings"
)

// AssembleOption configures Assemble.
type AssembleOption func(*assembleConfig)

type assembleConfig struct {
	formats      []Format
	options      map[string]bool
	filterParser FilterParser
}

// FilterParser parses a $filter value into a tree.
type FilterParser func(string) (Node, error)

// WithSupportedFormats replaces the accepted $format values.
func WithSupportedFormats(formats ...Format) AssembleOption {
	return func(c *assembleConfig) {
		c.formats = append([]Format(nil), formats...)
	}
}

// WithSupportedOptions restricts the accepted system query options. A listed
// option outside the set fails with ErrUnsupportedOption; keys that are not
// system query options stay ignored.
func WithSupportedOptions(options ...string) AssembleOption {
	return func(c *assembleConfig) {
		c.options = make(map[string]bool, len(options))
		for _, name := range options {
			c.options[name] = true
		}
	}
}

// WithFilterParser replaces ParseFilter for $filter values.
func WithFilterParser(parse FilterParser) AssembleOption {
	return func(c *assembleConfig) {
		if parse != nil {
			c.filterParser = parse
		}
	}
}

// Assemble parses a map of query option names to raw values into QueryOptions.
// Options are processed in a fixed order and the first failure is returned as an
// *Error naming the option. Empty values are treated as absent; unknown keys are ignored.
func Assemble(options map[string]string, opts ...AssembleOption) (*QueryOptions, error) {
	cfg := assembleConfig{formats: DefaultFormats, filterParser: ParseFilter}
	for _, opt := range opts {
		opt(&cfg)
	}

	result := &QueryOptions{}
	for _, name := range optionOrder {
		raw, ok := options[name]
		if !ok || raw == "" {
			continue
		}
		if cfg.options != nil && !cfg.options[name] {
			e := NewError(ErrUnsupportedOption)
			e.Token = name
			return nil, e
		}
		if err := assembleOption(name, raw, &cfg, result); err != nil {
			return nil, attachOption(err, name)
		}
	}
	return result, nil
}

func attachOption(err error, option string) error {
	if e, ok := err.(*Error); ok {
		return e.WithOption(option)
	}
	return err
}

func assembleOption(name, raw string, cfg *assembleConfig, result *QueryOptions) error {
	switch name {
	case OptionFilter:
		filter, err := cfg.filterParser(raw)
		if err != nil {
			return err
		}
		if filter == nil {
			return NewError(ErrUnexpectedNullFilters)
		}
		result.Filter = filter
	case OptionSelect:
		paths, err := parsePathList(raw, true)
		if err != nil {
			return err
		}
		result.Select = paths
	case OptionExpand:
		paths, err := parsePathList(raw, false)
		if err != nil {
			return err
		}
		result.Expand = paths
	case OptionOrderBy:
		orderBy, err := parseOrderBy(raw)
		if err != nil {
			return err
		}
		result.OrderBy = orderBy
	case OptionSearch:
		search := strings.TrimSpace(raw)
		result.Search = &search
	case OptionTop:
		top, err := parseNonNegativeInt(raw)
		if err != nil {
			return err
		}
		result.Top = &top
	case OptionSkip:
		skip, err := parseNonNegativeInt(raw)
		if err != nil {
			return err
		}
		result.Skip = &skip
	case OptionCount:
		count, err := parseCount(raw)
		if err != nil {
			return err
		}
		result.Count = count
	case OptionFormat:
		format, err := parseFormat(raw, cfg.formats)
		if err != nil {
			return err
		}
		result.Format = format
	}
	return nil
}

// ParseValues assembles options from url.Values, using the first value of each key.
func ParseValues(values url.Values, opts ...AssembleOption) (*QueryOptions, error) {
	options := make(map[string]string, len(values))
	for key := range values {
		options[key] = values.Get(key)
	}
	return Assemble(options, opts...)
}

// ParseQueryString assembles options from a raw query string such as
// "$filter=a eq 1&$top=5". A leading '?' is allowed.
func ParseQueryString(raw string, opts ...AssembleOption) (*QueryOptions, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, invalidQuery(err)
	}
	return ParseValues(values, opts...)
}

// ParseURL assembles options from the query component of a URL.
func ParseURL(rawURL string, opts ...AssembleOption) (*QueryOptions, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, invalidQuery(err)
	}
	return ParseQueryString(u.RawQuery, opts...)
}

func invalidQuery(err error) *Error {
	return NewError(ErrInvalidQuery).WithDetail("%v", err)
}

// parseNonNegativeInt parses a string as a non-negative integer
func parseNonNegativeInt(str string) (int, error) {
	trimmed := strings.TrimSpace(str)
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		e := NewError(ErrNoNumericValue)
		e.Token = str
		return 0, e
	}
	if value < 0 {
		e := NewError(ErrNoPositiveValue)
		e.Token = str
		return 0, e
	}
	return value, nil
}

// parseCount accepts exactly true or false.
func parseCount(str string) (bool, error) {
	switch str {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	e := NewError(ErrInvalidCount)
	e.Token = str
	return false, e
}

func parseFormat(str string, supported []Format) (Format, error) {
	format := Format(strings.TrimSpace(str))
	for _, f := range supported {
		if f == format {
			return format, nil
		}
	}
	e := NewError(ErrUnsupportedFormat)
	e.Token = str
	return "", e
}

// parsePathList parses a comma-separated list of identifier paths. allowStar admits
// the $select wildcard.
func parsePathList(str string, allowStar bool) ([]Path, error) {
	parts := strings.Split(str, ",")
	result := make([]Path, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if allowStar && trimmed == "*" {
			result = append(result, Path{"*"})
			continue
		}
		path, err := parsePath(trimmed)
		if err != nil {
			return nil, err
		}
		result = append(result, path)
	}
	return result, nil
}

// parsePath splits a '/'-separated path and validates each segment.
func parsePath(str string) (Path, error) {
	if str == "" {
		return nil, NewError(ErrUnexpectedNullIdentifier)
	}
	segments := strings.Split(str, "/")
	for _, segment := range segments {
		if segment == "" {
			e := NewError(ErrUnexpectedNullIdentifier)
			e.Token = str
			return nil, e
		}
		if !isIdentifierSegment(segment) {
			e := NewError(ErrUnexpectedToken)
			e.Token = str
			return nil, e
		}
	}
	return Path(segments), nil
}

func isIdentifierSegment(segment string) bool {
	if !isIdentStart(segment[0]) {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if !isIdentPart(segment[i]) {
			return false
		}
	}
	return true
}
