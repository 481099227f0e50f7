package query

import (
	"errors"
	"net/url"
	"testing"
)

func TestAssemble_AllOptions(t *testing.T) {
	opts, err := Assemble(map[string]string{
		"$filter":  "Price gt 10 and contains(Name, 'x')",
		"$select":  "Name, Price,user/profile/city",
		"$expand":  "Category,user/profile",
		"$orderby": "Price desc, Name",
		"$search":  "  blue  ",
		"$top":     "10",
		"$skip":    "20",
		"$count":   "true",
		"$format":  "csv",
		"unknown":  "ignored",
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if opts.Filter == nil {
		t.Fatal("Expected filter")
	}
	if got := Print(opts.Filter); got != "((Price gt 10) and contains(Name, 'x'))" {
		t.Errorf("Unexpected filter %s", got)
	}
	if len(opts.Select) != 3 || opts.Select[2].String() != "user/profile/city" {
		t.Errorf("Unexpected select %v", opts.Select)
	}
	if len(opts.Expand) != 2 || !opts.Expand[1].Equal(Path{"user", "profile"}) {
		t.Errorf("Unexpected expand %v", opts.Expand)
	}
	if len(opts.OrderBy) != 2 {
		t.Fatalf("Expected 2 orderby items, got %d", len(opts.OrderBy))
	}
	if !opts.OrderBy[0].Descending() || opts.OrderBy[1].Direction != Ascending {
		t.Errorf("Unexpected orderby %v", opts.OrderBy)
	}
	if opts.Search == nil || *opts.Search != "blue" {
		t.Errorf("Unexpected search %v", opts.Search)
	}
	if opts.Top == nil || *opts.Top != 10 {
		t.Errorf("Unexpected top %v", opts.Top)
	}
	if opts.Skip == nil || *opts.Skip != 20 {
		t.Errorf("Unexpected skip %v", opts.Skip)
	}
	if !opts.Count {
		t.Error("Expected count")
	}
	if opts.Format != FormatCSV {
		t.Errorf("Expected csv, got %s", opts.Format)
	}
}

func TestAssemble_EmptyValuesAreSkipped(t *testing.T) {
	opts, err := Assemble(map[string]string{"$filter": "", "$top": "", "$format": ""})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if opts.Filter != nil || opts.Top != nil || opts.Format != "" {
		t.Errorf("Expected empty options, got %s", opts)
	}
}

func TestAssemble_Errors(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]string
		option  string
		kind    ErrorKind
	}{
		{"Malformed filter", map[string]string{"$filter": "a eq"}, OptionFilter, ErrUnexpectedEndOfExpression},
		{"Non numeric top", map[string]string{"$top": "ten"}, OptionTop, ErrNoNumericValue},
		{"Negative top", map[string]string{"$top": "-1"}, OptionTop, ErrNoPositiveValue},
		{"Float skip", map[string]string{"$skip": "1.5"}, OptionSkip, ErrNoNumericValue},
		{"Negative skip", map[string]string{"$skip": "-3"}, OptionSkip, ErrNoPositiveValue},
		{"Bad direction", map[string]string{"$orderby": "Name up"}, OptionOrderBy, ErrInvalidOrderDirection},
		{"Upper-case direction", map[string]string{"$orderby": "Name DESC"}, OptionOrderBy, ErrInvalidOrderDirection},
		{"Extra orderby token", map[string]string{"$orderby": "Name asc x"}, OptionOrderBy, ErrUnexpectedToken},
		{"Empty orderby segment", map[string]string{"$orderby": "Name,a//b"}, OptionOrderBy, ErrUnexpectedNullIdentifier},
		{"Empty select item", map[string]string{"$select": "Name,,Price"}, OptionSelect, ErrUnexpectedNullIdentifier},
		{"Empty select segment", map[string]string{"$select": "user//city"}, OptionSelect, ErrUnexpectedNullIdentifier},
		{"Star in expand", map[string]string{"$expand": "*"}, OptionExpand, ErrUnexpectedToken},
		{"Count not boolean", map[string]string{"$count": "yes"}, OptionCount, ErrInvalidCount},
		{"Count upper-case", map[string]string{"$count": "True"}, OptionCount, ErrInvalidCount},
		{"Unsupported format", map[string]string{"$format": "yaml"}, OptionFormat, ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := Assemble(tt.options)
			if err == nil {
				t.Fatalf("Expected error, got %s", opts)
			}
			if opts != nil {
				t.Error("Expected no partial options")
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("Expected %v, got %v", tt.kind, err)
			}
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("Expected *Error, got %T", err)
			}
			if perr.Option != tt.option {
				t.Errorf("Expected option %s, got %s", tt.option, perr.Option)
			}
		})
	}
}

func TestAssemble_FixedOrder(t *testing.T) {
	// $filter is processed before $top, so its error wins.
	_, err := Assemble(map[string]string{"$top": "x", "$filter": "a eq"})
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if perr.Option != OptionFilter {
		t.Errorf("Expected $filter error first, got %s", perr.Option)
	}
}

func TestAssemble_SelectStar(t *testing.T) {
	opts, err := Assemble(map[string]string{"$select": "*"})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(opts.Select) != 1 || opts.Select[0].String() != "*" {
		t.Errorf("Unexpected select %v", opts.Select)
	}
}

func TestAssemble_SupportedFormats(t *testing.T) {
	opts, err := Assemble(map[string]string{"$format": "yaml"}, WithSupportedFormats("json", "yaml"))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if opts.Format != "yaml" {
		t.Errorf("Expected yaml, got %s", opts.Format)
	}

	if _, err := Assemble(map[string]string{"$format": "xml"}, WithSupportedFormats("json")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected unsupported format, got %v", err)
	}
}

func TestAssemble_SupportedOptions(t *testing.T) {
	opts, err := Assemble(map[string]string{"$top": "5", "$skip": "", "page": "2"},
		WithSupportedOptions(OptionTop, OptionFilter))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if opts.Top == nil || *opts.Top != 5 {
		t.Errorf("Unexpected top %v", opts.Top)
	}

	_, err = Assemble(map[string]string{"$top": "5", "$skip": "10"}, WithSupportedOptions(OptionTop))
	if !errors.Is(err, ErrUnsupportedOption) {
		t.Fatalf("Expected unsupported option, got %v", err)
	}
	var perr *Error
	if !errors.As(err, &perr) || perr.Option != OptionSkip || perr.Token != OptionSkip {
		t.Errorf("Expected $skip to be named, got %+v", perr)
	}
}

func TestAssemble_FilterParser(t *testing.T) {
	var seen string
	custom := func(text string) (Node, error) {
		seen = text
		return NewIdentifier("Active"), nil
	}
	opts, err := Assemble(map[string]string{"$filter": "anything goes"}, WithFilterParser(custom))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if seen != "anything goes" {
		t.Errorf("Expected raw filter, got %q", seen)
	}
	if got := Print(opts.Filter); got != "Active" {
		t.Errorf("Unexpected filter %s", got)
	}

	failing := func(string) (Node, error) { return nil, NewError(ErrUnknownOperator).WithName("like") }
	_, err = Assemble(map[string]string{"$filter": "a like 'b'"}, WithFilterParser(failing))
	var perr *Error
	if !errors.As(err, &perr) || perr.Kind != ErrUnknownOperator || perr.Option != OptionFilter {
		t.Errorf("Expected unknown operator on $filter, got %v", err)
	}

	empty := func(string) (Node, error) { return nil, nil }
	if _, err := Assemble(map[string]string{"$filter": "x"}, WithFilterParser(empty)); !errors.Is(err, ErrUnexpectedNullFilters) {
		t.Errorf("Expected unexpected null filters, got %v", err)
	}
}

func TestParseQueryString_Malformed(t *testing.T) {
	_, err := ParseQueryString("$filter=%zz")
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("Expected invalid query, got %v", err)
	}

	_, err = ParseURL("http://[::1/odata?$top=1")
	if !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("Expected invalid query, got %v", err)
	}
}

func TestParseValues(t *testing.T) {
	values := url.Values{}
	values.Add("$top", "5")
	values.Add("$top", "7")
	values.Set("$filter", "Name eq 'x'")

	opts, err := ParseValues(values)
	if err != nil {
		t.Fatalf("ParseValues failed: %v", err)
	}
	if opts.Top == nil || *opts.Top != 5 {
		t.Errorf("Expected first $top value, got %v", opts.Top)
	}
	if opts.Filter == nil {
		t.Error("Expected filter")
	}
}

func TestParseQueryString(t *testing.T) {
	opts, err := ParseQueryString("?$filter=Name%20eq%20'x'&$orderby=Name%20desc&$count=false")
	if err != nil {
		t.Fatalf("ParseQueryString failed: %v", err)
	}
	if got := Print(opts.Filter); got != "(Name eq 'x')" {
		t.Errorf("Unexpected filter %s", got)
	}
	if len(opts.OrderBy) != 1 || !opts.OrderBy[0].Descending() {
		t.Errorf("Unexpected orderby %v", opts.OrderBy)
	}
	if opts.Count {
		t.Error("Expected count false")
	}
}

func TestParseURL(t *testing.T) {
	opts, err := ParseURL("https://example.com/odata/Products?$top=3&$skip=6")
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}
	if opts.Top == nil || *opts.Top != 3 || opts.Skip == nil || *opts.Skip != 6 {
		t.Errorf("Unexpected pagination %s", opts)
	}

	if _, err := ParseURL("https://example.com/?$top=-2"); !errors.Is(err, ErrNoPositiveValue) {
		t.Errorf("Expected no positive value, got %v", err)
	}
}
