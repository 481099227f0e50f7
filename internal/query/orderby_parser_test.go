package query

import (
	"errors"
	"testing"
)

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Name", []string{"Name asc"}},
		{"Name desc", []string{"Name desc"}},
		{"  Price desc ,  Name asc ", []string{"Price desc", "Name asc"}},
		{"user/profile/city desc,ID", []string{"user/profile/city desc", "ID asc"}},
		{"Name,,Price desc,", []string{"Name asc", "Price desc"}},
		{" , ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			items, err := parseOrderBy(tt.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(items) != len(tt.expected) {
				t.Fatalf("Expected %d items, got %d", len(tt.expected), len(items))
			}
			for i, item := range items {
				if item.String() != tt.expected[i] {
					t.Errorf("Item %d: expected %q, got %q", i, tt.expected[i], item.String())
				}
			}
		})
	}
}

func TestParseOrderByErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  ErrorKind
		token string
	}{
		{"Name sideways", ErrInvalidOrderDirection, "sideways"},
		{"Name asc extra", ErrUnexpectedToken, "extra"},
		{"user//city", ErrUnexpectedNullIdentifier, "user//city"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseOrderBy(tt.input)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("Expected %v, got %v", tt.kind, err)
			}
			var qerr *Error
			if errors.As(err, &qerr) && qerr.Token != tt.token {
				t.Errorf("Expected token %q, got %q", tt.token, qerr.Token)
			}
		})
	}
}
