package query

import "testing"

func assembled(t *testing.T) *QueryOptions {
	t.Helper()
	opts, err := Assemble(map[string]string{
		"$filter":  "Name eq 'x' and Price in (1, 2)",
		"$select":  "Name,Price",
		"$expand":  "Category",
		"$orderby": "Name desc",
		"$search":  "blue",
		"$top":     "10",
		"$skip":    "5",
		"$count":   "true",
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return opts
}

func TestQueryOptions_CloneIsIndependent(t *testing.T) {
	original := assembled(t)
	clone := original.Clone()

	clone.OrderBy[0].Direction = Ascending
	clone.OrderBy = append(clone.OrderBy, OrderByItem{Path: Path{"Price"}, Direction: Ascending})
	clone.Select[0][0] = "Changed"
	*clone.Top = 99
	*clone.Search = "red"
	clone.Filter.(*BinaryExpr).Operator = OpOr

	if !original.OrderBy[0].Descending() || len(original.OrderBy) != 1 {
		t.Errorf("Original orderby changed: %v", original.OrderBy)
	}
	if original.Select[0].String() != "Name" {
		t.Errorf("Original select changed: %v", original.Select)
	}
	if *original.Top != 10 {
		t.Errorf("Original top changed: %d", *original.Top)
	}
	if *original.Search != "blue" {
		t.Errorf("Original search changed: %s", *original.Search)
	}
	if original.Filter.(*BinaryExpr).Operator != OpAnd {
		t.Error("Original filter changed")
	}
}

func TestQueryOptions_ShallowCloneShares(t *testing.T) {
	original := assembled(t)
	clone := original.ShallowClone()

	clone.OrderBy[0].Direction = Ascending
	*clone.Top = 99
	clone.Filter.(*BinaryExpr).Operator = OpOr

	if original.OrderBy[0].Descending() {
		t.Error("Expected shared orderby list to be visible through the original")
	}
	if *original.Top != 99 {
		t.Errorf("Expected shared top, got %d", *original.Top)
	}
	if original.Filter.(*BinaryExpr).Operator != OpOr {
		t.Error("Expected shared filter tree")
	}

	// Replacing a field on the copy does not touch the original.
	clone.Count = false
	if !original.Count {
		t.Error("Original count changed")
	}
}

func TestQueryOptions_WithoutPagination(t *testing.T) {
	original := assembled(t)
	counted := original.WithoutPagination()

	if counted.Top != nil || counted.Skip != nil {
		t.Errorf("Expected pagination cleared, got %s", counted)
	}
	if counted.HasPagination() {
		t.Error("Expected HasPagination false")
	}
	if !original.HasPagination() || *original.Top != 10 || *original.Skip != 5 {
		t.Errorf("Original pagination changed: %s", original)
	}
	if !Equal(counted.Filter, original.Filter) || counted.Filter == original.Filter {
		t.Error("Expected an equal but distinct filter tree")
	}
	if !counted.Count || len(counted.OrderBy) != 1 {
		t.Errorf("Expected other options preserved, got %s", counted)
	}
}

func TestQueryOptions_NilReceiver(t *testing.T) {
	var opts *QueryOptions
	if opts.Clone() != nil || opts.ShallowClone() != nil || opts.WithoutPagination() != nil {
		t.Error("Expected nil copies of nil options")
	}
	if opts.String() != "" {
		t.Error("Expected empty string")
	}
}

func TestQueryOptions_String(t *testing.T) {
	opts, err := Assemble(map[string]string{"$filter": "a eq 1", "$top": "2", "$orderby": "a"})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	expected := "$filter=(a eq 1)&$orderby=a asc&$top=2"
	if got := opts.String(); got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}
