package query

import (
	"strconv"
	"strings"
)

// Query option names.
const (
	OptionFilter  = "$filter"
	OptionSelect  = "$select"
	OptionExpand  = "$expand"
	OptionOrderBy = "$orderby"
	OptionSearch  = "$search"
	OptionTop     = "$top"
	OptionSkip    = "$skip"
	OptionCount   = "$count"
	OptionFormat  = "$format"
)

// optionOrder is the fixed order in which Assemble processes options.
var optionOrder = []string{
	OptionFilter,
	OptionSelect,
	OptionExpand,
	OptionOrderBy,
	OptionSearch,
	OptionTop,
	OptionSkip,
	OptionCount,
	OptionFormat,
}

// Direction is the sort direction of an $orderby item.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// OrderByItem represents a single orderby clause
type OrderByItem struct {
	Path      Path
	Direction Direction
}

// Descending reports whether the item sorts in descending order.
func (o OrderByItem) Descending() bool {
	return o.Direction == Descending
}

func (o OrderByItem) String() string {
	return o.Path.String() + " " + string(o.Direction)
}

// Format is the response format requested by $format.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
)

// DefaultFormats is the $format set accepted unless overridden.
var DefaultFormats = []Format{FormatJSON, FormatXML, FormatCSV, FormatTSV}

// QueryOptions represents parsed OData query options. The zero value means no
// option was given.
type QueryOptions struct {
	Filter  Node
	Select  []Path
	Expand  []Path
	OrderBy []OrderByItem
	Search  *string
	Top     *int
	Skip    *int
	Count   bool
	Format  Format
}

// Clone returns a deep copy: the filter tree, lists, paths and pointers are all new.
func (o *QueryOptions) Clone() *QueryOptions {
	if o == nil {
		return nil
	}
	c := &QueryOptions{
		Select: clonePaths(o.Select),
		Expand: clonePaths(o.Expand),
		Search: cloneStringPtr(o.Search),
		Top:    cloneIntPtr(o.Top),
		Skip:   cloneIntPtr(o.Skip),
		Count:  o.Count,
		Format: o.Format,
	}
	if o.Filter != nil {
		c.Filter = CloneNode(o.Filter)
	}
	if o.OrderBy != nil {
		c.OrderBy = make([]OrderByItem, len(o.OrderBy))
		for i, item := range o.OrderBy {
			c.OrderBy[i] = OrderByItem{Path: item.Path.Clone(), Direction: item.Direction}
		}
	}
	return c
}

// ShallowClone returns a copy sharing the filter tree, lists and pointers with o.
// Mutating a shared list element is visible through both copies.
func (o *QueryOptions) ShallowClone() *QueryOptions {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

// WithoutPagination returns a deep copy with Top and Skip cleared, for counting the
// full result set.
func (o *QueryOptions) WithoutPagination() *QueryOptions {
	c := o.Clone()
	if c != nil {
		c.Top = nil
		c.Skip = nil
	}
	return c
}

// HasPagination reports whether $top or $skip is set.
func (o *QueryOptions) HasPagination() bool {
	return o != nil && (o.Top != nil || o.Skip != nil)
}

// String renders the options as a canonical query string body, mainly for logs.
func (o *QueryOptions) String() string {
	if o == nil {
		return ""
	}
	var parts []string
	if o.Filter != nil {
		parts = append(parts, OptionFilter+"="+Print(o.Filter))
	}
	if len(o.Select) > 0 {
		parts = append(parts, OptionSelect+"="+joinPaths(o.Select))
	}
	if len(o.Expand) > 0 {
		parts = append(parts, OptionExpand+"="+joinPaths(o.Expand))
	}
	if len(o.OrderBy) > 0 {
		items := make([]string, len(o.OrderBy))
		for i, item := range o.OrderBy {
			items[i] = item.String()
		}
		parts = append(parts, OptionOrderBy+"="+strings.Join(items, ","))
	}
	if o.Search != nil {
		parts = append(parts, OptionSearch+"="+*o.Search)
	}
	if o.Top != nil {
		parts = append(parts, OptionTop+"="+strconv.Itoa(*o.Top))
	}
	if o.Skip != nil {
		parts = append(parts, OptionSkip+"="+strconv.Itoa(*o.Skip))
	}
	if o.Count {
		parts = append(parts, OptionCount+"=true")
	}
	if o.Format != "" {
		parts = append(parts, OptionFormat+"="+string(o.Format))
	}
	return strings.Join(parts, "&")
}

func joinPaths(paths []Path) string {
	items := make([]string, len(paths))
	for i, p := range paths {
		items[i] = p.String()
	}
	return strings.Join(items, ",")
}

func clonePaths(paths []Path) []Path {
	if paths == nil {
		return nil
	}
	out := make([]Path, len(paths))
	for i, p := range paths {
		out[i] = p.Clone()
	}
	return out
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
