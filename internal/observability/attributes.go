// Package observability provides OpenTelemetry-based instrumentation for query
// parsing and translation.
//
// All observability features are opt-in. When not configured, no-op implementations
// are used with zero performance overhead.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/nlstn/go-odata-query"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/nlstn/go-odata-query"
)

// OData semantic attribute keys following OpenTelemetry conventions.
const (
	AttrOperation = "odata.operation"
	AttrBackend   = "odata.backend"

	// Query option attributes
	AttrQueryFilter  = "odata.query.filter"
	AttrQueryExpand  = "odata.query.expand"
	AttrQuerySelect  = "odata.query.select"
	AttrQueryOrderBy = "odata.query.orderby"
	AttrQueryTop     = "odata.query.top"
	AttrQuerySkip    = "odata.query.skip"
	AttrQueryCount   = "odata.query.count"
	AttrQuerySearch  = "odata.query.search"
	AttrQueryFormat  = "odata.query.format"

	// Filter tree attributes
	AttrFilterHash  = "odata.filter.hash"
	AttrFilterNodes = "odata.filter.nodes"

	// Error attributes
	AttrErrorKind   = "odata.error.kind"
	AttrErrorOption = "odata.error.option"
)

// Operation type values
const (
	OpParse     = "parse"
	OpAssemble  = "assemble"
	OpTranslate = "translate"
)

// Log field names for structured logging
const (
	LogFieldTraceID = "trace_id"
	LogFieldSpanID  = "span_id"
)

// OperationAttr returns an attribute for the operation type.
func OperationAttr(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// BackendAttr returns an attribute for the translation variant.
func BackendAttr(name string) attribute.KeyValue {
	return attribute.String(AttrBackend, name)
}

// ErrorKindAttr returns an attribute for the error kind.
func ErrorKindAttr(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}

func QueryFilterAttr(filter string) attribute.KeyValue {
	return attribute.String(AttrQueryFilter, filter)
}

func QueryExpandAttr(expand string) attribute.KeyValue {
	return attribute.String(AttrQueryExpand, expand)
}

func QuerySelectAttr(sel string) attribute.KeyValue {
	return attribute.String(AttrQuerySelect, sel)
}

func QueryOrderByAttr(orderby string) attribute.KeyValue {
	return attribute.String(AttrQueryOrderBy, orderby)
}

func QueryTopAttr(top int) attribute.KeyValue {
	return attribute.Int(AttrQueryTop, top)
}

func QuerySkipAttr(skip int) attribute.KeyValue {
	return attribute.Int(AttrQuerySkip, skip)
}

func QuerySearchAttr(search string) attribute.KeyValue {
	return attribute.String(AttrQuerySearch, search)
}
