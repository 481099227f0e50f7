package observability

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxAttributeLength caps the $filter and $search text copied onto spans.
const DefaultMaxAttributeLength = 512

// DefaultDurationBuckets are the histogram boundaries, in milliseconds, for parse
// and translate durations. Both usually finish well under a millisecond.
var DefaultDurationBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 100}

// Config selects which signals the parser and translators emit. A nil provider
// turns its signal into a no-op; Initialize must run before Tracer and Metrics
// return the configured instruments.
type Config struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	// ServiceName and ServiceVersion identify the caller embedding the parser.
	ServiceName    string
	ServiceVersion string

	// EnableDetailedDBTracing opens a span for every statement run through a
	// *gorm.DB passed to RegisterGORMCallbacks.
	EnableDetailedDBTracing bool

	// EnableQueryOptionTracing copies the parsed options onto the parse span.
	// Filter and search text can carry user data, so it is off by default.
	EnableQueryOptionTracing bool

	// MaxAttributeLength truncates filter and search span attributes. Zero
	// disables truncation.
	MaxAttributeLength int

	// DurationBuckets overrides DefaultDurationBuckets. Boundaries must be
	// strictly increasing.
	DurationBuckets []float64

	// EnableServerTiming adds parse, translate and db entries to the
	// Server-Timing header of requests wrapped by ServerTimingMiddleware.
	EnableServerTiming bool

	tracer  *Tracer
	metrics *Metrics
}

// Option configures a Config.
type Option func(*Config)

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) { c.TracerProvider = tp }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) { c.MeterProvider = mp }
}

func WithServiceName(name string) Option {
	return func(c *Config) { c.ServiceName = name }
}

func WithServiceVersion(version string) Option {
	return func(c *Config) { c.ServiceVersion = version }
}

// WithDetailedDBTracing traces individual read statements.
func WithDetailedDBTracing() Option {
	return func(c *Config) { c.EnableDetailedDBTracing = true }
}

// WithQueryOptionTracing records $filter, $select, $orderby and the other
// options as span attributes.
func WithQueryOptionTracing() Option {
	return func(c *Config) { c.EnableQueryOptionTracing = true }
}

// WithMaxAttributeLength sets the truncation length for filter and search text.
func WithMaxAttributeLength(n int) Option {
	return func(c *Config) { c.MaxAttributeLength = n }
}

// WithDurationBuckets sets the parse and translate histogram boundaries.
func WithDurationBuckets(buckets ...float64) Option {
	return func(c *Config) { c.DurationBuckets = append([]float64(nil), buckets...) }
}

func WithServerTiming() Option {
	return func(c *Config) { c.EnableServerTiming = true }
}

// NewConfig returns a Config with defaults applied before opts.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		ServiceName:        "odata-query",
		MaxAttributeLength: DefaultMaxAttributeLength,
		DurationBuckets:    DefaultDurationBuckets,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks the attribute length and bucket boundaries.
func (c *Config) Validate() error {
	if c.MaxAttributeLength < 0 {
		return fmt.Errorf("observability: negative max attribute length %d", c.MaxAttributeLength)
	}
	for i := 1; i < len(c.DurationBuckets); i++ {
		if c.DurationBuckets[i] <= c.DurationBuckets[i-1] {
			return errors.New("observability: duration buckets must be strictly increasing")
		}
	}
	return nil
}

// Initialize builds the tracer and metrics. An invalid config leaves both as
// no-ops and returns the validation error.
func (c *Config) Initialize() error {
	if err := c.Validate(); err != nil {
		c.tracer, c.metrics = nil, nil
		return err
	}

	c.tracer = NewNoopTracer()
	if c.TracerProvider != nil {
		c.tracer = NewTracer(c.TracerProvider, c.ServiceName)
	}
	c.tracer.maxAttrLen = c.MaxAttributeLength

	c.metrics = NewNoopMetrics()
	if c.MeterProvider != nil {
		c.metrics = NewMetrics(c.MeterProvider, c.DurationBuckets...)
	}
	return nil
}

// Tracer returns the configured tracer, or a no-op tracer before Initialize.
func (c *Config) Tracer() *Tracer {
	if c == nil || c.tracer == nil {
		return NewNoopTracer()
	}
	return c.tracer
}

// Metrics returns the configured instruments, or no-ops before Initialize.
func (c *Config) Metrics() *Metrics {
	if c == nil || c.metrics == nil {
		return NewNoopMetrics()
	}
	return c.metrics
}

// IsEnabled reports whether a tracer or meter provider is set.
func (c *Config) IsEnabled() bool {
	return c != nil && (c.TracerProvider != nil || c.MeterProvider != nil)
}

func (c *Config) ServerTimingEnabled() bool {
	return c != nil && c.EnableServerTiming
}
