package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	gormSpanKey      = "odata:gorm:span"
	gormStartTimeKey = "odata:gorm:start"
	gormTimingKey    = "odata:gorm:timing"
)

// RegisterGORMCallbacks instruments the read statements run through db, which
// covers the queries built from parsed options: Find and Count go through the
// query processor, Row and Scan through the row processor.
//
// Each statement records the odata.db.query.duration metric and, when enabled,
// a "db" Server-Timing metric. A span with the rendered SQL is started only with
// detailed DB tracing on.
func RegisterGORMCallbacks(db *gorm.DB, cfg *Config) error {
	if cfg == nil || (!cfg.IsEnabled() && !cfg.ServerTimingEnabled()) {
		return nil
	}
	if cfg.tracer == nil || cfg.metrics == nil {
		if err := cfg.Initialize(); err != nil {
			return err
		}
	}

	tracing := cfg.TracerProvider != nil && cfg.EnableDetailedDBTracing
	before := beforeStatement(cfg, tracing)

	if err := db.Callback().Query().Before("gorm:query").Register("odata:before_query", before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("odata:after_query", afterStatement(cfg, "SELECT")); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("odata:before_row", before); err != nil {
		return err
	}
	return db.Callback().Row().After("gorm:row").Register("odata:after_row", afterStatement(cfg, "ROW"))
}

func beforeStatement(cfg *Config, tracing bool) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		if tracing {
			var span trace.Span
			ctx, span = cfg.Tracer().StartSpan(ctx, "db.query", attribute.String("db.system", db.Dialector.Name()))
			db.Statement.Context = ctx
			db.InstanceSet(gormSpanKey, span)
		}
		if cfg.ServerTimingEnabled() {
			db.InstanceSet(gormTimingKey, StartServerTimingWithDesc(ctx, "db", "Database"))
		}
		db.InstanceSet(gormStartTimeKey, time.Now())
	}
}

func afterStatement(cfg *Config, operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if v, ok := db.InstanceGet(gormTimingKey); ok {
			if m, ok := v.(*ServerTimingMetric); ok {
				m.Stop()
			}
		}

		if v, ok := db.InstanceGet(gormStartTimeKey); ok {
			if start, ok := v.(time.Time); ok {
				cfg.Metrics().RecordDBQuery(db.Statement.Context, operation, time.Since(start))
			}
		}

		v, ok := db.InstanceGet(gormSpanKey)
		if !ok {
			return
		}
		span, ok := v.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		span.SetAttributes(
			attribute.String("db.statement", db.Statement.SQL.String()),
			attribute.Int64("db.rows_affected", db.RowsAffected),
		)
		if db.Error != nil {
			cfg.Tracer().RecordError(span, db.Error)
		}
	}
}
