package main

import (
	"encoding/json"
	"fmt"
	"strings"

	odata "github.com/nlstn/go-odata-query"
	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ParseCmd represents the parse command
type ParseCmd struct {
	Query string `arg:"" help:"Query string or URL, e.g. '$$filter=Price gt 5&$$top=10'"`
}

func (cmd *ParseCmd) Run(ctx *Context) error {
	opts, err := ctx.parse(cmd.Query)
	if err != nil {
		return err
	}
	return ctx.write(newOptionsView(opts))
}

// SQLCmd represents the sql command
type SQLCmd struct {
	Query   string   `arg:"" help:"Query string or URL"`
	Table   string   `help:"Root table" required:"" short:"t" env:"ODATAQUERY_TABLE"`
	Dialect string   `help:"SQL dialect" enum:"sqlite,postgres" default:"sqlite" env:"ODATAQUERY_DIALECT"`
	Search  []string `help:"Columns matched by $$search" sep:","`
}

type sqlView struct {
	SQL      string `json:"sql" yaml:"sql"`
	CountSQL string `json:"countSql,omitempty" yaml:"countSql,omitempty"`
}

func (cmd *SQLCmd) Run(ctx *Context) error {
	opts, err := ctx.parse(cmd.Query)
	if err != nil {
		return err
	}
	db, err := openDryRun(cmd.Dialect)
	if err != nil {
		return err
	}
	applyOpts := odata.ApplyOptions{SearchFields: paths(cmd.Search)}

	view := sqlView{}
	view.SQL, err = cmd.render(ctx, db, opts, applyOpts, func(tx *gorm.DB) *gorm.DB {
		return tx.Find(&[]map[string]interface{}{})
	})
	if err != nil {
		return err
	}
	if opts.Count {
		var count int64
		view.CountSQL, err = cmd.render(ctx, db, opts.WithoutPagination(), applyOpts, func(tx *gorm.DB) *gorm.DB {
			return tx.Count(&count)
		})
		if err != nil {
			return err
		}
	}
	return ctx.write(view)
}

func (cmd *SQLCmd) render(ctx *Context, db *gorm.DB, opts *odata.QueryOptions, applyOpts odata.ApplyOptions, run func(*gorm.DB) *gorm.DB) (string, error) {
	var applyErr error
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		scoped, err := ctx.Parser.ApplyGORM(ctx, tx.Table(cmd.Table), opts, nil, applyOpts)
		if err != nil {
			applyErr = err
			return tx
		}
		return run(scoped)
	})
	return sql, applyErr
}

// openDryRun opens a database that renders statements without running them.
// Neither dialect connects: sqlite stays in memory and postgres skips the ping.
func openDryRun(dialect string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	}
	var dialector gorm.Dialector
	switch dialect {
	case odata.DialectPostgres:
		dialector = postgres.New(postgres.Config{DSN: "host=localhost user=odataquery dbname=odataquery sslmode=disable"})
	default:
		dialector = sqlite.Open(":memory:")
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s dialect: %w", dialect, err)
	}
	return db, nil
}

// MongoCmd represents the mongo command
type MongoCmd struct {
	Query  string   `arg:"" help:"Query string or URL"`
	Search []string `help:"Fields matched by $$search" sep:","`
}

func (cmd *MongoCmd) Run(ctx *Context) error {
	opts, err := ctx.parse(cmd.Query)
	if err != nil {
		return err
	}
	filter, find, err := ctx.Parser.MongoFind(ctx, opts, nil, paths(cmd.Search))
	if err != nil {
		return err
	}

	doc := bson.D{{Key: "filter", Value: filter}}
	if find.Sort != nil {
		doc = append(doc, bson.E{Key: "sort", Value: find.Sort})
	}
	if find.Projection != nil {
		doc = append(doc, bson.E{Key: "projection", Value: find.Projection})
	}
	if find.Skip != nil {
		doc = append(doc, bson.E{Key: "skip", Value: *find.Skip})
	}
	if find.Limit != nil {
		doc = append(doc, bson.E{Key: "limit", Value: *find.Limit})
	}

	// Relaxed extended JSON keeps dates, decimals and UUIDs readable.
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Errorf("failed to encode filter: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to encode filter: %w", err)
	}
	return ctx.write(v)
}

func paths(list []string) []odata.Path {
	var out []odata.Path
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, odata.Path(strings.Split(item, "/")))
	}
	return out
}
