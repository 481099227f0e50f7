package odata

import (
	"context"
	"time"

	"github.com/nlstn/go-odata-query/internal/backend"
	"github.com/nlstn/go-odata-query/internal/backend/document"
	"github.com/nlstn/go-odata-query/internal/backend/relational"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

// Translator compiles a filter tree into a native predicate of type T.
type Translator[T any] = backend.Translator[T]

// Variant identifies the query model a translator targets.
type Variant = backend.Variant

const (
	Relational = backend.Relational
	Document   = backend.Document
)

// ErrNilDB is returned by ApplyGORM when no database handle is given.
var ErrNilDB = relational.ErrNilDB

// Relational backend types.
type (
	RelationalConfig       = relational.Config
	RelationalTranslator   = relational.Translator
	RelationalCapabilities = relational.Capabilities
	RelationResolver       = relational.RelationResolver
	Relation               = relational.Relation
	ConventionResolver     = relational.ConventionResolver
	SchemaResolver         = relational.SchemaResolver
	Predicate              = relational.Predicate
	ApplyOptions           = relational.ApplyOptions
)

// SQL dialects with built-in capabilities.
const (
	DialectSQLite   = relational.DialectSQLite
	DialectPostgres = relational.DialectPostgres
	DialectMySQL    = relational.DialectMySQL
)

// Document backend types.
type (
	DocumentConfig       = document.Config
	DocumentTranslator   = document.Translator
	DocumentCapabilities = document.Capabilities
	PathResolver         = document.PathResolver
)

// NewRelationalTranslator returns a translator producing gorm predicates.
func NewRelationalTranslator(cfg RelationalConfig) *RelationalTranslator {
	return relational.New(cfg)
}

// NewRelationalTranslatorForDB returns a relational translator using the dialect
// and naming strategy of db. A nil resolver selects the naming convention.
func NewRelationalTranslatorForDB(db *gorm.DB, resolver RelationResolver) *RelationalTranslator {
	return relational.NewForDB(db, resolver)
}

// NewSchemaResolver resolves paths through the gorm schemas of the given models.
func NewSchemaResolver(model interface{}, models ...interface{}) (*SchemaResolver, error) {
	return relational.NewSchemaResolver(model, models...)
}

// DefaultRelationalCapabilities returns the built-in operator and function set
// for dialect.
func DefaultRelationalCapabilities(dialect string) *RelationalCapabilities {
	return relational.DefaultCapabilities(dialect)
}

// NewDocumentTranslator returns a translator producing MongoDB filters.
func NewDocumentTranslator(cfg DocumentConfig) *DocumentTranslator {
	return document.New(cfg)
}

// DefaultDocumentCapabilities returns the built-in MongoDB operator and function set.
func DefaultDocumentCapabilities() *DocumentCapabilities {
	return document.DefaultCapabilities()
}

// ApplyGORM adds opts to db without executing it. A nil translator is derived
// from db.
func (p *Parser) ApplyGORM(ctx context.Context, db *gorm.DB, opts *QueryOptions, t *RelationalTranslator, applyOpts ApplyOptions) (*gorm.DB, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if t == nil {
		t = relational.NewForDB(db, nil)
	}
	variant := backend.Relational.String()
	ctx, span := p.obs.Tracer().StartTranslate(ctx, variant)
	defer span.End()

	start := time.Now()
	out, err := relational.Apply(db.WithContext(ctx), opts, t, applyOpts)
	p.obs.Metrics().RecordTranslate(ctx, variant, time.Since(start), err)
	if err != nil {
		p.obs.Tracer().RecordError(span, err)
		p.logFailure(ctx, "query options not applicable", err)
		return nil, err
	}
	if p.obs.EnableQueryOptionTracing {
		p.obs.Tracer().AddQueryOptions(span, opts)
	}
	return out, nil
}

// MongoFind turns opts into the filter and options of a collection Find call.
// A nil translator uses the defaults.
func (p *Parser) MongoFind(ctx context.Context, opts *QueryOptions, t *DocumentTranslator, searchFields []Path) (bson.M, *options.FindOptions, error) {
	variant := backend.Document.String()
	ctx, span := p.obs.Tracer().StartTranslate(ctx, variant)
	defer span.End()

	start := time.Now()
	filter, find, err := document.FindOptions(opts, t, searchFields)
	p.obs.Metrics().RecordTranslate(ctx, variant, time.Since(start), err)
	if err != nil {
		p.obs.Tracer().RecordError(span, err)
		p.logFailure(ctx, "query options not applicable", err)
		return nil, nil, err
	}
	return filter, find, nil
}
