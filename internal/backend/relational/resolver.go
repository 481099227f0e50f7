package relational

import (
	"strings"
	"sync"

	"github.com/nlstn/go-odata-query/internal/query"
	"gorm.io/gorm/schema"
)

// Relation describes how a related table is reached from its parent:
// parent.ParentColumn = related.ChildColumn.
type Relation struct {
	Table        string
	ParentColumn string
	ChildColumn  string
}

// RelationResolver maps OData path segments onto tables and columns. Tables are
// identified by name; the root table is the statement's own table.
type RelationResolver interface {
	Root() string
	Relation(parentTable, segment string) (Relation, error)
	Column(table, segment string) (string, error)
}

// ConventionResolver resolves paths by gorm naming conventions alone: the segment
// profile joins table profiles on parent.profile_id = profiles.id.
type ConventionResolver struct {
	Table  string
	Naming schema.Namer
}

func (r ConventionResolver) namer() schema.Namer {
	if r.Naming == nil {
		return schema.NamingStrategy{}
	}
	return r.Naming
}

func (r ConventionResolver) Root() string {
	return r.Table
}

func (r ConventionResolver) Relation(parentTable, segment string) (Relation, error) {
	n := r.namer()
	return Relation{
		Table:        n.TableName(segment),
		ParentColumn: n.ColumnName(parentTable, segment) + "_id",
		ChildColumn:  "id",
	}, nil
}

func (r ConventionResolver) Column(table, segment string) (string, error) {
	return r.namer().ColumnName(table, segment), nil
}

// SchemaResolver resolves paths through gorm schemas parsed from models. Only
// single-valued navigation (belongs-to and has-one) can be joined in a filter.
type SchemaResolver struct {
	root   string
	tables map[string]*schema.Schema
}

// NewSchemaResolver parses model and every schema reachable through its relations.
// Extra models make tables available that are not reachable from model.
func NewSchemaResolver(model interface{}, models ...interface{}) (*SchemaResolver, error) {
	return NewSchemaResolverWithNamer(schema.NamingStrategy{}, model, models...)
}

// NewSchemaResolverWithNamer is NewSchemaResolver with a custom naming strategy,
// typically the one configured on the gorm.DB.
func NewSchemaResolverWithNamer(namer schema.Namer, model interface{}, models ...interface{}) (*SchemaResolver, error) {
	cache := &sync.Map{}
	rootSchema, err := schema.Parse(model, cache, namer)
	if err != nil {
		return nil, query.NewError(query.ErrUnresolvablePath).WithDetail("parse model: %v", err)
	}

	r := &SchemaResolver{root: rootSchema.Table, tables: make(map[string]*schema.Schema)}
	r.register(rootSchema)
	for _, m := range models {
		s, err := schema.Parse(m, cache, namer)
		if err != nil {
			return nil, query.NewError(query.ErrUnresolvablePath).WithDetail("parse model: %v", err)
		}
		r.register(s)
	}
	return r, nil
}

func (r *SchemaResolver) register(s *schema.Schema) {
	if s == nil {
		return
	}
	if _, ok := r.tables[s.Table]; ok {
		return
	}
	r.tables[s.Table] = s
	for _, rel := range s.Relationships.Relations {
		r.register(rel.FieldSchema)
	}
}

func (r *SchemaResolver) Root() string {
	return r.root
}

func (r *SchemaResolver) lookup(table string) (*schema.Schema, error) {
	s, ok := r.tables[table]
	if !ok {
		return nil, query.NewError(query.ErrUnresolvablePath).WithDetail("unknown table %q", table)
	}
	return s, nil
}

func (r *SchemaResolver) Relation(parentTable, segment string) (Relation, error) {
	s, err := r.lookup(parentTable)
	if err != nil {
		return Relation{}, err
	}

	rel := findRelation(s, segment)
	if rel == nil {
		return Relation{}, query.NewError(query.ErrUnresolvablePath).WithName(segment).WithDetail("no relation on %s", parentTable)
	}
	if rel.Type != schema.BelongsTo && rel.Type != schema.HasOne {
		return Relation{}, query.NewError(query.ErrUnresolvablePath).WithName(segment).WithDetail("%s relation cannot be joined", rel.Type)
	}

	for _, ref := range rel.References {
		if ref.PrimaryKey == nil || ref.ForeignKey == nil {
			continue
		}
		if ref.OwnPrimaryKey {
			return Relation{Table: rel.FieldSchema.Table, ParentColumn: ref.PrimaryKey.DBName, ChildColumn: ref.ForeignKey.DBName}, nil
		}
		return Relation{Table: rel.FieldSchema.Table, ParentColumn: ref.ForeignKey.DBName, ChildColumn: ref.PrimaryKey.DBName}, nil
	}
	return Relation{}, query.NewError(query.ErrUnresolvablePath).WithName(segment).WithDetail("relation has no key reference")
}

func (r *SchemaResolver) Column(table, segment string) (string, error) {
	s, err := r.lookup(table)
	if err != nil {
		return "", err
	}
	field := s.LookUpField(segment)
	if field == nil {
		for _, f := range s.Fields {
			if strings.EqualFold(f.Name, segment) {
				field = f
				break
			}
		}
	}
	if field == nil || field.DBName == "" {
		return "", query.NewError(query.ErrUnresolvablePath).WithName(segment).WithDetail("no column on %s", table)
	}
	return field.DBName, nil
}

func findRelation(s *schema.Schema, segment string) *schema.Relationship {
	if rel, ok := s.Relationships.Relations[segment]; ok {
		return rel
	}
	for name, rel := range s.Relationships.Relations {
		if strings.EqualFold(name, segment) {
			return rel
		}
	}
	return nil
}
