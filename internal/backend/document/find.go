package document

import (
	"regexp"

	"github.com/nlstn/go-odata-query/internal/backend"
	"github.com/nlstn/go-odata-query/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindOptions turns opts into the arguments of a collection Find call: a filter
// from $filter and $search, and sort, projection, skip and limit. $expand has no
// meaning for embedded documents and is ignored.
func FindOptions(opts *query.QueryOptions, t *Translator, searchFields []query.Path) (bson.M, *options.FindOptions, error) {
	if t == nil {
		t = New(Config{})
	}
	filter := bson.M{}
	find := options.Find()
	if opts == nil {
		return filter, find, nil
	}

	var clauses bson.A
	if opts.Filter != nil {
		f, err := t.Translate(opts.Filter)
		if err != nil {
			return nil, nil, withOption(err, query.OptionFilter)
		}
		clauses = append(clauses, f)
	}
	if opts.Search != nil && *opts.Search != "" && len(searchFields) > 0 {
		pattern := regexp.QuoteMeta(*opts.Search)
		var alternatives bson.A
		for _, path := range searchFields {
			alternatives = append(alternatives, bson.M{t.resolver(path): bson.M{"$regex": pattern, "$options": "i"}})
		}
		clauses = append(clauses, bson.M{"$or": alternatives})
	}
	if len(clauses) == 1 {
		filter = clauses[0].(bson.M)
	} else if len(clauses) > 1 {
		filter = bson.M{"$and": clauses}
	}

	if len(opts.OrderBy) > 0 {
		sort := make(bson.D, 0, len(opts.OrderBy))
		for _, item := range opts.OrderBy {
			dir := 1
			if item.Descending() {
				dir = -1
			}
			sort = append(sort, bson.E{Key: t.resolver(item.Path), Value: dir})
		}
		find.SetSort(sort)
	}

	projection := bson.M{}
	for _, path := range opts.Select {
		if len(path) == 1 && path[0] == "*" {
			projection = bson.M{}
			break
		}
		projection[t.resolver(path)] = 1
	}
	if len(projection) > 0 {
		find.SetProjection(projection)
	}

	if opts.Skip != nil {
		find.SetSkip(int64(*opts.Skip))
	}
	if opts.Top != nil {
		find.SetLimit(int64(*opts.Top))
	}
	return filter, find, nil
}

func withOption(err error, option string) error {
	if qerr, ok := backend.Tag(backend.Document, err).(*query.Error); ok {
		return qerr.WithOption(option)
	}
	return err
}
