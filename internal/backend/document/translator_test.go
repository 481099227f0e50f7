package document

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nlstn/go-odata-query/internal/backend"
	"github.com/nlstn/go-odata-query/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustParse(t *testing.T, filter string) query.Node {
	t.Helper()
	node, err := query.ParseFilter(filter)
	require.NoError(t, err)
	return node
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		filter   string
		expected bson.M
	}{
		{"Name eq 'Alice'", bson.M{"Name": bson.M{"$eq": "Alice"}}},
		{"Age ge 18", bson.M{"Age": bson.M{"$gte": int64(18)}}},
		{"18 lt Age", bson.M{"Age": bson.M{"$gt": int64(18)}}},
		{"Email eq null", bson.M{"Email": bson.M{"$eq": nil}}},
		{"user/profile/city eq 'X'", bson.M{"user.profile.city": bson.M{"$eq": "X"}}},
		{"Active", bson.M{"Active": true}},
		{
			"Age gt 1 and Age lt 9 or Active",
			bson.M{"$or": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"Age": bson.M{"$gt": int64(1)}},
					bson.M{"Age": bson.M{"$lt": int64(9)}},
				}},
				bson.M{"Active": true},
			}},
		},
		{"not Active", bson.M{"$nor": bson.A{bson.M{"Active": true}}}},
		{"Status in ('a', 'b')", bson.M{"Status": bson.M{"$in": bson.A{"a", "b"}}}},
		{"Status nin ['a']", bson.M{"Status": bson.M{"$nin": bson.A{"a"}}}},
		{"Tags has 'red'", bson.M{"Tags": bson.M{"$eq": "red"}}},
		{"Flags has 4", bson.M{"Flags": bson.M{"$bitsAllSet": int64(4)}}},
		{"startswith(Name, 'A.b')", bson.M{"Name": bson.M{"$regex": `^A\.b`}}},
		{"endswith(Name, 'z')", bson.M{"Name": bson.M{"$regex": "z$"}}},
		{"contains(Name, '(x)')", bson.M{"Name": bson.M{"$regex": `\(x\)`}}},
		{
			"tolower(Name) eq 'alice'",
			bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$toLower": "$Name"}, "alice"}}},
		},
		{
			"length(a/b) gt 3",
			bson.M{"$expr": bson.M{"$gt": bson.A{bson.M{"$strLenCP": "$a.b"}, int64(3)}}},
		},
		{
			"substring(Name, 1, 2) eq '$x'",
			bson.M{"$expr": bson.M{"$eq": bson.A{
				bson.M{"$substrCP": bson.A{"$Name", int64(1), int64(2)}},
				bson.M{"$literal": "$x"},
			}}},
		},
		{
			"trim(Name) eq toupper(Code)",
			bson.M{"$expr": bson.M{"$eq": bson.A{
				bson.M{"$trim": bson.M{"input": "$Name"}},
				bson.M{"$toUpper": "$Code"},
			}}},
		},
		{"Price eq Cost", bson.M{"$expr": bson.M{"$eq": bson.A{"$Price", "$Cost"}}}},
	}

	tr := New(Config{})
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, err := tr.Translate(mustParse(t, tt.filter))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTranslate_Literals(t *testing.T) {
	tr := New(Config{})

	got, err := tr.Translate(mustParse(t, "Price eq 10.25"))
	require.NoError(t, err)
	dec, err := primitive.ParseDecimal128("10.25")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"Price": bson.M{"$eq": dec}}, got)

	id := uuid.MustParse("01234567-89ab-cdef-0123-456789abcdef")
	got, err = tr.Translate(mustParse(t, "ID eq "+id.String()))
	require.NoError(t, err)
	assert.Equal(t, bson.M{"ID": bson.M{"$eq": primitive.Binary{Subtype: 4, Data: id[:]}}}, got)

	got, err = tr.Translate(mustParse(t, "Created ge 2024-01-02T03:04:05Z"))
	require.NoError(t, err)
	when := primitive.NewDateTimeFromTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, bson.M{"Created": bson.M{"$gte": when}}, got)

	got, err = tr.Translate(mustParse(t, "Timeout lt duration'PT1M30S'"))
	require.NoError(t, err)
	assert.Equal(t, bson.M{"Timeout": bson.M{"$lt": int64(90000)}}, got)
}

func TestTranslate_Deterministic(t *testing.T) {
	tr := New(Config{})
	node := mustParse(t, "a in (1, 2) and not contains(b, 'x') or tolower(c) eq 'y'")

	first, err := tr.Translate(node)
	require.NoError(t, err)
	second, err := tr.Translate(node)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTranslate_Errors(t *testing.T) {
	restricted := DefaultCapabilities()
	delete(restricted.Operators, query.OpHas)
	delete(restricted.Predicates, query.FuncContains)

	tests := []struct {
		name string
		tr   *Translator
		node query.Node
		kind query.ErrorKind
	}{
		{"indexof has no mapping", New(Config{}), mustParse(t, "indexof(Name, 'x') eq 1"), query.ErrUnknownFunction},
		{"Unmapped predicate", New(Config{Capabilities: restricted}), mustParse(t, "contains(Name, 'x')"), query.ErrUnknownFunction},
		{"Unmapped operator", New(Config{Capabilities: restricted}), mustParse(t, "Tags has 'x'"), query.ErrOperatorNotSupported},
		{"Nil filter", New(Config{}), nil, query.ErrUnexpectedNullFilters},
		{"Empty list", New(Config{}), &query.MembershipExpr{Operator: query.OpIn, Identifier: query.NewIdentifier("a"), List: []*query.LiteralExpr{}}, query.ErrUnexpectedEmptyArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tr.Translate(tt.node)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "expected %v, got %v", tt.kind, err)

			var qerr *query.Error
			require.True(t, errors.As(err, &qerr))
			assert.Equal(t, backend.Document.String(), qerr.Backend)
		})
	}
}

func TestTranslate_CustomCapabilities(t *testing.T) {
	caps := DefaultCapabilities()
	caps.Transforms[query.FuncIndexOf] = func(ref string, args []interface{}) (interface{}, error) {
		return bson.M{"$indexOfCP": bson.A{ref, args[0]}}, nil
	}
	tr := New(Config{
		Capabilities: caps,
		Resolver: func(p query.Path) string {
			return "doc." + DottedPath(p)
		},
	})

	got, err := tr.Translate(mustParse(t, "indexof(Name, 'x') eq 0"))
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$indexOfCP": bson.A{"$doc.Name", "x"}}, int64(0)}}}, got)
}

func TestFindOptions(t *testing.T) {
	opts, err := query.Assemble(map[string]string{
		"$filter":  "Age gt 1",
		"$search":  "a.b",
		"$orderby": "Name desc,user/age",
		"$select":  "Name,user/age",
		"$top":     "5",
		"$skip":    "10",
	})
	require.NoError(t, err)

	filter, find, err := FindOptions(opts, nil, []query.Path{{"Name"}, {"Notes"}})
	require.NoError(t, err)

	assert.Equal(t, bson.M{"$and": bson.A{
		bson.M{"Age": bson.M{"$gt": int64(1)}},
		bson.M{"$or": bson.A{
			bson.M{"Name": bson.M{"$regex": `a\.b`, "$options": "i"}},
			bson.M{"Notes": bson.M{"$regex": `a\.b`, "$options": "i"}},
		}},
	}}, filter)
	assert.Equal(t, bson.D{{Key: "Name", Value: -1}, {Key: "user.age", Value: 1}}, find.Sort)
	assert.Equal(t, bson.M{"Name": 1, "user.age": 1}, find.Projection)
	require.NotNil(t, find.Skip)
	require.NotNil(t, find.Limit)
	assert.Equal(t, int64(10), *find.Skip)
	assert.Equal(t, int64(5), *find.Limit)
}

func TestFindOptions_FilterError(t *testing.T) {
	opts := &query.QueryOptions{Filter: mustParse(t, "indexof(Name, 'x') eq 1")}
	_, _, err := FindOptions(opts, New(Config{}), nil)

	var qerr *query.Error
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, query.OptionFilter, qerr.Option)
	assert.Equal(t, query.ErrUnknownFunction, qerr.Kind)
}

func TestFindOptions_Empty(t *testing.T) {
	filter, find, err := FindOptions(&query.QueryOptions{}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, filter)
	assert.Nil(t, find.Sort)
	assert.Nil(t, find.Limit)
}
