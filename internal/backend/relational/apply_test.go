package relational

import (
	"errors"
	"testing"

	"github.com/nlstn/go-odata-query/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_FullOptions(t *testing.T) {
	db := setupTestDB(t)
	tr := schemaTranslator(t, db.Dialector.Name())

	opts, err := query.Assemble(map[string]string{
		"$filter":  "Age ge 25",
		"$orderby": "Profile/City desc,Age",
		"$expand":  "Profile",
		"$top":     "2",
		"$skip":    "1",
		"$count":   "true",
	})
	require.NoError(t, err)

	tx, err := Apply(db.Model(&testUser{}), opts, tr, ApplyOptions{})
	require.NoError(t, err)

	var users []testUser
	require.NoError(t, tx.Find(&users).Error)

	// Boston(2), Berlin(1, 4) by age, then user 3 without a profile: SQLite sorts NULL last in DESC.
	require.Len(t, users, 2)
	assert.Equal(t, uint(1), users[0].ID)
	assert.Equal(t, uint(4), users[1].ID)
	require.NotNil(t, users[0].Profile)
	assert.Equal(t, "Berlin", users[0].Profile.City)

	counted, err := ApplyFilter(db.Model(&testUser{}), opts.WithoutPagination().Filter, tr)
	require.NoError(t, err)
	var total int64
	require.NoError(t, counted.Count(&total).Error)
	assert.Equal(t, int64(4), total)
}

func TestApply_Search(t *testing.T) {
	db := setupTestDB(t)
	tr := schemaTranslator(t, db.Dialector.Name())

	opts, err := query.Assemble(map[string]string{"$search": "BOS"})
	require.NoError(t, err)

	tx, err := Apply(db.Model(&testUser{}), opts, tr, ApplyOptions{
		SearchFields: []query.Path{{"Name"}, {"Profile", "City"}},
	})
	require.NoError(t, err)

	var users []testUser
	require.NoError(t, tx.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "Bob", users[0].Name)
}

func TestApply_Select(t *testing.T) {
	db := setupTestDB(t)
	tr := schemaTranslator(t, db.Dialector.Name())

	opts, err := query.Assemble(map[string]string{"$select": "ID,Name", "$filter": "ID eq 2"})
	require.NoError(t, err)

	tx, err := Apply(db.Model(&testUser{}), opts, tr, ApplyOptions{})
	require.NoError(t, err)

	var users []testUser
	require.NoError(t, tx.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "Bob", users[0].Name)
	assert.Zero(t, users[0].Age)
}

func TestApply_ErrorsCarryOption(t *testing.T) {
	db := setupTestDB(t)
	tr := schemaTranslator(t, db.Dialector.Name())

	tests := []struct {
		name   string
		opts   map[string]string
		option string
	}{
		{"Filter", map[string]string{"$filter": "Missing eq 1"}, query.OptionFilter},
		{"OrderBy", map[string]string{"$orderby": "Missing"}, query.OptionOrderBy},
		{"Select", map[string]string{"$select": "Missing"}, query.OptionSelect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := query.Assemble(tt.opts)
			require.NoError(t, err)

			_, err = Apply(db.Model(&testUser{}), opts, tr, ApplyOptions{})
			var qerr *query.Error
			require.True(t, errors.As(err, &qerr), "got %v", err)
			assert.Equal(t, query.ErrUnresolvablePath, qerr.Kind)
			assert.Equal(t, tt.option, qerr.Option)
		})
	}
}

func TestApply_NilOptions(t *testing.T) {
	db := setupTestDB(t)
	tx, err := Apply(db, nil, nil, ApplyOptions{})
	require.NoError(t, err)
	assert.Same(t, db, tx)
}

func TestApply_NilDB(t *testing.T) {
	_, err := Apply(nil, &query.QueryOptions{}, nil, ApplyOptions{})
	assert.True(t, errors.Is(err, ErrNilDB))

	_, err = ApplyFilter(nil, nil, nil)
	assert.True(t, errors.Is(err, ErrNilDB))
}
