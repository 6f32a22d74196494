package crud

import (
	"context"
	"net/url"
	"testing"

	"property-service/internal/model"
	"property-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type propertyRow struct {
	model.Property
	City *string `json:"city"`
}

var propertyQuery = Query{
	Table:  "properties p",
	Select: "p.*, a.city",
	Joins:  []string{"LEFT JOIN addresses a ON a.id = p.address_id"},
	Filters: []Filter{
		{Param: "status", Column: "p.status"},
		{Param: "type", Column: "p.property_type"},
	},
	Order: "p.name ASC",
}

func seedProperties(t *testing.T, db *gorm.DB) []model.Property {
	t.Helper()
	city := "Dubai"
	addr := model.Address{Line1: "1 Marina Walk", City: &city, Country: "AE"}
	require.NoError(t, db.Create(&addr).Error)

	props := []model.Property{
		{Name: "Alpha", PropertyType: "villa", Status: "active", AddressID: &addr.ID},
		{Name: "Bravo", PropertyType: "apartment", Status: "active"},
		{Name: "Charlie", PropertyType: "apartment", Status: "inactive"},
	}
	require.NoError(t, db.Create(&props).Error)
	return props
}

func TestQueryList(t *testing.T) {
	db := testutil.NewDB(t)
	seedProperties(t, db)
	ctx := context.Background()

	var rows []propertyRow
	total, err := propertyQuery.List(ctx, db, url.Values{"status": {"active"}}, Page{Limit: 1}, &rows)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha", rows[0].Name)
	require.NotNil(t, rows[0].City)
	assert.Equal(t, "Dubai", *rows[0].City)

	rows = nil
	total, err = propertyQuery.List(ctx, db, url.Values{"type": {"apartment"}, "unknown": {"x"}}, Page{Limit: 10}, &rows)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 2)
}

func TestQueryAll(t *testing.T) {
	db := testutil.NewDB(t)
	seedProperties(t, db)

	var rows []propertyRow
	require.NoError(t, propertyQuery.All(context.Background(), db, url.Values{"type": {"apartment"}, "unknown": {"x"}}, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Bravo", rows[0].Name)
	assert.Equal(t, "Charlie", rows[1].Name)
}

func TestQueryGet(t *testing.T) {
	db := testutil.NewDB(t)
	props := seedProperties(t, db)
	ctx := context.Background()

	var row propertyRow
	require.NoError(t, propertyQuery.Get(ctx, db, "p.id", props[1].ID, &row))
	assert.Equal(t, "Bravo", row.Name)
	assert.Nil(t, row.City)

	err := propertyQuery.Get(ctx, db, "p.id", "00000000-0000-0000-0000-000000000000", &row)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	props := seedProperties(t, db)
	ctx := context.Background()

	status := "archived"
	require.NoError(t, Update(ctx, db, &model.Property{}, props[0].ID, Changes(&struct {
		Name   *string `json:"name"`
		Status *string `json:"status"`
	}{Status: &status})))

	var got model.Property
	require.NoError(t, Load(ctx, db, &got, props[0].ID))
	assert.Equal(t, "archived", got.Status)
	assert.Equal(t, "Alpha", got.Name)
	assert.False(t, got.UpdatedAt.Before(props[0].UpdatedAt))

	missing := "00000000-0000-0000-0000-000000000000"
	assert.ErrorIs(t, Update(ctx, db, &model.Property{}, missing, nil), ErrNotFound)

	require.NoError(t, Delete(ctx, db, &model.Property{}, props[0].ID))
	assert.ErrorIs(t, Delete(ctx, db, &model.Property{}, props[0].ID), ErrNotFound)

	ok, err := Exists(ctx, db, &model.Property{}, props[1].ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
