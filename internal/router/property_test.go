package router

import (
	"fmt"
	"net/http"
	"testing"

	"property-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyCRUD(t *testing.T) {
	s := newServer(t)
	manager, token := s.user(model.RoleManager)

	rec := s.do(http.MethodPost, "/api/properties", token, map[string]interface{}{
		"name":          "Marina Tower 12B",
		"property_type": "apartment",
		"description":   "Sea view",
		"line1":         "12 Marina Walk",
		"city":          "Dubai",
	})
	requireStatus(t, rec, http.StatusCreated)
	var created map[string]interface{}
	decode(t, rec, &created)
	id := created["id"].(string)
	assert.Equal(t, "active", created["status"])
	assert.Equal(t, "12 Marina Walk", created["line1"])
	assert.Equal(t, "AE", created["country"])
	assert.Equal(t, manager.ID, created["created_by"])

	rec = s.do(http.MethodPut, "/api/properties/"+id, token, map[string]string{"status": "vacant"})
	requireStatus(t, rec, http.StatusOK)
	var updated map[string]interface{}
	decode(t, rec, &updated)
	assert.Equal(t, "vacant", updated["status"])
	assert.Equal(t, "Marina Tower 12B", updated["name"])
	assert.Equal(t, "Sea view", updated["description"])

	rec = s.do(http.MethodGet, "/api/properties/"+id, token, nil)
	requireStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodDelete, "/api/properties/"+id, token, nil)
	requireStatus(t, rec, http.StatusOK)
	var msg map[string]string
	decode(t, rec, &msg)
	assert.Equal(t, "Property deleted successfully", msg["message"])

	rec = s.do(http.MethodGet, "/api/properties/"+id, token, nil)
	requireStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, "Property not found", errorOf(t, rec))

	rec = s.do(http.MethodDelete, "/api/properties/"+id, token, nil)
	requireStatus(t, rec, http.StatusNotFound)

	rec = s.do(http.MethodPut, "/api/properties/"+id, token, map[string]string{"name": "Ghost"})
	requireStatus(t, rec, http.StatusNotFound)

	var logs int64
	require.NoError(t, s.db.Model(&model.AuditLog{}).Where("entity_type = ? AND entity_id = ?", "property", id).Count(&logs).Error)
	assert.EqualValues(t, 3, logs)
}

func TestPropertyValidation(t *testing.T) {
	s := newServer(t)
	_, token := s.user(model.RoleAgent)

	rec := s.do(http.MethodPost, "/api/properties", token, map[string]string{})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "name and property_type are required", errorOf(t, rec))

	rec = s.do(http.MethodGet, "/api/properties/42", token, nil)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "Invalid id", errorOf(t, rec))
}

func TestPropertyListFiltersAndPages(t *testing.T) {
	s := newServer(t)
	_, token := s.user(model.RoleManager)

	for i := 0; i < 5; i++ {
		s.property(fmt.Sprintf("Unit %d", i))
	}
	vacant := model.Property{Name: "Empty villa", PropertyType: "villa", Status: "vacant"}
	require.NoError(t, s.db.Create(&vacant).Error)

	rec := s.do(http.MethodGet, "/api/properties?limit=2&offset=2", token, nil)
	requireStatus(t, rec, http.StatusOK)
	var p page
	decode(t, rec, &p)
	assert.EqualValues(t, 6, p.Total)
	assert.Equal(t, 2, p.Limit)
	assert.Equal(t, 2, p.Offset)
	assert.Len(t, p.Data, 2)

	rec = s.do(http.MethodGet, "/api/properties?status=vacant", token, nil)
	requireStatus(t, rec, http.StatusOK)
	decode(t, rec, &p)
	require.EqualValues(t, 1, p.Total)
	assert.Equal(t, vacant.ID, p.Data[0]["id"])

	rec = s.do(http.MethodGet, "/api/properties?type=villa&status=active", token, nil)
	requireStatus(t, rec, http.StatusOK)
	decode(t, rec, &p)
	assert.EqualValues(t, 0, p.Total)
	assert.Empty(t, p.Data)

	rec = s.do(http.MethodGet, "/api/properties?limit=1000", token, nil)
	requireStatus(t, rec, http.StatusOK)
	decode(t, rec, &p)
	assert.Equal(t, 200, p.Limit)
}

func TestPropertyOwners(t *testing.T) {
	s := newServer(t)
	_, token := s.user(model.RoleManager)
	owner, _ := s.user(model.RoleOwner)
	prop := s.property("Creek Villa")

	rec := s.do(http.MethodPost, "/api/properties/"+prop.ID+"/owners", token, map[string]interface{}{
		"owner_user_id":        owner.ID,
		"ownership_percentage": 60,
	})
	requireStatus(t, rec, http.StatusCreated)

	rec = s.do(http.MethodPost, "/api/properties/"+prop.ID+"/owners", token, map[string]interface{}{
		"owner_user_id":        owner.ID,
		"ownership_percentage": 160,
	})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "ownership_percentage is invalid", errorOf(t, rec))

	rec = s.do(http.MethodGet, "/api/properties/"+prop.ID+"/owners", token, nil)
	requireStatus(t, rec, http.StatusOK)
	var owners []map[string]interface{}
	decode(t, rec, &owners)
	require.Len(t, owners, 1)
	assert.Equal(t, owner.Email, owners[0]["email"])
	assert.EqualValues(t, 60, owners[0]["ownership_percentage"])
}
