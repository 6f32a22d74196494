package router

import (
	"net/http"
	"testing"

	"property-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string   `json:"id"`
		Email    string   `json:"email"`
		IsActive bool     `json:"is_active"`
		Roles    []string `json:"roles"`
	} `json:"user"`
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email":      "Alice@Example.com",
		"password":   "s3cret",
		"first_name": "Alice",
	})
	requireStatus(t, rec, http.StatusCreated)
	var reg authResponse
	decode(t, rec, &reg)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "alice@example.com", reg.User.Email)
	assert.Equal(t, []string{model.RoleTenant}, reg.User.Roles)
	assert.True(t, reg.User.IsActive)
	assert.NotContains(t, rec.Body.String(), "password_hash")

	rec = s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "x", "first_name": "A",
	})
	requireStatus(t, rec, http.StatusConflict)
	assert.Equal(t, "Email already registered", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ALICE@example.com", "password": "s3cret",
	})
	requireStatus(t, rec, http.StatusOK)
	var login authResponse
	decode(t, rec, &login)
	assert.Equal(t, reg.User.ID, login.User.ID)

	rec = s.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	requireStatus(t, rec, http.StatusOK)
	var me authResponse
	decode(t, rec, &me.User)
	assert.Equal(t, []string{model.RoleTenant}, me.User.Roles)
}

func TestRegisterValidation(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "email, password, and first_name are required", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "bob@example.com", "password": "x", "first_name": "Bob", "role": "admin",
	})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "role must be one of: tenant, owner, manager, agent", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/auth/register", "", `{"email":`)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "Invalid request data", errorOf(t, rec))
}

func TestRegisterWithRole(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "owner@example.com", "password": "pw", "first_name": "Olga", "role": "owner",
	})
	requireStatus(t, rec, http.StatusCreated)
	var reg authResponse
	decode(t, rec, &reg)
	assert.Equal(t, []string{model.RoleOwner}, reg.User.Roles)
}

func TestLoginFailures(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "carol@example.com", "password": "right", "first_name": "Carol",
	})
	requireStatus(t, rec, http.StatusCreated)
	var reg authResponse
	decode(t, rec, &reg)

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "carol@example.com", "password": "wrong",
	})
	requireStatus(t, rec, http.StatusUnauthorized)
	assert.Equal(t, "Invalid email or password", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "right",
	})
	requireStatus(t, rec, http.StatusUnauthorized)
	assert.Equal(t, "Invalid email or password", errorOf(t, rec))

	require.NoError(t, s.db.Model(&model.User{}).Where("id = ?", reg.User.ID).Update("is_active", false).Error)
	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "carol@example.com", "password": "right",
	})
	requireStatus(t, rec, http.StatusForbidden)
	assert.Equal(t, "Account is deactivated", errorOf(t, rec))

	// deactivation is reported before the password is checked
	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "carol@example.com", "password": "wrong",
	})
	requireStatus(t, rec, http.StatusForbidden)
	assert.Equal(t, "Account is deactivated", errorOf(t, rec))
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/auth/me", "", nil)
	requireStatus(t, rec, http.StatusUnauthorized)
	assert.Equal(t, "Access token required", errorOf(t, rec))

	rec = s.do(http.MethodGet, "/api/properties", "not-a-jwt", nil)
	requireStatus(t, rec, http.StatusUnauthorized)
	assert.Equal(t, "Invalid or expired token", errorOf(t, rec))
}

func TestUserAdministration(t *testing.T) {
	s := newServer(t)
	_, adminToken := s.user(model.RoleAdmin)
	tenant, tenantToken := s.user(model.RoleTenant)

	rec := s.do(http.MethodGet, "/api/users", tenantToken, nil)
	requireStatus(t, rec, http.StatusForbidden)
	assert.Equal(t, "Insufficient permissions", errorOf(t, rec))

	rec = s.do(http.MethodGet, "/api/users", adminToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var users page
	decode(t, rec, &users)
	assert.EqualValues(t, 2, users.Total)

	rec = s.do(http.MethodPatch, "/api/users/"+tenant.ID+"/status", adminToken, map[string]bool{"is_active": false})
	requireStatus(t, rec, http.StatusOK)
	var view authResponse
	decode(t, rec, &view.User)
	assert.False(t, view.User.IsActive)
	assert.Equal(t, []string{model.RoleTenant}, view.User.Roles)

	rec = s.do(http.MethodPatch, "/api/users/"+tenant.ID+"/status", adminToken, map[string]string{})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "is_active is required", errorOf(t, rec))

	rec = s.do(http.MethodPatch, "/api/users/not-a-uuid/status", adminToken, map[string]bool{"is_active": true})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "Invalid id", errorOf(t, rec))
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodGet, "/nowhere", "", nil)
	requireStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, "Not Found", errorOf(t, rec))
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodGet, "/health?check=db", "", nil)
	requireStatus(t, rec, http.StatusOK)
}
