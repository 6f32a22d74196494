package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"property-service/internal/chat"
	"property-service/internal/model"
	"property-service/internal/testutil"
	"property-service/pkg/config"
	"property-service/pkg/database"
	"property-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type server struct {
	t   *testing.T
	e   *echo.Echo
	db  *gorm.DB
	hub *chat.Hub
}

func testConfig() *config.Config {
	return &config.Config{
		ServiceName: "property-service-test",
		Server:      config.ServerConfig{Env: "test", BodyLimit: "1M"},
		JWT:         config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1},
		Auth:        config.AuthConfig{BcryptCost: bcrypt.MinCost},
		Pagination:  config.PaginationConfig{DefaultLimit: 20, MaxLimit: 200},
	}
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := testConfig()
	db := testutil.NewDB(t)
	database.SetDB(db)
	jwtutil.Initialize(&cfg.JWT)

	hub := chat.NewHub(nil)
	t.Cleanup(hub.Close)
	return &server{t: t, e: New(cfg, hub), db: db, hub: hub}
}

// do sends a JSON request; body may be nil, a string or any value to marshal
func (s *server) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

var userSeq atomic.Int64

// user inserts an active account holding roles and returns it with a token
func (s *server) user(roles ...string) (model.User, string) {
	s.t.Helper()
	n := userSeq.Add(1)
	u := model.User{
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "unused",
		FirstName:    fmt.Sprintf("User%d", n),
		IsActive:     true,
	}
	for _, r := range roles {
		u.Roles = append(u.Roles, model.UserRole{RoleName: r})
	}
	require.NoError(s.t, s.db.Create(&u).Error)

	token, err := jwtutil.GenerateToken(u.ID, u.Email, u.FirstName, "", roles)
	require.NoError(s.t, err)
	return u, token
}

// property inserts a property directly
func (s *server) property(name string) model.Property {
	s.t.Helper()
	p := model.Property{Name: name, PropertyType: "apartment", Status: "active"}
	require.NoError(s.t, s.db.Create(&p).Error)
	return p
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}

type page struct {
	Data   []map[string]interface{} `json:"data"`
	Total  int64                    `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}

