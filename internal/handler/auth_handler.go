package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"property-service/internal/audit"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/pkg/jwtutil"
	"property-service/pkg/logger"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var bcryptCost = 12

// SetBcryptCost sets the work factor used when hashing new passwords
func SetBcryptCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	bcryptCost = cost
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      string `json:"role" validate:"omitempty,oneof=tenant owner manager agent"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserView is a user with role names flattened
type UserView struct {
	model.User
	Roles []string `gorm:"-" json:"roles"`
}

func newUserView(u model.User) UserView {
	return UserView{User: u, Roles: u.RoleNames()}
}

// Register creates an account with a single self-selected role
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req RegisterRequest
	if msg, ok := decode(c, &req); !ok {
		prometheus.RecordAuthError("invalid_request")
		return badRequest(c, msg)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	role := orDefault(req.Role, model.RoleTenant)

	db := database.GetDB().WithContext(c.Request().Context())

	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return internalError(c, "Failed to check email", err)
	}
	if count > 0 {
		log.Warn("Email already registered", zap.String("email", req.Email))
		prometheus.RecordAuthError("duplicate_email")
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email already registered"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return internalError(c, "Failed to hash password", err)
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     strPtr(req.LastName),
		Phone:        strPtr(req.Phone),
		IsActive:     true,
		Roles:        []model.UserRole{{RoleName: role}},
	}

	// Start transaction
	defer prometheus.TrackDBOperation("insert")(time.Now())
	tx := db.Begin()
	if tx.Error != nil {
		return internalError(c, "Failed to begin transaction", tx.Error)
	}

	// Creating the user also inserts its role row
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Email already registered"})
		}
		return internalError(c, "Failed to create user", err)
	}

	if err := tx.Commit().Error; err != nil {
		return internalError(c, "Failed to commit transaction", err)
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.FirstName, deref(user.LastName), []string{role})
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return internalError(c, "Failed to generate token", err)
	}

	audit.Record(c.Request().Context(), database.GetDB(), user.ID, audit.ActionCreate, "user", user.ID)
	log.Info("User registered", zap.String("user_id", user.ID), zap.String("role", role))

	return c.JSON(http.StatusCreated, echo.Map{
		"token": token,
		"user":  newUserView(user),
	})
}

// Login exchanges email and password for a token
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req LoginRequest
	if msg, ok := decode(c, &req); !ok {
		prometheus.RecordAuthError("invalid_request")
		return badRequest(c, msg)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	err := database.GetDB().WithContext(c.Request().Context()).
		Preload("Roles").
		Where("email = ?", email).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("Login for unknown email", zap.String("email", email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
	}
	if err != nil {
		return internalError(c, "Failed to load user", err)
	}

	if !user.IsActive {
		log.Warn("Login for deactivated account", zap.String("user_id", user.ID))
		prometheus.RecordAuthError("account_deactivated")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Account is deactivated"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
	}

	view := newUserView(user)
	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.FirstName, deref(user.LastName), view.Roles)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return internalError(c, "Failed to generate token", err)
	}

	log.Info("User logged in", zap.String("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  view,
	})
}

// Me returns the caller's profile with roles
func Me(c echo.Context) error {
	var user model.User
	err := database.GetDB().WithContext(c.Request().Context()).
		Preload("Roles").
		Where("id = ?", middleware.UserID(c)).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(c, "User")
	}
	if err != nil {
		return internalError(c, "Failed to load profile", err)
	}
	return c.JSON(http.StatusOK, newUserView(user))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
