package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"property-service/internal/audit"
	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/pkg/logger"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserStatusRequest is the body of PATCH /api/users/:id/status
type UserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ListUsers lists accounts, optionally filtered by role and active flag
func ListUsers(c echo.Context) error {
	prometheus.RecordOperation("user", "list")
	page := crud.ParsePage(c.QueryParams())

	var active *bool
	if v := c.QueryParam("is_active"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "is_active must be true or false")
		}
		active = &parsed
	}
	role := c.QueryParam("role")

	db := database.GetDB().WithContext(c.Request().Context())
	filtered := func() *gorm.DB {
		tx := db.Model(&model.User{})
		if role != "" {
			tx = tx.Where("id IN (?)", db.Model(&model.UserRole{}).Select("user_id").Where("role_name = ?", role))
		}
		if active != nil {
			tx = tx.Where("is_active = ?", *active)
		}
		return tx
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return internalError(c, "Failed to count users", err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := filtered().Preload("Roles").Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&users).Error; err != nil {
		return internalError(c, "Failed to list users", err)
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	return c.JSON(http.StatusOK, listResult(views, total, page))
}

// UpdateUserStatus activates or deactivates an account
func UpdateUserStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("user", "update")

	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req UserStatusRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	err := crud.Update(ctx, database.GetDB(), &model.User{}, id, map[string]interface{}{"is_active": *req.IsActive})
	if errors.Is(err, crud.ErrNotFound) {
		return notFound(c, "User")
	}
	if err != nil {
		return internalError(c, "Failed to update user status", err)
	}
	audit.Record(ctx, database.GetDB(), middleware.UserID(c), audit.ActionUpdate, "user", id)

	var user model.User
	if err := database.GetDB().WithContext(ctx).Preload("Roles").Where("id = ?", id).Take(&user).Error; err != nil {
		return internalError(c, "Failed to reload user", err)
	}

	log.Info("User status changed", zap.String("user_id", id), zap.Bool("is_active", *req.IsActive))
	return c.JSON(http.StatusOK, newUserView(user))
}
