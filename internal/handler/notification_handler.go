package handler

import (
	"net/http"
	"strconv"

	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var notifications = crud.Query{
	Table:  "notifications n",
	Select: "n.*",
	Order:  "n.created_at DESC",
}

// ListNotifications returns the caller's notifications, newest first
func ListNotifications(c echo.Context) error {
	prometheus.RecordOperation("notification", "list")
	userID := middleware.UserID(c)

	unreadOnly := false
	if v := c.QueryParam("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "unread must be true or false")
		}
		unreadOnly = b
	}
	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("n.user_id = ?", userID)
		if unreadOnly {
			tx = tx.Where("n.is_read = ?", false)
		}
		return tx
	}

	rows := []model.Notification{}
	page := crud.ParsePage(c.QueryParams())
	total, err := notifications.List(c.Request().Context(), database.GetDB(), nil, page, &rows, scope)
	if err != nil {
		return internalError(c, "Failed to list notifications", err)
	}
	return c.JSON(http.StatusOK, listResult(&rows, total, page))
}

// MarkNotificationRead flags one of the caller's notifications as read
func MarkNotificationRead(c echo.Context) error {
	prometheus.RecordOperation("notification", "update")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}

	ctx := c.Request().Context()
	res := database.GetDB().WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, middleware.UserID(c)).
		Update("is_read", true)
	if res.Error != nil {
		return internalError(c, "Failed to update notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(c, "Notification")
	}

	var n model.Notification
	if err := crud.Load(ctx, database.GetDB(), &n, id); err != nil {
		return internalError(c, "Failed to load notification", err)
	}
	return c.JSON(http.StatusOK, n)
}
