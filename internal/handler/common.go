package handler

import (
	"errors"
	"net/http"
	"strings"

	"property-service/internal/audit"
	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/pkg/database"
	"property-service/pkg/logger"
	"property-service/pkg/validation"
	"property-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// decode binds the JSON body into req and runs struct validation. On failure
// it returns the client-facing message.
func decode(c echo.Context, req interface{}) (string, bool) {
	if err := c.Bind(req); err != nil {
		logger.FromContext(c).Warn("Invalid request data", zap.Error(err))
		return "Invalid request data", false
	}
	if err := c.Validate(req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return verr.Error(), false
		}
		logger.FromContext(c).Warn("Request validation failed", zap.Error(err))
		return "Invalid request data", false
	}
	return "", true
}

// pathID reads a UUID path parameter
func pathID(c echo.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func invalidID(c echo.Context) error {
	return badRequest(c, "Invalid id")
}

func notFound(c echo.Context, label string) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": label + " not found"})
}

// missingRow answers 404 "<label> not found" when id names no row in m's
// table. Empty ids pass. stop reports that a response was written.
func missingRow(c echo.Context, m interface{}, id, label string) (stop bool, err error) {
	if id == "" {
		return false, nil
	}
	ok, err := crud.Exists(c.Request().Context(), database.GetDB(), m, id)
	if err != nil {
		return true, internalError(c, "Failed to load "+strings.ToLower(label), err)
	}
	if !ok {
		return true, notFound(c, label)
	}
	return false, nil
}

// internalError logs the cause and hides it from the client
func internalError(c echo.Context, msg string, err error) error {
	logger.FromContext(c).Error(msg, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
}

// listResult wraps a page of rows in the pagination envelope
func listResult(rows interface{}, total int64, page crud.Page) crud.ListResult {
	return crud.ListResult{Data: rows, Total: total, Limit: page.Limit, Offset: page.Offset}
}

// strPtr returns nil for empty strings
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// resource bundles the per-table pieces shared by get, update, list and delete
type resource struct {
	name     string // entity type used for metrics and audit rows
	label    string // prefix of the 404 message
	newModel func() interface{}
	query    crud.Query
	idColumn string
}

func (r resource) list(c echo.Context, rows interface{}) error {
	prometheus.RecordOperation(r.name, "list")
	page := crud.ParsePage(c.QueryParams())
	total, err := r.query.List(c.Request().Context(), database.GetDB(), c.QueryParams(), page, rows)
	if err != nil {
		return internalError(c, "Failed to list "+r.name, err)
	}
	return c.JSON(http.StatusOK, listResult(rows, total, page))
}

func (r resource) get(c echo.Context, row interface{}) error {
	prometheus.RecordOperation(r.name, "get")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	return r.respondRow(c, id, row, http.StatusOK)
}

// respondRow reloads the denormalised row and writes it with status
func (r resource) respondRow(c echo.Context, id string, row interface{}, status int) error {
	err := r.query.Get(c.Request().Context(), database.GetDB(), r.idColumn, id, row)
	if errors.Is(err, crud.ErrNotFound) {
		return notFound(c, r.label)
	}
	if err != nil {
		return internalError(c, "Failed to load "+r.name, err)
	}
	return c.JSON(status, row)
}

// created audits a freshly inserted row and responds with its joined view
func (r resource) created(c echo.Context, id string, row interface{}) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation(r.name, "create")
	audit.Record(c.Request().Context(), database.GetDB(), middleware.UserID(c), audit.ActionCreate, r.name, id)
	log.Info("Created "+r.name, zap.String("id", id))
	return r.respondRow(c, id, row, http.StatusCreated)
}

// update applies the set fields of req to the row at :id
func (r resource) update(c echo.Context, req interface{}, row interface{}) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation(r.name, "update")

	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if msg, ok := decode(c, req); !ok {
		return badRequest(c, msg)
	}
	return r.applyUpdate(c, id, crud.Changes(req), row, log)
}

func (r resource) applyUpdate(c echo.Context, id string, changes map[string]interface{}, row interface{}, log *zap.Logger) error {
	ctx := c.Request().Context()
	err := crud.Update(ctx, database.GetDB(), r.newModel(), id, changes)
	if errors.Is(err, crud.ErrNotFound) {
		return notFound(c, r.label)
	}
	if err != nil {
		return internalError(c, "Failed to update "+r.name, err)
	}

	audit.Record(ctx, database.GetDB(), middleware.UserID(c), audit.ActionUpdate, r.name, id)
	log.Info("Updated "+r.name, zap.String("id", id), zap.Int("fields", len(changes)))
	return r.respondRow(c, id, row, http.StatusOK)
}

func (r resource) delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation(r.name, "delete")

	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}

	ctx := c.Request().Context()
	err := crud.Delete(ctx, database.GetDB(), r.newModel(), id)
	if errors.Is(err, crud.ErrNotFound) {
		return notFound(c, r.label)
	}
	if err != nil {
		return internalError(c, "Failed to delete "+r.name, err)
	}

	audit.Record(ctx, database.GetDB(), middleware.UserID(c), audit.ActionDelete, r.name, id)
	log.Info("Deleted "+r.name, zap.String("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": r.label + " deleted successfully"})
}
