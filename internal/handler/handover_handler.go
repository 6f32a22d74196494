package handler

import (
	"net/http"

	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/pkg/logger"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
)

// HandoverRow is a handover with its property name
type HandoverRow struct {
	model.Handover
	PropertyName *string `json:"property_name"`
}

// CreateHandoverRequest is the body of POST /api/handovers
type CreateHandoverRequest struct {
	PropertyID   string      `json:"property_id" validate:"required,uuid"`
	Title        string      `json:"title" validate:"required"`
	Description  *string     `json:"description"`
	Status       string      `json:"status"`
	HandoverDate *model.Date `json:"handover_date"`
	FromParty    *string     `json:"from_party"`
	ToParty      *string     `json:"to_party"`
	Notes        *string     `json:"notes"`
}

// UpdateHandoverRequest is the body of PUT /api/handovers/:id
type UpdateHandoverRequest struct {
	Title         *string     `json:"title"`
	Description   *string     `json:"description"`
	Status        *string     `json:"status"`
	HandoverDate  *model.Date `json:"handover_date"`
	FromParty     *string     `json:"from_party"`
	ToParty       *string     `json:"to_party"`
	CompletedDate *model.Date `json:"completed_date"`
	Notes         *string     `json:"notes"`
}

// CreateHandoverItemRequest is the body of POST /api/handovers/:id/items
type CreateHandoverItemRequest struct {
	ItemName    string  `json:"item_name" validate:"required"`
	Description *string `json:"description"`
	Condition   *string `json:"condition"`
	Quantity    int     `json:"quantity" validate:"omitempty,min=1"`
	Notes       *string `json:"notes"`
	Status      string  `json:"status"`
}

// UpdateHandoverItemRequest is the body of PUT /api/handovers/items/:itemId
type UpdateHandoverItemRequest struct {
	ItemName    *string `json:"item_name"`
	Description *string `json:"description"`
	Condition   *string `json:"condition"`
	Quantity    *int    `json:"quantity" validate:"omitempty,min=1"`
	Notes       *string `json:"notes"`
	Status      *string `json:"status"`
}

var handovers = resource{
	name:     "handover",
	label:    "Handover",
	newModel: func() interface{} { return &model.Handover{} },
	idColumn: "h.id",
	query: crud.Query{
		Table:  "service_handovers h",
		Select: "h.*, p.name AS property_name",
		Joins:  []string{"LEFT JOIN properties p ON p.id = h.property_id"},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "h.property_id"},
			{Param: "status", Column: "h.status"},
		},
		Order: "h.created_at DESC",
	},
}

var handoverItems = resource{
	name:     "handover_item",
	label:    "Handover item",
	newModel: func() interface{} { return &model.HandoverItem{} },
	idColumn: "hi.id",
	query: crud.Query{
		Table:  "handover_items hi",
		Select: "hi.*",
		Order:  "hi.created_at ASC",
	},
}

// ListHandovers lists handovers, newest first
func ListHandovers(c echo.Context) error {
	rows := []HandoverRow{}
	return handovers.list(c, &rows)
}

// GetHandover returns one handover
func GetHandover(c echo.Context) error {
	var row HandoverRow
	return handovers.get(c, &row)
}

// CreateHandover starts a handover checklist
func CreateHandover(c echo.Context) error {
	var req CreateHandoverRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, req.PropertyID, "Property"); stop {
		return err
	}

	h := model.Handover{
		PropertyID:   req.PropertyID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       orDefault(req.Status, "pending"),
		HandoverDate: req.HandoverDate,
		FromParty:    req.FromParty,
		ToParty:      req.ToParty,
		Notes:        req.Notes,
		CreatedBy:    strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &h); err != nil {
		return internalError(c, "Failed to create handover", err)
	}

	var row HandoverRow
	return handovers.created(c, h.ID, &row)
}

// UpdateHandover changes the supplied handover fields
func UpdateHandover(c echo.Context) error {
	var req UpdateHandoverRequest
	var row HandoverRow
	return handovers.update(c, &req, &row)
}

// DeleteHandover removes a handover and its items
func DeleteHandover(c echo.Context) error {
	return handovers.delete(c)
}

// ListHandoverItems lists a handover's checklist in entry order
func ListHandoverItems(c echo.Context) error {
	prometheus.RecordOperation(handoverItems.name, "list")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}

	rows := []model.HandoverItem{}
	if err := handoverItems.query.Find(c.Request().Context(), database.GetDB(), &rows, "hi.handover_id = ?", id); err != nil {
		return internalError(c, "Failed to list handover items", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// CreateHandoverItem adds a checklist line
func CreateHandoverItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req CreateHandoverItemRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	if ok, err := crud.Exists(ctx, database.GetDB(), &model.Handover{}, id); err != nil {
		return internalError(c, "Failed to load handover", err)
	} else if !ok {
		return notFound(c, handovers.label)
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	item := model.HandoverItem{
		HandoverID:  id,
		ItemName:    req.ItemName,
		Description: req.Description,
		Condition:   req.Condition,
		Quantity:    quantity,
		Notes:       req.Notes,
		Status:      orDefault(req.Status, "pending"),
	}
	if err := crud.Create(ctx, database.GetDB(), &item); err != nil {
		return internalError(c, "Failed to create handover item", err)
	}

	var row model.HandoverItem
	return handoverItems.created(c, item.ID, &row)
}

// UpdateHandoverItem changes the supplied item fields
func UpdateHandoverItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation(handoverItems.name, "update")

	id, ok := pathID(c, "itemId")
	if !ok {
		return invalidID(c)
	}
	var req UpdateHandoverItemRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	var row model.HandoverItem
	return handoverItems.applyUpdate(c, id, crud.Changes(&req), &row, log)
}
