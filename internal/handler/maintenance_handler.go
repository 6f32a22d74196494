package handler

import (
	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"

	"github.com/labstack/echo/v4"
)

// MaintenanceRequestRow is a maintenance request with property and requester names
type MaintenanceRequestRow struct {
	model.MaintenanceRequest
	PropertyName       *string `json:"property_name"`
	RequesterFirstName *string `json:"requester_first_name"`
	RequesterLastName  *string `json:"requester_last_name"`
}

// CreateMaintenanceRequestBody is the body of POST /api/maintenance
type CreateMaintenanceRequestBody struct {
	PropertyID    string   `json:"property_id" validate:"required,uuid"`
	Title         string   `json:"title" validate:"required"`
	Description   *string  `json:"description"`
	Category      *string  `json:"category"`
	Priority      string   `json:"priority"`
	Status        string   `json:"status"`
	AssignedTo    *string  `json:"assigned_to" validate:"omitempty,uuid"`
	EstimatedCost *float64 `json:"estimated_cost"`
}

// UpdateMaintenanceRequestBody is the body of PUT /api/maintenance/:id
type UpdateMaintenanceRequestBody struct {
	Title           *string     `json:"title"`
	Description     *string     `json:"description"`
	Category        *string     `json:"category"`
	Priority        *string     `json:"priority"`
	Status          *string     `json:"status"`
	AssignedTo      *string     `json:"assigned_to" validate:"omitempty,uuid"`
	EstimatedCost   *float64    `json:"estimated_cost"`
	ActualCost      *float64    `json:"actual_cost"`
	CompletedDate   *model.Date `json:"completed_date"`
	ResolutionNotes *string     `json:"resolution_notes"`
}

var maintenanceRequests = resource{
	name:     "maintenance_request",
	label:    "Maintenance request",
	newModel: func() interface{} { return &model.MaintenanceRequest{} },
	idColumn: "mr.id",
	query: crud.Query{
		Table: "maintenance_requests mr",
		Select: "mr.*, p.name AS property_name, " +
			"u.first_name AS requester_first_name, u.last_name AS requester_last_name",
		Joins: []string{
			"LEFT JOIN properties p ON p.id = mr.property_id",
			"LEFT JOIN app_users u ON u.id = mr.requested_by",
		},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "mr.property_id"},
			{Param: "status", Column: "mr.status"},
			{Param: "priority", Column: "mr.priority"},
		},
		Order: "mr.created_at DESC",
	},
}

// ListMaintenanceRequests lists maintenance requests, newest first
func ListMaintenanceRequests(c echo.Context) error {
	rows := []MaintenanceRequestRow{}
	return maintenanceRequests.list(c, &rows)
}

// GetMaintenanceRequest returns one maintenance request
func GetMaintenanceRequest(c echo.Context) error {
	var row MaintenanceRequestRow
	return maintenanceRequests.get(c, &row)
}

// CreateMaintenanceRequest raises a maintenance request for the caller
func CreateMaintenanceRequest(c echo.Context) error {
	var req CreateMaintenanceRequestBody
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, req.PropertyID, "Property"); stop {
		return err
	}

	mr := model.MaintenanceRequest{
		PropertyID:    req.PropertyID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Priority:      orDefault(req.Priority, "medium"),
		Status:        orDefault(req.Status, "open"),
		AssignedTo:    req.AssignedTo,
		EstimatedCost: req.EstimatedCost,
		RequestedBy:   strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &mr); err != nil {
		return internalError(c, "Failed to create maintenance request", err)
	}

	var row MaintenanceRequestRow
	return maintenanceRequests.created(c, mr.ID, &row)
}

// UpdateMaintenanceRequest changes the supplied request fields
func UpdateMaintenanceRequest(c echo.Context) error {
	var req UpdateMaintenanceRequestBody
	var row MaintenanceRequestRow
	return maintenanceRequests.update(c, &req, &row)
}

// DeleteMaintenanceRequest removes a maintenance request
func DeleteMaintenanceRequest(c echo.Context) error {
	return maintenanceRequests.delete(c)
}
