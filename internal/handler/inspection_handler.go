package handler

import (
	"net/http"

	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

// InspectionRow is an inspection with property and inspector names
type InspectionRow struct {
	model.Inspection
	PropertyName       *string `json:"property_name"`
	InspectorFirstName *string `json:"inspector_first_name"`
	InspectorLastName  *string `json:"inspector_last_name"`
}

// CreateInspectionRequest is the body of POST /api/inspections
type CreateInspectionRequest struct {
	PropertyID      string     `json:"property_id" validate:"required,uuid"`
	InspectionType  string     `json:"inspection_type" validate:"required"`
	ScheduledDate   model.Date `json:"scheduled_date" validate:"required"`
	Status          string     `json:"status"`
	InspectorUserID *string    `json:"inspector_user_id" validate:"omitempty,uuid"`
	Notes           *string    `json:"notes"`
	Findings        *string    `json:"findings"`
}

// UpdateInspectionRequest is the body of PUT /api/inspections/:id
type UpdateInspectionRequest struct {
	InspectionType  *string     `json:"inspection_type"`
	ScheduledDate   *model.Date `json:"scheduled_date"`
	CompletedDate   *model.Date `json:"completed_date"`
	Status          *string     `json:"status"`
	InspectorUserID *string     `json:"inspector_user_id" validate:"omitempty,uuid"`
	Notes           *string     `json:"notes"`
	Findings        *string     `json:"findings"`
	Rating          *int        `json:"rating" validate:"omitempty,min=1,max=5"`
}

// CreateInspectionMediaRequest is the body of POST /api/inspections/:id/media
type CreateInspectionMediaRequest struct {
	FileURL  string         `json:"file_url" validate:"required"`
	FileType string         `json:"file_type"`
	Caption  *string        `json:"caption"`
	Room     *string        `json:"room"`
	Metadata datatypes.JSON `json:"metadata"`
}

var inspections = resource{
	name:     "inspection",
	label:    "Inspection",
	newModel: func() interface{} { return &model.Inspection{} },
	idColumn: "i.id",
	query: crud.Query{
		Table: "inspections i",
		Select: "i.*, p.name AS property_name, " +
			"u.first_name AS inspector_first_name, u.last_name AS inspector_last_name",
		Joins: []string{
			"JOIN properties p ON p.id = i.property_id",
			"LEFT JOIN app_users u ON u.id = i.inspector_user_id",
		},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "i.property_id"},
			{Param: "status", Column: "i.status"},
			{Param: "type", Column: "i.inspection_type"},
		},
		Order: "i.scheduled_date DESC",
	},
}

var inspectionMedia = resource{
	name:     "inspection_media",
	label:    "Inspection media",
	newModel: func() interface{} { return &model.InspectionMedia{} },
	idColumn: "im.id",
	query: crud.Query{
		Table:  "inspection_media im",
		Select: "im.*",
		Order:  "im.created_at DESC",
	},
}

// ListInspections lists inspections, latest scheduled first
func ListInspections(c echo.Context) error {
	rows := []InspectionRow{}
	return inspections.list(c, &rows)
}

// GetInspection returns one inspection
func GetInspection(c echo.Context) error {
	var row InspectionRow
	return inspections.get(c, &row)
}

// CreateInspection schedules an inspection
func CreateInspection(c echo.Context) error {
	var req CreateInspectionRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, req.PropertyID, "Property"); stop {
		return err
	}

	inspection := model.Inspection{
		PropertyID:      req.PropertyID,
		InspectionType:  req.InspectionType,
		ScheduledDate:   req.ScheduledDate,
		Status:          orDefault(req.Status, "scheduled"),
		InspectorUserID: req.InspectorUserID,
		Notes:           req.Notes,
		Findings:        req.Findings,
		CreatedBy:       strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &inspection); err != nil {
		return internalError(c, "Failed to create inspection", err)
	}

	var row InspectionRow
	return inspections.created(c, inspection.ID, &row)
}

// UpdateInspection changes the supplied inspection fields
func UpdateInspection(c echo.Context) error {
	var req UpdateInspectionRequest
	var row InspectionRow
	return inspections.update(c, &req, &row)
}

// DeleteInspection removes an inspection
func DeleteInspection(c echo.Context) error {
	return inspections.delete(c)
}

// ListInspectionMedia lists an inspection's media, newest first
func ListInspectionMedia(c echo.Context) error {
	prometheus.RecordOperation(inspectionMedia.name, "list")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}

	rows := []model.InspectionMedia{}
	if err := inspectionMedia.query.Find(c.Request().Context(), database.GetDB(), &rows, "im.inspection_id = ?", id); err != nil {
		return internalError(c, "Failed to list inspection media", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// CreateInspectionMedia attaches a file to an inspection
func CreateInspectionMedia(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req CreateInspectionMediaRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	if ok, err := crud.Exists(ctx, database.GetDB(), &model.Inspection{}, id); err != nil {
		return internalError(c, "Failed to load inspection", err)
	} else if !ok {
		return notFound(c, "Inspection")
	}

	media := model.InspectionMedia{
		InspectionID: id,
		FileURL:      req.FileURL,
		FileType:     orDefault(req.FileType, "image"),
		Caption:      req.Caption,
		Room:         req.Room,
		Metadata:     req.Metadata,
		UploadedBy:   strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(ctx, database.GetDB(), &media); err != nil {
		return internalError(c, "Failed to create inspection media", err)
	}

	var row model.InspectionMedia
	return inspectionMedia.created(c, media.ID, &row)
}
