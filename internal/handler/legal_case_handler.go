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

// LegalCaseRow is a legal case with its property name
type LegalCaseRow struct {
	model.LegalCase
	PropertyName *string `json:"property_name"`
}

// CaseUpdateRow is a case update with its author's name
type CaseUpdateRow struct {
	model.CaseUpdate
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// CreateLegalCaseRequest is the body of POST /api/legal-cases
type CreateLegalCaseRequest struct {
	PropertyID     *string     `json:"property_id" validate:"omitempty,uuid"`
	CaseType       string      `json:"case_type" validate:"required"`
	Title          string      `json:"title" validate:"required"`
	Description    *string     `json:"description"`
	Status         string      `json:"status"`
	Priority       string      `json:"priority"`
	AssignedTo     *string     `json:"assigned_to" validate:"omitempty,uuid"`
	CourtReference *string     `json:"court_reference"`
	FilingDate     *model.Date `json:"filing_date"`
}

// UpdateLegalCaseRequest is the body of PUT /api/legal-cases/:id
type UpdateLegalCaseRequest struct {
	CaseType        *string     `json:"case_type"`
	Title           *string     `json:"title"`
	Description     *string     `json:"description"`
	Status          *string     `json:"status"`
	Priority        *string     `json:"priority"`
	AssignedTo      *string     `json:"assigned_to" validate:"omitempty,uuid"`
	CourtReference  *string     `json:"court_reference"`
	FilingDate      *model.Date `json:"filing_date"`
	ResolutionDate  *model.Date `json:"resolution_date"`
	ResolutionNotes *string     `json:"resolution_notes"`
}

// CreateCaseUpdateRequest is the body of POST /api/legal-cases/:id/updates
type CreateCaseUpdateRequest struct {
	UpdateType string         `json:"update_type"`
	Content    string         `json:"content" validate:"required"`
	Metadata   datatypes.JSON `json:"metadata"`
}

var legalCases = resource{
	name:     "legal_case",
	label:    "Legal case",
	newModel: func() interface{} { return &model.LegalCase{} },
	idColumn: "lc.id",
	query: crud.Query{
		Table:  "legal_cases lc",
		Select: "lc.*, p.name AS property_name",
		Joins:  []string{"LEFT JOIN properties p ON p.id = lc.property_id"},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "lc.property_id"},
			{Param: "status", Column: "lc.status"},
			{Param: "case_type", Column: "lc.case_type"},
		},
		Order: "lc.created_at DESC",
	},
}

var caseUpdates = resource{
	name:     "case_update",
	label:    "Case update",
	newModel: func() interface{} { return &model.CaseUpdate{} },
	idColumn: "cu.id",
	query: crud.Query{
		Table:  "case_updates cu",
		Select: "cu.*, u.first_name, u.last_name",
		Joins:  []string{"LEFT JOIN app_users u ON u.id = cu.created_by"},
		Order:  "cu.created_at DESC",
	},
}

// ListLegalCases lists legal cases, newest first
func ListLegalCases(c echo.Context) error {
	rows := []LegalCaseRow{}
	return legalCases.list(c, &rows)
}

// GetLegalCase returns one legal case
func GetLegalCase(c echo.Context) error {
	var row LegalCaseRow
	return legalCases.get(c, &row)
}

// CreateLegalCase opens a legal case
func CreateLegalCase(c echo.Context) error {
	var req CreateLegalCaseRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, deref(req.PropertyID), "Property"); stop {
		return err
	}

	lc := model.LegalCase{
		PropertyID:     req.PropertyID,
		CaseType:       req.CaseType,
		Title:          req.Title,
		Description:    req.Description,
		Status:         orDefault(req.Status, "open"),
		Priority:       orDefault(req.Priority, "medium"),
		AssignedTo:     req.AssignedTo,
		CourtReference: req.CourtReference,
		FilingDate:     req.FilingDate,
		CreatedBy:      strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &lc); err != nil {
		return internalError(c, "Failed to create legal case", err)
	}

	var row LegalCaseRow
	return legalCases.created(c, lc.ID, &row)
}

// UpdateLegalCase changes the supplied case fields
func UpdateLegalCase(c echo.Context) error {
	var req UpdateLegalCaseRequest
	var row LegalCaseRow
	return legalCases.update(c, &req, &row)
}

// DeleteLegalCase removes a legal case
func DeleteLegalCase(c echo.Context) error {
	return legalCases.delete(c)
}

// ListCaseUpdates lists a case's timeline, newest first
func ListCaseUpdates(c echo.Context) error {
	prometheus.RecordOperation(caseUpdates.name, "list")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}

	rows := []CaseUpdateRow{}
	page := crud.ParsePage(c.QueryParams())
	if err := caseUpdates.query.Page(c.Request().Context(), database.GetDB(), page, &rows, "cu.legal_case_id = ?", id); err != nil {
		return internalError(c, "Failed to list case updates", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// CreateCaseUpdate appends to a case's timeline
func CreateCaseUpdate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req CreateCaseUpdateRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	if ok, err := crud.Exists(ctx, database.GetDB(), &model.LegalCase{}, id); err != nil {
		return internalError(c, "Failed to load legal case", err)
	} else if !ok {
		return notFound(c, "Legal case")
	}

	update := model.CaseUpdate{
		LegalCaseID: id,
		UpdateType:  orDefault(req.UpdateType, "note"),
		Content:     req.Content,
		Metadata:    req.Metadata,
		CreatedBy:   strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(ctx, database.GetDB(), &update); err != nil {
		return internalError(c, "Failed to create case update", err)
	}

	var row CaseUpdateRow
	return caseUpdates.created(c, update.ID, &row)
}
