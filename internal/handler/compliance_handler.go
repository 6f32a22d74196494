package handler

import (
	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/pkg/logger"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
)

// ComplianceCheckRow is a compliance check with its property name
type ComplianceCheckRow struct {
	model.ComplianceCheck
	PropertyName *string `json:"property_name"`
}

// CreateComplianceCheckRequest is the body of POST /api/compliance
type CreateComplianceCheckRequest struct {
	PropertyID   string      `json:"property_id" validate:"required,uuid"`
	CheckType    string      `json:"check_type" validate:"required"`
	Title        string      `json:"title" validate:"required"`
	Description  *string     `json:"description"`
	Status       string      `json:"status"`
	DueDate      *model.Date `json:"due_date"`
	AssignedTo   *string     `json:"assigned_to" validate:"omitempty,uuid"`
	AuditCycleID *string     `json:"audit_cycle_id" validate:"omitempty,uuid"`
}

// UpdateComplianceCheckRequest is the body of PUT /api/compliance/:id
type UpdateComplianceCheckRequest struct {
	CheckType     *string     `json:"check_type"`
	Title         *string     `json:"title"`
	Description   *string     `json:"description"`
	Status        *string     `json:"status"`
	DueDate       *model.Date `json:"due_date"`
	CompletedDate *model.Date `json:"completed_date"`
	AssignedTo    *string     `json:"assigned_to" validate:"omitempty,uuid"`
	Findings      *string     `json:"findings"`
	AuditCycleID  *string     `json:"audit_cycle_id" validate:"omitempty,uuid"`
}

// CreateAuditCycleRequest is the body of POST /api/compliance/audit-cycles
type CreateAuditCycleRequest struct {
	Name        string     `json:"name" validate:"required"`
	StartDate   model.Date `json:"start_date" validate:"required"`
	EndDate     model.Date `json:"end_date" validate:"required"`
	Status      string     `json:"status"`
	Description *string    `json:"description"`
}

var complianceChecks = resource{
	name:     "compliance_check",
	label:    "Compliance check",
	newModel: func() interface{} { return &model.ComplianceCheck{} },
	idColumn: "cc.id",
	query: crud.Query{
		Table:  "compliance_checks cc",
		Select: "cc.*, p.name AS property_name",
		Joins:  []string{"LEFT JOIN properties p ON p.id = cc.property_id"},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "cc.property_id"},
			{Param: "status", Column: "cc.status"},
			{Param: "check_type", Column: "cc.check_type"},
			{Param: "audit_cycle_id", Column: "cc.audit_cycle_id"},
		},
		Order: "cc.due_date ASC",
	},
}

var auditCycles = resource{
	name:     "audit_cycle",
	label:    "Audit cycle",
	newModel: func() interface{} { return &model.AuditCycle{} },
	idColumn: "ac.id",
	query: crud.Query{
		Table:   "audit_cycles ac",
		Select:  "ac.*",
		Filters: []crud.Filter{{Param: "status", Column: "ac.status"}},
		Order:   "ac.created_at DESC",
	},
}

// ListComplianceChecks lists checks, soonest due first
func ListComplianceChecks(c echo.Context) error {
	rows := []ComplianceCheckRow{}
	return complianceChecks.list(c, &rows)
}

// GetComplianceCheck returns one compliance check
func GetComplianceCheck(c echo.Context) error {
	var row ComplianceCheckRow
	return complianceChecks.get(c, &row)
}

// CreateComplianceCheck records a new check
func CreateComplianceCheck(c echo.Context) error {
	var req CreateComplianceCheckRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, req.PropertyID, "Property"); stop {
		return err
	}
	if stop, err := missingRow(c, &model.AuditCycle{}, deref(req.AuditCycleID), "Audit cycle"); stop {
		return err
	}

	check := model.ComplianceCheck{
		PropertyID:   req.PropertyID,
		CheckType:    req.CheckType,
		Title:        req.Title,
		Description:  req.Description,
		Status:       orDefault(req.Status, "pending"),
		DueDate:      req.DueDate,
		AssignedTo:   req.AssignedTo,
		AuditCycleID: req.AuditCycleID,
		CreatedBy:    strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &check); err != nil {
		return internalError(c, "Failed to create compliance check", err)
	}

	var row ComplianceCheckRow
	return complianceChecks.created(c, check.ID, &row)
}

// UpdateComplianceCheck changes the supplied check fields
func UpdateComplianceCheck(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation(complianceChecks.name, "update")

	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req UpdateComplianceCheckRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}
	if stop, err := missingRow(c, &model.AuditCycle{}, deref(req.AuditCycleID), "Audit cycle"); stop {
		return err
	}

	var row ComplianceCheckRow
	return complianceChecks.applyUpdate(c, id, crud.Changes(&req), &row, log)
}

// DeleteComplianceCheck removes a check
func DeleteComplianceCheck(c echo.Context) error {
	return complianceChecks.delete(c)
}

// ListAuditCycles lists audit cycles, newest first
func ListAuditCycles(c echo.Context) error {
	rows := []model.AuditCycle{}
	return auditCycles.list(c, &rows)
}

// GetAuditCycle returns one audit cycle
func GetAuditCycle(c echo.Context) error {
	var row model.AuditCycle
	return auditCycles.get(c, &row)
}

// CreateAuditCycle opens a review period
func CreateAuditCycle(c echo.Context) error {
	var req CreateAuditCycleRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}
	if req.EndDate.Before(req.StartDate.Time) {
		return badRequest(c, "end_date must not be before start_date")
	}

	cycle := model.AuditCycle{
		Name:        req.Name,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      orDefault(req.Status, "planned"),
		Description: req.Description,
		CreatedBy:   strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &cycle); err != nil {
		return internalError(c, "Failed to create audit cycle", err)
	}

	var row model.AuditCycle
	return auditCycles.created(c, cycle.ID, &row)
}
