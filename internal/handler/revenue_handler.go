package handler

import (
	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

// RevenueRecordRow is a revenue record with its property name
type RevenueRecordRow struct {
	model.RevenueRecord
	PropertyName *string `json:"property_name"`
}

// CreateRevenueRecordRequest is the body of POST /api/revenue-records
type CreateRevenueRecordRequest struct {
	PropertyID      string         `json:"property_id" validate:"required,uuid"`
	RecordType      string         `json:"record_type" validate:"required"`
	Description     *string        `json:"description"`
	Amount          float64        `json:"amount" validate:"required"`
	RecordDate      *model.Date    `json:"record_date"`
	StateCode       *string        `json:"state_code"`
	ReferenceNumber *string        `json:"reference_number"`
	Metadata        datatypes.JSON `json:"metadata"`
}

// UpdateRevenueRecordRequest is the body of PUT /api/revenue-records/:id
type UpdateRevenueRecordRequest struct {
	RecordType      *string        `json:"record_type"`
	Description     *string        `json:"description"`
	Amount          *float64       `json:"amount"`
	RecordDate      *model.Date    `json:"record_date"`
	StateCode       *string        `json:"state_code"`
	ReferenceNumber *string        `json:"reference_number"`
	Metadata        datatypes.JSON `json:"metadata"`
}

var revenueRecords = resource{
	name:     "revenue_record",
	label:    "Revenue record",
	newModel: func() interface{} { return &model.RevenueRecord{} },
	idColumn: "rr.id",
	query: crud.Query{
		Table:  "revenue_records rr",
		Select: "rr.*, p.name AS property_name",
		Joins:  []string{"LEFT JOIN properties p ON p.id = rr.property_id"},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "rr.property_id"},
			{Param: "record_type", Column: "rr.record_type"},
			{Param: "state_code", Column: "rr.state_code"},
		},
		Order: "rr.record_date DESC",
	},
}

// ListRevenueRecords lists revenue, most recent first
func ListRevenueRecords(c echo.Context) error {
	rows := []RevenueRecordRow{}
	return revenueRecords.list(c, &rows)
}

// GetRevenueRecord returns one revenue record
func GetRevenueRecord(c echo.Context) error {
	var row RevenueRecordRow
	return revenueRecords.get(c, &row)
}

// CreateRevenueRecord books revenue; the record date defaults to today
func CreateRevenueRecord(c echo.Context) error {
	var req CreateRevenueRecordRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, req.PropertyID, "Property"); stop {
		return err
	}

	record := model.RevenueRecord{
		PropertyID:      req.PropertyID,
		RecordType:      req.RecordType,
		Description:     req.Description,
		Amount:          req.Amount,
		RecordDate:      model.Today(),
		StateCode:       req.StateCode,
		ReferenceNumber: req.ReferenceNumber,
		Metadata:        req.Metadata,
		CreatedBy:       strPtr(middleware.UserID(c)),
	}
	if req.RecordDate != nil && !req.RecordDate.IsZero() {
		record.RecordDate = *req.RecordDate
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &record); err != nil {
		return internalError(c, "Failed to create revenue record", err)
	}

	var row RevenueRecordRow
	return revenueRecords.created(c, record.ID, &row)
}

// UpdateRevenueRecord changes the supplied revenue fields
func UpdateRevenueRecord(c echo.Context) error {
	var req UpdateRevenueRecordRequest
	var row RevenueRecordRow
	return revenueRecords.update(c, &req, &row)
}

// DeleteRevenueRecord removes a revenue record
func DeleteRevenueRecord(c echo.Context) error {
	return revenueRecords.delete(c)
}
