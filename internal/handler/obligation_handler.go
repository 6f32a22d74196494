package handler

import (
	"net/http"

	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
)

// ObligationRow is an obligation with its property name
type ObligationRow struct {
	model.Obligation
	PropertyName *string `json:"property_name"`
}

// CreateObligationRequest is the body of POST /api/obligations
type CreateObligationRequest struct {
	PropertyID     string      `json:"property_id" validate:"required,uuid"`
	ObligationType string      `json:"obligation_type" validate:"required"`
	Title          string      `json:"title" validate:"required"`
	Description    *string     `json:"description"`
	Amount         *float64    `json:"amount" validate:"omitempty,gte=0"`
	DueDate        *model.Date `json:"due_date"`
	Recurring      bool        `json:"recurring"`
	Frequency      *string     `json:"frequency"`
	Status         string      `json:"status"`
}

// UpdateObligationRequest is the body of PUT /api/obligations/:id
type UpdateObligationRequest struct {
	ObligationType *string     `json:"obligation_type"`
	Title          *string     `json:"title"`
	Description    *string     `json:"description"`
	Amount         *float64    `json:"amount" validate:"omitempty,gte=0"`
	DueDate        *model.Date `json:"due_date"`
	Recurring      *bool       `json:"recurring"`
	Frequency      *string     `json:"frequency"`
	Status         *string     `json:"status"`
}

// CreateObligationPaymentRequest is the body of POST /api/obligations/:id/payments
type CreateObligationPaymentRequest struct {
	Amount          float64     `json:"amount" validate:"required,gt=0"`
	PaymentDate     *model.Date `json:"payment_date"`
	PaymentMethod   *string     `json:"payment_method"`
	ReferenceNumber *string     `json:"reference_number"`
	Notes           *string     `json:"notes"`
}

var obligations = resource{
	name:     "obligation",
	label:    "Obligation",
	newModel: func() interface{} { return &model.Obligation{} },
	idColumn: "o.id",
	query: crud.Query{
		Table:  "property_obligations o",
		Select: "o.*, p.name AS property_name",
		Joins:  []string{"LEFT JOIN properties p ON p.id = o.property_id"},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "o.property_id"},
			{Param: "type", Column: "o.obligation_type"},
			{Param: "status", Column: "o.status"},
		},
		Order: "o.due_date ASC",
	},
}

var obligationPayments = resource{
	name:     "obligation_payment",
	label:    "Obligation payment",
	newModel: func() interface{} { return &model.ObligationPayment{} },
	idColumn: "op.id",
	query: crud.Query{
		Table:  "obligation_payments op",
		Select: "op.*",
		Order:  "op.payment_date DESC",
	},
}

// ListObligations lists obligations, soonest due first
func ListObligations(c echo.Context) error {
	rows := []ObligationRow{}
	return obligations.list(c, &rows)
}

// GetObligation returns one obligation
func GetObligation(c echo.Context) error {
	var row ObligationRow
	return obligations.get(c, &row)
}

// CreateObligation records a new obligation
func CreateObligation(c echo.Context) error {
	var req CreateObligationRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, req.PropertyID, "Property"); stop {
		return err
	}

	ob := model.Obligation{
		PropertyID:     req.PropertyID,
		ObligationType: req.ObligationType,
		Title:          req.Title,
		Description:    req.Description,
		Amount:         req.Amount,
		DueDate:        req.DueDate,
		Recurring:      req.Recurring,
		Frequency:      req.Frequency,
		Status:         orDefault(req.Status, "active"),
		CreatedBy:      strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &ob); err != nil {
		return internalError(c, "Failed to create obligation", err)
	}

	var row ObligationRow
	return obligations.created(c, ob.ID, &row)
}

// UpdateObligation changes the supplied obligation fields
func UpdateObligation(c echo.Context) error {
	var req UpdateObligationRequest
	var row ObligationRow
	return obligations.update(c, &req, &row)
}

// DeleteObligation removes an obligation
func DeleteObligation(c echo.Context) error {
	return obligations.delete(c)
}

// ListObligationPayments lists payments against an obligation, latest first
func ListObligationPayments(c echo.Context) error {
	prometheus.RecordOperation(obligationPayments.name, "list")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}

	rows := []model.ObligationPayment{}
	if err := obligationPayments.query.Find(c.Request().Context(), database.GetDB(), &rows, "op.obligation_id = ?", id); err != nil {
		return internalError(c, "Failed to list obligation payments", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// CreateObligationPayment records a payment against an obligation
func CreateObligationPayment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req CreateObligationPaymentRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	if ok, err := crud.Exists(ctx, database.GetDB(), &model.Obligation{}, id); err != nil {
		return internalError(c, "Failed to load obligation", err)
	} else if !ok {
		return notFound(c, "Obligation")
	}

	paid := model.Today()
	if req.PaymentDate != nil {
		paid = *req.PaymentDate
	}
	payment := model.ObligationPayment{
		ObligationID:    id,
		Amount:          req.Amount,
		PaymentDate:     paid,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
		CreatedBy:       strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(ctx, database.GetDB(), &payment); err != nil {
		return internalError(c, "Failed to create obligation payment", err)
	}

	var row model.ObligationPayment
	return obligationPayments.created(c, payment.ID, &row)
}
