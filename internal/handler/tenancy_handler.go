package handler

import (
	"net/http"

	"property-service/internal/crud"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/pkg/logger"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
)

// TenancyRow is a tenancy with property and tenant display fields
type TenancyRow struct {
	model.Tenancy
	PropertyName    *string `json:"property_name"`
	TenantFirstName *string `json:"tenant_first_name"`
	TenantLastName  *string `json:"tenant_last_name"`
	TenantEmail     *string `json:"tenant_email"`
}

// CreateTenancyRequest is the body of POST /api/tenancies
type CreateTenancyRequest struct {
	PropertyID      string      `json:"property_id" validate:"required,uuid"`
	TenantUserID    string      `json:"tenant_user_id" validate:"required,uuid"`
	LeaseStart      model.Date  `json:"lease_start" validate:"required"`
	LeaseEnd        *model.Date `json:"lease_end"`
	RentAmount      float64     `json:"rent_amount" validate:"required"`
	RentFrequency   string      `json:"rent_frequency"`
	SecurityDeposit float64     `json:"security_deposit"`
	Status          string      `json:"status"`
}

// UpdateTenancyRequest is the body of PUT /api/tenancies/:id
type UpdateTenancyRequest struct {
	LeaseStart      *model.Date `json:"lease_start"`
	LeaseEnd        *model.Date `json:"lease_end"`
	RentAmount      *float64    `json:"rent_amount"`
	RentFrequency   *string     `json:"rent_frequency"`
	SecurityDeposit *float64    `json:"security_deposit"`
	Status          *string     `json:"status"`
}

// CreateRentPaymentRequest is the body of POST /api/tenancies/:id/payments
type CreateRentPaymentRequest struct {
	Amount          float64     `json:"amount" validate:"required"`
	DueDate         model.Date  `json:"due_date" validate:"required"`
	PaidDate        *model.Date `json:"paid_date"`
	PaymentMethod   *string     `json:"payment_method"`
	Status          string      `json:"status"`
	ReferenceNumber *string     `json:"reference_number"`
}

// UpdateRentPaymentRequest is the body of PUT /api/tenancies/payments/:paymentId
type UpdateRentPaymentRequest struct {
	Amount          *float64    `json:"amount"`
	DueDate         *model.Date `json:"due_date"`
	PaidDate        *model.Date `json:"paid_date"`
	PaymentMethod   *string     `json:"payment_method"`
	Status          *string     `json:"status"`
	ReferenceNumber *string     `json:"reference_number"`
}

var tenancies = resource{
	name:     "tenancy",
	label:    "Tenancy",
	newModel: func() interface{} { return &model.Tenancy{} },
	idColumn: "t.id",
	query: crud.Query{
		Table: "tenancies t",
		Select: "t.*, p.name AS property_name, u.first_name AS tenant_first_name, " +
			"u.last_name AS tenant_last_name, u.email AS tenant_email",
		Joins: []string{
			"JOIN properties p ON p.id = t.property_id",
			"JOIN app_users u ON u.id = t.tenant_user_id",
		},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "t.property_id"},
			{Param: "status", Column: "t.status"},
		},
		Order: "t.created_at DESC",
	},
}

var rentPayments = resource{
	name:     "rent_payment",
	label:    "Payment",
	newModel: func() interface{} { return &model.RentPayment{} },
	idColumn: "rp.id",
	query: crud.Query{
		Table:  "rent_payments rp",
		Select: "rp.*",
		Order:  "rp.due_date DESC",
	},
}

// ListTenancies lists tenancies with property and tenant names
func ListTenancies(c echo.Context) error {
	rows := []TenancyRow{}
	return tenancies.list(c, &rows)
}

// GetTenancy returns one tenancy
func GetTenancy(c echo.Context) error {
	var row TenancyRow
	return tenancies.get(c, &row)
}

// CreateTenancy opens a lease
func CreateTenancy(c echo.Context) error {
	var req CreateTenancyRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, req.PropertyID, "Property"); stop {
		return err
	}
	if stop, err := missingRow(c, &model.User{}, req.TenantUserID, "Tenant"); stop {
		return err
	}

	tenancy := model.Tenancy{
		PropertyID:      req.PropertyID,
		TenantUserID:    req.TenantUserID,
		LeaseStart:      req.LeaseStart,
		LeaseEnd:        req.LeaseEnd,
		RentAmount:      req.RentAmount,
		RentFrequency:   orDefault(req.RentFrequency, "monthly"),
		SecurityDeposit: req.SecurityDeposit,
		Status:          orDefault(req.Status, "active"),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &tenancy); err != nil {
		return internalError(c, "Failed to create tenancy", err)
	}

	var row TenancyRow
	return tenancies.created(c, tenancy.ID, &row)
}

// UpdateTenancy changes the supplied tenancy fields
func UpdateTenancy(c echo.Context) error {
	var req UpdateTenancyRequest
	var row TenancyRow
	return tenancies.update(c, &req, &row)
}

// DeleteTenancy removes a tenancy
func DeleteTenancy(c echo.Context) error {
	return tenancies.delete(c)
}

// ListRentPayments lists a tenancy's payments, latest due date first
func ListRentPayments(c echo.Context) error {
	prometheus.RecordOperation(rentPayments.name, "list")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}

	rows := []model.RentPayment{}
	page := crud.ParsePage(c.QueryParams())
	if err := rentPayments.query.Page(c.Request().Context(), database.GetDB(), page, &rows, "rp.tenancy_id = ?", id); err != nil {
		return internalError(c, "Failed to list rent payments", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// CreateRentPayment schedules or records a rent payment
func CreateRentPayment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req CreateRentPaymentRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	if ok, err := crud.Exists(ctx, database.GetDB(), &model.Tenancy{}, id); err != nil {
		return internalError(c, "Failed to load tenancy", err)
	} else if !ok {
		return notFound(c, "Tenancy")
	}

	payment := model.RentPayment{
		TenancyID:       id,
		Amount:          req.Amount,
		DueDate:         req.DueDate,
		PaidDate:        req.PaidDate,
		PaymentMethod:   req.PaymentMethod,
		Status:          orDefault(req.Status, "pending"),
		ReferenceNumber: req.ReferenceNumber,
	}
	if err := crud.Create(ctx, database.GetDB(), &payment); err != nil {
		return internalError(c, "Failed to create rent payment", err)
	}

	var row model.RentPayment
	return rentPayments.created(c, payment.ID, &row)
}

// UpdateRentPayment changes the supplied payment fields
func UpdateRentPayment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation(rentPayments.name, "update")

	id, ok := pathID(c, "paymentId")
	if !ok {
		return invalidID(c)
	}
	var req UpdateRentPaymentRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	var row model.RentPayment
	return rentPayments.applyUpdate(c, id, crud.Changes(&req), &row, log)
}
