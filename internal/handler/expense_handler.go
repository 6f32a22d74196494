package handler

import (
	"net/http"
	"sort"
	"time"

	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
)

// ExpenseRow is an expense with its property name
type ExpenseRow struct {
	model.Expense
	PropertyName *string `json:"property_name"`
}

// ExpenseCategorySummary totals one expense category of a property
type ExpenseCategorySummary struct {
	Category      string  `json:"category"`
	Count         int64   `json:"count"`
	TotalAmount   float64 `json:"total_amount"`
	PaidAmount    float64 `json:"paid_amount"`
	PendingAmount float64 `json:"pending_amount"`
}

// CreateExpenseRequest is the body of POST /api/expenses
type CreateExpenseRequest struct {
	PropertyID    string      `json:"property_id" validate:"required,uuid"`
	Category      string      `json:"category" validate:"required"`
	Description   *string     `json:"description"`
	Amount        float64     `json:"amount" validate:"required"`
	ExpenseDate   *model.Date `json:"expense_date"`
	PaymentStatus string      `json:"payment_status"`
	Vendor        *string     `json:"vendor"`
	ReceiptURL    *string     `json:"receipt_url"`
	Notes         *string     `json:"notes"`
}

// UpdateExpenseRequest is the body of PUT /api/expenses/:id
type UpdateExpenseRequest struct {
	Category      *string     `json:"category"`
	Description   *string     `json:"description"`
	Amount        *float64    `json:"amount"`
	ExpenseDate   *model.Date `json:"expense_date"`
	PaymentStatus *string     `json:"payment_status"`
	Vendor        *string     `json:"vendor"`
	ReceiptURL    *string     `json:"receipt_url"`
	Notes         *string     `json:"notes"`
}

var expenses = resource{
	name:     "expense",
	label:    "Expense",
	newModel: func() interface{} { return &model.Expense{} },
	idColumn: "pe.id",
	query: crud.Query{
		Table:  "property_expenses pe",
		Select: "pe.*, p.name AS property_name",
		Joins:  []string{"LEFT JOIN properties p ON p.id = pe.property_id"},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "pe.property_id"},
			{Param: "category", Column: "pe.category"},
			{Param: "payment_status", Column: "pe.payment_status"},
		},
		Order: "pe.expense_date DESC",
	},
}

// ExpenseSummary totals a property's expenses per category, largest first
func ExpenseSummary(c echo.Context) error {
	prometheus.RecordOperation(expenses.name, "summary")

	propertyID := c.QueryParam("property_id")
	if propertyID == "" {
		return badRequest(c, "property_id query parameter is required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	summary := []ExpenseCategorySummary{}
	err := database.GetDB().WithContext(c.Request().Context()).
		Model(&model.Expense{}).
		Select(`category,
			COUNT(*) AS count,
			COALESCE(SUM(amount), 0) AS total_amount,
			COALESCE(SUM(CASE WHEN payment_status = 'paid' THEN amount ELSE 0 END), 0) AS paid_amount,
			COALESCE(SUM(CASE WHEN payment_status = 'pending' THEN amount ELSE 0 END), 0) AS pending_amount`).
		Where("property_id = ?", propertyID).
		Group("category").
		Scan(&summary).Error
	if err != nil {
		return internalError(c, "Failed to summarise expenses", err)
	}

	sort.SliceStable(summary, func(i, j int) bool {
		return summary[i].TotalAmount > summary[j].TotalAmount
	})
	return c.JSON(http.StatusOK, summary)
}

// ListExpenses lists expenses, most recent first
func ListExpenses(c echo.Context) error {
	rows := []ExpenseRow{}
	return expenses.list(c, &rows)
}

// GetExpense returns one expense
func GetExpense(c echo.Context) error {
	var row ExpenseRow
	return expenses.get(c, &row)
}

// CreateExpense records an expense; the date defaults to today
func CreateExpense(c echo.Context) error {
	var req CreateExpenseRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, req.PropertyID, "Property"); stop {
		return err
	}

	expense := model.Expense{
		PropertyID:    req.PropertyID,
		Category:      req.Category,
		Description:   req.Description,
		Amount:        req.Amount,
		ExpenseDate:   model.Today(),
		PaymentStatus: orDefault(req.PaymentStatus, "pending"),
		Vendor:        req.Vendor,
		ReceiptURL:    req.ReceiptURL,
		Notes:         req.Notes,
		CreatedBy:     strPtr(middleware.UserID(c)),
	}
	if req.ExpenseDate != nil && !req.ExpenseDate.IsZero() {
		expense.ExpenseDate = *req.ExpenseDate
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &expense); err != nil {
		return internalError(c, "Failed to create expense", err)
	}

	var row ExpenseRow
	return expenses.created(c, expense.ID, &row)
}

// UpdateExpense changes the supplied expense fields
func UpdateExpense(c echo.Context) error {
	var req UpdateExpenseRequest
	var row ExpenseRow
	return expenses.update(c, &req, &row)
}

// DeleteExpense removes an expense
func DeleteExpense(c echo.Context) error {
	return expenses.delete(c)
}
