package handler

import (
	"errors"
	"net/http"
	"time"

	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DashboardStats are the headline counters
type DashboardStats struct {
	TotalProperties         int64 `json:"total_properties"`
	ActiveTenancies         int64 `json:"active_tenancies"`
	OpenLegalCases          int64 `json:"open_legal_cases"`
	PendingComplianceChecks int64 `json:"pending_compliance_checks"`
	OpenMaintenanceRequests int64 `json:"open_maintenance_requests"`
	OpenTickets             int64 `json:"open_tickets"`
	UnreadNotifications     int64 `json:"unread_notifications"`
}

// ActivityRow is an audit log entry with its actor
type ActivityRow struct {
	model.AuditLog
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// RentSummary totals the current month's rent payments by status
type RentSummary struct {
	TotalPayments int64   `json:"total_payments"`
	Collected     float64 `json:"collected"`
	Pending       float64 `json:"pending"`
	Overdue       float64 `json:"overdue"`
}

// ExpenseTotals totals the current month's expenses
type ExpenseTotals struct {
	TotalExpenses int64   `json:"total_expenses"`
	TotalAmount   float64 `json:"total_amount"`
}

// FinancialSummary is the body of GET /api/dashboard/financial-summary
type FinancialSummary struct {
	Rent         RentSummary         `json:"rent"`
	Expenses     ExpenseTotals       `json:"expenses"`
	Subscription *model.Subscription `json:"subscription"`
}

// UpcomingInspection is an inspection due from today
type UpcomingInspection struct {
	ID             string     `json:"id"`
	InspectionType string     `json:"inspection_type"`
	ScheduledDate  model.Date `json:"scheduled_date"`
	Status         string     `json:"status"`
	PropertyName   *string    `json:"property_name"`
}

// UpcomingCompliance is a compliance check due from today
type UpcomingCompliance struct {
	ID           string      `json:"id"`
	CheckType    string      `json:"check_type"`
	Title        string      `json:"title"`
	DueDate      *model.Date `json:"due_date"`
	Status       string      `json:"status"`
	PropertyName *string     `json:"property_name"`
}

// UpcomingRent is a pending rent payment due from today
type UpcomingRent struct {
	ID           string     `json:"id"`
	Amount       float64    `json:"amount"`
	DueDate      model.Date `json:"due_date"`
	Status       string     `json:"status"`
	PropertyName *string    `json:"property_name"`
}

// Upcoming is the body of GET /api/dashboard/upcoming
type Upcoming struct {
	Inspections []UpcomingInspection `json:"upcoming_inspections"`
	Compliance  []UpcomingCompliance `json:"upcoming_compliance"`
	Rent        []UpcomingRent       `json:"upcoming_rent"`
}

const upcomingLimit = 10

var openStatuses = []string{"open", "in_progress"}

// monthBounds returns the first day of t's month and of the month after
func monthBounds(t time.Time) (model.Date, model.Date) {
	first := model.NewDate(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
	return first, model.NewDate(first.AddDate(0, 1, 0))
}

// GetDashboardStats counts the records that need attention
func GetDashboardStats(c echo.Context) error {
	prometheus.RecordOperation("dashboard", "stats")
	db := database.GetDB().WithContext(c.Request().Context())
	userID := middleware.UserID(c)

	var stats DashboardStats
	counts := []struct {
		dest  *int64
		query func() *gorm.DB
	}{
		{&stats.TotalProperties, func() *gorm.DB { return db.Model(&model.Property{}) }},
		{&stats.ActiveTenancies, func() *gorm.DB { return db.Model(&model.Tenancy{}).Where("status = ?", "active") }},
		{&stats.OpenLegalCases, func() *gorm.DB { return db.Model(&model.LegalCase{}).Where("status IN ?", openStatuses) }},
		{&stats.PendingComplianceChecks, func() *gorm.DB {
			return db.Model(&model.ComplianceCheck{}).Where("status = ?", "pending")
		}},
		{&stats.OpenMaintenanceRequests, func() *gorm.DB {
			return db.Model(&model.MaintenanceRequest{}).Where("status IN ?", openStatuses)
		}},
		{&stats.OpenTickets, func() *gorm.DB { return db.Model(&model.SupportTicket{}).Where("status IN ?", openStatuses) }},
		{&stats.UnreadNotifications, func() *gorm.DB {
			return db.Model(&model.Notification{}).Where("user_id = ? AND is_read = ?", userID, false)
		}},
	}

	var g errgroup.Group
	for _, cnt := range counts {
		g.Go(func() error {
			return cnt.query().Count(cnt.dest).Error
		})
	}
	if err := g.Wait(); err != nil {
		return internalError(c, "Failed to load dashboard stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetRecentActivity returns the ten latest audit log entries
func GetRecentActivity(c echo.Context) error {
	prometheus.RecordOperation("dashboard", "recent_activity")
	rows := []ActivityRow{}
	err := database.GetDB().WithContext(c.Request().Context()).
		Table("audit_logs al").
		Select("al.*, u.first_name, u.last_name, u.email").
		Joins("LEFT JOIN app_users u ON u.id = al.actor_user_id").
		Order("al.created_at DESC").
		Limit(10).
		Scan(&rows).Error
	if err != nil {
		return internalError(c, "Failed to load recent activity", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// GetFinancialSummary reports this month's rent and expenses and the caller's subscription
func GetFinancialSummary(c echo.Context) error {
	prometheus.RecordOperation("dashboard", "financial_summary")
	db := database.GetDB().WithContext(c.Request().Context())
	from, to := monthBounds(time.Now())

	var out FinancialSummary
	err := db.Model(&model.RentPayment{}).
		Select("COUNT(*) AS total_payments, "+
			"COALESCE(SUM(CASE WHEN status = 'paid' THEN amount ELSE 0 END), 0) AS collected, "+
			"COALESCE(SUM(CASE WHEN status = 'pending' THEN amount ELSE 0 END), 0) AS pending, "+
			"COALESCE(SUM(CASE WHEN status = 'overdue' THEN amount ELSE 0 END), 0) AS overdue").
		Where("due_date >= ? AND due_date < ?", from, to).
		Scan(&out.Rent).Error
	if err != nil {
		return internalError(c, "Failed to summarise rent", err)
	}

	err = db.Model(&model.Expense{}).
		Select("COUNT(*) AS total_expenses, COALESCE(SUM(amount), 0) AS total_amount").
		Where("expense_date >= ? AND expense_date < ?", from, to).
		Scan(&out.Expenses).Error
	if err != nil {
		return internalError(c, "Failed to summarise expenses", err)
	}

	var sub model.Subscription
	err = db.Where("user_id = ? AND status = ?", middleware.UserID(c), "active").
		Order("created_at DESC").
		Take(&sub).Error
	switch {
	case err == nil:
		out.Subscription = &sub
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return internalError(c, "Failed to load subscription", err)
	}
	return c.JSON(http.StatusOK, out)
}

// GetUpcoming lists inspections, compliance checks and pending rent due from today
func GetUpcoming(c echo.Context) error {
	prometheus.RecordOperation("dashboard", "upcoming")
	db := database.GetDB().WithContext(c.Request().Context())
	today := model.Today()

	out := Upcoming{
		Inspections: []UpcomingInspection{},
		Compliance:  []UpcomingCompliance{},
		Rent:        []UpcomingRent{},
	}

	err := db.Table("inspections i").
		Select("i.id, i.inspection_type, i.scheduled_date, i.status, p.name AS property_name").
		Joins("JOIN properties p ON p.id = i.property_id").
		Where("i.scheduled_date >= ? AND i.status IN ?", today, []string{"scheduled", "pending"}).
		Order("i.scheduled_date ASC").
		Limit(upcomingLimit).
		Scan(&out.Inspections).Error
	if err != nil {
		return internalError(c, "Failed to load upcoming inspections", err)
	}

	err = db.Table("compliance_checks cc").
		Select("cc.id, cc.check_type, cc.title, cc.due_date, cc.status, p.name AS property_name").
		Joins("LEFT JOIN properties p ON p.id = cc.property_id").
		Where("cc.due_date >= ? AND cc.status IN ?", today, []string{"pending", "in_progress"}).
		Order("cc.due_date ASC").
		Limit(upcomingLimit).
		Scan(&out.Compliance).Error
	if err != nil {
		return internalError(c, "Failed to load upcoming compliance checks", err)
	}

	err = db.Table("rent_payments rp").
		Select("rp.id, rp.amount, rp.due_date, rp.status, p.name AS property_name").
		Joins("JOIN tenancies t ON t.id = rp.tenancy_id").
		Joins("JOIN properties p ON p.id = t.property_id").
		Where("rp.due_date >= ? AND rp.status = ?", today, "pending").
		Order("rp.due_date ASC").
		Limit(upcomingLimit).
		Scan(&out.Rent).Error
	if err != nil {
		return internalError(c, "Failed to load upcoming rent", err)
	}

	return c.JSON(http.StatusOK, out)
}
