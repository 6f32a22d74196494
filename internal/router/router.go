// Package router assembles the echo instance: middleware chain and routes.
package router

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"property-service/internal/chat"
	"property-service/internal/crud"
	"property-service/internal/handler"
	mid "property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/config"
	"property-service/pkg/logger"
	"property-service/pkg/validation"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// New builds the HTTP server for cfg. Chat messages are fanned out through hub.
func New(cfg *config.Config, hub *chat.Hub) *echo.Echo {
	crud.SetLimits(cfg.Pagination.DefaultLimit, cfg.Pagination.MaxLimit)
	handler.SetBcryptCost(cfg.Auth.BcryptCost)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = errorHandler

	// The access log wraps Recover so panicking requests are still logged
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(otelecho.Middleware(cfg.ServiceName))
	e.Use(prometheus.MetricsMiddleware())
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Public authentication endpoints, throttled per client IP
	auth := e.Group("/auth")
	if limiter := loginLimiter(cfg.Auth); limiter != nil {
		auth.Use(limiter)
	}
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)

	api := e.Group("/api", mid.AuthMiddleware)
	api.GET("/auth/me", handler.Me)

	users := api.Group("/users", mid.RequireRole(model.RoleAdmin))
	users.GET("", handler.ListUsers)
	users.PATCH("/:id/status", handler.UpdateUserStatus)

	properties := api.Group("/properties")
	properties.GET("", handler.ListProperties)
	properties.POST("", handler.CreateProperty)
	properties.GET("/:id", handler.GetProperty)
	properties.PUT("/:id", handler.UpdateProperty)
	properties.DELETE("/:id", handler.DeleteProperty)
	properties.GET("/:id/owners", handler.ListPropertyOwners)
	properties.POST("/:id/owners", handler.AddPropertyOwner)

	tenancies := api.Group("/tenancies")
	tenancies.GET("", handler.ListTenancies)
	tenancies.POST("", handler.CreateTenancy)
	tenancies.PUT("/payments/:paymentId", handler.UpdateRentPayment)
	tenancies.GET("/:id", handler.GetTenancy)
	tenancies.PUT("/:id", handler.UpdateTenancy)
	tenancies.DELETE("/:id", handler.DeleteTenancy)
	tenancies.GET("/:id/payments", handler.ListRentPayments)
	tenancies.POST("/:id/payments", handler.CreateRentPayment)

	revenue := api.Group("/revenue-records")
	revenue.GET("", handler.ListRevenueRecords)
	revenue.POST("", handler.CreateRevenueRecord)
	revenue.GET("/:id", handler.GetRevenueRecord)
	revenue.PUT("/:id", handler.UpdateRevenueRecord)
	revenue.DELETE("/:id", handler.DeleteRevenueRecord)

	expenses := api.Group("/expenses")
	expenses.GET("", handler.ListExpenses)
	expenses.POST("", handler.CreateExpense)
	expenses.GET("/summary", handler.ExpenseSummary)
	expenses.GET("/:id", handler.GetExpense)
	expenses.PUT("/:id", handler.UpdateExpense)
	expenses.DELETE("/:id", handler.DeleteExpense)

	documents := api.Group("/documents")
	documents.GET("", handler.ListDocuments)
	documents.POST("", handler.CreateDocument)
	documents.GET("/grouped", handler.GroupedDocuments)
	documents.GET("/:id", handler.GetDocument)
	documents.PUT("/:id", handler.UpdateDocument)
	documents.DELETE("/:id", handler.DeleteDocument)

	inspections := api.Group("/inspections")
	inspections.GET("", handler.ListInspections)
	inspections.POST("", handler.CreateInspection)
	inspections.GET("/:id", handler.GetInspection)
	inspections.PUT("/:id", handler.UpdateInspection)
	inspections.DELETE("/:id", handler.DeleteInspection)
	inspections.GET("/:id/media", handler.ListInspectionMedia)
	inspections.POST("/:id/media", handler.CreateInspectionMedia)

	legal := api.Group("/legal-cases")
	legal.GET("", handler.ListLegalCases)
	legal.POST("", handler.CreateLegalCase)
	legal.GET("/:id", handler.GetLegalCase)
	legal.PUT("/:id", handler.UpdateLegalCase)
	legal.DELETE("/:id", handler.DeleteLegalCase)
	legal.GET("/:id/updates", handler.ListCaseUpdates)
	legal.POST("/:id/updates", handler.CreateCaseUpdate)

	maintenance := api.Group("/maintenance")
	maintenance.GET("", handler.ListMaintenanceRequests)
	maintenance.POST("", handler.CreateMaintenanceRequest)
	maintenance.GET("/:id", handler.GetMaintenanceRequest)
	maintenance.PUT("/:id", handler.UpdateMaintenanceRequest)
	maintenance.DELETE("/:id", handler.DeleteMaintenanceRequest)

	compliance := api.Group("/compliance")
	compliance.GET("", handler.ListComplianceChecks)
	compliance.POST("", handler.CreateComplianceCheck)
	compliance.GET("/audit-cycles", handler.ListAuditCycles)
	compliance.POST("/audit-cycles", handler.CreateAuditCycle)
	compliance.GET("/audit-cycles/:id", handler.GetAuditCycle)
	compliance.GET("/:id", handler.GetComplianceCheck)
	compliance.PUT("/:id", handler.UpdateComplianceCheck)
	compliance.DELETE("/:id", handler.DeleteComplianceCheck)

	obligations := api.Group("/obligations")
	obligations.GET("", handler.ListObligations)
	obligations.POST("", handler.CreateObligation)
	obligations.GET("/:id", handler.GetObligation)
	obligations.PUT("/:id", handler.UpdateObligation)
	obligations.DELETE("/:id", handler.DeleteObligation)
	obligations.GET("/:id/payments", handler.ListObligationPayments)
	obligations.POST("/:id/payments", handler.CreateObligationPayment)

	construction := api.Group("/construction")
	construction.GET("", handler.ListConstructionProjects)
	construction.POST("", handler.CreateConstructionProject)
	construction.PUT("/milestones/:milestoneId", handler.UpdateMilestone)
	construction.GET("/:id", handler.GetConstructionProject)
	construction.PUT("/:id", handler.UpdateConstructionProject)
	construction.DELETE("/:id", handler.DeleteConstructionProject)
	construction.GET("/:id/milestones", handler.ListMilestones)
	construction.POST("/:id/milestones", handler.CreateMilestone)

	handovers := api.Group("/handovers")
	handovers.GET("", handler.ListHandovers)
	handovers.POST("", handler.CreateHandover)
	handovers.PUT("/items/:itemId", handler.UpdateHandoverItem)
	handovers.GET("/:id", handler.GetHandover)
	handovers.PUT("/:id", handler.UpdateHandover)
	handovers.DELETE("/:id", handler.DeleteHandover)
	handovers.GET("/:id/items", handler.ListHandoverItems)
	handovers.POST("/:id/items", handler.CreateHandoverItem)

	poa := api.Group("/poa")
	poa.GET("", handler.ListPowersOfAttorney)
	poa.POST("", handler.CreatePowerOfAttorney)
	poa.GET("/:id", handler.GetPowerOfAttorney)
	poa.PUT("/:id", handler.UpdatePowerOfAttorney)
	poa.DELETE("/:id", handler.DeletePowerOfAttorney)

	ruleWriters := mid.RequireRole(model.RoleAdmin, model.RoleManager)
	escalations := api.Group("/escalations")
	escalations.GET("", handler.ListEscalationRules)
	escalations.POST("", handler.CreateEscalationRule, ruleWriters)
	escalations.GET("/events", handler.ListEscalationEvents)
	escalations.POST("/events", handler.CreateEscalationEvent)
	escalations.POST("/evaluate", handler.EvaluateEscalations, ruleWriters)
	escalations.GET("/:id", handler.GetEscalationRule)
	escalations.PUT("/:id", handler.UpdateEscalationRule, ruleWriters)
	escalations.DELETE("/:id", handler.DeleteEscalationRule, ruleWriters)

	notifications := api.Group("/notifications")
	notifications.GET("", handler.ListNotifications)
	notifications.POST("/:id/read", handler.MarkNotificationRead)

	chatHandler := handler.NewChatHandler(hub)
	rooms := api.Group("/chat/rooms")
	rooms.GET("", chatHandler.ListRooms)
	rooms.POST("", chatHandler.CreateRoom)
	rooms.POST("/:id/members", chatHandler.AddMember)
	rooms.GET("/:id/messages", chatHandler.ListMessages)
	rooms.POST("/:id/messages", chatHandler.PostMessage)
	rooms.GET("/:id/ws", chatHandler.Stream)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/stats", handler.GetDashboardStats)
	dashboard.GET("/recent-activity", handler.GetRecentActivity)
	dashboard.GET("/financial-summary", handler.GetFinancialSummary)
	dashboard.GET("/upcoming", handler.GetUpcoming)

	return e
}

// loginLimiter throttles the auth endpoints; nil disables throttling
func loginLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	if cfg.LoginRatePerMinute <= 0 {
		return nil
	}
	burst := cfg.LoginBurst
	if burst <= 0 {
		burst = 1
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(cfg.LoginRatePerMinute) / 60),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			prometheus.RecordAuthError("rate_limited")
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many requests, please try again later"})
		},
	})
}

// errorHandler renders framework errors (unknown route, body too large,
// panics) in the same {"error": ...} shape as the handlers.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if code < http.StatusInternalServerError {
			msg = fmt.Sprint(he.Message)
		}
	}
	if code >= http.StatusInternalServerError {
		logger.FromContext(c).Error("Unhandled error", zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, echo.Map{"error": msg})
	}
	if err != nil {
		logger.FromContext(c).Warn("Failed to write error response", zap.Error(err))
	}
}
