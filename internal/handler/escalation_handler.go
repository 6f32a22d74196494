package handler

import (
	"errors"
	"net/http"

	"property-service/internal/audit"
	"property-service/internal/crud"
	"property-service/internal/escalation"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/pkg/logger"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EscalationEventRow is an event with its rule and trigger details
type EscalationEventRow struct {
	model.EscalationEvent
	RuleName           *string `json:"rule_name"`
	RuleEntityType     *string `json:"rule_entity_type"`
	EscalationAction   *string `json:"escalation_action"`
	TriggeredFirstName *string `json:"triggered_by_first_name"`
	TriggeredLastName  *string `json:"triggered_by_last_name"`
}

// CreateEscalationRuleRequest is the body of POST /api/escalations
type CreateEscalationRuleRequest struct {
	Name              string         `json:"name" validate:"required"`
	Description       *string        `json:"description"`
	EntityType        string         `json:"entity_type" validate:"required"`
	ConditionField    *string        `json:"condition_field"`
	ConditionOperator *string        `json:"condition_operator"`
	ConditionValue    *string        `json:"condition_value"`
	EscalationAction  string         `json:"escalation_action" validate:"required"`
	NotifyRoles       datatypes.JSON `json:"notify_roles"`
	NotifyUsers       datatypes.JSON `json:"notify_users"`
	IsActive          *bool          `json:"is_active"`
	ThresholdDays     *int           `json:"threshold_days" validate:"omitempty,min=0"`
}

// UpdateEscalationRuleRequest is the body of PUT /api/escalations/:id
type UpdateEscalationRuleRequest struct {
	Name              *string        `json:"name"`
	Description       *string        `json:"description"`
	EntityType        *string        `json:"entity_type"`
	ConditionField    *string        `json:"condition_field"`
	ConditionOperator *string        `json:"condition_operator"`
	ConditionValue    *string        `json:"condition_value"`
	EscalationAction  *string        `json:"escalation_action"`
	NotifyRoles       datatypes.JSON `json:"notify_roles"`
	NotifyUsers       datatypes.JSON `json:"notify_users"`
	IsActive          *bool          `json:"is_active"`
	ThresholdDays     *int           `json:"threshold_days" validate:"omitempty,min=0"`
}

// CreateEscalationEventRequest is the body of POST /api/escalations/events
type CreateEscalationEventRequest struct {
	RuleID      *string        `json:"rule_id" validate:"omitempty,uuid"`
	EntityType  string         `json:"entity_type" validate:"required"`
	EntityID    string         `json:"entity_id" validate:"required"`
	Description *string        `json:"description"`
	Metadata    datatypes.JSON `json:"metadata"`
}

const operatorMessage = "condition_operator must be one of: =, !=, >, <, >=, <="

var escalationRules = resource{
	name:     "escalation_rule",
	label:    "Escalation rule",
	newModel: func() interface{} { return &model.EscalationRule{} },
	idColumn: "er.id",
	query: crud.Query{
		Table:  "escalation_rules er",
		Select: "er.*",
		Filters: []crud.Filter{
			{Param: "entity_type", Column: "er.entity_type"},
		},
		Order: "er.created_at DESC",
	},
}

var escalationEvents = resource{
	name:     "escalation_event",
	label:    "Escalation event",
	newModel: func() interface{} { return &model.EscalationEvent{} },
	idColumn: "ee.id",
	query: crud.Query{
		Table: "escalation_events ee",
		Select: "ee.*, er.name AS rule_name, er.entity_type AS rule_entity_type, er.escalation_action, " +
			"u.first_name AS triggered_first_name, u.last_name AS triggered_last_name",
		Joins: []string{
			"LEFT JOIN escalation_rules er ON er.id = ee.rule_id",
			"LEFT JOIN app_users u ON u.id = ee.triggered_by",
		},
		Filters: []crud.Filter{
			{Param: "entity_type", Column: "ee.entity_type"},
			{Param: "rule_id", Column: "ee.rule_id"},
		},
		Order: "ee.created_at DESC",
	},
}

// ListEscalationRules returns one page of rules, newest first
func ListEscalationRules(c echo.Context) error {
	prometheus.RecordOperation(escalationRules.name, "list")
	rows := []model.EscalationRule{}
	page := crud.ParsePage(c.QueryParams())
	if _, err := escalationRules.query.List(c.Request().Context(), database.GetDB(), c.QueryParams(), page, &rows); err != nil {
		return internalError(c, "Failed to list escalation rules", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// GetEscalationRule returns one rule
func GetEscalationRule(c echo.Context) error {
	var row model.EscalationRule
	return escalationRules.get(c, &row)
}

// CreateEscalationRule defines a new rule; active unless stated otherwise
func CreateEscalationRule(c echo.Context) error {
	var req CreateEscalationRuleRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}
	if !escalation.ValidOperator(req.ConditionOperator) {
		return badRequest(c, operatorMessage)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	rule := model.EscalationRule{
		Name:              req.Name,
		Description:       req.Description,
		EntityType:        req.EntityType,
		ConditionField:    req.ConditionField,
		ConditionOperator: req.ConditionOperator,
		ConditionValue:    req.ConditionValue,
		EscalationAction:  req.EscalationAction,
		NotifyRoles:       req.NotifyRoles,
		NotifyUsers:       req.NotifyUsers,
		IsActive:          active,
		ThresholdDays:     req.ThresholdDays,
		CreatedBy:         strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &rule); err != nil {
		return internalError(c, "Failed to create escalation rule", err)
	}

	var row model.EscalationRule
	return escalationRules.created(c, rule.ID, &row)
}

// UpdateEscalationRule changes the supplied rule fields
func UpdateEscalationRule(c echo.Context) error {
	prometheus.RecordOperation(escalationRules.name, "update")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req UpdateEscalationRuleRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}
	if !escalation.ValidOperator(req.ConditionOperator) {
		return badRequest(c, operatorMessage)
	}

	var row model.EscalationRule
	return escalationRules.applyUpdate(c, id, crud.Changes(&req), &row, logger.FromContext(c))
}

// DeleteEscalationRule removes a rule; its events are kept
func DeleteEscalationRule(c echo.Context) error {
	return escalationRules.delete(c)
}

// ListEscalationEvents returns one page of events, newest first
func ListEscalationEvents(c echo.Context) error {
	prometheus.RecordOperation(escalationEvents.name, "list")
	rows := []EscalationEventRow{}
	page := crud.ParsePage(c.QueryParams())
	if _, err := escalationEvents.query.List(c.Request().Context(), database.GetDB(), c.QueryParams(), page, &rows); err != nil {
		return internalError(c, "Failed to list escalation events", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// CreateEscalationEvent raises an event by hand and notifies the rule's recipients
func CreateEscalationEvent(c echo.Context) error {
	log := logger.FromContext(c)
	var req CreateEscalationEventRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	db := database.GetDB()

	var rule *model.EscalationRule
	var recipients []string
	if req.RuleID != nil {
		rule = &model.EscalationRule{}
		err := crud.Load(ctx, db, rule, *req.RuleID)
		if errors.Is(err, crud.ErrNotFound) {
			return notFound(c, escalationRules.label)
		}
		if err != nil {
			return internalError(c, "Failed to load escalation rule", err)
		}
		if recipients, err = escalation.Recipients(ctx, db, rule); err != nil {
			return internalError(c, "Failed to resolve recipients", err)
		}
	}

	ev := model.EscalationEvent{
		RuleID:      req.RuleID,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Description: req.Description,
		Metadata:    req.Metadata,
		TriggeredBy: strPtr(middleware.UserID(c)),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ev).Error; err != nil {
			return err
		}
		return escalation.Notify(tx, rule, &ev, recipients)
	})
	if err != nil {
		return internalError(c, "Failed to create escalation event", err)
	}

	prometheus.EscalationEventCounter.WithLabelValues(escalation.SourceManual).Inc()
	log.Info("Escalation raised",
		zap.String("event_id", ev.ID),
		zap.String("entity_type", ev.EntityType),
		zap.Int("notified", len(recipients)))

	var row EscalationEventRow
	return escalationEvents.created(c, ev.ID, &row)
}

// EvaluateEscalations runs every active rule once
func EvaluateEscalations(c echo.Context) error {
	ctx := c.Request().Context()
	res, err := escalation.NewEvaluator(database.GetDB()).Run(ctx)
	if err != nil {
		return internalError(c, "Failed to evaluate escalation rules", err)
	}
	audit.Record(ctx, database.GetDB(), middleware.UserID(c), "evaluate", escalationRules.name, "")
	return c.JSON(http.StatusOK, res)
}
