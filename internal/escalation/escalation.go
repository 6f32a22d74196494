// Package escalation evaluates escalation rules against overdue records and
// raises events and notifications for them.
package escalation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"property-service/internal/model"
	"property-service/pkg/logger"
	"property-service/pkg/tracing"
	"property-service/prometheus"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Event sources recorded on the escalation counter
const (
	SourceManual    = "manual"
	SourceEvaluator = "evaluator"
)

// NotificationType marks notifications raised by escalations
const NotificationType = "escalation"

// target describes how to find overdue rows of one entity type
type target struct {
	table      string
	dateColumn string
	timestamp  bool // dateColumn holds a timestamp rather than a date
	open       []string
	fields     map[string]bool
}

var targets = map[string]target{
	"rent_payment": {
		table:      "rent_payments",
		dateColumn: "due_date",
		open:       []string{"pending", "overdue"},
		fields:     fieldSet("status", "amount", "payment_method", "tenancy_id"),
	},
	"compliance_check": {
		table:      "compliance_checks",
		dateColumn: "due_date",
		open:       []string{"pending", "in_progress"},
		fields:     fieldSet("status", "check_type", "assigned_to", "property_id", "audit_cycle_id"),
	},
	"obligation": {
		table:      "property_obligations",
		dateColumn: "due_date",
		open:       []string{"active"},
		fields:     fieldSet("status", "obligation_type", "amount", "property_id"),
	},
	"maintenance_request": {
		table:      "maintenance_requests",
		dateColumn: "created_at",
		timestamp:  true,
		open:       []string{"open", "in_progress"},
		fields:     fieldSet("status", "priority", "category", "assigned_to", "property_id"),
	},
	"inspection": {
		table:      "inspections",
		dateColumn: "scheduled_date",
		open:       []string{"scheduled", "pending"},
		fields:     fieldSet("status", "inspection_type", "inspector_user_id", "property_id"),
	},
}

var operators = map[string]bool{
	"=": true, "!=": true, ">": true, "<": true, ">=": true, "<=": true,
}

func fieldSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// SupportedEntityType reports whether rules on entityType can be evaluated
func SupportedEntityType(entityType string) bool {
	_, ok := targets[entityType]
	return ok
}

// Result summarises one evaluation pass
type Result struct {
	RulesEvaluated    int `json:"rules_evaluated"`
	EventsCreated     int `json:"events_created"`
	NotificationsSent int `json:"notifications_sent"`
}

// Evaluator runs active escalation rules
type Evaluator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewEvaluator creates an evaluator over db
func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{db: db, now: time.Now}
}

// Run evaluates every active rule once. Rules on unsupported entity types are
// skipped. An entity already escalated by a rule is never escalated again by it.
func (e *Evaluator) Run(ctx context.Context) (Result, error) {
	ctx, span := tracing.Tracer().Start(ctx, "escalation.Run")
	defer span.End()
	log := logger.FromStdContext(ctx)

	var rules []model.EscalationRule
	if err := e.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at").Find(&rules).Error; err != nil {
		return Result{}, fmt.Errorf("load escalation rules: %w", err)
	}

	var res Result
	for i := range rules {
		rule := &rules[i]
		if !SupportedEntityType(rule.EntityType) {
			log.Debug("Skipping escalation rule with unsupported entity type",
				zap.String("rule_id", rule.ID), zap.String("entity_type", rule.EntityType))
			continue
		}
		events, notes, err := e.evaluate(ctx, rule)
		if err != nil {
			return res, fmt.Errorf("evaluate rule %s: %w", rule.ID, err)
		}
		res.RulesEvaluated++
		res.EventsCreated += events
		res.NotificationsSent += notes
	}

	span.SetAttributes(
		attribute.Int("escalation.rules", res.RulesEvaluated),
		attribute.Int("escalation.events", res.EventsCreated),
	)
	log.Info("Escalation rules evaluated",
		zap.Int("rules", res.RulesEvaluated),
		zap.Int("events", res.EventsCreated),
		zap.Int("notifications", res.NotificationsSent))
	return res, nil
}

func (e *Evaluator) evaluate(ctx context.Context, rule *model.EscalationRule) (int, int, error) {
	t := targets[rule.EntityType]
	db := e.db.WithContext(ctx)

	threshold := 0
	if rule.ThresholdDays != nil {
		threshold = *rule.ThresholdDays
	}
	cutoff := model.NewDate(e.now()).AddDays(-threshold)

	q := db.Table(t.table).Where("status IN ?", t.open)
	if t.timestamp {
		q = q.Where(t.dateColumn+" < ?", cutoff.Time)
	} else {
		q = q.Where(t.dateColumn+" IS NOT NULL AND "+t.dateColumn+" < ?", cutoff)
	}
	cond, args, err := condition(t, rule)
	if err != nil {
		return 0, 0, err
	}
	if cond != "" {
		q = q.Where(cond, args...)
	}

	var candidates []string
	if err := q.Pluck("id", &candidates).Error; err != nil {
		return 0, 0, fmt.Errorf("find overdue %s: %w", t.table, err)
	}
	if len(candidates) == 0 {
		return 0, 0, nil
	}

	var escalated []string
	err = db.Model(&model.EscalationEvent{}).
		Where("rule_id = ? AND entity_type = ? AND entity_id IN ?", rule.ID, rule.EntityType, candidates).
		Pluck("entity_id", &escalated).Error
	if err != nil {
		return 0, 0, fmt.Errorf("load escalated entities: %w", err)
	}
	seen := make(map[string]bool, len(escalated))
	for _, id := range escalated {
		seen[id] = true
	}

	recipients, err := Recipients(ctx, db, rule)
	if err != nil {
		return 0, 0, err
	}

	events, notes := 0, 0
	for _, entityID := range candidates {
		if seen[entityID] {
			continue
		}
		desc := fmt.Sprintf("%s overdue by more than %d days", strings.ReplaceAll(rule.EntityType, "_", " "), threshold)
		meta, _ := model.MarshalJSONValue(map[string]interface{}{
			"action":         rule.EscalationAction,
			"threshold_days": threshold,
			"cutoff":         cutoff.String(),
		})
		key := model.EscalationRuleKey(rule.ID, rule.EntityType, entityID)
		ev := model.EscalationEvent{
			RuleID:      &rule.ID,
			EntityType:  rule.EntityType,
			EntityID:    entityID,
			Description: &desc,
			Metadata:    meta,
			RuleKey:     &key,
		}

		created, err := raise(db, rule, &ev, recipients)
		if err != nil {
			return events, notes, err
		}
		if !created {
			continue
		}
		events++
		notes += len(recipients)
	}

	prometheus.EscalationEventCounter.WithLabelValues(SourceEvaluator).Add(float64(events))
	return events, notes, nil
}

// raise inserts an evaluator event and notifies recipients in one
// transaction. It reports false when another run already holds the event's
// rule key.
func raise(db *gorm.DB, rule *model.EscalationRule, ev *model.EscalationEvent, recipients []string) (bool, error) {
	created := false
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(ev)
		if res.Error != nil {
			return fmt.Errorf("insert escalation event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return Notify(tx, rule, ev, recipients)
	})
	return created, err
}

// condition renders the rule's optional field filter. Field and operator are
// checked against whitelists so only the value is user supplied.
func condition(t target, rule *model.EscalationRule) (string, []interface{}, error) {
	if rule.ConditionField == nil || *rule.ConditionField == "" {
		return "", nil, nil
	}
	field := *rule.ConditionField
	if !t.fields[field] {
		return "", nil, fmt.Errorf("condition field %q not allowed for %s", field, rule.EntityType)
	}
	op := "="
	if rule.ConditionOperator != nil && *rule.ConditionOperator != "" {
		op = *rule.ConditionOperator
	}
	if !operators[op] {
		return "", nil, fmt.Errorf("condition operator %q not allowed", op)
	}
	var value string
	if rule.ConditionValue != nil {
		value = *rule.ConditionValue
	}
	return field + " " + op + " ?", []interface{}{value}, nil
}

// Recipients resolves the rule's notify_users and the users holding any of
// its notify_roles, without duplicates.
func Recipients(ctx context.Context, db *gorm.DB, rule *model.EscalationRule) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range model.JSONStrings(rule.NotifyUsers) {
		add(id)
	}

	if roles := model.JSONStrings(rule.NotifyRoles); len(roles) > 0 {
		var ids []string
		err := db.WithContext(ctx).Model(&model.UserRole{}).
			Distinct("user_id").
			Where("role_name IN ?", roles).
			Pluck("user_id", &ids).Error
		if err != nil {
			return nil, fmt.Errorf("resolve notify roles: %w", err)
		}
		for _, id := range ids {
			add(id)
		}
	}
	return out, nil
}

// Notify writes one notification per recipient about ev
func Notify(tx *gorm.DB, rule *model.EscalationRule, ev *model.EscalationEvent, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}
	title := "Escalation"
	if rule != nil {
		title = "Escalation: " + rule.Name
	}
	message := fmt.Sprintf("%s %s requires attention", strings.ReplaceAll(ev.EntityType, "_", " "), ev.EntityID)
	if ev.Description != nil && *ev.Description != "" {
		message = *ev.Description
	}

	notes := make([]model.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notes = append(notes, model.Notification{
			UserID:           userID,
			Title:            title,
			Message:          message,
			NotificationType: NotificationType,
			EntityType:       &ev.EntityType,
			EntityID:         &ev.EntityID,
		})
	}
	if err := tx.Create(&notes).Error; err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}

// ValidOperator reports whether op is nil, empty or a supported comparison
func ValidOperator(op *string) bool {
	return op == nil || *op == "" || operators[*op]
}
