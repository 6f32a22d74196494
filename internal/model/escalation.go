package model

import "gorm.io/datatypes"

// EscalationRule describes when overdue items should be escalated
type EscalationRule struct {
	Base
	Name              string         `gorm:"not null" json:"name"`
	Description       *string        `json:"description"`
	EntityType        string         `gorm:"not null;index" json:"entity_type"`
	ConditionField    *string        `json:"condition_field"`
	ConditionOperator *string        `json:"condition_operator"`
	ConditionValue    *string        `json:"condition_value"`
	EscalationAction  string         `gorm:"not null" json:"escalation_action"`
	NotifyRoles       datatypes.JSON `json:"notify_roles"`
	NotifyUsers       datatypes.JSON `json:"notify_users"`
	IsActive          bool           `gorm:"not null" json:"is_active"`
	ThresholdDays     *int           `json:"threshold_days"`
	CreatedBy         *string        `gorm:"type:uuid" json:"created_by"`
}

// EscalationEvent is one triggered instance of a rule
type EscalationEvent struct {
	Base
	RuleID      *string        `gorm:"type:uuid;index:idx_escalation_rule_entity" json:"rule_id"`
	EntityType  string         `gorm:"not null;index:idx_escalation_rule_entity" json:"entity_type"`
	EntityID    string         `gorm:"not null;index:idx_escalation_rule_entity" json:"entity_id"`
	Description *string        `json:"description"`
	Metadata    datatypes.JSON `json:"metadata"`
	TriggeredBy *string        `gorm:"type:uuid" json:"triggered_by"`

	// RuleKey is set on evaluator events only, so each rule escalates an
	// entity at most once. Manual events leave it NULL.
	RuleKey *string `gorm:"uniqueIndex" json:"-"`
}

// EscalationRuleKey identifies the evaluator event of rule for one entity
func EscalationRuleKey(ruleID, entityType, entityID string) string {
	return ruleID + "/" + entityType + "/" + entityID
}
