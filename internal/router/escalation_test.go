package router

import (
	"net/http"
	"testing"

	"property-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type evaluation struct {
	RulesEvaluated    int `json:"rules_evaluated"`
	EventsCreated     int `json:"events_created"`
	NotificationsSent int `json:"notifications_sent"`
}

func TestEscalationRuleWritesNeedRole(t *testing.T) {
	s := newServer(t)
	_, tenantToken := s.user(model.RoleTenant)
	_, managerToken := s.user(model.RoleManager)

	rule := map[string]interface{}{
		"name":              "Late rent",
		"entity_type":       "rent_payment",
		"escalation_action": "notify",
	}
	rec := s.do(http.MethodPost, "/api/escalations", tenantToken, rule)
	requireStatus(t, rec, http.StatusForbidden)

	rec = s.do(http.MethodPost, "/api/escalations/evaluate", tenantToken, nil)
	requireStatus(t, rec, http.StatusForbidden)

	rule["condition_field"] = "amount"
	rule["condition_operator"] = "LIKE"
	rule["condition_value"] = "1"
	rec = s.do(http.MethodPost, "/api/escalations", managerToken, rule)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "condition_operator must be one of: =, !=, >, <, >=, <=", errorOf(t, rec))

	rule["condition_operator"] = ">"
	rec = s.do(http.MethodPost, "/api/escalations", managerToken, rule)
	requireStatus(t, rec, http.StatusCreated)
	var created model.EscalationRule
	decode(t, rec, &created)
	assert.True(t, created.IsActive)

	rec = s.do(http.MethodPut, "/api/escalations/"+created.ID, managerToken, map[string]bool{"is_active": false})
	requireStatus(t, rec, http.StatusOK)
	var updated model.EscalationRule
	decode(t, rec, &updated)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Late rent", updated.Name)

	rec = s.do(http.MethodGet, "/api/escalations", tenantToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var rules []model.EscalationRule
	decode(t, rec, &rules)
	assert.Len(t, rules, 1)

	rec = s.do(http.MethodDelete, "/api/escalations/"+created.ID, tenantToken, nil)
	requireStatus(t, rec, http.StatusForbidden)
	rec = s.do(http.MethodDelete, "/api/escalations/"+created.ID, managerToken, nil)
	requireStatus(t, rec, http.StatusOK)
}

func TestEvaluateEscalationsOnce(t *testing.T) {
	s := newServer(t)
	manager, managerToken := s.user(model.RoleManager)
	tenant, _ := s.user(model.RoleTenant)
	prop := s.property("Jumeirah Park 7")

	tenancy := model.Tenancy{
		PropertyID:    prop.ID,
		TenantUserID:  tenant.ID,
		LeaseStart:    model.Today().AddDays(-90),
		RentAmount:    7000,
		RentFrequency: "monthly",
		Status:        "active",
	}
	require.NoError(t, s.db.Create(&tenancy).Error)
	overdue := model.RentPayment{TenancyID: tenancy.ID, Amount: 7000, DueDate: model.Today().AddDays(-10), Status: "pending"}
	recent := model.RentPayment{TenancyID: tenancy.ID, Amount: 7000, DueDate: model.Today().AddDays(-1), Status: "pending"}
	require.NoError(t, s.db.Create(&overdue).Error)
	require.NoError(t, s.db.Create(&recent).Error)

	rec := s.do(http.MethodPost, "/api/escalations", managerToken, map[string]interface{}{
		"name":              "Rent overdue 5 days",
		"entity_type":       "rent_payment",
		"escalation_action": "notify",
		"threshold_days":    5,
		"notify_roles":      []string{model.RoleManager},
	})
	requireStatus(t, rec, http.StatusCreated)

	rec = s.do(http.MethodPost, "/api/escalations/evaluate", managerToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var first evaluation
	decode(t, rec, &first)
	assert.Equal(t, evaluation{RulesEvaluated: 1, EventsCreated: 1, NotificationsSent: 1}, first)

	rec = s.do(http.MethodPost, "/api/escalations/evaluate", managerToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var second evaluation
	decode(t, rec, &second)
	assert.Equal(t, 0, second.EventsCreated)

	rec = s.do(http.MethodGet, "/api/escalations/events?entity_type=rent_payment", managerToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var events []map[string]interface{}
	decode(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, overdue.ID, events[0]["entity_id"])
	assert.Equal(t, "Rent overdue 5 days", events[0]["rule_name"])

	var notes []model.Notification
	require.NoError(t, s.db.Where("user_id = ?", manager.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, "escalation", notes[0].NotificationType)
}

func TestManualEscalationNotifies(t *testing.T) {
	s := newServer(t)
	manager, managerToken := s.user(model.RoleManager)
	_, agentToken := s.user(model.RoleAgent)

	rule := model.EscalationRule{
		Name:             "Urgent repair",
		EntityType:       "maintenance_request",
		EscalationAction: "notify",
		NotifyUsers:      datatypes.JSON(`["` + manager.ID + `"]`),
		IsActive:         true,
	}
	require.NoError(t, s.db.Create(&rule).Error)

	rec := s.do(http.MethodPost, "/api/escalations/events", agentToken, map[string]interface{}{})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "entity_type and entity_id are required", errorOf(t, rec))

	missing := "00000000-0000-4000-8000-000000000000"
	rec = s.do(http.MethodPost, "/api/escalations/events", agentToken, map[string]interface{}{
		"rule_id": missing, "entity_type": "maintenance_request", "entity_id": missing,
	})
	requireStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, "Escalation rule not found", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/api/escalations/events", agentToken, map[string]interface{}{
		"rule_id":     rule.ID,
		"entity_type": "maintenance_request",
		"entity_id":   missing,
		"description": "Water leak on floor 3",
	})
	requireStatus(t, rec, http.StatusCreated)
	var ev map[string]interface{}
	decode(t, rec, &ev)
	assert.Equal(t, "Urgent repair", ev["rule_name"])

	rec = s.do(http.MethodGet, "/api/notifications?unread=true", managerToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var inbox page
	decode(t, rec, &inbox)
	require.EqualValues(t, 1, inbox.Total)
	assert.Equal(t, "Water leak on floor 3", inbox.Data[0]["message"])
	noteID := inbox.Data[0]["id"].(string)

	rec = s.do(http.MethodPost, "/api/notifications/"+noteID+"/read", agentToken, nil)
	requireStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, "Notification not found", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/api/notifications/"+noteID+"/read", managerToken, nil)
	requireStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodGet, "/api/notifications?unread=true", managerToken, nil)
	requireStatus(t, rec, http.StatusOK)
	decode(t, rec, &inbox)
	assert.EqualValues(t, 0, inbox.Total)

	rec = s.do(http.MethodGet, "/api/notifications?unread=maybe", managerToken, nil)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "unread must be true or false", errorOf(t, rec))
}

