package escalation

import (
	"context"
	"testing"
	"time"

	"property-service/internal/model"
	"property-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func intPtr(i int) *int { return &i }

func str(s string) *string { return &s }

type fixture struct {
	db       *gorm.DB
	manager  model.User
	tenancy  model.Tenancy
	overdue  model.RentPayment
	recent   model.RentPayment
	settled  model.RentPayment
	evaluate *Evaluator
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	today := model.NewDate(now)

	f := &fixture{db: db}
	f.manager = model.User{Email: "m@example.com", PasswordHash: "x", FirstName: "Mia", IsActive: true,
		Roles: []model.UserRole{{RoleName: model.RoleManager}}}
	require.NoError(t, db.Create(&f.manager).Error)

	tenant := model.User{Email: "t@example.com", PasswordHash: "x", FirstName: "Tom", IsActive: true}
	require.NoError(t, db.Create(&tenant).Error)
	prop := model.Property{Name: "Palm Villa", PropertyType: "villa", Status: "active"}
	require.NoError(t, db.Create(&prop).Error)

	f.tenancy = model.Tenancy{PropertyID: prop.ID, TenantUserID: tenant.ID, LeaseStart: today.AddDays(-90),
		RentAmount: 1000, RentFrequency: "monthly", Status: "active"}
	require.NoError(t, db.Create(&f.tenancy).Error)

	f.overdue = model.RentPayment{TenancyID: f.tenancy.ID, Amount: 1000, DueDate: today.AddDays(-10), Status: "pending"}
	f.recent = model.RentPayment{TenancyID: f.tenancy.ID, Amount: 1000, DueDate: today.AddDays(-2), Status: "pending"}
	f.settled = model.RentPayment{TenancyID: f.tenancy.ID, Amount: 1000, DueDate: today.AddDays(-30), Status: "paid"}
	for _, p := range []*model.RentPayment{&f.overdue, &f.recent, &f.settled} {
		require.NoError(t, db.Create(p).Error)
	}

	f.evaluate = NewEvaluator(db)
	f.evaluate.now = func() time.Time { return now }
	return f
}

func (f *fixture) rule(t *testing.T, r model.EscalationRule) model.EscalationRule {
	t.Helper()
	if r.Name == "" {
		r.Name = "Late rent"
	}
	if r.EscalationAction == "" {
		r.EscalationAction = "notify"
	}
	r.IsActive = true
	require.NoError(t, f.db.Create(&r).Error)
	return r
}

func TestRunEscalatesOverdueRentOnce(t *testing.T) {
	f := newFixture(t)
	users, err := model.MarshalJSONValue([]string{f.manager.ID})
	require.NoError(t, err)
	rule := f.rule(t, model.EscalationRule{EntityType: "rent_payment", ThresholdDays: intPtr(5), NotifyUsers: users})

	res, err := f.evaluate.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{RulesEvaluated: 1, EventsCreated: 1, NotificationsSent: 1}, res)

	var events []model.EscalationEvent
	require.NoError(t, f.db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, f.overdue.ID, events[0].EntityID)
	assert.Equal(t, rule.ID, *events[0].RuleID)

	res, err = f.evaluate.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.EventsCreated)

	var count int64
	require.NoError(t, f.db.Model(&model.EscalationEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, f.db.Model(&model.Notification{}).Where("user_id = ?", f.manager.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunResolvesNotifyRoles(t *testing.T) {
	f := newFixture(t)
	roles, err := model.MarshalJSONValue([]string{model.RoleManager})
	require.NoError(t, err)
	f.rule(t, model.EscalationRule{EntityType: "rent_payment", ThresholdDays: intPtr(1), NotifyRoles: roles})

	res, err := f.evaluate.Run(context.Background())
	require.NoError(t, err)
	// overdue and recent both exceed a one day threshold
	assert.Equal(t, 2, res.EventsCreated)
	assert.Equal(t, 2, res.NotificationsSent)

	var note model.Notification
	require.NoError(t, f.db.Where("user_id = ?", f.manager.ID).First(&note).Error)
	assert.Equal(t, NotificationType, note.NotificationType)
	assert.Equal(t, "Escalation: Late rent", note.Title)
}

func TestRunAppliesCondition(t *testing.T) {
	f := newFixture(t)
	f.rule(t, model.EscalationRule{
		EntityType:        "rent_payment",
		ThresholdDays:     intPtr(0),
		ConditionField:    str("amount"),
		ConditionOperator: str(">"),
		ConditionValue:    str("5000"),
	})

	res, err := f.evaluate.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.EventsCreated)
}

func TestRunRejectsUnknownConditionField(t *testing.T) {
	f := newFixture(t)
	f.rule(t, model.EscalationRule{
		EntityType:     "rent_payment",
		ConditionField: str("1=1; DROP TABLE rent_payments; --"),
	})

	_, err := f.evaluate.Run(context.Background())
	assert.Error(t, err)
}

func TestRunSkipsInactiveAndUnsupportedRules(t *testing.T) {
	f := newFixture(t)
	f.rule(t, model.EscalationRule{EntityType: "tenancy"})
	inactive := f.rule(t, model.EscalationRule{EntityType: "rent_payment"})
	require.NoError(t, f.db.Model(&inactive).Update("is_active", false).Error)

	res, err := f.evaluate.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestRaiseKeepsOneEventPerRuleAndEntity(t *testing.T) {
	f := newFixture(t)
	users, err := model.MarshalJSONValue([]string{f.manager.ID})
	require.NoError(t, err)
	rule := f.rule(t, model.EscalationRule{EntityType: "rent_payment", NotifyUsers: users})

	event := func() *model.EscalationEvent {
		key := model.EscalationRuleKey(rule.ID, rule.EntityType, f.overdue.ID)
		return &model.EscalationEvent{RuleID: &rule.ID, EntityType: rule.EntityType, EntityID: f.overdue.ID, RuleKey: &key}
	}

	// two runs racing past the escalated-entity lookup both reach the insert
	created, err := raise(f.db, &rule, event(), []string{f.manager.ID})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = raise(f.db, &rule, event(), []string{f.manager.ID})
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, f.db.Model(&model.EscalationEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, f.db.Model(&model.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// events raised by hand carry no key and may repeat
	for i := 0; i < 2; i++ {
		require.NoError(t, f.db.Create(&model.EscalationEvent{RuleID: &rule.ID, EntityType: rule.EntityType, EntityID: f.overdue.ID}).Error)
	}
	require.NoError(t, f.db.Model(&model.EscalationEvent{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}
