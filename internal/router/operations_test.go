package router

import (
	"net/http"
	"testing"

	"property-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func created(t *testing.T, s *server, path, token string, body interface{}) map[string]interface{} {
	t.Helper()
	rec := s.do(http.MethodPost, path, token, body)
	requireStatus(t, rec, http.StatusCreated)
	var out map[string]interface{}
	decode(t, rec, &out)
	return out
}

func TestConstructionMilestoneProgress(t *testing.T) {
	s := newServer(t)
	_, token := s.user(model.RoleManager)
	prop := s.property("Al Barsha plot")

	project := created(t, s, "/api/construction", token, map[string]interface{}{
		"property_id": prop.ID,
		"title":       "Villa extension",
		"budget":      250000,
	})
	projectID := project["id"].(string)
	assert.Equal(t, "planned", project["status"])
	assert.Equal(t, "Al Barsha plot", project["property_name"])

	var milestoneIDs []string
	for _, title := range []string{"Foundations", "Frame", "Roof"} {
		m := created(t, s, "/api/construction/"+projectID+"/milestones", token, map[string]string{"title": title})
		assert.Equal(t, "pending", m["status"])
		milestoneIDs = append(milestoneIDs, m["id"].(string))
	}

	rec := s.do(http.MethodPut, "/api/construction/milestones/"+milestoneIDs[0], token, map[string]string{
		"status": "completed", "completed_date": "2026-05-01",
	})
	requireStatus(t, rec, http.StatusOK)
	var m map[string]interface{}
	decode(t, rec, &m)
	assert.Equal(t, "completed", m["status"])
	assert.Equal(t, "Foundations", m["title"])

	rec = s.do(http.MethodGet, "/api/construction/"+projectID, token, nil)
	requireStatus(t, rec, http.StatusOK)
	var got map[string]interface{}
	decode(t, rec, &got)
	assert.EqualValues(t, 3, got["milestones_total"])
	assert.EqualValues(t, 1, got["milestones_completed"])

	rec = s.do(http.MethodGet, "/api/construction", token, nil)
	requireStatus(t, rec, http.StatusOK)
	var p page
	decode(t, rec, &p)
	require.Len(t, p.Data, 1)
	assert.EqualValues(t, 3, p.Data[0]["milestones_total"])

	rec = s.do(http.MethodPut, "/api/construction/"+projectID, token, map[string]int{"progress_percentage": 120})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "progress_percentage is invalid", errorOf(t, rec))

	rec = s.do(http.MethodDelete, "/api/construction/"+projectID, token, nil)
	requireStatus(t, rec, http.StatusOK)
	var left int64
	require.NoError(t, s.db.Model(&model.ConstructionMilestone{}).Count(&left).Error)
	assert.Zero(t, left)

	rec = s.do(http.MethodPost, "/api/construction/"+projectID+"/milestones", token, map[string]string{"title": "Late"})
	requireStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, "Construction project not found", errorOf(t, rec))
}

func TestHandoverItems(t *testing.T) {
	s := newServer(t)
	_, token := s.user(model.RoleAgent)
	prop := s.property("Business Bay 1402")

	handover := created(t, s, "/api/handovers", token, map[string]string{
		"property_id": prop.ID,
		"title":       "Move-in handover",
	})
	handoverID := handover["id"].(string)
	assert.Equal(t, "pending", handover["status"])

	item := created(t, s, "/api/handovers/"+handoverID+"/items", token, map[string]string{"item_name": "Access card"})
	assert.EqualValues(t, 1, item["quantity"])
	assert.Equal(t, "pending", item["status"])

	rec := s.do(http.MethodPut, "/api/handovers/items/"+item["id"].(string), token, map[string]string{"status": "handed_over"})
	requireStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodGet, "/api/handovers/"+handoverID+"/items", token, nil)
	requireStatus(t, rec, http.StatusOK)
	var items []map[string]interface{}
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "handed_over", items[0]["status"])

	rec = s.do(http.MethodDelete, "/api/handovers/"+handoverID, token, nil)
	requireStatus(t, rec, http.StatusOK)
	var left int64
	require.NoError(t, s.db.Model(&model.HandoverItem{}).Count(&left).Error)
	assert.Zero(t, left)
}

func TestAuditCycleDates(t *testing.T) {
	s := newServer(t)
	_, token := s.user(model.RoleManager)

	rec := s.do(http.MethodPost, "/api/compliance/audit-cycles", token, map[string]string{
		"name": "FY26", "start_date": "2026-12-31", "end_date": "2026-01-01",
	})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "end_date must not be before start_date", errorOf(t, rec))

	cycle := created(t, s, "/api/compliance/audit-cycles", token, map[string]string{
		"name": "FY26", "start_date": "2026-01-01", "end_date": "2026-12-31",
	})
	assert.Equal(t, "planned", cycle["status"])

	rec = s.do(http.MethodGet, "/api/compliance/audit-cycles/"+cycle["id"].(string), token, nil)
	requireStatus(t, rec, http.StatusOK)
}

func TestPowerOfAttorneyParties(t *testing.T) {
	s := newServer(t)
	_, token := s.user(model.RoleManager)
	grantor, _ := s.user(model.RoleOwner)
	grantee, _ := s.user(model.RoleAgent)

	rec := s.do(http.MethodPost, "/api/poa", token, map[string]string{
		"grantor_user_id": grantor.ID,
		"grantee_user_id": grantor.ID,
		"poa_type":        "general",
		"title":           "Self",
	})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "grantor_user_id and grantee_user_id must differ", errorOf(t, rec))

	poa := created(t, s, "/api/poa", token, map[string]string{
		"grantor_user_id": grantor.ID,
		"grantee_user_id": grantee.ID,
		"poa_type":        "property_management",
		"title":           "Leasing authority",
	})
	assert.Equal(t, "draft", poa["status"])

	rec = s.do(http.MethodGet, "/api/poa?grantee_user_id="+grantee.ID, token, nil)
	requireStatus(t, rec, http.StatusOK)
	var p page
	decode(t, rec, &p)
	assert.EqualValues(t, 1, p.Total)
}

func TestObligationPayments(t *testing.T) {
	s := newServer(t)
	_, token := s.user(model.RoleOwner)
	prop := s.property("Springs 3")

	obligation := created(t, s, "/api/obligations", token, map[string]interface{}{
		"property_id":     prop.ID,
		"obligation_type": "service_charge",
		"title":           "Annual service charge",
	})
	obligationID := obligation["id"].(string)
	assert.Equal(t, "active", obligation["status"])

	rec := s.do(http.MethodPost, "/api/obligations/"+obligationID+"/payments", token, map[string]interface{}{"amount": -5})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "amount is invalid", errorOf(t, rec))

	payment := created(t, s, "/api/obligations/"+obligationID+"/payments", token, map[string]interface{}{"amount": 4200})
	assert.Equal(t, model.Today().String(), payment["payment_date"])

	rec = s.do(http.MethodGet, "/api/obligations/"+obligationID+"/payments", token, nil)
	requireStatus(t, rec, http.StatusOK)
	var payments []map[string]interface{}
	decode(t, rec, &payments)
	assert.Len(t, payments, 1)
}

func TestCaseUpdatesAndInspectionMedia(t *testing.T) {
	s := newServer(t)
	_, token := s.user(model.RoleManager)
	prop := s.property("Arabian Ranches 88")

	legal := created(t, s, "/api/legal-cases", token, map[string]string{
		"property_id": prop.ID,
		"case_type":   "rent_dispute",
		"title":       "Unpaid rent Q1",
	})
	assert.Equal(t, "open", legal["status"])
	assert.Equal(t, "medium", legal["priority"])

	update := created(t, s, "/api/legal-cases/"+legal["id"].(string)+"/updates", token, map[string]string{"content": "Notice served"})
	assert.Equal(t, "note", update["update_type"])

	rec := s.do(http.MethodGet, "/api/legal-cases/"+legal["id"].(string)+"/updates", token, nil)
	requireStatus(t, rec, http.StatusOK)
	var updates []map[string]interface{}
	decode(t, rec, &updates)
	assert.Len(t, updates, 1)

	inspection := created(t, s, "/api/inspections", token, map[string]string{
		"property_id":     prop.ID,
		"inspection_type": "move_out",
		"scheduled_date":  "2026-07-01",
	})
	assert.Equal(t, "scheduled", inspection["status"])

	media := created(t, s, "/api/inspections/"+inspection["id"].(string)+"/media", token, map[string]string{
		"file_url": "https://files.example.com/kitchen.jpg",
	})
	assert.Equal(t, "image", media["file_type"])

	rec = s.do(http.MethodPost, "/api/inspections/"+prop.ID+"/media", token, map[string]string{"file_url": "x"})
	requireStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, "Inspection not found", errorOf(t, rec))

	request := created(t, s, "/api/maintenance", token, map[string]string{
		"property_id": prop.ID,
		"title":       "AC not cooling",
	})
	assert.Equal(t, "open", request["status"])
	assert.Equal(t, "medium", request["priority"])
}
