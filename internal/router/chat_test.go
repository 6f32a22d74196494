package router

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"property-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRoomFlow(t *testing.T) {
	s := newServer(t)
	_, ownerToken := s.user(model.RoleManager)
	member, memberToken := s.user(model.RoleTenant)
	outsider, outsiderToken := s.user(model.RoleTenant)

	rec := s.do(http.MethodPost, "/api/chat/rooms", ownerToken, map[string]interface{}{
		"name":       "Building 7 residents",
		"member_ids": []string{member.ID, member.ID},
	})
	requireStatus(t, rec, http.StatusCreated)
	var room map[string]interface{}
	decode(t, rec, &room)
	roomID := room["id"].(string)
	assert.Equal(t, "group", room["room_type"])
	assert.EqualValues(t, 2, room["member_count"])

	rec = s.do(http.MethodGet, "/api/chat/rooms/"+roomID+"/messages", outsiderToken, nil)
	requireStatus(t, rec, http.StatusForbidden)
	assert.Equal(t, "Not a member of this room", errorOf(t, rec))

	rec = s.do(http.MethodPost, "/api/chat/rooms/"+roomID+"/messages", memberToken, map[string]string{"content": "   "})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "content is required", errorOf(t, rec))

	sub := s.hub.Subscribe(roomID, 1)
	defer s.hub.Unsubscribe(sub)

	rec = s.do(http.MethodPost, "/api/chat/rooms/"+roomID+"/messages", memberToken, map[string]string{"content": "Lift is broken again"})
	requireStatus(t, rec, http.StatusCreated)

	select {
	case raw := <-sub.C():
		var pushed map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &pushed))
		assert.Equal(t, "Lift is broken again", pushed["content"])
		assert.Equal(t, member.FirstName, pushed["sender_first_name"])
	case <-time.After(time.Second):
		t.Fatal("message was not published to the room")
	}

	rec = s.do(http.MethodGet, "/api/chat/rooms", ownerToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var rooms []map[string]interface{}
	decode(t, rec, &rooms)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Lift is broken again", rooms[0]["last_message"])
	assert.Equal(t, member.FirstName, rooms[0]["last_sender_name"])

	rec = s.do(http.MethodGet, "/api/chat/rooms", outsiderToken, nil)
	requireStatus(t, rec, http.StatusOK)
	decode(t, rec, &rooms)
	assert.Empty(t, rooms)

	rec = s.do(http.MethodPost, "/api/chat/rooms/"+roomID+"/members", memberToken, map[string]string{"user_id": member.ID})
	requireStatus(t, rec, http.StatusConflict)

	rec = s.do(http.MethodPost, "/api/chat/rooms/"+roomID+"/members", memberToken, map[string]string{"user_id": outsider.ID})
	requireStatus(t, rec, http.StatusCreated)

	rec = s.do(http.MethodGet, "/api/chat/rooms/"+roomID+"/messages", outsiderToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var messages []map[string]interface{}
	decode(t, rec, &messages)
	assert.Len(t, messages, 1)

	rec = s.do(http.MethodGet, "/api/chat/rooms/"+member.ID+"/messages", ownerToken, nil)
	requireStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, "Chat room not found", errorOf(t, rec))
}
