package handler

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"property-service/internal/chat"
	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/pkg/logger"
	"property-service/pkg/validation"
	"property-service/prometheus"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Member roles inside a chat room
const (
	memberOwner  = "owner"
	memberMember = "member"
)

// ChatRoomView is a room with its latest activity
type ChatRoomView struct {
	model.ChatRoom
	LastMessage    *string    `json:"last_message"`
	LastMessageAt  *time.Time `json:"last_message_at"`
	LastSenderName *string    `json:"last_sender_name"`
	MemberCount    int64      `json:"member_count"`
}

// ChatMessageRow is a message with its sender's name
type ChatMessageRow struct {
	model.ChatMessage
	SenderFirstName *string `json:"sender_first_name"`
	SenderLastName  *string `json:"sender_last_name"`
}

// CreateChatRoomRequest is the body of POST /api/chat/rooms
type CreateChatRoomRequest struct {
	Name        string   `json:"name" validate:"required"`
	RoomType    string   `json:"room_type" validate:"omitempty,oneof=direct group private channel"`
	Description *string  `json:"description"`
	MemberIDs   []string `json:"member_ids" validate:"omitempty,dive,uuid"`
}

// AddChatMemberRequest is the body of POST /api/chat/rooms/:id/members
type AddChatMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// PostChatMessageRequest is the body of POST /api/chat/rooms/:id/messages
type PostChatMessageRequest struct {
	Content     string `json:"content" validate:"required"`
	MessageType string `json:"message_type"`
}

var chatMessages = crud.Query{
	Table:  "chat_messages m",
	Select: "m.*, u.first_name AS sender_first_name, u.last_name AS sender_last_name",
	Joins:  []string{"LEFT JOIN app_users u ON u.id = m.sender_id"},
	Order:  "m.created_at ASC",
}

// ChatHandler serves chat rooms and relays new messages through a hub
type ChatHandler struct {
	hub      *chat.Hub
	upgrader websocket.Upgrader
}

// NewChatHandler creates a chat handler publishing to hub
func NewChatHandler(hub *chat.Hub) *ChatHandler {
	return &ChatHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type lastMessage struct {
	RoomID    string
	Content   string
	CreatedAt time.Time
	FirstName *string
	LastName  *string
}

type roomCount struct {
	RoomID string
	Total  int64
}

// ListRooms returns the caller's rooms, most recently active first
func (h *ChatHandler) ListRooms(c echo.Context) error {
	prometheus.RecordOperation("chat_room", "list")
	db := database.GetDB().WithContext(c.Request().Context())

	var roomIDs []string
	if err := db.Model(&model.ChatRoomMember{}).Where("user_id = ?", middleware.UserID(c)).Pluck("room_id", &roomIDs).Error; err != nil {
		return internalError(c, "Failed to load chat memberships", err)
	}
	views := []ChatRoomView{}
	if len(roomIDs) == 0 {
		return c.JSON(http.StatusOK, views)
	}

	var rooms []model.ChatRoom
	if err := db.Where("id IN ?", roomIDs).Find(&rooms).Error; err != nil {
		return internalError(c, "Failed to list chat rooms", err)
	}

	var counts []roomCount
	err := db.Model(&model.ChatRoomMember{}).
		Select("room_id, COUNT(*) AS total").
		Where("room_id IN ?", roomIDs).
		Group("room_id").
		Scan(&counts).Error
	if err != nil {
		return internalError(c, "Failed to count chat members", err)
	}

	var latest []lastMessage
	err = db.Table("chat_messages m").
		Select("m.room_id, m.content, m.created_at, u.first_name, u.last_name").
		Joins("JOIN (SELECT room_id, MAX(created_at) AS latest FROM chat_messages WHERE room_id IN ? GROUP BY room_id) l "+
			"ON l.room_id = m.room_id AND l.latest = m.created_at", roomIDs).
		Joins("LEFT JOIN app_users u ON u.id = m.sender_id").
		Scan(&latest).Error
	if err != nil {
		return internalError(c, "Failed to load last chat messages", err)
	}

	memberCount := make(map[string]int64, len(counts))
	for _, rc := range counts {
		memberCount[rc.RoomID] = rc.Total
	}
	last := make(map[string]lastMessage, len(latest))
	for _, lm := range latest {
		last[lm.RoomID] = lm
	}

	for _, room := range rooms {
		v := ChatRoomView{ChatRoom: room, MemberCount: memberCount[room.ID]}
		if lm, ok := last[room.ID]; ok {
			content, at := lm.Content, lm.CreatedAt
			v.LastMessage = &content
			v.LastMessageAt = &at
			if name := strings.TrimSpace(deref(lm.FirstName) + " " + deref(lm.LastName)); name != "" {
				v.LastSenderName = &name
			}
		}
		views = append(views, v)
	}
	sort.SliceStable(views, func(i, j int) bool {
		return activity(views[i]).After(activity(views[j]))
	})
	return c.JSON(http.StatusOK, views)
}

func activity(v ChatRoomView) time.Time {
	if v.LastMessageAt != nil {
		return *v.LastMessageAt
	}
	return v.CreatedAt
}

// CreateRoom opens a room with the caller as owner plus any listed members
func (h *ChatHandler) CreateRoom(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("chat_room", "create")
	var req CreateChatRoomRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	creator := middleware.UserID(c)
	room := model.ChatRoom{
		Name:        req.Name,
		RoomType:    orDefault(req.RoomType, model.RoomGroup),
		Description: req.Description,
		CreatedBy:   strPtr(creator),
	}

	members := []model.ChatRoomMember{{UserID: creator, Role: memberOwner}}
	seen := map[string]bool{creator: true}
	for _, id := range req.MemberIDs {
		if !seen[id] {
			seen[id] = true
			members = append(members, model.ChatRoomMember{UserID: id, Role: memberMember})
		}
	}

	ctx := c.Request().Context()
	var known int64
	if err := database.GetDB().WithContext(ctx).Model(&model.User{}).Where("id IN ?", memberIDs(members)).Count(&known).Error; err != nil {
		return internalError(c, "Failed to load chat members", err)
	}
	if known != int64(len(members)) {
		return notFound(c, "User")
	}

	err := database.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		for i := range members {
			members[i].RoomID = room.ID
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return internalError(c, "Failed to create chat room", err)
	}

	log.Info("Chat room created", zap.String("room_id", room.ID), zap.Int("members", len(members)))
	return c.JSON(http.StatusCreated, ChatRoomView{ChatRoom: room, MemberCount: int64(len(members))})
}

func memberIDs(members []model.ChatRoomMember) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids
}

// requireMember answers 404 or 403 unless the caller belongs to room :id
func requireMember(c echo.Context) (string, bool, error) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return "", false, invalidID(c)
	}
	ctx := c.Request().Context()
	db := database.GetDB()

	if ok, err := crud.Exists(ctx, db, &model.ChatRoom{}, roomID); err != nil {
		return "", false, internalError(c, "Failed to load chat room", err)
	} else if !ok {
		return "", false, notFound(c, "Chat room")
	}

	member, err := isMember(c, roomID, middleware.UserID(c))
	if err != nil {
		return "", false, internalError(c, "Failed to check chat membership", err)
	}
	if !member {
		return "", false, c.JSON(http.StatusForbidden, echo.Map{"error": "Not a member of this room"})
	}
	return roomID, true, nil
}

func isMember(c echo.Context, roomID, userID string) (bool, error) {
	var n int64
	err := database.GetDB().WithContext(c.Request().Context()).Model(&model.ChatRoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&n).Error
	return n > 0, err
}

// AddMember adds a user to a room the caller belongs to
func (h *ChatHandler) AddMember(c echo.Context) error {
	prometheus.RecordOperation("chat_member", "create")
	roomID, ok, err := requireMember(c)
	if !ok {
		return err
	}
	var req AddChatMemberRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	if ok, err := crud.Exists(ctx, database.GetDB(), &model.User{}, req.UserID); err != nil {
		return internalError(c, "Failed to load user", err)
	} else if !ok {
		return notFound(c, "User")
	}
	if already, err := isMember(c, roomID, req.UserID); err != nil {
		return internalError(c, "Failed to check chat membership", err)
	} else if already {
		return c.JSON(http.StatusConflict, echo.Map{"error": "User is already a member of this room"})
	}

	member := model.ChatRoomMember{RoomID: roomID, UserID: req.UserID, Role: memberMember}
	if err := crud.Create(ctx, database.GetDB(), &member); err != nil {
		return internalError(c, "Failed to add chat member", err)
	}
	return c.JSON(http.StatusCreated, member)
}

// ListMessages returns a room's messages oldest first
func (h *ChatHandler) ListMessages(c echo.Context) error {
	prometheus.RecordOperation("chat_message", "list")
	roomID, ok, err := requireMember(c)
	if !ok {
		return err
	}

	rows := []ChatMessageRow{}
	if err := chatMessages.Find(c.Request().Context(), database.GetDB(), &rows, "m.room_id = ?", roomID); err != nil {
		return internalError(c, "Failed to list chat messages", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// PostMessage stores a message and pushes it to the room's live subscribers
func (h *ChatHandler) PostMessage(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("chat_message", "create")
	roomID, ok, err := requireMember(c)
	if !ok {
		return err
	}
	var req PostChatMessageRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}
	if strings.TrimSpace(req.Content) == "" {
		return badRequest(c, validation.RequiredMessage("content"))
	}

	ctx := c.Request().Context()
	msg := model.ChatMessage{
		RoomID:      roomID,
		SenderID:    middleware.UserID(c),
		Content:     req.Content,
		MessageType: orDefault(req.MessageType, "text"),
	}
	if err := crud.Create(ctx, database.GetDB(), &msg); err != nil {
		return internalError(c, "Failed to post chat message", err)
	}

	var row ChatMessageRow
	err = chatMessages.Get(ctx, database.GetDB(), "m.id", msg.ID, &row)
	if errors.Is(err, crud.ErrNotFound) {
		return notFound(c, "Chat message")
	}
	if err != nil {
		return internalError(c, "Failed to load chat message", err)
	}

	prometheus.ChatMessageCounter.Inc()
	if n, err := h.hub.Publish(roomID, row); err != nil {
		log.Warn("Failed to publish chat message", zap.String("room_id", roomID), zap.Error(err))
	} else {
		log.Debug("Chat message published", zap.String("room_id", roomID), zap.Int("subscribers", n))
	}
	return c.JSON(http.StatusCreated, row)
}

// Stream upgrades to a websocket that receives every new message in the room
func (h *ChatHandler) Stream(c echo.Context) error {
	roomID, ok, err := requireMember(c)
	if !ok {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.FromContext(c).Warn("Chat websocket upgrade failed", zap.Error(err))
		return nil
	}

	prometheus.ChatConnectionsGauge.Inc()
	defer prometheus.ChatConnectionsGauge.Dec()
	logger.FromContext(c).Info("Chat websocket connected", zap.String("room_id", roomID))

	h.hub.Serve(c.Request().Context(), conn, h.hub.Subscribe(roomID, chat.DefaultBuffer))
	return nil
}
