package model

// Chat room types
const (
	RoomDirect  = "direct"
	RoomGroup   = "group"
	RoomPrivate = "private"
	RoomChannel = "channel"
)

// ChatRoom is a conversation between members
type ChatRoom struct {
	Base
	Name        string  `gorm:"not null" json:"name"`
	RoomType    string  `gorm:"not null" json:"room_type"`
	Description *string `json:"description"`
	CreatedBy   *string `gorm:"type:uuid" json:"created_by"`
}

// ChatRoomMember links a user to a room
type ChatRoomMember struct {
	Base
	RoomID string `gorm:"type:uuid;not null;uniqueIndex:idx_room_member" json:"room_id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_room_member" json:"user_id"`
	Role   string `gorm:"not null" json:"role"`

	Room *ChatRoom `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ChatMessage is a message posted to a room
type ChatMessage struct {
	Base
	RoomID      string `gorm:"type:uuid;not null;index" json:"room_id"`
	SenderID    string `gorm:"type:uuid;not null" json:"sender_id"`
	Content     string `gorm:"not null" json:"content"`
	MessageType string `gorm:"not null" json:"message_type"`

	Room   *ChatRoom `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Sender *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
