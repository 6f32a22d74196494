package model

import "gorm.io/datatypes"

// Notification is an in-app message addressed to one user
type Notification struct {
	Base
	UserID           string  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title            string  `gorm:"not null" json:"title"`
	Message          string  `json:"message"`
	NotificationType string  `gorm:"not null" json:"notification_type"`
	EntityType       *string `json:"entity_type"`
	EntityID         *string `json:"entity_id"`
	IsRead           bool    `gorm:"not null;index" json:"is_read"`
}

// AuditLog records who changed which entity
type AuditLog struct {
	Base
	ActorUserID *string        `gorm:"type:uuid;index" json:"actor_user_id"`
	Action      string         `gorm:"not null" json:"action"`
	EntityType  string         `gorm:"not null" json:"entity_type"`
	EntityID    *string        `json:"entity_id"`
	Metadata    datatypes.JSON `json:"metadata"`
}
