package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the columns every table shares
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none is set
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserRole{},
		&Address{},
		&Property{},
		&PropertyOwner{},
		&Tenancy{},
		&RentPayment{},
		&RevenueRecord{},
		&Expense{},
		&Document{},
		&Inspection{},
		&InspectionMedia{},
		&LegalCase{},
		&CaseUpdate{},
		&MaintenanceRequest{},
		&AuditCycle{},
		&ComplianceCheck{},
		&Obligation{},
		&ObligationPayment{},
		&ConstructionProject{},
		&ConstructionMilestone{},
		&Handover{},
		&HandoverItem{},
		&PowerOfAttorney{},
		&EscalationRule{},
		&EscalationEvent{},
		&Notification{},
		&ChatRoom{},
		&ChatRoomMember{},
		&ChatMessage{},
		&AuditLog{},
		&SupportTicket{},
		&Subscription{},
	}
}
