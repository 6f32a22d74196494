package model

// MaintenanceRequest is a repair job raised against a property
type MaintenanceRequest struct {
	Base
	PropertyID      string   `gorm:"type:uuid;not null;index" json:"property_id"`
	Title           string   `gorm:"not null" json:"title"`
	Description     *string  `json:"description"`
	Category        *string  `json:"category"`
	Priority        string   `gorm:"not null" json:"priority"`
	Status          string   `gorm:"not null;index" json:"status"`
	AssignedTo      *string  `gorm:"type:uuid" json:"assigned_to"`
	EstimatedCost   *float64 `gorm:"type:numeric(12,2)" json:"estimated_cost"`
	ActualCost      *float64 `gorm:"type:numeric(12,2)" json:"actual_cost"`
	CompletedDate   *Date    `json:"completed_date"`
	ResolutionNotes *string  `json:"resolution_notes"`
	RequestedBy     *string  `gorm:"type:uuid" json:"requested_by"`

	Property *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// SupportTicket is a help-desk ticket
type SupportTicket struct {
	Base
	UserID      *string `gorm:"type:uuid;index" json:"user_id"`
	PropertyID  *string `gorm:"type:uuid" json:"property_id"`
	Subject     string  `gorm:"not null" json:"subject"`
	Description *string `json:"description"`
	Status      string  `gorm:"not null;index" json:"status"`
	Priority    string  `gorm:"not null" json:"priority"`
}
