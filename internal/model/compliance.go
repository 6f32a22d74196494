package model

// AuditCycle groups compliance checks into a review period
type AuditCycle struct {
	Base
	Name        string  `gorm:"not null" json:"name"`
	StartDate   Date    `gorm:"not null" json:"start_date"`
	EndDate     Date    `gorm:"not null" json:"end_date"`
	Status      string  `gorm:"not null" json:"status"`
	Description *string `json:"description"`
	CreatedBy   *string `gorm:"type:uuid" json:"created_by"`
}

// ComplianceCheck is a regulatory check due on a property
type ComplianceCheck struct {
	Base
	PropertyID    string  `gorm:"type:uuid;not null;index" json:"property_id"`
	CheckType     string  `gorm:"not null" json:"check_type"`
	Title         string  `gorm:"not null" json:"title"`
	Description   *string `json:"description"`
	Status        string  `gorm:"not null;index" json:"status"`
	DueDate       *Date   `gorm:"index" json:"due_date"`
	CompletedDate *Date   `json:"completed_date"`
	AssignedTo    *string `gorm:"type:uuid" json:"assigned_to"`
	Findings      *string `json:"findings"`
	AuditCycleID  *string `gorm:"type:uuid;index" json:"audit_cycle_id"`
	CreatedBy     *string `gorm:"type:uuid" json:"created_by"`

	Property   *Property   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AuditCycle *AuditCycle `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}
