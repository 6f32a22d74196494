package model

import "gorm.io/datatypes"

// LegalCase tracks a dispute or court matter
type LegalCase struct {
	Base
	PropertyID      *string `gorm:"type:uuid;index" json:"property_id"`
	CaseType        string  `gorm:"not null" json:"case_type"`
	Title           string  `gorm:"not null" json:"title"`
	Description     *string `json:"description"`
	Status          string  `gorm:"not null;index" json:"status"`
	Priority        string  `gorm:"not null" json:"priority"`
	AssignedTo      *string `gorm:"type:uuid" json:"assigned_to"`
	CourtReference  *string `json:"court_reference"`
	FilingDate      *Date   `json:"filing_date"`
	ResolutionDate  *Date   `json:"resolution_date"`
	ResolutionNotes *string `json:"resolution_notes"`
	CreatedBy       *string `gorm:"type:uuid" json:"created_by"`

	Property *Property `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// CaseUpdate is a timeline entry on a legal case
type CaseUpdate struct {
	Base
	LegalCaseID string         `gorm:"type:uuid;not null;index" json:"legal_case_id"`
	UpdateType  string         `gorm:"not null" json:"update_type"`
	Content     string         `gorm:"not null" json:"content"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedBy   *string        `gorm:"type:uuid" json:"created_by"`

	LegalCase *LegalCase `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
