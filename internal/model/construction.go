package model

// ConstructionProject is building work on a property
type ConstructionProject struct {
	Base
	PropertyID         string   `gorm:"type:uuid;not null;index" json:"property_id"`
	Title              string   `gorm:"not null" json:"title"`
	Description        *string  `json:"description"`
	Status             string   `gorm:"not null;index" json:"status"`
	Contractor         *string  `json:"contractor"`
	Budget             *float64 `gorm:"type:numeric(14,2)" json:"budget"`
	StartDate          *Date    `json:"start_date"`
	ExpectedEndDate    *Date    `json:"expected_end_date"`
	ActualEndDate      *Date    `json:"actual_end_date"`
	ProgressPercentage int      `gorm:"not null" json:"progress_percentage"`
	CreatedBy          *string  `gorm:"type:uuid" json:"created_by"`

	Property *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ConstructionMilestone is a checkpoint within a project
type ConstructionMilestone struct {
	Base
	ProjectID     string  `gorm:"type:uuid;not null;index" json:"project_id"`
	Title         string  `gorm:"not null" json:"title"`
	Description   *string `json:"description"`
	DueDate       *Date   `json:"due_date"`
	Status        string  `gorm:"not null" json:"status"`
	CompletedDate *Date   `json:"completed_date"`

	Project *ConstructionProject `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}
