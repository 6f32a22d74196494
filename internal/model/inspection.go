package model

import "gorm.io/datatypes"

// Inspection is a scheduled visit to a property
type Inspection struct {
	Base
	PropertyID      string  `gorm:"type:uuid;not null;index" json:"property_id"`
	InspectionType  string  `gorm:"not null" json:"inspection_type"`
	ScheduledDate   Date    `gorm:"not null;index" json:"scheduled_date"`
	CompletedDate   *Date   `json:"completed_date"`
	Status          string  `gorm:"not null;index" json:"status"`
	InspectorUserID *string `gorm:"type:uuid" json:"inspector_user_id"`
	Notes           *string `json:"notes"`
	Findings        *string `json:"findings"`
	Rating          *int    `json:"rating"`
	CreatedBy       *string `gorm:"type:uuid" json:"created_by"`

	Property *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// InspectionMedia is a photo or file captured during an inspection
type InspectionMedia struct {
	Base
	InspectionID string         `gorm:"type:uuid;not null;index" json:"inspection_id"`
	FileURL      string         `gorm:"not null" json:"file_url"`
	FileType     string         `gorm:"not null" json:"file_type"`
	Caption      *string        `json:"caption"`
	Room         *string        `json:"room"`
	Metadata     datatypes.JSON `json:"metadata"`
	UploadedBy   *string        `gorm:"type:uuid" json:"uploaded_by"`

	Inspection *Inspection `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name
func (InspectionMedia) TableName() string {
	return "inspection_media"
}
