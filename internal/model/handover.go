package model

// Handover is a checklist for transferring a property or service between parties
type Handover struct {
	Base
	PropertyID    string  `gorm:"type:uuid;not null;index" json:"property_id"`
	Title         string  `gorm:"not null" json:"title"`
	Description   *string `json:"description"`
	Status        string  `gorm:"not null;index" json:"status"`
	HandoverDate  *Date   `json:"handover_date"`
	FromParty     *string `json:"from_party"`
	ToParty       *string `json:"to_party"`
	CompletedDate *Date   `json:"completed_date"`
	Notes         *string `json:"notes"`
	CreatedBy     *string `gorm:"type:uuid" json:"created_by"`

	Property *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name
func (Handover) TableName() string {
	return "service_handovers"
}

// HandoverItem is one checklist line of a handover
type HandoverItem struct {
	Base
	HandoverID  string  `gorm:"type:uuid;not null;index" json:"handover_id"`
	ItemName    string  `gorm:"not null" json:"item_name"`
	Description *string `json:"description"`
	Condition   *string `json:"condition"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	Notes       *string `json:"notes"`
	Status      string  `gorm:"not null" json:"status"`

	Handover *Handover `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
