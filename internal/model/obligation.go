package model

// Obligation is a recurring or one-off duty tied to a property
type Obligation struct {
	Base
	PropertyID     string   `gorm:"type:uuid;not null;index" json:"property_id"`
	ObligationType string   `gorm:"not null" json:"obligation_type"`
	Title          string   `gorm:"not null" json:"title"`
	Description    *string  `json:"description"`
	Amount         *float64 `gorm:"type:numeric(12,2)" json:"amount"`
	DueDate        *Date    `gorm:"index" json:"due_date"`
	Recurring      bool     `gorm:"not null" json:"recurring"`
	Frequency      *string  `json:"frequency"`
	Status         string   `gorm:"not null" json:"status"`
	CreatedBy      *string  `gorm:"type:uuid" json:"created_by"`

	Property *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name
func (Obligation) TableName() string {
	return "property_obligations"
}

// ObligationPayment settles an obligation
type ObligationPayment struct {
	Base
	ObligationID    string  `gorm:"type:uuid;not null;index" json:"obligation_id"`
	Amount          float64 `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaymentDate     Date    `gorm:"not null" json:"payment_date"`
	PaymentMethod   *string `json:"payment_method"`
	ReferenceNumber *string `json:"reference_number"`
	Notes           *string `json:"notes"`
	CreatedBy       *string `gorm:"type:uuid" json:"created_by"`

	Obligation *Obligation `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
