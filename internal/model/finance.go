package model

import "gorm.io/datatypes"

// RevenueRecord books income against a property
type RevenueRecord struct {
	Base
	PropertyID      string         `gorm:"type:uuid;not null;index" json:"property_id"`
	RecordType      string         `gorm:"not null" json:"record_type"`
	Description     *string        `json:"description"`
	Amount          float64        `gorm:"type:numeric(12,2);not null" json:"amount"`
	RecordDate      Date           `gorm:"not null" json:"record_date"`
	StateCode       *string        `json:"state_code"`
	ReferenceNumber *string        `json:"reference_number"`
	Metadata        datatypes.JSON `json:"metadata"`
	CreatedBy       *string        `gorm:"type:uuid" json:"created_by"`

	Property *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Expense is money spent on a property
type Expense struct {
	Base
	PropertyID    string  `gorm:"type:uuid;not null;index" json:"property_id"`
	Category      string  `gorm:"not null" json:"category"`
	Description   *string `json:"description"`
	Amount        float64 `gorm:"type:numeric(12,2);not null" json:"amount"`
	ExpenseDate   Date    `gorm:"not null" json:"expense_date"`
	PaymentStatus string  `gorm:"not null" json:"payment_status"`
	Vendor        *string `json:"vendor"`
	ReceiptURL    *string `json:"receipt_url"`
	Notes         *string `json:"notes"`
	CreatedBy     *string `gorm:"type:uuid" json:"created_by"`

	Property *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name
func (Expense) TableName() string {
	return "property_expenses"
}

// Subscription is a user's active billing plan
type Subscription struct {
	Base
	UserID    string   `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanName  string   `gorm:"not null" json:"plan_name"`
	Status    string   `gorm:"not null" json:"status"`
	Amount    *float64 `gorm:"type:numeric(12,2)" json:"amount"`
	StartDate *Date    `json:"start_date"`
	EndDate   *Date    `json:"end_date"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
