package model

// Tenancy is a lease linking a tenant user to a property
type Tenancy struct {
	Base
	PropertyID      string  `gorm:"type:uuid;not null;index" json:"property_id"`
	TenantUserID    string  `gorm:"type:uuid;not null;index" json:"tenant_user_id"`
	LeaseStart      Date    `gorm:"not null" json:"lease_start"`
	LeaseEnd        *Date   `json:"lease_end"`
	RentAmount      float64 `gorm:"type:numeric(12,2);not null" json:"rent_amount"`
	RentFrequency   string  `gorm:"not null" json:"rent_frequency"`
	SecurityDeposit float64 `gorm:"type:numeric(12,2);not null" json:"security_deposit"`
	Status          string  `gorm:"not null;index" json:"status"`

	Property   *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TenantUser *User     `gorm:"foreignKey:TenantUserID;constraint:OnDelete:CASCADE" json:"-"`
}

// RentPayment is one scheduled or received rent instalment
type RentPayment struct {
	Base
	TenancyID       string  `gorm:"type:uuid;not null;index" json:"tenancy_id"`
	Amount          float64 `gorm:"type:numeric(12,2);not null" json:"amount"`
	DueDate         Date    `gorm:"not null;index" json:"due_date"`
	PaidDate        *Date   `json:"paid_date"`
	PaymentMethod   *string `json:"payment_method"`
	Status          string  `gorm:"not null;index" json:"status"`
	ReferenceNumber *string `json:"reference_number"`

	Tenancy *Tenancy `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
