package model

// Address is a postal address referenced by properties
type Address struct {
	Base
	Line1      string  `gorm:"not null" json:"line1"`
	Line2      *string `json:"line2"`
	City       *string `json:"city"`
	StateCode  *string `json:"state_code"`
	PostalCode *string `json:"postal_code"`
	Country    string  `gorm:"not null" json:"country"`
}

// Property is a managed building or unit
type Property struct {
	Base
	Name         string   `gorm:"not null" json:"name"`
	PropertyType string   `gorm:"not null;index" json:"property_type"`
	Status       string   `gorm:"not null;index" json:"status"`
	Description  *string  `json:"description"`
	AddressID    *string  `gorm:"type:uuid" json:"address_id"`
	Address      *Address `gorm:"foreignKey:AddressID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedBy    *string  `gorm:"type:uuid" json:"created_by"`
}

// PropertyOwner records a user's share of a property
type PropertyOwner struct {
	Base
	PropertyID          string  `gorm:"type:uuid;not null;index" json:"property_id"`
	OwnerUserID         string  `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	OwnershipPercentage float64 `gorm:"type:numeric(5,2);not null" json:"ownership_percentage"`
	OwnerType           string  `gorm:"not null" json:"owner_type"`

	Property  *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	OwnerUser *User     `gorm:"foreignKey:OwnerUserID;constraint:OnDelete:CASCADE" json:"-"`
}
