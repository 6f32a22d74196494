package model

// PowerOfAttorney delegates authority from a grantor to a grantee
type PowerOfAttorney struct {
	Base
	PropertyID      *string `gorm:"type:uuid;index" json:"property_id"`
	GrantorUserID   string  `gorm:"type:uuid;not null" json:"grantor_user_id"`
	GranteeUserID   string  `gorm:"type:uuid;not null" json:"grantee_user_id"`
	PoaType         string  `gorm:"not null" json:"poa_type"`
	Title           string  `gorm:"not null" json:"title"`
	Description     *string `json:"description"`
	Status          string  `gorm:"not null;index" json:"status"`
	StartDate       *Date   `json:"start_date"`
	EndDate         *Date   `json:"end_date"`
	NotaryReference *string `json:"notary_reference"`
	DocumentURL     *string `json:"document_url"`
	CreatedBy       *string `gorm:"type:uuid" json:"created_by"`

	Property    *Property `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	GrantorUser *User     `gorm:"foreignKey:GrantorUserID;constraint:OnDelete:CASCADE" json:"-"`
	GranteeUser *User     `gorm:"foreignKey:GranteeUserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name
func (PowerOfAttorney) TableName() string {
	return "powers_of_attorney"
}
