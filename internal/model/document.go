package model

// Document is an uploaded file, optionally tied to a property
type Document struct {
	Base
	PropertyID   *string `gorm:"type:uuid;index" json:"property_id"`
	DocumentType string  `gorm:"not null;index" json:"document_type"`
	Title        string  `gorm:"not null" json:"title"`
	Description  *string `json:"description"`
	FileURL      string  `gorm:"not null" json:"file_url"`
	FileName     *string `json:"file_name"`
	FileSize     *int64  `json:"file_size"`
	MimeType     *string `json:"mime_type"`
	ExpiryDate   *Date   `json:"expiry_date"`
	UploadedBy   *string `gorm:"type:uuid" json:"uploaded_by"`

	Property *Property `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
