package handler

import (
	"net/http"
	"sort"

	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
)

// DocumentRow is a document with property and uploader names
type DocumentRow struct {
	model.Document
	PropertyName      *string `json:"property_name"`
	UploaderFirstName *string `json:"uploader_first_name"`
	UploaderLastName  *string `json:"uploader_last_name"`
}

// DocumentGroup collects the documents of one type
type DocumentGroup struct {
	DocumentType string        `json:"document_type"`
	Count        int           `json:"count"`
	Documents    []DocumentRow `json:"documents"`
}

// CreateDocumentRequest is the body of POST /api/documents
type CreateDocumentRequest struct {
	PropertyID   *string     `json:"property_id" validate:"omitempty,uuid"`
	DocumentType string      `json:"document_type"`
	Title        string      `json:"title" validate:"required"`
	Description  *string     `json:"description"`
	FileURL      string      `json:"file_url" validate:"required"`
	FileName     *string     `json:"file_name"`
	FileSize     *int64      `json:"file_size"`
	MimeType     *string     `json:"mime_type"`
	ExpiryDate   *model.Date `json:"expiry_date"`
}

// UpdateDocumentRequest is the body of PUT /api/documents/:id
type UpdateDocumentRequest struct {
	DocumentType *string     `json:"document_type"`
	Title        *string     `json:"title"`
	Description  *string     `json:"description"`
	FileURL      *string     `json:"file_url"`
	FileName     *string     `json:"file_name"`
	FileSize     *int64      `json:"file_size"`
	MimeType     *string     `json:"mime_type"`
	ExpiryDate   *model.Date `json:"expiry_date"`
}

var documents = resource{
	name:     "document",
	label:    "Document",
	newModel: func() interface{} { return &model.Document{} },
	idColumn: "d.id",
	query: crud.Query{
		Table: "documents d",
		Select: "d.*, p.name AS property_name, " +
			"u.first_name AS uploader_first_name, u.last_name AS uploader_last_name",
		Joins: []string{
			"LEFT JOIN properties p ON p.id = d.property_id",
			"LEFT JOIN app_users u ON u.id = d.uploaded_by",
		},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "d.property_id"},
			{Param: "document_type", Column: "d.document_type"},
		},
		Order: "d.created_at DESC",
	},
}

// ListDocuments lists documents, newest first
func ListDocuments(c echo.Context) error {
	rows := []DocumentRow{}
	return documents.list(c, &rows)
}

// GroupedDocuments returns every matching document bucketed by type
func GroupedDocuments(c echo.Context) error {
	prometheus.RecordOperation(documents.name, "grouped")

	rows := []DocumentRow{}
	if err := documents.query.All(c.Request().Context(), database.GetDB(), c.QueryParams(), &rows); err != nil {
		return internalError(c, "Failed to list documents", err)
	}

	index := map[string]int{}
	groups := []DocumentGroup{}
	for _, row := range rows {
		i, ok := index[row.DocumentType]
		if !ok {
			i = len(groups)
			index[row.DocumentType] = i
			groups = append(groups, DocumentGroup{DocumentType: row.DocumentType})
		}
		groups[i].Documents = append(groups[i].Documents, row)
		groups[i].Count++
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].DocumentType < groups[j].DocumentType
	})
	return c.JSON(http.StatusOK, groups)
}

// GetDocument returns one document
func GetDocument(c echo.Context) error {
	var row DocumentRow
	return documents.get(c, &row)
}

// CreateDocument registers an uploaded file
func CreateDocument(c echo.Context) error {
	var req CreateDocumentRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, deref(req.PropertyID), "Property"); stop {
		return err
	}

	doc := model.Document{
		PropertyID:   req.PropertyID,
		DocumentType: orDefault(req.DocumentType, "general"),
		Title:        req.Title,
		Description:  req.Description,
		FileURL:      req.FileURL,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		MimeType:     req.MimeType,
		ExpiryDate:   req.ExpiryDate,
		UploadedBy:   strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &doc); err != nil {
		return internalError(c, "Failed to create document", err)
	}

	var row DocumentRow
	return documents.created(c, doc.ID, &row)
}

// UpdateDocument changes the supplied document fields
func UpdateDocument(c echo.Context) error {
	var req UpdateDocumentRequest
	var row DocumentRow
	return documents.update(c, &req, &row)
}

// DeleteDocument removes a document
func DeleteDocument(c echo.Context) error {
	return documents.delete(c)
}
