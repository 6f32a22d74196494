package handler

import (
	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"

	"github.com/labstack/echo/v4"
)

// PowerOfAttorneyRow is a power of attorney with property and party names
type PowerOfAttorneyRow struct {
	model.PowerOfAttorney
	PropertyName     *string `json:"property_name"`
	GrantorFirstName *string `json:"grantor_first_name"`
	GrantorLastName  *string `json:"grantor_last_name"`
	GranteeFirstName *string `json:"grantee_first_name"`
	GranteeLastName  *string `json:"grantee_last_name"`
}

// CreatePowerOfAttorneyRequest is the body of POST /api/poa
type CreatePowerOfAttorneyRequest struct {
	PropertyID      *string     `json:"property_id" validate:"omitempty,uuid"`
	GrantorUserID   string      `json:"grantor_user_id" validate:"required,uuid"`
	GranteeUserID   string      `json:"grantee_user_id" validate:"required,uuid"`
	PoaType         string      `json:"poa_type" validate:"required"`
	Title           string      `json:"title" validate:"required"`
	Description     *string     `json:"description"`
	Status          string      `json:"status"`
	StartDate       *model.Date `json:"start_date"`
	EndDate         *model.Date `json:"end_date"`
	NotaryReference *string     `json:"notary_reference"`
	DocumentURL     *string     `json:"document_url"`
}

// UpdatePowerOfAttorneyRequest is the body of PUT /api/poa/:id
type UpdatePowerOfAttorneyRequest struct {
	PoaType         *string     `json:"poa_type"`
	Title           *string     `json:"title"`
	Description     *string     `json:"description"`
	Status          *string     `json:"status"`
	StartDate       *model.Date `json:"start_date"`
	EndDate         *model.Date `json:"end_date"`
	NotaryReference *string     `json:"notary_reference"`
	DocumentURL     *string     `json:"document_url"`
}

var powersOfAttorney = resource{
	name:     "power_of_attorney",
	label:    "Power of attorney",
	newModel: func() interface{} { return &model.PowerOfAttorney{} },
	idColumn: "poa.id",
	query: crud.Query{
		Table: "powers_of_attorney poa",
		Select: "poa.*, p.name AS property_name, " +
			"gr.first_name AS grantor_first_name, gr.last_name AS grantor_last_name, " +
			"ge.first_name AS grantee_first_name, ge.last_name AS grantee_last_name",
		Joins: []string{
			"LEFT JOIN properties p ON p.id = poa.property_id",
			"LEFT JOIN app_users gr ON gr.id = poa.grantor_user_id",
			"LEFT JOIN app_users ge ON ge.id = poa.grantee_user_id",
		},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "poa.property_id"},
			{Param: "status", Column: "poa.status"},
			{Param: "grantor_user_id", Column: "poa.grantor_user_id"},
			{Param: "grantee_user_id", Column: "poa.grantee_user_id"},
		},
		Order: "poa.created_at DESC",
	},
}

// ListPowersOfAttorney lists powers of attorney, newest first
func ListPowersOfAttorney(c echo.Context) error {
	rows := []PowerOfAttorneyRow{}
	return powersOfAttorney.list(c, &rows)
}

// GetPowerOfAttorney returns one power of attorney
func GetPowerOfAttorney(c echo.Context) error {
	var row PowerOfAttorneyRow
	return powersOfAttorney.get(c, &row)
}

// CreatePowerOfAttorney drafts a power of attorney
func CreatePowerOfAttorney(c echo.Context) error {
	var req CreatePowerOfAttorneyRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if req.GrantorUserID == req.GranteeUserID {
		return badRequest(c, "grantor_user_id and grantee_user_id must differ")
	}
	if stop, err := missingRow(c, &model.Property{}, deref(req.PropertyID), "Property"); stop {
		return err
	}
	if stop, err := missingRow(c, &model.User{}, req.GrantorUserID, "Grantor"); stop {
		return err
	}
	if stop, err := missingRow(c, &model.User{}, req.GranteeUserID, "Grantee"); stop {
		return err
	}

	poa := model.PowerOfAttorney{
		PropertyID:      req.PropertyID,
		GrantorUserID:   req.GrantorUserID,
		GranteeUserID:   req.GranteeUserID,
		PoaType:         req.PoaType,
		Title:           req.Title,
		Description:     req.Description,
		Status:          orDefault(req.Status, "draft"),
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		NotaryReference: req.NotaryReference,
		DocumentURL:     req.DocumentURL,
		CreatedBy:       strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &poa); err != nil {
		return internalError(c, "Failed to create power of attorney", err)
	}

	var row PowerOfAttorneyRow
	return powersOfAttorney.created(c, poa.ID, &row)
}

// UpdatePowerOfAttorney changes the supplied fields
func UpdatePowerOfAttorney(c echo.Context) error {
	var req UpdatePowerOfAttorneyRequest
	var row PowerOfAttorneyRow
	return powersOfAttorney.update(c, &req, &row)
}

// DeletePowerOfAttorney removes a power of attorney
func DeletePowerOfAttorney(c echo.Context) error {
	return powersOfAttorney.delete(c)
}
