package handler

import (
	"net/http"
	"time"

	"property-service/internal/audit"
	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/pkg/logger"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PropertyRow is a property with its address flattened in
type PropertyRow struct {
	model.Property
	Line1      *string `json:"line1"`
	Line2      *string `json:"line2"`
	City       *string `json:"city"`
	StateCode  *string `json:"state_code"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}

// PropertyOwnerRow is an ownership share with the owner's contact details
type PropertyOwnerRow struct {
	model.PropertyOwner
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// CreatePropertyRequest is the body of POST /api/properties
type CreatePropertyRequest struct {
	Name         string  `json:"name" validate:"required"`
	PropertyType string  `json:"property_type" validate:"required"`
	Status       string  `json:"status"`
	Description  *string `json:"description"`
	Line1        string  `json:"line1"`
	Line2        *string `json:"line2"`
	City         *string `json:"city"`
	StateCode    *string `json:"state_code"`
	PostalCode   *string `json:"postal_code"`
	Country      string  `json:"country"`
}

// UpdatePropertyRequest is the body of PUT /api/properties/:id
type UpdatePropertyRequest struct {
	Name         *string `json:"name"`
	PropertyType *string `json:"property_type"`
	Status       *string `json:"status"`
	Description  *string `json:"description"`
}

// AddOwnerRequest is the body of POST /api/properties/:id/owners
type AddOwnerRequest struct {
	OwnerUserID         string  `json:"owner_user_id" validate:"required,uuid"`
	OwnershipPercentage float64 `json:"ownership_percentage" validate:"gte=0,lte=100"`
	OwnerType           string  `json:"owner_type"`
}

var properties = resource{
	name:     "property",
	label:    "Property",
	newModel: func() interface{} { return &model.Property{} },
	idColumn: "p.id",
	query: crud.Query{
		Table:  "properties p",
		Select: "p.*, a.line1, a.line2, a.city, a.state_code, a.postal_code, a.country",
		Joins:  []string{"LEFT JOIN addresses a ON a.id = p.address_id"},
		Filters: []crud.Filter{
			{Param: "status", Column: "p.status"},
			{Param: "type", Column: "p.property_type"},
		},
		Order: "p.created_at DESC",
	},
}

var propertyOwnerQuery = crud.Query{
	Table:  "property_owners po",
	Select: "po.*, u.email, u.first_name, u.last_name",
	Joins:  []string{"JOIN app_users u ON u.id = po.owner_user_id"},
	Order:  "po.ownership_percentage DESC",
}

// ListProperties lists properties with their addresses
func ListProperties(c echo.Context) error {
	rows := []PropertyRow{}
	return properties.list(c, &rows)
}

// GetProperty returns one property
func GetProperty(c echo.Context) error {
	var row PropertyRow
	return properties.get(c, &row)
}

// CreateProperty inserts a property, creating its address first when given
func CreateProperty(c echo.Context) error {
	log := logger.FromContext(c)

	var req CreatePropertyRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	property := model.Property{
		Name:         req.Name,
		PropertyType: req.PropertyType,
		Status:       orDefault(req.Status, "active"),
		Description:  req.Description,
		CreatedBy:    strPtr(middleware.UserID(c)),
	}

	ctx := c.Request().Context()
	defer prometheus.TrackDBOperation("insert")(time.Now())
	tx := database.GetDB().WithContext(ctx).Begin()
	if tx.Error != nil {
		return internalError(c, "Failed to begin transaction", tx.Error)
	}

	if req.Line1 != "" {
		address := model.Address{
			Line1:      req.Line1,
			Line2:      req.Line2,
			City:       req.City,
			StateCode:  req.StateCode,
			PostalCode: req.PostalCode,
			Country:    orDefault(req.Country, "AE"),
		}
		if err := tx.Create(&address).Error; err != nil {
			tx.Rollback()
			return internalError(c, "Failed to create address", err)
		}
		property.AddressID = &address.ID
	}

	if err := tx.Create(&property).Error; err != nil {
		tx.Rollback()
		return internalError(c, "Failed to create property", err)
	}
	if err := tx.Commit().Error; err != nil {
		return internalError(c, "Failed to commit transaction", err)
	}

	log.Info("Property created", zap.String("name", property.Name))
	var row PropertyRow
	return properties.created(c, property.ID, &row)
}

// UpdateProperty changes the supplied property fields
func UpdateProperty(c echo.Context) error {
	var req UpdatePropertyRequest
	var row PropertyRow
	return properties.update(c, &req, &row)
}

// DeleteProperty removes a property
func DeleteProperty(c echo.Context) error {
	return properties.delete(c)
}

// ListPropertyOwners lists ownership shares, largest first
func ListPropertyOwners(c echo.Context) error {
	prometheus.RecordOperation("property_owner", "list")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}

	rows := []PropertyOwnerRow{}
	if err := propertyOwnerQuery.Find(c.Request().Context(), database.GetDB(), &rows, "po.property_id = ?", id); err != nil {
		return internalError(c, "Failed to list property owners", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// AddPropertyOwner records an ownership share
func AddPropertyOwner(c echo.Context) error {
	prometheus.RecordOperation("property_owner", "create")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req AddOwnerRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	if ok, err := crud.Exists(ctx, database.GetDB(), &model.Property{}, id); err != nil {
		return internalError(c, "Failed to load property", err)
	} else if !ok {
		return notFound(c, "Property")
	}
	if stop, err := missingRow(c, &model.User{}, req.OwnerUserID, "Owner"); stop {
		return err
	}

	percentage := req.OwnershipPercentage
	if percentage == 0 {
		percentage = 100
	}
	owner := model.PropertyOwner{
		PropertyID:          id,
		OwnerUserID:         req.OwnerUserID,
		OwnershipPercentage: percentage,
		OwnerType:           orDefault(req.OwnerType, "individual"),
	}
	if err := crud.Create(ctx, database.GetDB(), &owner); err != nil {
		return internalError(c, "Failed to add property owner", err)
	}
	audit.Record(ctx, database.GetDB(), middleware.UserID(c), audit.ActionCreate, "property_owner", owner.ID)

	return c.JSON(http.StatusCreated, owner)
}
