package handler

import (
	"errors"
	"net/http"

	"property-service/internal/crud"
	"property-service/internal/middleware"
	"property-service/internal/model"
	"property-service/pkg/database"
	"property-service/pkg/logger"
	"property-service/prometheus"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ConstructionProjectRow is a project with its property name and milestone progress
type ConstructionProjectRow struct {
	model.ConstructionProject
	PropertyName        *string `json:"property_name"`
	MilestonesCompleted int64   `gorm:"-" json:"milestones_completed"`
	MilestonesTotal     int64   `gorm:"-" json:"milestones_total"`
}

// CreateConstructionProjectRequest is the body of POST /api/construction
type CreateConstructionProjectRequest struct {
	PropertyID      string      `json:"property_id" validate:"required,uuid"`
	Title           string      `json:"title" validate:"required"`
	Description     *string     `json:"description"`
	Status          string      `json:"status"`
	Contractor      *string     `json:"contractor"`
	Budget          *float64    `json:"budget" validate:"omitempty,gte=0"`
	StartDate       *model.Date `json:"start_date"`
	ExpectedEndDate *model.Date `json:"expected_end_date"`
}

// UpdateConstructionProjectRequest is the body of PUT /api/construction/:id
type UpdateConstructionProjectRequest struct {
	Title              *string     `json:"title"`
	Description        *string     `json:"description"`
	Status             *string     `json:"status"`
	Contractor         *string     `json:"contractor"`
	Budget             *float64    `json:"budget" validate:"omitempty,gte=0"`
	StartDate          *model.Date `json:"start_date"`
	ExpectedEndDate    *model.Date `json:"expected_end_date"`
	ActualEndDate      *model.Date `json:"actual_end_date"`
	ProgressPercentage *int        `json:"progress_percentage" validate:"omitempty,min=0,max=100"`
}

// CreateMilestoneRequest is the body of POST /api/construction/:id/milestones
type CreateMilestoneRequest struct {
	Title       string      `json:"title" validate:"required"`
	Description *string     `json:"description"`
	DueDate     *model.Date `json:"due_date"`
	Status      string      `json:"status"`
}

// UpdateMilestoneRequest is the body of PUT /api/construction/milestones/:milestoneId
type UpdateMilestoneRequest struct {
	Title         *string     `json:"title"`
	Description   *string     `json:"description"`
	DueDate       *model.Date `json:"due_date"`
	Status        *string     `json:"status"`
	CompletedDate *model.Date `json:"completed_date"`
}

var constructionProjects = resource{
	name:     "construction_project",
	label:    "Construction project",
	newModel: func() interface{} { return &model.ConstructionProject{} },
	idColumn: "cp.id",
	query: crud.Query{
		Table:  "construction_projects cp",
		Select: "cp.*, p.name AS property_name",
		Joins:  []string{"LEFT JOIN properties p ON p.id = cp.property_id"},
		Filters: []crud.Filter{
			{Param: "property_id", Column: "cp.property_id"},
			{Param: "status", Column: "cp.status"},
		},
		Order: "cp.created_at DESC",
	},
}

var milestones = resource{
	name:     "construction_milestone",
	label:    "Milestone",
	newModel: func() interface{} { return &model.ConstructionMilestone{} },
	idColumn: "m.id",
	query: crud.Query{
		Table:  "construction_milestones m",
		Select: "m.*",
		Order:  "m.due_date ASC",
	},
}

type milestoneCount struct {
	ProjectID string
	Total     int64
	Completed int64
}

// fillMilestoneCounts sets the milestone progress on each row with one grouped query
func fillMilestoneCounts(c echo.Context, db *gorm.DB, rows []ConstructionProjectRow) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	var counts []milestoneCount
	err := db.WithContext(c.Request().Context()).
		Model(&model.ConstructionMilestone{}).
		Select("project_id, COUNT(*) AS total, "+
			"SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS completed").
		Where("project_id IN ?", ids).
		Group("project_id").
		Scan(&counts).Error
	if err != nil {
		return err
	}

	byProject := make(map[string]milestoneCount, len(counts))
	for _, mc := range counts {
		byProject[mc.ProjectID] = mc
	}
	for i := range rows {
		mc := byProject[rows[i].ID]
		rows[i].MilestonesTotal = mc.Total
		rows[i].MilestonesCompleted = mc.Completed
	}
	return nil
}

// ListConstructionProjects lists projects with milestone progress, newest first
func ListConstructionProjects(c echo.Context) error {
	prometheus.RecordOperation(constructionProjects.name, "list")
	db := database.GetDB()
	page := crud.ParsePage(c.QueryParams())

	rows := []ConstructionProjectRow{}
	total, err := constructionProjects.query.List(c.Request().Context(), db, c.QueryParams(), page, &rows)
	if err != nil {
		return internalError(c, "Failed to list construction projects", err)
	}
	if err := fillMilestoneCounts(c, db, rows); err != nil {
		return internalError(c, "Failed to count milestones", err)
	}
	return c.JSON(http.StatusOK, listResult(rows, total, page))
}

// GetConstructionProject returns one project with its milestone progress
func GetConstructionProject(c echo.Context) error {
	prometheus.RecordOperation(constructionProjects.name, "get")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}

	db := database.GetDB()
	var row ConstructionProjectRow
	err := constructionProjects.query.Get(c.Request().Context(), db, constructionProjects.idColumn, id, &row)
	if errors.Is(err, crud.ErrNotFound) {
		return notFound(c, constructionProjects.label)
	}
	if err != nil {
		return internalError(c, "Failed to load construction project", err)
	}

	rows := []ConstructionProjectRow{row}
	if err := fillMilestoneCounts(c, db, rows); err != nil {
		return internalError(c, "Failed to count milestones", err)
	}
	return c.JSON(http.StatusOK, rows[0])
}

// CreateConstructionProject starts tracking building work
func CreateConstructionProject(c echo.Context) error {
	var req CreateConstructionProjectRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	if stop, err := missingRow(c, &model.Property{}, req.PropertyID, "Property"); stop {
		return err
	}

	project := model.ConstructionProject{
		PropertyID:      req.PropertyID,
		Title:           req.Title,
		Description:     req.Description,
		Status:          orDefault(req.Status, "planned"),
		Contractor:      req.Contractor,
		Budget:          req.Budget,
		StartDate:       req.StartDate,
		ExpectedEndDate: req.ExpectedEndDate,
		CreatedBy:       strPtr(middleware.UserID(c)),
	}
	if err := crud.Create(c.Request().Context(), database.GetDB(), &project); err != nil {
		return internalError(c, "Failed to create construction project", err)
	}

	var row ConstructionProjectRow
	return constructionProjects.created(c, project.ID, &row)
}

// UpdateConstructionProject changes the supplied project fields
func UpdateConstructionProject(c echo.Context) error {
	var req UpdateConstructionProjectRequest
	var row ConstructionProjectRow
	return constructionProjects.update(c, &req, &row)
}

// DeleteConstructionProject removes a project and its milestones
func DeleteConstructionProject(c echo.Context) error {
	return constructionProjects.delete(c)
}

// ListMilestones lists a project's milestones, soonest due first
func ListMilestones(c echo.Context) error {
	prometheus.RecordOperation(milestones.name, "list")
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}

	rows := []model.ConstructionMilestone{}
	if err := milestones.query.Find(c.Request().Context(), database.GetDB(), &rows, "m.project_id = ?", id); err != nil {
		return internalError(c, "Failed to list milestones", err)
	}
	return c.JSON(http.StatusOK, rows)
}

// CreateMilestone adds a milestone to a project
func CreateMilestone(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req CreateMilestoneRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx := c.Request().Context()
	if ok, err := crud.Exists(ctx, database.GetDB(), &model.ConstructionProject{}, id); err != nil {
		return internalError(c, "Failed to load construction project", err)
	} else if !ok {
		return notFound(c, constructionProjects.label)
	}

	m := model.ConstructionMilestone{
		ProjectID:   id,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      orDefault(req.Status, "pending"),
	}
	if err := crud.Create(ctx, database.GetDB(), &m); err != nil {
		return internalError(c, "Failed to create milestone", err)
	}

	var row model.ConstructionMilestone
	return milestones.created(c, m.ID, &row)
}

// UpdateMilestone changes the supplied milestone fields
func UpdateMilestone(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation(milestones.name, "update")

	id, ok := pathID(c, "milestoneId")
	if !ok {
		return invalidID(c)
	}
	var req UpdateMilestoneRequest
	if msg, ok := decode(c, &req); !ok {
		return badRequest(c, msg)
	}

	var row model.ConstructionMilestone
	return milestones.applyUpdate(c, id, crud.Changes(&req), &row, log)
}
