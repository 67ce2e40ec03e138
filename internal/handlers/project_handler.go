package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/services"
	"github.com/campus-gigs/marketplace-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProjectHandler struct {
	BaseHandler
	projectService services.ProjectService
	exportService  services.ExportService
}

func NewProjectHandler(projectService services.ProjectService, exportService services.ExportService, logger utils.Logger) *ProjectHandler {
	return &ProjectHandler{
		BaseHandler:    NewBaseHandler(logger),
		projectService: projectService,
		exportService:  exportService,
	}
}

// ===== CORE CRUD ENDPOINTS =====

// CreateProject publishes a new project
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Param request body services.CreateProjectRequest true "Project data"
// @Success 201 {object} services.ProjectResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Students cannot publish projects"
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.CreateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating project", "title", req.Title)

	response, err := h.projectService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetProject retrieves a project by ID
// @Summary Get a project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} services.ProjectResponse
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	response, err := h.projectService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListProjects lists projects with filters
// @Summary List projects
// @Tags projects
// @Produce json
// @Param status query string false "Status"
// @Param owner_id query string false "Owner"
// @Param assigned_to query string false "Assigned freelancer"
// @Param skill query string false "Skill"
// @Param sort_by query string false "created_at, deadline or budget"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} services.ProjectListResponse
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.ProjectFilters{
		OwnerID:    h.parseStringQueryPtr(c, "owner_id"),
		AssignedTo: h.parseStringQueryPtr(c, "assigned_to"),
		Skill:      h.parseStringQueryPtr(c, "skill"),
		SortBy:     c.DefaultQuery("sort_by", "created_at"),
		SortOrder:  c.DefaultQuery("sort_order", "desc"),
		Limit:      limit,
		Offset:     offset,
	}
	if status := c.Query("status"); status != "" {
		s := models.ProjectStatus(status)
		if !s.IsValid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid status filter",
				Details: status,
			})
			return
		}
		filters.Status = &s
	}

	response, err := h.projectService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateProject edits an open project
// @Summary Update a project
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body services.UpdateProjectRequest true "Fields to change"
// @Success 200 {object} services.ProjectResponse
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Router /projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.UpdateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating project", "project_id", id)

	response, err := h.projectService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteProject removes a project
// @Summary Delete a project
// @Tags projects
// @Param id path string true "Project ID"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting project", "project_id", id)

	if err := h.projectService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== LIFECYCLE ENDPOINTS =====

// ChangeStatus moves a project to another status
// @Summary Change project status
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body services.ChangeStatusRequest true "Target status"
// @Success 200 {object} services.ProjectResponse
// @Failure 400 {object} ErrorResponse "Transition not allowed"
// @Router /projects/{id}/status [put]
func (h *ProjectHandler) ChangeStatus(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.ChangeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Changing project status", "project_id", id, "status", req.Status)

	response, err := h.projectService.ChangeStatus(c.Request.Context(), id, req.Status, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateProgress reports the assignee's completion percentage
// @Summary Update project progress
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body services.ProgressRequest true "Progress 0-100"
// @Success 200 {object} services.ProjectResponse
// @Failure 422 {object} ErrorResponse "Project not in progress"
// @Router /projects/{id}/progress [put]
func (h *ProjectHandler) UpdateProgress(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	id := h.parseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.ProgressRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Progress == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: "progress is required",
		})
		return
	}

	response, err := h.projectService.UpdateProgress(c.Request.Context(), id, *req.Progress, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ===== EXPORT =====

// ExportProjects downloads the caller's projects as a spreadsheet
// @Summary Export own projects
// @Tags projects
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /projects/export [get]
func (h *ProjectHandler) ExportProjects(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting projects")

	data, err := h.exportService.ExportProjects(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("projects-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
