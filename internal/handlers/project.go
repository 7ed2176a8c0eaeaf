package handlers

import (
	"strconv"

	"github.com/cospace/backend/internal/middleware"
	"github.com/cospace/backend/internal/models"
	"github.com/cospace/backend/internal/services"
	"github.com/cospace/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// ProjectHandler handles project CRUD endpoints
type ProjectHandler struct {
	projectService *services.ProjectService
	accessService  *services.AccessService
}

func NewProjectHandler(projectService *services.ProjectService, accessService *services.AccessService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		accessService:  accessService,
	}
}

// loadProject resolves the :id path parameter and enforces view access for
// the current user. Private projects are reported as not found to
// non-members, not as forbidden.
func (h *ProjectHandler) loadProject(c *gin.Context) (*models.Project, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return nil, false
	}

	project, err := h.projectService.GetByID(uint(id))
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}

	if !h.accessService.CanView(project, middleware.GetUserID(c)) {
		response.NotFound(c, "resource not found")
		return nil, false
	}

	return project, true
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.projectService.List(&req, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}
	response.Success(c, project)
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, middleware.GetUserID(c), requestMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, project)
}

// Update handles PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.projectService.Update(project, &req, middleware.GetUserID(c), requestMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// Delete handles DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(project, middleware.GetUserID(c), requestMeta(c)); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
