package handlers

import (
	"strconv"

	"github.com/cospace/backend/internal/middleware"
	"github.com/cospace/backend/internal/models"
	"github.com/cospace/backend/internal/services"
	"github.com/cospace/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// ProjectMemberHandler handles membership endpoints nested under a project
type ProjectMemberHandler struct {
	projectService    *services.ProjectService
	accessService     *services.AccessService
	membershipService *services.MembershipService
	roleService       *services.RoleService
	authService       *services.AuthService
}

func NewProjectMemberHandler(
	projectService *services.ProjectService,
	accessService *services.AccessService,
	membershipService *services.MembershipService,
	roleService *services.RoleService,
	authService *services.AuthService,
) *ProjectMemberHandler {
	return &ProjectMemberHandler{
		projectService:    projectService,
		accessService:     accessService,
		membershipService: membershipService,
		roleService:       roleService,
		authService:       authService,
	}
}

func (h *ProjectMemberHandler) loadProject(c *gin.Context) (*models.Project, bool) {
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

type addMemberRequest struct {
	Email  string `json:"email" binding:"required,email"`
	RoleID uint   `json:"role_id" binding:"required"`
}

type changeRoleRequest struct {
	RoleID uint `json:"role_id" binding:"required"`
}

// List handles GET /api/projects/:id/members
func (h *ProjectMemberHandler) List(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	members, err := h.membershipService.List(project.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, members)
}

// Add handles POST /api/projects/:id/members. Members are invited by email.
func (h *ProjectMemberHandler) Add(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	actorID := middleware.GetUserID(c)
	if !h.accessService.CanManageMembers(project, actorID) {
		response.Forbidden(c, "you do not have permission to manage members")
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.GetUserByEmail(req.Email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	role, err := h.roleService.GetByID(req.RoleID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	member, err := h.membershipService.AddMember(project, user, role, actorID, requestMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, member)
}

// Remove handles DELETE /api/projects/:id/members/:memberID
func (h *ProjectMemberHandler) Remove(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	actorID := middleware.GetUserID(c)
	if !h.accessService.CanManageMembers(project, actorID) {
		response.Forbidden(c, "you do not have permission to manage members")
		return
	}

	memberID, err := strconv.ParseUint(c.Param("memberID"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}

	if err := h.membershipService.RemoveMember(project, uint(memberID), actorID, requestMeta(c)); err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"removed": true})
}

// ChangeRole handles PUT /api/projects/:id/members/:memberID
func (h *ProjectMemberHandler) ChangeRole(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	actorID := middleware.GetUserID(c)
	if !h.accessService.CanManageMembers(project, actorID) {
		response.Forbidden(c, "you do not have permission to manage members")
		return
	}

	memberID, err := strconv.ParseUint(c.Param("memberID"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}

	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role, err := h.roleService.GetByID(req.RoleID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	member, err := h.membershipService.ChangeMemberRole(project, uint(memberID), role, actorID, requestMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, member)
}
