package handlers

import (
	"strconv"

	"github.com/cospace/backend/internal/middleware"
	"github.com/cospace/backend/internal/services"
	"github.com/cospace/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// AuditLogHandler exposes the per-project audit trail
type AuditLogHandler struct {
	projectService  *services.ProjectService
	accessService   *services.AccessService
	auditLogService *services.AuditLogService
}

func NewAuditLogHandler(
	projectService *services.ProjectService,
	accessService *services.AccessService,
	auditLogService *services.AuditLogService,
) *AuditLogHandler {
	return &AuditLogHandler{
		projectService:  projectService,
		accessService:   accessService,
		auditLogService: auditLogService,
	}
}

// List handles GET /api/projects/:id/audit-logs. Requires the dedicated
// audit-viewing capability, not just view access.
func (h *AuditLogHandler) List(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	project, err := h.projectService.GetByID(uint(id))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	actorID := middleware.GetUserID(c)
	if !h.accessService.CanView(project, actorID) {
		response.NotFound(c, "resource not found")
		return
	}
	if !h.accessService.CanViewAuditLogs(project, actorID) {
		response.Forbidden(c, "you do not have permission to view audit logs")
		return
	}

	var req services.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.auditLogService.ListByProject(project.ID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, result)
}
