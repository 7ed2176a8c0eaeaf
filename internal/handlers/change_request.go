package handlers

import (
	"errors"
	"io"
	"strconv"

	"github.com/cospace/backend/internal/middleware"
	"github.com/cospace/backend/internal/models"
	"github.com/cospace/backend/internal/services"
	"github.com/cospace/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// ChangeRequestHandler handles the change-request workflow endpoints
type ChangeRequestHandler struct {
	projectService       *services.ProjectService
	accessService        *services.AccessService
	changeRequestService *services.ChangeRequestService
}

func NewChangeRequestHandler(
	projectService *services.ProjectService,
	accessService *services.AccessService,
	changeRequestService *services.ChangeRequestService,
) *ChangeRequestHandler {
	return &ChangeRequestHandler{
		projectService:       projectService,
		accessService:        accessService,
		changeRequestService: changeRequestService,
	}
}

type reviewRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

// bindReview parses the optional review body. Notes are optional, so a
// bodyless request binds to empty notes instead of failing.
func bindReview(c *gin.Context, req *reviewRequest) error {
	err := c.ShouldBindJSON(req)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *ChangeRequestHandler) loadProject(c *gin.Context) (*models.Project, bool) {
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

// List handles GET /api/projects/:id/change-requests
func (h *ChangeRequestHandler) List(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	requests, err := h.changeRequestService.ListByProject(project.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, requests)
}

// Submit handles POST /api/projects/:id/change-requests. Depending on the
// caller's capabilities the edit either applies immediately or queues for
// review; the response's applied flag tells which.
func (h *ChangeRequestHandler) Submit(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	var req services.SubmitChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.changeRequestService.Submit(project, middleware.GetUserID(c), &req, requestMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if result.Applied {
		response.Success(c, result)
		return
	}
	response.Created(c, result)
}

// Approve handles POST /api/change-requests/:requestID/approve
func (h *ChangeRequestHandler) Approve(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("requestID"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid change request id")
		return
	}

	var req reviewRequest
	if err := bindReview(c, &req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err = h.changeRequestService.Approve(uint(requestID), middleware.GetUserID(c), req.Notes, requestMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"status": "approved"})
}

// Reject handles POST /api/change-requests/:requestID/reject
func (h *ChangeRequestHandler) Reject(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("requestID"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid change request id")
		return
	}

	var req reviewRequest
	if err := bindReview(c, &req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err = h.changeRequestService.Reject(uint(requestID), middleware.GetUserID(c), req.Notes, requestMeta(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, gin.H{"status": "rejected"})
}
