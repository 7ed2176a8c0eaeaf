package handlers

import (
	"errors"

	"github.com/cospace/backend/internal/services"
	"github.com/cospace/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// handleServiceError maps service-layer sentinel errors onto HTTP responses.
// Anything unmapped becomes a 500.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c, "resource not found")
	case errors.Is(err, services.ErrForbidden):
		response.Forbidden(c, "you do not have permission to perform this action")
	case errors.Is(err, services.ErrOwnerOnlyField):
		response.Forbidden(c, "only the project owner can change visibility")
	case errors.Is(err, services.ErrAlreadyReviewed):
		response.Conflict(c, "change request has already been reviewed")
	case errors.Is(err, services.ErrAlreadyMember):
		response.BadRequest(c, "user is already a member of this project")
	case errors.Is(err, services.ErrCannotRemoveOwner):
		response.BadRequest(c, "the project owner cannot be removed")
	case errors.Is(err, services.ErrInvalidField):
		response.BadRequest(c, "field cannot be changed through this workflow")
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Unauthorized(c, "invalid username or password")
	case errors.Is(err, services.ErrUserDisabled):
		response.Forbidden(c, "account is disabled")
	case errors.Is(err, services.ErrUserExists):
		response.BadRequest(c, "username or email already taken")
	default:
		response.ServerError(c, err.Error())
	}
}

// requestMeta captures caller provenance for audit entries.
func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
