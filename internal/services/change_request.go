package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cospace/backend/internal/models"
	"gorm.io/gorm"
)

// ChangeRequestService runs the project-change governance workflow: a
// proposed field edit either applies immediately (actor can approve changes)
// or is queued as a pending change request for review.
type ChangeRequestService struct {
	db     *gorm.DB
	access *AccessService
}

func NewChangeRequestService(db *gorm.DB) *ChangeRequestService {
	return &ChangeRequestService{db: db, access: NewAccessService(db)}
}

type SubmitChangeRequest struct {
	FieldName string `json:"field_name" binding:"required"`
	NewValue  string `json:"new_value" binding:"required"`
	Reason    string `json:"reason" binding:"max=500"`
}

// SubmitChangeResult reports which path the submission took.
type SubmitChangeResult struct {
	Applied         bool  `json:"applied"`
	ChangeRequestID *uint `json:"change_request_id,omitempty"`
}

// ListByProject returns a project's change requests newest first.
func (s *ChangeRequestService) ListByProject(projectID uint) ([]models.ProjectChangeRequest, error) {
	var requests []models.ProjectChangeRequest
	err := s.db.Where("project_id = ?", projectID).
		Preload("Requester").
		Preload("Reviewer").
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// GetByID loads a change request with its project.
func (s *ChangeRequestService) GetByID(id uint) (*models.ProjectChangeRequest, error) {
	var request models.ProjectChangeRequest
	if err := s.db.Preload("Project").First(&request, id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// ValidateField checks the per-field submission rules without touching the
// store: the field must be on the allow-list, and visibility is owner-only.
// Callers batching several fields run this over the whole batch first so a
// rejection cannot leave earlier fields already submitted.
func (s *ChangeRequestService) ValidateField(project *models.Project, actorID uint, fieldName string) error {
	if !models.IsEditableField(fieldName) {
		return ErrInvalidField
	}
	if fieldName == models.FieldIsPublic && !project.IsOwner(actorID) {
		return ErrOwnerOnlyField
	}
	return nil
}

// Submit decides whether a proposed edit applies immediately or queues.
//
// The bypass test is approval capability, not edit capability: an editor may
// propose but the edit waits for review, while an owner or approver's edit
// lands at once. The visibility field is owner-only on both paths.
func (s *ChangeRequestService) Submit(project *models.Project, actorID uint, req *SubmitChangeRequest, meta RequestMeta) (*SubmitChangeResult, error) {
	if err := s.ValidateField(project, actorID, req.FieldName); err != nil {
		return nil, err
	}

	// Private projects accept proposals from members only; public projects
	// from any authenticated user.
	if !project.IsPublic && !s.access.CanView(project, actorID) {
		return nil, ErrForbidden
	}

	oldValue := project.FieldValue(req.FieldName)

	if s.access.CanApproveChanges(project, actorID) {
		if err := applyField(s.db, project, req.FieldName, req.NewValue); err != nil {
			return nil, err
		}

		notes := req.Reason
		if notes == "" {
			notes = "Direct edit by authorized user"
		}
		RecordAudit(project.ID, actorID, models.AuditActionUpdated,
			models.JSONMap{req.FieldName: oldValue},
			models.JSONMap{req.FieldName: req.NewValue},
			notes,
			meta)

		return &SubmitChangeResult{Applied: true}, nil
	}

	request := models.ProjectChangeRequest{
		ProjectID:   project.ID,
		RequestedBy: actorID,
		FieldName:   req.FieldName,
		OldValue:    oldValue,
		NewValue:    req.NewValue,
		Reason:      req.Reason,
		Status:      models.ChangeStatusPending,
	}
	if err := s.db.Create(&request).Error; err != nil {
		return nil, err
	}

	RecordAudit(project.ID, actorID, models.AuditActionChangeRequested,
		nil,
		models.JSONMap{
			"change_request_id": request.ID,
			"field":             request.FieldName,
			"new_value":         request.NewValue,
		},
		req.Reason,
		meta)

	return &SubmitChangeResult{Applied: false, ChangeRequestID: &request.ID}, nil
}

// Approve applies a pending change request. The pending→approved flip is an
// atomic conditional update so two racing reviewers cannot both win.
func (s *ChangeRequestService) Approve(requestID, actorID uint, notes string, meta RequestMeta) error {
	request, err := s.GetByID(requestID)
	if err != nil {
		return err
	}
	project := request.Project
	if project == nil {
		return gorm.ErrRecordNotFound
	}

	if !s.access.CanApproveChanges(project, actorID) {
		return ErrForbidden
	}

	// The status flip and the field write commit together: a failed apply
	// must not leave a request marked approved whose value never landed.
	now := time.Now()
	oldValue := project.FieldValue(request.FieldName)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProjectChangeRequest{}).
			Where("id = ? AND status = ?", request.ID, models.ChangeStatusPending).
			Updates(map[string]interface{}{
				"status":       models.ChangeStatusApproved,
				"reviewed_by":  actorID,
				"reviewed_at":  now,
				"review_notes": notes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyReviewed
		}
		return applyField(tx, project, request.FieldName, request.NewValue)
	})
	if err != nil {
		return err
	}

	RecordAudit(project.ID, actorID, models.AuditActionChangeApproved,
		models.JSONMap{request.FieldName: oldValue},
		models.JSONMap{request.FieldName: request.NewValue},
		fmt.Sprintf("Approved change request #%d: %s", request.ID, notes),
		meta)

	return nil
}

// Reject closes a pending change request without touching the project.
func (s *ChangeRequestService) Reject(requestID, actorID uint, notes string, meta RequestMeta) error {
	request, err := s.GetByID(requestID)
	if err != nil {
		return err
	}
	project := request.Project
	if project == nil {
		return gorm.ErrRecordNotFound
	}

	if !s.access.CanApproveChanges(project, actorID) {
		return ErrForbidden
	}

	now := time.Now()
	result := s.db.Model(&models.ProjectChangeRequest{}).
		Where("id = ? AND status = ?", request.ID, models.ChangeStatusPending).
		Updates(map[string]interface{}{
			"status":       models.ChangeStatusRejected,
			"reviewed_by":  actorID,
			"reviewed_at":  now,
			"review_notes": notes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyReviewed
	}

	RecordAudit(project.ID, actorID, models.AuditActionChangeRejected,
		nil,
		models.JSONMap{"change_request_id": request.ID},
		fmt.Sprintf("Rejected change request #%d: %s", request.ID, notes),
		meta)

	return nil
}

// applyField writes one allow-listed field to the project row. Field names
// match column names; is_public is parsed to a bool first.
func applyField(db *gorm.DB, project *models.Project, field, value string) error {
	var v interface{} = value
	if field == models.FieldIsPublic {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid visibility value %q: %w", value, err)
		}
		v = b
	}
	return db.Model(project).Update(field, v).Error
}
