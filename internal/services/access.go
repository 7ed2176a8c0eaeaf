package services

import (
	"errors"

	"github.com/cospace/backend/internal/models"
	"gorm.io/gorm"
)

// AccessService answers yes/no capability questions about an (actor, project)
// pair. It only reads; every rule checks ownership first so that owner
// capabilities can never be revoked by membership or role mutation. An
// actorID of 0 means "unauthenticated": only the public-view rule can pass.
type AccessService struct {
	db *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// memberRole returns the actor's role on the project, or nil when the actor
// holds no membership row. Lookup failures fail closed.
func (s *AccessService) memberRole(projectID, userID uint) *models.ProjectRole {
	if userID == 0 {
		return nil
	}
	var member models.ProjectMember
	err := s.db.Preload("Role").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if err != nil {
		return nil
	}
	return member.Role
}

// HasMember reports whether the user holds a membership row on the project.
func (s *AccessService) HasMember(projectID, userID uint) bool {
	if userID == 0 {
		return false
	}
	var count int64
	s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count)
	return count > 0
}

// CanView: public project, owner, or any membership regardless of role.
func (s *AccessService) CanView(project *models.Project, userID uint) bool {
	if project.IsPublic {
		return true
	}
	if project.IsOwner(userID) {
		return true
	}
	return s.HasMember(project.ID, userID)
}

// CanEdit: owner or a role carrying edit_project. Passing this gate does not
// mean the edit applies immediately; see ChangeRequestService.Submit.
func (s *AccessService) CanEdit(project *models.Project, userID uint) bool {
	if project.IsOwner(userID) {
		return true
	}
	role := s.memberRole(project.ID, userID)
	return role != nil && role.CanEdit()
}

// CanDelete: owner, or a role carrying both manage_members and edit_project.
// Deliberately stricter than CanEdit alone.
func (s *AccessService) CanDelete(project *models.Project, userID uint) bool {
	if project.IsOwner(userID) {
		return true
	}
	role := s.memberRole(project.ID, userID)
	return role != nil && role.CanManageMembers() && role.CanEdit()
}

// CanManageMembers: owner or a role carrying manage_members. Also gates
// inviting and removing members.
func (s *AccessService) CanManageMembers(project *models.Project, userID uint) bool {
	if project.IsOwner(userID) {
		return true
	}
	role := s.memberRole(project.ID, userID)
	return role != nil && role.CanManageMembers()
}

// CanApproveChanges: owner or a role carrying approve_changes. This is also
// the bypass test for direct edits.
func (s *AccessService) CanApproveChanges(project *models.Project, userID uint) bool {
	if project.IsOwner(userID) {
		return true
	}
	role := s.memberRole(project.ID, userID)
	return role != nil && role.CanApproveChanges()
}

// CanViewAuditLogs: owner or a role carrying view_audit_logs.
func (s *AccessService) CanViewAuditLogs(project *models.Project, userID uint) bool {
	if project.IsOwner(userID) {
		return true
	}
	role := s.memberRole(project.ID, userID)
	return role != nil && role.HasPermission(models.PermViewAuditLogs)
}

// GetProject loads a project by ID.
func (s *AccessService) GetProject(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// IsNotFound reports whether err is a missing-record condition.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
