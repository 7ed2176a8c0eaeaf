package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/cospace/backend/internal/models"
	"gorm.io/gorm"
)

// MembershipService maintains the user↔project membership rows and the
// audit entries their mutations produce. Capability checks live in
// AccessService; handlers gate before calling the mutating operations here.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// List returns all members of a project with user, role and inviter loaded.
func (s *MembershipService) List(projectID uint) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := s.db.Where("project_id = ?", projectID).
		Preload("User").
		Preload("Role").
		Preload("Inviter").
		Find(&members).Error
	return members, err
}

// GetRole returns the user's role on the project, or nil when the user holds
// no membership row. Callers must check ownership separately before
// concluding "no access".
func (s *MembershipService) GetRole(projectID, userID uint) (*models.ProjectRole, error) {
	var member models.ProjectMember
	err := s.db.Preload("Role").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return member.Role, nil
}

// HasMember reports whether the user holds a membership row on the project.
func (s *MembershipService) HasMember(projectID, userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// AddMember invites a user to the project with the given role. Re-inviting
// an existing member is rejected, not merged.
func (s *MembershipService) AddMember(project *models.Project, user *models.User, role *models.ProjectRole, invitedBy uint, meta RequestMeta) (*models.ProjectMember, error) {
	exists, err := s.HasMember(project.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyMember
	}

	member := models.ProjectMember{
		ProjectID:     project.ID,
		UserID:        user.ID,
		ProjectRoleID: role.ID,
		InvitedBy:     invitedBy,
		JoinedAt:      time.Now(),
	}

	if err := s.db.Create(&member).Error; err != nil {
		return nil, err
	}

	RecordAudit(project.ID, invitedBy, models.AuditActionMemberAdded,
		nil,
		models.JSONMap{"member_id": member.ID, "role": role.Name},
		fmt.Sprintf("Invited %s as %s", user.Username, role.DisplayName),
		meta)

	s.db.Preload("User").Preload("Role").First(&member, member.ID)
	return &member, nil
}

// RemoveMember deletes a membership row. Removing the project owner is
// always refused, regardless of the actor's permissions.
func (s *MembershipService) RemoveMember(project *models.Project, memberID, actorID uint, meta RequestMeta) error {
	var member models.ProjectMember
	if err := s.db.Preload("User").
		Where("project_id = ?", project.ID).
		First(&member, memberID).Error; err != nil {
		return err
	}

	if project.IsOwner(member.UserID) {
		return ErrCannotRemoveOwner
	}

	memberName := ""
	if member.User != nil {
		memberName = member.User.Username
	}

	if err := s.db.Delete(&member).Error; err != nil {
		return err
	}

	RecordAudit(project.ID, actorID, models.AuditActionMemberRemoved,
		models.JSONMap{"member_id": member.ID},
		nil,
		fmt.Sprintf("Removed %s from project", memberName),
		meta)

	return nil
}

// ChangeMemberRole swaps a member's role and records the old/new role names.
func (s *MembershipService) ChangeMemberRole(project *models.Project, memberID uint, newRole *models.ProjectRole, actorID uint, meta RequestMeta) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := s.db.Preload("User").Preload("Role").
		Where("project_id = ?", project.ID).
		First(&member, memberID).Error; err != nil {
		return nil, err
	}

	oldRole := member.Role

	if err := s.db.Model(&member).Update("project_role_id", newRole.ID).Error; err != nil {
		return nil, err
	}

	oldName, oldDisplay := "", ""
	if oldRole != nil {
		oldName, oldDisplay = oldRole.Name, oldRole.DisplayName
	}
	memberName := ""
	if member.User != nil {
		memberName = member.User.Username
	}

	RecordAudit(project.ID, actorID, models.AuditActionMemberRoleUpdated,
		models.JSONMap{"role": oldName},
		models.JSONMap{"role": newRole.Name},
		fmt.Sprintf("Changed %s's role from %s to %s", memberName, oldDisplay, newRole.DisplayName),
		meta)

	s.db.Preload("User").Preload("Role").First(&member, member.ID)
	return &member, nil
}

// RoleService exposes the role catalogue.
type RoleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

func (s *RoleService) List() ([]models.ProjectRole, error) {
	var roles []models.ProjectRole
	err := s.db.Order("id").Find(&roles).Error
	return roles, err
}

func (s *RoleService) GetByID(id uint) (*models.ProjectRole, error) {
	var role models.ProjectRole
	if err := s.db.First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *RoleService) GetByName(name string) (*models.ProjectRole, error) {
	var role models.ProjectRole
	if err := s.db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
