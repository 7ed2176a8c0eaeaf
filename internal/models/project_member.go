package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectMember links one user to one project with exactly one role. A user
// has at most one membership row per project. The project owner does not need
// a row here: owner capabilities are implicit.
type ProjectMember struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ProjectID     uint           `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	Project       *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID        uint           `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User          *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProjectRoleID uint           `gorm:"not null" json:"project_role_id"`
	Role          *ProjectRole   `gorm:"foreignKey:ProjectRoleID" json:"role,omitempty"`
	InvitedBy     uint           `json:"invited_by"`
	Inviter       *User          `gorm:"foreignKey:InvitedBy" json:"inviter,omitempty"`
	JoinedAt      time.Time      `json:"joined_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProjectMember) TableName() string { return "project_members" }
