package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Permission tokens a role can carry. The set is closed: a token not listed
// here simply never matches, it is not an error.
const (
	PermViewProject    = "view_project"
	PermEditProject    = "edit_project"
	PermDeleteProject  = "delete_project"
	PermManageMembers  = "manage_members"
	PermApproveChanges = "approve_changes"
	PermViewAuditLogs  = "view_audit_logs"
)

// Seeded role names.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// PermissionSet is a list of permission tokens stored as a JSON array in a
// text column.
type PermissionSet []string

func (p PermissionSet) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *PermissionSet) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into PermissionSet", value)
	}
}

// Contains is an exact string membership test. No hierarchy, no wildcards.
func (p PermissionSet) Contains(token string) bool {
	for _, t := range p {
		if t == token {
			return true
		}
	}
	return false
}

// ProjectRole is a named permission set assigned to project members.
type ProjectRole struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"uniqueIndex;size:100;not null" json:"name"`
	DisplayName string        `gorm:"size:100" json:"display_name"`
	Description string        `gorm:"size:255" json:"description"`
	Permissions PermissionSet `gorm:"type:text" json:"permissions"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (ProjectRole) TableName() string { return "project_roles" }

func (r *ProjectRole) HasPermission(token string) bool {
	return r.Permissions.Contains(token)
}

func (r *ProjectRole) CanEdit() bool           { return r.HasPermission(PermEditProject) }
func (r *ProjectRole) CanDelete() bool         { return r.HasPermission(PermDeleteProject) }
func (r *ProjectRole) CanManageMembers() bool  { return r.HasPermission(PermManageMembers) }
func (r *ProjectRole) CanApproveChanges() bool { return r.HasPermission(PermApproveChanges) }
