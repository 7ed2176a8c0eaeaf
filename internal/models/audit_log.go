package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Audit action tags. The column is an open string enum: new tags can appear
// without a migration.
const (
	AuditActionCreated           = "created"
	AuditActionUpdated           = "updated"
	AuditActionDeleted           = "deleted"
	AuditActionMemberAdded       = "member_added"
	AuditActionMemberRemoved     = "member_removed"
	AuditActionMemberRoleUpdated = "member_role_updated"
	AuditActionChangeRequested   = "change_requested"
	AuditActionChangeApproved    = "change_approved"
	AuditActionChangeRejected    = "change_rejected"
)

// JSONMap stores a free-form key/value snapshot as JSON text.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}
}

// ProjectAuditLog is an append-only record of a governed mutation. Entries
// are never updated or deleted by the application, and they deliberately
// carry no foreign-key cascade: they outlive the project they describe unless
// retention pruning is configured.
type ProjectAuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action    string    `gorm:"size:50;index;not null" json:"action"`
	OldValues JSONMap   `gorm:"type:text" json:"old_values"`
	NewValues JSONMap   `gorm:"type:text" json:"new_values"`
	Notes     string    `gorm:"size:500" json:"notes"`
	IPAddress string    `gorm:"size:50" json:"ip_address"`
	UserAgent string    `gorm:"size:500" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ProjectAuditLog) TableName() string { return "project_audit_logs" }
