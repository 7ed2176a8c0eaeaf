package models

import (
	"time"

	"gorm.io/gorm"
)

// Change request statuses. pending is the only non-terminal state; approved
// and rejected are final.
const (
	ChangeStatusPending  = "pending"
	ChangeStatusApproved = "approved"
	ChangeStatusRejected = "rejected"
)

// ProjectChangeRequest is a proposed edit to a single project field, queued
// until someone with approval capability reviews it.
type ProjectChangeRequest struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   uint           `gorm:"index;not null" json:"project_id"`
	Project     *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	RequestedBy uint           `gorm:"not null" json:"requested_by"`
	Requester   *User          `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	FieldName   string         `gorm:"size:50;not null" json:"field_name"`
	OldValue    string         `gorm:"type:text" json:"old_value"`
	NewValue    string         `gorm:"type:text" json:"new_value"`
	Reason      string         `gorm:"size:500" json:"reason"`
	Status      string         `gorm:"size:20;default:pending;index" json:"status"`
	ReviewedBy  *uint          `json:"reviewed_by"`
	Reviewer    *User          `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt  *time.Time     `json:"reviewed_at"`
	ReviewNotes string         `gorm:"size:500" json:"review_notes"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProjectChangeRequest) TableName() string { return "project_change_requests" }

func (r *ProjectChangeRequest) IsPending() bool  { return r.Status == ChangeStatusPending }
func (r *ProjectChangeRequest) IsApproved() bool { return r.Status == ChangeStatusApproved }
func (r *ProjectChangeRequest) IsRejected() bool { return r.Status == ChangeStatusRejected }
