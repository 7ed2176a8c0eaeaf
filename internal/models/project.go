package models

import (
	"time"

	"gorm.io/gorm"
)

// Editable project fields. Change requests may only target fields on this
// allow-list; everything else is rejected before touching the store.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldGifURL      = "gif_url"
	FieldRepoURL     = "repo_url"
	FieldIsPublic    = "is_public"
)

var editableFields = map[string]bool{
	FieldTitle:       true,
	FieldDescription: true,
	FieldGifURL:      true,
	FieldRepoURL:     true,
	FieldIsPublic:    true,
}

// IsEditableField reports whether the named field may be edited through the
// governance workflow.
func IsEditableField(name string) bool {
	return editableFields[name]
}

// Project represents a shared showcase project. Every project has exactly one
// owner (UserID); ownership never moves through membership or role changes.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	GifURL      string         `gorm:"size:500" json:"gif_url"`
	RepoURL     string         `gorm:"size:500" json:"repo_url"`
	IsPublic    bool           `gorm:"default:false" json:"is_public"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

// IsOwner reports whether the given user owns this project.
func (p *Project) IsOwner(userID uint) bool {
	return userID != 0 && p.UserID == userID
}

// FieldValue returns the current value of an editable field as a string, the
// form change requests snapshot it in. Unknown fields yield "".
func (p *Project) FieldValue(field string) string {
	switch field {
	case FieldTitle:
		return p.Title
	case FieldDescription:
		return p.Description
	case FieldGifURL:
		return p.GifURL
	case FieldRepoURL:
		return p.RepoURL
	case FieldIsPublic:
		if p.IsPublic {
			return "true"
		}
		return "false"
	}
	return ""
}
