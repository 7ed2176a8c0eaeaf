package services

import (
	"github.com/cospace/backend/internal/models"
	"gorm.io/gorm"
)

// ProjectService owns project CRUD. Field edits on existing projects go
// through the governance branch in ChangeRequestService, so an update call
// can partially apply and partially queue.
type ProjectService struct {
	db             *gorm.DB
	access         *AccessService
	changeRequests *ChangeRequestService
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{
		db:             db,
		access:         NewAccessService(db),
		changeRequests: NewChangeRequestService(db),
	}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Title    string `form:"title"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	GifURL      string `json:"gif_url" binding:"omitempty,url"`
	RepoURL     string `json:"repo_url" binding:"omitempty,url"`
	IsPublic    bool   `json:"is_public"`
}

type UpdateProjectRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	GifURL      *string `json:"gif_url" binding:"omitempty,url"`
	RepoURL     *string `json:"repo_url" binding:"omitempty,url"`
	IsPublic    *bool   `json:"is_public"`
	Reason      string  `json:"reason" binding:"max=500"`
}

// UpdateProjectResponse reports, per field, whether the edit landed or was
// queued for approval.
type UpdateProjectResponse struct {
	Applied []string        `json:"applied"`
	Queued  []QueuedChange  `json:"queued"`
	Project *models.Project `json:"project"`
}

type QueuedChange struct {
	Field           string `json:"field"`
	ChangeRequestID uint   `json:"change_request_id"`
}

// List returns the projects visible to the actor: public ones, owned ones,
// and ones the actor is a member of. Anonymous callers see only public
// projects.
func (s *ProjectService) List(req *ProjectListRequest, actorID uint) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var projects []models.Project
	var total int64

	query := s.db.Model(&models.Project{})

	if actorID == 0 {
		query = query.Where("is_public = ?", true)
	} else {
		query = query.Where(
			"is_public = ? OR user_id = ? OR id IN (?)",
			true, actorID,
			s.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", actorID),
		)
	}

	if req.Title != "" {
		query = query.Where("title LIKE ?", "%"+req.Title+"%")
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("User").
		Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project by ID
func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("User").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Create creates a new project owned by the given user.
func (s *ProjectService) Create(req *CreateProjectRequest, userID uint, meta RequestMeta) (*models.Project, error) {
	project := models.Project{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		GifURL:      req.GifURL,
		RepoURL:     req.RepoURL,
		IsPublic:    req.IsPublic,
	}

	if err := s.db.Create(&project).Error; err != nil {
		return nil, err
	}

	RecordAudit(project.ID, userID, models.AuditActionCreated,
		nil,
		models.JSONMap{
			"title":     project.Title,
			"is_public": project.IsPublic,
		},
		"Project created",
		meta)

	return &project, nil
}

// Update routes each changed field through the governance branch: fields the
// actor may apply directly land at once, the rest become pending change
// requests. Requires edit capability up front.
func (s *ProjectService) Update(project *models.Project, req *UpdateProjectRequest, actorID uint, meta RequestMeta) (*UpdateProjectResponse, error) {
	if !s.access.CanEdit(project, actorID) {
		return nil, ErrForbidden
	}

	changes := map[string]string{}
	if req.Title != nil {
		changes[models.FieldTitle] = *req.Title
	}
	if req.Description != nil {
		changes[models.FieldDescription] = *req.Description
	}
	if req.GifURL != nil {
		changes[models.FieldGifURL] = *req.GifURL
	}
	if req.RepoURL != nil {
		changes[models.FieldRepoURL] = *req.RepoURL
	}
	if req.IsPublic != nil {
		if *req.IsPublic {
			changes[models.FieldIsPublic] = "true"
		} else {
			changes[models.FieldIsPublic] = "false"
		}
	}

	fields := []string{
		models.FieldTitle,
		models.FieldDescription,
		models.FieldGifURL,
		models.FieldRepoURL,
		models.FieldIsPublic,
	}

	// Validate the whole batch before submitting anything: a rejected field
	// must not leave earlier fields applied or queued.
	for _, field := range fields {
		value, ok := changes[field]
		if !ok || value == project.FieldValue(field) {
			continue
		}
		if err := s.changeRequests.ValidateField(project, actorID, field); err != nil {
			return nil, err
		}
	}

	resp := &UpdateProjectResponse{}
	for _, field := range fields {
		value, ok := changes[field]
		if !ok || value == project.FieldValue(field) {
			continue
		}

		result, err := s.changeRequests.Submit(project, actorID, &SubmitChangeRequest{
			FieldName: field,
			NewValue:  value,
			Reason:    req.Reason,
		}, meta)
		if err != nil {
			return nil, err
		}
		if result.Applied {
			resp.Applied = append(resp.Applied, field)
		} else {
			resp.Queued = append(resp.Queued, QueuedChange{
				Field:           field,
				ChangeRequestID: *result.ChangeRequestID,
			})
		}
	}

	fresh, err := s.GetByID(project.ID)
	if err != nil {
		return nil, err
	}
	resp.Project = fresh
	return resp, nil
}

// Delete removes a project with its memberships and change requests in one
// transaction. Audit entries are retained for compliance.
func (s *ProjectService) Delete(project *models.Project, actorID uint, meta RequestMeta) error {
	if !s.access.CanDelete(project, actorID) {
		return ErrForbidden
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectChangeRequest{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, project.ID).Error
	})
	if err != nil {
		return err
	}

	RecordAudit(project.ID, actorID, models.AuditActionDeleted,
		models.JSONMap{"title": project.Title},
		nil,
		"Project deleted",
		meta)

	return nil
}
