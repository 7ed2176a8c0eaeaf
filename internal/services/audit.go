package services

import (
	"time"

	"github.com/cospace/backend/internal/models"
	"github.com/cospace/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// RequestMeta is the caller provenance attached to every audit entry,
// captured from the ambient HTTP request at call time.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// RecordAudit hands one audit entry to the global audit queue. Called after
// the mutation it describes has committed; a queue failure is logged
// operationally and never rolls back or fails the business outcome.
func RecordAudit(projectID, userID uint, action string, oldValues, newValues models.JSONMap, notes string, meta RequestMeta) {
	q := GetAuditQueue()
	if q == nil {
		return
	}

	task := &AuditTask{
		ProjectID:  projectID,
		UserID:     userID,
		Action:     action,
		OldValues:  oldValues,
		NewValues:  newValues,
		Notes:      notes,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		RecordedAt: time.Now(),
	}

	if err := q.Enqueue(task); err != nil {
		logger.Warnf("[Audit] failed to record %s entry for project %d: %v", action, projectID, err)
	}
}

// AuditLogService lists audit entries. There is deliberately no update or
// delete surface here: entries are write-once.
type AuditLogService struct {
	db *gorm.DB
}

func NewAuditLogService(db *gorm.DB) *AuditLogService {
	return &AuditLogService{db: db}
}

type AuditLogListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Action   string `form:"action"`
	UserID   *uint  `form:"user_id"`
}

type AuditLogListResponse struct {
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
	Items    []models.ProjectAuditLog `json:"items"`
}

// ListByProject returns a project's audit entries newest first, optionally
// filtered by action tag or acting user.
func (s *AuditLogService) ListByProject(projectID uint, req *AuditLogListRequest) (*AuditLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var entries []models.ProjectAuditLog
	var total int64

	query := s.db.Model(&models.ProjectAuditLog{}).Where("project_id = ?", projectID)

	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}
	if req.UserID != nil {
		query = query.Where("user_id = ?", *req.UserID)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("User").
		Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return &AuditLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    entries,
	}, nil
}

// CleanupOldEntries deletes audit entries older than retentionDays and
// returns the number removed. Retention is the only path that ever removes
// audit rows; 0 disables it.
func (s *AuditLogService) CleanupOldEntries(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.ProjectAuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// StartAuditRetentionScheduler runs retention cleanup once a day. Returns nil
// when retention is disabled.
func StartAuditRetentionScheduler(db *gorm.DB, retentionDays int) *cron.Cron {
	if retentionDays <= 0 {
		logger.Infof("[Audit] retention disabled, entries are kept forever")
		return nil
	}

	service := NewAuditLogService(db)
	c := cron.New()
	c.AddFunc("@daily", func() {
		deleted, err := service.CleanupOldEntries(retentionDays)
		if err != nil {
			logger.Errorf("[Audit] retention cleanup failed: %v", err)
			return
		}
		if deleted > 0 {
			logger.Infof("[Audit] removed %d entries older than %d days", deleted, retentionDays)
		}
	})
	c.Start()
	return c
}
