package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cospace/backend/internal/config"
	"github.com/cospace/backend/internal/models"
	"github.com/cospace/backend/pkg/logger"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const (
	TaskTypeAuditRecord = "audit:record"
)

// AuditTask is one audit entry in flight between the business mutation that
// produced it and the durable store.
type AuditTask struct {
	ProjectID  uint           `json:"project_id"`
	UserID     uint           `json:"user_id"`
	Action     string         `json:"action"`
	OldValues  models.JSONMap `json:"old_values,omitempty"`
	NewValues  models.JSONMap `json:"new_values,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// AuditQueue carries audit entries out of the request path. The business
// mutation has already committed by the time Enqueue is called; a failure
// here is logged, never propagated.
type AuditQueue interface {
	// Enqueue hands an audit entry to the queue.
	Enqueue(task *AuditTask) error
	// IsAsync returns true if entries are written asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global audit queue instance
var (
	globalAuditQueue AuditQueue
	auditQueueOnce   sync.Once
)

// InitAuditQueue initializes the global audit queue based on config
func InitAuditQueue(cfg *config.Config, db *gorm.DB) AuditQueue {
	auditQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncAuditQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[AuditQueue] Redis unavailable, falling back to direct writes: %v", err)
				globalAuditQueue = NewDirectAuditQueue(db)
			} else {
				logger.Infof("[AuditQueue] Async audit queue initialized with Redis at %s", cfg.Redis.Addr)
				globalAuditQueue = queue
			}
		} else {
			logger.Infof("[AuditQueue] Direct audit writes enabled (Redis disabled)")
			globalAuditQueue = NewDirectAuditQueue(db)
		}
	})
	return globalAuditQueue
}

// GetAuditQueue returns the global audit queue instance
func GetAuditQueue() AuditQueue {
	return globalAuditQueue
}

// setAuditQueue swaps the global queue. Used by bootstrap and tests.
func setAuditQueue(q AuditQueue) {
	globalAuditQueue = q
}

// writeAuditEntry persists a single task as an append-only row.
func writeAuditEntry(db *gorm.DB, task *AuditTask) error {
	entry := models.ProjectAuditLog{
		ProjectID: task.ProjectID,
		UserID:    task.UserID,
		Action:    task.Action,
		OldValues: task.OldValues,
		NewValues: task.NewValues,
		Notes:     task.Notes,
		IPAddress: task.IPAddress,
		UserAgent: task.UserAgent,
		CreatedAt: task.RecordedAt,
	}
	return db.Create(&entry).Error
}

// AsyncAuditQueue implements AuditQueue using asynq (Redis-based)
type AsyncAuditQueue struct {
	client *asynq.Client
}

// NewAsyncAuditQueue creates a new Redis-based audit queue
func NewAsyncAuditQueue(cfg *config.RedisConfig) (*AsyncAuditQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before trusting it with audit traffic
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncAuditQueue{client: client}, nil
}

func (q *AsyncAuditQueue) Enqueue(task *AuditTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeAuditRecord, payload)
	_, err = q.client.Enqueue(t,
		asynq.Queue("audit"),
		asynq.MaxRetry(3),
	)
	return err
}

func (q *AsyncAuditQueue) IsAsync() bool {
	return true
}

func (q *AsyncAuditQueue) Close() error {
	return q.client.Close()
}

// DirectAuditQueue writes entries inline, immediately after the business
// mutation commits. No Redis required.
type DirectAuditQueue struct {
	db *gorm.DB
}

func NewDirectAuditQueue(db *gorm.DB) *DirectAuditQueue {
	return &DirectAuditQueue{db: db}
}

func (q *DirectAuditQueue) Enqueue(task *AuditTask) error {
	return writeAuditEntry(q.db, task)
}

func (q *DirectAuditQueue) IsAsync() bool {
	return false
}

func (q *DirectAuditQueue) Close() error {
	return nil
}
