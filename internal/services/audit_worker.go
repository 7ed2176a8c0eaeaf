package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cospace/backend/internal/config"
	"github.com/cospace/backend/pkg/logger"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// AuditWorker drains the Redis-backed audit queue into the database.
type AuditWorker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	db      *gorm.DB
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewAuditWorker creates a worker instance. Returns nil when Redis is
// disabled (entries are then written directly, no worker needed).
func NewAuditWorker(cfg *config.RedisConfig, db *gorm.DB) *AuditWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"audit": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warnf("[AuditWorker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &AuditWorker{
		server: server,
		mux:    asynq.NewServeMux(),
		db:     db,
	}
}

// Start begins draining the audit queue.
func (w *AuditWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeAuditRecord, w.handleAuditTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[AuditWorker] Starting audit worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[AuditWorker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *AuditWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[AuditWorker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[AuditWorker] Shutdown complete")
}

func (w *AuditWorker) handleAuditTask(ctx context.Context, t *asynq.Task) error {
	var task AuditTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Warnf("[AuditWorker] Failed to unmarshal task: %v", err)
		return err
	}

	return writeAuditEntry(w.db, &task)
}
