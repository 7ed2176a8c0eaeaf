package main

import (
	"os"

	"github.com/cospace/backend/internal/config"
	"github.com/cospace/backend/internal/handlers"
	"github.com/cospace/backend/internal/models"
	"github.com/cospace/backend/internal/services"
	"github.com/cospace/backend/internal/utils"
	"github.com/cospace/backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	auditWorker      *services.AuditWorker
	retentionCron    *cron.Cron
	authHandler      *handlers.AuthHandler
	projectHandler   *handlers.ProjectHandler
	memberHandler    *handlers.ProjectMemberHandler
	changeHandler    *handlers.ChangeRequestHandler
	auditLogHandler  *handlers.AuditLogHandler
	roleHandler      *handlers.RoleHandler
}

// bootstrap initializes all application dependencies: database, audit
// pipeline, schedulers, handlers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed the role catalogue
	if err := models.SeedDefaultRoles(models.GetDB()); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default roles")
	}

	db := models.GetDB()

	// Initialize audit queue (uses Redis if enabled, otherwise direct writes)
	services.InitAuditQueue(cfg, db)

	// Start async audit worker if Redis is enabled
	var auditWorker *services.AuditWorker
	if cfg.Redis.Enabled {
		auditWorker = services.NewAuditWorker(&cfg.Redis, db)
		if auditWorker != nil {
			auditWorker.Start()
		}
	}

	// Start audit retention scheduler
	retentionCron := services.StartAuditRetentionScheduler(db, cfg.Audit.RetentionDays)

	// Create default admin user
	authService := services.NewAuthService(db, &cfg.JWT)
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}
	if err := authService.CreateAdminIfNotExists("admin", adminPassword, "admin@cospace.local"); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	projectService := services.NewProjectService(db)
	accessService := services.NewAccessService(db)
	membershipService := services.NewMembershipService(db)
	roleService := services.NewRoleService(db)
	changeRequestService := services.NewChangeRequestService(db)
	auditLogService := services.NewAuditLogService(db)

	return &appServices{
		auditWorker:     auditWorker,
		retentionCron:   retentionCron,
		authHandler:     handlers.NewAuthHandler(authService),
		projectHandler:  handlers.NewProjectHandler(projectService, accessService),
		memberHandler:   handlers.NewProjectMemberHandler(projectService, accessService, membershipService, roleService, authService),
		changeHandler:   handlers.NewChangeRequestHandler(projectService, accessService, changeRequestService),
		auditLogHandler: handlers.NewAuditLogHandler(projectService, accessService, auditLogService),
		roleHandler:     handlers.NewRoleHandler(roleService),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.retentionCron != nil {
		s.retentionCron.Stop()
	}
	if s.auditWorker != nil {
		s.auditWorker.Stop()
	}
	if q := services.GetAuditQueue(); q != nil {
		q.Close()
	}
	logger.Info().Msg("All services stopped")
}
