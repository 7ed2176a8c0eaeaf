package models

import (
	"fmt"

	"github.com/cospace/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Project{},
		&ProjectRole{},
		&ProjectMember{},
		&ProjectChangeRequest{},
		&ProjectAuditLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultRoles creates the three shipped roles if they do not exist.
// The editor role deliberately lacks approve_changes: editors can propose
// edits but cannot apply them without review.
func SeedDefaultRoles(db *gorm.DB) error {
	roles := []ProjectRole{
		{
			Name:        RoleAdmin,
			DisplayName: "Administrator",
			Description: "Full access to project management, member management, and change approval",
			Permissions: PermissionSet{
				PermViewProject,
				PermEditProject,
				PermDeleteProject,
				PermManageMembers,
				PermApproveChanges,
				PermViewAuditLogs,
			},
		},
		{
			Name:        RoleEditor,
			DisplayName: "Editor",
			Description: "Can edit project details but changes require approval",
			Permissions: PermissionSet{
				PermViewProject,
				PermEditProject,
				PermViewAuditLogs,
			},
		},
		{
			Name:        RoleViewer,
			DisplayName: "Viewer",
			Description: "Can only view the project",
			Permissions: PermissionSet{
				PermViewProject,
			},
		},
	}

	for _, role := range roles {
		var count int64
		db.Model(&ProjectRole{}).Where("name = ?", role.Name).Count(&count)
		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
