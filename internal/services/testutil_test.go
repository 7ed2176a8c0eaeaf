package services

import (
	"fmt"
	"testing"

	"github.com/cospace/backend/internal/models"
	"github.com/cospace/backend/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database, migrates the schema,
// seeds the role catalogue and routes audit entries through direct writes so
// tests can assert on them synchronously.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectRole{},
		&models.ProjectMember{},
		&models.ProjectChangeRequest{},
		&models.ProjectAuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	if err := models.SeedDefaultRoles(db); err != nil {
		t.Fatalf("failed to seed roles: %v", err)
	}

	setAuditQueue(NewDirectAuditQueue(db))
	t.Cleanup(func() { setAuditQueue(nil) })

	return db
}

// createTestUser inserts a user with a hashed password.
func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := models.User{
		Username: username,
		Password: hash,
		Email:    username + "@example.com",
		Name:     username,
		Role:     "user",
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return &user
}

// createTestProject inserts a project owned by the given user.
func createTestProject(t *testing.T, db *gorm.DB, ownerID uint, isPublic bool) *models.Project {
	t.Helper()

	project := models.Project{
		UserID:      ownerID,
		Title:       "Test Project",
		Description: "A project used in tests",
		IsPublic:    isPublic,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return &project
}

// addTestMember inserts a membership row with the named seeded role.
func addTestMember(t *testing.T, db *gorm.DB, projectID, userID uint, roleName string) *models.ProjectMember {
	t.Helper()

	var role models.ProjectRole
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		t.Fatalf("failed to find role %s: %v", roleName, err)
	}

	member := models.ProjectMember{
		ProjectID:     projectID,
		UserID:        userID,
		ProjectRoleID: role.ID,
	}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
	return &member
}

// lastAuditEntry returns the newest audit entry for a project.
func lastAuditEntry(t *testing.T, db *gorm.DB, projectID uint) *models.ProjectAuditLog {
	t.Helper()

	var entry models.ProjectAuditLog
	if err := db.Where("project_id = ?", projectID).Order("id DESC").First(&entry).Error; err != nil {
		t.Fatalf("expected an audit entry for project %d: %v", projectID, err)
	}
	return &entry
}

// countAuditEntries counts audit entries for a project filtered by action.
func countAuditEntries(t *testing.T, db *gorm.DB, projectID uint, action string) int64 {
	t.Helper()

	var count int64
	db.Model(&models.ProjectAuditLog{}).
		Where("project_id = ? AND action = ?", projectID, action).
		Count(&count)
	return count
}
