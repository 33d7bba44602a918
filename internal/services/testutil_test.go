package services

import (
	"fmt"
	"testing"

	"github.com/openguild/guildpress/internal/models"
	"github.com/openguild/guildpress/internal/permissions"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database and migrates the schema.
// The DSN is keyed by test name so parallel tests never share state.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Article{},
		&models.MembershipApplication{},
		&models.ReviewAssignment{},
		&models.SystemLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username, roles string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Roles:    roles,
		Grade:    models.GradeMember,
		AuthType: "local",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func actorFor(user *models.User) Actor {
	return Actor{ID: user.ID, Roles: permissions.ParseRoles(user.Roles)}
}

// recordingInvalidator captures emitted view keys for assertions.
type recordingInvalidator struct {
	keys []string
}

func (r *recordingInvalidator) Invalidate(keys ...string) error {
	r.keys = append(r.keys, keys...)
	return nil
}

func (r *recordingInvalidator) Close() error { return nil }

// installRecorder swaps in a recording invalidator for the test's duration.
func installRecorder(t *testing.T) *recordingInvalidator {
	t.Helper()

	rec := &recordingInvalidator{}
	SetInvalidator(rec)
	t.Cleanup(func() { SetInvalidator(nil) })
	return rec
}
