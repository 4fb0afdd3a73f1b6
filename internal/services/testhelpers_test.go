package services

import (
	"fmt"
	"testing"

	"notehub/internal/database"
	"notehub/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB 创建内存数据库并注入全局实例
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库限制单连接，避免连接池各自拿到空库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Note{},
	))

	database.SetDB(db)
	t.Cleanup(func() {
		database.SetDB(nil)
		sqlDB.Close()
	})

	return db
}

// createTestTenant 创建免费计划测试租户
func createTestTenant(t *testing.T, db *gorm.DB, slug string) *models.Tenant {
	t.Helper()

	tenant := &models.Tenant{
		Slug: slug,
		Name: slug + " Inc",
		Subscription: models.Subscription{
			Plan:      models.PlanFree,
			NoteLimit: models.DefaultNoteLimit,
		},
		Settings: datatypes.NewJSONType(map[string]string{}),
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// createTestUser 创建测试用户，密码为 password
func createTestUser(t *testing.T, db *gorm.DB, tenant *models.Tenant, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		Role:     role,
		TenantID: tenant.ID,
		IsActive: true,
		Profile: models.Profile{
			FirstName: "Test",
			LastName:  "User",
		},
	}
	require.NoError(t, user.SetPassword("password"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// createTestNote 直接入库一条笔记
func createTestNote(t *testing.T, db *gorm.DB, tenant *models.Tenant, author *models.User, title string, archived bool) *models.Note {
	t.Helper()

	note := &models.Note{
		Title:      title,
		Content:    fmt.Sprintf("content of %s", title),
		TenantID:   tenant.ID,
		UserID:     author.ID,
		Color:      models.DefaultNoteColor,
		IsArchived: archived,
	}
	require.NoError(t, db.Create(note).Error)
	return note
}
