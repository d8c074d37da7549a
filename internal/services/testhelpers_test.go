package services

import (
	"fmt"
	"os"
	"testing"
	"time"

	"scrapedeck/internal/config"
	"scrapedeck/internal/logger"
	"scrapedeck/internal/migrate"
	"scrapedeck/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB opens a throwaway sqlite database and migrates it to the latest
// schema. Migration seeds the bootstrap admin, so every test database starts
// with one admin user.
func setupTestDB(t *testing.T) (*gorm.DB, *config.Config) {
	t.Helper()

	testDBPath := fmt.Sprintf("%s/scrapedeck_test_%d.db", os.TempDir(), time.Now().UnixNano())

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Type: "sqlite",
			SQLite: config.SQLiteConfig{
				Path: testDBPath,
			},
		},
		JWT: config.JWTConfig{
			Secret:           "test-secret-key-for-testing-only",
			Issuer:           "scrapedeck-test",
			AccessExpiresIn:  "30m",
			RefreshExpiresIn: "168h",
		},
		Security: config.SecurityConfig{
			BcryptCost: 4,
		},
		Session: config.SessionConfig{
			DurationHours: 24,
		},
		Paths: config.PathsConfig{
			Backups: t.TempDir(),
		},
		Bootstrap: config.BootstrapConfig{
			AdminUsername: "admin",
			AdminPassword: "admin123",
		},
	}

	db, err := models.InitDB(cfg)
	require.NoError(t, err)

	require.NoError(t, migrate.NewEngine(db, cfg, logger.Nop()).Run())

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		os.Remove(testDBPath)
	})

	return db, cfg
}

func bootstrapAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	var admin models.User
	require.NoError(t, db.Where("role = ?", "admin").First(&admin).Error)
	return &admin
}
