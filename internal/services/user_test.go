package services

import (
	"testing"
	"time"

	"scrapedeck/internal/logger"
	"scrapedeck/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteUserRemovesCredentials(t *testing.T) {
	db, cfg := setupTestDB(t)
	authSvc := NewAuthService(db, cfg, logger.Nop())
	sessions := NewSessionService(db, logger.Nop())
	tokens := NewTokenService(db, cfg, logger.Nop())
	users := NewUserService(db, authSvc)
	admin := bootstrapAdmin(t, db)

	user, err := authSvc.CreateUser("doomed", "password123", "doomed@example.com", "user")
	require.NoError(t, err)

	sessionToken, err := sessions.Create(user.ID, time.Hour, "127.0.0.1")
	require.NoError(t, err)
	_, err = tokens.IssueRefreshToken(user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Article{URL: "https://example.com/a", UserID: user.ID}).Error)
	require.NoError(t, db.Create(&models.ScraperProfile{Name: "news", UserID: user.ID}).Error)

	require.NoError(t, users.DeleteUser(user.ID))

	t.Run("opaque session no longer validates", func(t *testing.T) {
		_, ok := sessions.Validate(sessionToken)
		assert.False(t, ok)
	})

	t.Run("refresh tokens are gone", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("articles go with the user", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Model(&models.Article{}).Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("scraper profiles fall back to the admin", func(t *testing.T) {
		var profile models.ScraperProfile
		require.NoError(t, db.Where("name = ?", "news").First(&profile).Error)
		assert.Equal(t, admin.ID, profile.UserID)
	})
}

func TestDeleteUserAdminGuard(t *testing.T) {
	db, cfg := setupTestDB(t)
	authSvc := NewAuthService(db, cfg, logger.Nop())
	users := NewUserService(db, authSvc)
	admin := bootstrapAdmin(t, db)

	t.Run("last admin cannot be deleted", func(t *testing.T) {
		err := users.DeleteUser(admin.ID)
		require.Error(t, err)

		_, err = users.GetUser(admin.ID)
		assert.NoError(t, err)
	})

	t.Run("admin can go once another exists", func(t *testing.T) {
		second, err := authSvc.CreateUser("admin2", "password123", "", "admin")
		require.NoError(t, err)

		require.NoError(t, users.DeleteUser(second.ID))
		_, err = users.GetUser(second.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, users.DeleteUser(99999), ErrUserNotFound)
	})
}
