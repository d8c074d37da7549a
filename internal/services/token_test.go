package services

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"scrapedeck/internal/logger"
	"scrapedeck/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndDecode(t *testing.T) {
	db, cfg := setupTestDB(t)
	svc := NewTokenService(db, cfg, logger.Nop())

	t.Run("access token claims", func(t *testing.T) {
		token, err := svc.IssueAccessToken(7)
		require.NoError(t, err)

		claims, err := svc.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, uint(7), claims.UserID)
		assert.Equal(t, TokenTypeAccess, claims.Type)
	})

	t.Run("refresh token is persisted", func(t *testing.T) {
		token, err := svc.IssueRefreshToken(7)
		require.NoError(t, err)

		var record models.RefreshToken
		require.NoError(t, db.Where("token = ?", token).First(&record).Error)
		assert.Equal(t, uint(7), record.UserID)
		assert.True(t, record.ExpiresAt.After(time.Now()))

		claims, err := svc.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, TokenTypeRefresh, claims.Type)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		token, err := svc.IssueAccessToken(7)
		require.NoError(t, err)

		_, err = svc.Decode(token + "x")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "7",
			"type": TokenTypeAccess,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		signed, err := forged.SignedString([]byte("wrong-secret"))
		require.NoError(t, err)

		_, err = svc.Decode(signed)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		stale := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "7",
			"type": TokenTypeAccess,
			"exp":  time.Now().Add(-time.Minute).Unix(),
		})
		signed, err := stale.SignedString([]byte(cfg.JWT.Secret))
		require.NoError(t, err)

		_, err = svc.Decode(signed)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestRefreshRotation(t *testing.T) {
	db, cfg := setupTestDB(t)
	svc := NewTokenService(db, cfg, logger.Nop())
	admin := bootstrapAdmin(t, db)

	refresh, err := svc.IssueRefreshToken(admin.ID)
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.Refresh(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, newAccess)
	require.NotEmpty(t, newRefresh)
	assert.NotEqual(t, refresh, newRefresh)

	t.Run("new tokens carry the right claims", func(t *testing.T) {
		claims, err := svc.Decode(newAccess)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, claims.UserID)
		assert.Equal(t, TokenTypeAccess, claims.Type)

		claims, err = svc.Decode(newRefresh)
		require.NoError(t, err)
		assert.Equal(t, TokenTypeRefresh, claims.Type)
	})

	t.Run("replaying the rotated token fails", func(t *testing.T) {
		_, _, err := svc.Refresh(refresh)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("exactly one lineage survives", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", admin.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

// Two rotations racing on the same token must not both mint new pairs: the
// delete inside the rotation transaction only counts as a win when it
// actually removed the presented record.
func TestConcurrentRefreshSingleWinner(t *testing.T) {
	db, cfg := setupTestDB(t)
	svc := NewTokenService(db, cfg, logger.Nop())
	admin := bootstrapAdmin(t, db)

	refresh, err := svc.IssueRefreshToken(admin.ID)
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Refresh(refresh)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
		}
	}
	assert.LessOrEqual(t, successes, 1)

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", admin.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRefreshRejections(t *testing.T) {
	db, cfg := setupTestDB(t)
	svc := NewTokenService(db, cfg, logger.Nop())
	admin := bootstrapAdmin(t, db)

	t.Run("access token where refresh is required", func(t *testing.T) {
		access, err := svc.IssueAccessToken(admin.ID)
		require.NoError(t, err)

		_, _, err = svc.Refresh(access)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("valid signature without a persisted record", func(t *testing.T) {
		orphan := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  strconv.FormatUint(uint64(admin.ID), 10),
			"type": TokenTypeRefresh,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		signed, err := orphan.SignedString([]byte(cfg.JWT.Secret))
		require.NoError(t, err)

		_, _, err = svc.Refresh(signed)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("blacklisted refresh token", func(t *testing.T) {
		refresh, err := svc.IssueRefreshToken(admin.ID)
		require.NoError(t, err)
		require.NoError(t, svc.Logout(refresh))

		_, _, err = svc.Refresh(refresh)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("deactivated user", func(t *testing.T) {
		refresh, err := svc.IssueRefreshToken(admin.ID)
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_active", false).Error)
		defer db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_active", true)

		_, _, err = svc.Refresh(refresh)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestJWTLogout(t *testing.T) {
	db, cfg := setupTestDB(t)
	svc := NewTokenService(db, cfg, logger.Nop())
	resolver := NewAccessTokenResolver(svc, db)
	admin := bootstrapAdmin(t, db)

	access, err := svc.IssueAccessToken(admin.ID)
	require.NoError(t, err)

	userID, ok := resolver.Resolve(access)
	require.True(t, ok)
	assert.Equal(t, admin.ID, userID)

	require.NoError(t, svc.Logout(access))

	t.Run("blacklisted token is rejected despite valid expiry", func(t *testing.T) {
		assert.True(t, svc.IsBlacklisted(access))
		_, ok := resolver.Resolve(access)
		assert.False(t, ok)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Logout(access))
	})
}

func TestRevokeRefreshTokens(t *testing.T) {
	db, cfg := setupTestDB(t)
	svc := NewTokenService(db, cfg, logger.Nop())
	admin := bootstrapAdmin(t, db)

	r1, err := svc.IssueRefreshToken(admin.ID)
	require.NoError(t, err)
	_, err = svc.IssueRefreshToken(admin.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeRefreshTokens(admin.ID))

	_, _, err = svc.Refresh(r1)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", admin.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAccessTokenResolver(t *testing.T) {
	db, cfg := setupTestDB(t)
	svc := NewTokenService(db, cfg, logger.Nop())
	resolver := NewAccessTokenResolver(svc, db)
	admin := bootstrapAdmin(t, db)

	t.Run("refresh token cannot pass as access", func(t *testing.T) {
		refresh, err := svc.IssueRefreshToken(admin.ID)
		require.NoError(t, err)

		_, ok := resolver.Resolve(refresh)
		assert.False(t, ok)
	})

	t.Run("deactivated user is rejected", func(t *testing.T) {
		access, err := svc.IssueAccessToken(admin.ID)
		require.NoError(t, err)

		require.NoError(t, db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_active", false).Error)
		defer db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_active", true)

		_, ok := resolver.Resolve(access)
		assert.False(t, ok)
	})
}
