package services

import (
	"testing"

	"scrapedeck/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleOrdering(t *testing.T) {
	ordered := []Role{RoleGuest, RoleViewer, RoleUser, RoleAdmin}
	for i, lower := range ordered {
		for _, higher := range ordered[i+1:] {
			assert.Less(t, int(lower), int(higher), "%s should rank below %s", lower, higher)
		}
	}
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleViewer, ParseRole("viewer"))

	// Anything unrecognized ranks as Guest
	assert.Equal(t, RoleGuest, ParseRole(""))
	assert.Equal(t, RoleGuest, ParseRole("superuser"))
}

func TestHasAtLeast(t *testing.T) {
	db, cfg := setupTestDB(t)
	authSvc := NewAuthService(db, cfg, logger.Nop())
	perms := NewPermissionService(db)
	admin := bootstrapAdmin(t, db)

	viewer, err := authSvc.CreateUser("viewer", "password123", "", "viewer")
	require.NoError(t, err)
	user, err := authSvc.CreateUser("user", "password123", "", "user")
	require.NoError(t, err)

	cases := []struct {
		name     string
		userID   uint
		required Role
		want     bool
	}{
		{"viewer meets viewer", viewer.ID, RoleViewer, true},
		{"viewer fails user", viewer.ID, RoleUser, false},
		{"viewer fails admin", viewer.ID, RoleAdmin, false},
		{"user meets viewer", user.ID, RoleViewer, true},
		{"user meets user", user.ID, RoleUser, true},
		{"user fails admin", user.ID, RoleAdmin, false},
		{"admin meets everything", admin.ID, RoleAdmin, true},
		{"unknown user is guest", 99999, RoleViewer, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, perms.HasAtLeast(tc.userID, tc.required))
		})
	}
}

func TestRoleOf(t *testing.T) {
	db, _ := setupTestDB(t)
	perms := NewPermissionService(db)
	admin := bootstrapAdmin(t, db)

	assert.Equal(t, RoleAdmin, perms.RoleOf(admin.ID))
	assert.Equal(t, RoleGuest, perms.RoleOf(99999))
}

func TestOwnership(t *testing.T) {
	db, cfg := setupTestDB(t)
	authSvc := NewAuthService(db, cfg, logger.Nop())
	perms := NewPermissionService(db)
	admin := bootstrapAdmin(t, db)

	owner, err := authSvc.CreateUser("owner", "password123", "", "user")
	require.NoError(t, err)
	other, err := authSvc.CreateUser("other", "password123", "", "user")
	require.NoError(t, err)

	t.Run("owner can edit and delete own resource", func(t *testing.T) {
		assert.True(t, perms.CanEdit(owner.ID, owner.ID))
		assert.True(t, perms.CanDelete(owner.ID, owner.ID))
	})

	t.Run("non-owner cannot touch someone else's resource", func(t *testing.T) {
		assert.False(t, perms.CanEdit(other.ID, owner.ID))
		assert.False(t, perms.CanDelete(other.ID, owner.ID))
	})

	t.Run("admin can touch anything", func(t *testing.T) {
		assert.True(t, perms.CanEdit(admin.ID, owner.ID))
		assert.True(t, perms.CanDelete(admin.ID, owner.ID))
	})

	t.Run("error-returning variants", func(t *testing.T) {
		assert.NoError(t, perms.RequireOwnership(owner.ID, owner.ID))
		assert.ErrorIs(t, perms.RequireOwnership(other.ID, owner.ID), ErrPermissionDenied)
		assert.NoError(t, perms.RequireRole(admin.ID, RoleAdmin))
		assert.ErrorIs(t, perms.RequireRole(other.ID, RoleAdmin), ErrPermissionDenied)
	})
}

func TestDemotionTakesEffectImmediately(t *testing.T) {
	db, cfg := setupTestDB(t)
	authSvc := NewAuthService(db, cfg, logger.Nop())
	userSvc := NewUserService(db, authSvc)
	perms := NewPermissionService(db)

	u, err := authSvc.CreateUser("dave", "password123", "", "user")
	require.NoError(t, err)
	require.True(t, perms.HasAtLeast(u.ID, RoleUser))

	_, err = userSvc.UpdateUser(u.ID, "dave", "", RoleViewer)
	require.NoError(t, err)

	// No caching: the demoted role is visible on the very next check
	assert.False(t, perms.HasAtLeast(u.ID, RoleUser))
	assert.True(t, perms.HasAtLeast(u.ID, RoleViewer))
}
