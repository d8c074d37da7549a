package services

import (
	"errors"

	"scrapedeck/internal/models"

	"gorm.io/gorm"
)

var ErrPermissionDenied = errors.New("insufficient permissions")

// Role is the closed, totally ordered role hierarchy. A user with no
// resolvable role (deleted, unknown) ranks as Guest.
type Role int

const (
	RoleGuest Role = iota
	RoleViewer
	RoleUser
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	case RoleViewer:
		return "viewer"
	default:
		return "guest"
	}
}

// ParseRole maps a stored role string onto the hierarchy. Anything
// unrecognized ranks as Guest.
func ParseRole(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "user":
		return RoleUser
	case "viewer":
		return RoleViewer
	default:
		return RoleGuest
	}
}

// PermissionService evaluates hierarchical and ownership-based authorization.
// Every check re-reads the user row, so a demoted role or deactivated account
// takes effect on the very next call.
type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// RoleOf resolves a user's role, defaulting to Guest when the row is absent.
func (s *PermissionService) RoleOf(userID uint) Role {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return RoleGuest
	}
	return ParseRole(user.Role)
}

// HasAtLeast reports whether the user's role ranks at or above the required
// role.
func (s *PermissionService) HasAtLeast(userID uint, required Role) bool {
	return s.RoleOf(userID) >= required
}

func (s *PermissionService) IsAdmin(userID uint) bool {
	return s.RoleOf(userID) == RoleAdmin
}

// CanEdit reports whether the user may edit a resource owned by ownerID.
// Ownership is decided purely by the user_id foreign key, never by resource
// content.
func (s *PermissionService) CanEdit(userID, ownerID uint) bool {
	return s.IsAdmin(userID) || userID == ownerID
}

// CanDelete is intentionally identical to CanEdit today; the two named
// predicates exist so delete policy can diverge without call-site churn.
func (s *PermissionService) CanDelete(userID, ownerID uint) bool {
	return s.IsAdmin(userID) || userID == ownerID
}

// RequireRole is HasAtLeast for the boundary of state-changing operations:
// failure surfaces as an error a forgetful caller cannot silently drop.
func (s *PermissionService) RequireRole(userID uint, required Role) error {
	if !s.HasAtLeast(userID, required) {
		return ErrPermissionDenied
	}
	return nil
}

// RequireOwnership is CanEdit in error-returning form.
func (s *PermissionService) RequireOwnership(userID, ownerID uint) error {
	if !s.CanEdit(userID, ownerID) {
		return ErrPermissionDenied
	}
	return nil
}
