package services

import (
	"scrapedeck/internal/models"

	"gorm.io/gorm"
)

// IdentityResolver turns a bearer credential into a user id. The opaque
// session surface and the JWT access surface each implement it with their own
// revocation semantics, so callers stay agnostic to which one authenticated
// them.
type IdentityResolver interface {
	Resolve(credential string) (uint, bool)
}

// Resolve implements IdentityResolver over opaque session tokens.
func (s *SessionService) Resolve(credential string) (uint, bool) {
	return s.Validate(credential)
}

// ChainResolver tries each resolver in order and accepts the first identity.
type ChainResolver []IdentityResolver

func (rs ChainResolver) Resolve(credential string) (uint, bool) {
	for _, r := range rs {
		if userID, ok := r.Resolve(credential); ok {
			return userID, true
		}
	}
	return 0, false
}

// AccessTokenResolver resolves JWT access tokens: signature, expiry, token
// type, blacklist membership and an active user row all have to hold.
type AccessTokenResolver struct {
	tokens *TokenService
	db     *gorm.DB
}

func NewAccessTokenResolver(tokens *TokenService, db *gorm.DB) *AccessTokenResolver {
	return &AccessTokenResolver{tokens: tokens, db: db}
}

func (r *AccessTokenResolver) Resolve(credential string) (uint, bool) {
	if r.tokens.IsBlacklisted(credential) {
		return 0, false
	}

	claims, err := r.tokens.Decode(credential)
	if err != nil || claims.Type != TokenTypeAccess {
		return 0, false
	}

	var user models.User
	if err := r.db.First(&user, claims.UserID).Error; err != nil || !user.IsActive {
		return 0, false
	}
	return claims.UserID, true
}
