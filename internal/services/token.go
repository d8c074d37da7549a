package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"scrapedeck/internal/config"
	"scrapedeck/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUnauthorized = errors.New("invalid or expired token")

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the decoded identity a JWT carries.
type Claims struct {
	UserID uint
	Type   string
}

// TokenService issues and validates signed access/refresh tokens for the HTTP
// surface. Refresh tokens are also persisted so they can be revoked before
// their embedded expiry; explicitly logged-out access tokens go on a
// blacklist checked during resolution.
type TokenService struct {
	db         *gorm.DB
	log        *zap.SugaredLogger
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *TokenService {
	accessTTL, err := time.ParseDuration(cfg.JWT.AccessExpiresIn)
	if err != nil {
		accessTTL = 30 * time.Minute
	}
	refreshTTL, err := time.ParseDuration(cfg.JWT.RefreshExpiresIn)
	if err != nil {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		db:         db,
		log:        log,
		secret:     []byte(cfg.JWT.Secret),
		issuer:     cfg.JWT.Issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *TokenService) sign(userID uint, kind string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"type": kind,
		"exp":  expiresAt.Unix(),
		"iat":  now.Unix(),
		"iss":  s.issuer,
		"jti":  uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssueAccessToken mints a short-lived access token.
func (s *TokenService) IssueAccessToken(userID uint) (string, error) {
	token, _, err := s.sign(userID, TokenTypeAccess, s.accessTTL)
	return token, err
}

// IssueRefreshToken mints a refresh token and persists it, so the server can
// revoke it independently of its embedded expiry.
func (s *TokenService) IssueRefreshToken(userID uint) (string, error) {
	token, expiresAt, err := s.sign(userID, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return "", err
	}

	record := &models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	if err := s.db.Create(record).Error; err != nil {
		return "", fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return token, nil
}

// Decode verifies signature and expiry and extracts the claims. Callers must
// additionally check Type and, for refresh use, blacklist membership and the
// persisted record.
func (s *TokenService) Decode(tokenStr string) (Claims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return Claims{}, ErrUnauthorized
	}

	mapc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrUnauthorized
	}
	sub, _ := mapc["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return Claims{}, ErrUnauthorized
	}
	kind, _ := mapc["type"].(string)

	return Claims{UserID: uint(userID), Type: kind}, nil
}

// Refresh rotates a refresh token: it validates the presented token, then
// atomically deletes the old persisted record and inserts the new one before
// returning a fresh access/refresh pair. A concurrent second rotation with
// the same token loses the race and fails cleanly. If the rotated record
// cannot be persisted, the whole refresh fails so that the old-token-invalid
// guarantee survives.
func (s *TokenService) Refresh(refreshToken string) (string, string, error) {
	if s.IsBlacklisted(refreshToken) {
		return "", "", ErrUnauthorized
	}

	claims, err := s.Decode(refreshToken)
	if err != nil {
		return "", "", ErrUnauthorized
	}
	if claims.Type != TokenTypeRefresh {
		return "", "", ErrUnauthorized
	}

	newRefresh, newExpiry, err := s.sign(claims.UserID, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return "", "", err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var record models.RefreshToken
		err := tx.Where("token = ? AND expires_at > ?", refreshToken, time.Now()).First(&record).Error
		if err != nil {
			return ErrUnauthorized
		}

		var user models.User
		if err := tx.First(&user, record.UserID).Error; err != nil || !user.IsActive {
			return ErrUnauthorized
		}

		// Under REPEATABLE READ two concurrent rotations can both read the
		// record; only the delete that removed the row wins the rotation.
		res := tx.Where("token = ?", refreshToken).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete rotated token: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			return ErrUnauthorized
		}
		return tx.Create(&models.RefreshToken{
			Token:     newRefresh,
			UserID:    claims.UserID,
			ExpiresAt: newExpiry,
		}).Error
	})
	if err != nil {
		return "", "", err
	}

	newAccess, err := s.IssueAccessToken(claims.UserID)
	if err != nil {
		return "", "", err
	}
	return newAccess, newRefresh, nil
}

// Logout blacklists the presented access token. The paired refresh token
// stays valid unless the caller revokes it separately, see
// RevokeRefreshTokens.
func (s *TokenService) Logout(accessToken string) error {
	entry := &models.BlacklistedToken{Token: accessToken}
	if err := s.db.Create(entry).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

// IsBlacklisted reports whether a token was explicitly revoked.
func (s *TokenService) IsBlacklisted(token string) bool {
	var count int64
	if err := s.db.Model(&models.BlacklistedToken{}).Where("token = ?", token).Count(&count).Error; err != nil {
		s.log.Warnw("blacklist lookup failed", "error", err)
		return false
	}
	return count > 0
}

// RevokeRefreshTokens deletes every persisted refresh token of a user,
// severing all refresh lineages at once.
func (s *TokenService) RevokeRefreshTokens(userID uint) error {
	return s.db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// PruneExpired removes blacklist entries and refresh-token records whose
// natural expiry has passed. Storage hygiene only; correctness never depends
// on it.
func (s *TokenService) PruneExpired() error {
	if err := s.db.Where("expires_at <= ?", time.Now()).Delete(&models.RefreshToken{}).Error; err != nil {
		return err
	}
	cutoff := time.Now().Add(-s.refreshTTL)
	return s.db.Where("blacklisted_at <= ?", cutoff).Delete(&models.BlacklistedToken{}).Error
}
