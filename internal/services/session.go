package services

import (
	"strings"
	"time"

	"scrapedeck/internal/auth"
	"scrapedeck/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionService manages opaque session tokens for the terminal-facing
// surface. Sessions live server-side so that logout revokes instantly;
// validity is never renewed in place, a new login creates a new row.
type SessionService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewSessionService(db *gorm.DB, log *zap.SugaredLogger) *SessionService {
	return &SessionService{db: db, log: log}
}

// Create generates a session token, stores it with the computed expiry and
// returns it. A UNIQUE violation on the token column is a vanishingly rare
// CSPRNG collision, retried with a fresh token rather than surfaced.
func (s *SessionService) Create(userID uint, duration time.Duration, ip string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		token, err := auth.NewSessionToken()
		if err != nil {
			return "", err
		}

		session := &models.Session{
			UserID:    userID,
			Token:     token,
			ExpiresAt: time.Now().Add(duration),
			IPAddress: ip,
		}
		err = s.db.Create(session).Error
		if err == nil {
			return token, nil
		}
		if !isUniqueViolation(err) {
			return "", err
		}
		s.log.Warnw("session token collision, retrying", "attempt", attempt)
		lastErr = err
	}
	return "", lastErr
}

// Validate looks up a non-expired session and returns the owning user id.
// Malformed or unknown tokens simply report no identity.
func (s *SessionService) Validate(token string) (uint, bool) {
	var session models.Session
	err := s.db.Where("session_token = ? AND expires_at > ?", token, time.Now()).First(&session).Error
	if err != nil {
		return 0, false
	}
	return session.UserID, true
}

// Logout deletes the session row. Deleting an already-absent token is not an
// error.
func (s *SessionService) Logout(token string) error {
	return s.db.Where("session_token = ?", token).Delete(&models.Session{}).Error
}

// CleanupExpired removes expired sessions and returns how many were deleted.
func (s *SessionService) CleanupExpired() (int64, error) {
	res := s.db.Where("expires_at <= ?", time.Now()).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
