package services

import (
	"scrapedeck/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuditService records authentication events. Best effort: a failed write is
// logged, never surfaced to the request.
type AuditService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewAuditService(db *gorm.DB, log *zap.SugaredLogger) *AuditService {
	return &AuditService{db: db, log: log}
}

func (s *AuditService) Log(userID uint, action, ipAddress, userAgent string) {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.db.Create(entry).Error; err != nil {
		s.log.Warnw("failed to write audit log", "action", action, "error", err)
	}
}

// GetForUser returns a user's audit trail, newest first.
func (s *AuditService) GetForUser(userID uint, limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	q := s.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
