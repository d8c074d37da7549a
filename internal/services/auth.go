package services

import (
	"errors"
	"time"

	"scrapedeck/internal/auth"
	"scrapedeck/internal/config"
	"scrapedeck/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
	log *zap.SugaredLogger
}

func NewAuthService(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *AuthService {
	return &AuthService{db: db, cfg: cfg, log: log}
}

// HashPassword hashes a password using bcrypt with the configured cost
func (s *AuthService) HashPassword(password string) (string, error) {
	return auth.HashPassword(password, s.cfg.Security.BcryptCost)
}

// VerifyPassword verifies a password against a hash
func (s *AuthService) VerifyPassword(hashedPassword, password string) bool {
	return auth.CheckPassword(hashedPassword, password)
}

// CreateUser creates a new user
func (s *AuthService) CreateUser(username, password, email, role string) (*models.User, error) {
	var existingUser models.User
	if err := s.db.Where("username = ?", username).First(&existingUser).Error; err == nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashedPassword,
		Email:        email,
		Role:         role,
		IsActive:     true,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies credentials and returns the user. Unknown username,
// wrong password and deactivated account all map onto the same error, so the
// caller cannot enumerate usernames.
func (s *AuthService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		s.log.Warnw("failed to record last login", "user_id", user.ID, "error", err)
	}

	return &user, nil
}

// UpdatePassword updates a user's password
func (s *AuthService) UpdatePassword(id uint, newPassword string) error {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.Model(&user).Update("password_hash", hashedPassword).Error
}

// EnsureBootstrapAdmin creates the default admin user if no users exist
func (s *AuthService) EnsureBootstrapAdmin() error {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		_, err := s.CreateUser(
			s.cfg.Bootstrap.AdminUsername,
			s.cfg.Bootstrap.AdminPassword,
			"",
			"admin",
		)
		return err
	}

	return nil
}
