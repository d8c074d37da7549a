package services

import (
	"errors"

	"scrapedeck/internal/models"

	"gorm.io/gorm"
)

type UserService struct {
	db          *gorm.DB
	authService *AuthService
}

func NewUserService(db *gorm.DB, authService *AuthService) *UserService {
	return &UserService{db: db, authService: authService}
}

// GetUsers returns all users
func (s *UserService) GetUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return nil, err
	}

	// Clear password hashes
	for i := range users {
		users[i].PasswordHash = ""
	}

	return users, nil
}

// GetUser returns a specific user by ID
func (s *UserService) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.PasswordHash = ""
	return &user, nil
}

// UpdateUser updates username, email and role
func (s *UserService) UpdateUser(id uint, username, email string, role Role) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Check if username is taken by another user
	if username != user.Username {
		var existingUser models.User
		if err := s.db.Where("username = ? AND id != ?", username, id).First(&existingUser).Error; err == nil {
			return nil, ErrUserExists
		}
	}

	user.Username = username
	user.Email = email
	user.Role = role.String()

	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &user, nil
}

// SetActive toggles the active flag. Deactivation takes effect on the user's
// next authentication or token resolution.
func (s *UserService) SetActive(id uint, active bool) error {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return s.db.Model(&user).Update("is_active", active).Error
}

// DeleteUser deletes a user together with their sessions, refresh tokens and
// articles; scraper profiles fall back to the longest-standing admin. The
// cleanup runs in the application rather than relying on FK actions alone,
// because resource tables migrated from a legacy database carry no FK
// constraints.
func (s *UserService) DeleteUser(id uint) error {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	// Don't allow deleting the last admin user
	var adminCount int64
	if err := s.db.Model(&models.User{}).Where("role = ?", "admin").Count(&adminCount).Error; err != nil {
		return err
	}
	if user.Role == "admin" && adminCount <= 1 {
		return errors.New("cannot delete the last admin user")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var fallback models.User
		if err := tx.Where("role = ? AND id <> ?", "admin", id).Order("id").First(&fallback).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Article{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ScraperProfile{}).Where("user_id = ?", id).Update("user_id", fallback.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// GetSessions returns active sessions for a user
func (s *UserService) GetSessions(userID uint) ([]models.Session, error) {
	var sessions []models.Session
	if err := s.db.Where("user_id = ?", userID).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
