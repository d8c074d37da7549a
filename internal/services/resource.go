package services

import (
	"errors"

	"scrapedeck/internal/models"

	"gorm.io/gorm"
)

var ErrResourceNotFound = errors.New("resource not found")

// ResourceService guards the owned resource tables. Every state-changing
// operation passes through RequireOwnership, decided by the user_id foreign
// key alone.
type ResourceService struct {
	db    *gorm.DB
	perms *PermissionService
}

func NewResourceService(db *gorm.DB, perms *PermissionService) *ResourceService {
	return &ResourceService{db: db, perms: perms}
}

// GetArticles returns articles visible to the caller: admins see everything,
// everyone else sees their own.
func (s *ResourceService) GetArticles(callerID uint) ([]models.Article, error) {
	var articles []models.Article
	q := s.db
	if !s.perms.IsAdmin(callerID) {
		q = q.Where("user_id = ?", callerID)
	}
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (s *ResourceService) GetArticle(id uint) (*models.Article, error) {
	var article models.Article
	if err := s.db.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return &article, nil
}

func (s *ResourceService) UpdateArticle(callerID, id uint, title, content string) (*models.Article, error) {
	article, err := s.GetArticle(id)
	if err != nil {
		return nil, err
	}

	if err := s.perms.RequireOwnership(callerID, article.UserID); err != nil {
		return nil, err
	}

	article.Title = title
	article.Content = content
	if err := s.db.Save(article).Error; err != nil {
		return nil, err
	}
	return article, nil
}

func (s *ResourceService) DeleteArticle(callerID, id uint) error {
	article, err := s.GetArticle(id)
	if err != nil {
		return err
	}

	if err := s.perms.RequireOwnership(callerID, article.UserID); err != nil {
		return err
	}

	return s.db.Delete(article).Error
}

func (s *ResourceService) GetProfiles(callerID uint) ([]models.ScraperProfile, error) {
	var profiles []models.ScraperProfile
	q := s.db
	if !s.perms.IsAdmin(callerID) {
		q = q.Where("user_id = ?", callerID)
	}
	if err := q.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *ResourceService) CreateProfile(callerID uint, name, selector string) (*models.ScraperProfile, error) {
	profile := &models.ScraperProfile{
		Name:     name,
		Selector: selector,
		UserID:   callerID,
	}
	if err := s.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ResourceService) UpdateProfile(callerID, id uint, name, selector string) (*models.ScraperProfile, error) {
	var profile models.ScraperProfile
	if err := s.db.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	if err := s.perms.RequireOwnership(callerID, profile.UserID); err != nil {
		return nil, err
	}

	profile.Name = name
	profile.Selector = selector
	if err := s.db.Save(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *ResourceService) DeleteProfile(callerID, id uint) error {
	var profile models.ScraperProfile
	if err := s.db.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResourceNotFound
		}
		return err
	}

	if err := s.perms.RequireOwnership(callerID, profile.UserID); err != nil {
		return err
	}

	return s.db.Delete(&profile).Error
}
