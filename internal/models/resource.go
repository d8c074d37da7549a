package models

import (
	"time"
)

// Article is a scraped item. It predates the multi-user schema: on a legacy
// database the table exists without a user_id column, which the migration
// engine adds and back-fills.
type Article struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	URL       string    `json:"url" gorm:"type:text;not null"`
	Title     string    `json:"title" gorm:"type:text"`
	Content   string    `json:"content" gorm:"type:text"`
	UserID    uint      `json:"user_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// ScraperProfile is a saved scraper configuration. Preinstalled profiles are
// shared, so owner deletion reassigns them to the bootstrap admin instead of
// cascading.
type ScraperProfile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Selector  string    `json:"selector" gorm:"type:text"`
	UserID    uint      `json:"user_id" gorm:"index;default:1"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:SET DEFAULT"`
}
