package models

import (
	"time"
)

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	Email        string     `json:"email" gorm:"type:varchar(255)"`
	Role         string     `json:"role" gorm:"type:varchar(50);default:'user'"` // admin, user, viewer
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
}

type Session struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Token     string    `json:"token" gorm:"column:session_token;type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	IPAddress string    `json:"ip_address" gorm:"type:varchar(45)"`
	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Session) TableName() string {
	return "user_sessions"
}

type RefreshToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"type:varchar(500);uniqueIndex;not null"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

type BlacklistedToken struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Token         string    `json:"token" gorm:"type:varchar(500);uniqueIndex;not null"`
	BlacklistedAt time.Time `json:"blacklisted_at" gorm:"autoCreateTime"`
}

func (BlacklistedToken) TableName() string {
	return "token_blacklist"
}

type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Action    string    `json:"action" gorm:"type:varchar(50);not null"` // login, logout, refresh
	IPAddress string    `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent string    `json:"user_agent" gorm:"type:varchar(500)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type SchemaVersion struct {
	Version     string    `json:"version" gorm:"primaryKey;type:varchar(20)"`
	AppliedAt   time.Time `json:"applied_at" gorm:"autoCreateTime"`
	Description string    `json:"description" gorm:"type:text"`
}

func (SchemaVersion) TableName() string {
	return "schema_version"
}
