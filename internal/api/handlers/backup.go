package handlers

import (
	"scrapedeck/internal/config"
	"scrapedeck/internal/migrate"

	"github.com/gin-gonic/gin"
)

type BackupHandler struct {
	backups *migrate.BackupService
	cfg     *config.Config
}

func NewBackupHandler(backups *migrate.BackupService, cfg *config.Config) *BackupHandler {
	return &BackupHandler{backups: backups, cfg: cfg}
}

func (h *BackupHandler) GetBackups(c *gin.Context) {
	backups, err := h.backups.ListBackups()
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list backups"})
		return
	}
	c.JSON(200, gin.H{"backups": backups})
}

type CreateBackupRequest struct {
	Label string `json:"label"`
}

func (h *BackupHandler) CreateBackup(c *gin.Context) {
	var req CreateBackupRequest
	c.ShouldBindJSON(&req)

	var path string
	var err error
	switch h.cfg.Database.Type {
	case "sqlite":
		path, err = h.backups.BackupSQLite(h.cfg.Database.SQLite.Path, req.Label)
	case "mysql":
		path, err = h.backups.BackupMySQL(h.cfg.Database.MySQL.Database, req.Label)
	}
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to create backup"})
		return
	}
	c.JSON(201, gin.H{"path": path})
}

func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	if err := h.backups.DeleteBackup(c.Param("name")); err != nil {
		c.JSON(404, gin.H{"error": "Backup not found"})
		return
	}
	c.JSON(200, gin.H{"message": "Backup deleted"})
}
