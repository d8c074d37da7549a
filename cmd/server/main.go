package main

import (
	"fmt"

	"scrapedeck/internal/api/routes"
	"scrapedeck/internal/config"
	"scrapedeck/internal/logger"
	"scrapedeck/internal/migrate"
	"scrapedeck/internal/models"
	"scrapedeck/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win either way
	_ = godotenv.Load()

	log := logger.New()
	defer log.Sync()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}

	// Bring the schema to the latest version, backing up a legacy database
	// first. A migration failure aborts startup: running against a schema the
	// application does not understand is worse than refusing to start.
	engine := migrate.NewEngine(db, cfg, log)
	legacy, err := engine.IsLegacy()
	if err != nil {
		log.Fatalw("failed to detect schema version", "error", err)
	}
	if legacy && cfg.Database.Type == "sqlite" {
		backups := migrate.NewBackupService(cfg.Paths.Backups)
		path, err := backups.BackupSQLite(cfg.Database.SQLite.Path, "premigration")
		if err != nil {
			log.Fatalw("failed to back up legacy database", "error", err)
		}
		log.Infow("created pre-migration backup", "path", path)
	}
	if err := engine.Run(); err != nil {
		log.Fatalw("schema migration failed", "error", err)
	}
	if err := engine.VerifySchema(); err != nil {
		log.Fatalw("schema verification failed", "error", err)
	}

	// Seed the admin account if the users table is empty
	authService := services.NewAuthService(db, cfg, log)
	if err := authService.EnsureBootstrapAdmin(); err != nil {
		log.Warnw("failed to create bootstrap admin", "error", err)
	}

	// Expired sessions are swept at startup; correctness never depends on it
	sessionService := services.NewSessionService(db, log)
	if removed, err := sessionService.CleanupExpired(); err == nil && removed > 0 {
		log.Infow("removed expired sessions", "count", removed)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	routes.SetupRoutes(r, db, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Infow("starting scrapedeck server", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalw("failed to start server", "error", err)
	}
}
