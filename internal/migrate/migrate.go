package migrate

import (
	"fmt"
	"strconv"
	"strings"

	"scrapedeck/internal/auth"
	"scrapedeck/internal/config"
	"scrapedeck/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Schema versions, in application order. A database without a schema_version
// table is a legacy single-user database.
const (
	Version200 = "2.0.0"
	Version201 = "2.0.1"

	LatestVersion = Version201
)

// expectedTables is the table set a fully migrated schema must contain.
var expectedTables = []string{
	"users",
	"user_sessions",
	"refresh_tokens",
	"token_blacklist",
	"schema_version",
	"audit_logs",
	"articles",
	"scraper_profiles",
}

type Engine struct {
	db  *gorm.DB
	cfg *config.Config
	log *zap.SugaredLogger
}

func NewEngine(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *Engine {
	return &Engine{db: db, cfg: cfg, log: log}
}

type step struct {
	version     string
	description string
	apply       func(tx *gorm.DB) error
}

func (e *Engine) steps() []step {
	return []step{
		{Version200, "multi-user schema: users, sessions, tokens, ownership columns", e.applyV200},
		{Version201, "add ip_address column to user_sessions", e.applyV201},
	}
}

// CurrentVersion reports the most recently applied schema version. An empty
// string means the legacy state, detected by the absence of the
// schema_version table rather than by inspecting data.
func (e *Engine) CurrentVersion() (string, error) {
	ok, err := e.hasTable("schema_version")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	var version string
	err = e.db.Raw("SELECT version FROM schema_version ORDER BY applied_at DESC, version DESC LIMIT 1").Scan(&version).Error
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// IsLegacy reports whether the database predates schema versioning. Call
// sites use it to decide whether a pre-migration backup is warranted.
func (e *Engine) IsLegacy() (bool, error) {
	v, err := e.CurrentVersion()
	return err == nil && v == "", err
}

// Run drives the schema from whatever CurrentVersion reports to
// LatestVersion. Each step's DDL/DML and its version-history row commit in
// one transaction, so a failure leaves the prior version intact. Running Run
// on an up-to-date database is a no-op.
func (e *Engine) Run() error {
	current, err := e.CurrentVersion()
	if err != nil {
		return err
	}

	if compareVersions(current, LatestVersion) > 0 {
		return fmt.Errorf("database schema version %s is newer than supported %s", current, LatestVersion)
	}

	for _, s := range e.steps() {
		if current != "" && compareVersions(current, s.version) >= 0 {
			continue
		}

		e.log.Infow("applying schema migration", "version", s.version, "description", s.description)
		err := e.db.Transaction(func(tx *gorm.DB) error {
			if err := s.apply(tx); err != nil {
				return err
			}
			return tx.Create(&models.SchemaVersion{
				Version:     s.version,
				Description: s.description,
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration to %s failed: %w", s.version, err)
		}
		current = s.version
	}

	return nil
}

// applyV200 upgrades a legacy single-user database (or an empty one) to the
// multi-user schema. Every effect is guarded by an existence check, so the
// step is safe to call on a database already at or past 2.0.0.
func (e *Engine) applyV200(tx *gorm.DB) error {
	// New tables. CreateTable through the migrator keeps the DDL portable
	// across the sqlite and mysql dialectors.
	newTables := []interface{}{
		&models.User{},
		&models.Session{},
		&models.RefreshToken{},
		&models.BlacklistedToken{},
		&models.SchemaVersion{},
		&models.AuditLog{},
	}
	for _, m := range newTables {
		if !tx.Migrator().HasTable(m) {
			if err := tx.Migrator().CreateTable(m); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}
	}

	// Resource tables exist on a legacy database; a fresh database gets them
	// here so that ownership columns always have a home.
	for _, m := range []interface{}{&models.Article{}, &models.ScraperProfile{}} {
		if !tx.Migrator().HasTable(m) {
			if err := tx.Migrator().CreateTable(m); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}
	}

	// Ownership columns on pre-existing resource tables, only if absent.
	if err := e.ensureOwnerColumn(tx, "articles", &models.Article{}); err != nil {
		return err
	}
	if err := e.ensureOwnerColumn(tx, "scraper_profiles", &models.ScraperProfile{}); err != nil {
		return err
	}

	// Seed exactly one admin when the users table is empty.
	adminID, err := e.ensureAdmin(tx)
	if err != nil {
		return err
	}

	// Back-fill ownership of pre-existing rows to the bootstrap admin.
	if err := tx.Exec("UPDATE articles SET user_id = ? WHERE user_id IS NULL", adminID).Error; err != nil {
		return fmt.Errorf("failed to back-fill article ownership: %w", err)
	}
	if err := tx.Exec("UPDATE scraper_profiles SET user_id = ? WHERE user_id IS NULL", adminID).Error; err != nil {
		return fmt.Errorf("failed to back-fill scraper profile ownership: %w", err)
	}

	return nil
}

// applyV201 adds the nullable ip_address column to user_sessions.
func (e *Engine) applyV201(tx *gorm.DB) error {
	has, err := hasColumn(tx, "user_sessions", "ip_address")
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	if err := tx.Migrator().AddColumn(&models.Session{}, "IPAddress"); err != nil {
		return fmt.Errorf("failed to add ip_address column: %w", err)
	}
	return nil
}

func (e *Engine) ensureOwnerColumn(tx *gorm.DB, table string, model interface{}) error {
	has, err := hasColumn(tx, table, "user_id")
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	if err := tx.Migrator().AddColumn(model, "UserID"); err != nil {
		return fmt.Errorf("failed to add user_id to %s: %w", table, err)
	}
	return nil
}

func (e *Engine) ensureAdmin(tx *gorm.DB) (uint, error) {
	var count int64
	if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		var admin models.User
		if err := tx.Where("role = ?", "admin").Order("id").First(&admin).Error; err != nil {
			return 0, fmt.Errorf("users exist but no admin found: %w", err)
		}
		return admin.ID, nil
	}

	hash, err := auth.HashPassword(e.cfg.Bootstrap.AdminPassword, e.cfg.Security.BcryptCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash bootstrap password: %w", err)
	}
	admin := models.User{
		Username:     e.cfg.Bootstrap.AdminUsername,
		PasswordHash: hash,
		Role:         "admin",
		IsActive:     true,
	}
	if err := tx.Create(&admin).Error; err != nil {
		return 0, fmt.Errorf("failed to seed admin user: %w", err)
	}
	return admin.ID, nil
}

// compareVersions orders dotted version strings component by component, so
// "2.0.10" sorts after "2.0.9". The empty string (legacy) sorts before
// everything.
func compareVersions(a, b string) int {
	if a == b {
		return 0
	}
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var an, bn int
		if i < len(as) {
			an, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bn, _ = strconv.Atoi(bs[i])
		}
		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
	}
	return 0
}

// VerifySchema compares the expected table set against the database catalog.
// A missing table is a hard failure; unexpected extra tables are logged and
// tolerated.
func (e *Engine) VerifySchema() error {
	present, err := e.tableNames()
	if err != nil {
		return err
	}

	have := make(map[string]bool, len(present))
	for _, name := range present {
		have[name] = true
	}

	var missing []string
	for _, want := range expectedTables {
		if !have[want] {
			missing = append(missing, want)
		}
		delete(have, want)
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema verification failed, missing tables: %s", strings.Join(missing, ", "))
	}

	for name := range have {
		e.log.Warnw("unexpected table in schema", "table", name)
	}
	return nil
}

func (e *Engine) tableNames() ([]string, error) {
	var names []string
	var err error
	switch e.db.Dialector.Name() {
	case "sqlite":
		err = e.db.Raw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'",
		).Scan(&names).Error
	default:
		err = e.db.Raw(
			"SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE()",
		).Scan(&names).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}

func (e *Engine) hasTable(name string) (bool, error) {
	var count int64
	var err error
	switch e.db.Dialector.Name() {
	case "sqlite":
		err = e.db.Raw(
			"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
		).Scan(&count).Error
	default:
		err = e.db.Raw(
			"SELECT count(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", name,
		).Scan(&count).Error
	}
	if err != nil {
		return false, fmt.Errorf("failed to probe table %s: %w", name, err)
	}
	return count > 0, nil
}

// hasColumn probes for a column with a trivial SELECT and classifies the
// driver's missing-column error, so detection works the same on every
// database the schema has ever lived on.
func hasColumn(tx *gorm.DB, table, column string) (bool, error) {
	err := tx.Exec(fmt.Sprintf("SELECT %s FROM %s LIMIT 1", column, table)).Error
	if err == nil {
		return true, nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such column") || strings.Contains(msg, "unknown column") {
		return false, nil
	}
	return false, fmt.Errorf("failed to probe column %s.%s: %w", table, column, err)
}
