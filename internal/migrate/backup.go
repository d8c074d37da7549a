package migrate

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BackupService creates pre-migration database backups. The migration engine
// itself never writes files; production call sites back up a legacy database
// before invoking Run, while test suites migrate throwaway databases without
// file-system side effects.
type BackupService struct {
	backupsPath string
}

type BackupFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func NewBackupService(backupsPath string) *BackupService {
	return &BackupService{
		backupsPath: backupsPath,
	}
}

// BackupSQLite copies the database file into the backups directory with a
// timestamped name and returns the backup path.
func (s *BackupService) BackupSQLite(dbPath, label string) (string, error) {
	if label == "" {
		label = "backup"
	}
	name := fmt.Sprintf("%s_%s_%s", filepath.Base(dbPath), label, time.Now().Format("20060102T150405"))
	outputPath := filepath.Join(s.backupsPath, name)

	src, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy database file: %w", err)
	}

	return outputPath, nil
}

// BackupMySQL dumps a MySQL database with mysqldump and gzips the result.
func (s *BackupService) BackupMySQL(database, label string) (string, error) {
	if label == "" {
		label = "backup"
	}
	name := fmt.Sprintf("%s_%s_%s.sql.gz", database, label, time.Now().Format("20060102T150405"))
	outputPath := filepath.Join(s.backupsPath, name)

	cmd := exec.Command("mysqldump", "--single-transaction", "--routines", "--triggers", database)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to dump database: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	if _, err := gzWriter.Write(output); err != nil {
		return "", fmt.Errorf("failed to compress backup: %w", err)
	}

	return outputPath, nil
}

// ListBackups returns the backup files on disk.
func (s *BackupService) ListBackups() ([]BackupFile, error) {
	files, err := os.ReadDir(s.backupsPath)
	if err != nil {
		return nil, err
	}

	var backups []BackupFile
	for _, entry := range files {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupFile{
			Name:      entry.Name(),
			Path:      filepath.Join(s.backupsPath, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	return backups, nil
}

// DeleteBackup deletes a backup file by name.
func (s *BackupService) DeleteBackup(backupName string) error {
	backupPath := filepath.Join(s.backupsPath, backupName)
	return os.Remove(backupPath)
}

// CleanOldBackups removes backups older than retention days.
func (s *BackupService) CleanOldBackups(retentionDays int) error {
	backups, err := s.ListBackups()
	if err != nil {
		return err
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)

	for _, backup := range backups {
		if backup.CreatedAt.Before(cutoffTime) {
			if err := s.DeleteBackup(backup.Name); err != nil {
				continue
			}
		}
	}

	return nil
}
