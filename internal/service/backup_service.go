package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"wordcards/internal/database"
	"wordcards/internal/models"
	"wordcards/internal/repository"
)

const backupVersion = "1.0"

// BackupData is the JSON document written by Export and read by Import
type BackupData struct {
	Version      string                   `json:"version"`
	ExportedAt   time.Time                `json:"exported_at"`
	DatabaseType string                   `json:"database_type"`
	Accounts     []AccountBackup          `json:"accounts"`
	Progress     []models.AccountProgress `json:"progress"`
}

// AccountBackup carries the fields of an account the API hides
type AccountBackup struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"password_hash"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a complete backup to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.MigrationsSubdir(),
		Accounts:     []AccountBackup{},
		Progress:     []models.AccountProgress{},
	}

	accounts, err := repository.NewAccountRepository(s.db).ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to export accounts: %w", err)
	}
	for _, a := range accounts {
		backup.Accounts = append(backup.Accounts, AccountBackup{
			ID:            a.ID,
			Email:         a.Email,
			Username:      a.Username,
			PasswordHash:  a.PasswordHash,
			OAuthProvider: a.OAuthProvider,
			OAuthSubject:  a.OAuthSubject,
			CreatedAt:     a.CreatedAt,
			UpdatedAt:     a.UpdatedAt,
		})
	}

	progressRepo := repository.NewProgressRepository(s.db)
	ids, err := progressRepo.ListAccountIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to export progress: %w", err)
	}
	for _, id := range ids {
		p, err := progressRepo.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to export progress of %s: %w", id, err)
		}
		backup.Progress = append(backup.Progress, *p)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d accounts, %d progress records", len(backup.Accounts), len(backup.Progress))
	return nil
}

// Import restores a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup in one transaction. Accounts that
// already exist are kept; progress of every account in the backup is
// replaced, then each category percentage and total is recomputed from the
// restored rows.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	now := time.Now().UTC()
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		accounts := repository.NewAccountRepository(tx)
		for _, a := range backup.Accounts {
			existing, err := accounts.GetAccountByID(ctx, a.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			err = accounts.CreateAccount(ctx, &models.Account{
				ID:            a.ID,
				Email:         a.Email,
				Username:      a.Username,
				PasswordHash:  a.PasswordHash,
				OAuthProvider: a.OAuthProvider,
				OAuthSubject:  a.OAuthSubject,
				CreatedAt:     a.CreatedAt,
				UpdatedAt:     a.UpdatedAt,
			})
			if err != nil {
				return fmt.Errorf("failed to import account %s: %w", a.ID, err)
			}
		}

		progress := repository.NewProgressRepository(tx)
		for i := range backup.Progress {
			p := &backup.Progress[i]
			if p.AccountID == "" {
				return fmt.Errorf("progress record %d has no account id", i)
			}
			if err := progress.ReplaceAccount(ctx, p, now); err != nil {
				return err
			}
			for _, c := range p.Categories {
				if _, err := progress.RecomputeCategory(ctx, p.AccountID, c.CategoryID, now); err != nil {
					return fmt.Errorf("failed to recompute category %d of %s: %w", c.CategoryID, p.AccountID, err)
				}
			}
			if err := progress.RefreshTotals(ctx, p.AccountID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Database import completed: %d accounts, %d progress records", len(backup.Accounts), len(backup.Progress))
	return nil
}
