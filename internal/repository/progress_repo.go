package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wordcards/internal/database"
	"wordcards/internal/models"
)

// ErrNotFound is returned when an account has no progress records
var ErrNotFound = errors.New("progress not found")

// ProgressRepository is the only writer of learning progress
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Load returns the full progress snapshot of an account, ordered by
// category id then word id. Accounts with no rows at all yield ErrNotFound.
func (r *ProgressRepository) Load(ctx context.Context, accountID string) (*models.AccountProgress, error) {
	progress := models.NewEmptyProgress(accountID)

	query := `
		SELECT studied_days, COALESCE(last_study_date, ''), total_words
		FROM account_progress
		WHERE account_id = ?
	`
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&progress.StudiedDays,
		&progress.LastStudyDate,
		&progress.TotalWords,
	)
	hasAccountRow := true
	if err == sql.ErrNoRows {
		hasAccountRow = false
	} else if err != nil {
		return nil, fmt.Errorf("failed to load account progress: %w", err)
	}

	categories, err := r.loadCategories(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !hasAccountRow && len(categories) == 0 {
		return nil, ErrNotFound
	}
	progress.Categories = categories

	return progress, nil
}

func (r *ProgressRepository) loadCategories(ctx context.Context, accountID string) ([]models.CategoryProgress, error) {
	query := `
		SELECT category_id, name, progress
		FROM category_progress
		WHERE account_id = ?
		ORDER BY category_id
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category progress: %w", err)
	}
	defer rows.Close()

	categories := []models.CategoryProgress{}
	index := make(map[int64]int)
	for rows.Next() {
		c := models.CategoryProgress{Words: []models.WordProgress{}}
		if err := rows.Scan(&c.CategoryID, &c.Name, &c.Progress); err != nil {
			return nil, fmt.Errorf("failed to scan category progress: %w", err)
		}
		index[c.CategoryID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category progress: %w", err)
	}
	rows.Close()

	words, err := r.loadWords(ctx, "WHERE account_id = ?", accountID)
	if err != nil {
		return nil, err
	}
	for _, w := range words {
		if i, ok := index[w.CategoryID]; ok {
			categories[i].Words = append(categories[i].Words, w)
		}
	}

	return categories, nil
}

func (r *ProgressRepository) loadWords(ctx context.Context, where string, args ...interface{}) ([]models.WordProgress, error) {
	query := `
		SELECT category_id, word_id, learned, review_count, last_review_date
		FROM word_progress
		` + where + `
		ORDER BY category_id, word_id
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query word progress: %w", err)
	}
	defer rows.Close()

	var words []models.WordProgress
	for rows.Next() {
		var w models.WordProgress
		if err := rows.Scan(&w.CategoryID, &w.WordID, &w.Learned, &w.ReviewCount, &w.LastReviewDate); err != nil {
			return nil, fmt.Errorf("failed to scan word progress: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate word progress: %w", err)
	}
	return words, nil
}

// UpsertWord records a review of a word. The parent category row is created
// with categoryName when absent. A new word row starts learned with one review;
// an existing row is marked learned again and its review count bumped.
func (r *ProgressRepository) UpsertWord(ctx context.Context, accountID string, categoryID, wordID int64, categoryName string, at time.Time) (*models.WordProgress, error) {
	dialect := r.db.GetDialect()
	at = at.UTC()

	if _, err := r.db.ExecContext(ctx, dialect.InsertCategoryProgressIfAbsent(), accountID, categoryID, categoryName, at, at); err != nil {
		return nil, fmt.Errorf("failed to ensure category progress: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, dialect.UpsertWordProgress(), accountID, categoryID, wordID, at, at); err != nil {
		return nil, fmt.Errorf("failed to upsert word progress: %w", err)
	}

	words, err := r.loadWords(ctx, "WHERE account_id = ? AND category_id = ? AND word_id = ?", accountID, categoryID, wordID)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word progress %d vanished after upsert", wordID)
	}
	return &words[0], nil
}

// RecomputeCategory counts the tracked and learned words of a category from
// the store and persists the resulting percentage.
func (r *ProgressRepository) RecomputeCategory(ctx context.Context, accountID string, categoryID int64, at time.Time) (*models.CategoryProgress, error) {
	category := &models.CategoryProgress{CategoryID: categoryID}

	query := "SELECT name FROM category_progress WHERE account_id = ? AND category_id = ?"
	err := r.db.QueryRowContext(ctx, query, accountID, categoryID).Scan(&category.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category progress: %w", err)
	}

	words, err := r.loadWords(ctx, "WHERE account_id = ? AND category_id = ?", accountID, categoryID)
	if err != nil {
		return nil, err
	}
	category.Words = words
	if category.Words == nil {
		category.Words = []models.WordProgress{}
	}
	category.Progress = models.ProgressPercent(category.LearnedCount(), len(category.Words))

	update := `
		UPDATE category_progress
		SET progress = ?, updated_at = ?
		WHERE account_id = ? AND category_id = ?
	`
	if _, err := r.db.ExecContext(ctx, update, category.Progress, at.UTC(), accountID, categoryID); err != nil {
		return nil, fmt.Errorf("failed to update category progress: %w", err)
	}

	return category, nil
}

// TouchAccountDay creates the account row when absent, counts day as a study
// day if it is later than the last one recorded, and refreshes total_words.
// Calling it again on the same day changes nothing but the total.
func (r *ProgressRepository) TouchAccountDay(ctx context.Context, accountID, day string, at time.Time) (*models.AccountProgress, error) {
	at = at.UTC()
	if _, err := r.db.ExecContext(ctx, r.db.GetDialect().InsertAccountProgressIfAbsent(), accountID, at, at); err != nil {
		return nil, fmt.Errorf("failed to ensure account progress: %w", err)
	}

	// total_words and studied_days are assigned before last_study_date so
	// MySQL, which applies SET left to right, sees the old date.
	query := `
		UPDATE account_progress
		SET total_words = (
				SELECT COUNT(*) FROM word_progress
				WHERE word_progress.account_id = ? AND word_progress.learned = TRUE
			),
			studied_days = CASE
				WHEN last_study_date IS NULL OR last_study_date < ? THEN studied_days + 1
				ELSE studied_days
			END,
			last_study_date = CASE
				WHEN last_study_date IS NULL OR last_study_date < ? THEN ?
				ELSE last_study_date
			END,
			updated_at = ?
		WHERE account_id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, day, day, day, at, accountID); err != nil {
		return nil, fmt.Errorf("failed to update study day: %w", err)
	}

	return r.loadAccountRow(ctx, accountID)
}

// RefreshTotals recounts total_words without touching study days
func (r *ProgressRepository) RefreshTotals(ctx context.Context, accountID string, at time.Time) error {
	query := `
		UPDATE account_progress
		SET total_words = (
				SELECT COUNT(*) FROM word_progress
				WHERE word_progress.account_id = ? AND word_progress.learned = TRUE
			),
			updated_at = ?
		WHERE account_id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, at.UTC(), accountID); err != nil {
		return fmt.Errorf("failed to refresh totals: %w", err)
	}
	return nil
}

func (r *ProgressRepository) loadAccountRow(ctx context.Context, accountID string) (*models.AccountProgress, error) {
	progress := models.NewEmptyProgress(accountID)
	query := `
		SELECT studied_days, COALESCE(last_study_date, ''), total_words
		FROM account_progress
		WHERE account_id = ?
	`
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&progress.StudiedDays,
		&progress.LastStudyDate,
		&progress.TotalWords,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account progress: %w", err)
	}
	return progress, nil
}

// ListAccountIDs returns every account that has category progress
func (r *ProgressRepository) ListAccountIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT account_id FROM category_progress ORDER BY account_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list progress accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListCategoryIDs returns the categories an account has progress in
func (r *ProgressRepository) ListCategoryIDs(ctx context.Context, accountID string) ([]int64, error) {
	query := "SELECT category_id FROM category_progress WHERE account_id = ? ORDER BY category_id"
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceAccount overwrites every progress row of an account with the given
// snapshot. Used when restoring backups; run it inside a transaction.
func (r *ProgressRepository) ReplaceAccount(ctx context.Context, p *models.AccountProgress, at time.Time) error {
	at = at.UTC()
	for _, stmt := range []string{
		"DELETE FROM word_progress WHERE account_id = ?",
		"DELETE FROM category_progress WHERE account_id = ?",
		"DELETE FROM account_progress WHERE account_id = ?",
	} {
		if _, err := r.db.ExecContext(ctx, stmt, p.AccountID); err != nil {
			return fmt.Errorf("failed to clear progress of %s: %w", p.AccountID, err)
		}
	}

	var lastStudyDate interface{}
	if p.LastStudyDate != "" {
		lastStudyDate = p.LastStudyDate
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account_progress (account_id, studied_days, last_study_date, total_words, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.AccountID, p.StudiedDays, lastStudyDate, p.TotalWords, at, at)
	if err != nil {
		return fmt.Errorf("failed to restore account progress: %w", err)
	}

	for _, c := range p.Categories {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO category_progress (account_id, category_id, name, progress, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.AccountID, c.CategoryID, c.Name, c.Progress, at, at)
		if err != nil {
			return fmt.Errorf("failed to restore category %d: %w", c.CategoryID, err)
		}

		for _, w := range c.Words {
			_, err := r.db.ExecContext(ctx, `
				INSERT INTO word_progress (account_id, category_id, word_id, learned, review_count, last_review_date, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, p.AccountID, c.CategoryID, w.WordID, w.Learned, w.ReviewCount, w.LastReviewDate.UTC(), at)
			if err != nil {
				return fmt.Errorf("failed to restore word %d: %w", w.WordID, err)
			}
		}
	}

	return nil
}
