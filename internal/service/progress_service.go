package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wordcards/internal/catalog"
	"wordcards/internal/metrics"
	"wordcards/internal/models"
	"wordcards/internal/repository"
)

// ProgressStore is the durable home of learning progress
type ProgressStore interface {
	Load(ctx context.Context, accountID string) (*models.AccountProgress, error)
	UpsertWord(ctx context.Context, accountID string, categoryID, wordID int64, categoryName string, at time.Time) (*models.WordProgress, error)
	RecomputeCategory(ctx context.Context, accountID string, categoryID int64, at time.Time) (*models.CategoryProgress, error)
	TouchAccountDay(ctx context.Context, accountID, day string, at time.Time) (*models.AccountProgress, error)
	RefreshTotals(ctx context.Context, accountID string, at time.Time) error
	ListAccountIDs(ctx context.Context) ([]string, error)
	ListCategoryIDs(ctx context.Context, accountID string) ([]int64, error)
}

// ProgressService sequences store operations for the learning use-cases
type ProgressService struct {
	store        ProgressStore
	catalog      *catalog.Catalog
	location     *time.Location
	storeTimeout time.Duration
	now          func() time.Time
}

// NewProgressService creates a new progress service. Study days are counted
// as calendar days in loc.
func NewProgressService(store ProgressStore, cat *catalog.Catalog, loc *time.Location, storeTimeout time.Duration) *ProgressService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressService{
		store:        store,
		catalog:      cat,
		location:     loc,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// SetClock replaces the time source
func (s *ProgressService) SetClock(now func() time.Time) {
	s.now = now
}

// step runs one store operation under its own timeout. Anything but
// ErrNotFound comes back as ErrStoreUnavailable.
func (s *ProgressService) step(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	stepCtx := ctx
	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(stepCtx)
	metrics.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err == nil || errors.Is(err, repository.ErrNotFound) {
		return err
	}
	metrics.StoreErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// MarkWordLearned records a learning event and returns the refreshed snapshot.
// The word row, the category percentage and the account day counter are
// written in that order, each after the previous one is durable.
func (s *ProgressService) MarkWordLearned(ctx context.Context, accountID string, categoryID, wordID int64) (*models.AccountProgress, error) {
	if accountID == "" {
		return nil, ErrMissingAccount
	}

	if err := s.checkReference(categoryID, wordID); err != nil {
		return nil, err
	}
	categoryName, _ := s.catalog.CategoryName(categoryID)

	at := s.now()
	day := at.In(s.location).Format(models.StudyDateLayout)

	err := s.step(ctx, "upsert_word", func(ctx context.Context) error {
		_, err := s.store.UpsertWord(ctx, accountID, categoryID, wordID, categoryName, at)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.step(ctx, "recompute_category", func(ctx context.Context) error {
		_, err := s.store.RecomputeCategory(ctx, accountID, categoryID, at)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.step(ctx, "touch_account_day", func(ctx context.Context) error {
		_, err := s.store.TouchAccountDay(ctx, accountID, day, at)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.WordsMarkedLearned.Inc()
	return s.GetProgressSnapshot(ctx, accountID)
}

// GetProgressSnapshot returns the account's progress. A learner with no
// history gets an empty snapshot rather than an error.
func (s *ProgressService) GetProgressSnapshot(ctx context.Context, accountID string) (*models.AccountProgress, error) {
	if accountID == "" {
		return nil, ErrMissingAccount
	}

	var progress *models.AccountProgress
	err := s.step(ctx, "load", func(ctx context.Context) error {
		var err error
		progress, err = s.store.Load(ctx, accountID)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewEmptyProgress(accountID), nil
	}
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// GetWordStatus returns the progress of one word, or nil if never studied
func (s *ProgressService) GetWordStatus(ctx context.Context, accountID string, categoryID, wordID int64) (*models.WordProgress, error) {
	if err := s.checkReference(categoryID, wordID); err != nil {
		return nil, err
	}
	progress, err := s.GetProgressSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cat := progress.Category(categoryID); cat != nil {
		return cat.Word(wordID), nil
	}
	return nil, nil
}

// GetCategoryProgress returns the progress of one category, or nil if never studied
func (s *ProgressService) GetCategoryProgress(ctx context.Context, accountID string, categoryID int64) (*models.CategoryProgress, error) {
	if _, err := s.catalog.Category(categoryID); err != nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, categoryID)
	}
	progress, err := s.GetProgressSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return progress.Category(categoryID), nil
}

// ListStudiedCategories summarises every category the account has touched
func (s *ProgressService) ListStudiedCategories(ctx context.Context, accountID string) ([]models.CategorySummary, error) {
	progress, err := s.GetProgressSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.CategorySummary, 0, len(progress.Categories))
	for _, c := range progress.Categories {
		summaries = append(summaries, models.CategorySummary{
			CategoryID:   c.CategoryID,
			Name:         c.Name,
			Progress:     c.Progress,
			Tracked:      len(c.Words),
			Learned:      c.LearnedCount(),
			CatalogWords: s.catalog.WordCount(c.CategoryID),
		})
	}
	return summaries, nil
}

// Achievements derives the milestone list from the account's progress
func (s *ProgressService) Achievements(ctx context.Context, accountID string) ([]models.Achievement, error) {
	progress, err := s.GetProgressSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	mastered := 0
	for _, c := range progress.Categories {
		catalogWords := s.catalog.WordCount(c.CategoryID)
		if catalogWords > 0 && c.LearnedCount() >= catalogWords {
			mastered++
		}
	}

	threshold := func(id, title, description string, value, target int) models.Achievement {
		return models.Achievement{
			ID:          id,
			Title:       title,
			Description: description,
			Unlocked:    value >= target,
			Progress:    min(value, target),
			Target:      target,
		}
	}

	return []models.Achievement{
		threshold("first-word", "Beginner", "Learned your first word", progress.TotalWords, 1),
		threshold("ten-words", "Word Collector", "Learned 10 words", progress.TotalWords, 10),
		threshold("fifty-words", "Vocabulary Master", "Learned 50 words", progress.TotalWords, 50),
		threshold("three-days", "Persistent", "Studied on 3 days", progress.StudiedDays, 3),
		threshold("seven-days", "Dedicated Learner", "Studied on 7 days", progress.StudiedDays, 7),
		threshold("category-master", "Vocabulary Star", "Learned every word of a category", mastered, 1),
	}, nil
}

// Reconcile recomputes every category of an account and refreshes its total.
// Study days are left alone.
func (s *ProgressService) Reconcile(ctx context.Context, accountID string) error {
	var categoryIDs []int64
	err := s.step(ctx, "list_categories", func(ctx context.Context) error {
		var err error
		categoryIDs, err = s.store.ListCategoryIDs(ctx, accountID)
		return err
	})
	if err != nil {
		return err
	}

	at := s.now()
	for _, categoryID := range categoryIDs {
		err := s.step(ctx, "recompute_category", func(ctx context.Context) error {
			_, err := s.store.RecomputeCategory(ctx, accountID, categoryID, at)
			return err
		})
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}

	return s.step(ctx, "refresh_totals", func(ctx context.Context) error {
		return s.store.RefreshTotals(ctx, accountID, at)
	})
}

// ReconcileAll reconciles every account with progress. It keeps going past
// per-account failures and returns how many accounts failed.
func (s *ProgressService) ReconcileAll(ctx context.Context) (int, error) {
	var accountIDs []string
	err := s.step(ctx, "list_accounts", func(ctx context.Context) error {
		var err error
		accountIDs, err = s.store.ListAccountIDs(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, accountID := range accountIDs {
		if ctx.Err() != nil {
			return failed, ctx.Err()
		}
		if err := s.Reconcile(ctx, accountID); err != nil {
			log.Printf("Reconcile failed for account %s: %v", accountID, err)
			failed++
		}
	}
	return failed, nil
}

func (s *ProgressService) checkReference(categoryID, wordID int64) error {
	if _, err := s.catalog.Category(categoryID); err != nil {
		return fmt.Errorf("%w: %d", ErrUnknownCategory, categoryID)
	}
	if err := s.catalog.ValidateWord(categoryID, wordID); err != nil {
		return fmt.Errorf("%w: word %d is not in category %d", ErrInvalidReference, wordID, categoryID)
	}
	return nil
}
