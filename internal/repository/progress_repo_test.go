package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"wordcards/internal/database"
	"wordcards/internal/models"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestLoadWithoutProgress(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))

	_, err := repo.Load(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertWord(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))
	ctx := context.Background()

	w, err := repo.UpsertWord(ctx, "alice", 1, 1, "Basics", testTime)
	if err != nil {
		t.Fatalf("UpsertWord() error = %v", err)
	}
	if !w.Learned || w.ReviewCount != 1 {
		t.Errorf("first UpsertWord() = %+v, want learned with one review", w)
	}

	later := testTime.Add(2 * time.Hour)
	w, err = repo.UpsertWord(ctx, "alice", 1, 1, "Basics", later)
	if err != nil {
		t.Fatalf("second UpsertWord() error = %v", err)
	}
	if w.ReviewCount != 2 {
		t.Errorf("ReviewCount = %d, want 2", w.ReviewCount)
	}
	if !w.LastReviewDate.Equal(later) {
		t.Errorf("LastReviewDate = %v, want %v", w.LastReviewDate, later)
	}

	ids, err := repo.ListCategoryIDs(ctx, "alice")
	if err != nil {
		t.Fatalf("ListCategoryIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("ListCategoryIDs() = %v, want [1]", ids)
	}
}

func TestRecomputeCategory(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	if _, err := repo.RecomputeCategory(ctx, "alice", 1, testTime); !errors.Is(err, ErrNotFound) {
		t.Errorf("RecomputeCategory() on missing row error = %v, want ErrNotFound", err)
	}

	if _, err := repo.UpsertWord(ctx, "alice", 1, 1, "Basics", testTime); err != nil {
		t.Fatalf("UpsertWord() error = %v", err)
	}
	cat, err := repo.RecomputeCategory(ctx, "alice", 1, testTime)
	if err != nil {
		t.Fatalf("RecomputeCategory() error = %v", err)
	}
	if cat.Progress != 100 || cat.Name != "Basics" {
		t.Errorf("RecomputeCategory() = %+v, want Basics at 100%%", cat)
	}

	// Rows restored from older data may be tracked without being learned
	insert := `
		INSERT INTO word_progress (account_id, category_id, word_id, learned, review_count, last_review_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, wordID := range []int64{2, 3} {
		if _, err := db.ExecContext(ctx, insert, "alice", 1, wordID, false, 1, testTime, testTime); err != nil {
			t.Fatalf("failed to insert unlearned word: %v", err)
		}
	}

	cat, err = repo.RecomputeCategory(ctx, "alice", 1, testTime)
	if err != nil {
		t.Fatalf("RecomputeCategory() error = %v", err)
	}
	if cat.Progress != 33 {
		t.Errorf("Progress = %d, want 33", cat.Progress)
	}

	if _, err := repo.UpsertWord(ctx, "alice", 1, 2, "Basics", testTime); err != nil {
		t.Fatalf("UpsertWord() error = %v", err)
	}
	cat, err = repo.RecomputeCategory(ctx, "alice", 1, testTime)
	if err != nil {
		t.Fatalf("RecomputeCategory() error = %v", err)
	}
	if cat.Progress != 67 {
		t.Errorf("Progress = %d, want 67", cat.Progress)
	}

	snapshot, err := repo.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := snapshot.Category(1).Progress; got != 67 {
		t.Errorf("stored progress = %d, want 67", got)
	}
}

func TestTouchAccountDay(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.UpsertWord(ctx, "alice", 1, 1, "Basics", testTime); err != nil {
		t.Fatalf("UpsertWord() error = %v", err)
	}

	steps := []struct {
		name     string
		day      string
		wantDays int
		wantLast string
	}{
		{name: "first study day", day: "2026-03-14", wantDays: 1, wantLast: "2026-03-14"},
		{name: "same day again", day: "2026-03-14", wantDays: 1, wantLast: "2026-03-14"},
		{name: "next day", day: "2026-03-15", wantDays: 2, wantLast: "2026-03-15"},
		{name: "earlier day is ignored", day: "2026-03-10", wantDays: 2, wantLast: "2026-03-15"},
		{name: "after a gap", day: "2026-04-01", wantDays: 3, wantLast: "2026-04-01"},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			p, err := repo.TouchAccountDay(ctx, "alice", step.day, testTime)
			if err != nil {
				t.Fatalf("TouchAccountDay() error = %v", err)
			}
			if p.StudiedDays != step.wantDays {
				t.Errorf("StudiedDays = %d, want %d", p.StudiedDays, step.wantDays)
			}
			if p.LastStudyDate != step.wantLast {
				t.Errorf("LastStudyDate = %q, want %q", p.LastStudyDate, step.wantLast)
			}
			if p.TotalWords != 1 {
				t.Errorf("TotalWords = %d, want 1", p.TotalWords)
			}
		})
	}
}

func TestLoadOrdering(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))
	ctx := context.Background()

	marks := []struct {
		categoryID int64
		wordID     int64
		name       string
	}{
		{3, 25, "Food"},
		{1, 7, "Basics"},
		{3, 19, "Food"},
		{1, 2, "Basics"},
	}
	for _, m := range marks {
		if _, err := repo.UpsertWord(ctx, "bob", m.categoryID, m.wordID, m.name, testTime); err != nil {
			t.Fatalf("UpsertWord() error = %v", err)
		}
	}

	p, err := repo.Load(ctx, "bob")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.StudiedDays != 0 || p.TotalWords != 0 {
		t.Errorf("account totals = %d days, %d words, want zero before any day is touched", p.StudiedDays, p.TotalWords)
	}
	if len(p.Categories) != 2 || p.Categories[0].CategoryID != 1 || p.Categories[1].CategoryID != 3 {
		t.Fatalf("categories out of order: %+v", p.Categories)
	}
	if p.Categories[0].Words[0].WordID != 2 || p.Categories[0].Words[1].WordID != 7 {
		t.Errorf("basics words out of order: %+v", p.Categories[0].Words)
	}
	if p.Categories[1].Words[0].WordID != 19 || p.Categories[1].Words[1].WordID != 25 {
		t.Errorf("food words out of order: %+v", p.Categories[1].Words)
	}

	ids, err := repo.ListAccountIDs(ctx)
	if err != nil {
		t.Fatalf("ListAccountIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "bob" {
		t.Errorf("ListAccountIDs() = %v, want [bob]", ids)
	}
}

func TestAccountsAreIsolated(t *testing.T) {
	repo := NewProgressRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.UpsertWord(ctx, "alice", 1, 1, "Basics", testTime); err != nil {
		t.Fatalf("UpsertWord() error = %v", err)
	}
	if _, err := repo.TouchAccountDay(ctx, "alice", "2026-03-14", testTime); err != nil {
		t.Fatalf("TouchAccountDay() error = %v", err)
	}

	if _, err := repo.Load(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(bob) error = %v, want ErrNotFound", err)
	}
}

func TestRefreshTotals(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	if _, err := repo.TouchAccountDay(ctx, "alice", "2026-03-14", testTime); err != nil {
		t.Fatalf("TouchAccountDay() error = %v", err)
	}
	for _, wordID := range []int64{1, 2} {
		if _, err := repo.UpsertWord(ctx, "alice", 1, wordID, "Basics", testTime); err != nil {
			t.Fatalf("UpsertWord() error = %v", err)
		}
	}

	if err := repo.RefreshTotals(ctx, "alice", testTime); err != nil {
		t.Fatalf("RefreshTotals() error = %v", err)
	}
	p, err := repo.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.TotalWords != 2 || p.StudiedDays != 1 {
		t.Errorf("after RefreshTotals() = %d words, %d days, want 2 words, 1 day", p.TotalWords, p.StudiedDays)
	}
}

func TestReplaceAccount(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	if _, err := repo.UpsertWord(ctx, "alice", 2, 9, "Numbers", testTime); err != nil {
		t.Fatalf("UpsertWord() error = %v", err)
	}

	snapshot := &models.AccountProgress{
		AccountID:     "alice",
		StudiedDays:   4,
		LastStudyDate: "2026-03-01",
		TotalWords:    1,
		Categories: []models.CategoryProgress{
			{
				CategoryID: 1,
				Name:       "Basics",
				Progress:   50,
				Words: []models.WordProgress{
					{CategoryID: 1, WordID: 1, Learned: true, ReviewCount: 3, LastReviewDate: testTime},
					{CategoryID: 1, WordID: 2, Learned: false, ReviewCount: 1, LastReviewDate: testTime},
				},
			},
		},
	}

	err := db.WithTx(ctx, func(tx *database.Tx) error {
		return NewProgressRepository(tx).ReplaceAccount(ctx, snapshot, testTime)
	})
	if err != nil {
		t.Fatalf("ReplaceAccount() error = %v", err)
	}

	p, err := repo.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.StudiedDays != 4 || p.LastStudyDate != "2026-03-01" {
		t.Errorf("restored account = %+v", p)
	}
	if len(p.Categories) != 1 || p.Categories[0].CategoryID != 1 {
		t.Fatalf("restored categories = %+v, want only Basics", p.Categories)
	}
	if w := p.Categories[0].Word(2); w == nil || w.Learned {
		t.Errorf("restored word 2 = %+v, want tracked but not learned", w)
	}
}
