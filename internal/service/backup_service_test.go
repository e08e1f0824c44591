package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"wordcards/internal/repository"
)

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()

	source := openTestDB(t)
	auth := NewAuthService(repository.NewAccountRepository(source), nil, nil, time.Hour)
	account, err := auth.SignUp(ctx, "ann@example.com", "long enough", "Ann")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	progress := NewProgressService(repository.NewProgressRepository(source), defaultCatalog(t), time.UTC, 5*time.Second)
	clock := &testClock{now: day1}
	progress.SetClock(clock.Now)
	for _, m := range [][2]int64{{1, 1}, {1, 2}, {2, 9}} {
		if _, err := progress.MarkWordLearned(ctx, account.ID, m[0], m[1]); err != nil {
			t.Fatalf("MarkWordLearned() error = %v", err)
		}
		clock.Advance(24 * time.Hour)
	}
	want, err := progress.GetProgressSnapshot(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetProgressSnapshot() error = %v", err)
	}

	var buf bytes.Buffer
	if err := NewBackupService(source).ExportToWriter(ctx, &buf); err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}

	target := openTestDB(t)
	if err := NewBackupService(target).ImportFromReader(ctx, &buf); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}

	restoredAccount, err := repository.NewAccountRepository(target).GetAccountByEmail(ctx, "ann@example.com")
	if err != nil || restoredAccount == nil {
		t.Fatalf("GetAccountByEmail() = %+v, %v", restoredAccount, err)
	}
	if restoredAccount.PasswordHash != account.PasswordHash {
		t.Error("password hash was not restored")
	}

	got, err := repository.NewProgressRepository(target).Load(ctx, account.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.StudiedDays != want.StudiedDays || got.TotalWords != want.TotalWords || got.LastStudyDate != want.LastStudyDate {
		t.Errorf("restored account progress = %+v, want %+v", got, want)
	}
	if len(got.Categories) != len(want.Categories) {
		t.Fatalf("restored %d categories, want %d", len(got.Categories), len(want.Categories))
	}
	for _, c := range want.Categories {
		restored := got.Category(c.CategoryID)
		if restored == nil || restored.Progress != c.Progress || len(restored.Words) != len(c.Words) {
			t.Errorf("category %d restored as %+v, want %+v", c.CategoryID, restored, c)
		}
	}
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	db := openTestDB(t)

	err := NewBackupService(db).ImportFromReader(context.Background(), strings.NewReader(`{"version":"0.1"}`))
	if err == nil {
		t.Error("ImportFromReader() should reject an unknown version")
	}
}
