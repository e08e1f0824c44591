package models

import "time"

// StudyDateLayout is the calendar-day format stored in last_study_date
const StudyDateLayout = "2006-01-02"

// AccountProgress is the full progress snapshot of one account
type AccountProgress struct {
	AccountID     string             `json:"account_id"`
	StudiedDays   int                `json:"studied_days"`
	LastStudyDate string             `json:"last_study_date,omitempty"`
	TotalWords    int                `json:"total_words"`
	Categories    []CategoryProgress `json:"categories"`
}

// NewEmptyProgress returns the snapshot of a learner with no history
func NewEmptyProgress(accountID string) *AccountProgress {
	return &AccountProgress{
		AccountID:  accountID,
		Categories: []CategoryProgress{},
	}
}

// Category returns the progress row for a category, or nil
func (p *AccountProgress) Category(categoryID int64) *CategoryProgress {
	for i := range p.Categories {
		if p.Categories[i].CategoryID == categoryID {
			return &p.Categories[i]
		}
	}
	return nil
}

// CategoryProgress tracks one category for one account
type CategoryProgress struct {
	CategoryID int64          `json:"category_id"`
	Name       string         `json:"name"`
	Progress   int            `json:"progress"`
	Words      []WordProgress `json:"words"`
}

// LearnedCount counts the learned words among the tracked ones
func (c *CategoryProgress) LearnedCount() int {
	learned := 0
	for _, w := range c.Words {
		if w.Learned {
			learned++
		}
	}
	return learned
}

// Word returns the progress row for a word, or nil
func (c *CategoryProgress) Word(wordID int64) *WordProgress {
	for i := range c.Words {
		if c.Words[i].WordID == wordID {
			return &c.Words[i]
		}
	}
	return nil
}

// WordProgress tracks one word for one account
type WordProgress struct {
	CategoryID     int64     `json:"category_id"`
	WordID         int64     `json:"word_id"`
	Learned        bool      `json:"learned"`
	ReviewCount    int       `json:"review_count"`
	LastReviewDate time.Time `json:"last_review_date"`
}

// ProgressPercent rounds 100*learned/tracked half up using integer math.
// A category with nothing tracked is at 0%.
func ProgressPercent(learned, tracked int) int {
	if tracked <= 0 {
		return 0
	}
	if learned > tracked {
		learned = tracked
	}
	return (200*learned + tracked) / (2 * tracked)
}

// CategorySummary is the per-category line shown in study overviews
type CategorySummary struct {
	CategoryID   int64  `json:"category_id"`
	Name         string `json:"name"`
	Progress     int    `json:"progress"`
	Tracked      int    `json:"tracked"`
	Learned      int    `json:"learned"`
	CatalogWords int    `json:"catalog_words"`
}

// Achievement is a milestone unlocked by study activity
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
	Progress    int    `json:"progress"`
	Target      int    `json:"target"`
}
