package models

// Difficulty levels used by the word catalog
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Category is a named, fixed group of words in the content catalog
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Words       []Word `json:"words"`
}

// WordIDs lists the ids of the category's words in catalog order
func (c *Category) WordIDs() []int64 {
	ids := make([]int64, len(c.Words))
	for i, w := range c.Words {
		ids[i] = w.ID
	}
	return ids
}

// Word is a single flashcard
type Word struct {
	ID                 int64  `json:"id"`
	CategoryID         int64  `json:"category_id"`
	Text               string `json:"text"`
	Translation        string `json:"translation"`
	Pinyin             string `json:"pinyin,omitempty"`
	Example            string `json:"example,omitempty"`
	ExampleTranslation string `json:"example_translation,omitempty"`
	Difficulty         string `json:"difficulty"`
}

// IsValidDifficulty reports whether d is one of the known difficulty levels
func IsValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
