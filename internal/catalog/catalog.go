// Package catalog holds the read-only word content learners study from.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"wordcards/internal/models"
)

//go:embed data/words.json
var defaultData []byte

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrWordNotFound     = errors.New("word not found in category")
)

// Catalog is an immutable set of categories and their words
type Catalog struct {
	categories []models.Category
	byID       map[int64]*models.Category
	words      map[int64]*models.Word
}

// Default returns the catalog bundled with the binary
func Default() (*Catalog, error) {
	var categories []models.Category
	dec := json.NewDecoder(bytes.NewReader(defaultData))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&categories); err != nil {
		return nil, fmt.Errorf("failed to decode embedded catalog: %w", err)
	}
	return New(categories)
}

// Load reads a catalog from an .xlsx or .csv file. An empty path
// falls back to the embedded dataset.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readExcel(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported catalog file type: %s", path)
	}
	if err != nil {
		return nil, err
	}

	categories, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	c, err := New(categories)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded catalog from %s: %d categories, %d words", path, len(c.categories), len(c.words))
	return c, nil
}

// New builds a catalog, checking that ids are positive and unique
func New(categories []models.Category) (*Catalog, error) {
	c := &Catalog{
		byID:  make(map[int64]*models.Category, len(categories)),
		words: make(map[int64]*models.Word),
	}

	c.categories = make([]models.Category, len(categories))
	copy(c.categories, categories)
	sort.SliceStable(c.categories, func(i, j int) bool {
		return c.categories[i].ID < c.categories[j].ID
	})

	for i := range c.categories {
		cat := &c.categories[i]
		if cat.ID <= 0 {
			return nil, fmt.Errorf("category %q has invalid id %d", cat.Name, cat.ID)
		}
		if strings.TrimSpace(cat.Name) == "" {
			return nil, fmt.Errorf("category %d has no name", cat.ID)
		}
		if _, dup := c.byID[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %d", cat.ID)
		}
		c.byID[cat.ID] = cat

		words := make([]models.Word, len(cat.Words))
		copy(words, cat.Words)
		cat.Words = words
		for j := range cat.Words {
			w := &cat.Words[j]
			if w.ID <= 0 {
				return nil, fmt.Errorf("word %q in category %d has invalid id %d", w.Text, cat.ID, w.ID)
			}
			if _, dup := c.words[w.ID]; dup {
				return nil, fmt.Errorf("duplicate word id %d", w.ID)
			}
			if w.Difficulty == "" {
				w.Difficulty = models.DifficultyEasy
			}
			if !models.IsValidDifficulty(w.Difficulty) {
				return nil, fmt.Errorf("word %d has unknown difficulty %q", w.ID, w.Difficulty)
			}
			w.CategoryID = cat.ID
			c.words[w.ID] = w
		}
	}

	return c, nil
}

// ListCategories returns every category in id order
func (c *Catalog) ListCategories() []models.Category {
	out := make([]models.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Category looks up a category by id
func (c *Catalog) Category(id int64) (*models.Category, error) {
	cat, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrCategoryNotFound, id)
	}
	return cat, nil
}

// CategoryName returns the display name of a category
func (c *Catalog) CategoryName(id int64) (string, error) {
	cat, err := c.Category(id)
	if err != nil {
		return "", err
	}
	return cat.Name, nil
}

// GetWord looks up a word by its catalog-wide id
func (c *Catalog) GetWord(id int64) (*models.Word, error) {
	w, ok := c.words[id]
	if !ok {
		return nil, fmt.Errorf("%w: word %d", ErrWordNotFound, id)
	}
	return w, nil
}

// ValidateWord checks that wordID is one of the words of categoryID
func (c *Catalog) ValidateWord(categoryID, wordID int64) error {
	if _, err := c.Category(categoryID); err != nil {
		return err
	}
	w, ok := c.words[wordID]
	if !ok || w.CategoryID != categoryID {
		return fmt.Errorf("%w: word %d, category %d", ErrWordNotFound, wordID, categoryID)
	}
	return nil
}

// WordCount returns how many words a category holds, 0 for unknown ids
func (c *Catalog) WordCount(categoryID int64) int {
	if cat, ok := c.byID[categoryID]; ok {
		return len(cat.Words)
	}
	return 0
}
