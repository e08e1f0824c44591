package handlers

import (
	"net/http"

	"wordcards/internal/audio"
	"wordcards/internal/catalog"
	"wordcards/internal/models"
)

// CatalogHandler serves the read-only word catalog
type CatalogHandler struct {
	catalog *catalog.Catalog
	tts     *audio.TTSService
}

// NewCatalogHandler creates a new catalog handler. tts may be nil, which
// turns pronunciation audio off.
func NewCatalogHandler(cat *catalog.Catalog, tts *audio.TTSService) *CatalogHandler {
	return &CatalogHandler{catalog: cat, tts: tts}
}

type categoryListItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	WordCount   int    `json:"word_count"`
}

// ListCategories lists categories without their words
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.catalog.ListCategories()
	items := make([]categoryListItem, 0, len(categories))
	for _, c := range categories {
		items = append(items, categoryListItem{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Icon:        c.Icon,
			WordCount:   len(c.Words),
		})
	}
	respondJSON(w, http.StatusOK, items)
}

// GetCategory returns one category with its words, optionally only those
// of one difficulty
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	category, err := h.catalog.Category(id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Category not found", "", nil)
		return
	}

	difficulty := r.URL.Query().Get("difficulty")
	if difficulty == "" {
		respondJSON(w, http.StatusOK, category)
		return
	}
	if !models.IsValidDifficulty(difficulty) {
		respondWithError(w, http.StatusBadRequest, "Invalid difficulty", "", nil)
		return
	}

	filtered := *category
	filtered.Words = []models.Word{}
	for _, word := range category.Words {
		if word.Difficulty == difficulty {
			filtered.Words = append(filtered.Words, word)
		}
	}
	respondJSON(w, http.StatusOK, filtered)
}

// WordAudio serves the pronunciation of a word as MP3
func (h *CatalogHandler) WordAudio(w http.ResponseWriter, r *http.Request) {
	if h.tts == nil {
		respondWithError(w, http.StatusNotFound, "Audio not available", "", nil)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	word, err := h.catalog.GetWord(id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Word not found", "", nil)
		return
	}

	path, err := h.tts.WordAudioPath(r.Context(), *word)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Audio generation failed", "Error generating word audio", err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
