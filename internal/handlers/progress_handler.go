package handlers

import (
	"net/http"

	"wordcards/internal/service"
)

// ProgressHandler serves the signed-in learner's progress
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// GetProgress returns the full progress snapshot
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	progress, err := h.progressService.GetProgressSnapshot(r.Context(), account.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading progress", err)
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

// ListCategories summarises every studied category
func (h *ProgressHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	summaries, err := h.progressService.ListStudiedCategories(r.Context(), account.ID)
	if err != nil {
		respondWithServiceError(w, "Error listing studied categories", err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// GetCategory returns the progress of one category
func (h *ProgressHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	account := GetAccountFromContext(r.Context())

	category, err := h.progressService.GetCategoryProgress(r.Context(), account.ID, categoryID)
	if err != nil {
		respondWithServiceError(w, "Error loading category progress", err)
		return
	}
	if category == nil {
		respondWithError(w, http.StatusNotFound, "Category not studied yet", "", nil)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// GetWord returns the progress of one word
func (h *ProgressHandler) GetWord(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	wordID, err := pathID(r, "wordId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	account := GetAccountFromContext(r.Context())

	word, err := h.progressService.GetWordStatus(r.Context(), account.ID, categoryID, wordID)
	if err != nil {
		respondWithServiceError(w, "Error loading word progress", err)
		return
	}
	if word == nil {
		respondWithError(w, http.StatusNotFound, "Word not studied yet", "", nil)
		return
	}
	respondJSON(w, http.StatusOK, word)
}

// MarkLearned records that the learner knows a word
func (h *ProgressHandler) MarkLearned(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	wordID, err := pathID(r, "wordId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	account := GetAccountFromContext(r.Context())

	progress, err := h.progressService.MarkWordLearned(r.Context(), account.ID, categoryID, wordID)
	if err != nil {
		respondWithServiceError(w, "Error marking word learned", err)
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

// Achievements lists the learner's milestones
func (h *ProgressHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	achievements, err := h.progressService.Achievements(r.Context(), account.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading achievements", err)
		return
	}
	respondJSON(w, http.StatusOK, achievements)
}
