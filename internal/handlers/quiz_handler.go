package handlers

import (
	"net/http"
	"strconv"

	"wordcards/internal/models"
	"wordcards/internal/service"
)

const defaultQuizSize = 5

// QuizHandler serves multiple-choice quizzes
type QuizHandler struct {
	quizService     *service.QuizService
	progressService *service.ProgressService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService *service.QuizService, progressService *service.ProgressService) *QuizHandler {
	return &QuizHandler{
		quizService:     quizService,
		progressService: progressService,
	}
}

type submitAnswersRequest struct {
	Answers     []models.QuizAnswer `json:"answers" validate:"required,min=1,max=100"`
	MarkLearned bool                `json:"mark_learned"`
}

type submitAnswersResponse struct {
	*models.QuizResult
	Progress *models.AccountProgress `json:"progress,omitempty"`
}

// GetQuiz builds a quiz for a category. ?n= sets the number of questions.
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	n := defaultQuizSize
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid question count", "", nil)
			return
		}
	}

	questions, err := h.quizService.NewQuiz(categoryID, n)
	if err != nil {
		respondWithServiceError(w, "Error building quiz", err)
		return
	}
	respondJSON(w, http.StatusOK, questions)
}

// SubmitAnswers grades a quiz. With mark_learned, every correctly answered
// word is recorded as learned.
func (h *QuizHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryId")
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	var req submitAnswersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	result, err := h.quizService.Grade(categoryID, req.Answers)
	if err != nil {
		respondWithServiceError(w, "Error grading quiz", err)
		return
	}

	response := submitAnswersResponse{QuizResult: result}
	if req.MarkLearned {
		account := GetAccountFromContext(r.Context())
		for _, wordID := range result.CorrectWords {
			progress, err := h.progressService.MarkWordLearned(r.Context(), account.ID, categoryID, wordID)
			if err != nil {
				respondWithServiceError(w, "Error marking quiz words learned", err)
				return
			}
			response.Progress = progress
		}
	}

	respondJSON(w, http.StatusOK, response)
}
