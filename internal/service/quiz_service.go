package service

import (
	"fmt"
	"math/rand"

	"wordcards/internal/catalog"
	"wordcards/internal/metrics"
	"wordcards/internal/models"
)

const (
	// QuizPassPercent is the lowest score that passes a quiz
	QuizPassPercent  = 70
	quizWrongOptions = 3
)

// QuizService builds and grades multiple-choice translation quizzes
type QuizService struct {
	catalog *catalog.Catalog
	shuffle func(n int, swap func(i, j int))
}

// NewQuizService creates a new quiz service
func NewQuizService(cat *catalog.Catalog) *QuizService {
	return &QuizService{catalog: cat, shuffle: rand.Shuffle}
}

// NewQuiz picks n words of a category in random order, each with the correct
// translation and up to three wrong ones from the same category. n <= 0 means
// every word.
func (s *QuizService) NewQuiz(categoryID int64, n int) ([]models.QuizQuestion, error) {
	category, err := s.catalog.Category(categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, categoryID)
	}

	words := make([]models.Word, len(category.Words))
	copy(words, category.Words)
	s.shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
	if n > 0 && n < len(words) {
		words = words[:n]
	}

	questions := make([]models.QuizQuestion, 0, len(words))
	for _, w := range words {
		questions = append(questions, models.QuizQuestion{
			WordID:  w.ID,
			Prompt:  w.Text,
			Options: s.options(w, category.Words),
		})
	}
	return questions, nil
}

func (s *QuizService) options(word models.Word, pool []models.Word) []string {
	seen := map[string]bool{word.Translation: true}
	var wrong []string
	for _, other := range pool {
		if other.ID == word.ID || seen[other.Translation] {
			continue
		}
		seen[other.Translation] = true
		wrong = append(wrong, other.Translation)
	}
	s.shuffle(len(wrong), func(i, j int) {
		wrong[i], wrong[j] = wrong[j], wrong[i]
	})
	if len(wrong) > quizWrongOptions {
		wrong = wrong[:quizWrongOptions]
	}

	options := append([]string{word.Translation}, wrong...)
	s.shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// Grade scores submitted answers. Each word counts once; a repeated answer
// for the same word is ignored.
func (s *QuizService) Grade(categoryID int64, answers []models.QuizAnswer) (*models.QuizResult, error) {
	if _, err := s.catalog.Category(categoryID); err != nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, categoryID)
	}
	if len(answers) == 0 {
		return nil, ErrNoAnswers
	}

	result := &models.QuizResult{CorrectWords: []int64{}}
	graded := make(map[int64]bool, len(answers))
	for _, a := range answers {
		if graded[a.WordID] {
			continue
		}
		if err := s.catalog.ValidateWord(categoryID, a.WordID); err != nil {
			return nil, fmt.Errorf("%w: word %d is not in category %d", ErrInvalidReference, a.WordID, categoryID)
		}
		graded[a.WordID] = true
		result.Total++

		word, _ := s.catalog.GetWord(a.WordID)
		if a.Answer == word.Translation {
			result.Correct++
			result.CorrectWords = append(result.CorrectWords, a.WordID)
		}
	}

	result.Percent = models.ProgressPercent(result.Correct, result.Total)
	result.Passed = result.Percent >= QuizPassPercent

	status := "failed"
	if result.Passed {
		status = "passed"
	}
	metrics.QuizzesGraded.WithLabelValues(status).Inc()

	return result, nil
}
