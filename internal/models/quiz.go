package models

// QuizQuestion asks for the translation of one word
type QuizQuestion struct {
	WordID  int64    `json:"word_id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// QuizAnswer is the option a learner picked for a word
type QuizAnswer struct {
	WordID int64  `json:"word_id"`
	Answer string `json:"answer"`
}

// QuizResult summarises a graded quiz
type QuizResult struct {
	Correct      int     `json:"correct"`
	Total        int     `json:"total"`
	Percent      int     `json:"percent"`
	Passed       bool    `json:"passed"`
	CorrectWords []int64 `json:"correct_words"`
}
