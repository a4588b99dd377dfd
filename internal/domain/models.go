package domain

import "time"

// Answer is one selectable option of a question. The text doubles as the
// identity key; there is no separate answer id.
type Answer struct {
	Text        string `json:"text"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation,omitempty"`
}

// Question models an exam question. Multi-select questions require every
// correct answer and no incorrect one to count as correct.
type Question struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Points           int      `json:"points"`
	IsMultipleChoice bool     `json:"isMultipleChoice,omitempty"`
	Answers          []Answer `json:"answers"`
}

// Category groups related questions inside a module.
type Category struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Module is a top-level subdivision of a catalog.
type Module struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Categories []Category `json:"categories"`
}

// Catalog is a full exam question bank for one year.
type Catalog struct {
	ID      string   `json:"id"`
	Year    int      `json:"year"`
	Title   string   `json:"title"`
	Modules []Module `json:"modules"`
}

// Progress records a user's latest attempt for one question. Re-submissions
// overwrite; there is at most one record per question.
type Progress struct {
	QuestionID      string    `json:"questionId"`
	IsCorrect       bool      `json:"isCorrect"`
	SelectedAnswers []string  `json:"selectedAnswers"`
	AttemptedAt     time.Time `json:"attemptedAt"`
}

// ProgressSet maps question id to the latest progress record.
type ProgressSet map[string]Progress

// Rollup is the aggregated score over a scope (catalog, module or category).
type Rollup struct {
	Attempted       int       `json:"attempted"`
	Correct         int       `json:"correct"`
	Incorrect       int       `json:"incorrect"`
	EarnedPoints    int       `json:"earnedPoints"`
	TotalPoints     int       `json:"totalPoints"`
	TotalQuestions  int       `json:"totalQuestions"`
	PercentComplete int       `json:"percentComplete"`
	LastAttemptedAt time.Time `json:"lastAttemptedAt"`
}

// Position identifies the current question by stable ids. Indexes into the
// filtered view are derived from it on demand, never stored.
type Position struct {
	ModuleID   string `json:"moduleId"`
	CategoryID string `json:"categoryId"`
	QuestionID string `json:"questionId"`
}

// ModuleSummary is the payload of the module-complete notification.
type ModuleSummary struct {
	ModuleTitle    string `json:"moduleTitle"`
	TotalQuestions int    `json:"totalQuestions"`
	WrongAnswers   int    `json:"wrongAnswers"`
}

// CompletionSummary is the payload of the catalog-complete overlay.
type CompletionSummary struct {
	TotalQuestions int `json:"totalQuestions"`
	CorrectAnswers int `json:"correctAnswers"`
	WrongAnswers   int `json:"wrongAnswers"`
	EarnedPoints   int `json:"earnedPoints"`
	TotalPoints    int `json:"totalPoints"`
	CompletionTime int `json:"completionTime"` // elapsed seconds
}
