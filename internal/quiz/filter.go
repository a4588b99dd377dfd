package quiz

import "github.com/smarvasti/haftify/internal/domain"

// FilteredQuestions derives the active question list for a category. In
// wrongOnly mode only previously-incorrect questions are kept, in document
// order. The question identified by currentID is always retained so that the
// question on screen does not vanish the moment it is answered correctly.
func FilteredQuestions(cat domain.Category, progress domain.ProgressSet, mode domain.FilterMode, currentID string) []domain.Question {
	if mode != domain.FilterWrongOnly {
		return cat.Questions
	}
	filtered := make([]domain.Question, 0, len(cat.Questions))
	for _, q := range cat.Questions {
		if q.ID == currentID || isWrong(progress, q.ID) {
			filtered = append(filtered, q)
		}
	}
	return filtered
}

// CategoryHasVisible reports whether a category contributes any questions
// under the given mode. Empty categories are skipped by pagination rendering.
func CategoryHasVisible(cat domain.Category, progress domain.ProgressSet, mode domain.FilterMode) bool {
	if mode != domain.FilterWrongOnly {
		return len(cat.Questions) > 0
	}
	for _, q := range cat.Questions {
		if isWrong(progress, q.ID) {
			return true
		}
	}
	return false
}

// indexOf resolves a question id to its index within a filtered list. The
// index is always re-derived; it is never stored across mutations.
func indexOf(questions []domain.Question, questionID string) int {
	for i, q := range questions {
		if q.ID == questionID {
			return i
		}
	}
	return -1
}

func isWrong(progress domain.ProgressSet, questionID string) bool {
	p, ok := progress[questionID]
	return ok && !p.IsCorrect
}

func firstWrongIn(cat domain.Category, progress domain.ProgressSet) (string, bool) {
	for _, q := range cat.Questions {
		if isWrong(progress, q.ID) {
			return q.ID, true
		}
	}
	return "", false
}
