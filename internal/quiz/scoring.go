package quiz

import (
	"fmt"
	"math"

	"github.com/smarvasti/haftify/internal/domain"
)

// CheckAnswer reports whether the selection is correct: the selected set must
// equal the set of correct answer texts exactly. A multi-select question
// requires all correct answers and no incorrect one.
func CheckAnswer(q domain.Question, selected []string) bool {
	correct := q.CorrectAnswers()
	if len(selected) != len(correct) {
		return false
	}
	seen := make(map[string]struct{}, len(selected))
	for _, text := range selected {
		if _, dup := seen[text]; dup {
			return false
		}
		seen[text] = struct{}{}
		if _, ok := correct[text]; !ok {
			return false
		}
	}
	return true
}

// Aggregate computes the rollup over a scope's questions. The scope is chosen
// by the caller: pass catalog.AllQuestions(), module.Questions() or
// category.Questions for catalog/module/category granularity.
func Aggregate(questions []domain.Question, progress domain.ProgressSet) domain.Rollup {
	r := domain.Rollup{TotalQuestions: len(questions)}
	for _, q := range questions {
		r.TotalPoints += q.Points
		p, ok := progress[q.ID]
		if !ok {
			continue
		}
		r.Attempted++
		if p.IsCorrect {
			r.Correct++
			r.EarnedPoints += q.Points
		} else {
			r.Incorrect++
		}
		if p.AttemptedAt.After(r.LastAttemptedAt) {
			r.LastAttemptedAt = p.AttemptedAt
		}
	}
	if r.TotalQuestions > 0 {
		r.PercentComplete = int(math.Round(float64(r.Attempted) / float64(r.TotalQuestions) * 100))
	}
	return r
}

// Summary builds the catalog-complete payload from the current progress.
func Summary(catalog domain.Catalog, progress domain.ProgressSet, elapsedSeconds int) domain.CompletionSummary {
	r := Aggregate(catalog.AllQuestions(), progress)
	return domain.CompletionSummary{
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.Correct,
		WrongAnswers:   r.Incorrect,
		EarnedPoints:   r.EarnedPoints,
		TotalPoints:    r.TotalPoints,
		CompletionTime: elapsedSeconds,
	}
}

// FormatTime renders elapsed seconds as HH:MM:SS.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
