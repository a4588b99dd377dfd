package quiz

import (
	"strings"

	"github.com/smarvasti/haftify/internal/domain"
)

// AnswerStyle classifies how a single answer should be rendered.
type AnswerStyle string

const (
	// StyleNeutral is the default rendering.
	StyleNeutral AnswerStyle = "neutral"
	// StyleSelected marks a selection before submission.
	StyleSelected AnswerStyle = "selected"
	// StyleCorrectSelected marks a correct answer the user picked.
	StyleCorrectSelected AnswerStyle = "correctSelected"
	// StyleCorrectMissed marks a correct answer the user did not pick (dashed).
	StyleCorrectMissed AnswerStyle = "correctMissed"
	// StyleIncorrectSelected marks an incorrect answer the user picked.
	StyleIncorrectSelected AnswerStyle = "incorrectSelected"
)

// missedJoin glues multiple missed-correct answer texts into one display
// entry, matching the original presentation.
const missedJoin = `" und "`

// AnswerStyleFor derives the rendering of one answer from the selection state.
func AnswerStyleFor(a domain.Answer, selected []string, answered bool) AnswerStyle {
	picked := contains(selected, a.Text)
	if !answered {
		if picked {
			return StyleSelected
		}
		return StyleNeutral
	}
	switch {
	case a.IsCorrect && picked:
		return StyleCorrectSelected
	case a.IsCorrect && !picked:
		return StyleCorrectMissed
	case picked:
		return StyleIncorrectSelected
	}
	return StyleNeutral
}

// Explanation is one teaching hint shown after an incorrect submission.
type Explanation struct {
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
	WasSelected bool   `json:"wasSelected"`
}

// IncorrectExplanations lists every selected-but-incorrect answer with its
// explanation, followed by a single combined entry for all missed correct
// answers. The aggregation of missed answers into one entry is deliberate.
func IncorrectExplanations(q domain.Question, selected []string) []Explanation {
	var out []Explanation
	var missed []string
	for _, a := range q.Answers {
		picked := contains(selected, a.Text)
		switch {
		case picked && !a.IsCorrect:
			out = append(out, Explanation{Text: a.Text, Explanation: a.Explanation, WasSelected: true})
		case !picked && a.IsCorrect:
			missed = append(missed, a.Text)
		}
	}
	if len(missed) > 0 {
		out = append(out, Explanation{Text: strings.Join(missed, missedJoin), WasSelected: false})
	}
	return out
}

func contains(list []string, text string) bool {
	for _, s := range list {
		if s == text {
			return true
		}
	}
	return false
}
