package quiz

import "github.com/smarvasti/haftify/internal/domain"

// AnswerView is one renderable answer. Correctness is only revealed through
// the style after submission; explanations stay hidden until then.
type AnswerView struct {
	Text        string      `json:"text"`
	Style       AnswerStyle `json:"style"`
	Explanation string      `json:"explanation,omitempty"`
}

// QuestionView is the renderable current question.
type QuestionView struct {
	ID               string       `json:"id"`
	Text             string       `json:"text"`
	Points           int          `json:"points"`
	IsMultipleChoice bool         `json:"isMultipleChoice"`
	Answers          []AnswerView `json:"answers"`
}

// Bullet is one pagination dot for a question of the current module.
type Bullet struct {
	QuestionID string `json:"questionId"`
	State      string `json:"state"` // current, correct, wrong, unanswered
}

// CategoryBullets groups the pagination dots of one category. Categories with
// no visible questions under the active filter are omitted entirely.
type CategoryBullets struct {
	CategoryID string   `json:"categoryId"`
	Title      string   `json:"title"`
	Bullets    []Bullet `json:"bullets"`
}

// View is the computed view-state handed to the presentation layer.
type View struct {
	CatalogID      string            `json:"catalogId"`
	CatalogTitle   string            `json:"catalogTitle"`
	ModuleTitle    string            `json:"moduleTitle"`
	CategoryTitle  string            `json:"categoryTitle"`
	Position       domain.Position   `json:"position"`
	Question       *QuestionView     `json:"question"` // nil: no questions match the filter
	QuestionNumber int               `json:"questionNumber"`
	FilteredCount  int               `json:"filteredCount"`
	Percent        int               `json:"percent"`
	Elapsed        int               `json:"elapsed"`
	TimerRunning   bool              `json:"timerRunning"`
	State          State             `json:"state"`
	Settings       domain.Settings   `json:"settings"`
	Answered       bool              `json:"answered"`
	Unsynced       bool              `json:"unsynced"`
	Rollup         domain.Rollup     `json:"rollup"`
	Bullets        []CategoryBullets `json:"bullets"`
}

// snapshotLocked assembles the view from session state. A position that no
// longer resolves (or an empty filtered list) yields a nil Question, which the
// presentation layer renders as the explicit empty state.
func (s *Session) snapshotLocked() View {
	view := View{
		CatalogID:    s.catalogID,
		CatalogTitle: s.catalog.Title,
		Position:     s.pos,
		Elapsed:      s.elapsed,
		TimerRunning: s.timerRunning,
		State:        s.state,
		Settings:     s.settings,
		Answered:     s.answered,
		Unsynced:     s.unsynced,
		Rollup:       Aggregate(s.catalog.AllQuestions(), s.progress),
	}

	module, err := s.catalog.FindModule(s.pos.ModuleID)
	if err != nil {
		return view
	}
	category, err := module.FindCategory(s.pos.CategoryID)
	if err != nil {
		return view
	}
	view.ModuleTitle = module.Title
	view.CategoryTitle = category.Title
	view.Bullets = s.bulletsLocked(module)

	filtered := FilteredQuestions(category, s.progress, s.settings.FilterMode, s.pos.QuestionID)
	view.FilteredCount = len(filtered)
	idx := indexOf(filtered, s.pos.QuestionID)
	if idx < 0 {
		return view
	}
	view.QuestionNumber = idx + 1
	view.Percent = ProgressPercent(s.catalog, module, filtered, s.pos, s.settings.ProgressScope)

	q := filtered[idx]
	qv := &QuestionView{
		ID:               q.ID,
		Text:             q.Text,
		Points:           q.Points,
		IsMultipleChoice: q.IsMultipleChoice,
	}
	for _, a := range q.Answers {
		av := AnswerView{
			Text:  a.Text,
			Style: AnswerStyleFor(a, s.selected, s.answered),
		}
		if s.answered {
			av.Explanation = a.Explanation
		}
		qv.Answers = append(qv.Answers, av)
	}
	view.Question = qv
	return view
}

func (s *Session) bulletsLocked(module domain.Module) []CategoryBullets {
	var out []CategoryBullets
	for _, cat := range module.Categories {
		visible := FilteredQuestions(cat, s.progress, s.settings.FilterMode, s.pos.QuestionID)
		if len(visible) == 0 {
			continue
		}
		cb := CategoryBullets{CategoryID: cat.ID, Title: cat.Title}
		for _, q := range visible {
			state := "unanswered"
			switch {
			case cat.ID == s.pos.CategoryID && q.ID == s.pos.QuestionID:
				state = "current"
			case s.progress[q.ID].QuestionID != "" && s.progress[q.ID].IsCorrect:
				state = "correct"
			case isWrong(s.progress, q.ID):
				state = "wrong"
			}
			cb.Bullets = append(cb.Bullets, Bullet{QuestionID: q.ID, State: state})
		}
		out = append(out, cb)
	}
	return out
}
