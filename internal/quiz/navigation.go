package quiz

import (
	"math"

	"github.com/smarvasti/haftify/internal/domain"
)

// OutcomeKind tags the result of an advance step.
type OutcomeKind string

const (
	// OutcomeAdvanced means the position moved and browsing continues.
	OutcomeAdvanced OutcomeKind = "advanced"
	// OutcomeModuleComplete means the module boundary was hit; advancement
	// halts until the user picks repeat or next module.
	OutcomeModuleComplete OutcomeKind = "moduleComplete"
	// OutcomeCatalogComplete means the whole catalog is done.
	OutcomeCatalogComplete OutcomeKind = "catalogComplete"
	// OutcomeNoWrongLeft means wrongOnly mode found nothing anywhere.
	OutcomeNoWrongLeft OutcomeKind = "noWrongLeft"
)

// Outcome is the result of one advance step. Position is meaningful for
// OutcomeAdvanced; the summaries accompany their respective completions.
type Outcome struct {
	Kind     OutcomeKind
	Position domain.Position
	Module   *domain.ModuleSummary
	Catalog  *domain.CompletionSummary
}

// Advance computes the next position after the current question was answered
// and acknowledged. It is pure: callers apply the outcome to session state and
// perform any persistence themselves.
func Advance(catalog domain.Catalog, progress domain.ProgressSet, settings domain.Settings, pos domain.Position, elapsedSeconds int) (Outcome, error) {
	module, err := catalog.FindModule(pos.ModuleID)
	if err != nil {
		return Outcome{}, err
	}
	category, err := module.FindCategory(pos.CategoryID)
	if err != nil {
		return Outcome{}, err
	}

	if settings.FilterMode == domain.FilterWrongOnly {
		return advanceWrongOnly(catalog, progress, module, category, pos), nil
	}

	questionIndex := indexOf(category.Questions, pos.QuestionID)
	if questionIndex < 0 {
		return Outcome{}, domain.ErrQuestionNotFound
	}

	lastInCategory := questionIndex+1 >= len(category.Questions)
	lastCategory := category.ID == module.Categories[len(module.Categories)-1].ID
	lastModule := module.ID == catalog.Modules[len(catalog.Modules)-1].ID

	if lastInCategory && lastCategory && lastModule {
		if allAttempted(catalog, progress) {
			summary := Summary(catalog, progress, elapsedSeconds)
			return Outcome{Kind: OutcomeCatalogComplete, Catalog: &summary}, nil
		}
		// Skip ahead so the user is never stuck re-reading answered content.
		if next, ok := FirstUnanswered(catalog, progress); ok {
			return Outcome{Kind: OutcomeAdvanced, Position: next}, nil
		}
	}

	if lastInCategory && lastCategory {
		summary := moduleSummary(module, progress)
		return Outcome{Kind: OutcomeModuleComplete, Module: &summary}, nil
	}

	if !lastInCategory {
		next := pos
		next.QuestionID = category.Questions[questionIndex+1].ID
		return Outcome{Kind: OutcomeAdvanced, Position: next}, nil
	}

	categoryIndex := categoryIndexOf(module, category.ID)
	nextCategory := module.Categories[categoryIndex+1]
	return Outcome{Kind: OutcomeAdvanced, Position: domain.Position{
		ModuleID:   module.ID,
		CategoryID: nextCategory.ID,
		QuestionID: nextCategory.Questions[0].ID,
	}}, nil
}

// advanceWrongOnly searches for the next wrong question: rest of the current
// category, later categories of the module, later modules, then wraps around
// to the first wrong question in the catalog. The wrap-around is deliberate;
// it enables focused drilling on mistakes.
func advanceWrongOnly(catalog domain.Catalog, progress domain.ProgressSet, module domain.Module, category domain.Category, pos domain.Position) Outcome {
	questionIndex := indexOf(category.Questions, pos.QuestionID)
	for i := questionIndex + 1; i < len(category.Questions); i++ {
		if isWrong(progress, category.Questions[i].ID) {
			pos.QuestionID = category.Questions[i].ID
			return Outcome{Kind: OutcomeAdvanced, Position: pos}
		}
	}

	categoryIndex := categoryIndexOf(module, category.ID)
	for i := categoryIndex + 1; i < len(module.Categories); i++ {
		if id, ok := firstWrongIn(module.Categories[i], progress); ok {
			return Outcome{Kind: OutcomeAdvanced, Position: domain.Position{
				ModuleID:   module.ID,
				CategoryID: module.Categories[i].ID,
				QuestionID: id,
			}}
		}
	}

	moduleIndex := moduleIndexOf(catalog, module.ID)
	for i := moduleIndex + 1; i < len(catalog.Modules); i++ {
		if next, ok := firstWrongInModule(catalog.Modules[i], progress); ok {
			return Outcome{Kind: OutcomeAdvanced, Position: next}
		}
	}

	if next, ok := FirstWrong(catalog, progress); ok {
		return Outcome{Kind: OutcomeAdvanced, Position: next}
	}
	return Outcome{Kind: OutcomeNoWrongLeft, Position: pos}
}

// CompletionDue is the single source of truth for showing the catalog-complete
// summary after a submission. It fires when the catalog just reached 100%
// attempted for the first time, when the submitted question is the structural
// last of the catalog, or when every question in the catalog is correct.
func CompletionDue(catalog domain.Catalog, progress domain.ProgressSet, pos domain.Position, previouslyAttempted int) bool {
	total := len(catalog.AllQuestions())
	if total == 0 {
		return false
	}
	attempted, correct := 0, 0
	for _, q := range catalog.AllQuestions() {
		p, ok := progress[q.ID]
		if !ok {
			continue
		}
		attempted++
		if p.IsCorrect {
			correct++
		}
	}
	firstCompletion := attempted == total && previouslyAttempted < total
	return firstCompletion || correct == total || isStructurallyLast(catalog, pos)
}

// FirstUnanswered scans the catalog in document order for the first question
// without a progress record.
func FirstUnanswered(catalog domain.Catalog, progress domain.ProgressSet) (domain.Position, bool) {
	for _, m := range catalog.Modules {
		for _, cat := range m.Categories {
			for _, q := range cat.Questions {
				if _, ok := progress[q.ID]; !ok {
					return domain.Position{ModuleID: m.ID, CategoryID: cat.ID, QuestionID: q.ID}, true
				}
			}
		}
	}
	return domain.Position{}, false
}

// FirstWrong scans the catalog in document order for the first question with
// an incorrect progress record.
func FirstWrong(catalog domain.Catalog, progress domain.ProgressSet) (domain.Position, bool) {
	for _, m := range catalog.Modules {
		if pos, ok := firstWrongInModule(m, progress); ok {
			return pos, true
		}
	}
	return domain.Position{}, false
}

// ProgressPercent computes the progress-bar value for the configured scope:
// (ordinal of the current question within the scope + 1) / scope total * 100.
// Category scope counts within the filtered view, matching the original.
func ProgressPercent(catalog domain.Catalog, module domain.Module, filtered []domain.Question, pos domain.Position, scope domain.ProgressScope) int {
	var ordinal, total int
	switch scope {
	case domain.ScopeCatalog:
		all := catalog.AllQuestions()
		ordinal, total = indexOf(all, pos.QuestionID), len(all)
	case domain.ScopeModule:
		all := module.Questions()
		ordinal, total = indexOf(all, pos.QuestionID), len(all)
	default:
		ordinal, total = indexOf(filtered, pos.QuestionID), len(filtered)
	}
	if total == 0 || ordinal < 0 {
		return 0
	}
	return int(math.Round(float64(ordinal+1) / float64(total) * 100))
}

func moduleSummary(module domain.Module, progress domain.ProgressSet) domain.ModuleSummary {
	questions := module.Questions()
	wrong := 0
	for _, q := range questions {
		if isWrong(progress, q.ID) {
			wrong++
		}
	}
	return domain.ModuleSummary{
		ModuleTitle:    module.Title,
		TotalQuestions: len(questions),
		WrongAnswers:   wrong,
	}
}

func firstWrongInModule(module domain.Module, progress domain.ProgressSet) (domain.Position, bool) {
	for _, cat := range module.Categories {
		if id, ok := firstWrongIn(cat, progress); ok {
			return domain.Position{ModuleID: module.ID, CategoryID: cat.ID, QuestionID: id}, true
		}
	}
	return domain.Position{}, false
}

func allAttempted(catalog domain.Catalog, progress domain.ProgressSet) bool {
	for _, q := range catalog.AllQuestions() {
		if _, ok := progress[q.ID]; !ok {
			return false
		}
	}
	return true
}

func isStructurallyLast(catalog domain.Catalog, pos domain.Position) bool {
	if len(catalog.Modules) == 0 {
		return false
	}
	m := catalog.Modules[len(catalog.Modules)-1]
	if m.ID != pos.ModuleID || len(m.Categories) == 0 {
		return false
	}
	cat := m.Categories[len(m.Categories)-1]
	if cat.ID != pos.CategoryID || len(cat.Questions) == 0 {
		return false
	}
	return cat.Questions[len(cat.Questions)-1].ID == pos.QuestionID
}

func categoryIndexOf(module domain.Module, categoryID string) int {
	for i, cat := range module.Categories {
		if cat.ID == categoryID {
			return i
		}
	}
	return -1
}

func moduleIndexOf(catalog domain.Catalog, moduleID string) int {
	for i, m := range catalog.Modules {
		if m.ID == moduleID {
			return i
		}
	}
	return -1
}
