package quiz

import (
	"context"
	"fmt"
	"log"

	"github.com/smarvasti/haftify/internal/domain"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(key string, build func() *Session) *Session
	Get(key string) (*Session, bool)
	DeleteIfIdle(key string)
}

// CatalogRepository loads catalog content (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// ProgressRepository is the per-user progress document store.
type ProgressRepository interface {
	LoadCatalogProgress(ctx context.Context, userID, catalogID string) (domain.ProgressSet, error)
	SaveProgress(ctx context.Context, userID, catalogID string, p domain.Progress) error
	ResetProgress(ctx context.Context, userID, catalogID string) error
	UpdateCatalogRollup(ctx context.Context, userID, catalogID string, r domain.Rollup) error
}

// Service contains the core quiz use cases: opening a catalog session,
// answering, navigating and tracking progress.
type Service struct {
	sessions SessionRepository
	catalogs CatalogRepository
	store    ProgressRepository
}

func NewService(sessions SessionRepository, catalogs CatalogRepository, store ProgressRepository) *Service {
	return &Service{sessions: sessions, catalogs: catalogs, store: store}
}

// RepeatMode selects how a finished catalog is repeated.
type RepeatMode string

const (
	// RepeatRestart keeps progress and jumps to the first question.
	RepeatRestart RepeatMode = "restart"
	// RepeatWrongOnly activates the wrong-only filter.
	RepeatWrongOnly RepeatMode = "wrongOnly"
	// RepeatReset deletes all progress for the catalog first.
	RepeatReset RepeatMode = "reset"
)

// ParseRepeatMode validates a raw repeat mode value.
func ParseRepeatMode(raw string) (RepeatMode, error) {
	switch RepeatMode(raw) {
	case RepeatRestart, RepeatWrongOnly, RepeatReset:
		return RepeatMode(raw), nil
	}
	return "", fmt.Errorf("invalid repeat mode %q", raw)
}

// SubmitResult reports the outcome of an answer submission.
type SubmitResult struct {
	Correct      bool
	Explanations []Explanation
	Completion   *domain.CompletionSummary
	View         View
}

// AdvanceResult reports the outcome of an advance step.
type AdvanceResult struct {
	Kind       OutcomeKind
	Module     *domain.ModuleSummary
	Completion *domain.CompletionSummary
	View       View
}

func sessionKey(userID, catalogID string) string {
	return userID + "/" + catalogID
}

// Open loads the catalog and the user's progress and creates (or returns) the
// session, resuming at the first unanswered question. An empty userID is an
// explicit authentication error, never a silent no-op, and unverified accounts
// are rejected before any state is touched.
func (s *Service) Open(ctx context.Context, userID, catalogID string, emailVerified bool) (View, error) {
	if userID == "" {
		return View{}, domain.ErrNotAuthenticated
	}
	if !emailVerified {
		return View{}, domain.ErrEmailNotVerified
	}
	catalog, err := s.catalogs.GetCatalog(ctx, catalogID)
	if err != nil {
		return View{}, err
	}
	progress, err := s.store.LoadCatalogProgress(ctx, userID, catalogID)
	if err != nil {
		return View{}, fmt.Errorf("load progress: %w", err)
	}

	if len(progress) == 0 {
		// First visit: seed the zeroed rollup so the dashboard has a record.
		if err := s.store.UpdateCatalogRollup(ctx, userID, catalogID, Aggregate(catalog.AllQuestions(), progress)); err != nil {
			log.Printf("init rollup for %s/%s: %v", userID, catalogID, err)
		}
	}

	session := s.sessions.GetOrCreate(sessionKey(userID, catalogID), func() *Session {
		pos, ok := FirstUnanswered(catalog, progress)
		if !ok {
			pos, _ = catalog.FirstPosition()
		}
		return NewSession(userID, catalogID, catalog, progress, pos)
	})
	return session.View(), nil
}

// ToggleAnswer flips one answer in the in-progress selection.
func (s *Service) ToggleAnswer(ctx context.Context, userID, catalogID, answerText string) (View, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return View{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if err := session.toggleAnswerLocked(answerText); err != nil {
		return View{}, err
	}
	return session.broadcastLocked(), nil
}

// Submit scores the current selection, persists the progress record and the
// catalog rollup, and evaluates the completion trigger. Store failures are
// logged and surfaced on the view as unsynced; local state is not rolled back.
func (s *Service) Submit(ctx context.Context, userID, catalogID string) (SubmitResult, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return SubmitResult{}, err
	}

	session.mu.Lock()
	question, err := session.catalog.Resolve(session.pos)
	if err != nil {
		session.mu.Unlock()
		return SubmitResult{}, err
	}
	if session.answered {
		session.mu.Unlock()
		return SubmitResult{}, domain.ErrAlreadyAnswered
	}

	selected := append([]string(nil), session.selected...)
	correct := CheckAnswer(question, selected)
	record := domain.Progress{
		QuestionID:      question.ID,
		IsCorrect:       correct,
		SelectedAnswers: selected,
		AttemptedAt:     session.now(),
	}
	previouslyAttempted := len(session.progress)
	session.applyProgressLocked(record)
	rollup := Aggregate(session.catalog.AllQuestions(), session.progress)

	result := SubmitResult{
		Correct:      correct,
		Explanations: IncorrectExplanations(question, selected),
	}
	if CompletionDue(session.catalog, session.progress, session.pos, previouslyAttempted) {
		summary := Summary(session.catalog, session.progress, session.elapsed)
		result.Completion = &summary
		session.completeCatalogLocked()
	}
	result.View = session.broadcastLocked()
	session.mu.Unlock()

	// Effects after the state transition: persist record and rollup.
	if err := s.store.SaveProgress(ctx, userID, catalogID, record); err != nil {
		log.Printf("save progress for %s/%s: %v", userID, catalogID, err)
		s.markUnsynced(session)
		result.View.Unsynced = true
		return result, nil
	}
	if err := s.store.UpdateCatalogRollup(ctx, userID, catalogID, rollup); err != nil {
		log.Printf("update rollup for %s/%s: %v", userID, catalogID, err)
		s.markUnsynced(session)
		result.View.Unsynced = true
	}
	return result, nil
}

// Advance moves to the next question per the active filter, detecting module
// and catalog boundaries. It requires the current question to be answered.
func (s *Service) Advance(ctx context.Context, userID, catalogID string) (AdvanceResult, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return AdvanceResult{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	// Boundary states block auto-advance until the user chooses.
	if session.state != StateBrowsing {
		return AdvanceResult{Kind: outcomeForState(session.state), View: session.snapshotLocked()}, nil
	}
	if _, err := session.catalog.Resolve(session.pos); err == nil && !session.answered {
		return AdvanceResult{}, domain.ErrNotAnswered
	}

	outcome, err := Advance(session.catalog, session.progress, session.settings, session.pos, session.elapsed)
	if err != nil {
		return AdvanceResult{}, err
	}

	session.selected = nil
	session.answered = false
	switch outcome.Kind {
	case OutcomeAdvanced:
		session.moveToLocked(outcome.Position)
	case OutcomeModuleComplete:
		session.state = StateModuleComplete
	case OutcomeCatalogComplete:
		session.completeCatalogLocked()
	case OutcomeNoWrongLeft:
		// Stay put; the view renders the empty state.
	}
	return AdvanceResult{
		Kind:       outcome.Kind,
		Module:     outcome.Module,
		Completion: outcome.Catalog,
		View:       session.broadcastLocked(),
	}, nil
}

// RepeatModule returns to the first question of the current module.
func (s *Service) RepeatModule(ctx context.Context, userID, catalogID string) (View, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return View{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	pos, err := session.catalog.FirstPositionIn(session.pos.ModuleID)
	if err != nil {
		return View{}, err
	}
	session.moveToLocked(pos)
	return session.broadcastLocked(), nil
}

// NextModule jumps to the first question of the next module in catalog order.
// It is a no-op when the current module is the last one.
func (s *Service) NextModule(ctx context.Context, userID, catalogID string) (View, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return View{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	idx := moduleIndexOf(session.catalog, session.pos.ModuleID)
	if idx < 0 || idx+1 >= len(session.catalog.Modules) {
		return session.snapshotLocked(), nil
	}
	pos, err := session.catalog.FirstPositionIn(session.catalog.Modules[idx+1].ID)
	if err != nil {
		return View{}, err
	}
	session.moveToLocked(pos)
	return session.broadcastLocked(), nil
}

// RepeatCatalog handles the three repeat choices offered by the completion
// summary. Reset deletes the stored progress first and fails loudly if the
// store call does, leaving local state untouched.
func (s *Service) RepeatCatalog(ctx context.Context, userID, catalogID string, mode RepeatMode) (View, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return View{}, err
	}

	if mode == RepeatReset {
		if err := s.store.ResetProgress(ctx, userID, catalogID); err != nil {
			return View{}, fmt.Errorf("reset progress: %w", err)
		}
		zeroed := Aggregate(session.catalog.AllQuestions(), domain.ProgressSet{})
		if err := s.store.UpdateCatalogRollup(ctx, userID, catalogID, zeroed); err != nil {
			log.Printf("reset rollup for %s/%s: %v", userID, catalogID, err)
		}
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	switch mode {
	case RepeatRestart:
		pos, err := session.catalog.FirstPosition()
		if err != nil {
			return View{}, err
		}
		session.moveToLocked(pos)
	case RepeatWrongOnly:
		session.settings.FilterMode = domain.FilterWrongOnly
		if pos, ok := FirstWrong(session.catalog, session.progress); ok {
			session.moveToLocked(pos)
		} else {
			session.state = StateBrowsing
			session.selected = nil
			session.answered = false
		}
	case RepeatReset:
		session.progress = make(domain.ProgressSet)
		session.settings.FilterMode = domain.FilterAll
		pos, err := session.catalog.FirstPosition()
		if err != nil {
			return View{}, err
		}
		session.moveToLocked(pos)
	default:
		return View{}, fmt.Errorf("invalid repeat mode %q", mode)
	}
	return session.broadcastLocked(), nil
}

// SelectModule jumps to the first question of a module.
func (s *Service) SelectModule(ctx context.Context, userID, catalogID, moduleID string) (View, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return View{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	pos, err := session.catalog.FirstPositionIn(moduleID)
	if err != nil {
		return View{}, err
	}
	session.moveToLocked(pos)
	return session.broadcastLocked(), nil
}

// SelectCategory jumps to the first question of a category in the current module.
func (s *Service) SelectCategory(ctx context.Context, userID, catalogID, categoryID string) (View, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return View{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	module, err := session.catalog.FindModule(session.pos.ModuleID)
	if err != nil {
		return View{}, err
	}
	category, err := module.FindCategory(categoryID)
	if err != nil {
		return View{}, err
	}
	if len(category.Questions) == 0 {
		return View{}, domain.ErrNoQuestions
	}
	session.moveToLocked(domain.Position{
		ModuleID:   module.ID,
		CategoryID: category.ID,
		QuestionID: category.Questions[0].ID,
	})
	return session.broadcastLocked(), nil
}

// SelectQuestion jumps to a question anywhere in the catalog by id.
func (s *Service) SelectQuestion(ctx context.Context, userID, catalogID, questionID string) (View, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return View{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	_, pos, err := session.catalog.FindQuestion(questionID)
	if err != nil {
		return View{}, err
	}
	session.moveToLocked(pos)
	return session.broadcastLocked(), nil
}

// UpdateSettings applies validated display settings. The current question is
// retained even if the new filter would exclude it.
func (s *Service) UpdateSettings(ctx context.Context, userID, catalogID string, settings domain.Settings) (View, error) {
	if err := settings.Validate(); err != nil {
		return View{}, err
	}
	session, err := s.session(userID, catalogID)
	if err != nil {
		return View{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	session.settings = settings
	return session.broadcastLocked(), nil
}

// TimerAction is a timer control verb.
type TimerAction string

const (
	TimerStart TimerAction = "start"
	TimerPause TimerAction = "pause"
	TimerReset TimerAction = "reset"
)

// Timer starts, pauses or resets the session timer.
func (s *Service) Timer(ctx context.Context, userID, catalogID string, action TimerAction) (View, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return View{}, err
	}
	switch action {
	case TimerStart:
		session.StartTimer()
	case TimerPause:
		session.PauseTimer()
	case TimerReset:
		session.ResetTimer()
	default:
		return View{}, fmt.Errorf("invalid timer action %q", action)
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.broadcastLocked(), nil
}

// Subscribe returns a channel that receives view updates for the session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Service) Subscribe(_ context.Context, userID, catalogID string) (<-chan View, func(), error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leave closes and drops the session once nothing subscribes to it anymore.
// The timer is stopped with it; sessions do not outlive their watchers.
func (s *Service) Leave(_ context.Context, userID, catalogID string) {
	key := sessionKey(userID, catalogID)
	session, ok := s.sessions.Get(key)
	if !ok {
		return
	}
	if session.IsIdle() {
		session.Close()
		s.sessions.DeleteIfIdle(key)
	}
}

// View returns the current view without mutating anything.
func (s *Service) View(_ context.Context, userID, catalogID string) (View, error) {
	session, err := s.session(userID, catalogID)
	if err != nil {
		return View{}, err
	}
	return session.View(), nil
}

func (s *Service) session(userID, catalogID string) (*Session, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	session, ok := s.sessions.Get(sessionKey(userID, catalogID))
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) markUnsynced(session *Session) {
	session.mu.Lock()
	session.unsynced = true
	session.broadcastLocked()
	session.mu.Unlock()
}

func outcomeForState(state State) OutcomeKind {
	if state == StateCatalogComplete {
		return OutcomeCatalogComplete
	}
	return OutcomeModuleComplete
}

// View is the read-side snapshot of a session.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}
