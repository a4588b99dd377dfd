package quiz_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smarvasti/haftify/internal/domain"
	"github.com/smarvasti/haftify/internal/infra/memory"
	"github.com/smarvasti/haftify/internal/quiz"
)

func TestOpenRequiresAuthentication(t *testing.T) {
	service, _ := newTestService()

	if _, err := service.Open(context.Background(), "", "catalog-1", false); err != domain.ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestOpenRequiresVerifiedEmail(t *testing.T) {
	service, _ := newTestService()

	if _, err := service.Open(context.Background(), "u1", "catalog-1", false); err != domain.ErrEmailNotVerified {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestOpenUnknownCatalog(t *testing.T) {
	service, _ := newTestService()

	if _, err := service.Open(context.Background(), "u1", "nope", true); err != domain.ErrCatalogNotFound {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestOpenSeedsRollupAndStartsAtFirstQuestion(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()

	view, err := service.Open(ctx, "u1", "catalog-1", true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if view.Position.QuestionID != "q1" {
		t.Fatalf("expected start at q1, got %+v", view.Position)
	}

	rollup, ok := store.Rollup("u1", "catalog-1")
	if !ok {
		t.Fatalf("expected zeroed rollup seeded on first visit")
	}
	if rollup.Attempted != 0 || rollup.TotalQuestions != 4 {
		t.Fatalf("unexpected seeded rollup %+v", rollup)
	}
}

func TestOpenResumesAtFirstUnanswered(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()

	record := domain.Progress{QuestionID: "q1", IsCorrect: true, AttemptedAt: time.Now()}
	if err := store.SaveProgress(ctx, "u1", "catalog-1", record); err != nil {
		t.Fatalf("seed progress: %v", err)
	}

	view, err := service.Open(ctx, "u1", "catalog-1", true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if view.Position.QuestionID != "q2" {
		t.Fatalf("expected resume at q2, got %+v", view.Position)
	}
	if view.Rollup.Attempted != 1 {
		t.Fatalf("expected loaded progress reflected in rollup, got %+v", view.Rollup)
	}
}

func TestSubmitScoresAndPersists(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()
	mustOpen(t, service, "u1")

	if _, err := service.ToggleAnswer(ctx, "u1", "catalog-1", "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	result, err := service.Submit(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Correct {
		t.Fatalf("expected correct submission")
	}
	if len(result.Explanations) != 0 {
		t.Fatalf("correct submission carries no explanations, got %+v", result.Explanations)
	}
	if result.View.Unsynced {
		t.Fatalf("expected synced view")
	}

	progress, err := store.LoadCatalogProgress(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("load progress: %v", err)
	}
	if p, ok := progress["q1"]; !ok || !p.IsCorrect {
		t.Fatalf("expected persisted q1 record, got %+v", progress)
	}
	rollup, _ := store.Rollup("u1", "catalog-1")
	if rollup.Attempted != 1 || rollup.EarnedPoints != 1 {
		t.Fatalf("expected persisted rollup, got %+v", rollup)
	}

	if _, err := service.Submit(ctx, "u1", "catalog-1"); err != domain.ErrAlreadyAnswered {
		t.Fatalf("expected ErrAlreadyAnswered on resubmit, got %v", err)
	}
}

func TestSubmitWrongReturnsExplanations(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	mustOpen(t, service, "u1")

	if _, err := service.ToggleAnswer(ctx, "u1", "catalog-1", "B"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	result, err := service.Submit(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Correct {
		t.Fatalf("expected wrong submission")
	}
	if len(result.Explanations) != 2 {
		t.Fatalf("expected selected-wrong and missed entries, got %+v", result.Explanations)
	}
}

func TestAdvanceRequiresAnswer(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	mustOpen(t, service, "u1")

	if _, err := service.Advance(ctx, "u1", "catalog-1"); err != domain.ErrNotAnswered {
		t.Fatalf("expected ErrNotAnswered, got %v", err)
	}
}

func TestModuleCompletionFlow(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	mustOpen(t, service, "u1")

	answerAndAdvance(t, service, "u1", "A")      // q1
	answerAndAdvance(t, service, "u1", "X", "Y") // q2

	// q3 is the last question of the last category of module m1.
	answer(t, service, "u1", "Ja")
	result, err := service.Advance(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Kind != quiz.OutcomeModuleComplete {
		t.Fatalf("expected moduleComplete, got %s", result.Kind)
	}
	if result.Module == nil || result.Module.ModuleTitle != "Modul I" {
		t.Fatalf("unexpected module summary %+v", result.Module)
	}

	// The boundary state blocks further advancing until the user decides.
	blocked, err := service.Advance(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("advance while blocked: %v", err)
	}
	if blocked.Kind != quiz.OutcomeModuleComplete {
		t.Fatalf("expected repeat of moduleComplete, got %s", blocked.Kind)
	}

	view, err := service.NextModule(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("next module: %v", err)
	}
	if view.Position.QuestionID != "q4" || view.State != quiz.StateBrowsing {
		t.Fatalf("expected browsing at q4, got %+v", view.Position)
	}
}

func TestRepeatModuleReturnsToFirstQuestion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	mustOpen(t, service, "u1")

	answerAndAdvance(t, service, "u1", "A")

	view, err := service.RepeatModule(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("repeat module: %v", err)
	}
	if view.Position.QuestionID != "q1" {
		t.Fatalf("expected q1, got %+v", view.Position)
	}
}

func TestNextModuleOnLastIsNoop(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	mustOpen(t, service, "u1")

	if _, err := service.SelectModule(ctx, "u1", "catalog-1", "m2"); err != nil {
		t.Fatalf("select module: %v", err)
	}
	view, err := service.NextModule(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("next module: %v", err)
	}
	if view.Position.ModuleID != "m2" {
		t.Fatalf("expected to stay in m2, got %+v", view.Position)
	}
}

func TestCatalogCompletionAndRepeat(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()
	mustOpen(t, service, "u1")

	answerAndAdvance(t, service, "u1", "A")
	answerAndAdvance(t, service, "u1", "X", "Y")
	answer(t, service, "u1", "Nein") // q3 wrong
	if result, err := service.Advance(ctx, "u1", "catalog-1"); err != nil || result.Kind != quiz.OutcomeModuleComplete {
		t.Fatalf("expected moduleComplete, got %+v err=%v", result, err)
	}
	if _, err := service.NextModule(ctx, "u1", "catalog-1"); err != nil {
		t.Fatalf("next module: %v", err)
	}

	// q4 is the structural last question; submitting it completes the catalog.
	result := answer(t, service, "u1", "Richtig")
	if result.Completion == nil {
		t.Fatalf("expected completion summary on last submission")
	}
	if result.Completion.CorrectAnswers != 3 || result.Completion.WrongAnswers != 1 {
		t.Fatalf("unexpected completion %+v", result.Completion)
	}
	if result.View.State != quiz.StateCatalogComplete {
		t.Fatalf("expected catalogComplete state, got %s", result.View.State)
	}

	// Advancing past the summary is blocked.
	blocked, err := service.Advance(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if blocked.Kind != quiz.OutcomeCatalogComplete {
		t.Fatalf("expected catalogComplete, got %s", blocked.Kind)
	}

	view, err := service.RepeatCatalog(ctx, "u1", "catalog-1", quiz.RepeatReset)
	if err != nil {
		t.Fatalf("repeat reset: %v", err)
	}
	if view.Position.QuestionID != "q1" || view.State != quiz.StateBrowsing {
		t.Fatalf("expected fresh start at q1, got %+v", view)
	}
	if view.Rollup.Attempted != 0 {
		t.Fatalf("expected cleared local progress, got %+v", view.Rollup)
	}
	progress, _ := store.LoadCatalogProgress(ctx, "u1", "catalog-1")
	if len(progress) != 0 {
		t.Fatalf("expected cleared stored progress, got %+v", progress)
	}
	rollup, _ := store.Rollup("u1", "catalog-1")
	if rollup.Attempted != 0 {
		t.Fatalf("expected zeroed rollup, got %+v", rollup)
	}
}

func TestRepeatCatalogWrongOnly(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	mustOpen(t, service, "u1")

	answer(t, service, "u1", "B") // q1 wrong
	if _, err := service.SelectQuestion(ctx, "u1", "catalog-1", "q4"); err != nil {
		t.Fatalf("select question: %v", err)
	}
	answer(t, service, "u1", "Richtig") // completes via structural last

	view, err := service.RepeatCatalog(ctx, "u1", "catalog-1", quiz.RepeatWrongOnly)
	if err != nil {
		t.Fatalf("repeat wrongOnly: %v", err)
	}
	if view.Settings.FilterMode != domain.FilterWrongOnly {
		t.Fatalf("expected wrongOnly filter, got %+v", view.Settings)
	}
	if view.Position.QuestionID != "q1" {
		t.Fatalf("expected jump to first wrong question, got %+v", view.Position)
	}
}

func TestUpdateSettingsValidates(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	mustOpen(t, service, "u1")

	if _, err := service.UpdateSettings(ctx, "u1", "catalog-1", domain.Settings{FilterMode: "bogus", ProgressScope: domain.ScopeCatalog}); err == nil {
		t.Fatalf("expected validation error")
	}

	view, err := service.UpdateSettings(ctx, "u1", "catalog-1", domain.Settings{FilterMode: domain.FilterWrongOnly, ProgressScope: domain.ScopeModule})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if view.Settings.FilterMode != domain.FilterWrongOnly || view.Settings.ProgressScope != domain.ScopeModule {
		t.Fatalf("unexpected settings %+v", view.Settings)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	mustOpen(t, service, "u1")

	ch, cancel, err := service.Subscribe(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	if _, err := service.ToggleAnswer(ctx, "u1", "catalog-1", "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	update := <-ch
	if update.Question == nil || len(update.Question.Answers) == 0 {
		t.Fatalf("expected question view in update")
	}
	if update.Question.Answers[0].Style != quiz.StyleSelected {
		t.Fatalf("expected A selected in update, got %+v", update.Question.Answers[0])
	}
}

func TestLeaveDropsIdleSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	mustOpen(t, service, "u1")

	_, cancel, err := service.Subscribe(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	service.Leave(ctx, "u1", "catalog-1")
	if _, err := service.View(ctx, "u1", "catalog-1"); err != nil {
		t.Fatalf("session with a subscriber must survive leave: %v", err)
	}

	cancel()
	service.Leave(ctx, "u1", "catalog-1")
	if _, err := service.View(ctx, "u1", "catalog-1"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound after idle leave, got %v", err)
	}
}

func TestTimerThroughService(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	mustOpen(t, service, "u1")

	view, err := service.Timer(ctx, "u1", "catalog-1", quiz.TimerStart)
	if err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if !view.TimerRunning {
		t.Fatalf("expected running timer")
	}
	view, err = service.Timer(ctx, "u1", "catalog-1", quiz.TimerReset)
	if err != nil {
		t.Fatalf("reset timer: %v", err)
	}
	if view.TimerRunning || view.Elapsed != 0 {
		t.Fatalf("expected stopped zeroed timer, got %+v", view)
	}
	if _, err := service.Timer(ctx, "u1", "catalog-1", quiz.TimerAction("bogus")); err == nil {
		t.Fatalf("expected error for invalid timer action")
	}
}

func TestSubmitSurvivesStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{ProgressStore: memory.NewProgressStore()}
	service := newServiceWith(store)
	mustOpen(t, service, "u1")

	store.failWrites = true
	if _, err := service.ToggleAnswer(ctx, "u1", "catalog-1", "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	result, err := service.Submit(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("store failure must not fail the submission: %v", err)
	}
	if !result.Correct {
		t.Fatalf("expected correct submission")
	}
	if !result.View.Unsynced {
		t.Fatalf("expected unsynced flag after store failure")
	}
	if result.View.Rollup.Attempted != 1 || result.View.Rollup.EarnedPoints != 1 {
		t.Fatalf("local state must keep the attempt, got %+v", result.View.Rollup)
	}

	stored, _ := store.LoadCatalogProgress(ctx, "u1", "catalog-1")
	if len(stored) != 0 {
		t.Fatalf("expected nothing persisted, got %+v", stored)
	}

	// The flag sticks until the session syncs again.
	view, err := service.View(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !view.Unsynced {
		t.Fatalf("expected unsynced flag on later views")
	}
}

func TestSubmitMarksUnsyncedOnRollupFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{ProgressStore: memory.NewProgressStore()}
	service := newServiceWith(store)
	mustOpen(t, service, "u1")

	store.failRollups = true
	if _, err := service.ToggleAnswer(ctx, "u1", "catalog-1", "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	result, err := service.Submit(ctx, "u1", "catalog-1")
	if err != nil {
		t.Fatalf("rollup failure must not fail the submission: %v", err)
	}
	if !result.View.Unsynced {
		t.Fatalf("expected unsynced flag after rollup failure")
	}

	// The per-question record itself made it to the store.
	stored, _ := store.LoadCatalogProgress(ctx, "u1", "catalog-1")
	if p, ok := stored["q1"]; !ok || !p.IsCorrect {
		t.Fatalf("expected persisted q1 record, got %+v", stored)
	}
}

// flakyStore fails writes on demand to exercise the unsynced path.
type flakyStore struct {
	*memory.ProgressStore
	failWrites  bool
	failRollups bool
}

func (s *flakyStore) SaveProgress(ctx context.Context, userID, catalogID string, p domain.Progress) error {
	if s.failWrites {
		return errors.New("store offline")
	}
	return s.ProgressStore.SaveProgress(ctx, userID, catalogID, p)
}

func (s *flakyStore) UpdateCatalogRollup(ctx context.Context, userID, catalogID string, r domain.Rollup) error {
	if s.failWrites || s.failRollups {
		return errors.New("store offline")
	}
	return s.ProgressStore.UpdateCatalogRollup(ctx, userID, catalogID, r)
}

func newTestService() (*quiz.Service, *memory.ProgressStore) {
	store := memory.NewProgressStore()
	return newServiceWith(store), store
}

func newServiceWith(store quiz.ProgressRepository) *quiz.Service {
	sessions := memory.NewSessionStore()
	catalogs := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(map[string]domain.Catalog{
		"catalog-1": serviceTestCatalog(),
	}), 5*time.Minute)
	return quiz.NewService(sessions, catalogs, store)
}

func mustOpen(t *testing.T, service *quiz.Service, userID string) {
	t.Helper()
	if _, err := service.Open(context.Background(), userID, "catalog-1", true); err != nil {
		t.Fatalf("open: %v", err)
	}
}

// answer toggles the given texts on the current question and submits.
func answer(t *testing.T, service *quiz.Service, userID string, texts ...string) quiz.SubmitResult {
	t.Helper()
	ctx := context.Background()
	for _, text := range texts {
		if _, err := service.ToggleAnswer(ctx, userID, "catalog-1", text); err != nil {
			t.Fatalf("toggle %q: %v", text, err)
		}
	}
	result, err := service.Submit(ctx, userID, "catalog-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return result
}

func answerAndAdvance(t *testing.T, service *quiz.Service, userID string, texts ...string) {
	t.Helper()
	answer(t, service, userID, texts...)
	if _, err := service.Advance(context.Background(), userID, "catalog-1"); err != nil {
		t.Fatalf("advance: %v", err)
	}
}

func serviceTestCatalog() domain.Catalog {
	return domain.Catalog{
		ID:    "catalog-1",
		Year:  2024,
		Title: "Testkatalog",
		Modules: []domain.Module{
			{
				ID:    "m1",
				Title: "Modul I",
				Categories: []domain.Category{
					{
						ID:    "c1",
						Title: "Grundlagen",
						Questions: []domain.Question{
							{
								ID:     "q1",
								Text:   "Frage 1",
								Points: 1,
								Answers: []domain.Answer{
									{Text: "A", IsCorrect: true},
									{Text: "B", Explanation: "B ist falsch."},
								},
							},
							{
								ID:               "q2",
								Text:             "Frage 2",
								Points:           2,
								IsMultipleChoice: true,
								Answers: []domain.Answer{
									{Text: "X", IsCorrect: true},
									{Text: "Y", IsCorrect: true},
									{Text: "Z", Explanation: "Z ist falsch."},
								},
							},
						},
					},
					{
						ID:    "c2",
						Title: "Vertiefung",
						Questions: []domain.Question{
							{
								ID:     "q3",
								Text:   "Frage 3",
								Points: 1,
								Answers: []domain.Answer{
									{Text: "Ja", IsCorrect: true},
									{Text: "Nein"},
								},
							},
						},
					},
				},
			},
			{
				ID:    "m2",
				Title: "Modul II",
				Categories: []domain.Category{
					{
						ID:    "c3",
						Title: "Praxis",
						Questions: []domain.Question{
							{
								ID:     "q4",
								Text:   "Frage 4",
								Points: 1,
								Answers: []domain.Answer{
									{Text: "Richtig", IsCorrect: true},
									{Text: "Falsch"},
								},
							},
						},
					},
				},
			},
		},
	}
}
