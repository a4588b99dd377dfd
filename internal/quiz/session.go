package quiz

import (
	"sync"
	"time"

	"github.com/smarvasti/haftify/internal/domain"
)

// State is the navigation engine state of a session.
type State string

const (
	// StateBrowsing is the normal question-answering state.
	StateBrowsing State = "browsing"
	// StateModuleComplete blocks auto-advance until repeat/next module is chosen.
	StateModuleComplete State = "moduleComplete"
	// StateCatalogComplete shows the summary and blocks further advance.
	StateCatalogComplete State = "catalogComplete"
)

// Session holds the transient per-user browsing state for one catalog: the
// current position, the in-progress selection, settings, engine state and the
// timer. Progress is mirrored locally and kept in sync with the store by the
// service. The catalog tree is immutable and shared.
type Session struct {
	userID    string
	catalogID string
	catalog   domain.Catalog
	now       func() time.Time
	tick      time.Duration

	mu           sync.RWMutex
	progress     domain.ProgressSet
	pos          domain.Position
	selected     []string
	answered     bool
	settings     domain.Settings
	state        State
	elapsed      int
	timerRunning bool
	timerStop    chan struct{}
	unsynced     bool
	subscribers  map[chan View]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(userID, catalogID string, catalog domain.Catalog, progress domain.ProgressSet, pos domain.Position) *Session {
	return newSessionWithClock(userID, catalogID, catalog, progress, pos, time.Now, time.Second)
}

// NewSessionWithClock is test-only for deterministic timestamps and fast ticks.
func NewSessionWithClock(userID, catalogID string, catalog domain.Catalog, progress domain.ProgressSet, pos domain.Position, now func() time.Time, tick time.Duration) *Session {
	return newSessionWithClock(userID, catalogID, catalog, progress, pos, now, tick)
}

func newSessionWithClock(userID, catalogID string, catalog domain.Catalog, progress domain.ProgressSet, pos domain.Position, now func() time.Time, tick time.Duration) *Session {
	if progress == nil {
		progress = make(domain.ProgressSet)
	}
	return &Session{
		userID:      userID,
		catalogID:   catalogID,
		catalog:     catalog,
		now:         now,
		tick:        tick,
		progress:    progress,
		pos:         pos,
		settings:    domain.DefaultSettings(),
		state:       StateBrowsing,
		subscribers: make(map[chan View]struct{}),
	}
}

// moveToLocked repositions the session and clears the transient answer state.
func (s *Session) moveToLocked(pos domain.Position) {
	s.pos = pos
	s.selected = nil
	s.answered = false
	s.state = StateBrowsing
}

func (s *Session) toggleAnswerLocked(text string) error {
	if s.answered {
		return domain.ErrAlreadyAnswered
	}
	for i, a := range s.selected {
		if a == text {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return nil
		}
	}
	s.selected = append(s.selected, text)
	return nil
}

func (s *Session) applyProgressLocked(p domain.Progress) {
	s.progress[p.QuestionID] = p
	s.answered = true
}

func (s *Session) completeCatalogLocked() {
	s.state = StateCatalogComplete
	s.stopTimerLocked()
}

// IsIdle reports whether nothing subscribes to the session anymore.
func (s *Session) IsIdle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers) == 0
}

// Close stops the timer and drops all subscribers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// StartTimer begins the one-second tick. The session owns the goroutine and
// stops it on pause, reset, completion and close.
func (s *Session) StartTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timerRunning {
		return
	}
	s.timerRunning = true
	stop := make(chan struct{})
	s.timerStop = stop
	go func() {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				s.elapsed++
				s.broadcastLocked()
				s.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

// PauseTimer stops the tick, keeping the elapsed value.
func (s *Session) PauseTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// ResetTimer stops the tick and zeroes the elapsed value.
func (s *Session) ResetTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.elapsed = 0
}

func (s *Session) stopTimerLocked() {
	if !s.timerRunning {
		return
	}
	close(s.timerStop)
	s.timerRunning = false
}

// Elapsed returns the timer value in seconds.
func (s *Session) Elapsed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

func (s *Session) subscribe() (<-chan View, func()) {
	ch := make(chan View, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() View {
	view := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the stale snapshot so a slow client never blocks the rest.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}
