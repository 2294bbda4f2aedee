package tournament

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/guitarbeat/namerank/pkg/rating"
	"github.com/guitarbeat/namerank/pkg/sorter"
)

// Error types for session operations
var (
	ErrNilVoter          = errors.New("voter must not be nil")
	ErrTournamentTimeout = errors.New("tournament timed out")
	ErrAborted           = errors.New("tournament aborted")
	ErrNoMatches         = errors.New("no matches to undo")
	ErrUnknownName       = errors.New("name is not part of this tournament")

	// errUndoRequested flows from the voter through the sorter back to the
	// run loop, which rewinds one match and restarts the sort
	errUndoRequested = errors.New("undo requested")
)

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

// Session lifecycle states
const (
	StatusCreated  SessionStatus = "created"
	StatusActive   SessionStatus = "active"
	StatusComplete SessionStatus = "complete"
	StatusAborted  SessionStatus = "aborted"
)

// Session drives one tournament over a fixed list of names. It owns the
// rating records, the append-only match history, and the sorter, and is safe
// for concurrent reads while a run is in progress.
type Session struct {
	mu sync.RWMutex

	ID        string
	Name      string
	Status    SessionStatus
	CreatedAt time.Time
	UpdatedAt time.Time

	config  Config
	engine  *rating.Engine
	srt     *sorter.Sorter
	entries map[string]*Entry
	items   []string
	matches []Match
	final   []string

	savePath string
}

// NewSession creates a session over the given names. Name validation
// (minimum of two, no blanks, no duplicates) happens here, before any
// comparison is presented.
func NewSession(name string, items []string, config Config) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	engine, err := rating.NewEngine(config.Rating)
	if err != nil {
		return nil, err
	}

	srt, err := sorter.New(items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cleaned := srt.Items()
	entries := make(map[string]*Entry, len(cleaned))
	for _, item := range cleaned {
		entries[item] = &Entry{
			Name:      item,
			Stats:     engine.NewStats(),
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if name == "" {
		name = fmt.Sprintf("Tournament %s", now.Format("2006-01-02 15:04"))
	}

	return &Session{
		ID:        generateSessionID(now),
		Name:      name,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
		config:    config,
		engine:    engine,
		srt:       srt,
		entries:   entries,
		items:     cleaned,
	}, nil
}

// generateSessionID builds a unique, filename-safe session identifier
func generateSessionID(now time.Time) string {
	return fmt.Sprintf("tournament_%s_%08x",
		now.Format("20060102_150405"),
		now.UnixNano()&0xffffffff)
}

// Config returns the session configuration
func (s *Session) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Items returns the tournament's name list in input order
func (s *Session) Items() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]string, len(s.items))
	copy(items, s.items)
	return items
}

// SetSavePath enables autosave to the given file after every match when
// auto_save is configured
func (s *Session) SetSavePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savePath = path
}

// SavePath returns the configured autosave file, if any
func (s *Session) SavePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savePath
}

// Run drives the tournament to completion, presenting each undecided pair to
// the voter exactly once. The run is bounded by the configured wall-clock
// timeout. An undo choice rewinds one match and re-presents the undone pair;
// quit aborts with the current snapshot standings still readable.
func (s *Session) Run(ctx context.Context, voter Voter) ([]Standing, error) {
	if voter == nil {
		return nil, ErrNilVoter
	}

	s.mu.Lock()
	s.Status = StatusActive
	s.UpdatedAt = time.Now()
	timeout := s.config.Run.Timeout
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		final, err := s.srt.Sort(runCtx, s.comparator(voter))
		if err == nil {
			s.mu.Lock()
			s.final = final
			s.Status = StatusComplete
			s.UpdatedAt = time.Now()
			s.mu.Unlock()
			return s.Standings(), nil
		}

		switch {
		case errors.Is(err, errUndoRequested):
			if undoErr := s.UndoLastMatch(); undoErr != nil && !errors.Is(undoErr, ErrNoMatches) {
				return nil, undoErr
			}
			// Nothing to undo: the sort restarts and fast-forwards through
			// the cached verdicts to the same pair
			continue

		case errors.Is(err, ErrAborted):
			s.setStatus(StatusAborted)
			return s.Standings(), ErrAborted

		case errors.Is(err, context.DeadlineExceeded):
			s.setStatus(StatusAborted)
			return nil, fmt.Errorf("%w after %v", ErrTournamentTimeout, timeout)

		default:
			s.setStatus(StatusAborted)
			return nil, err
		}
	}
}

// comparator bridges the sorter to the voter. One pairing is outstanding at
// a time; a judged pair is recorded before the verdict is handed back.
func (s *Session) comparator(voter Voter) sorter.Comparator {
	return func(ctx context.Context, first, second string) (sorter.Verdict, error) {
		start := time.Now()

		s.mu.RLock()
		pairing := Pairing{
			First:     first,
			Second:    second,
			Completed: len(s.matches),
			Estimated: sorter.EstimateComparisons(len(s.items)),
		}
		s.mu.RUnlock()

		choice, err := voter.Pick(ctx, pairing)
		if err != nil {
			return sorter.VerdictTie, err
		}

		switch choice {
		case ChoiceUndo:
			return sorter.VerdictTie, errUndoRequested
		case ChoiceQuit:
			return sorter.VerdictTie, ErrAborted
		}

		outcome, verdict, err := choiceOutcome(choice)
		if err != nil {
			return sorter.VerdictTie, err
		}

		if err := s.recordMatch(first, second, outcome, verdict, time.Since(start)); err != nil {
			return sorter.VerdictTie, err
		}

		if err := s.autosave(); err != nil {
			return sorter.VerdictTie, err
		}

		return verdict, nil
	}
}

// recordMatch applies one judged pairing to both entries and appends it to
// the history
func (s *Session) recordMatch(first, second string, outcome rating.Outcome, verdict sorter.Verdict, elapsed time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.entries[first]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownName, first)
	}
	b, ok := s.entries[second]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownName, second)
	}

	result, err := s.engine.ApplyOutcome(a.Stats, b.Stats, outcome)
	if err != nil {
		return err
	}

	now := time.Now()
	a.Stats = result.First
	a.UpdatedAt = now
	b.Stats = result.Second
	b.UpdatedAt = now

	s.matches = append(s.matches, Match{
		Index:        len(s.matches),
		First:        first,
		Second:       second,
		Outcome:      outcome,
		Verdict:      verdict,
		RatingFirst:  result.First.Rating,
		RatingSecond: result.Second.Rating,
		JudgedAt:     now,
		Elapsed:      elapsed,
	})
	s.UpdatedAt = now

	return nil
}

// autosave persists the session after a match when configured to do so
func (s *Session) autosave() error {
	s.mu.RLock()
	enabled := s.config.Run.AutoSave && s.savePath != ""
	path := s.savePath
	s.mu.RUnlock()

	if !enabled {
		return nil
	}
	return s.Save(path)
}

// UndoLastMatch removes the newest match and rebuilds every entry's record
// by replaying the remaining history from initial ratings. The sorter's
// cache is reseeded from the surviving verdicts, so the next run
// fast-forwards to the undone pair.
func (s *Session) UndoLastMatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.matches) == 0 {
		return ErrNoMatches
	}
	s.matches = s.matches[:len(s.matches)-1]

	return s.replayLocked()
}

// replayLocked recomputes entry stats and the sorter cache from the match
// history. Caller must hold the write lock.
func (s *Session) replayLocked() error {
	for _, entry := range s.entries {
		entry.Stats = s.engine.NewStats()
	}
	s.srt.Reset()

	for i := range s.matches {
		m := &s.matches[i]
		m.Index = i

		a, ok := s.entries[m.First]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownName, m.First)
		}
		b, ok := s.entries[m.Second]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownName, m.Second)
		}

		result, err := s.engine.ApplyOutcome(a.Stats, b.Stats, m.Outcome)
		if err != nil {
			return err
		}
		a.Stats = result.First
		b.Stats = result.Second
		m.RatingFirst = result.First.Rating
		m.RatingSecond = result.Second.Rating

		if err := s.srt.Seed(m.First, m.Second, m.Verdict); err != nil {
			return err
		}
	}

	s.final = nil
	s.Status = StatusActive
	s.UpdatedAt = time.Now()
	return nil
}

// setStatus updates the session status
func (s *Session) setStatus(status SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
	s.UpdatedAt = time.Now()
}

// CurrentStatus returns the session status
func (s *Session) CurrentStatus() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Standings returns the ranking joined with each entry's rating record.
// After a completed run this is the final order; during or after an aborted
// run it is the position-based snapshot of the partial sort.
func (s *Session) Standings() []Standing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := s.final
	if order == nil {
		order = s.srt.CurrentRanking()
	}

	standings := make([]Standing, 0, len(order))
	for i, name := range order {
		entry, ok := s.entries[name]
		if !ok {
			continue
		}
		standings = append(standings, Standing{
			Rank:   i + 1,
			Name:   name,
			Rating: entry.Stats.Rating,
			Wins:   entry.Stats.Wins,
			Losses: entry.Stats.Losses,
			Games:  entry.Stats.Games,
		})
	}
	return standings
}

// FinalStandings returns the completed ranking and whether the tournament
// has finished
func (s *Session) FinalStandings() ([]Standing, bool) {
	s.mu.RLock()
	complete := s.Status == StatusComplete && s.final != nil
	s.mu.RUnlock()

	if !complete {
		return nil, false
	}
	return s.Standings(), true
}

// Matches returns a copy of the match history
func (s *Session) Matches() []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, len(s.matches))
	copy(matches, s.matches)
	return matches
}

// Entry returns a copy of one name's record
func (s *Session) Entry(name string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	return *entry, nil
}

// Progress reports completed matches against the worst-case estimate
func (s *Session) Progress() (completed, estimated int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches), sorter.EstimateComparisons(len(s.items))
}
