package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/greengrain/greengrain/internal/model"
)

// state is the mutable record of one monitoring run. A session is either
// fully reset (inactive, no owner, empty histories) or fully running;
// Store methods never leave it in between.
type state struct {
	active            bool
	owner             string
	startedAt         time.Time
	moistures         []float64
	temperatures      []float64
	latestMoisture    *float64
	latestTemperature *float64
}

func (s *state) reset() {
	s.active = false
	s.owner = ""
	s.startedAt = time.Time{}
	s.moistures = nil
	s.temperatures = nil
	s.latestMoisture = nil
	s.latestTemperature = nil
}

// State is the read-only view returned by Peek. Histories are copies;
// mutating them does not touch the store.
type State struct {
	Active            bool
	Owner             string
	StartedAt         time.Time
	ElapsedSeconds    int64
	Moistures         []float64
	Temperatures      []float64
	LatestMoisture    *float64
	LatestTemperature *float64
}

// Snapshot is the immutable capture handed out by Release. Once Release
// returns, no concurrent Record can append to these histories.
type Snapshot struct {
	Key          string
	Owner        string
	StartedAt    time.Time
	EndedAt      time.Time
	Moistures    []float64
	Temperatures []float64
}

// Store is the single authority over session state. Every mutation and
// read goes through its mutex, so ingestion racing with a lifecycle
// operation can never tear the accumulated history. No I/O happens while
// the lock is held.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*state
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*state),
		now:      time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Acquire starts (or restarts) the session under key, single-owner policy:
// an inactive session starts fresh; restarting your own session clears the
// histories and resets the timer; a session held by someone else is refused.
func (s *Store) Acquire(key, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[key]
	if !ok {
		st = &state{}
		s.sessions[key] = st
	}
	if st.active && st.owner != requester {
		return fmt.Errorf("%w (owner %q)", ErrPermission, st.owner)
	}

	st.reset()
	st.active = true
	st.owner = requester
	st.startedAt = s.now()
	return nil
}

// Record appends a reading to the active session under key and reports
// whether anything was recorded. When no session is active the reading is
// silently dropped: ingestion must never fail loudly for a transient
// absence of a listener.
func (s *Store) Record(key string, r model.Reading) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[key]
	if !ok || !st.active {
		return false
	}

	recorded := false
	if r.Moisture != nil {
		v := *r.Moisture
		st.moistures = append(st.moistures, v)
		st.latestMoisture = &v
		recorded = true
	}
	if r.Temperature != nil {
		v := *r.Temperature
		st.temperatures = append(st.temperatures, v)
		st.latestTemperature = &v
		recorded = true
	}
	return recorded
}

// Release validates ownership, captures a snapshot of the histories and
// resets the session, as one indivisible step. A session with no moisture
// or no temperature readings is left running and ErrNoData returned, so
// the owner can stop again once data has arrived.
func (s *Store) Release(key, requester string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[key]
	if !ok || !st.active {
		return Snapshot{}, ErrNoActiveSession
	}
	if st.owner != requester {
		return Snapshot{}, fmt.Errorf("%w (owner %q)", ErrPermission, st.owner)
	}
	if len(st.moistures) == 0 || len(st.temperatures) == 0 {
		return Snapshot{}, ErrNoData
	}

	snap := Snapshot{
		Key:          key,
		Owner:        st.owner,
		StartedAt:    st.startedAt,
		EndedAt:      s.now(),
		Moistures:    append([]float64(nil), st.moistures...),
		Temperatures: append([]float64(nil), st.temperatures...),
	}
	st.reset()
	return snap, nil
}

// Peek returns a consistent copy of the current state with elapsed seconds
// recomputed from the start time. Safe to call at any time; an unknown key
// yields the inactive shape.
func (s *Store) Peek(key string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[key]
	if !ok || !st.active {
		return State{Moistures: []float64{}, Temperatures: []float64{}}
	}

	elapsed := int64(s.now().Sub(st.startedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	out := State{
		Active:         true,
		Owner:          st.owner,
		StartedAt:      st.startedAt,
		ElapsedSeconds: elapsed,
		Moistures:      append([]float64(nil), st.moistures...),
		Temperatures:   append([]float64(nil), st.temperatures...),
	}
	if st.latestMoisture != nil {
		v := *st.latestMoisture
		out.LatestMoisture = &v
	}
	if st.latestTemperature != nil {
		v := *st.latestTemperature
		out.LatestTemperature = &v
	}
	return out
}

// Active returns how many sessions are currently running.
func (s *Store) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, st := range s.sessions {
		if st.active {
			n++
		}
	}
	return n
}
