// Package store holds the authoritative in-memory representation of one
// clip's annotation threads, kept consistent with the persistence
// collaborator through optimistic mutation with rollback.
//
// Every mutating operation follows the same protocol: snapshot the current
// state, apply the change locally so readers see it immediately, issue the
// remote write, and on failure restore the snapshot byte-for-byte. Local
// state never diverges permanently from an unacknowledged remote write.
//
// Mutations for a clip are serialized through a single pipeline goroutine,
// so a failed mutation can never roll back a later mutation's
// already-applied change.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frameproof/frameproof/internal/adapters/repository"
	"github.com/frameproof/frameproof/internal/domain/model"
	"github.com/frameproof/frameproof/pkg/logger"
	"github.com/frameproof/frameproof/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultMutationTimeout = 20 * time.Second
	defaultQueueSize       = 1024
)

// Store is the per-clip annotation store. One instance per loaded clip,
// constructor-injected wherever needed; never a package-level singleton.
type Store struct {
	clipID  string
	persist repository.Persister

	mu       sync.RWMutex
	threads  []model.Thread
	selected string // selected thread id, "" when nothing is selected
	status   model.AssetStatus
	round    int
	frozen   map[string]struct{} // thread ids frozen into closed rounds
	loaded   bool
	loadErr  error

	queue   chan *mutation
	drained chan struct{}
	sendMu  sync.RWMutex
	closed  bool

	timeout time.Duration
	newID   func() string
	now     func() time.Time
	log     logger.Logger
}

// New creates a store for one clip. Call Load before reading; call Close
// when the clip is torn down.
func New(clipID string, persist repository.Persister, opts ...Option) *Store {
	s := &Store{
		clipID:  clipID,
		persist: persist,
		status:  model.StatusInReview,
		round:   1,
		frozen:  make(map[string]struct{}),
		timeout: defaultMutationTimeout,
		newID:   uuid.NewString,
		now:     time.Now,
		log:     nil, // resolved on first use
	}
	queueSize := defaultQueueSize
	for _, opt := range opts {
		opt(s, &queueSize)
	}
	if s.log == nil {
		s.log = logger.Get().Named("store")
	}
	s.queue = make(chan *mutation, queueSize)
	s.drained = make(chan struct{})
	go s.run()
	return s
}

// ClipID returns the clip this store owns.
func (s *Store) ClipID() string { return s.clipID }

// Load fetches the clip's threads and round counter. A failed load leaves
// the store in a recoverable error state with no partial thread list; the
// host can render the error and retry.
func (s *Store) Load(ctx context.Context) error {
	threads, err := s.persist.LoadThreads(ctx, s.clipID)
	if err != nil {
		metrics.RecordLoadError()
		s.mu.Lock()
		s.loaded = false
		s.loadErr = err
		s.threads = nil
		s.mu.Unlock()
		return err
	}
	round, err := s.persist.CurrentRound(ctx, s.clipID)
	if err != nil {
		metrics.RecordLoadError()
		s.mu.Lock()
		s.loaded = false
		s.loadErr = err
		s.threads = nil
		s.mu.Unlock()
		return err
	}
	history, err := s.persist.RoundHistory(ctx, s.clipID)
	if err != nil {
		metrics.RecordLoadError()
		s.mu.Lock()
		s.loaded = false
		s.loadErr = err
		s.threads = nil
		s.mu.Unlock()
		return err
	}

	frozen := make(map[string]struct{})
	for i := range history {
		for j := range history[i].Threads {
			frozen[history[i].Threads[j].ID] = struct{}{}
		}
	}

	// Persisters are not required to return threads in any order. New
	// threads always take the highest chip, so sorting once here keeps the
	// list chip-ordered for the store's lifetime.
	sort.SliceStable(threads, func(i, j int) bool { return threads[i].Chip < threads[j].Chip })

	s.mu.Lock()
	s.threads = threads
	s.round = round
	s.frozen = frozen
	s.loaded = true
	s.loadErr = nil
	s.selected = ""
	s.mu.Unlock()
	s.publishGauges()
	return nil
}

// Err returns the load error state, nil when the store is healthy.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Loaded reports whether an initial load has succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Threads returns a deep copy of the current thread list ordered by chip.
// Callers must re-read after any mutation; copies are never a second
// source of truth.
func (s *Store) Threads() []model.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneThreads(s.threads)
}

// Thread returns one thread by id.
func (s *Store) Thread(id string) (model.Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.threads {
		if s.threads[i].ID == id {
			return s.threads[i].Clone(), true
		}
	}
	return model.Thread{}, false
}

// Knows reports whether this store owns the thread, either in the
// current round or frozen into a closed one.
func (s *Store) Knows(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.frozen[id]; ok {
		return true
	}
	for i := range s.threads {
		if s.threads[i].ID == id {
			return true
		}
	}
	return false
}

// OpenThreads returns a fresh list of threads in the open state.
func (s *Store) OpenThreads() []model.Thread {
	return s.filterThreads(model.ThreadOpen)
}

// ResolvedThreads returns a fresh list of threads in the resolved state.
func (s *Store) ResolvedThreads() []model.Thread {
	return s.filterThreads(model.ThreadResolved)
}

func (s *Store) filterThreads(state model.ThreadState) []model.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Thread, 0, len(s.threads))
	for i := range s.threads {
		if s.threads[i].State == state {
			out = append(out, s.threads[i].Clone())
		}
	}
	return out
}

// SelectThread sets the active thread; the empty string clears the
// selection. Selecting a nonexistent id is not an error, it simply yields
// no match on read.
func (s *Store) SelectThread(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// SelectedThread returns the active thread, if any.
func (s *Store) SelectedThread() (model.Thread, bool) {
	s.mu.RLock()
	id := s.selected
	s.mu.RUnlock()
	if id == "" {
		return model.Thread{}, false
	}
	return s.Thread(id)
}

// Status returns the clip's current review verdict.
func (s *Store) Status() model.AssetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Round returns the current feedback round.
func (s *Store) Round() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.round
}

// RoundHistory returns the immutable closed rounds, oldest first.
func (s *Store) RoundHistory(ctx context.Context) ([]model.RoundRecord, error) {
	return s.persist.RoundHistory(ctx, s.clipID)
}

// Close shuts down the mutation pipeline. Pending mutations are drained;
// new ones are rejected with ErrStoreClosed.
func (s *Store) Close() {
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.sendMu.Unlock()
	<-s.drained
}

// nextChip computes max(existing chips)+1 from the then-current in-memory
// set. Must be called with s.mu held.
func (s *Store) nextChip() int {
	max := 0
	for i := range s.threads {
		if s.threads[i].Chip > max {
			max = s.threads[i].Chip
		}
	}
	return max + 1
}

// publishGauges refreshes the open/resolved thread gauges.
func (s *Store) publishGauges() {
	s.mu.RLock()
	open, resolved := 0, 0
	for i := range s.threads {
		if s.threads[i].State == model.ThreadOpen {
			open++
		} else {
			resolved++
		}
	}
	s.mu.RUnlock()
	metrics.UpdateOpenThreads(open)
	metrics.UpdateResolvedThreads(resolved)
}
