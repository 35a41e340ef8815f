package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/frameproof/frameproof/internal/domain/model"
)

// MemoryStore implements Persister on in-process maps. It backs tests and
// the review simulator, and carries a failure-injection hook so rollback
// behavior can be exercised deterministically.
type MemoryStore struct {
	mu      sync.Mutex
	threads map[string]model.Thread // thread id -> thread
	order   map[string][]string     // clip id -> thread ids in insert order
	clips   map[string]*clipState
	rounds  map[string][]model.RoundRecord

	failErr  error
	failOnce bool
}

type clipState struct {
	status model.AssetStatus
	token  string
	round  int
}

// NewMemoryStore creates an empty in-memory persister.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads: make(map[string]model.Thread),
		order:   make(map[string][]string),
		clips:   make(map[string]*clipState),
		rounds:  make(map[string][]model.RoundRecord),
	}
}

// FailWith makes every subsequent call return err until cleared with
// FailWith(nil).
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
	m.failOnce = false
}

// FailNext makes only the next call return err.
func (m *MemoryStore) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
	m.failOnce = true
}

// checkFailure must be called with m.mu held.
func (m *MemoryStore) checkFailure() error {
	if m.failErr == nil {
		return nil
	}
	err := m.failErr
	if m.failOnce {
		m.failErr = nil
		m.failOnce = false
	}
	return err
}

func (m *MemoryStore) clip(clipID string) *clipState {
	c, ok := m.clips[clipID]
	if !ok {
		c = &clipState{status: model.StatusInReview, round: 1}
		m.clips[clipID] = c
	}
	return c
}

func (m *MemoryStore) LoadThreads(ctx context.Context, clipID string) ([]model.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return nil, err
	}
	ids := m.order[clipID]
	out := make([]model.Thread, 0, len(ids))
	for _, id := range ids {
		if t, ok := m.threads[id]; ok {
			out = append(out, t.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Chip < out[j].Chip })
	return out, nil
}

func (m *MemoryStore) InsertThread(ctx context.Context, thread model.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return err
	}
	if thread.ID == "" || thread.ClipID == "" {
		return fmt.Errorf("%w: thread id and clip id are required", ErrValidation)
	}
	m.threads[thread.ID] = thread.Clone()
	m.order[thread.ClipID] = append(m.order[thread.ClipID], thread.ID)
	return nil
}

func (m *MemoryStore) InsertComment(ctx context.Context, threadID string, comment model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return err
	}
	t, ok := m.threads[threadID]
	if !ok {
		return fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}
	t.Comments = append(t.Comments, comment.Clone())
	m.threads[threadID] = t
	return nil
}

func (m *MemoryStore) UpdateThreadState(ctx context.Context, threadID string, state model.ThreadState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return err
	}
	t, ok := m.threads[threadID]
	if !ok {
		return fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}
	t.State = state
	m.threads[threadID] = t
	return nil
}

func (m *MemoryStore) UpdateThreadShapes(ctx context.Context, threadID string, shapes []model.Shape) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return err
	}
	t, ok := m.threads[threadID]
	if !ok {
		return fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}
	t.Shapes = model.CloneShapes(shapes)
	m.threads[threadID] = t
	return nil
}

func (m *MemoryStore) UpdateAssetStatus(ctx context.Context, clipID string, status model.AssetStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", ErrValidation, status)
	}
	m.clip(clipID).status = status
	return nil
}

func (m *MemoryStore) ShareToken(ctx context.Context, clipID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return "", err
	}
	c, ok := m.clips[clipID]
	if !ok || c.token == "" {
		return "", fmt.Errorf("%w: share token for clip %s", ErrNotFound, clipID)
	}
	return c.token, nil
}

func (m *MemoryStore) SaveShareToken(ctx context.Context, clipID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("%w: empty share token", ErrValidation)
	}
	m.clip(clipID).token = token
	return nil
}

func (m *MemoryStore) CurrentRound(ctx context.Context, clipID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return 0, err
	}
	return m.clip(clipID).round, nil
}

func (m *MemoryStore) CloseRound(ctx context.Context, clipID string, record model.RoundRecord, next int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return err
	}
	m.rounds[clipID] = append(m.rounds[clipID], record)
	for _, t := range record.Threads {
		delete(m.threads, t.ID)
	}
	remaining := m.order[clipID][:0]
	for _, id := range m.order[clipID] {
		if _, ok := m.threads[id]; ok {
			remaining = append(remaining, id)
		}
	}
	m.order[clipID] = remaining
	m.clip(clipID).round = next
	return nil
}

func (m *MemoryStore) RoundHistory(ctx context.Context, clipID string) ([]model.RoundRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkFailure(); err != nil {
		return nil, err
	}
	history := m.rounds[clipID]
	out := make([]model.RoundRecord, len(history))
	copy(out, history)
	return out, nil
}

// AssetStatus returns the current status of a clip (test helper).
func (m *MemoryStore) AssetStatus(clipID string) model.AssetStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clips[clipID]; ok {
		return c.status
	}
	return model.StatusInReview
}
