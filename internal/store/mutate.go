package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frameproof/frameproof/internal/adapters/repository"
	"github.com/frameproof/frameproof/internal/domain/model"
	"github.com/frameproof/frameproof/pkg/logger"
	"github.com/frameproof/frameproof/pkg/metrics"
)

// mutation is one queued optimistic update. apply runs under the store
// lock and either mutates local state or fails validation with nothing
// applied; persist is the remote write.
type mutation struct {
	name    string
	apply   func() error
	persist func(ctx context.Context) error
	done    chan error
}

// snapshot is the exact pre-mutation state restored on rollback.
type snapshot struct {
	threads  []model.Thread
	selected string
	status   model.AssetStatus
	round    int
	frozen   map[string]struct{}
}

func cloneFrozen(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for id := range in {
		out[id] = struct{}{}
	}
	return out
}

// run drains the mutation queue one entry at a time. Serialization is the
// point: a failed mutation must never roll back a later mutation's
// already-applied change.
func (s *Store) run() {
	defer close(s.drained)
	for m := range s.queue {
		metrics.UpdateMutationQueueSize(len(s.queue))
		m.done <- s.execute(m)
	}
}

// execute implements the snapshot -> apply -> persist -> commit-or-revert
// protocol shared by every mutation.
func (s *Store) execute(m *mutation) error {
	s.mu.Lock()
	snap := snapshot{
		threads:  model.CloneThreads(s.threads),
		selected: s.selected,
		status:   s.status,
		round:    s.round,
		frozen:   cloneFrozen(s.frozen),
	}
	if err := m.apply(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := m.persist(ctx)
	metrics.RecordPersistenceLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		s.mu.Lock()
		s.threads = snap.threads
		s.selected = snap.selected
		s.status = snap.status
		s.round = snap.round
		s.frozen = snap.frozen
		s.mu.Unlock()

		metrics.RecordMutationRollback()
		metrics.RecordPersistenceError(errorKind(err))
		s.log.Warn(context.Background(), "mutation rolled back",
			logger.String("clipID", s.clipID),
			logger.String("mutation", m.name),
			logger.Error(err),
		)
		return fmt.Errorf("%s: %w", m.name, err)
	}

	s.publishGauges()
	return nil
}

// do enqueues a mutation and waits for its outcome. The pipeline keeps
// running if the caller gives up early; its buffered done channel absorbs
// the late completion.
func (s *Store) do(ctx context.Context, name string, apply func() error, persist func(context.Context) error) error {
	m := &mutation{name: name, apply: apply, persist: persist, done: make(chan error, 1)}

	s.sendMu.RLock()
	if s.closed {
		s.sendMu.RUnlock()
		return ErrStoreClosed
	}
	select {
	case s.queue <- m:
		s.sendMu.RUnlock()
	default:
		s.sendMu.RUnlock()
		return fmt.Errorf("%s: %w", name, ErrQueueFull)
	}

	select {
	case err := <-m.done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}
}

// errorKind buckets a persistence failure for metrics and API mapping.
func errorKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, repository.ErrValidation):
		return "validation"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "transport"
	}
}

// AddThreadParams carries everything a new thread needs: the time anchor,
// the normalized shapes, and the first comment. A save is atomic.
type AddThreadParams struct {
	TStartMS    int64
	TEndMS      *int64
	Shapes      []model.Shape
	AuthorID    string
	Body        string
	Attachments []model.Attachment
}

// Degenerate reports a thread about to be created with no shapes and no
// comment text. Accepted, but flagged so the host can discard it.
func (p AddThreadParams) Degenerate() bool {
	return len(p.Shapes) == 0 && p.Body == ""
}

// AddThread creates a thread with the next chip number and persists it
// optimistically.
func (s *Store) AddThread(ctx context.Context, p AddThreadParams) (model.Thread, error) {
	if err := validateShapes(p.Shapes); err != nil {
		return model.Thread{}, err
	}
	if p.Degenerate() {
		metrics.RecordDegenerateAnnotation()
		s.log.Warn(ctx, "degenerate annotation accepted",
			logger.String("clipID", s.clipID),
			logger.Int64("tStartMS", p.TStartMS),
		)
	}

	var created model.Thread
	apply := func() error {
		if !s.loaded {
			return ErrNotLoaded
		}
		created = model.Thread{
			ID:       s.newID(),
			ClipID:   s.clipID,
			Chip:     s.nextChip(),
			State:    model.ThreadOpen,
			TStartMS: p.TStartMS,
			TEndMS:   p.TEndMS,
			Shapes:   model.CloneShapes(p.Shapes),
			Comments: []model.Comment{{
				ID:          s.newID(),
				AuthorID:    p.AuthorID,
				Body:        p.Body,
				CreatedAt:   s.now(),
				Attachments: p.Attachments,
			}},
			Round:     s.round,
			CreatedAt: s.now(),
		}
		s.threads = append(s.threads, created.Clone())
		return nil
	}
	persist := func(ctx context.Context) error {
		return s.persist.InsertThread(ctx, created)
	}

	if err := s.do(ctx, "add thread", apply, persist); err != nil {
		return model.Thread{}, err
	}
	metrics.RecordThreadCreated()
	return created, nil
}

// AddComment appends a comment to a thread.
func (s *Store) AddComment(ctx context.Context, threadID string, authorID, body string, attachments []model.Attachment) (model.Comment, error) {
	var created model.Comment
	apply := func() error {
		if !s.loaded {
			return ErrNotLoaded
		}
		t, err := s.mutableThread(threadID)
		if err != nil {
			return err
		}
		created = model.Comment{
			ID:          s.newID(),
			AuthorID:    authorID,
			Body:        body,
			CreatedAt:   s.now(),
			Attachments: attachments,
		}
		t.Comments = append(t.Comments, created.Clone())
		return nil
	}
	persist := func(ctx context.Context) error {
		return s.persist.InsertComment(ctx, threadID, created)
	}

	if err := s.do(ctx, "add comment", apply, persist); err != nil {
		return model.Comment{}, err
	}
	metrics.RecordCommentAdded()
	return created, nil
}

// ResolveThread transitions a thread to resolved.
func (s *Store) ResolveThread(ctx context.Context, threadID string) error {
	if err := s.setThreadState(ctx, threadID, model.ThreadResolved, "resolve thread"); err != nil {
		return err
	}
	metrics.RecordThreadResolved()
	return nil
}

// ReopenThread transitions a thread back to open. Both directions are
// reviewer-triggered; there is no terminal state.
func (s *Store) ReopenThread(ctx context.Context, threadID string) error {
	if err := s.setThreadState(ctx, threadID, model.ThreadOpen, "reopen thread"); err != nil {
		return err
	}
	metrics.RecordThreadReopened()
	return nil
}

func (s *Store) setThreadState(ctx context.Context, threadID string, state model.ThreadState, name string) error {
	apply := func() error {
		if !s.loaded {
			return ErrNotLoaded
		}
		t, err := s.mutableThread(threadID)
		if err != nil {
			return err
		}
		t.State = state
		return nil
	}
	persist := func(ctx context.Context) error {
		return s.persist.UpdateThreadState(ctx, threadID, state)
	}
	return s.do(ctx, name, apply, persist)
}

// UpdateThreadShapes replaces a thread's shape set.
func (s *Store) UpdateThreadShapes(ctx context.Context, threadID string, shapes []model.Shape) error {
	if err := validateShapes(shapes); err != nil {
		return err
	}
	apply := func() error {
		if !s.loaded {
			return ErrNotLoaded
		}
		t, err := s.mutableThread(threadID)
		if err != nil {
			return err
		}
		t.Shapes = model.CloneShapes(shapes)
		return nil
	}
	persist := func(ctx context.Context) error {
		return s.persist.UpdateThreadShapes(ctx, threadID, shapes)
	}

	if err := s.do(ctx, "update thread shapes", apply, persist); err != nil {
		return err
	}
	metrics.RecordShapesUpdated()
	return nil
}

// SetStatus records the review verdict on the clip.
func (s *Store) SetStatus(ctx context.Context, status model.AssetStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	apply := func() error {
		if !s.loaded {
			return ErrNotLoaded
		}
		s.status = status
		return nil
	}
	persist := func(ctx context.Context) error {
		return s.persist.UpdateAssetStatus(ctx, s.clipID, status)
	}

	if err := s.do(ctx, "set status", apply, persist); err != nil {
		return err
	}
	metrics.RecordStatusTransition(string(status))
	return nil
}

// AdvanceRound closes the current feedback round: resolved threads freeze
// into immutable history and the counter increments. Unresolved threads
// carry over as current. Returns the new round number.
func (s *Store) AdvanceRound(ctx context.Context) (int, error) {
	var record model.RoundRecord
	var next int
	apply := func() error {
		if !s.loaded {
			return ErrNotLoaded
		}
		next = s.round + 1
		record = model.RoundRecord{Round: s.round, ClosedAt: s.now()}

		remaining := make([]model.Thread, 0, len(s.threads))
		for i := range s.threads {
			if s.threads[i].State == model.ThreadResolved {
				record.Threads = append(record.Threads, s.threads[i].Clone())
				s.frozen[s.threads[i].ID] = struct{}{}
				if s.selected == s.threads[i].ID {
					s.selected = ""
				}
			} else {
				remaining = append(remaining, s.threads[i])
			}
		}
		s.threads = remaining
		s.round = next
		return nil
	}
	persist := func(ctx context.Context) error {
		return s.persist.CloseRound(ctx, s.clipID, record, next)
	}

	if err := s.do(ctx, "advance round", apply, persist); err != nil {
		return 0, err
	}
	metrics.RecordRoundAdvanced()
	return next, nil
}

// findThread returns a pointer into s.threads. Must be called with s.mu
// held.
func (s *Store) findThread(id string) *model.Thread {
	for i := range s.threads {
		if s.threads[i].ID == id {
			return &s.threads[i]
		}
	}
	return nil
}

// mutableThread resolves a thread id for mutation. Threads frozen into a
// closed round are immutable. Must be called with s.mu held.
func (s *Store) mutableThread(id string) (*model.Thread, error) {
	if t := s.findThread(id); t != nil {
		return t, nil
	}
	if _, ok := s.frozen[id]; ok {
		return nil, ErrRoundClosed
	}
	return nil, ErrThreadNotFound
}

func validateShapes(shapes []model.Shape) error {
	for i := range shapes {
		if !shapes[i].Kind.Valid() {
			return ErrInvalidShape
		}
	}
	return nil
}
