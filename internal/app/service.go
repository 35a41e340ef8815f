// Package service provides the core review service that implements the
// dependencies required by the HTTP API.
//
// It owns the persistence adapter, the share-token issuer, and one
// annotation store per loaded clip. Stores are created lazily on first
// access and torn down together on Stop.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/frameproof/frameproof/internal/adapters/repository"
	"github.com/frameproof/frameproof/internal/domain/model"
	"github.com/frameproof/frameproof/internal/domain/navigator"
	"github.com/frameproof/frameproof/internal/domain/playback"
	"github.com/frameproof/frameproof/internal/domain/token"
	"github.com/frameproof/frameproof/internal/store"
	"github.com/frameproof/frameproof/pkg/logger"
	"github.com/frameproof/frameproof/pkg/metrics"
)

// Service implements the API dependencies for the review system.
type Service struct {
	mu sync.RWMutex

	// Core components
	persist repository.Persister
	tokens  token.Issuer
	stores  map[string]*store.Store

	// Configuration
	dbPath             string
	mutationTimeout    time.Duration
	queueSize          int
	visibilityWindowMS int64
	settleDelay        time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		stores:             make(map[string]*store.Store),
		dbPath:             "frameproof.db",
		mutationTimeout:    20 * time.Second,
		queueSize:          1024,
		visibilityWindowMS: 2000,
		settleDelay:        50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting review service...")

	if s.persist == nil {
		sqlite, err := repository.NewSQLiteStore(ctx, s.dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		s.persist = sqlite
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
	}
	s.tokens = token.New(s.persist)

	s.started = true
	s.logger.Info(ctx, "review service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int64("visibilityWindowMS", s.visibilityWindowMS),
	)
	return nil
}

// Stop gracefully shuts down the service, draining every clip's mutation
// pipeline.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping review service...")

	for clipID, st := range s.stores {
		st.Close()
		delete(s.stores, clipID)
	}
	metrics.UpdateLoadedClips(0)

	if closer, ok := s.persist.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "review service stopped")
}

// clipStore returns the store for clipID, creating and loading it on
// first access. A store whose load failed stays registered in its error
// state; each later access retries the load.
func (s *Service) clipStore(ctx context.Context, clipID string) (*store.Store, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	st, ok := s.stores[clipID]
	if !ok {
		st = store.New(clipID, s.persist,
			store.WithMutationTimeout(s.mutationTimeout),
			store.WithQueueSize(s.queueSize),
			store.WithLogger(s.logger.Named("store")),
		)
		s.stores[clipID] = st
		metrics.UpdateLoadedClips(len(s.stores))
	}
	s.mu.Unlock()

	if !st.Loaded() {
		if err := st.Load(ctx); err != nil {
			return nil, fmt.Errorf("load clip %s: %w", clipID, err)
		}
	}
	return st, nil
}

// storeByThread finds the loaded store owning the given thread.
func (s *Service) storeByThread(threadID string) (*store.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.stores {
		if st.Knows(threadID) {
			return st, nil
		}
	}
	return nil, ErrThreadNotFound
}

// Threads returns the current-round threads of a clip.
func (s *Service) Threads(ctx context.Context, clipID string) ([]model.Thread, error) {
	st, err := s.clipStore(ctx, clipID)
	if err != nil {
		return nil, err
	}
	return st.Threads(), nil
}

// OpenThreads returns the clip's unresolved threads.
func (s *Service) OpenThreads(ctx context.Context, clipID string) ([]model.Thread, error) {
	st, err := s.clipStore(ctx, clipID)
	if err != nil {
		return nil, err
	}
	return st.OpenThreads(), nil
}

// ResolvedThreads returns the clip's resolved threads.
func (s *Service) ResolvedThreads(ctx context.Context, clipID string) ([]model.Thread, error) {
	st, err := s.clipStore(ctx, clipID)
	if err != nil {
		return nil, err
	}
	return st.ResolvedThreads(), nil
}

// CreateThread opens a new annotation thread on a clip.
func (s *Service) CreateThread(ctx context.Context, clipID string, p store.AddThreadParams) (model.Thread, error) {
	st, err := s.clipStore(ctx, clipID)
	if err != nil {
		return model.Thread{}, err
	}
	return st.AddThread(ctx, p)
}

// AddComment appends a reply to an existing thread.
func (s *Service) AddComment(ctx context.Context, threadID, authorID, body string, attachments []model.Attachment) (model.Comment, error) {
	st, err := s.storeByThread(threadID)
	if err != nil {
		return model.Comment{}, err
	}
	return st.AddComment(ctx, threadID, authorID, body, attachments)
}

// ResolveThread marks a thread resolved.
func (s *Service) ResolveThread(ctx context.Context, threadID string) error {
	st, err := s.storeByThread(threadID)
	if err != nil {
		return err
	}
	return st.ResolveThread(ctx, threadID)
}

// ReopenThread returns a resolved thread to the open state.
func (s *Service) ReopenThread(ctx context.Context, threadID string) error {
	st, err := s.storeByThread(threadID)
	if err != nil {
		return err
	}
	return st.ReopenThread(ctx, threadID)
}

// UpdateThreadShapes replaces a thread's drawn shapes.
func (s *Service) UpdateThreadShapes(ctx context.Context, threadID string, shapes []model.Shape) error {
	st, err := s.storeByThread(threadID)
	if err != nil {
		return err
	}
	return st.UpdateThreadShapes(ctx, threadID, shapes)
}

// SetStatus records the review verdict on a clip.
func (s *Service) SetStatus(ctx context.Context, clipID string, status model.AssetStatus) error {
	st, err := s.clipStore(ctx, clipID)
	if err != nil {
		return err
	}
	return st.SetStatus(ctx, status)
}

// ClipStatus returns the clip's current verdict.
func (s *Service) ClipStatus(ctx context.Context, clipID string) (model.AssetStatus, error) {
	st, err := s.clipStore(ctx, clipID)
	if err != nil {
		return "", err
	}
	return st.Status(), nil
}

// Share returns the clip's share token, minting one on first use.
func (s *Service) Share(ctx context.Context, clipID string) (string, error) {
	s.mu.RLock()
	started, tokens := s.started, s.tokens
	s.mu.RUnlock()
	if !started {
		return "", ErrNotStarted
	}
	return tokens.Issue(ctx, clipID)
}

// AdvanceRound closes the clip's current feedback round and returns the
// new round number.
func (s *Service) AdvanceRound(ctx context.Context, clipID string) (int, error) {
	st, err := s.clipStore(ctx, clipID)
	if err != nil {
		return 0, err
	}
	return st.AdvanceRound(ctx)
}

// Round returns the clip's current feedback round.
func (s *Service) Round(ctx context.Context, clipID string) (int, error) {
	st, err := s.clipStore(ctx, clipID)
	if err != nil {
		return 0, err
	}
	return st.Round(), nil
}

// RoundHistory returns the clip's closed rounds, oldest first.
func (s *Service) RoundHistory(ctx context.Context, clipID string) ([]model.RoundRecord, error) {
	st, err := s.clipStore(ctx, clipID)
	if err != nil {
		return nil, err
	}
	return st.RoundHistory(ctx)
}

// Playback builds a synchronizer with the service's timing configuration.
// One per viewing session; the synchronizer itself is not shared.
func (s *Service) Playback() *playback.Synchronizer {
	return playback.New(
		playback.WithVisibilityWindow(s.visibilityWindowMS),
		playback.WithSettleDelay(s.settleDelay),
	)
}

// Navigator builds a thread cursor over a clip's store.
func (s *Service) Navigator(ctx context.Context, clipID string, seek navigator.SeekFunc) (*navigator.Navigator, error) {
	st, err := s.clipStore(ctx, clipID)
	if err != nil {
		return nil, err
	}
	return navigator.New(st, seek), nil
}

// Stats is a point-in-time snapshot of service state.
type Stats struct {
	LoadedClips     int            `json:"loaded_clips"`
	OpenThreads     int            `json:"open_threads"`
	ResolvedThreads int            `json:"resolved_threads"`
	RoundByClip     map[string]int `json:"round_by_clip"`
}

// GetStats aggregates counts across every loaded clip.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{RoundByClip: make(map[string]int, len(s.stores))}
	for clipID, st := range s.stores {
		if !st.Loaded() {
			continue
		}
		stats.LoadedClips++
		stats.OpenThreads += len(st.OpenThreads())
		stats.ResolvedThreads += len(st.ResolvedThreads())
		stats.RoundByClip[clipID] = st.Round()
	}
	return stats
}
