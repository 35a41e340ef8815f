// Package token issues share links for review clips.
//
// Issuing is idempotent per clip: the first request mints a token and
// every later request returns the same one, so a "Copy share link" button
// can be mashed without invalidating links already sent out.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/frameproof/frameproof/internal/adapters/repository"
	"github.com/frameproof/frameproof/pkg/metrics"
)

// Issuer mints and replays share tokens.
type Issuer interface {
	// Issue returns the share token for clipID, creating one on first use.
	Issue(ctx context.Context, clipID string) (string, error)

	// Lookup returns the token for clipID without creating one.
	Lookup(ctx context.Context, clipID string) (string, error)
}

type issuer struct {
	persist repository.Persister
	newID   func() string

	mu    sync.RWMutex
	cache map[string]string // clipID -> token
}

// New creates an Issuer backed by the given persister.
func New(persist repository.Persister, opts ...Option) Issuer {
	i := &issuer{
		persist: persist,
		newID:   uuid.NewString,
		cache:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *issuer) Issue(ctx context.Context, clipID string) (string, error) {
	if tok, ok := i.cached(clipID); ok {
		return tok, nil
	}

	// The persister is the source of truth; another instance may have
	// minted a token for this clip already.
	tok, err := i.persist.ShareToken(ctx, clipID)
	switch {
	case err == nil && tok != "":
		i.remember(clipID, tok)
		return tok, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return "", fmt.Errorf("look up share token: %w", err)
	}

	tok = i.newID()
	if err := i.persist.SaveShareToken(ctx, clipID, tok); err != nil {
		return "", fmt.Errorf("save share token: %w", err)
	}
	i.remember(clipID, tok)
	metrics.RecordShareTokenIssued()
	return tok, nil
}

func (i *issuer) Lookup(ctx context.Context, clipID string) (string, error) {
	if tok, ok := i.cached(clipID); ok {
		return tok, nil
	}
	tok, err := i.persist.ShareToken(ctx, clipID)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", repository.ErrNotFound
	}
	i.remember(clipID, tok)
	return tok, nil
}

func (i *issuer) cached(clipID string) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	tok, ok := i.cache[clipID]
	return tok, ok
}

func (i *issuer) remember(clipID, tok string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cache[clipID] = tok
}
