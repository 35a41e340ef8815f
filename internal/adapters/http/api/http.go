// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/frameproof/frameproof/internal/app"

	"github.com/frameproof/frameproof/internal/adapters/repository"
	"github.com/frameproof/frameproof/internal/domain/model"
	"github.com/frameproof/frameproof/internal/store"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Threads(ctx context.Context, clipID string) ([]model.Thread, error)
	OpenThreads(ctx context.Context, clipID string) ([]model.Thread, error)
	ResolvedThreads(ctx context.Context, clipID string) ([]model.Thread, error)
	CreateThread(ctx context.Context, clipID string, p store.AddThreadParams) (model.Thread, error)
	AddComment(ctx context.Context, threadID, authorID, body string, attachments []model.Attachment) (model.Comment, error)
	ResolveThread(ctx context.Context, threadID string) error
	ReopenThread(ctx context.Context, threadID string) error
	UpdateThreadShapes(ctx context.Context, threadID string, shapes []model.Shape) error
	SetStatus(ctx context.Context, clipID string, status model.AssetStatus) error
	ClipStatus(ctx context.Context, clipID string) (model.AssetStatus, error)
	Share(ctx context.Context, clipID string) (string, error)
	AdvanceRound(ctx context.Context, clipID string) (int, error)
	Round(ctx context.Context, clipID string) (int, error)
	RoundHistory(ctx context.Context, clipID string) ([]model.RoundRecord, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) service.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	clipsHandler   *ClipsHandler
	threadsHandler *ThreadsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		clipsHandler:   NewClipsHandler(deps),
		threadsHandler: NewThreadsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/clips/", MetricsMiddleware(s.clipsHandler.HandleClip, "clips"))
	mux.HandleFunc("/threads/", MetricsMiddleware(s.threadsHandler.HandleThread, "threads"))
}

// threadRequest mirrors the OpenAPI schema for POST /clips/{id}/threads.
type threadRequest struct {
	TStartMS    int64              `json:"t_start_ms"`
	TEndMS      *int64             `json:"t_end_ms,omitempty"`
	Shapes      []model.Shape      `json:"shapes,omitempty"`
	AuthorID    string             `json:"author_id"`
	Body        string             `json:"body"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

func (t threadRequest) validate() error {
	switch {
	case strings.TrimSpace(t.AuthorID) == "":
		return errors.New("missing author_id")
	case t.TStartMS < 0:
		return errors.New("t_start_ms must not be negative")
	case t.TEndMS != nil && *t.TEndMS < t.TStartMS:
		return errors.New("t_end_ms must not precede t_start_ms")
	}
	return nil
}

// commentRequest mirrors the schema for POST /threads/{id}/comments.
type commentRequest struct {
	AuthorID    string             `json:"author_id"`
	Body        string             `json:"body"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

func (c commentRequest) validate() error {
	switch {
	case strings.TrimSpace(c.AuthorID) == "":
		return errors.New("missing author_id")
	case strings.TrimSpace(c.Body) == "" && len(c.Attachments) == 0:
		return errors.New("comment needs a body or attachments")
	}
	return nil
}

type shapesRequest struct {
	Shapes []model.Shape `json:"shapes"`
}

type statusRequest struct {
	Status model.AssetStatus `json:"status"`
}

type statusResponse struct {
	ClipID string            `json:"clip_id"`
	Status model.AssetStatus `json:"status"`
}

type shareResponse struct {
	ClipID string `json:"clip_id"`
	Token  string `json:"token"`
}

type roundResponse struct {
	ClipID string `json:"clip_id"`
	Round  int    `json:"round"`
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain and persistence errors into HTTP
// responses. Persistence transport failures surface as 502 so callers can
// tell them apart from their own bad input.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidShape),
		errors.Is(err, store.ErrInvalidStatus),
		errors.Is(err, repository.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, store.ErrThreadNotFound),
		errors.Is(err, service.ErrThreadNotFound),
		errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, store.ErrRoundClosed):
		writeError(w, http.StatusConflict, "round_closed", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	case errors.Is(err, repository.ErrTransport):
		writeError(w, http.StatusBadGateway, "persistence_unavailable", err)
	case errors.Is(err, store.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, store.ErrStoreClosed),
		errors.Is(err, store.ErrNotLoaded),
		errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
