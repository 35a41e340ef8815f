// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/frameproof/frameproof/internal/store"
)

// ClipsHandler handles clip-scoped requests.
type ClipsHandler struct {
	deps Dependencies
}

// NewClipsHandler creates a new clips handler.
func NewClipsHandler(deps Dependencies) *ClipsHandler {
	return &ClipsHandler{deps: deps}
}

// HandleClip dispatches /clips/{clip_id}/... requests.
//
//	GET  /clips/{id}/threads         list threads (optional ?state=open|resolved)
//	POST /clips/{id}/threads         open a new thread
//	GET  /clips/{id}/status          read the review verdict
//	PUT  /clips/{id}/status          set the review verdict
//	POST /clips/{id}/share           mint or replay the share token
//	POST /clips/{id}/rounds          close the current feedback round
//	GET  /clips/{id}/rounds/history  list closed rounds
func (h *ClipsHandler) HandleClip(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/clips/")
	clipID, action, ok := strings.Cut(rest, "/")
	if !ok || clipID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch {
	case action == "threads" && r.Method == http.MethodGet:
		h.handleListThreads(w, r, clipID)
	case action == "threads" && r.Method == http.MethodPost:
		h.handleCreateThread(w, r, clipID)
	case action == "status" && r.Method == http.MethodGet:
		h.handleGetStatus(w, r, clipID)
	case action == "status" && r.Method == http.MethodPut:
		h.handleSetStatus(w, r, clipID)
	case action == "share" && r.Method == http.MethodPost:
		h.handleShare(w, r, clipID)
	case action == "rounds" && r.Method == http.MethodPost:
		h.handleAdvanceRound(w, r, clipID)
	case action == "rounds/history" && r.Method == http.MethodGet:
		h.handleRoundHistory(w, r, clipID)
	default:
		http.NotFound(w, r)
	}
}

func (h *ClipsHandler) handleListThreads(w http.ResponseWriter, r *http.Request, clipID string) {
	var (
		threads any
		err     error
	)
	switch state := r.URL.Query().Get("state"); state {
	case "":
		threads, err = h.deps.Threads(r.Context(), clipID)
	case "open":
		threads, err = h.deps.OpenThreads(r.Context(), clipID)
	case "resolved":
		threads, err = h.deps.ResolvedThreads(r.Context(), clipID)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (h *ClipsHandler) handleCreateThread(w http.ResponseWriter, r *http.Request, clipID string) {
	var req threadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	thread, err := h.deps.CreateThread(r.Context(), clipID, store.AddThreadParams{
		TStartMS:    req.TStartMS,
		TEndMS:      req.TEndMS,
		Shapes:      req.Shapes,
		AuthorID:    req.AuthorID,
		Body:        req.Body,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, thread)
}

func (h *ClipsHandler) handleGetStatus(w http.ResponseWriter, r *http.Request, clipID string) {
	status, err := h.deps.ClipStatus(r.Context(), clipID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{ClipID: clipID, Status: status})
}

func (h *ClipsHandler) handleSetStatus(w http.ResponseWriter, r *http.Request, clipID string) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.SetStatus(r.Context(), clipID, req.Status); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{ClipID: clipID, Status: req.Status})
}

func (h *ClipsHandler) handleShare(w http.ResponseWriter, r *http.Request, clipID string) {
	token, err := h.deps.Share(r.Context(), clipID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{ClipID: clipID, Token: token})
}

func (h *ClipsHandler) handleAdvanceRound(w http.ResponseWriter, r *http.Request, clipID string) {
	round, err := h.deps.AdvanceRound(r.Context(), clipID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roundResponse{ClipID: clipID, Round: round})
}

func (h *ClipsHandler) handleRoundHistory(w http.ResponseWriter, r *http.Request, clipID string) {
	history, err := h.deps.RoundHistory(r.Context(), clipID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
