// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ThreadsHandler handles thread-scoped requests.
type ThreadsHandler struct {
	deps Dependencies
}

// NewThreadsHandler creates a new threads handler.
func NewThreadsHandler(deps Dependencies) *ThreadsHandler {
	return &ThreadsHandler{deps: deps}
}

// HandleThread dispatches /threads/{thread_id}/... requests.
//
//	POST /threads/{id}/comments  append a reply
//	POST /threads/{id}/resolve   mark resolved
//	POST /threads/{id}/reopen    return to open
//	PUT  /threads/{id}/shapes    replace the drawn shapes
func (h *ThreadsHandler) HandleThread(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/threads/")
	threadID, action, ok := strings.Cut(rest, "/")
	if !ok || threadID == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch {
	case action == "comments" && r.Method == http.MethodPost:
		h.handleAddComment(w, r, threadID)
	case action == "resolve" && r.Method == http.MethodPost:
		h.handleResolve(w, r, threadID)
	case action == "reopen" && r.Method == http.MethodPost:
		h.handleReopen(w, r, threadID)
	case action == "shapes" && r.Method == http.MethodPut:
		h.handleUpdateShapes(w, r, threadID)
	default:
		http.NotFound(w, r)
	}
}

func (h *ThreadsHandler) handleAddComment(w http.ResponseWriter, r *http.Request, threadID string) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	comment, err := h.deps.AddComment(r.Context(), threadID, req.AuthorID, req.Body, req.Attachments)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *ThreadsHandler) handleResolve(w http.ResponseWriter, r *http.Request, threadID string) {
	if err := h.deps.ResolveThread(r.Context(), threadID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "resolved"})
}

func (h *ThreadsHandler) handleReopen(w http.ResponseWriter, r *http.Request, threadID string) {
	if err := h.deps.ReopenThread(r.Context(), threadID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "open"})
}

func (h *ThreadsHandler) handleUpdateShapes(w http.ResponseWriter, r *http.Request, threadID string) {
	var req shapesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.UpdateThreadShapes(r.Context(), threadID, req.Shapes); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "updated"})
}
