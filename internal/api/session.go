package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/coachly/coachly/internal/log"
	"github.com/coachly/coachly/internal/session"
)

// Session validation constants.
const (
	MaxTitleLength  = 100
	MaxUserIDLength = 100
)

// SessionHandler handles session-related HTTP endpoints.
type SessionHandler struct {
	store  *session.Store
	logger log.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store *session.Store, logger log.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/sessions", h.list)
	mux.HandleFunc("POST /api/v1/sessions", h.create)
	mux.HandleFunc("GET /api/v1/sessions/{id}", h.get)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.delete)
}

// list returns all sessions, most recently updated first.
func (h *SessionHandler) list(w http.ResponseWriter, _ *http.Request) {
	sessions := h.store.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// CreateSessionRequest is the request body for creating a session.
type CreateSessionRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
}

// create creates a new session.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	if len(req.Title) > MaxTitleLength {
		writeError(w, http.StatusBadRequest, "bad_request", "title too long (max 100 characters)")
		return
	}
	if len(req.UserID) > MaxUserIDLength {
		writeError(w, http.StatusBadRequest, "bad_request", "userId too long (max 100 characters)")
		return
	}
	if req.Title == "" {
		req.Title = "New Session"
	}

	sess := h.store.Create(req.UserID, req.Title)
	h.logger.Debug("session created", "session", sess.ID, "user", sess.UserID)
	writeJSON(w, http.StatusCreated, sess)
}

// get returns one session including its turns.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		h.logger.Error("failed to load session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// delete removes a session.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		h.logger.Error("failed to delete session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}
