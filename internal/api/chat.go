package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/coachly/coachly/internal/chat"
	"github.com/coachly/coachly/internal/log"
	"github.com/coachly/coachly/internal/session"
	"github.com/coachly/coachly/internal/sse"
)

// MaxMessageLength bounds an inbound chat message.
const MaxMessageLength = 8000

// ChatHandler runs chat turns over HTTP, either as a single JSON response
// or as an SSE stream of word deltas.
type ChatHandler struct {
	pipeline *chat.Pipeline
	router   *chat.Router
	sessions *session.Store
	logger   log.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(pipeline *chat.Pipeline, router *chat.Router, sessions *session.Store, logger log.Logger) *ChatHandler {
	return &ChatHandler{pipeline: pipeline, router: router, sessions: sessions, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/chat", h.chat)
	mux.HandleFunc("POST /api/v1/chat/stream", h.stream)
}

// ChatRequest is the request body for a chat turn.
type ChatRequest struct {
	SessionID string      `json:"sessionId"`
	Message   string      `json:"message"`
	Parts     []chat.Part `json:"parts,omitempty"`
}

// ChatResponse is the JSON response for a non-streaming turn.
type ChatResponse struct {
	SessionID string   `json:"sessionId"`
	Response  string   `json:"response"`
	Category  string   `json:"category"`
	UsedTools []string `json:"usedTools,omitempty"`
	ToolError string   `json:"toolError,omitempty"`
}

// prepared is a validated chat request with session history resolved.
type prepared struct {
	req      ChatRequest
	id       uuid.UUID
	turnReq  chat.TurnRequest
	category string
}

// prepare decodes and validates the request, resolves session history and
// classifies the message into a coaching plan. On failure it writes the
// error response itself and returns false.
func (h *ChatHandler) prepare(w http.ResponseWriter, r *http.Request) (*prepared, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return nil, false
	}
	if req.Message == "" && len(req.Parts) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required")
		return nil, false
	}
	if len(req.Message) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "bad_request", "message too long")
		return nil, false
	}

	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid session id")
		return nil, false
	}
	history, err := h.sessions.History(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return nil, false
		}
		h.logger.Error("failed to load history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to load session")
		return nil, false
	}

	cls := h.router.Classify(r.Context(), req.Message)
	plan := chat.MapCategoryToPlan(cls.Category)
	h.logger.Debug("message classified",
		"session", id,
		"category", cls.Category,
		"confidence", cls.Confidence,
		"plan", plan,
	)

	return &prepared{
		req: req,
		id:  id,
		turnReq: chat.TurnRequest{
			Message:      req.Message,
			Attachments:  req.Parts,
			History:      history,
			SystemPrompt: chat.SystemPrompt(plan),
		},
		category: string(cls.Category),
	}, true
}

// record persists the user and assistant turns after a successful run.
func (h *ChatHandler) record(p *prepared, finalText string) {
	now := time.Now().Unix()
	userTurn := chat.ConversationTurn{Role: chat.TurnRoleUser, Content: p.req.Message, Timestamp: now}
	if len(p.req.Parts) > 0 {
		userTurn.Parts = p.req.Parts
	}
	if err := h.sessions.AppendTurn(p.id, userTurn); err != nil {
		h.logger.Error("failed to record user turn", "error", err, "session", p.id)
		return
	}
	if err := h.sessions.AppendTurn(p.id, chat.ConversationTurn{
		Role: chat.TurnRoleAssistant, Content: finalText, Timestamp: now,
	}); err != nil {
		h.logger.Error("failed to record assistant turn", "error", err, "session", p.id)
	}
}

// chat runs one turn and returns the full response as JSON.
func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	p, ok := h.prepare(w, r)
	if !ok {
		return
	}

	result, err := h.pipeline.RunTurn(r.Context(), p.turnReq, nil)
	if err != nil {
		h.writeTurnError(w, err)
		return
	}
	h.record(p, result.FinalText)

	resp := ChatResponse{
		SessionID: p.id.String(),
		Response:  result.FinalText,
		Category:  p.category,
		UsedTools: result.UsedTools,
	}
	if result.ToolErr != nil {
		resp.ToolError = result.ToolErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// stream runs one turn and streams word deltas as SSE "chunk" events,
// followed by one "done" event with the turn summary.
func (h *ChatHandler) stream(w http.ResponseWriter, r *http.Request) {
	p, ok := h.prepare(w, r)
	if !ok {
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	onChunk := func(ctx context.Context, d chat.Delta) error {
		return writer.WriteEvent(ctx, "chunk", d)
	}

	result, err := h.pipeline.RunTurn(r.Context(), p.turnReq, onChunk)
	if err != nil {
		if errors.Is(err, chat.ErrCanceled) {
			h.logger.Debug("client disconnected mid-turn", "session", p.id)
			return
		}
		h.logger.Error("turn failed", "error", err, "session", p.id)
		_ = writer.WriteError("turn_failed", "the assistant could not complete this response")
		return
	}
	h.record(p, result.FinalText)

	resp := ChatResponse{
		SessionID: p.id.String(),
		Response:  result.FinalText,
		Category:  p.category,
		UsedTools: result.UsedTools,
	}
	if result.ToolErr != nil {
		resp.ToolError = result.ToolErr.Error()
	}
	if err := writer.WriteEvent(r.Context(), "done", resp); err != nil {
		h.logger.Debug("failed to write done event", "error", err, "session", p.id)
	}
}

func (h *ChatHandler) writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrCanceled):
		// 499 in nginx terms; closest standard status.
		writeError(w, http.StatusRequestTimeout, "canceled", "request canceled")
	case errors.Is(err, chat.ErrTransport):
		h.logger.Error("model transport failed", "error", err)
		writeError(w, http.StatusBadGateway, "upstream", "model provider unavailable")
	default:
		h.logger.Error("turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to run chat turn")
	}
}
