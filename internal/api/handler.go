// Package api exposes the chat orchestrator over HTTP for non-Telegram
// clients (the terminal client among them).
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ragworks/finchat/internal/chat"
	"github.com/ragworks/finchat/internal/config"
	"github.com/ragworks/finchat/internal/domain"
	"github.com/ragworks/finchat/internal/repository"
)

// Handler serves the JSON chat API.
type Handler struct {
	sessions *chat.Registry
	turns    *repository.TurnStore
}

func NewHandler(sessions *chat.Registry, turns *repository.TurnStore) *Handler {
	return &Handler{sessions: sessions, turns: turns}
}

// Routes builds the router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.handleChat)
		r.Post("/chat/retry", h.handleRetry)
		r.Post("/chat/reset", h.handleReset)
		r.Get("/history", h.handleHistory)
	})
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string         `json:"session_id"`
	Message   domain.Message `json:"message"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat runs one full turn and returns the final bot message.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var orch *chat.Orchestrator
	if req.SessionID == "" {
		orch = h.sessions.Create()
	} else {
		var ok bool
		orch, ok = h.sessions.Get(req.SessionID)
		if !ok {
			Error(w, http.StatusNotFound, "unknown session")
			return
		}
	}

	final, err := orch.Append(r.Context(), req.Message)
	if h.writeTurnError(w, err) {
		return
	}

	h.record(r, orch.ID(), final)
	JSON(w, http.StatusCreated, chatResponse{SessionID: orch.ID(), Message: final})
}

// handleRetry replays the last question of an existing session.
func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	orch, ok := h.sessions.Get(req.SessionID)
	if !ok {
		Error(w, http.StatusNotFound, "unknown session")
		return
	}

	final, err := orch.Retry(r.Context())
	if h.writeTurnError(w, err) {
		return
	}

	h.record(r, orch.ID(), final)
	JSON(w, http.StatusOK, chatResponse{SessionID: orch.ID(), Message: final})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	orch, ok := h.sessions.Get(req.SessionID)
	if !ok {
		Error(w, http.StatusNotFound, "unknown session")
		return
	}

	orch.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	limit := config.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	if h.turns == nil {
		JSON(w, http.StatusOK, []repository.TurnRecord{})
		return
	}

	records, err := h.turns.Recent(r.Context(), sessionID, limit)
	if err != nil {
		slog.Error("load history", "error", err, "session", sessionID)
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if records == nil {
		records = []repository.TurnRecord{}
	}
	JSON(w, http.StatusOK, records)
}

// writeTurnError maps orchestrator errors onto HTTP statuses. Reports whether
// an error was written.
func (h *Handler) writeTurnError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrTurnInFlight):
		Error(w, http.StatusConflict, "a turn is already in flight for this session")
	case errors.Is(err, domain.ErrEmptyMessage):
		Error(w, http.StatusUnprocessableEntity, "message must not be empty")
	case errors.Is(err, domain.ErrNothingToRetry):
		Error(w, http.StatusUnprocessableEntity, "no completed turn to retry")
	default:
		slog.Error("turn failed", "error", err)
		Error(w, http.StatusInternalServerError, "turn failed")
	}
	return true
}

func (h *Handler) record(r *http.Request, sessionID string, final domain.Message) {
	if h.turns == nil {
		return
	}
	if err := h.turns.Record(r.Context(), sessionID, final); err != nil {
		slog.Error("record turn", "error", err, "session", sessionID)
	}
}
