// Package api provides the read-only HTTP handlers over the transition journal.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/kaishou/internal/chime"
	"github.com/ayusman/kaishou/internal/store"
)

// DefaultLimit is the number of rows returned when no limit is given.
const DefaultLimit = 50

// TransitionHandler serves GET /api/transitions.
type TransitionHandler struct {
	store *store.Store
}

// NewTransitionHandler creates a TransitionHandler backed by s.
func NewTransitionHandler(s *store.Store) *TransitionHandler {
	return &TransitionHandler{store: s}
}

// EpisodeHandler serves /api/episodes and /api/episodes/{id}.
type EpisodeHandler struct {
	store *store.Store
}

// NewEpisodeHandler creates an EpisodeHandler backed by s.
func NewEpisodeHandler(s *store.Store) *EpisodeHandler {
	return &EpisodeHandler{store: s}
}

type transitionResponse struct {
	ID          string `json:"id"`
	Event       string `json:"event"`
	Raw         string `json:"raw"`
	OpenFingers int    `json:"open_fingers"`
	EpisodeID   string `json:"episode_id,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

type listTransitionsResponse struct {
	Transitions []transitionResponse `json:"transitions"`
}

type episodeResponse struct {
	ID         string            `json:"id"`
	StartedAt  string            `json:"started_at"`
	EndsAt     string            `json:"ends_at"`
	Particles  int               `json:"particles"`
	Stars      int               `json:"stars"`
	Tones      []chime.ToneEvent `json:"tones"`
	FinishedAt string            `json:"finished_at,omitempty"`
	Cancelled  bool              `json:"cancelled"`
}

type listEpisodesResponse struct {
	Episodes []episodeResponse `json:"episodes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toTransitionResponse(t *store.Transition) transitionResponse {
	return transitionResponse{
		ID:          t.ID,
		Event:       t.Event,
		Raw:         t.Raw,
		OpenFingers: t.OpenFingers,
		EpisodeID:   t.EpisodeID,
		OccurredAt:  formatTime(t.OccurredAt),
	}
}

func toEpisodeResponse(e *store.Episode) episodeResponse {
	resp := episodeResponse{
		ID:        e.ID,
		StartedAt: formatTime(e.StartedAt),
		EndsAt:    formatTime(e.EndsAt),
		Particles: e.Particles,
		Stars:     e.Stars,
		Tones:     e.Tones,
		Cancelled: e.Cancelled,
	}
	if e.FinishedAt != nil {
		resp.FinishedAt = formatTime(*e.FinishedAt)
	}
	return resp
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}

// parseLimit reads the limit query parameter. Missing means DefaultLimit;
// zero or negative means no limit.
func parseLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return DefaultLimit, nil
	}
	return strconv.Atoi(v)
}

// ServeHTTP lists the newest transitions first.
func (h *TransitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	transitions, err := h.store.Transitions().List(limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list transitions")
		return
	}

	resp := listTransitionsResponse{Transitions: make([]transitionResponse, 0, len(transitions))}
	for _, t := range transitions {
		resp.Transitions = append(resp.Transitions, toTransitionResponse(t))
	}
	WriteJSON(w, http.StatusOK, resp)
}

// ServeHTTP routes between the episode collection and a single episode.
// Expected paths: /api/episodes or /api/episodes/{id}
func (h *EpisodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/episodes")
	id = strings.TrimPrefix(id, "/")
	if id == "" {
		h.list(w, r)
		return
	}
	h.get(w, id)
}

func (h *EpisodeHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	episodes, err := h.store.Episodes().List(limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list episodes")
		return
	}

	resp := listEpisodesResponse{Episodes: make([]episodeResponse, 0, len(episodes))}
	for _, e := range episodes {
		resp.Episodes = append(resp.Episodes, toEpisodeResponse(e))
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *EpisodeHandler) get(w http.ResponseWriter, id string) {
	e, err := h.store.Episodes().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "episode not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to get episode")
		return
	}
	WriteJSON(w, http.StatusOK, toEpisodeResponse(e))
}
