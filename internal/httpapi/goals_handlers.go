package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"carhunt-engine/internal/domain"
	"carhunt-engine/internal/events"
	"carhunt-engine/internal/queue"
	"carhunt-engine/internal/store"
)

type GoalsHandler struct {
	DB    *sql.DB
	Hub   *events.Hub
	Queue *queue.Queue
}

type createGoalReq struct {
	Title    string                 `json:"title"`
	Category string                 `json:"category"`
	Query    domain.StructuredQuery `json:"query"`
	Enqueue  *bool                  `json:"enqueue,omitempty"` // default true
}

func (h GoalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGoalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		WriteError(w, r, 400, "missing_title", "title is required")
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		req.Category = "vehicle"
	}
	if !req.Query.WellFormed() && strings.TrimSpace(req.Query.Raw) == "" {
		WriteError(w, r, 400, "malformed_query", "query needs a make/model, a year, or raw keywords")
		return
	}

	g, err := store.CreateGoal(r.Context(), h.DB, req.Title, req.Category, req.Query)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, "goal_created", 1, map[string]any{"id": g.ID}))

	// A new goal wants candidates right away unless the caller opts out.
	if req.Enqueue == nil || *req.Enqueue {
		if _, _, err := h.Queue.Enqueue(r.Context(), g.ID); err != nil {
			WriteError(w, r, 500, "enqueue_error", err.Error())
			return
		}
	}

	WriteJSON(w, http.StatusCreated, g)
}

func (h GoalsHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := store.ListGoals(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	writeJSON(w, goals)
}

// ByPath dispatches /goals/{id} and its sub-resources.
func (h GoalsHandler) ByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/goals/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, 400, "invalid_id", "invalid goal id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.get(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.archive(w, r, id)
	case len(parts) == 2 && parts[1] == "candidates" && r.Method == http.MethodGet:
		h.candidates(w, r, id)
	case len(parts) == 3 && parts[1] == "candidates" && parts[2] == "state" && r.Method == http.MethodPost:
		h.candidateState(w, r, id)
	case len(parts) == 2 && parts[1] == "acquire" && r.Method == http.MethodPost:
		h.acquire(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h GoalsHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	g, err := store.GetGoal(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", err.Error())
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, g)
}

func (h GoalsHandler) archive(w http.ResponseWriter, r *http.Request, id int64) {
	err := store.SetGoalStatus(r.Context(), h.DB, id, domain.GoalArchived)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", err.Error())
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeGoalUpdated, 1,
		map[string]any{"goal_id": id, "status": domain.GoalArchived}))
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h GoalsHandler) candidates(w http.ResponseWriter, r *http.Request, id int64) {
	state := r.URL.Query().Get("state")
	cands, err := store.ListCandidates(r.Context(), h.DB, id, state)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	if cands == nil {
		cands = []domain.Candidate{}
	}
	writeJSON(w, cands)
}

type candidateStateReq struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

func (h GoalsHandler) candidateState(w http.ResponseWriter, r *http.Request, id int64) {
	var req candidateStateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	switch req.State {
	case store.CandidateActive, store.CandidateDenied, store.CandidateShortlisted:
	default:
		WriteError(w, r, 400, "invalid_state", "state must be active, denied or shortlisted")
		return
	}

	err := store.SetCandidateState(r.Context(), h.DB, id, req.URL, req.State)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", err.Error())
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h GoalsHandler) acquire(w http.ResponseWriter, r *http.Request, id int64) {
	j, created, err := h.Queue.Enqueue(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", err.Error())
		return
	}
	if err != nil {
		WriteError(w, r, 500, "enqueue_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"job": j, "created": created})
}
