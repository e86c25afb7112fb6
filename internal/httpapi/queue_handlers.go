package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"carhunt-engine/internal/domain"
	"carhunt-engine/internal/queue"
	"carhunt-engine/internal/store"
)

type QueueHandler struct {
	DB          *sql.DB
	Queue       *queue.Queue
	DrainStatus *atomic.Value // stores httpapi.DrainStatus
}

type enqueueReq struct {
	GoalID int64 `json:"goal_id"`
}

func (h QueueHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	if req.GoalID <= 0 {
		WriteError(w, r, 400, "invalid_id", "goal_id is required")
		return
	}

	j, created, err := h.Queue.Enqueue(r.Context(), req.GoalID)
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

// Next hands one claimed job to an external worker. 204 when the queue is
// empty.
func (h QueueHandler) Next(w http.ResponseWriter, r *http.Request) {
	jc, ok, err := h.Queue.NextPending(r.Context())
	if err != nil {
		WriteError(w, r, 500, "claim_error", err.Error())
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, jc)
}

type reportSuccessReq struct {
	Candidates []domain.Candidate `json:"candidates"`
}

type reportErrorReq struct {
	Error string `json:"error"`
}

// JobByPath dispatches /queue/jobs/{id}[/success|/error].
func (h QueueHandler) JobByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/queue/jobs/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, 400, "invalid_id", "invalid job id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		j, err := store.GetJob(r.Context(), h.DB, id)
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, r, 404, "not_found", err.Error())
			return
		}
		if err != nil {
			WriteError(w, r, 500, "db_error", err.Error())
			return
		}
		writeJSON(w, j)

	case len(parts) == 2 && parts[1] == "success" && r.Method == http.MethodPost:
		var req reportSuccessReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, 400, "invalid_json", err.Error())
			return
		}
		added, err := h.Queue.ReportSuccess(r.Context(), id, req.Candidates)
		if err != nil {
			WriteError(w, r, 409, "report_error", err.Error())
			return
		}
		writeJSON(w, map[string]any{"ok": true, "added": added})

	case len(parts) == 2 && parts[1] == "error" && r.Method == http.MethodPost:
		var req reportErrorReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, 400, "invalid_json", err.Error())
			return
		}
		if strings.TrimSpace(req.Error) == "" {
			req.Error = "worker reported failure"
		}
		status, err := h.Queue.ReportError(r.Context(), id, req.Error)
		if err != nil {
			WriteError(w, r, 409, "report_error", err.Error())
			return
		}
		writeJSON(w, map[string]any{"ok": true, "status": status})

	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	counts, err := store.JobCounts(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	st := h.DrainStatus.Load().(DrainStatus)
	writeJSON(w, map[string]any{"counts": counts, "drain": st})
}

// Drain kicks a drain cycle off in the background; at most one HTTP-driven
// drain runs at a time (the scheduler's own cycle may still overlap, which
// the store tolerates).
func (h QueueHandler) Drain(w http.ResponseWriter, r *http.Request) {
	st := h.DrainStatus.Load().(DrainStatus)
	if st.Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	h.DrainStatus.Store(DrainStatus{
		LastRunAt: time.Now().Format(time.RFC3339),
		Running:   true,
		LastOkAt:  st.LastOkAt,
	})

	go func() {
		processed, err := h.Queue.DrainOnce(context.Background())

		now := time.Now().Format(time.RFC3339)
		next := h.DrainStatus.Load().(DrainStatus)
		next.Running = false
		next.LastRunAt = now
		next.LastProcessed = processed
		if err != nil {
			next.LastError = err.Error()
		} else {
			next.LastError = ""
			next.LastOkAt = now
		}
		h.DrainStatus.Store(next)
	}()

	writeJSON(w, map[string]any{"ok": true})
}

// Refresh enqueues a job for every refresh-eligible goal, same as the daily
// sweep.
func (h QueueHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.Queue.RefreshAll(r.Context())
	if err != nil {
		WriteError(w, r, 500, "refresh_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true, "enqueued": n})
}
