package queue

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"carhunt-engine/internal/acquire"
	"carhunt-engine/internal/adapt"
	"carhunt-engine/internal/domain"
	"carhunt-engine/internal/events"
	"carhunt-engine/internal/store"
	"carhunt-engine/internal/tag"
)

const (
	defaultBatchSize  = 5
	defaultJobTimeout = 8 * time.Minute
)

// Acquirer is what the queue needs from the acquisition layer; the real one
// is *acquire.Aggregator.
type Acquirer interface {
	Acquire(ctx context.Context, q domain.StructuredQuery) ([]domain.Candidate, error)
}

// Enrich runs after a job persists its candidates; best-effort, off the
// critical path.
type Enrich func(ctx context.Context, goalID int64, cands []domain.Candidate)

// Queue drains acquisition jobs. All coordination lives in the store's
// conditional updates, so overlapping DrainOnce calls (scheduler tick racing
// a manual drain) are safe.
type Queue struct {
	DB        *sql.DB
	Acquirer  Acquirer
	Registry  *adapt.Registry
	Tagger    tag.Tagger
	Hub       *events.Hub
	Enrich    Enrich
	BatchSize int

	// JobTimeout caps one job's acquisition wall clock, over and above the
	// per-source timeouts inside the aggregator.
	JobTimeout time.Duration
}

// Enqueue creates a pending job for the goal unless one is already in
// flight, in which case the existing job is returned.
func (q *Queue) Enqueue(ctx context.Context, goalID int64) (domain.AcquisitionJob, bool, error) {
	if _, err := store.GetGoal(ctx, q.DB, goalID); err != nil {
		return domain.AcquisitionJob{}, false, err
	}
	id, created, err := store.EnqueueJob(ctx, q.DB, goalID)
	if err != nil {
		return domain.AcquisitionJob{}, false, err
	}
	j, err := store.GetJob(ctx, q.DB, id)
	if err != nil {
		return domain.AcquisitionJob{}, false, err
	}
	if created {
		q.publish(events.TypeJobEnqueued, map[string]any{"job_id": j.ID, "goal_id": j.GoalID})
	}
	return j, created, nil
}

// DrainOnce claims up to one batch of pending jobs and processes them
// sequentially. Returns how many jobs were processed.
func (q *Queue) DrainOnce(ctx context.Context) (int, error) {
	batch := q.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	jobs, err := store.ClaimPendingJobs(ctx, q.DB, batch)
	if err != nil {
		return 0, err
	}

	for _, j := range jobs {
		q.processJob(ctx, j)
	}
	return len(jobs), nil
}

// processJob runs one claimed job end to end. Outcomes:
//   - unsupported category:    completed immediately, goal -> not_supported
//   - candidates persisted:    completed, goal -> found
//   - batch deduped to empty:  completed, goal -> not_found
//   - all sources empty, or anything else errors: failed attempt
//     (back to pending, terminal once the ceiling is hit)
func (q *Queue) processJob(ctx context.Context, j domain.AcquisitionJob) {
	goal, err := store.GetGoal(ctx, q.DB, j.GoalID)
	if err != nil {
		q.fail(ctx, j, fmt.Errorf("load goal: %w", err))
		return
	}

	if !q.Registry.Supported(goal.Category) {
		log.Printf("[queue] job=%d goal=%d category=%q not supported", j.ID, goal.ID, goal.Category)
		if err := store.CompleteJob(ctx, q.DB, j.ID, "category not supported"); err != nil {
			log.Printf("[queue] complete job=%d: %v", j.ID, err)
			return
		}
		q.setGoalStatus(ctx, goal.ID, domain.GoalNotSupported)
		q.publish(events.TypeJobCompleted, map[string]any{"job_id": j.ID, "goal_id": goal.ID, "result": "not_supported"})
		return
	}

	jobTimeout := q.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	actx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	// ErrNoCandidates is a failure like any other here: the attempt is
	// burned and the job retries. Completed-but-empty is reserved for runs
	// where sources delivered and the dedup filter ate the whole batch.
	cands, err := q.Acquirer.Acquire(actx, goal.Query)
	if err != nil {
		q.fail(ctx, j, err)
		return
	}

	state, err := store.CandidateState(ctx, q.DB, goal.ID)
	if err != nil {
		q.fail(ctx, j, fmt.Errorf("load candidate state: %w", err))
		return
	}
	fresh := acquire.Filter(cands, state)

	if q.Tagger != nil {
		for i := range fresh {
			fresh[i].Tags = q.Tagger.Tag(fresh[i])
		}
	}

	added := 0
	if len(fresh) > 0 {
		added, err = store.AddCandidates(ctx, q.DB, goal.ID, fresh)
		if err != nil {
			q.fail(ctx, j, fmt.Errorf("persist candidates: %w", err))
			return
		}
	}

	diag := ""
	result := domain.GoalFound
	if added == 0 {
		diag = "no new candidates"
		result = domain.GoalNotFound
	}

	if err := store.CompleteJob(ctx, q.DB, j.ID, diag); err != nil {
		log.Printf("[queue] complete job=%d: %v", j.ID, err)
		return
	}
	q.setGoalStatus(ctx, goal.ID, result)

	log.Printf("[queue] job=%d goal=%d done: %d fetched, %d new", j.ID, goal.ID, len(cands), added)
	q.publish(events.TypeJobCompleted, map[string]any{
		"job_id": j.ID, "goal_id": goal.ID, "result": result, "added": added,
	})
	if added > 0 {
		q.publish(events.TypeCandidatesFound, map[string]any{"goal_id": goal.ID, "added": added})
	}

	if q.Enrich != nil && len(fresh) > 0 {
		q.Enrich(ctx, goal.ID, fresh)
	}
}

func (q *Queue) fail(ctx context.Context, j domain.AcquisitionJob, cause error) {
	status, err := store.FailJob(ctx, q.DB, j.ID, cause.Error())
	if err != nil {
		log.Printf("[queue] fail job=%d: %v (cause: %v)", j.ID, err, cause)
		return
	}
	log.Printf("[queue] job=%d goal=%d attempt failed (-> %s): %v", j.ID, j.GoalID, status, cause)
	q.publish(events.TypeJobFailed, map[string]any{
		"job_id": j.ID, "goal_id": j.GoalID, "status": status, "error": cause.Error(),
	})
}

func (q *Queue) setGoalStatus(ctx context.Context, goalID int64, status string) {
	if err := store.SetGoalStatus(ctx, q.DB, goalID, status); err != nil {
		log.Printf("[queue] set goal=%d status=%s: %v", goalID, status, err)
		return
	}
	q.publish(events.TypeGoalUpdated, map[string]any{"goal_id": goalID, "status": status})
}

func (q *Queue) publish(typ string, data any) {
	if q.Hub == nil {
		return
	}
	q.Hub.Publish(events.MakeEvent("", typ, 1, data))
}

// RefreshAll enqueues a job for every refresh-eligible goal. The daily sweep
// and the manual refresh endpoint both land here.
func (q *Queue) RefreshAll(ctx context.Context) (enqueued int, err error) {
	goals, err := store.ListRefreshableGoals(ctx, q.DB)
	if err != nil {
		return 0, err
	}
	for _, g := range goals {
		_, created, err := q.Enqueue(ctx, g.ID)
		if err != nil {
			log.Printf("[refresh] enqueue goal=%d: %v", g.ID, err)
			continue
		}
		if created {
			enqueued++
		}
	}
	log.Printf("[refresh] enqueued %d of %d eligible goals", enqueued, len(goals))
	return enqueued, nil
}
