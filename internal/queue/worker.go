package queue

import (
	"context"
	"fmt"

	"carhunt-engine/internal/acquire"
	"carhunt-engine/internal/adapt"
	"carhunt-engine/internal/domain"
	"carhunt-engine/internal/events"
	"carhunt-engine/internal/store"
)

// JobContext is everything an external worker needs to run one claimed job:
// the job itself, its goal, and the per-source parameters already adapted
// from the goal's query.
type JobContext struct {
	Job     domain.AcquisitionJob `json:"job"`
	Goal    domain.Goal           `json:"goal"`
	Sources []adapt.SourceParams  `json:"sources"`
}

// NextPending claims at most one pending job for an external worker.
// ok=false means the queue is empty.
func (q *Queue) NextPending(ctx context.Context) (JobContext, bool, error) {
	jobs, err := store.ClaimPendingJobs(ctx, q.DB, 1)
	if err != nil {
		return JobContext{}, false, err
	}
	if len(jobs) == 0 {
		return JobContext{}, false, nil
	}
	j := jobs[0]

	goal, err := store.GetGoal(ctx, q.DB, j.GoalID)
	if err != nil {
		q.fail(ctx, j, fmt.Errorf("load goal: %w", err))
		return JobContext{}, false, err
	}

	jc := JobContext{Job: j, Goal: goal}
	for _, src := range q.Registry.Sources(goal.Category) {
		params, err := q.Registry.Adapt(goal.Query, src)
		if err != nil {
			continue
		}
		jc.Sources = append(jc.Sources, params)
	}
	return jc, true, nil
}

// ReportSuccess finishes a worker-claimed job with the candidates it found.
// The batch goes through the same filter/tag/persist path as in-process jobs.
func (q *Queue) ReportSuccess(ctx context.Context, jobID int64, cands []domain.Candidate) (added int, err error) {
	j, err := store.GetJob(ctx, q.DB, jobID)
	if err != nil {
		return 0, err
	}
	if j.Status != domain.JobRunning {
		return 0, fmt.Errorf("job %d is %s, not running", jobID, j.Status)
	}

	goal, err := store.GetGoal(ctx, q.DB, j.GoalID)
	if err != nil {
		return 0, err
	}

	state, err := store.CandidateState(ctx, q.DB, goal.ID)
	if err != nil {
		return 0, err
	}
	fresh := acquire.Filter(cands, state)

	if q.Tagger != nil {
		for i := range fresh {
			fresh[i].Tags = q.Tagger.Tag(fresh[i])
		}
	}

	if len(fresh) > 0 {
		added, err = store.AddCandidates(ctx, q.DB, goal.ID, fresh)
		if err != nil {
			return 0, err
		}
	}

	diag := ""
	result := domain.GoalFound
	if added == 0 {
		diag = "no new candidates"
		result = domain.GoalNotFound
	}
	if err := store.CompleteJob(ctx, q.DB, jobID, diag); err != nil {
		return added, err
	}
	q.setGoalStatus(ctx, goal.ID, result)
	q.publish(events.TypeJobCompleted, map[string]any{
		"job_id": jobID, "goal_id": goal.ID, "result": result, "added": added,
	})

	if q.Enrich != nil && len(fresh) > 0 {
		q.Enrich(ctx, goal.ID, fresh)
	}
	return added, nil
}

// ReportError records a worker-side failure; retry accounting matches the
// in-process path.
func (q *Queue) ReportError(ctx context.Context, jobID int64, msg string) (status string, err error) {
	j, err := store.GetJob(ctx, q.DB, jobID)
	if err != nil {
		return "", err
	}
	if j.Status != domain.JobRunning {
		return "", fmt.Errorf("job %d is %s, not running", jobID, j.Status)
	}
	q.fail(ctx, j, fmt.Errorf("%s", msg))

	j, err = store.GetJob(ctx, q.DB, jobID)
	if err != nil {
		return "", err
	}
	return j.Status, nil
}
