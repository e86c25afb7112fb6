package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carhunt-engine/internal/domain"
)

// EnqueueJob inserts a pending job for a goal unless one is already pending
// or running for it; enqueue is append-only and at most one job per goal is
// ever in flight. Returns the job id and whether a new row was created.
func EnqueueJob(ctx context.Context, db *sql.DB, goalID int64) (int64, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := db.ExecContext(ctx, `
INSERT INTO acquisition_jobs(goal_id, status, attempts, last_error, created_at, updated_at)
SELECT ?, ?, 0, '', ?, ?
WHERE NOT EXISTS (
  SELECT 1 FROM acquisition_jobs
  WHERE goal_id = ? AND status IN (?, ?)
);`,
		goalID, domain.JobPending, now, now,
		goalID, domain.JobPending, domain.JobRunning,
	)
	if err != nil {
		return 0, false, fmt.Errorf("enqueue job: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		id, _ := res.LastInsertId()
		return id, true, nil
	}

	// A job is already in flight for this goal; hand back its id.
	var id int64
	err = db.QueryRowContext(ctx, `
SELECT id FROM acquisition_jobs
WHERE goal_id = ? AND status IN (?, ?)
ORDER BY id LIMIT 1;`,
		goalID, domain.JobPending, domain.JobRunning,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// Raced with a completing drain; try once more as a plain insert.
		return EnqueueJob(ctx, db, goalID)
	}
	if err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// ClaimPendingJobs flips up to limit pending jobs to running. Each claim is
// a single conditional UPDATE keyed by job id, so two overlapping drains
// can never double-claim, and a job is skipped while its goal already has
// another job running.
func ClaimPendingJobs(ctx context.Context, db *sql.DB, limit int) ([]domain.AcquisitionJob, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := db.QueryContext(ctx, `
SELECT id FROM acquisition_jobs
WHERE status = ?
ORDER BY id
LIMIT ?;`, domain.JobPending, limit)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var claimed []domain.AcquisitionJob
	for _, id := range ids {
		res, err := db.ExecContext(ctx, `
UPDATE acquisition_jobs
SET status = ?, updated_at = ?
WHERE id = ? AND status = ?
  AND NOT EXISTS (
    SELECT 1 FROM acquisition_jobs j2
    WHERE j2.goal_id = acquisition_jobs.goal_id
      AND j2.status = ?
  );`,
			domain.JobRunning, time.Now().UTC().Format(time.RFC3339),
			id, domain.JobPending, domain.JobRunning,
		)
		if err != nil {
			return claimed, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue // claimed elsewhere, or goal already busy
		}
		j, err := GetJob(ctx, db, id)
		if err != nil {
			return claimed, err
		}
		claimed = append(claimed, j)
	}
	return claimed, nil
}

func GetJob(ctx context.Context, db *sql.DB, id int64) (domain.AcquisitionJob, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, goal_id, status, attempts, last_error, created_at, updated_at
FROM acquisition_jobs WHERE id = ?;`, id)

	var j domain.AcquisitionJob
	var createdStr, updatedStr string
	err := row.Scan(&j.ID, &j.GoalID, &j.Status, &j.Attempts, &j.LastError, &createdStr, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AcquisitionJob{}, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.AcquisitionJob{}, err
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return j, nil
}

// CompleteJob marks a running job completed. diag lands in last_error for
// operator eyes only ("no new candidates", "category not supported", "").
func CompleteJob(ctx context.Context, db *sql.DB, id int64, diag string) error {
	res, err := db.ExecContext(ctx, `
UPDATE acquisition_jobs
SET status = ?, last_error = ?, updated_at = ?
WHERE id = ? AND status = ?;`,
		domain.JobCompleted, diag, time.Now().UTC().Format(time.RFC3339),
		id, domain.JobRunning,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete job %d: not running", id)
	}
	return nil
}

// FailJob records the error verbatim and bumps attempts: back to pending if
// attempts remain, terminal failed once the ceiling is hit. One UPDATE so
// the transition is atomic under overlapping drains. Returns the resulting
// status.
func FailJob(ctx context.Context, db *sql.DB, id int64, msg string) (string, error) {
	_, err := db.ExecContext(ctx, `
UPDATE acquisition_jobs
SET attempts = attempts + 1,
    last_error = ?,
    status = CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END,
    updated_at = ?
WHERE id = ? AND status = ?;`,
		msg, domain.MaxJobAttempts, domain.JobFailed, domain.JobPending,
		time.Now().UTC().Format(time.RFC3339),
		id, domain.JobRunning,
	)
	if err != nil {
		return "", err
	}
	j, err := GetJob(ctx, db, id)
	if err != nil {
		return "", err
	}
	return j.Status, nil
}

// JobCounts reports how many jobs sit in each status, for /queue/status.
func JobCounts(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `
SELECT status, COUNT(*) FROM acquisition_jobs GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
