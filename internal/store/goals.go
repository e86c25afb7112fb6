package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carhunt-engine/internal/domain"
)

func CreateGoal(ctx context.Context, db *sql.DB, title, category string, q domain.StructuredQuery) (domain.Goal, error) {
	qb, err := json.Marshal(q)
	if err != nil {
		return domain.Goal{}, fmt.Errorf("marshal query: %w", err)
	}

	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `
INSERT INTO goals(title, category, status, query_json, created_at, updated_at)
VALUES(?,?,?,?,?,?);`,
		title, category, domain.GoalActive, string(qb),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return domain.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	id, _ := res.LastInsertId()

	return domain.Goal{
		ID: id, Title: title, Category: category,
		Status: domain.GoalActive, Query: q,
		CreatedAt: now, UpdatedAt: now,
	}, nil
}

func GetGoal(ctx context.Context, db *sql.DB, id int64) (domain.Goal, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, title, category, status, query_json, created_at, updated_at
FROM goals WHERE id = ?;`, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Goal{}, fmt.Errorf("goal %d: %w", id, ErrNotFound)
	}
	return g, err
}

func ListGoals(ctx context.Context, db *sql.DB) ([]domain.Goal, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, title, category, status, query_json, created_at, updated_at
FROM goals ORDER BY created_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListRefreshableGoals returns goals the daily sweep should enqueue for:
// everything not archived and not flagged unsupported.
func ListRefreshableGoals(ctx context.Context, db *sql.DB) ([]domain.Goal, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, title, category, status, query_json, created_at, updated_at
FROM goals
WHERE status NOT IN (?, ?)
ORDER BY id;`, domain.GoalNotSupported, domain.GoalArchived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func SetGoalStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	res, err := db.ExecContext(ctx, `
UPDATE goals SET status = ?, updated_at = ? WHERE id = ?;`,
		status, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("goal %d: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(r rowScanner) (domain.Goal, error) {
	var g domain.Goal
	var queryJSON, createdStr, updatedStr string
	if err := r.Scan(&g.ID, &g.Title, &g.Category, &g.Status, &queryJSON, &createdStr, &updatedStr); err != nil {
		return domain.Goal{}, err
	}
	_ = json.Unmarshal([]byte(queryJSON), &g.Query)
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	g.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return g, nil
}
