package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"carhunt-engine/internal/domain"
	"carhunt-engine/internal/source/util"
)

// Candidate row states within a goal's set.
const (
	CandidateActive      = "active"
	CandidateDenied      = "denied"
	CandidateShortlisted = "shortlisted"
)

// CandidateState loads every canonical URL a goal already knows, grouped by
// how the user handled it. This is the filter's exclusion input.
func CandidateState(ctx context.Context, db *sql.DB, goalID int64) (domain.CandidateState, error) {
	rows, err := db.QueryContext(ctx, `
SELECT url, state FROM goal_candidates WHERE goal_id = ?;`, goalID)
	if err != nil {
		return domain.CandidateState{}, err
	}
	defer rows.Close()

	var st domain.CandidateState
	for rows.Next() {
		var u, s string
		if err := rows.Scan(&u, &s); err != nil {
			return domain.CandidateState{}, err
		}
		switch s {
		case CandidateDenied:
			st.Denied = append(st.Denied, u)
		case CandidateShortlisted:
			st.Shortlisted = append(st.Shortlisted, u)
		default:
			st.Active = append(st.Active, u)
		}
	}
	return st, rows.Err()
}

// AddCandidates attaches filtered candidates to a goal. URLs are stored
// canonicalized; the unique (goal_id, url) index backstops dedup so a raced
// duplicate insert is silently ignored.
func AddCandidates(ctx context.Context, db *sql.DB, goalID int64, cands []domain.Candidate) (added int, err error) {
	now := time.Now().UTC().Format(time.RFC3339)

	for _, c := range cands {
		cu := util.CanonicalizeURL(c.URL)
		if cu == "" {
			continue
		}
		tagsB, _ := json.Marshal(c.Tags)

		res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO goal_candidates
  (goal_id, url, name, price, currency, source, image, image_key, mileage, condition, location, tags, state, added_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
			goalID, cu, c.Name, c.Price, orDefault(c.Currency, "USD"), c.Source,
			c.Image, c.ImageKey, c.Mileage, c.Condition, c.Location,
			string(tagsB), CandidateActive, now,
		)
		if err != nil {
			return added, fmt.Errorf("insert candidate %q: %w", cu, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, nil
}

// ListCandidates returns a goal's candidates, optionally narrowed to one
// state ("" means all).
func ListCandidates(ctx context.Context, db *sql.DB, goalID int64, state string) ([]domain.Candidate, error) {
	q := `
SELECT url, name, price, currency, source, image, image_key, mileage, condition, location, tags
FROM goal_candidates WHERE goal_id = ?`
	args := []any{goalID}
	if state != "" {
		q += ` AND state = ?`
		args = append(args, state)
	}
	q += ` ORDER BY id;`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		var tagsJSON string
		if err := rows.Scan(&c.URL, &c.Name, &c.Price, &c.Currency, &c.Source,
			&c.Image, &c.ImageKey, &c.Mileage, &c.Condition, &c.Location, &tagsJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &c.Tags)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetCandidateState moves one candidate between active/denied/shortlisted.
func SetCandidateState(ctx context.Context, db *sql.DB, goalID int64, rawURL, state string) error {
	cu := util.CanonicalizeURL(rawURL)
	res, err := db.ExecContext(ctx, `
UPDATE goal_candidates SET state = ? WHERE goal_id = ? AND url = ?;`,
		state, goalID, cu)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("candidate %q on goal %d: %w", cu, goalID, ErrNotFound)
	}
	return nil
}

// SetCandidateImageKey backfills the local image cache key after enrichment.
func SetCandidateImageKey(ctx context.Context, db *sql.DB, goalID int64, rawURL, key string) error {
	cu := util.CanonicalizeURL(rawURL)
	_, err := db.ExecContext(ctx, `
UPDATE goal_candidates
SET image_key = ?
WHERE goal_id = ? AND url = ?
  AND (image_key = '' OR image_key IS NULL);`,
		key, goalID, cu)
	return err
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
