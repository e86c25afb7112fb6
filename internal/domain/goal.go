package domain

import "time"

// Goal status indicator values. "active" means no acquisition has completed
// yet; the queue flips it to found/not_found after each run. not_supported is
// terminal for automatic acquisition, archived goals are ignored entirely.
const (
	GoalActive       = "active"
	GoalFound        = "found"
	GoalNotFound     = "not_found"
	GoalNotSupported = "not_supported"
	GoalArchived     = "archived"
)

type Goal struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Category  string          `json:"category"` // only "vehicle" has registered sources
	Status    string          `json:"status"`
	Query     StructuredQuery `json:"query"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// RefreshEligible reports whether the daily sweep should enqueue a fresh
// acquisition job for this goal.
func (g Goal) RefreshEligible() bool {
	return g.Status != GoalNotSupported && g.Status != GoalArchived
}
