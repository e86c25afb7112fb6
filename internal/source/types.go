package source

import (
	"context"

	"carhunt-engine/internal/adapt"
	"carhunt-engine/internal/domain"
)

// Fetcher is one data source. A fetch that finds nothing returns an empty
// slice and a nil error; only transport/parse/deadline problems are errors.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, params adapt.SourceParams, limit int) ([]domain.Candidate, error)
}
