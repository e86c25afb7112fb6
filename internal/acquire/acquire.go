package acquire

import (
	"context"
	"errors"
	"log"
	"time"

	"carhunt-engine/internal/adapt"
	"carhunt-engine/internal/domain"
	"carhunt-engine/internal/source"

	"golang.org/x/sync/errgroup"
)

// ErrNoCandidates: every free-tier source and the paid fallback came up
// empty. Terminal for this input; the queue decides whether to retry later.
var ErrNoCandidates = errors.New("no candidates found across all sources")

const (
	defaultLimit         = 10
	defaultSourceTimeout = 90 * time.Second
	defaultAgentTimeout  = 3 * time.Minute
)

// Aggregator fans one query out to every free-tier source concurrently and
// falls back to the single paid agent only when the whole free tier yields
// nothing usable. Per-source failures never escape: they are logged and
// excluded from the aggregate.
type Aggregator struct {
	Registry *adapt.Registry
	Free     []source.Fetcher
	Paid     source.Fetcher // nil disables the fallback tier

	Limit         int           // per-source listing cap
	SourceTimeout time.Duration // per free-source deadline
	AgentTimeout  time.Duration
}

func (a *Aggregator) Acquire(ctx context.Context, q domain.StructuredQuery) ([]domain.Candidate, error) {
	limit := a.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	timeout := a.SourceTimeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}

	// One slot per source keeps the final concatenation in registration
	// order regardless of which source finishes first.
	batches := make([][]domain.Candidate, len(a.Free))

	var g errgroup.Group
	for i, f := range a.Free {
		i, f := i, f

		g.Go(func() error {
			params, err := a.Registry.Adapt(q, f.Name())
			if err != nil {
				// Unregistered fetcher is a wiring bug, not a fetch failure.
				log.Printf("[acquire:%s] adapt: %v", f.Name(), err)
				return nil
			}

			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			log.Printf("[acquire:%s] running arg=%q", f.Name(), params.Arg)
			cands, err := f.Fetch(fctx, params, limit)
			if err != nil {
				// Best-effort: one bad source must not sink the batch.
				log.Printf("[acquire:%s] error: %v", f.Name(), err)
				return nil
			}
			log.Printf("[acquire:%s] got %d listings", f.Name(), len(cands))
			batches[i] = cands
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.Candidate
	for _, b := range batches {
		out = append(out, b...)
	}
	if len(out) > 0 {
		return out, nil
	}

	// Free tier exhausted; the paid agent is now authoritative.
	if a.Paid != nil {
		agentTimeout := a.AgentTimeout
		if agentTimeout <= 0 {
			agentTimeout = defaultAgentTimeout
		}

		params, err := a.Registry.Adapt(q, a.Paid.Name())
		if err != nil {
			log.Printf("[acquire:%s] adapt: %v", a.Paid.Name(), err)
			return nil, ErrNoCandidates
		}

		actx, cancel := context.WithTimeout(ctx, agentTimeout)
		defer cancel()

		cands, err := a.Paid.Fetch(actx, params, limit)
		if err != nil {
			log.Printf("[acquire:%s] error: %v", a.Paid.Name(), err)
			return nil, ErrNoCandidates
		}
		if len(cands) > 0 {
			return cands, nil
		}
	}

	return nil, ErrNoCandidates
}
