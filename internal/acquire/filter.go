package acquire

import (
	"carhunt-engine/internal/domain"
	"carhunt-engine/internal/source/util"
)

// Filter removes candidates the goal already knows about (active, denied or
// shortlisted, keyed by canonical URL) and dedupes the incoming batch, first
// occurrence winning. Pure and idempotent: filtering an already-filtered
// batch against the same state is a no-op.
func Filter(cands []domain.Candidate, state domain.CandidateState) []domain.Candidate {
	seen := make(map[string]struct{},
		len(state.Active)+len(state.Denied)+len(state.Shortlisted))

	for _, set := range [][]string{state.Active, state.Denied, state.Shortlisted} {
		for _, u := range set {
			if cu := util.CanonicalizeURL(u); cu != "" {
				seen[cu] = struct{}{}
			}
		}
	}

	out := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		cu := util.CanonicalizeURL(c.URL)
		if cu == "" {
			continue
		}
		if _, dup := seen[cu]; dup {
			continue
		}
		seen[cu] = struct{}{}
		out = append(out, c)
	}
	return out
}
