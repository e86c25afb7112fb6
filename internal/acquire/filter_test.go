package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carhunt-engine/internal/domain"
)

func TestFilterDropsKnownURLs(t *testing.T) {
	// The active URL has no www prefix; its incoming duplicate does.
	state := domain.CandidateState{
		Active:      []string{"https://carmax.com/car/1"},
		Denied:      []string{"https://www.autotrader.com/cars/2?utm_source=email"},
		Shortlisted: []string{"https://www.kbb.com/cars/3"},
	}
	in := []domain.Candidate{
		listing("seen-active", "https://www.carmax.com/car/1"),
		listing("seen-denied", "https://www.autotrader.com/cars/2"),
		listing("seen-shortlisted", "https://www.kbb.com/cars/3?utm_campaign=alerts"),
		listing("fresh", "https://www.truecar.com/listing/4"),
	}

	out := Filter(in, state)
	require.Len(t, out, 1)
	assert.Equal(t, "fresh", out[0].Name)
}

func TestFilterDedupesBatchFirstWins(t *testing.T) {
	in := []domain.Candidate{
		listing("first", "https://www.carmax.com/car/1"),
		listing("dup-with-tracking", "https://www.carmax.com/car/1?gclid=abc"),
		listing("other", "https://www.carmax.com/car/2"),
	}

	out := Filter(in, domain.CandidateState{})
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Name)
	assert.Equal(t, "other", out[1].Name)
}

func TestFilterDropsEmptyURL(t *testing.T) {
	in := []domain.Candidate{
		{Name: "no url", Price: 1000},
		listing("ok", "https://www.carmax.com/car/1"),
	}

	out := Filter(in, domain.CandidateState{})
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].Name)
}

func TestFilterIdempotent(t *testing.T) {
	state := domain.CandidateState{Denied: []string{"https://www.carmax.com/car/9"}}
	in := []domain.Candidate{
		listing("a", "https://www.carmax.com/car/1"),
		listing("b", "https://www.carmax.com/car/2"),
		listing("denied", "https://www.carmax.com/car/9"),
	}

	once := Filter(in, state)
	twice := Filter(once, state)
	assert.Equal(t, once, twice)
}
