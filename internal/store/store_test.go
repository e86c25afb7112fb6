package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carhunt-engine/internal/domain"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func testGoal(t *testing.T, db *sql.DB) domain.Goal {
	t.Helper()
	g, err := CreateGoal(context.Background(), db, "Denali hunt", "vehicle",
		domain.StructuredQuery{Makes: []string{"GMC"}, Models: []string{"Sierra 3500HD"}, Year: 2026})
	require.NoError(t, err)
	return g
}

func TestGoalRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	g := testGoal(t, db)
	assert.Equal(t, domain.GoalActive, g.Status)

	got, err := GetGoal(ctx, db, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Denali hunt", got.Title)
	assert.Equal(t, []string{"GMC"}, got.Query.Makes)
	assert.Equal(t, 2026, got.Query.Year)

	_, err = GetGoal(ctx, db, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetGoalStatus(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	g := testGoal(t, db)

	require.NoError(t, SetGoalStatus(ctx, db, g.ID, domain.GoalFound))
	got, err := GetGoal(ctx, db, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalFound, got.Status)

	assert.ErrorIs(t, SetGoalStatus(ctx, db, 999, domain.GoalFound), ErrNotFound)
}

func TestListRefreshableGoals(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	active := testGoal(t, db)
	found := testGoal(t, db)
	notFound := testGoal(t, db)
	unsupported := testGoal(t, db)
	archived := testGoal(t, db)

	require.NoError(t, SetGoalStatus(ctx, db, found.ID, domain.GoalFound))
	require.NoError(t, SetGoalStatus(ctx, db, notFound.ID, domain.GoalNotFound))
	require.NoError(t, SetGoalStatus(ctx, db, unsupported.ID, domain.GoalNotSupported))
	require.NoError(t, SetGoalStatus(ctx, db, archived.ID, domain.GoalArchived))

	goals, err := ListRefreshableGoals(ctx, db)
	require.NoError(t, err)

	ids := make([]int64, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}
	assert.ElementsMatch(t, []int64{active.ID, found.ID, notFound.ID}, ids)
}

func TestEnqueueJobDedup(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	g := testGoal(t, db)

	id1, created, err := EnqueueJob(ctx, db, g.ID)
	require.NoError(t, err)
	assert.True(t, created)

	// Second enqueue while pending hands back the same job.
	id2, created, err := EnqueueJob(ctx, db, g.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)

	// Still deduped once the job is running.
	claimed, err := ClaimPendingJobs(ctx, db, 5)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	id3, created, err := EnqueueJob(ctx, db, g.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id3)

	// After completion a fresh job can be enqueued.
	require.NoError(t, CompleteJob(ctx, db, id1, ""))
	id4, created, err := EnqueueJob(ctx, db, g.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, id1, id4)
}

func TestClaimPendingJobsNoDoubleClaim(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	g1 := testGoal(t, db)
	g2 := testGoal(t, db)

	_, _, err := EnqueueJob(ctx, db, g1.ID)
	require.NoError(t, err)
	_, _, err = EnqueueJob(ctx, db, g2.ID)
	require.NoError(t, err)

	first, err := ClaimPendingJobs(ctx, db, 5)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	for _, j := range first {
		assert.Equal(t, domain.JobRunning, j.Status)
	}

	second, err := ClaimPendingJobs(ctx, db, 5)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestClaimSkipsGoalWithRunningJob(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	g := testGoal(t, db)

	id, _, err := EnqueueJob(ctx, db, g.ID)
	require.NoError(t, err)

	claimed, err := ClaimPendingJobs(ctx, db, 5)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	// Failing back to pending competes with nothing else, so it reclaims.
	status, err := FailJob(ctx, db, id, "transient")
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, status)

	reclaimed, err := ClaimPendingJobs(ctx, db, 5)
	require.NoError(t, err)
	assert.Len(t, reclaimed, 1)
}

func TestClaimRespectsLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		g := testGoal(t, db)
		_, _, err := EnqueueJob(ctx, db, g.ID)
		require.NoError(t, err)
	}

	claimed, err := ClaimPendingJobs(ctx, db, 2)
	require.NoError(t, err)
	assert.Len(t, claimed, 2)
}

func TestFailJobRetriesThenTerminal(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	g := testGoal(t, db)

	id, _, err := EnqueueJob(ctx, db, g.ID)
	require.NoError(t, err)

	for attempt := 1; attempt < domain.MaxJobAttempts; attempt++ {
		claimed, err := ClaimPendingJobs(ctx, db, 1)
		require.NoError(t, err)
		require.Len(t, claimed, 1)

		status, err := FailJob(ctx, db, id, "source blew up")
		require.NoError(t, err)
		assert.Equal(t, domain.JobPending, status, "attempt %d", attempt)
	}

	claimed, err := ClaimPendingJobs(ctx, db, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	status, err := FailJob(ctx, db, id, "source blew up again")
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, status)

	j, err := GetJob(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxJobAttempts, j.Attempts)
	assert.Equal(t, "source blew up again", j.LastError)

	// Terminal jobs stay terminal.
	none, err := ClaimPendingJobs(ctx, db, 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCompleteJobRequiresRunning(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	g := testGoal(t, db)

	id, _, err := EnqueueJob(ctx, db, g.ID)
	require.NoError(t, err)

	assert.Error(t, CompleteJob(ctx, db, id, ""), "pending job must not complete")

	_, err = ClaimPendingJobs(ctx, db, 1)
	require.NoError(t, err)
	require.NoError(t, CompleteJob(ctx, db, id, "no new candidates"))

	j, err := GetJob(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, j.Status)
	assert.Equal(t, "no new candidates", j.LastError)

	assert.Error(t, CompleteJob(ctx, db, id, ""), "completed job must not complete twice")
}

func TestJobCounts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	g1 := testGoal(t, db)
	g2 := testGoal(t, db)

	_, _, err := EnqueueJob(ctx, db, g1.ID)
	require.NoError(t, err)
	_, _, err = EnqueueJob(ctx, db, g2.ID)
	require.NoError(t, err)

	counts, err := JobCounts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.JobPending])
}

func TestAddCandidatesDedup(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	g := testGoal(t, db)

	batch := []domain.Candidate{
		{Name: "Denali", Price: 103615, Source: "carmax", URL: "https://www.carmax.com/car/1?utm_source=x"},
		{Name: "Denali 2", Price: 98000, Source: "kbb", URL: "https://www.kbb.com/cars/2", Tags: []string{"diesel"}},
	}
	added, err := AddCandidates(ctx, db, g.ID, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Same listings, tracking params varied: the unique index shrugs.
	again, err := AddCandidates(ctx, db, g.ID, []domain.Candidate{
		{Name: "Denali", Price: 103615, URL: "https://www.carmax.com/car/1?gclid=y"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, again)

	cands, err := ListCandidates(ctx, db, g.ID, "")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "https://carmax.com/car/1", cands[0].URL)
	assert.Equal(t, "USD", cands[0].Currency)
	assert.Equal(t, []string{"diesel"}, cands[1].Tags)
}

func TestCandidateStateTransitions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	g := testGoal(t, db)

	_, err := AddCandidates(ctx, db, g.ID, []domain.Candidate{
		{Name: "a", Price: 1, URL: "https://www.carmax.com/car/1"},
		{Name: "b", Price: 1, URL: "https://www.carmax.com/car/2"},
	})
	require.NoError(t, err)

	require.NoError(t, SetCandidateState(ctx, db, g.ID, "https://www.carmax.com/car/1", CandidateDenied))
	require.NoError(t, SetCandidateState(ctx, db, g.ID, "https://www.carmax.com/car/2", CandidateShortlisted))

	st, err := CandidateState(ctx, db, g.ID)
	require.NoError(t, err)
	assert.Empty(t, st.Active)
	assert.Equal(t, []string{"https://carmax.com/car/1"}, st.Denied)
	assert.Equal(t, []string{"https://carmax.com/car/2"}, st.Shortlisted)

	denied, err := ListCandidates(ctx, db, g.ID, CandidateDenied)
	require.NoError(t, err)
	require.Len(t, denied, 1)
	assert.Equal(t, "a", denied[0].Name)

	err = SetCandidateState(ctx, db, g.ID, "https://www.carmax.com/car/404", CandidateDenied)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetCandidateImageKeyBackfillOnly(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	g := testGoal(t, db)

	_, err := AddCandidates(ctx, db, g.ID, []domain.Candidate{
		{Name: "a", Price: 1, URL: "https://www.carmax.com/car/1"},
	})
	require.NoError(t, err)

	require.NoError(t, SetCandidateImageKey(ctx, db, g.ID, "https://www.carmax.com/car/1", "key-1"))
	require.NoError(t, SetCandidateImageKey(ctx, db, g.ID, "https://www.carmax.com/car/1", "key-2"))

	cands, err := ListCandidates(ctx, db, g.ID, "")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "key-1", cands[0].ImageKey)
}
