package planner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/tleague/internal/model"
	"github.com/derekprior/tleague/internal/planner"
	"github.com/derekprior/tleague/internal/schedule"
	"github.com/derekprior/tleague/internal/testutil"
)

func TestPlannerAgainstStore(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	testutil.SeedLeague(t, s, testutil.LeagueYAML)

	p := planner.New(s)
	req := planner.Request{Mode: schedule.ModeOptimized, Iterations: 20, Seed: seed(42)}

	first, err := p.Preview(ctx, req)
	require.NoError(t, err)
	second, err := p.Preview(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first, second, "preview is not reproducible")
	assert.Equal(t, 6, first.Scheduled)

	exec, err := p.Execute(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first.Matches, exec.Result.Matches, "execute diverged from preview")
	assert.Len(t, exec.Committed, 6)
	assert.Empty(t, exec.Failures)

	t.Run("committed schedule has no team double bookings", func(t *testing.T) {
		scheduled, err := s.ScheduledMatches(ctx)
		require.NoError(t, err)
		require.Len(t, scheduled, 6)

		type teamDay struct {
			team int64
			date string
		}
		busy := make(map[teamDay]bool)
		for _, m := range scheduled {
			assert.Equal(t, model.FullyScheduled, m.State(3), "match %d", m.ID)
			date := model.FormatDate(m.Bookings[0].Date)
			for _, tid := range m.Teams() {
				key := teamDay{tid, date}
				assert.False(t, busy[key], "team %d plays twice on %s", tid, date)
				busy[key] = true
			}
			for _, b := range m.Bookings {
				assert.NotEqual(t, "2026-04-18", model.FormatDate(b.Date), "match %d booked on a closure", m.ID)
			}
		}
	})

	t.Run("the run is recorded", func(t *testing.T) {
		runs, err := s.Runs(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, exec.RunID, runs[0].ID)
		assert.Equal(t, int64(42), runs[0].Seed)
		assert.Equal(t, 6, runs[0].Scheduled)
	})

	t.Run("nothing is left to schedule", func(t *testing.T) {
		again, err := p.Execute(ctx, req)
		require.NoError(t, err)
		assert.Empty(t, again.Result.Matches)
		assert.Empty(t, again.Committed)
	})

	t.Run("unscheduled matches return to the pool", func(t *testing.T) {
		id := exec.Committed[0]
		require.NoError(t, p.Unschedule(ctx, id))

		result, err := p.Preview(ctx, planner.Request{Seed: seed(1)})
		require.NoError(t, err)
		require.Len(t, result.Matches, 1)
		assert.Equal(t, id, result.Matches[0].Match.ID)
		assert.True(t, result.Matches[0].Scheduled())
	})
}

func TestRoundWindowIgnoresScope(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	testutil.SeedLeague(t, s, testutil.LeagueYAML)
	p := planner.New(s)

	leagueWide, err := p.Preview(ctx, planner.Request{Seed: seed(1)})
	require.NoError(t, err)
	placed := make(map[int64]*schedule.Placement)
	for _, mr := range leagueWide.Matches {
		placed[mr.Match.ID] = mr.Placement
	}

	// Three rounds over 04-07..05-31; round 2 covers 04-25 to 05-12.
	for _, id := range []int64{3, 4} {
		alone, err := p.Preview(ctx, planner.Request{Scope: model.Scope{MatchIDs: []int64{id}}, Seed: seed(1)})
		require.NoError(t, err)
		require.Len(t, alone.Matches, 1)
		got, want := alone.Matches[0].Placement, placed[id]
		require.NotNil(t, got, "match %d", id)
		require.NotNil(t, want, "match %d", id)
		assert.True(t, got.Date.Equal(want.Date), "match %d alone on %s, league-wide on %s", id, got.Date, want.Date)
		assert.Equal(t, want.Quality, got.Quality, "match %d", id)
	}

	check, err := p.PreviewSingle(ctx, planner.SingleRequest{
		MatchID:    3,
		FacilityID: 1,
		Date:       day(2026, 5, 19),
		Times:      []string{"18:00"},
	})
	require.NoError(t, err)
	assert.False(t, check.InRound, "05-19 is past round 2")
}
