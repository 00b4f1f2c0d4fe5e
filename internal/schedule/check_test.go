package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

func TestCheckPlacement(t *testing.T) {
	tue := day(2026, 4, 7)

	snapshot := func() *Snapshot {
		snap := singleMatchSnapshot()
		snap.Facilities[0].Blackouts = []time.Time{day(2026, 4, 14)}
		snap.Teams = append(snap.Teams, team(3, 10), team(4, 10))
		snap.Committed = []model.Match{{
			ID: 90, LeagueID: 1, HomeTeamID: 2, VisitorTeamID: 3,
			Bookings: []model.Booking{{MatchID: 90, FacilityID: 10, Date: day(2026, 4, 11), Time: "12:00", Lines: 2}},
		}}
		return snap
	}

	tests := []struct {
		name     string
		prop     Proposal
		feasible bool
		kinds    []ConflictKind
	}{
		{
			name:     "open slot",
			prop:     Proposal{MatchID: 100, FacilityID: 10, Date: tue, Times: []string{"18:00"}},
			feasible: true,
		},
		{
			name:  "team already playing",
			prop:  Proposal{MatchID: 100, FacilityID: 10, Date: day(2026, 4, 11), Times: []string{"12:00"}},
			kinds: []ConflictKind{ConflictTeam},
		},
		{
			name:  "blackout date",
			prop:  Proposal{MatchID: 100, FacilityID: 10, Date: day(2026, 4, 14), Times: []string{"18:00"}},
			kinds: []ConflictKind{ConflictClosed},
		},
		{
			name:  "no courts at that time",
			prop:  Proposal{MatchID: 100, FacilityID: 10, Date: tue, Times: []string{"09:00"}},
			kinds: []ConflictKind{ConflictClosed},
		},
		{
			name:  "outside the league window",
			prop:  Proposal{MatchID: 100, FacilityID: 10, Date: day(2026, 7, 7), Times: []string{"18:00"}},
			kinds: []ConflictKind{ConflictOutsideWindow},
		},
		{
			name:  "split lines not allowed",
			prop:  Proposal{MatchID: 100, FacilityID: 10, Date: tue, Times: []string{"18:00", "19:30"}, Mode: model.LineModeSplitTimes},
			kinds: []ConflictKind{ConflictLineCount, ConflictClosed},
		},
		{
			name:  "custom with too few lines",
			prop:  Proposal{MatchID: 100, FacilityID: 10, Date: tue, Times: []string{"18:00", "18:00"}, Mode: model.LineModeCustom},
			kinds: []ConflictKind{ConflictLineCount, ConflictLineCount},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := CheckPlacement(snapshot(), tt.prop, 0)
			if err != nil {
				t.Fatalf("CheckPlacement() error: %v", err)
			}
			if c.Feasible != tt.feasible {
				t.Errorf("Feasible = %v, want %v (conflicts: %v)", c.Feasible, tt.feasible, c.ConflictMessages())
			}
			if len(c.Conflicts) != len(tt.kinds) {
				t.Fatalf("conflicts = %v, want kinds %v", c.ConflictMessages(), tt.kinds)
			}
			for i, k := range tt.kinds {
				if c.Conflicts[i].Kind != k {
					t.Errorf("conflict %d = %v, want %v", i, c.Conflicts[i].Kind, k)
				}
			}
		})
	}

	t.Run("quality of a feasible proposal", func(t *testing.T) {
		c, err := CheckPlacement(snapshot(), Proposal{MatchID: 100, FacilityID: 10, Date: tue, Times: []string{"18:00"}}, 0)
		if err != nil {
			t.Fatalf("CheckPlacement() error: %v", err)
		}
		if c.Quality != QualityFair || !c.InRound {
			t.Errorf("quality = %v in round %v, want Fair in round", c.Quality, c.InRound)
		}
		if len(c.Placement.Bookings()) != 1 || c.Placement.Bookings()[0].Lines != 3 {
			t.Errorf("bookings = %+v, want one 3-line booking", c.Placement.Bookings())
		}
	})

	t.Run("capacity shortfall", func(t *testing.T) {
		snap := snapshot()
		snap.Committed = append(snap.Committed, model.Match{
			ID: 91, LeagueID: 1, HomeTeamID: 3, VisitorTeamID: 4,
			Bookings: []model.Booking{{MatchID: 91, FacilityID: 10, Date: tue, Time: "18:00", Lines: 4}},
		})
		c, err := CheckPlacement(snap, Proposal{MatchID: 100, FacilityID: 10, Date: tue, Times: []string{"18:00"}}, 0)
		if err != nil {
			t.Fatalf("CheckPlacement() error: %v", err)
		}
		if c.Feasible || len(c.Conflicts) != 1 || c.Conflicts[0].Kind != ConflictCapacity {
			t.Errorf("conflicts = %v, want one capacity conflict", c.ConflictMessages())
		}
	})

	t.Run("split of a single line", func(t *testing.T) {
		snap := snapshot()
		snap.Leagues[0].AllowSplitLines = true
		snap.Leagues[0].LinesPerMatch = 1
		snap.Facilities[0].Schedule[time.Tuesday] = []model.StartTime{
			{Time: "18:00", Courts: 5},
			{Time: "20:00", Courts: 5},
		}
		c, err := CheckPlacement(snap, Proposal{
			MatchID: 100, FacilityID: 10, Date: tue,
			Times: []string{"18:00", "20:00"}, Mode: model.LineModeSplitTimes,
		}, 0)
		if err != nil {
			t.Fatalf("CheckPlacement() error: %v", err)
		}
		if c.Feasible || len(c.Conflicts) != 1 || c.Conflicts[0].Kind != ConflictLineCount {
			t.Errorf("conflicts = %v, want one line count conflict", c.ConflictMessages())
		}
	})

	t.Run("unknown match or facility", func(t *testing.T) {
		_, err := CheckPlacement(snapshot(), Proposal{MatchID: 404, FacilityID: 10, Date: tue, Times: []string{"18:00"}}, 0)
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("unknown match error = %v, want ErrInvalidSnapshot", err)
		}
		_, err = CheckPlacement(snapshot(), Proposal{MatchID: 100, FacilityID: 404, Date: tue, Times: []string{"18:00"}}, 0)
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("unknown facility error = %v, want ErrInvalidSnapshot", err)
		}
	})

	t.Run("malformed times", func(t *testing.T) {
		for _, times := range [][]string{nil, {"18:00", "19:00"}, {"noon"}} {
			if _, err := CheckPlacement(snapshot(), Proposal{MatchID: 100, FacilityID: 10, Date: tue, Times: times}, 0); err == nil {
				t.Errorf("times %v: expected error", times)
			}
		}
	})
}

func TestLineGroups(t *testing.T) {
	groups, err := lineGroups(model.LineModeSplitTimes, []string{"19:30", "18:00"}, 5)
	if err != nil {
		t.Fatalf("lineGroups() error: %v", err)
	}
	if len(groups) != 2 || groups[0] != (LineGroup{"18:00", 3}) || groups[1] != (LineGroup{"19:30", 2}) {
		t.Errorf("split groups = %v, want [18:00x3 19:30x2]", groups)
	}

	groups, err = lineGroups(model.LineModeCustom, []string{"19:30", "18:00", "19:30"}, 3)
	if err != nil {
		t.Fatalf("lineGroups() error: %v", err)
	}
	if len(groups) != 2 || groups[0] != (LineGroup{"18:00", 1}) || groups[1] != (LineGroup{"19:30", 2}) {
		t.Errorf("custom groups = %v, want [18:00x1 19:30x2]", groups)
	}

	if _, err := lineGroups(model.LineModeSplitTimes, []string{"18:00", "18:00"}, 4); err == nil {
		t.Error("expected error for repeated split time")
	}
}
