package schedule

import (
	"fmt"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// tueSatFacility is open Tuesdays at 18:00 and Saturdays at 12:00.
func tueSatFacility(id int64, courts int) model.Facility {
	return model.Facility{
		ID:   id,
		Name: fmt.Sprintf("Facility %d", id),
		Schedule: map[time.Weekday][]model.StartTime{
			time.Tuesday:  {{Time: "18:00", Courts: courts}},
			time.Saturday: {{Time: "12:00", Courts: courts}},
		},
	}
}

// springLeague runs Tuesday 2026-04-07 through Monday 2026-06-15 (70 days),
// so six rounds give round 1 the window 04-07..04-17.
func springLeague() model.League {
	return model.League{
		ID:             1,
		Name:           "Spring 3.5",
		StartDate:      day(2026, 4, 7),
		EndDate:        day(2026, 6, 15),
		PreferredDays:  []time.Weekday{time.Tuesday, time.Saturday},
		BackupDays:     []time.Weekday{time.Thursday},
		LinesPerMatch:  3,
		MatchesPerTeam: 6,
	}
}

func team(id int64, facilities ...int64) model.Team {
	return model.Team{ID: id, Name: fmt.Sprintf("Team %d", id), LeagueID: 1, FacilityIDs: facilities}
}

func match(id, home, visitor int64, round int) model.Match {
	return model.Match{ID: id, LeagueID: 1, HomeTeamID: home, VisitorTeamID: visitor, Round: round}
}

func singleMatchSnapshot() *Snapshot {
	return &Snapshot{
		Facilities: []model.Facility{tueSatFacility(10, 5)},
		Leagues:    []model.League{springLeague()},
		Teams:      []model.Team{team(1, 10), team(2, 10)},
		Matches:    []model.Match{match(100, 1, 2, 1)},
	}
}

// crowdedSnapshot has more matches than comfortable slots so that match
// order changes the outcome.
func crowdedSnapshot() *Snapshot {
	league := springLeague()
	league.EndDate = day(2026, 4, 30)
	league.MatchesPerTeam = 3

	snap := &Snapshot{
		Facilities: []model.Facility{tueSatFacility(10, 3), tueSatFacility(11, 6)},
		Leagues:    []model.League{league},
	}
	for id := int64(1); id <= 8; id++ {
		t := team(id, 10)
		if id%2 == 0 {
			t.FacilityIDs = []int64{11, 10}
		}
		if id%3 == 0 {
			t.PreferredDays = []time.Weekday{time.Saturday}
		}
		snap.Teams = append(snap.Teams, t)
	}

	var id int64 = 100
	for round := 1; round <= 3; round++ {
		for home := int64(1); home <= 8; home += 2 {
			visitor := (home+int64(round*2)-1)%8 + 1
			if visitor == home {
				visitor = home%8 + 1
			}
			snap.Matches = append(snap.Matches, match(id, home, visitor, round))
			id++
		}
	}
	return snap
}

func placementFor(t interface{ Fatalf(string, ...any) }, r *Result, matchID int64) *Placement {
	for _, mr := range r.Matches {
		if mr.Match.ID == matchID {
			if mr.Placement == nil {
				t.Fatalf("match %d not scheduled: %v", matchID, mr.Failure)
			}
			return mr.Placement
		}
	}
	t.Fatalf("match %d missing from result", matchID)
	return nil
}
