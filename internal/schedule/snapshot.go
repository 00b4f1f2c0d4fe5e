package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

// ErrInvalidSnapshot marks structural problems that abort a whole run.
var ErrInvalidSnapshot = errors.New("invalid scheduling snapshot")

// Snapshot is the in-memory input of a run. All persistence reads happen
// before it is built; the engine never performs I/O.
type Snapshot struct {
	Facilities []model.Facility
	Leagues    []model.League
	Teams      []model.Team
	Matches    []model.Match // to schedule, in natural order
	Committed  []model.Match // already booked in storage

	// Rounds overrides the round count of leagues without MatchesPerTeam,
	// which would otherwise be read off Matches and Committed alone.
	Rounds map[int64]int
}

// index is the validated lookup form of a Snapshot.
type index struct {
	facilities map[int64]model.Facility
	leagues    map[int64]model.League
	teams      map[int64]model.Team
	from, to   time.Time
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, fmt.Sprintf(format, args...))
}

func (s *Snapshot) index() (*index, error) {
	ix := &index{
		facilities: make(map[int64]model.Facility, len(s.Facilities)),
		leagues:    make(map[int64]model.League, len(s.Leagues)),
		teams:      make(map[int64]model.Team, len(s.Teams)),
	}
	for _, f := range s.Facilities {
		ix.facilities[f.ID] = f
	}
	for _, l := range s.Leagues {
		if err := l.Validate(); err != nil {
			return nil, invalid("%v", err)
		}
		ix.leagues[l.ID] = l
	}
	for _, t := range s.Teams {
		for _, fid := range t.FacilityIDs {
			if _, ok := ix.facilities[fid]; !ok {
				return nil, invalid("team %d references missing facility %d", t.ID, fid)
			}
		}
		ix.teams[t.ID] = t
	}

	seen := make(map[int64]bool, len(s.Matches))
	for _, m := range s.Matches {
		if seen[m.ID] {
			return nil, invalid("match %d listed twice", m.ID)
		}
		seen[m.ID] = true

		l, ok := ix.leagues[m.LeagueID]
		if !ok {
			return nil, invalid("match %d references missing league %d", m.ID, m.LeagueID)
		}
		for _, tid := range m.Teams() {
			if _, ok := ix.teams[tid]; !ok {
				return nil, invalid("match %d references missing team %d", m.ID, tid)
			}
		}
		if m.HomeTeamID == m.VisitorTeamID {
			return nil, invalid("match %d has the same home and visitor team", m.ID)
		}

		start, end := model.Day(l.StartDate), model.Day(l.EndDate)
		if ix.from.IsZero() || start.Before(ix.from) {
			ix.from = start
		}
		if end.After(ix.to) {
			ix.to = end
		}
	}
	for _, m := range s.Committed {
		if seen[m.ID] {
			return nil, invalid("match %d is both committed and up for scheduling", m.ID)
		}
	}
	if ix.from.IsZero() {
		// Nothing to schedule; keep the calendar trivially small.
		ix.from = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
		ix.to = ix.from
	}
	return ix, nil
}

// plan is everything a run needs that does not change between trials.
type plan struct {
	ix       *index
	calendar *Calendar
	scorer   *Scorer
	base     *Ledger
}

// newPlan validates s and builds the calendar over every league window,
// stretched to cover any extra dates a caller needs to inspect.
func newPlan(s *Snapshot, matchDuration time.Duration, extra ...time.Time) (*plan, error) {
	ix, err := s.index()
	if err != nil {
		return nil, err
	}
	for _, d := range extra {
		d = model.Day(d)
		if d.Before(ix.from) {
			ix.from = d
		}
		if d.After(ix.to) {
			ix.to = d
		}
	}
	cal, err := NewCalendar(s.Facilities, ix.from, ix.to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	base := NewLedger(cal.Availability(), matchDuration)
	for _, m := range s.Committed {
		base.AddCommitted(m)
	}

	rounds := LeagueRounds(ix.leagues, s.Matches, s.Committed)
	for id, n := range s.Rounds {
		if l, ok := ix.leagues[id]; ok && l.MatchesPerTeam == 0 && n > rounds[id] {
			rounds[id] = n
		}
	}

	return &plan{
		ix:       ix,
		calendar: cal,
		scorer:   NewScorer(ix.leagues, ix.teams, rounds),
		base:     base,
	}, nil
}
