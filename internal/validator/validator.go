package validator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/derekprior/tleague/internal/model"
	"github.com/derekprior/tleague/internal/schedule"
)

// Violation represents a constraint violation found in a committed schedule.
type Violation struct {
	MatchID int64  // 0 when the violation is not about one match
	Type    string // "error" or "warning"
	Message string
}

// Source is where committed schedules are read from.
type Source interface {
	Facilities(ctx context.Context) ([]model.Facility, error)
	Leagues(ctx context.Context) ([]model.League, error)
	Teams(ctx context.Context, leagueID int64) ([]model.Team, error)
	Matches(ctx context.Context, scope model.Scope) ([]model.Match, error)
}

// Data is a committed schedule and everything it refers to.
type Data struct {
	Facilities []model.Facility
	Leagues    []model.League
	Teams      []model.Team
	Matches    []model.Match
}

// Load reads every facility, league, team and match from src.
func Load(ctx context.Context, src Source) (*Data, error) {
	facilities, err := src.Facilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading facilities: %w", err)
	}
	leagues, err := src.Leagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading leagues: %w", err)
	}
	teams, err := src.Teams(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("loading teams: %w", err)
	}
	matches, err := src.Matches(ctx, model.Scope{})
	if err != nil {
		return nil, fmt.Errorf("loading matches: %w", err)
	}
	return &Data{Facilities: facilities, Leagues: leagues, Teams: teams, Matches: matches}, nil
}

// Validate loads the committed schedule from src and checks it.
func Validate(ctx context.Context, src Source, matchDuration time.Duration) ([]Violation, error) {
	d, err := Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return Check(d, matchDuration), nil
}

// Check audits a committed schedule. Errors break a hard rule of booking;
// warnings flag placements that are legal but worth a look. Violations are
// ordered errors first, then by match.
func Check(d *Data, matchDuration time.Duration) []Violation {
	if matchDuration <= 0 {
		matchDuration = schedule.DefaultMatchDuration
	}
	a := newAudit(d)

	var violations []Violation

	// Hard constraints
	violations = append(violations, a.checkCapacity()...)
	violations = append(violations, a.checkTeamOverlap(matchDuration)...)
	violations = append(violations, a.checkLeagueWindow()...)
	violations = append(violations, a.checkLines()...)

	// Soft constraints
	violations = append(violations, a.checkRoundWindow()...)
	violations = append(violations, a.checkCompleteness()...)

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Type != violations[j].Type {
			return violations[i].Type == "error"
		}
		return violations[i].MatchID < violations[j].MatchID
	})
	return violations
}

type audit struct {
	d          *Data
	facilities map[int64]model.Facility
	leagues    map[int64]model.League
	teams      map[int64]model.Team
}

func newAudit(d *Data) *audit {
	a := &audit{
		d:          d,
		facilities: make(map[int64]model.Facility, len(d.Facilities)),
		leagues:    make(map[int64]model.League, len(d.Leagues)),
		teams:      make(map[int64]model.Team, len(d.Teams)),
	}
	for _, f := range d.Facilities {
		a.facilities[f.ID] = f
	}
	for _, l := range d.Leagues {
		a.leagues[l.ID] = l
	}
	for _, t := range d.Teams {
		a.teams[t.ID] = t
	}
	return a
}

func (a *audit) facilityName(id int64) string {
	if f, ok := a.facilities[id]; ok {
		return f.Name
	}
	return fmt.Sprintf("facility %d", id)
}

func (a *audit) teamName(id int64) string {
	if t, ok := a.teams[id]; ok {
		return t.Name
	}
	return fmt.Sprintf("team %d", id)
}

// courts returns the courts a facility opens at a date and time.
func courts(f model.Facility, date time.Time, clock string) int {
	if f.IsBlackedOut(date) {
		return 0
	}
	n := 0
	for _, st := range f.Schedule[date.Weekday()] {
		if norm, err := model.NormalizeClock(st.Time); err == nil && norm == clock {
			n += st.Courts
		}
	}
	return n
}

func (a *audit) checkCapacity() []Violation {
	type slotKey struct {
		facility int64
		date     string
		time     string
	}
	used := make(map[slotKey]int)
	first := make(map[slotKey]int64)
	var keys []slotKey

	var violations []Violation
	for _, m := range a.d.Matches {
		for _, b := range m.Bookings {
			clock, err := model.NormalizeClock(b.Time)
			if err != nil {
				violations = append(violations, Violation{
					MatchID: m.ID,
					Type:    "error",
					Message: fmt.Sprintf("match %d has a booking with %v", m.ID, err),
				})
				continue
			}
			k := slotKey{b.FacilityID, model.FormatDate(b.Date), clock}
			if _, ok := used[k]; !ok {
				keys = append(keys, k)
				first[k] = m.ID
			}
			used[k] += b.Lines
		}
	}

	for _, k := range keys {
		f, ok := a.facilities[k.facility]
		if !ok {
			violations = append(violations, Violation{
				MatchID: first[k],
				Type:    "error",
				Message: fmt.Sprintf("booking at unknown facility %d on %s %s", k.facility, k.date, k.time),
			})
			continue
		}
		date, _ := model.ParseDate(k.date)
		switch open := courts(f, date, k.time); {
		case f.IsBlackedOut(date):
			violations = append(violations, Violation{
				MatchID: first[k],
				Type:    "error",
				Message: fmt.Sprintf("%s is closed on %s but has %d line(s) booked at %s", f.Name, k.date, used[k], k.time),
			})
		case open == 0:
			violations = append(violations, Violation{
				MatchID: first[k],
				Type:    "error",
				Message: fmt.Sprintf("%s has no courts at %s on %s but has %d line(s) booked", f.Name, k.time, k.date, used[k]),
			})
		case used[k] > open:
			violations = append(violations, Violation{
				MatchID: first[k],
				Type:    "error",
				Message: fmt.Sprintf("%s on %s at %s has %d lines booked on %d courts", f.Name, k.date, k.time, used[k], open),
			})
		}
	}
	return violations
}

type span struct {
	matchID    int64
	start, end int // minutes after midnight
}

func (a *audit) checkTeamOverlap(matchDuration time.Duration) []Violation {
	type teamDay struct {
		team int64
		date string
	}
	spans := make(map[teamDay][]span)
	var keys []teamDay

	for _, m := range a.d.Matches {
		byDate := make(map[string]*span)
		var dates []string
		for _, b := range m.Bookings {
			mins, err := model.ParseClock(b.Time)
			if err != nil {
				continue // reported by checkCapacity
			}
			date := model.FormatDate(b.Date)
			s, ok := byDate[date]
			if !ok {
				s = &span{matchID: m.ID, start: mins, end: mins}
				byDate[date] = s
				dates = append(dates, date)
			}
			s.start = min(s.start, mins)
			s.end = max(s.end, mins)
		}
		for _, date := range dates {
			s := *byDate[date]
			s.end += int(matchDuration.Minutes())
			for _, tid := range m.Teams() {
				k := teamDay{tid, date}
				if _, ok := spans[k]; !ok {
					keys = append(keys, k)
				}
				spans[k] = append(spans[k], s)
			}
		}
	}

	var violations []Violation
	for _, k := range keys {
		list := spans[k]
		sort.Slice(list, func(i, j int) bool { return list[i].start < list[j].start })
		for i := 1; i < len(list); i++ {
			for j := 0; j < i; j++ {
				if list[j].end > list[i].start {
					violations = append(violations, Violation{
						MatchID: list[i].matchID,
						Type:    "error",
						Message: fmt.Sprintf("%s plays matches %d and %d at overlapping times on %s",
							a.teamName(k.team), list[j].matchID, list[i].matchID, k.date),
					})
				}
			}
		}
	}
	return violations
}

func (a *audit) checkLeagueWindow() []Violation {
	var violations []Violation
	for _, m := range a.d.Matches {
		l, ok := a.leagues[m.LeagueID]
		if !ok {
			continue
		}
		for _, b := range m.Bookings {
			d := model.Day(b.Date)
			if d.Before(model.Day(l.StartDate)) || d.After(model.Day(l.EndDate)) {
				violations = append(violations, Violation{
					MatchID: m.ID,
					Type:    "error",
					Message: fmt.Sprintf("match %d is booked on %s, outside %s (%s to %s)",
						m.ID, model.FormatDate(d), l.Name, model.FormatDate(l.StartDate), model.FormatDate(l.EndDate)),
				})
				break
			}
		}
	}
	return violations
}

// checkLines flags matches booked beyond their league's line count, spread
// over several facilities or dates, or split when the league forbids it.
func (a *audit) checkLines() []Violation {
	var violations []Violation
	for _, m := range a.d.Matches {
		if len(m.Bookings) == 0 {
			continue
		}
		l, ok := a.leagues[m.LeagueID]
		if !ok {
			violations = append(violations, Violation{
				MatchID: m.ID,
				Type:    "error",
				Message: fmt.Sprintf("match %d belongs to unknown league %d", m.ID, m.LeagueID),
			})
			continue
		}

		booked := m.BookedLines()
		switch {
		case booked > l.LinesPerMatch:
			violations = append(violations, Violation{
				MatchID: m.ID,
				Type:    "error",
				Message: fmt.Sprintf("match %d has %d lines booked but %s plays %d", m.ID, booked, l.Name, l.LinesPerMatch),
			})
		case booked < l.LinesPerMatch:
			violations = append(violations, Violation{
				MatchID: m.ID,
				Type:    "warning",
				Message: fmt.Sprintf("match %d is partially scheduled: %d of %d lines", m.ID, booked, l.LinesPerMatch),
			})
		}

		places := make(map[string]bool)
		times := make(map[string]bool)
		for _, b := range m.Bookings {
			places[fmt.Sprintf("%d/%s", b.FacilityID, model.FormatDate(b.Date))] = true
			times[b.Time] = true
		}
		if len(places) > 1 {
			violations = append(violations, Violation{
				MatchID: m.ID,
				Type:    "error",
				Message: fmt.Sprintf("match %d is spread over %d facility dates", m.ID, len(places)),
			})
		}
		if len(times) > 1 && !l.AllowSplitLines {
			violations = append(violations, Violation{
				MatchID: m.ID,
				Type:    "error",
				Message: fmt.Sprintf("match %d starts lines at %d times but %s does not allow split lines", m.ID, len(times), l.Name),
			})
		}
	}
	return violations
}

func (a *audit) checkRoundWindow() []Violation {
	scorer := schedule.NewScorer(a.leagues, a.teams, schedule.LeagueRounds(a.leagues, a.d.Matches))

	var violations []Violation
	for _, m := range a.d.Matches {
		if len(m.Bookings) == 0 {
			continue
		}
		if _, ok := a.leagues[m.LeagueID]; !ok {
			continue
		}
		date := m.Bookings[0].Date
		if ev := scorer.Evaluate(m, date); !ev.InRound {
			from, to := scorer.RoundWindow(m)
			violations = append(violations, Violation{
				MatchID: m.ID,
				Type:    "warning",
				Message: fmt.Sprintf("%s vs %s (round %d) is on %s, outside its round window %s to %s",
					a.teamName(m.HomeTeamID), a.teamName(m.VisitorTeamID), m.Round,
					model.FormatDate(date), model.FormatDate(from), model.FormatDate(to)),
			})
		}
	}
	return violations
}

func (a *audit) checkCompleteness() []Violation {
	unscheduled := make(map[int64]int)
	for _, m := range a.d.Matches {
		if len(m.Bookings) == 0 {
			unscheduled[m.LeagueID]++
		}
	}

	var violations []Violation
	for _, l := range a.d.Leagues {
		if n := unscheduled[l.ID]; n > 0 {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("%s has %d unscheduled match(es)", l.Name, n),
			})
		}
	}
	return violations
}
