package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

// DefaultMatchDuration is how long a group of lines occupies its teams.
const DefaultMatchDuration = 2 * time.Hour

// ConflictKind categorizes why a placement is rejected.
type ConflictKind int

const (
	ConflictTeam ConflictKind = iota
	ConflictCapacity
	ConflictClosed
	ConflictOutsideWindow
	ConflictLineCount
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictTeam:
		return "team"
	case ConflictCapacity:
		return "capacity"
	case ConflictClosed:
		return "closed"
	case ConflictOutsideWindow:
		return "outside window"
	case ConflictLineCount:
		return "line count"
	default:
		return "unknown"
	}
}

// Conflict describes one reason a placement cannot be booked.
type Conflict struct {
	Kind    ConflictKind
	TeamID  int64 // set for team conflicts
	MatchID int64 // the already-booked match a team conflict is against
	Message string
}

func (c Conflict) String() string {
	return c.Message
}

// span is the time a match occupies its teams on one date, in minutes.
type span struct {
	matchID    int64
	start, end int
}

type teamDay struct {
	team int64
	date time.Time
}

// Ledger tracks who is booked when during one scheduling pass. It starts from
// committed bookings and accumulates the tentative placements of the pass.
type Ledger struct {
	duration int
	avail    *Availability
	teams    map[teamDay][]span
}

// NewLedger returns an empty ledger drawing courts from avail.
func NewLedger(avail *Availability, matchDuration time.Duration) *Ledger {
	if matchDuration <= 0 {
		matchDuration = DefaultMatchDuration
	}
	return &Ledger{
		duration: int(matchDuration / time.Minute),
		avail:    avail,
		teams:    make(map[teamDay][]span),
	}
}

// Availability exposes the ledger's working court counts.
func (l *Ledger) Availability() *Availability {
	return l.avail
}

// Clone returns an independent copy for another pass.
func (l *Ledger) Clone() *Ledger {
	teams := make(map[teamDay][]span, len(l.teams))
	for k, v := range l.teams {
		teams[k] = append([]span(nil), v...)
	}
	return &Ledger{duration: l.duration, avail: l.avail.Clone(), teams: teams}
}

// AddCommitted records a match whose bookings already exist in storage.
// Overbooked data is accepted as is; it only reduces what later placements see.
func (l *Ledger) AddCommitted(m model.Match) {
	byDate := make(map[time.Time][]int)
	for _, b := range m.Bookings {
		clock := b.Time
		if t, err := model.NormalizeClock(b.Time); err == nil {
			clock = t
		}
		l.avail.occupy(b.FacilityID, b.Date, clock, b.Lines)
		if mins, err := model.ParseClock(clock); err == nil {
			d := model.Day(b.Date)
			byDate[d] = append(byDate[d], mins)
		}
	}
	for d, starts := range byDate {
		sort.Ints(starts)
		sp := span{matchID: m.ID, start: starts[0], end: starts[len(starts)-1] + l.duration}
		for _, team := range m.Teams() {
			k := teamDay{team, d}
			l.teams[k] = append(l.teams[k], sp)
		}
	}
}

// Conflicts lists every reason p cannot be booked for m given what the
// ledger already holds.
func (l *Ledger) Conflicts(m model.Match, p Placement) []Conflict {
	return l.check(m, p, true)
}

// HasConflict reports whether p conflicts with anything in the ledger.
func (l *Ledger) HasConflict(m model.Match, p Placement) bool {
	return len(l.check(m, p, false)) > 0
}

func (l *Ledger) check(m model.Match, p Placement, all bool) []Conflict {
	var conflicts []Conflict

	need := make(map[string]int, len(p.Groups))
	for _, g := range p.Groups {
		need[g.Time] += g.Lines
	}
	times := make([]string, 0, len(need))
	for t := range need {
		times = append(times, t)
	}
	sort.Strings(times)
	for _, t := range times {
		free := l.avail.Remaining(p.FacilityID, p.Date, t)
		if need[t] > free {
			conflicts = append(conflicts, Conflict{
				Kind: ConflictCapacity,
				Message: fmt.Sprintf("%s at %s needs %d courts, %d free",
					model.FormatDate(p.Date), t, need[t], free),
			})
			if !all {
				return conflicts
			}
		}
	}

	sp, ok := l.spanOf(m.ID, p)
	if !ok {
		return conflicts
	}
	for _, team := range m.Teams() {
		for _, other := range l.teams[teamDay{team, model.Day(p.Date)}] {
			if other.matchID == m.ID {
				continue
			}
			if sp.start < other.end && other.start < sp.end {
				conflicts = append(conflicts, Conflict{
					Kind:    ConflictTeam,
					TeamID:  team,
					MatchID: other.matchID,
					Message: fmt.Sprintf("team %d already plays match %d on %s at %s",
						team, other.matchID, model.FormatDate(p.Date), clockString(other.start)),
				})
				if !all {
					return conflicts
				}
			}
		}
	}
	return conflicts
}

// Record books p for m: its courts are consumed and its teams marked busy.
// Nothing is recorded when the courts are not available.
func (l *Ledger) Record(m model.Match, p Placement) error {
	need := make(map[string]int, len(p.Groups))
	for _, g := range p.Groups {
		need[g.Time] += g.Lines
	}
	for t, n := range need {
		if free := l.avail.Remaining(p.FacilityID, p.Date, t); n > free {
			return fmt.Errorf("booking match %d: %w: %s at %s has %d courts free, need %d",
				m.ID, ErrCapacityExceeded, model.FormatDate(p.Date), t, free, n)
		}
	}
	for t, n := range need {
		if err := l.avail.Consume(p.FacilityID, p.Date, t, n); err != nil {
			return fmt.Errorf("booking match %d: %w", m.ID, err)
		}
	}

	if sp, ok := l.spanOf(m.ID, p); ok {
		for _, team := range m.Teams() {
			k := teamDay{team, model.Day(p.Date)}
			l.teams[k] = append(l.teams[k], sp)
		}
	}
	return nil
}

func (l *Ledger) spanOf(matchID int64, p Placement) (span, bool) {
	if len(p.Groups) == 0 {
		return span{}, false
	}
	first, last := -1, -1
	for _, g := range p.Groups {
		mins, err := model.ParseClock(g.Time)
		if err != nil {
			continue
		}
		if first < 0 || mins < first {
			first = mins
		}
		if mins > last {
			last = mins
		}
	}
	if first < 0 {
		return span{}, false
	}
	return span{matchID: matchID, start: first, end: last + l.duration}, true
}

func clockString(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
