package model

import (
	"fmt"
	"time"
)

// StartTime is one entry of a facility's weekly schedule: a start time and
// how many courts open at it.
type StartTime struct {
	Time   string // "18:00"
	Courts int
}

// Facility is a venue with a weekly court schedule and blackout dates.
type Facility struct {
	ID        int64
	Name      string
	Schedule  map[time.Weekday][]StartTime
	Blackouts []time.Time
}

// IsBlackedOut reports whether the facility is closed for the whole date.
func (f Facility) IsBlackedOut(d time.Time) bool {
	d = Day(d)
	for _, b := range f.Blackouts {
		if Day(b).Equal(d) {
			return true
		}
	}
	return false
}

// League holds the scheduling window and day preferences shared by its teams.
type League struct {
	ID              int64
	Name            string
	StartDate       time.Time
	EndDate         time.Time
	PreferredDays   []time.Weekday
	BackupDays      []time.Weekday
	LinesPerMatch   int
	AllowSplitLines bool
	MatchesPerTeam  int // 0 derives the round count from the league's matches
}

// Validate checks the league's window and line configuration.
func (l League) Validate() error {
	if l.StartDate.IsZero() || l.EndDate.IsZero() {
		return fmt.Errorf("league %d: start and end dates are required", l.ID)
	}
	if Day(l.EndDate).Before(Day(l.StartDate)) {
		return fmt.Errorf("league %d: end date %s is before start date %s",
			l.ID, FormatDate(l.EndDate), FormatDate(l.StartDate))
	}
	if l.LinesPerMatch < 1 {
		return fmt.Errorf("league %d: lines per match must be at least 1", l.ID)
	}
	if l.MatchesPerTeam < 0 {
		return fmt.Errorf("league %d: matches per team cannot be negative", l.ID)
	}
	return nil
}

// Team is a league entrant with facilities in priority order.
type Team struct {
	ID            int64
	Name          string
	LeagueID      int64
	FacilityIDs   []int64
	PreferredDays []time.Weekday
	BackupDays    []time.Weekday
}

// Booking is one group of lines of a match at a facility, date and time.
type Booking struct {
	MatchID    int64
	FacilityID int64
	Date       time.Time
	Time       string
	Lines      int
}

// LineMode describes how a match's lines are spread over start times.
type LineMode string

const (
	LineModeSameTime   LineMode = "same_time"
	LineModeSplitTimes LineMode = "split_times"
	LineModeCustom     LineMode = "custom"
)

// ParseLineMode accepts the three line modes; empty means same_time.
func ParseLineMode(s string) (LineMode, error) {
	switch LineMode(s) {
	case "", LineModeSameTime:
		return LineModeSameTime, nil
	case LineModeSplitTimes, LineModeCustom:
		return LineMode(s), nil
	default:
		return "", fmt.Errorf("unknown line mode %q", s)
	}
}

// State is the scheduling state of a match.
type State int

const (
	Unscheduled State = iota
	PartiallyScheduled
	FullyScheduled
)

func (s State) String() string {
	switch s {
	case PartiallyScheduled:
		return "partially scheduled"
	case FullyScheduled:
		return "fully scheduled"
	default:
		return "unscheduled"
	}
}

// Match is a fixture between two teams of a league.
type Match struct {
	ID            int64
	LeagueID      int64
	HomeTeamID    int64
	VisitorTeamID int64
	Round         int
	Bookings      []Booking
}

// BookedLines sums the lines across the match's bookings.
func (m Match) BookedLines() int {
	total := 0
	for _, b := range m.Bookings {
		total += b.Lines
	}
	return total
}

// State derives the scheduling state from booked lines.
func (m Match) State(linesPerMatch int) State {
	booked := m.BookedLines()
	switch {
	case booked == 0:
		return Unscheduled
	case booked >= linesPerMatch:
		return FullyScheduled
	default:
		return PartiallyScheduled
	}
}

// Teams returns the home and visitor team IDs.
func (m Match) Teams() [2]int64 {
	return [2]int64{m.HomeTeamID, m.VisitorTeamID}
}

// Scope narrows the matches an operation considers. The zero value means
// every match.
type Scope struct {
	LeagueID int64
	MatchIDs []int64
}

// Includes reports whether m falls inside the scope.
func (s Scope) Includes(m Match) bool {
	if s.LeagueID != 0 && m.LeagueID != s.LeagueID {
		return false
	}
	if len(s.MatchIDs) == 0 {
		return true
	}
	for _, id := range s.MatchIDs {
		if id == m.ID {
			return true
		}
	}
	return false
}
