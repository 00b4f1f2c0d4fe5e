package schedule

import (
	"fmt"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

// LineGroup is a number of a match's lines starting at one time.
type LineGroup struct {
	Time  string
	Lines int
}

// Placement assigns all lines of a match to one facility on one date.
type Placement struct {
	MatchID    int64
	FacilityID int64
	Date       time.Time
	Groups     []LineGroup
	Mode       model.LineMode
	Quality    Quality
	InRound    bool
}

// Lines is the total number of lines placed.
func (p Placement) Lines() int {
	n := 0
	for _, g := range p.Groups {
		n += g.Lines
	}
	return n
}

// Bookings converts the placement to the records the store persists.
func (p Placement) Bookings() []model.Booking {
	bookings := make([]model.Booking, 0, len(p.Groups))
	for _, g := range p.Groups {
		bookings = append(bookings, model.Booking{
			MatchID:    p.MatchID,
			FacilityID: p.FacilityID,
			Date:       p.Date,
			Time:       g.Time,
			Lines:      g.Lines,
		})
	}
	return bookings
}

// FailureKind is why a match could not be placed.
type FailureKind string

const (
	// NoAvailability means no facility, date and time with enough courts
	// exists in the league window.
	NoAvailability FailureKind = "NoAvailability"
	// AllConflicted means candidates exist but every one conflicts with
	// existing bookings.
	AllConflicted FailureKind = "AllConflicted"
)

// Failure records a match that was left unscheduled.
type Failure struct {
	Kind   FailureKind
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// MatchResult is the outcome for one match: exactly one of Placement and
// Failure is set.
type MatchResult struct {
	Match     model.Match
	Placement *Placement
	Failure   *Failure
}

// Scheduled reports whether the match was placed.
func (r MatchResult) Scheduled() bool {
	return r.Placement != nil
}

// Result is the outcome of an optimization run.
type Result struct {
	Seed          int64
	Mode          Mode
	LineMode      model.LineMode
	Iterations    int // trials actually run
	BestIteration int // zero-based index of the retained trial

	Matches      []MatchResult // input order
	Scheduled    int
	Failed       int
	TotalQuality int
}

// AverageQuality is the mean quality of scheduled matches, or 0 when none
// were scheduled.
func (r *Result) AverageQuality() float64 {
	if r.Scheduled == 0 {
		return 0
	}
	return float64(r.TotalQuality) / float64(r.Scheduled)
}

// Bookings returns the bookings of every scheduled match in input order.
func (r *Result) Bookings() []model.Booking {
	var bookings []model.Booking
	for _, mr := range r.Matches {
		if mr.Placement != nil {
			bookings = append(bookings, mr.Placement.Bookings()...)
		}
	}
	return bookings
}

// QualityCounts tallies scheduled matches per quality band.
func (r *Result) QualityCounts() map[Quality]int {
	counts := make(map[Quality]int, len(Legend))
	for _, mr := range r.Matches {
		if mr.Placement != nil {
			counts[mr.Placement.Quality]++
		}
	}
	return counts
}

// FailureCounts tallies unscheduled matches per failure kind.
func (r *Result) FailureCounts() map[FailureKind]int {
	counts := make(map[FailureKind]int)
	for _, mr := range r.Matches {
		if mr.Failure != nil {
			counts[mr.Failure.Kind]++
		}
	}
	return counts
}
