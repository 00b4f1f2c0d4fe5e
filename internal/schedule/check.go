package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

// Proposal is a manual placement of one match.
type Proposal struct {
	MatchID    int64
	FacilityID int64
	Date       time.Time
	Times      []string
	Mode       model.LineMode
}

// Check is the verdict on a Proposal.
type Check struct {
	Feasible  bool
	Quality   Quality
	InRound   bool
	Placement Placement
	Conflicts []Conflict
}

// ConflictMessages renders the conflicts for display.
func (c *Check) ConflictMessages() []string {
	msgs := make([]string, 0, len(c.Conflicts))
	for _, cf := range c.Conflicts {
		msgs = append(msgs, cf.String())
	}
	return msgs
}

// CheckPlacement scores a proposal and lists everything that would stop it
// from being booked. The match must be in snap.Matches; its own existing
// bookings should be left out of snap.Committed.
func CheckPlacement(snap *Snapshot, prop Proposal, matchDuration time.Duration) (*Check, error) {
	var match *model.Match
	for i := range snap.Matches {
		if snap.Matches[i].ID == prop.MatchID {
			match = &snap.Matches[i]
			break
		}
	}
	if match == nil {
		return nil, invalid("match %d is not part of the snapshot", prop.MatchID)
	}

	p, err := newPlan(snap, matchDuration, prop.Date)
	if err != nil {
		return nil, err
	}
	facility, ok := p.ix.facilities[prop.FacilityID]
	if !ok {
		return nil, invalid("facility %d does not exist", prop.FacilityID)
	}
	league := p.ix.leagues[match.LeagueID]

	mode := prop.Mode
	if mode == "" {
		mode = model.LineModeSameTime
	}
	groups, err := lineGroups(mode, prop.Times, league.LinesPerMatch)
	if err != nil {
		return nil, err
	}

	date := model.Day(prop.Date)
	placement := Placement{
		MatchID:    match.ID,
		FacilityID: facility.ID,
		Date:       date,
		Groups:     groups,
		Mode:       mode,
	}
	ev := p.scorer.Evaluate(*match, date)
	placement.Quality, placement.InRound = ev.Quality, ev.InRound

	var conflicts []Conflict
	if mode != model.LineModeSameTime && !league.AllowSplitLines {
		conflicts = append(conflicts, Conflict{
			Kind:    ConflictLineCount,
			Message: fmt.Sprintf("league %q does not allow split lines", league.Name),
		})
	}
	for _, g := range groups {
		if g.Lines < 1 {
			conflicts = append(conflicts, Conflict{
				Kind: ConflictLineCount,
				Message: fmt.Sprintf("no lines left for %s; league plays %d line(s) per match",
					g.Time, league.LinesPerMatch),
			})
		}
	}
	if placement.Lines() != league.LinesPerMatch {
		conflicts = append(conflicts, Conflict{
			Kind:    ConflictLineCount,
			Message: fmt.Sprintf("%d lines placed, league plays %d", placement.Lines(), league.LinesPerMatch),
		})
	}
	if date.Before(model.Day(league.StartDate)) || date.After(model.Day(league.EndDate)) {
		conflicts = append(conflicts, Conflict{
			Kind: ConflictOutsideWindow,
			Message: fmt.Sprintf("%s is outside the league window %s to %s",
				model.FormatDate(date), model.FormatDate(league.StartDate), model.FormatDate(league.EndDate)),
		})
	}

	closed := false
	if facility.IsBlackedOut(date) {
		closed = true
		conflicts = append(conflicts, Conflict{
			Kind:    ConflictClosed,
			Message: fmt.Sprintf("%s is blacked out on %s", facility.Name, model.FormatDate(date)),
		})
	} else {
		for _, g := range groups {
			if p.calendar.Courts(facility.ID, date, g.Time) == 0 {
				closed = true
				conflicts = append(conflicts, Conflict{
					Kind: ConflictClosed,
					Message: fmt.Sprintf("%s has no courts at %s on %s",
						facility.Name, g.Time, date.Weekday()),
				})
			}
		}
	}

	for _, cf := range p.base.Conflicts(*match, placement) {
		if closed && cf.Kind == ConflictCapacity {
			continue
		}
		conflicts = append(conflicts, cf)
	}

	return &Check{
		Feasible:  len(conflicts) == 0,
		Quality:   placement.Quality,
		InRound:   placement.InRound,
		Placement: placement,
		Conflicts: conflicts,
	}, nil
}

// lineGroups spreads a match's lines over the proposed times: all at one
// time, ceil/floor over two times, or one line per listed time.
func lineGroups(mode model.LineMode, times []string, lines int) ([]LineGroup, error) {
	normalized := make([]string, 0, len(times))
	for _, t := range times {
		n, err := model.NormalizeClock(t)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, n)
	}

	switch mode {
	case model.LineModeSameTime:
		if len(normalized) != 1 {
			return nil, fmt.Errorf("same_time needs exactly one time, got %d", len(normalized))
		}
		return []LineGroup{{Time: normalized[0], Lines: lines}}, nil
	case model.LineModeSplitTimes:
		if len(normalized) != 2 || normalized[0] == normalized[1] {
			return nil, fmt.Errorf("split_times needs two distinct times, got %v", normalized)
		}
		sort.Strings(normalized)
		first := (lines + 1) / 2
		return []LineGroup{
			{Time: normalized[0], Lines: first},
			{Time: normalized[1], Lines: lines - first},
		}, nil
	case model.LineModeCustom:
		if len(normalized) == 0 {
			return nil, fmt.Errorf("custom needs at least one time")
		}
		counts := make(map[string]int)
		for _, t := range normalized {
			counts[t]++
		}
		sort.Strings(normalized)
		var groups []LineGroup
		for _, t := range normalized {
			if n, ok := counts[t]; ok {
				groups = append(groups, LineGroup{Time: t, Lines: n})
				delete(counts, t)
			}
		}
		return groups, nil
	default:
		return nil, fmt.Errorf("unknown line mode %q", mode)
	}
}
