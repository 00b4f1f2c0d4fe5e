package schedule

import (
	"fmt"
	"math/rand"

	"github.com/derekprior/tleague/internal/model"
)

// assigner runs single greedy passes over a fixed plan.
type assigner struct {
	plan     *plan
	lineMode model.LineMode
}

// trial is the outcome of one greedy pass.
type trial struct {
	results   []MatchResult // input order
	scheduled int
	quality   int
}

// beats orders trials by scheduled count, then average quality. Averages
// are compared by cross-multiplying to stay exact.
func (t *trial) beats(other *trial) bool {
	if t.scheduled != other.scheduled {
		return t.scheduled > other.scheduled
	}
	return t.quality*other.scheduled > other.quality*t.scheduled
}

// candidate is a feasible placement plus the keys used to rank it.
type candidate struct {
	placement Placement
	priority  int // facility index in the teams' priority list
}

// better ranks by quality, then in-round, then earliest date and time, then
// facility priority, then the second start time of split placements.
func (c candidate) better(o candidate) bool {
	a, b := c.placement, o.placement
	if a.Quality != b.Quality {
		return a.Quality > b.Quality
	}
	if a.InRound != b.InRound {
		return a.InRound
	}
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Groups[0].Time != b.Groups[0].Time {
		return a.Groups[0].Time < b.Groups[0].Time
	}
	if c.priority != o.priority {
		return c.priority < o.priority
	}
	if len(a.Groups) > 1 && len(b.Groups) > 1 {
		return a.Groups[1].Time < b.Groups[1].Time
	}
	return len(a.Groups) < len(b.Groups)
}

// search tallies what a candidate scan saw.
type search struct {
	best     *candidate
	possible int // candidates with enough courts on an empty calendar
	rejected int
}

func (s *search) offer(c candidate) {
	if s.best == nil || c.better(*s.best) {
		s.best = &c
	}
}

// run places matches one by one in the order given by rng (input order when
// rng is nil), recording each placement in ledger before the next match.
func (a *assigner) run(matches []model.Match, rng *rand.Rand, ledger *Ledger) *trial {
	order := make([]int, len(matches))
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	t := &trial{results: make([]MatchResult, len(matches))}
	for _, idx := range order {
		m := matches[idx]
		p, failure := a.place(m, ledger)
		if failure != nil {
			t.results[idx] = MatchResult{Match: m, Failure: failure}
			continue
		}
		if err := ledger.Record(m, *p); err != nil {
			t.results[idx] = MatchResult{Match: m, Failure: &Failure{Kind: AllConflicted, Detail: err.Error()}}
			continue
		}
		t.results[idx] = MatchResult{Match: m, Placement: p}
		t.scheduled++
		t.quality += int(p.Quality)
	}
	return t
}

// place finds the best feasible placement for one match.
func (a *assigner) place(m model.Match, ledger *Ledger) (*Placement, *Failure) {
	league := a.plan.ix.leagues[m.LeagueID]
	facilities := a.facilities(m)
	if len(facilities) == 0 {
		return nil, &Failure{Kind: NoAvailability, Detail: "neither team has a home facility"}
	}

	lines := league.LinesPerMatch
	canSplit := league.AllowSplitLines && lines >= 2

	var s search
	if a.lineMode == model.LineModeSplitTimes && canSplit {
		a.scanSplit(m, league, facilities, ledger, &s)
	} else {
		a.scanSameTime(m, league, facilities, ledger, &s)
		if s.best == nil && canSplit {
			a.scanSplit(m, league, facilities, ledger, &s)
		}
	}

	if s.best != nil {
		p := s.best.placement
		return &p, nil
	}
	if s.possible == 0 {
		return nil, &Failure{
			Kind: NoAvailability,
			Detail: fmt.Sprintf("no slot with %d courts between %s and %s",
				lines, model.FormatDate(league.StartDate), model.FormatDate(league.EndDate)),
		}
	}
	return nil, &Failure{
		Kind:   AllConflicted,
		Detail: fmt.Sprintf("all %d candidate slots conflict with existing bookings", s.rejected),
	}
}

// facilities lists the home team's facilities then the visitor's, without
// repeats, in priority order.
func (a *assigner) facilities(m model.Match) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, tid := range m.Teams() {
		for _, fid := range a.plan.ix.teams[tid].FacilityIDs {
			if !seen[fid] {
				seen[fid] = true
				ids = append(ids, fid)
			}
		}
	}
	return ids
}

func (a *assigner) scanSameTime(m model.Match, league model.League, facilities []int64, ledger *Ledger, s *search) {
	lines := league.LinesPerMatch
	evals := make(map[int64]Evaluation)
	for pri, fid := range facilities {
		for _, slot := range a.plan.calendar.ViableSlots(fid, league.StartDate, league.EndDate) {
			if slot.Courts < lines {
				continue
			}
			s.possible++
			p := Placement{
				MatchID:    m.ID,
				FacilityID: fid,
				Date:       slot.Date,
				Groups:     []LineGroup{{Time: slot.Time, Lines: lines}},
				Mode:       model.LineModeSameTime,
			}
			if ledger.HasConflict(m, p) {
				s.rejected++
				continue
			}
			ev := a.evaluate(evals, m, slot)
			p.Quality, p.InRound = ev.Quality, ev.InRound
			s.offer(candidate{placement: p, priority: pri})
		}
	}
}

// scanSplit considers every ordered pair of distinct start times on one
// facility and date; the earlier time carries ceil(lines/2).
func (a *assigner) scanSplit(m model.Match, league model.League, facilities []int64, ledger *Ledger, s *search) {
	lines := league.LinesPerMatch
	first := (lines + 1) / 2
	second := lines - first
	evals := make(map[int64]Evaluation)

	for pri, fid := range facilities {
		slots := a.plan.calendar.ViableSlots(fid, league.StartDate, league.EndDate)
		for i := 0; i < len(slots); i++ {
			for j := i + 1; j < len(slots) && slots[j].Date.Equal(slots[i].Date); j++ {
				if slots[i].Courts < first || slots[j].Courts < second {
					continue
				}
				s.possible++
				p := Placement{
					MatchID:    m.ID,
					FacilityID: fid,
					Date:       slots[i].Date,
					Groups: []LineGroup{
						{Time: slots[i].Time, Lines: first},
						{Time: slots[j].Time, Lines: second},
					},
					Mode: model.LineModeSplitTimes,
				}
				if ledger.HasConflict(m, p) {
					s.rejected++
					continue
				}
				ev := a.evaluate(evals, m, slots[i])
				p.Quality, p.InRound = ev.Quality, ev.InRound
				s.offer(candidate{placement: p, priority: pri})
			}
		}
	}
}

// evaluate memoizes per-date scores within one match's scan.
func (a *assigner) evaluate(cache map[int64]Evaluation, m model.Match, slot Slot) Evaluation {
	k := slot.Date.Unix()
	if ev, ok := cache[k]; ok {
		return ev
	}
	ev := a.plan.scorer.Evaluate(m, slot.Date)
	cache[k] = ev
	return ev
}
