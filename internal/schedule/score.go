package schedule

import (
	"time"

	"github.com/derekprior/tleague/internal/model"
)

// Quality is the discrete preference score of a placement. The values and
// their labels are a stable legend shown to users.
type Quality int

const (
	QualityPoor       Quality = 20
	QualityAcceptable Quality = 40
	QualityFair       Quality = 60
	QualityGood       Quality = 80
	QualityOptimal    Quality = 100
)

// Legend lists the quality bands from best to worst.
var Legend = []Quality{QualityOptimal, QualityGood, QualityFair, QualityAcceptable, QualityPoor}

func (q Quality) String() string {
	switch q {
	case QualityOptimal:
		return "Optimal"
	case QualityGood:
		return "Good"
	case QualityFair:
		return "Fair"
	case QualityAcceptable:
		return "Acceptable"
	case QualityPoor:
		return "Poor"
	default:
		return "Unknown"
	}
}

// Describe explains what earns the band.
func (q Quality) Describe() string {
	switch q {
	case QualityOptimal:
		return "team preferred day within the round window"
	case QualityGood:
		return "team backup day within the round window"
	case QualityFair:
		return "league preferred day"
	case QualityAcceptable:
		return "league backup day"
	case QualityPoor:
		return "no preference matched"
	default:
		return ""
	}
}

// Evaluation is the score of a date for a match plus whether the date lies
// inside the match's round window.
type Evaluation struct {
	Quality Quality
	InRound bool
}

// Scorer rates candidate dates against team and league day preferences and
// the round window of each match.
type Scorer struct {
	leagues map[int64]model.League
	teams   map[int64]model.Team
	rounds  map[int64]int
}

// NewScorer builds a scorer. rounds maps league ID to the number of round
// windows the league's season is divided into.
func NewScorer(leagues map[int64]model.League, teams map[int64]model.Team, rounds map[int64]int) *Scorer {
	return &Scorer{leagues: leagues, teams: teams, rounds: rounds}
}

// Score rates placing m at a facility, date and time. Only the date's
// weekday and round position influence the band.
func (s *Scorer) Score(m model.Match, facilityID int64, date time.Time, clock string) Quality {
	return s.Evaluate(m, date).Quality
}

// Evaluate applies the quality ladder to one date.
func (s *Scorer) Evaluate(m model.Match, date time.Time) Evaluation {
	date = model.Day(date)
	day := date.Weekday()
	league := s.leagues[m.LeagueID]
	home, visitor := s.teams[m.HomeTeamID], s.teams[m.VisitorTeamID]

	from, to := s.RoundWindow(m)
	inRound := !date.Before(from) && !date.After(to)

	teamPreferred := model.ContainsWeekday(home.PreferredDays, day) ||
		model.ContainsWeekday(visitor.PreferredDays, day)
	teamBackup := model.ContainsWeekday(home.BackupDays, day) ||
		model.ContainsWeekday(visitor.BackupDays, day)

	var q Quality
	switch {
	case teamPreferred && inRound:
		q = QualityOptimal
	case teamBackup && inRound:
		q = QualityGood
	case model.ContainsWeekday(league.PreferredDays, day):
		q = QualityFair
	case model.ContainsWeekday(league.BackupDays, day):
		q = QualityAcceptable
	default:
		q = QualityPoor
	}
	return Evaluation{Quality: q, InRound: inRound}
}

// RoundWindow returns the inclusive date window the league's season allots
// to the match's round.
func (s *Scorer) RoundWindow(m model.Match) (time.Time, time.Time) {
	league := s.leagues[m.LeagueID]
	return roundWindow(league.StartDate, league.EndDate, s.rounds[m.LeagueID], m.Round)
}

// roundWindow splits [start, end] into n equal-width windows and returns the
// one for round (1-based, clamped to the valid range).
func roundWindow(start, end time.Time, n, round int) (time.Time, time.Time) {
	start, end = model.Day(start), model.Day(end)
	if n < 1 {
		n = 1
	}
	switch {
	case round < 1:
		round = 1
	case round > n:
		round = n
	}

	days := int(end.Sub(start).Hours()/24) + 1
	first := (round - 1) * days / n
	last := round*days/n - 1
	if last < first {
		last = first
	}
	return start.AddDate(0, 0, first), start.AddDate(0, 0, last)
}

// LeagueRounds derives each league's round count: the configured matches per
// team, or else the highest round among the given matches.
func LeagueRounds(leagues map[int64]model.League, matches ...[]model.Match) map[int64]int {
	rounds := make(map[int64]int, len(leagues))
	for id, l := range leagues {
		if l.MatchesPerTeam > 0 {
			rounds[id] = l.MatchesPerTeam
		}
	}
	for _, list := range matches {
		for _, m := range list {
			if leagues[m.LeagueID].MatchesPerTeam > 0 {
				continue
			}
			if m.Round > rounds[m.LeagueID] {
				rounds[m.LeagueID] = m.Round
			}
		}
	}
	for id := range leagues {
		if rounds[id] < 1 {
			rounds[id] = 1
		}
	}
	return rounds
}
