package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/derekprior/tleague/internal/model"
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := model.ParseDate(value.Value)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return model.FormatDate(d.Time), nil
}

// Closure takes a facility out of service for a single date (date:) or an
// inclusive range (start_date:/end_date:).
type Closure struct {
	Date      *Date  `yaml:"date,omitempty"`
	StartDate *Date  `yaml:"start_date,omitempty"`
	EndDate   *Date  `yaml:"end_date,omitempty"`
	Reason    string `yaml:"reason,omitempty"`
}

// Dates returns all dates covered by this closure.
func (c *Closure) Dates() []time.Time {
	if c.StartDate != nil && c.EndDate != nil {
		var dates []time.Time
		d := c.StartDate.Time
		for !d.After(c.EndDate.Time) {
			dates = append(dates, d)
			d = d.AddDate(0, 0, 1)
		}
		return dates
	}
	if c.Date != nil {
		return []time.Time{c.Date.Time}
	}
	return nil
}

type StartTime struct {
	Time   string `yaml:"time" validate:"required"`
	Courts int    `yaml:"courts" validate:"gte=0"`
}

type Facility struct {
	Name     string                 `yaml:"name" validate:"required"`
	Schedule map[string][]StartTime `yaml:"schedule" validate:"dive,dive"`
	Closures []Closure              `yaml:"closures,omitempty"`
}

type Team struct {
	Name          string   `yaml:"name" validate:"required"`
	Facilities    []string `yaml:"facilities"`
	PreferredDays []string `yaml:"preferred_days,omitempty"`
	BackupDays    []string `yaml:"backup_days,omitempty"`
}

type Match struct {
	Home    string `yaml:"home" validate:"required"`
	Visitor string `yaml:"visitor" validate:"required,nefield=Home"`
	Round   int    `yaml:"round" validate:"gte=0"`
}

type League struct {
	Name            string   `yaml:"name" validate:"required"`
	StartDate       Date     `yaml:"start_date"`
	EndDate         Date     `yaml:"end_date"`
	PreferredDays   []string `yaml:"preferred_days"`
	BackupDays      []string `yaml:"backup_days,omitempty"`
	LinesPerMatch   int      `yaml:"lines_per_match" validate:"gte=1"`
	AllowSplitLines bool     `yaml:"allow_split_lines"`
	MatchesPerTeam  int      `yaml:"matches_per_team" validate:"gte=0"`
	Strategy        string   `yaml:"strategy,omitempty"`
	Teams           []Team   `yaml:"teams" validate:"required,min=2,dive"`
	Matches         []Match  `yaml:"matches,omitempty" validate:"dive"`
}

// Config is a league file: the facilities of a club and the leagues that
// play at them.
type Config struct {
	Facilities []Facility `yaml:"facilities" validate:"required,dive"`
	Leagues    []League   `yaml:"leagues" validate:"required,dive"`
}

// AllTeams returns all team names across all leagues.
func (c *Config) AllTeams() []string {
	var teams []string
	for _, l := range c.Leagues {
		for _, t := range l.Teams {
			teams = append(teams, t.Name)
		}
	}
	return teams
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing league file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML league file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading league file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid league file: %w", err)
	}

	facilities := make(map[string]bool)
	for _, f := range c.Facilities {
		if facilities[f.Name] {
			return fmt.Errorf("facility %q is listed twice", f.Name)
		}
		facilities[f.Name] = true
		if _, err := f.Model(0); err != nil {
			return err
		}
		for _, cl := range f.Closures {
			hasDate := cl.Date != nil
			hasRange := cl.StartDate != nil || cl.EndDate != nil
			if !hasDate && !hasRange {
				return fmt.Errorf("facility %q: closure must have either 'date' or 'start_date'/'end_date'", f.Name)
			}
			if hasDate && hasRange {
				return fmt.Errorf("facility %q: closure cannot have both 'date' and 'start_date'/'end_date'", f.Name)
			}
			if hasRange && (cl.StartDate == nil || cl.EndDate == nil) {
				return fmt.Errorf("facility %q: closure with date range must have both 'start_date' and 'end_date'", f.Name)
			}
			if hasRange && cl.EndDate.Time.Before(cl.StartDate.Time) {
				return fmt.Errorf("facility %q: closure end_date must be on or after start_date", f.Name)
			}
		}
	}

	leagues := make(map[string]bool)
	for _, l := range c.Leagues {
		if leagues[l.Name] {
			return fmt.Errorf("league %q is listed twice", l.Name)
		}
		leagues[l.Name] = true
		if _, err := l.Model(0); err != nil {
			return err
		}

		teams := make(map[string]bool)
		for _, t := range l.Teams {
			if teams[t.Name] {
				return fmt.Errorf("league %q: team %q is listed twice", l.Name, t.Name)
			}
			teams[t.Name] = true
			for _, fname := range t.Facilities {
				if !facilities[fname] {
					return fmt.Errorf("league %q: team %q uses unknown facility %q", l.Name, t.Name, fname)
				}
			}
			if _, err := model.ParseWeekdays(t.PreferredDays); err != nil {
				return fmt.Errorf("league %q: team %q: %w", l.Name, t.Name, err)
			}
			if _, err := model.ParseWeekdays(t.BackupDays); err != nil {
				return fmt.Errorf("league %q: team %q: %w", l.Name, t.Name, err)
			}
		}
		for i, m := range l.Matches {
			if !teams[m.Home] || !teams[m.Visitor] {
				return fmt.Errorf("league %q: match %d references a team outside the league", l.Name, i+1)
			}
		}
	}

	return nil
}

// Model converts the facility to its scheduling form.
func (f Facility) Model(id int64) (model.Facility, error) {
	out := model.Facility{
		ID:       id,
		Name:     f.Name,
		Schedule: make(map[time.Weekday][]model.StartTime, len(f.Schedule)),
	}
	for name, times := range f.Schedule {
		day, err := model.ParseWeekday(name)
		if err != nil {
			return model.Facility{}, fmt.Errorf("facility %q: %w", f.Name, err)
		}
		for _, st := range times {
			clock, err := model.NormalizeClock(st.Time)
			if err != nil {
				return model.Facility{}, fmt.Errorf("facility %q: %w", f.Name, err)
			}
			out.Schedule[day] = append(out.Schedule[day], model.StartTime{Time: clock, Courts: st.Courts})
		}
	}
	for _, cl := range f.Closures {
		out.Blackouts = append(out.Blackouts, cl.Dates()...)
	}
	sort.Slice(out.Blackouts, func(i, j int) bool { return out.Blackouts[i].Before(out.Blackouts[j]) })
	return out, nil
}

// Model converts the league to its scheduling form.
func (l League) Model(id int64) (model.League, error) {
	preferred, err := model.ParseWeekdays(l.PreferredDays)
	if err != nil {
		return model.League{}, fmt.Errorf("league %q: %w", l.Name, err)
	}
	backup, err := model.ParseWeekdays(l.BackupDays)
	if err != nil {
		return model.League{}, fmt.Errorf("league %q: %w", l.Name, err)
	}
	out := model.League{
		ID:              id,
		Name:            l.Name,
		StartDate:       l.StartDate.Time,
		EndDate:         l.EndDate.Time,
		PreferredDays:   preferred,
		BackupDays:      backup,
		LinesPerMatch:   l.LinesPerMatch,
		AllowSplitLines: l.AllowSplitLines,
		MatchesPerTeam:  l.MatchesPerTeam,
	}
	if err := out.Validate(); err != nil {
		return model.League{}, fmt.Errorf("league %q: %w", l.Name, err)
	}
	return out, nil
}

// Model converts the team to its scheduling form. facilityIDs maps facility
// names to their stored IDs.
func (t Team) Model(id, leagueID int64, facilityIDs map[string]int64) (model.Team, error) {
	preferred, err := model.ParseWeekdays(t.PreferredDays)
	if err != nil {
		return model.Team{}, fmt.Errorf("team %q: %w", t.Name, err)
	}
	backup, err := model.ParseWeekdays(t.BackupDays)
	if err != nil {
		return model.Team{}, fmt.Errorf("team %q: %w", t.Name, err)
	}
	out := model.Team{
		ID:            id,
		Name:          t.Name,
		LeagueID:      leagueID,
		PreferredDays: preferred,
		BackupDays:    backup,
	}
	for _, name := range t.Facilities {
		fid, ok := facilityIDs[name]
		if !ok {
			return model.Team{}, fmt.Errorf("team %q: unknown facility %q", t.Name, name)
		}
		out.FacilityIDs = append(out.FacilityIDs, fid)
	}
	return out, nil
}

// DefaultLeagueFile is written by `tleague init`.
const DefaultLeagueFile = `facilities:
  - name: Riverside Tennis Center
    schedule:
      tuesday:
        - time: "18:00"
          courts: 6
        - time: "19:30"
          courts: 6
      thursday:
        - time: "18:00"
          courts: 6
      saturday:
        - time: "09:00"
          courts: 8
    closures:
      - date: "2026-05-25"
        reason: Memorial Day
  - name: Oak Park Courts
    schedule:
      tuesday:
        - time: "18:30"
          courts: 4
      saturday:
        - time: "10:00"
          courts: 4

leagues:
  - name: Spring 3.5
    start_date: "2026-04-07"
    end_date: "2026-06-15"
    preferred_days: [tuesday, saturday]
    backup_days: [thursday]
    lines_per_match: 3
    allow_split_lines: true
    strategy: round_robin
    teams:
      - name: Aces
        facilities: [Riverside Tennis Center]
        preferred_days: [saturday]
      - name: Baseliners
        facilities: [Oak Park Courts, Riverside Tennis Center]
      - name: Drop Shots
        facilities: [Riverside Tennis Center]
      - name: Net Rushers
        facilities: [Oak Park Courts]
`

