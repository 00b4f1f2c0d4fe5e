package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

func encodeWeekdays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = strings.ToLower(d.String())
	}
	return strings.Join(names, ",")
}

func decodeWeekdays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	return model.ParseWeekdays(strings.Split(s, ","))
}

// CreateLeague inserts a league and returns its ID. A league with the same
// name is an ErrExists error.
func (s *Store) CreateLeague(ctx context.Context, l model.League) (int64, error) {
	var existing int64
	err := s.q.QueryRowContext(ctx, `SELECT id FROM leagues WHERE name = ?`, l.Name).Scan(&existing)
	if err == nil {
		return 0, fmt.Errorf("league %q: %w", l.Name, ErrExists)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up league %q: %w", l.Name, err)
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO leagues (name, start_date, end_date, preferred_days, backup_days,
		                      lines_per_match, allow_split_lines, matches_per_team)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Name, model.FormatDate(l.StartDate), model.FormatDate(l.EndDate),
		encodeWeekdays(l.PreferredDays), encodeWeekdays(l.BackupDays),
		l.LinesPerMatch, l.AllowSplitLines, l.MatchesPerTeam)
	if err != nil {
		return 0, fmt.Errorf("inserting league %q: %w", l.Name, err)
	}
	return res.LastInsertId()
}

const leagueColumns = `id, name, start_date, end_date, preferred_days, backup_days,
	lines_per_match, allow_split_lines, matches_per_team`

type scanner interface {
	Scan(dest ...any) error
}

func scanLeague(row scanner) (model.League, error) {
	var l model.League
	var start, end, preferred, backup string
	if err := row.Scan(&l.ID, &l.Name, &start, &end, &preferred, &backup,
		&l.LinesPerMatch, &l.AllowSplitLines, &l.MatchesPerTeam); err != nil {
		return model.League{}, err
	}
	var err error
	if l.StartDate, err = model.ParseDate(start); err != nil {
		return model.League{}, err
	}
	if l.EndDate, err = model.ParseDate(end); err != nil {
		return model.League{}, err
	}
	if l.PreferredDays, err = decodeWeekdays(preferred); err != nil {
		return model.League{}, err
	}
	if l.BackupDays, err = decodeWeekdays(backup); err != nil {
		return model.League{}, err
	}
	return l, nil
}

// League loads one league.
func (s *Store) League(ctx context.Context, id int64) (model.League, error) {
	l, err := scanLeague(s.q.QueryRowContext(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.League{}, fmt.Errorf("league %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.League{}, fmt.Errorf("loading league %d: %w", id, err)
	}
	return l, nil
}

// LeagueRounds returns the highest round number among all of a league's
// matches, or 0 when it has none.
func (s *Store) LeagueRounds(ctx context.Context, leagueID int64) (int, error) {
	var rounds int
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(round), 0) FROM matches WHERE league_id = ?`, leagueID).Scan(&rounds)
	if err != nil {
		return 0, fmt.Errorf("counting rounds of league %d: %w", leagueID, err)
	}
	return rounds, nil
}

// LeagueByName loads a league by its unique name.
func (s *Store) LeagueByName(ctx context.Context, name string) (model.League, error) {
	l, err := scanLeague(s.q.QueryRowContext(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return model.League{}, fmt.Errorf("league %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return model.League{}, fmt.Errorf("loading league %q: %w", name, err)
	}
	return l, nil
}

// Leagues loads every league ordered by ID.
func (s *Store) Leagues(ctx context.Context) ([]model.League, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+leagueColumns+` FROM leagues ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing leagues: %w", err)
	}
	defer rows.Close()

	var leagues []model.League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, l)
	}
	return leagues, rows.Err()
}

// CreateTeam inserts a team with its facilities in priority order.
func (s *Store) CreateTeam(ctx context.Context, t model.Team) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *Store) error {
		res, err := tx.q.ExecContext(ctx,
			`INSERT INTO teams (league_id, name, preferred_days, backup_days) VALUES (?, ?, ?, ?)`,
			t.LeagueID, t.Name, encodeWeekdays(t.PreferredDays), encodeWeekdays(t.BackupDays))
		if err != nil {
			return fmt.Errorf("inserting team %q: %w", t.Name, err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		for i, fid := range t.FacilityIDs {
			if _, err := tx.q.ExecContext(ctx,
				`INSERT INTO team_facilities (team_id, facility_id, priority) VALUES (?, ?, ?)`,
				id, fid, i); err != nil {
				return fmt.Errorf("linking team %q to facility %d: %w", t.Name, fid, err)
			}
		}
		return nil
	})
	return id, err
}

// Team loads one team.
func (s *Store) Team(ctx context.Context, id int64) (model.Team, error) {
	teams, err := s.queryTeams(ctx, `WHERE id = ?`, id)
	if err != nil {
		return model.Team{}, err
	}
	if len(teams) == 0 {
		return model.Team{}, fmt.Errorf("team %d: %w", id, ErrNotFound)
	}
	return teams[0], nil
}

// Teams loads the teams of a league, or every team when leagueID is 0.
func (s *Store) Teams(ctx context.Context, leagueID int64) ([]model.Team, error) {
	if leagueID == 0 {
		return s.queryTeams(ctx, ``)
	}
	return s.queryTeams(ctx, `WHERE league_id = ?`, leagueID)
}

func (s *Store) queryTeams(ctx context.Context, where string, args ...any) ([]model.Team, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, league_id, name, preferred_days, backup_days FROM teams `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	var teams []model.Team
	for rows.Next() {
		var t model.Team
		var preferred, backup string
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.Name, &preferred, &backup); err != nil {
			rows.Close()
			return nil, err
		}
		if t.PreferredDays, err = decodeWeekdays(preferred); err != nil {
			rows.Close()
			return nil, err
		}
		if t.BackupDays, err = decodeWeekdays(backup); err != nil {
			rows.Close()
			return nil, err
		}
		teams = append(teams, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range teams {
		ids, err := s.teamFacilities(ctx, teams[i].ID)
		if err != nil {
			return nil, err
		}
		teams[i].FacilityIDs = ids
	}
	return teams, nil
}

func (s *Store) teamFacilities(ctx context.Context, teamID int64) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT facility_id FROM team_facilities WHERE team_id = ? ORDER BY priority`, teamID)
	if err != nil {
		return nil, fmt.Errorf("loading facilities of team %d: %w", teamID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
