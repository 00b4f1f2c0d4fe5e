package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/derekprior/tleague/internal/model"
)

// CreateMatch inserts a match without bookings and returns its ID.
func (s *Store) CreateMatch(ctx context.Context, m model.Match) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO matches (league_id, home_team_id, visitor_team_id, round) VALUES (?, ?, ?, ?)`,
		m.LeagueID, m.HomeTeamID, m.VisitorTeamID, m.Round)
	if err != nil {
		return 0, fmt.Errorf("inserting match: %w", err)
	}
	return res.LastInsertId()
}

// Match loads one match with its bookings.
func (s *Store) Match(ctx context.Context, id int64) (model.Match, error) {
	matches, err := s.Matches(ctx, model.Scope{MatchIDs: []int64{id}})
	if err != nil {
		return model.Match{}, err
	}
	if len(matches) == 0 {
		return model.Match{}, fmt.Errorf("match %d: %w", id, ErrNotFound)
	}
	return matches[0], nil
}

// Matches loads the matches in scope with their bookings, ordered by league,
// round and ID.
func (s *Store) Matches(ctx context.Context, scope model.Scope) ([]model.Match, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, league_id, home_team_id, visitor_team_id, round FROM matches ORDER BY league_id, round, id`)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	var matches []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.LeagueID, &m.HomeTeamID, &m.VisitorTeamID, &m.Round); err != nil {
			rows.Close()
			return nil, err
		}
		if scope.Includes(m) {
			matches = append(matches, m)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	bookings, err := s.bookingsByMatch(ctx)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].Bookings = bookings[matches[i].ID]
	}
	return matches, nil
}

// UnscheduledMatches loads the matches in scope that are not fully
// scheduled. Partially scheduled matches keep their bookings.
func (s *Store) UnscheduledMatches(ctx context.Context, scope model.Scope) ([]model.Match, error) {
	return s.matchesByState(ctx, scope, func(st model.State) bool { return st != model.FullyScheduled })
}

// ScheduledMatches loads every match that holds at least one booking.
func (s *Store) ScheduledMatches(ctx context.Context) ([]model.Match, error) {
	return s.matchesByState(ctx, model.Scope{}, func(st model.State) bool { return st != model.Unscheduled })
}

func (s *Store) matchesByState(ctx context.Context, scope model.Scope, keep func(model.State) bool) ([]model.Match, error) {
	leagues, err := s.Leagues(ctx)
	if err != nil {
		return nil, err
	}
	lines := make(map[int64]int, len(leagues))
	for _, l := range leagues {
		lines[l.ID] = l.LinesPerMatch
	}

	all, err := s.Matches(ctx, scope)
	if err != nil {
		return nil, err
	}
	var out []model.Match
	for _, m := range all {
		if keep(m.State(lines[m.LeagueID])) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) bookingsByMatch(ctx context.Context) (map[int64][]model.Booking, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT match_id, facility_id, date, start_time, lines FROM bookings ORDER BY match_id, date, start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]model.Booking)
	for rows.Next() {
		var b model.Booking
		var date string
		if err := rows.Scan(&b.MatchID, &b.FacilityID, &date, &b.Time, &b.Lines); err != nil {
			return nil, err
		}
		if b.Date, err = model.ParseDate(date); err != nil {
			return nil, err
		}
		out[b.MatchID] = append(out[b.MatchID], b)
	}
	return out, rows.Err()
}

type slotKey struct {
	facilityID int64
	date       string
	time       string
}

// CommitAssignment replaces a match's bookings. The whole assignment is
// refused with ErrSlotFull if any slot would exceed its courts, or is closed.
func (s *Store) CommitAssignment(ctx context.Context, matchID int64, bookings []model.Booking) error {
	return s.inTx(ctx, func(tx *Store) error {
		if err := tx.matchExists(ctx, matchID); err != nil {
			return err
		}
		if _, err := tx.q.ExecContext(ctx, `DELETE FROM bookings WHERE match_id = ?`, matchID); err != nil {
			return fmt.Errorf("clearing bookings of match %d: %w", matchID, err)
		}

		need := make(map[slotKey]int)
		var keys []slotKey
		for _, b := range bookings {
			clock, err := model.NormalizeClock(b.Time)
			if err != nil {
				return fmt.Errorf("match %d: %w", matchID, err)
			}
			k := slotKey{b.FacilityID, model.FormatDate(b.Date), clock}
			if _, ok := need[k]; !ok {
				keys = append(keys, k)
			}
			need[k] += b.Lines
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].date != keys[j].date {
				return keys[i].date < keys[j].date
			}
			return keys[i].time < keys[j].time
		})

		for _, k := range keys {
			date, err := model.ParseDate(k.date)
			if err != nil {
				return err
			}
			courts, err := tx.courtsAt(ctx, k.facilityID, date, k.time)
			if err != nil {
				return fmt.Errorf("checking courts for match %d: %w", matchID, err)
			}
			var used int
			if err := tx.q.QueryRowContext(ctx,
				`SELECT COALESCE(SUM(lines), 0) FROM bookings WHERE facility_id = ? AND date = ? AND start_time = ?`,
				k.facilityID, k.date, k.time).Scan(&used); err != nil {
				return fmt.Errorf("checking courts for match %d: %w", matchID, err)
			}
			if used+need[k] > courts {
				return fmt.Errorf("match %d at facility %d on %s %s needs %d of %d free courts: %w",
					matchID, k.facilityID, k.date, k.time, need[k], max(courts-used, 0), ErrSlotFull)
			}
			if _, err := tx.q.ExecContext(ctx,
				`INSERT INTO bookings (match_id, facility_id, date, start_time, lines) VALUES (?, ?, ?, ?, ?)`,
				matchID, k.facilityID, k.date, k.time, need[k]); err != nil {
				return fmt.Errorf("booking match %d: %w", matchID, err)
			}
		}
		return nil
	})
}

// ClearAssignment removes every booking of a match.
func (s *Store) ClearAssignment(ctx context.Context, matchID int64) error {
	if err := s.matchExists(ctx, matchID); err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM bookings WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("clearing bookings of match %d: %w", matchID, err)
	}
	return nil
}

func (s *Store) matchExists(ctx context.Context, matchID int64) error {
	var id int64
	err := s.q.QueryRowContext(ctx, `SELECT id FROM matches WHERE id = ?`, matchID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading match %d: %w", matchID, err)
	}
	return nil
}
