package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

// SaveFacility inserts f, or replaces the hours and blackouts of the
// facility with the same name. It returns the facility's ID.
func (s *Store) SaveFacility(ctx context.Context, f model.Facility) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *Store) error {
		err := tx.q.QueryRowContext(ctx, `SELECT id FROM facilities WHERE name = ?`, f.Name).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, err := tx.q.ExecContext(ctx, `INSERT INTO facilities (name) VALUES (?)`, f.Name)
			if err != nil {
				return fmt.Errorf("inserting facility %q: %w", f.Name, err)
			}
			if id, err = res.LastInsertId(); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("looking up facility %q: %w", f.Name, err)
		default:
			for _, table := range []string{"facility_hours", "facility_blackouts"} {
				if _, err := tx.q.ExecContext(ctx, `DELETE FROM `+table+` WHERE facility_id = ?`, id); err != nil {
					return fmt.Errorf("clearing %s of facility %q: %w", table, f.Name, err)
				}
			}
		}

		for day, times := range f.Schedule {
			for _, st := range times {
				clock, err := model.NormalizeClock(st.Time)
				if err != nil {
					return fmt.Errorf("facility %q: %w", f.Name, err)
				}
				if _, err := tx.q.ExecContext(ctx,
					`INSERT INTO facility_hours (facility_id, weekday, start_time, courts) VALUES (?, ?, ?, ?)
					 ON CONFLICT (facility_id, weekday, start_time) DO UPDATE SET courts = courts + excluded.courts`,
					id, int(day), clock, st.Courts); err != nil {
					return fmt.Errorf("saving hours of facility %q: %w", f.Name, err)
				}
			}
		}
		for _, d := range f.Blackouts {
			if _, err := tx.q.ExecContext(ctx,
				`INSERT OR IGNORE INTO facility_blackouts (facility_id, date) VALUES (?, ?)`,
				id, model.FormatDate(d)); err != nil {
				return fmt.Errorf("saving blackout of facility %q: %w", f.Name, err)
			}
		}
		return nil
	})
	return id, err
}

// Facility loads one facility with its weekly hours and blackouts.
func (s *Store) Facility(ctx context.Context, id int64) (model.Facility, error) {
	f := model.Facility{ID: id}
	err := s.q.QueryRowContext(ctx, `SELECT name FROM facilities WHERE id = ?`, id).Scan(&f.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Facility{}, fmt.Errorf("facility %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Facility{}, fmt.Errorf("loading facility %d: %w", id, err)
	}
	if err := s.loadFacilityDetails(ctx, &f); err != nil {
		return model.Facility{}, err
	}
	return f, nil
}

// Facilities loads every facility ordered by ID.
func (s *Store) Facilities(ctx context.Context) ([]model.Facility, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, name FROM facilities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing facilities: %w", err)
	}
	var facilities []model.Facility
	for rows.Next() {
		var f model.Facility
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			rows.Close()
			return nil, err
		}
		facilities = append(facilities, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range facilities {
		if err := s.loadFacilityDetails(ctx, &facilities[i]); err != nil {
			return nil, err
		}
	}
	return facilities, nil
}

func (s *Store) loadFacilityDetails(ctx context.Context, f *model.Facility) error {
	rows, err := s.q.QueryContext(ctx,
		`SELECT weekday, start_time, courts FROM facility_hours WHERE facility_id = ? ORDER BY weekday, start_time`, f.ID)
	if err != nil {
		return fmt.Errorf("loading hours of facility %d: %w", f.ID, err)
	}
	f.Schedule = make(map[time.Weekday][]model.StartTime)
	for rows.Next() {
		var day int
		var st model.StartTime
		if err := rows.Scan(&day, &st.Time, &st.Courts); err != nil {
			rows.Close()
			return err
		}
		f.Schedule[time.Weekday(day)] = append(f.Schedule[time.Weekday(day)], st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	dates, err := s.queryDates(ctx,
		`SELECT date FROM facility_blackouts WHERE facility_id = ? ORDER BY date`, f.ID)
	if err != nil {
		return fmt.Errorf("loading blackouts of facility %d: %w", f.ID, err)
	}
	f.Blackouts = dates
	return nil
}

func (s *Store) queryDates(ctx context.Context, query string, args ...any) ([]time.Time, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// courtsAt returns the courts a facility offers at a date and time, or 0 when
// it is closed then.
func (s *Store) courtsAt(ctx context.Context, facilityID int64, date time.Time, clock string) (int, error) {
	var blacked int
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM facility_blackouts WHERE facility_id = ? AND date = ?`,
		facilityID, model.FormatDate(date)).Scan(&blacked); err != nil {
		return 0, err
	}
	if blacked > 0 {
		return 0, nil
	}

	var courts int
	err := s.q.QueryRowContext(ctx,
		`SELECT courts FROM facility_hours WHERE facility_id = ? AND weekday = ? AND start_time = ?`,
		facilityID, int(date.Weekday()), clock).Scan(&courts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return courts, err
}
