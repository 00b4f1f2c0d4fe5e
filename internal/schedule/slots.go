package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

// ErrCapacityExceeded is returned when consuming courts would take a slot's
// remaining court count below zero.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// Slot is a start time at a facility on a date, with the courts it opens.
type Slot struct {
	FacilityID int64
	Date       time.Time
	Time       string // "18:00"
	Courts     int
}

type slotKey struct {
	facility int64
	date     time.Time
	time     string
}

func (s Slot) key() slotKey {
	return slotKey{s.FacilityID, s.Date, s.Time}
}

type facilityDate struct {
	facility int64
	date     time.Time
}

// Calendar indexes every viable slot of a set of facilities over a date
// range. It is built once per run and never changes.
type Calendar struct {
	from, to time.Time
	slots    map[int64][]Slot
	byDate   map[facilityDate][]Slot
	courts   map[slotKey]int
}

// NewCalendar expands each facility's weekly schedule across [from, to],
// skipping blackout dates and weekdays without start times.
func NewCalendar(facilities []model.Facility, from, to time.Time) (*Calendar, error) {
	from, to = model.Day(from), model.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("calendar range ends %s before it starts %s",
			model.FormatDate(to), model.FormatDate(from))
	}

	c := &Calendar{
		from:   from,
		to:     to,
		slots:  make(map[int64][]Slot),
		byDate: make(map[facilityDate][]Slot),
		courts: make(map[slotKey]int),
	}

	for _, f := range facilities {
		week, err := normalizeWeek(f)
		if err != nil {
			return nil, err
		}

		blackouts := make(map[time.Time]bool, len(f.Blackouts))
		for _, b := range f.Blackouts {
			blackouts[model.Day(b)] = true
		}

		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if blackouts[d] {
				continue
			}
			for _, st := range week[d.Weekday()] {
				if st.Courts == 0 {
					continue
				}
				s := Slot{FacilityID: f.ID, Date: d, Time: st.Time, Courts: st.Courts}
				c.slots[f.ID] = append(c.slots[f.ID], s)
				fd := facilityDate{f.ID, d}
				c.byDate[fd] = append(c.byDate[fd], s)
				c.courts[s.key()] = s.Courts
			}
		}
	}

	return c, nil
}

// normalizeWeek validates a facility's weekly schedule, zero-pads times and
// merges duplicate start times on the same weekday.
func normalizeWeek(f model.Facility) (map[time.Weekday][]model.StartTime, error) {
	week := make(map[time.Weekday][]model.StartTime, len(f.Schedule))
	for day, entries := range f.Schedule {
		merged := make(map[string]int)
		for _, st := range entries {
			if st.Courts < 0 {
				return nil, fmt.Errorf("facility %q: %s %s has negative court count %d",
					f.Name, day, st.Time, st.Courts)
			}
			t, err := model.NormalizeClock(st.Time)
			if err != nil {
				return nil, fmt.Errorf("facility %q: %w", f.Name, err)
			}
			merged[t] += st.Courts
		}
		list := make([]model.StartTime, 0, len(merged))
		for t, n := range merged {
			list = append(list, model.StartTime{Time: t, Courts: n})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Time < list[j].Time })
		week[day] = list
	}
	return week, nil
}

// ViableSlots returns the facility's slots whose date falls in [from, to],
// ordered by date then time.
func (c *Calendar) ViableSlots(facilityID int64, from, to time.Time) []Slot {
	from, to = model.Day(from), model.Day(to)
	all := c.slots[facilityID]
	start := sort.Search(len(all), func(i int) bool { return !all[i].Date.Before(from) })
	var out []Slot
	for _, s := range all[start:] {
		if s.Date.After(to) {
			break
		}
		out = append(out, s)
	}
	return out
}

// SlotsOn returns the facility's slots on one date, ordered by time.
func (c *Calendar) SlotsOn(facilityID int64, date time.Time) []Slot {
	return c.byDate[facilityDate{facilityID, model.Day(date)}]
}

// Courts returns the facility's court count at a date and time, or 0 when no
// slot exists there.
func (c *Calendar) Courts(facilityID int64, date time.Time, clock string) int {
	return c.courts[slotKey{facilityID, model.Day(date), clock}]
}

// Availability is a pass-scoped view of remaining courts. Consuming courts
// never touches the Calendar or the Facility records behind it.
type Availability struct {
	cal  *Calendar
	used map[slotKey]int
}

// Availability returns a fresh working view with every court free.
func (c *Calendar) Availability() *Availability {
	return &Availability{cal: c, used: make(map[slotKey]int)}
}

// Remaining returns the courts still free at a facility, date and time.
func (a *Availability) Remaining(facilityID int64, date time.Time, clock string) int {
	k := slotKey{facilityID, model.Day(date), clock}
	free := a.cal.courts[k] - a.used[k]
	if free < 0 {
		return 0
	}
	return free
}

// Consume takes courts from a slot for a tentative assignment.
func (a *Availability) Consume(facilityID int64, date time.Time, clock string, courts int) error {
	if courts < 0 {
		return fmt.Errorf("consume %d courts: count must not be negative", courts)
	}
	if free := a.Remaining(facilityID, date, clock); courts > free {
		return fmt.Errorf("%w: facility %d on %s at %s has %d courts free, need %d",
			ErrCapacityExceeded, facilityID, model.FormatDate(date), clock, free, courts)
	}
	a.used[slotKey{facilityID, model.Day(date), clock}] += courts
	return nil
}

// occupy records courts already committed in storage. Unlike Consume it
// accepts overbooked data so that existing bookings always block.
func (a *Availability) occupy(facilityID int64, date time.Time, clock string, courts int) {
	a.used[slotKey{facilityID, model.Day(date), clock}] += courts
}

// Clone returns an independent copy of the working view.
func (a *Availability) Clone() *Availability {
	used := make(map[slotKey]int, len(a.used))
	for k, v := range a.used {
		used[k] = v
	}
	return &Availability{cal: a.cal, used: used}
}
