package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

func TestNewCalendar(t *testing.T) {
	f := model.Facility{
		ID:   1,
		Name: "Riverside",
		Schedule: map[time.Weekday][]model.StartTime{
			time.Tuesday:  {{Time: "19:30", Courts: 4}, {Time: "18:00", Courts: 6}},
			time.Saturday: {{Time: "9:00", Courts: 8}},
			time.Sunday:   {},
			time.Monday:   {{Time: "18:00", Courts: 0}},
		},
		Blackouts: []time.Time{day(2026, 5, 12)},
	}
	cal, err := NewCalendar([]model.Facility{f}, day(2026, 5, 1), day(2026, 5, 31))
	if err != nil {
		t.Fatalf("NewCalendar() error: %v", err)
	}
	slots := cal.ViableSlots(1, day(2026, 5, 1), day(2026, 5, 31))

	t.Run("no slots on blackout dates", func(t *testing.T) {
		for _, s := range slots {
			if s.Date.Equal(day(2026, 5, 12)) {
				t.Errorf("found slot on blackout date %s at %s", model.FormatDate(s.Date), s.Time)
			}
		}
	})

	t.Run("only scheduled weekdays", func(t *testing.T) {
		for _, s := range slots {
			switch s.Date.Weekday() {
			case time.Tuesday, time.Saturday:
			default:
				t.Errorf("unexpected slot on %s %s", s.Date.Weekday(), model.FormatDate(s.Date))
			}
		}
	})

	t.Run("slot count", func(t *testing.T) {
		// May 2026: Tuesdays 5, 12, 19, 26 (12 blacked out) x 2 times,
		// Saturdays 2, 9, 16, 23, 30 x 1 time.
		if len(slots) != 3*2+5 {
			t.Errorf("slots = %d, want 11", len(slots))
		}
	})

	t.Run("sorted by date then time with padded times", func(t *testing.T) {
		for i := 1; i < len(slots); i++ {
			a, b := slots[i-1], slots[i]
			if b.Date.Before(a.Date) || (b.Date.Equal(a.Date) && b.Time <= a.Time) {
				t.Errorf("slots out of order: %s %s then %s %s",
					model.FormatDate(a.Date), a.Time, model.FormatDate(b.Date), b.Time)
			}
		}
		sat := cal.SlotsOn(1, day(2026, 5, 2))
		if len(sat) != 1 || sat[0].Time != "09:00" || sat[0].Courts != 8 {
			t.Errorf("Saturday slots = %+v, want one 09:00 slot with 8 courts", sat)
		}
	})

	t.Run("range filter", func(t *testing.T) {
		got := cal.ViableSlots(1, day(2026, 5, 19), day(2026, 5, 23))
		if len(got) != 3 {
			t.Errorf("slots in 05-19..05-23 = %d, want 3", len(got))
		}
		if cal.ViableSlots(99, day(2026, 5, 1), day(2026, 5, 31)) != nil {
			t.Error("unknown facility should have no slots")
		}
	})
}

func TestNewCalendarErrors(t *testing.T) {
	bad := model.Facility{ID: 1, Name: "Bad", Schedule: map[time.Weekday][]model.StartTime{
		time.Monday: {{Time: "18:00", Courts: -1}},
	}}
	if _, err := NewCalendar([]model.Facility{bad}, day(2026, 5, 1), day(2026, 5, 2)); err == nil {
		t.Error("expected error for negative court count")
	}

	badTime := model.Facility{ID: 1, Name: "Bad", Schedule: map[time.Weekday][]model.StartTime{
		time.Monday: {{Time: "6pm", Courts: 2}},
	}}
	if _, err := NewCalendar([]model.Facility{badTime}, day(2026, 5, 1), day(2026, 5, 2)); err == nil {
		t.Error("expected error for malformed time")
	}

	if _, err := NewCalendar(nil, day(2026, 5, 2), day(2026, 5, 1)); err == nil {
		t.Error("expected error for reversed range")
	}
}

func TestBlackoutsNeverViable(t *testing.T) {
	// Every date in a facility's blackout set is absent regardless of the
	// weekly schedule.
	everyDay := make(map[time.Weekday][]model.StartTime)
	for d := time.Sunday; d <= time.Saturday; d++ {
		everyDay[d] = []model.StartTime{{Time: "08:00", Courts: 2}, {Time: "18:00", Courts: 2}}
	}
	var blackouts []time.Time
	for d := day(2026, 3, 1); d.Before(day(2026, 9, 1)); d = d.AddDate(0, 0, 5) {
		blackouts = append(blackouts, d)
	}
	f := model.Facility{ID: 7, Name: "Busy", Schedule: everyDay, Blackouts: blackouts}

	cal, err := NewCalendar([]model.Facility{f}, day(2026, 3, 1), day(2026, 8, 31))
	if err != nil {
		t.Fatalf("NewCalendar() error: %v", err)
	}
	closed := make(map[time.Time]bool)
	for _, b := range blackouts {
		closed[b] = true
	}
	slots := cal.ViableSlots(7, day(2026, 3, 1), day(2026, 8, 31))
	for _, s := range slots {
		if closed[s.Date] {
			t.Fatalf("slot on blackout date %s", model.FormatDate(s.Date))
		}
	}
	totalDays := int(day(2026, 8, 31).Sub(day(2026, 3, 1)).Hours()/24) + 1
	if want := (totalDays - len(blackouts)) * 2; len(slots) != want {
		t.Errorf("slots = %d, want %d", len(slots), want)
	}
}

func TestAvailabilityConsume(t *testing.T) {
	cal, err := NewCalendar([]model.Facility{tueSatFacility(10, 5)}, day(2026, 4, 7), day(2026, 4, 14))
	if err != nil {
		t.Fatalf("NewCalendar() error: %v", err)
	}
	avail := cal.Availability()
	tue := day(2026, 4, 7)

	if err := avail.Consume(10, tue, "18:00", 3); err != nil {
		t.Fatalf("Consume(3) error: %v", err)
	}
	if got := avail.Remaining(10, tue, "18:00"); got != 2 {
		t.Errorf("Remaining = %d, want 2", got)
	}

	t.Run("exceeding capacity fails and changes nothing", func(t *testing.T) {
		err := avail.Consume(10, tue, "18:00", 3)
		if !errors.Is(err, ErrCapacityExceeded) {
			t.Fatalf("Consume(3) error = %v, want ErrCapacityExceeded", err)
		}
		if got := avail.Remaining(10, tue, "18:00"); got != 2 {
			t.Errorf("Remaining after failed consume = %d, want 2", got)
		}
	})

	t.Run("slot that does not exist has no capacity", func(t *testing.T) {
		err := avail.Consume(10, day(2026, 4, 8), "18:00", 1)
		if !errors.Is(err, ErrCapacityExceeded) {
			t.Errorf("Consume on Wednesday error = %v, want ErrCapacityExceeded", err)
		}
	})

	t.Run("clones are independent", func(t *testing.T) {
		clone := avail.Clone()
		if err := clone.Consume(10, tue, "18:00", 2); err != nil {
			t.Fatalf("clone Consume error: %v", err)
		}
		if got := avail.Remaining(10, tue, "18:00"); got != 2 {
			t.Errorf("original Remaining = %d, want 2", got)
		}
		if got := cal.Availability().Remaining(10, tue, "18:00"); got != 5 {
			t.Errorf("fresh view Remaining = %d, want 5", got)
		}
	})
}
