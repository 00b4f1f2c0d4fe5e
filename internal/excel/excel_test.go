package excel

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/tleague/internal/model"
	"github.com/derekprior/tleague/internal/schedule"
)

func date(m, d int) time.Time {
	return time.Date(2026, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func testData() *Data {
	booked := func(id, home, visitor int64, facility int64, day time.Time, clock string, lines int) model.Match {
		return model.Match{
			ID: id, LeagueID: 1, HomeTeamID: home, VisitorTeamID: visitor, Round: 1,
			Bookings: []model.Booking{{MatchID: id, FacilityID: facility, Date: day, Time: clock, Lines: lines}},
		}
	}
	hours := map[time.Weekday][]model.StartTime{
		time.Tuesday:  {{Time: "18:00", Courts: 4}},
		time.Saturday: {{Time: "9:00", Courts: 4}},
	}
	return &Data{
		Facilities: []model.Facility{
			{ID: 10, Name: "Riverside Tennis Center", Schedule: hours, Blackouts: []time.Time{date(4, 18)}},
			{ID: 11, Name: "Oak Park", Schedule: hours},
		},
		Leagues: []model.League{{
			ID: 1, Name: "Spring 3.5", StartDate: date(4, 7), EndDate: date(4, 30),
			PreferredDays: []time.Weekday{time.Tuesday}, LinesPerMatch: 3, MatchesPerTeam: 3,
		}},
		Teams: []model.Team{
			{ID: 1, Name: "Aces", LeagueID: 1, FacilityIDs: []int64{10}, PreferredDays: []time.Weekday{time.Saturday}},
			{ID: 2, Name: "Baseliners", LeagueID: 1, FacilityIDs: []int64{10}},
			{ID: 3, Name: "Drop Shots", LeagueID: 1, FacilityIDs: []int64{11}},
			{ID: 4, Name: "Net Rushers", LeagueID: 1, FacilityIDs: []int64{11}},
		},
		Matches: []model.Match{
			booked(100, 1, 2, 10, date(4, 11), "09:00", 3),
			booked(101, 3, 4, 11, date(4, 7), "18:00", 3),
			{ID: 102, LeagueID: 1, HomeTeamID: 1, VisitorTeamID: 3, Round: 2},
		},
	}
}

func findRow(rows [][]string, col int, value string) []string {
	for _, row := range rows[1:] { // skip header
		if len(row) > col && row[col] == value {
			return row
		}
	}
	return nil
}

func TestGenerateWorkbook(t *testing.T) {
	f, err := Generate(testData())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	t.Run("has Master Schedule sheet", func(t *testing.T) {
		idx, err := f.GetSheetIndex("Master Schedule")
		if err != nil {
			t.Fatalf("GetSheetIndex error: %v", err)
		}
		if idx < 0 {
			t.Error("Master Schedule sheet not found")
		}
	})

	t.Run("master sheet has headers", func(t *testing.T) {
		val, _ := f.GetCellValue("Master Schedule", "A1")
		if val != "Date" {
			t.Errorf("A1 = %q, want Date", val)
		}
		val, _ = f.GetCellValue("Master Schedule", "D1")
		if val != "Riverside" {
			t.Errorf("D1 = %q, want Riverside", val)
		}
		val, _ = f.GetCellValue("Master Schedule", "E1")
		if val != "Oak" {
			t.Errorf("E1 = %q, want Oak", val)
		}
	})

	t.Run("master sheet has match cells", func(t *testing.T) {
		rows, _ := f.GetRows("Master Schedule")
		row := findRow(rows, 0, "04/11/2026")
		if row == nil || len(row) < 4 {
			t.Fatalf("row for 04/11 not found: %v", row)
		}
		if row[3] != "Baseliners @ Aces (3)" {
			t.Errorf("04/11 Riverside = %q, want Baseliners @ Aces (3)", row[3])
		}
		row = findRow(rows, 0, "04/07/2026")
		if row == nil || len(row) < 5 || row[4] != "Net Rushers @ Drop Shots (3)" {
			t.Errorf("04/07 row = %v", row)
		}
	})

	t.Run("master sheet has closures", func(t *testing.T) {
		rows, _ := f.GetRows("Master Schedule")
		row := findRow(rows, 0, "04/18/2026")
		if row == nil || len(row) < 4 || row[3] != "Closed" {
			t.Errorf("04/18 row = %v, want Riverside closed", row)
		}
	})

	t.Run("master sheet covers the season", func(t *testing.T) {
		rows, _ := f.GetRows("Master Schedule")
		// Tuesdays 04-07..04-28 and Saturdays 04-11..04-25.
		if got := len(rows) - 1; got != 7 {
			t.Errorf("master sheet has %d slot rows, want 7", got)
		}
	})

	t.Run("has per-team sheets", func(t *testing.T) {
		for _, team := range []string{"Aces", "Baseliners", "Drop Shots", "Net Rushers"} {
			idx, err := f.GetSheetIndex(team)
			if err != nil {
				t.Fatalf("GetSheetIndex error: %v", err)
			}
			if idx < 0 {
				t.Errorf("sheet for %s not found", team)
			}
		}
	})

	t.Run("team sheet has correct matches", func(t *testing.T) {
		rows, _ := f.GetRows("Aces")
		if len(rows) != 2 {
			t.Fatalf("Aces sheet has %d rows, want header plus 1 match", len(rows))
		}
		want := []string{"04/11/2026", "Sat", "09:00", "Riverside Tennis Center", "Baseliners", "Home", "3", "Optimal"}
		for i, v := range want {
			if rows[1][i] != v {
				t.Errorf("Aces row col %d = %q, want %q", i, rows[1][i], v)
			}
		}
	})

	t.Run("unscheduled sheet lists open matches", func(t *testing.T) {
		rows, _ := f.GetRows("Unscheduled")
		if len(rows) != 2 {
			t.Fatalf("Unscheduled has %d rows, want 2", len(rows))
		}
		if rows[1][2] != "Aces" || rows[1][3] != "Drop Shots" || rows[1][4] != "unscheduled" {
			t.Errorf("Unscheduled row = %v", rows[1])
		}
	})

	t.Run("quality legend counts matches", func(t *testing.T) {
		rows, _ := f.GetRows("Quality")
		if len(rows) != len(schedule.Legend)+1 {
			t.Fatalf("Quality has %d rows, want %d", len(rows), len(schedule.Legend)+1)
		}
		if rows[1][1] != "Optimal" || rows[1][3] != "1" {
			t.Errorf("Optimal row = %v, want 1 match", rows[1])
		}
		if rows[3][1] != "Fair" || rows[3][3] != "1" {
			t.Errorf("Fair row = %v, want 1 match", rows[3])
		}
	})

	t.Run("default Sheet1 removed", func(t *testing.T) {
		idx, _ := f.GetSheetIndex("Sheet1")
		if idx >= 0 {
			t.Error("Sheet1 should be removed")
		}
	})
}

func TestApplyResult(t *testing.T) {
	d := testData()
	d.Apply(&schedule.Result{
		Matches: []schedule.MatchResult{
			{
				Match:   d.Matches[2],
				Failure: &schedule.Failure{Kind: schedule.AllConflicted, Detail: "every slot conflicts"},
			},
			{
				Match: model.Match{ID: 103, LeagueID: 1, HomeTeamID: 2, VisitorTeamID: 4, Round: 2},
				Placement: &schedule.Placement{
					MatchID: 103, FacilityID: 10, Date: date(4, 14),
					Groups: []schedule.LineGroup{{Time: "18:00", Lines: 3}},
				},
			},
		},
	})

	if len(d.Matches) != 4 {
		t.Fatalf("matches = %d, want 4", len(d.Matches))
	}
	if got := d.Matches[3].BookedLines(); got != 3 {
		t.Errorf("placed match has %d lines, want 3", got)
	}

	f, err := Generate(d)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	rows, _ := f.GetRows("Unscheduled")
	if len(rows) != 2 || rows[1][5] != "AllConflicted: every slot conflicts" {
		t.Errorf("Unscheduled rows = %v", rows)
	}
}

func TestSheetName(t *testing.T) {
	used := make(map[string]bool)
	tests := []struct {
		in, want string
	}{
		{"Aces", "Aces"},
		{"aces", "aces (2)"},
		{"Net/Rushers?", "Net-Rushers-"},
		{"Quality", "Quality (2)"},
		{"An Extremely Long Team Name For Tennis", "An Extremely Long Team Name For"},
	}
	for _, tt := range tests {
		if got := sheetName(tt.in, used); got != tt.want {
			t.Errorf("sheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteAndRead(t *testing.T) {
	f, err := Generate(testData())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	path := t.TempDir() + "/test.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	// Verify we can read it back
	f2, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f2.Close()

	val, _ := f2.GetCellValue("Master Schedule", "A1")
	if val != "Date" {
		t.Errorf("re-read A1 = %q, want Date", val)
	}
}
