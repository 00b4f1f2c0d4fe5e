package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/tleague/internal/model"
	"github.com/derekprior/tleague/internal/schedule"
)

const (
	masterSheet      = "Master Schedule"
	unscheduledSheet = "Unscheduled"
	legendSheet      = "Quality"
)

// Data is what a workbook shows: matches with their bookings and the
// facilities, leagues and teams they refer to.
type Data struct {
	Facilities []model.Facility
	Leagues    []model.League
	Teams      []model.Team
	Matches    []model.Match
	Failures   map[int64]*schedule.Failure
}

// Apply overlays a scheduling result: placed matches take the result's
// bookings, failed ones keep their failure reason.
func (d *Data) Apply(r *schedule.Result) {
	if d.Failures == nil {
		d.Failures = make(map[int64]*schedule.Failure)
	}
	index := make(map[int64]int, len(d.Matches))
	for i, m := range d.Matches {
		index[m.ID] = i
	}
	for _, mr := range r.Matches {
		m := mr.Match
		if mr.Placement != nil {
			m.Bookings = mr.Placement.Bookings()
		} else {
			d.Failures[m.ID] = mr.Failure
		}
		if i, ok := index[m.ID]; ok {
			d.Matches[i] = m
		} else {
			index[m.ID] = len(d.Matches)
			d.Matches = append(d.Matches, m)
		}
	}
}

// Generate creates an Excel workbook with the master schedule, per-team
// sheets, the unscheduled matches and the quality legend.
func Generate(d *Data) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	w := newWorkbook(f, d)
	if err := w.writeMasterSheet(); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}
	if err := w.writeTeamSheets(); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}
	if err := w.writeUnscheduledSheet(); err != nil {
		return nil, fmt.Errorf("writing unscheduled sheet: %w", err)
	}
	if err := w.writeLegendSheet(); err != nil {
		return nil, fmt.Errorf("writing quality sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type workbook struct {
	f          *excelize.File
	d          *Data
	leagues    map[int64]model.League
	teams      map[int64]model.Team
	facilities map[int64]model.Facility
	scorer     *schedule.Scorer
	header     int
	cell       int
	center     int
}

func newWorkbook(f *excelize.File, d *Data) *workbook {
	w := &workbook{
		f:          f,
		d:          d,
		leagues:    make(map[int64]model.League, len(d.Leagues)),
		teams:      make(map[int64]model.Team, len(d.Teams)),
		facilities: make(map[int64]model.Facility, len(d.Facilities)),
	}
	for _, l := range d.Leagues {
		w.leagues[l.ID] = l
	}
	for _, t := range d.Teams {
		w.teams[t.ID] = t
	}
	for _, fc := range d.Facilities {
		w.facilities[fc.ID] = fc
	}
	w.scorer = schedule.NewScorer(w.leagues, w.teams, schedule.LeagueRounds(w.leagues, d.Matches))

	w.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	w.cell, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	w.center, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	return w
}

func (w *workbook) teamName(id int64) string {
	if t, ok := w.teams[id]; ok {
		return t.Name
	}
	return fmt.Sprintf("Team %d", id)
}

func (w *workbook) writeHeaders(sheet string, headers []string) {
	for i, h := range headers {
		w.f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if w.header != 0 {
		w.f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), w.header)
	}
}

func (w *workbook) styleRow(sheet string, row, from, to, style int) {
	if style != 0 {
		w.f.SetCellStyle(sheet, cellRef(from, row), cellRef(to, row), style)
	}
}

func fieldColumnName(name string, allNames []string) string {
	first, _, _ := strings.Cut(name, " ")
	// Check if first word is unique
	count := 0
	for _, n := range allNames {
		if word, _, _ := strings.Cut(n, " "); word == first {
			count++
		}
	}
	if count > 1 {
		return name
	}
	return first
}

type slotKey struct {
	facility int64
	date     string
	time     string
}

type timeSlot struct {
	date time.Time
	time string
}

// seasonSlots lists every date and start time on which some facility opens
// or is closed, across all league windows.
func (w *workbook) seasonSlots() []timeSlot {
	var from, to time.Time
	for _, l := range w.d.Leagues {
		if from.IsZero() || l.StartDate.Before(from) {
			from = model.Day(l.StartDate)
		}
		if l.EndDate.After(to) {
			to = model.Day(l.EndDate)
		}
	}

	seen := make(map[timeSlot]bool)
	var slots []timeSlot
	add := func(ts timeSlot) {
		if !seen[ts] {
			seen[ts] = true
			slots = append(slots, ts)
		}
	}
	if !from.IsZero() {
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			for _, fc := range w.d.Facilities {
				for _, st := range fc.Schedule[day.Weekday()] {
					if clock, err := model.NormalizeClock(st.Time); err == nil {
						add(timeSlot{day, clock})
					}
				}
			}
		}
	}
	// Bookings outside every window still get a row.
	for _, m := range w.d.Matches {
		for _, b := range m.Bookings {
			if clock, err := model.NormalizeClock(b.Time); err == nil {
				add(timeSlot{model.Day(b.Date), clock})
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].date.Equal(slots[j].date) {
			return slots[i].date.Before(slots[j].date)
		}
		return slots[i].time < slots[j].time
	})
	return slots
}

func (w *workbook) writeMasterSheet() error {
	sheet := masterSheet
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}

	var names []string
	for _, fc := range w.d.Facilities {
		names = append(names, fc.Name)
	}
	headers := []string{"Date", "Day", "Time"}
	for _, name := range names {
		headers = append(headers, fieldColumnName(name, names))
	}
	w.writeHeaders(sheet, headers)

	cells := make(map[slotKey][]string)
	for _, m := range w.d.Matches {
		for _, b := range m.Bookings {
			clock, err := model.NormalizeClock(b.Time)
			if err != nil {
				continue
			}
			k := slotKey{b.FacilityID, model.FormatDate(b.Date), clock}
			cells[k] = append(cells[k], fmt.Sprintf("%s @ %s (%d)",
				w.teamName(m.VisitorTeamID), w.teamName(m.HomeTeamID), b.Lines))
		}
	}

	slots := w.seasonSlots()
	for i, ts := range slots {
		row := i + 2
		w.f.SetCellValue(sheet, cellRef(1, row), ts.date.Format("01/02/2006"))
		w.f.SetCellValue(sheet, cellRef(2, row), ts.date.Format("Mon"))
		w.f.SetCellValue(sheet, cellRef(3, row), ts.time)

		for fi, fc := range w.d.Facilities {
			col := fi + 4 // 1-indexed, after Date/Day/Time
			k := slotKey{fc.ID, model.FormatDate(ts.date), ts.time}
			if games, ok := cells[k]; ok {
				w.f.SetCellValue(sheet, cellRef(col, row), strings.Join(games, "\n"))
			} else if fc.IsBlackedOut(ts.date) && opensAt(fc, ts) {
				w.f.SetCellValue(sheet, cellRef(col, row), "Closed")
			}
		}
		w.styleRow(sheet, row, 1, 3, w.cell)
		w.styleRow(sheet, row, 4, len(headers), w.center)
	}

	// Set column widths (sized for Arial 16)
	w.f.SetColWidth(sheet, "A", "A", 18)
	w.f.SetColWidth(sheet, "B", "B", 8)
	w.f.SetColWidth(sheet, "C", "C", 10)
	for i := range names {
		col := colLetter(i + 4)
		w.f.SetColWidth(sheet, col, col, 40)
	}

	// Conditional formatting: non-match cells in facility columns get light red
	lastRow := len(slots) + 1
	redFill, _ := w.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	for i := range names {
		col := colLetter(i + 4)
		cellRange := fmt.Sprintf("%s2:%s%d", col, col, lastRow)
		topCell := fmt.Sprintf("%s2", col)
		formula := fmt.Sprintf(`AND(%s<>"",ISERROR(FIND(" @ ",%s)))`, topCell, topCell)
		if err := w.f.SetConditionalFormat(sheet, cellRange, []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: formula,
				Format:   &redFill,
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func opensAt(fc model.Facility, ts timeSlot) bool {
	for _, st := range fc.Schedule[ts.date.Weekday()] {
		if clock, err := model.NormalizeClock(st.Time); err == nil && clock == ts.time {
			return true
		}
	}
	return false
}

// sheetName makes a valid, unique worksheet name from a team name.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, name)
	if len([]rune(clean)) > 31 {
		clean = string([]rune(clean)[:31])
	}
	candidate := clean
	for n := 2; used[strings.ToLower(candidate)] || strings.EqualFold(candidate, masterSheet) ||
		strings.EqualFold(candidate, unscheduledSheet) || strings.EqualFold(candidate, legendSheet); n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := []rune(clean)
		if len(base)+len(suffix) > 31 {
			base = base[:31-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func (w *workbook) writeTeamSheets() error {
	used := make(map[string]bool)
	headers := []string{"Date", "Day", "Time", "Facility", "Opponent", "Home/Away", "Lines", "Quality"}

	for _, team := range w.d.Teams {
		sheet := sheetName(team.Name, used)
		if _, err := w.f.NewSheet(sheet); err != nil {
			return err
		}
		w.writeHeaders(sheet, headers)

		// Collect and sort this team's bookings
		type teamGame struct {
			date     time.Time
			time     string
			facility string
			opponent string
			homeAway string
			lines    int
			quality  string
		}
		var games []teamGame
		for _, m := range w.d.Matches {
			if m.HomeTeamID != team.ID && m.VisitorTeamID != team.ID {
				continue
			}
			opponent, homeAway := w.teamName(m.VisitorTeamID), "Home"
			if m.VisitorTeamID == team.ID {
				opponent, homeAway = w.teamName(m.HomeTeamID), "Away"
			}
			for _, b := range m.Bookings {
				games = append(games, teamGame{
					date:     b.Date,
					time:     b.Time,
					facility: w.facilities[b.FacilityID].Name,
					opponent: opponent,
					homeAway: homeAway,
					lines:    b.Lines,
					quality:  w.scorer.Evaluate(m, b.Date).Quality.String(),
				})
			}
		}
		sort.Slice(games, func(i, j int) bool {
			if !games[i].date.Equal(games[j].date) {
				return games[i].date.Before(games[j].date)
			}
			return games[i].time < games[j].time
		})

		for i, g := range games {
			row := i + 2
			w.f.SetCellValue(sheet, cellRef(1, row), g.date.Format("01/02/2006"))
			w.f.SetCellValue(sheet, cellRef(2, row), g.date.Format("Mon"))
			w.f.SetCellValue(sheet, cellRef(3, row), g.time)
			w.f.SetCellValue(sheet, cellRef(4, row), g.facility)
			w.f.SetCellValue(sheet, cellRef(5, row), g.opponent)
			w.f.SetCellValue(sheet, cellRef(6, row), g.homeAway)
			w.f.SetCellValue(sheet, cellRef(7, row), g.lines)
			w.f.SetCellValue(sheet, cellRef(8, row), g.quality)
			w.styleRow(sheet, row, 1, len(headers), w.cell)
		}

		// Set column widths (sized for Arial 16)
		widths := map[string]float64{"A": 18, "B": 8, "C": 10, "D": 28, "E": 24, "F": 14, "G": 10, "H": 14}
		for col, width := range widths {
			w.f.SetColWidth(sheet, col, col, width)
		}
	}
	return nil
}

// writeUnscheduledSheet lists every match short of its league's line count
// with the reason it was left out when one is known.
func (w *workbook) writeUnscheduledSheet() error {
	sheet := unscheduledSheet
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}
	w.writeHeaders(sheet, []string{"League", "Round", "Home", "Visitor", "State", "Reason"})

	row := 2
	for _, m := range w.d.Matches {
		l := w.leagues[m.LeagueID]
		state := m.State(l.LinesPerMatch)
		if state == model.FullyScheduled {
			continue
		}
		reason := ""
		if f := w.d.Failures[m.ID]; f != nil {
			reason = f.Error()
		}
		w.f.SetCellValue(sheet, cellRef(1, row), l.Name)
		w.f.SetCellValue(sheet, cellRef(2, row), m.Round)
		w.f.SetCellValue(sheet, cellRef(3, row), w.teamName(m.HomeTeamID))
		w.f.SetCellValue(sheet, cellRef(4, row), w.teamName(m.VisitorTeamID))
		w.f.SetCellValue(sheet, cellRef(5, row), state.String())
		w.f.SetCellValue(sheet, cellRef(6, row), reason)
		w.styleRow(sheet, row, 1, 6, w.cell)
		row++
	}

	widths := map[string]float64{"A": 22, "B": 8, "C": 24, "D": 24, "E": 22, "F": 60}
	for col, width := range widths {
		w.f.SetColWidth(sheet, col, col, width)
	}
	return nil
}

func (w *workbook) writeLegendSheet() error {
	sheet := legendSheet
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}
	w.writeHeaders(sheet, []string{"Score", "Quality", "Meaning", "Matches"})

	counts := make(map[schedule.Quality]int)
	for _, m := range w.d.Matches {
		if len(m.Bookings) > 0 {
			counts[w.scorer.Evaluate(m, m.Bookings[0].Date).Quality]++
		}
	}
	for i, q := range schedule.Legend {
		row := i + 2
		w.f.SetCellValue(sheet, cellRef(1, row), int(q))
		w.f.SetCellValue(sheet, cellRef(2, row), q.String())
		w.f.SetCellValue(sheet, cellRef(3, row), q.Describe())
		w.f.SetCellValue(sheet, cellRef(4, row), counts[q])
		w.styleRow(sheet, row, 1, 4, w.cell)
	}

	widths := map[string]float64{"A": 10, "B": 16, "C": 50, "D": 12}
	for col, width := range widths {
		w.f.SetColWidth(sheet, col, col, width)
	}
	return nil
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
