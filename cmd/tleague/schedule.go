package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derekprior/tleague/internal/model"
	"github.com/derekprior/tleague/internal/planner"
	"github.com/derekprior/tleague/internal/schedule"
	"github.com/derekprior/tleague/internal/store"
)

type runFlags struct {
	league     string
	matches    []int64
	mode       string
	iterations int
	seed       int64
	lineMode   string
	output     string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.league, "league", "", "Only schedule matches of this league")
	cmd.Flags().Int64SliceVar(&f.matches, "match", nil, "Only schedule these match IDs")
	cmd.Flags().StringVar(&f.mode, "mode", "", "standard or optimized (default from config)")
	cmd.Flags().IntVar(&f.iterations, "iterations", 0, "Trials in optimized mode (default from config)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Seed for a reproducible run (random when omitted)")
	cmd.Flags().StringVar(&f.lineMode, "line-mode", "", "same_time or split_times (default from config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Also write the schedule to this Excel file")
}

// request turns flags and configuration into a planner request.
func (f *runFlags) request(ctx context.Context, cmd *cobra.Command, c *cli, s *store.Store) (planner.Request, error) {
	var req planner.Request

	modeName := f.mode
	if modeName == "" {
		modeName = c.app.Scheduling.Mode
	}
	mode, err := schedule.ParseMode(modeName)
	if err != nil {
		return req, err
	}
	lineName := f.lineMode
	if lineName == "" {
		lineName = c.app.Scheduling.LineMode
	}
	lineMode, err := model.ParseLineMode(lineName)
	if err != nil {
		return req, err
	}

	req.Mode = mode
	req.LineMode = lineMode
	req.Iterations = f.iterations
	if req.Iterations == 0 && mode == schedule.ModeOptimized {
		req.Iterations = c.app.Scheduling.Iterations
	}
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		req.Seed = &seed
	}
	req.Scope.MatchIDs = f.matches
	if f.league != "" {
		l, err := s.LeagueByName(ctx, f.league)
		if err != nil {
			return req, err
		}
		req.Scope.LeagueID = l.ID
	}
	return req, nil
}

func newScheduleCmd(c *cli) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule matches onto facility courts",
	}

	var previewFlags runFlags
	previewCmd := &cobra.Command{
		Use:          "preview",
		Short:        "Show what a scheduling run would book without saving it",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd, &previewFlags)
		},
	}
	previewFlags.register(previewCmd)

	var executeFlags runFlags
	executeCmd := &cobra.Command{
		Use:          "execute",
		Short:        "Schedule matches and save the bookings",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExecute(cmd, &executeFlags)
		},
	}
	executeFlags.register(executeCmd)

	var check struct {
		match    int64
		facility string
		date     string
		times    []string
		lineMode string
	}
	checkCmd := &cobra.Command{
		Use:          "check",
		Short:        "Check a manual placement of one match",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), check.match, check.facility, check.date, check.times, check.lineMode)
		},
	}
	checkCmd.Flags().Int64Var(&check.match, "match", 0, "Match ID")
	checkCmd.Flags().StringVar(&check.facility, "facility", "", "Facility name or ID")
	checkCmd.Flags().StringVar(&check.date, "date", "", "Date (YYYY-MM-DD)")
	checkCmd.Flags().StringSliceVar(&check.times, "time", nil, "Start time(s), one per line group")
	checkCmd.Flags().StringVar(&check.lineMode, "line-mode", "", "same_time, split_times or custom")
	for _, name := range []string{"match", "facility", "date", "time"} {
		_ = checkCmd.MarkFlagRequired(name)
	}

	clearCmd := &cobra.Command{
		Use:          "clear <match-id>...",
		Short:        "Remove the bookings of matches",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runClear(cmd.Context(), args)
		},
	}

	scheduleCmd.AddCommand(previewCmd, executeCmd, checkCmd, clearCmd)
	return scheduleCmd
}

func (c *cli) newPlanner(s *store.Store) *planner.Planner {
	return planner.New(s,
		planner.WithIterations(c.app.Scheduling.Iterations),
		planner.WithMatchDuration(c.app.Scheduling.MatchDuration),
	)
}

func (c *cli) runPreview(cmd *cobra.Command, flags *runFlags) error {
	ctx := cmd.Context()
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	req, err := flags.request(ctx, cmd, c, s)
	if err != nil {
		return err
	}
	result, err := c.newPlanner(s).Preview(ctx, req)
	if err != nil {
		return err
	}
	if err := printResult(ctx, s, result); err != nil {
		return err
	}
	fmt.Printf("\nPreview only; run `%s` to book it.\n", c.executeHint(flags, result))
	return writeResult(ctx, s, result, flags.output)
}

func (c *cli) runExecute(cmd *cobra.Command, flags *runFlags) error {
	ctx := cmd.Context()
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	req, err := flags.request(ctx, cmd, c, s)
	if err != nil {
		return err
	}
	exec, err := c.newPlanner(s).Execute(ctx, req)
	if err != nil {
		return err
	}
	if err := printResult(ctx, s, exec.Result); err != nil {
		return err
	}

	fmt.Printf("\n✓ Booked %d matches (run %s)\n", len(exec.Committed), exec.RunID)
	for _, f := range exec.Failures {
		fmt.Printf("  ✗ match %d: %v\n", f.MatchID, f.Err)
	}
	if flags.output != "" {
		d, err := workbookData(ctx, s)
		if err != nil {
			return err
		}
		if err := saveWorkbook(d, flags.output); err != nil {
			return err
		}
	}
	if len(exec.Failures) > 0 {
		return fmt.Errorf("%d placements could not be booked", len(exec.Failures))
	}
	return nil
}

// executeHint is the execute command that books exactly what a preview
// showed.
func (c *cli) executeHint(flags *runFlags, result *schedule.Result) string {
	args := []string{"tleague"}
	if c.configPath != defaultAppConfig {
		args = append(args, "--config", shellQuote(c.configPath))
	}
	if c.dbPath != "" {
		args = append(args, "--db", shellQuote(c.dbPath))
	}
	args = append(args, "schedule", "execute")
	if flags.league != "" {
		args = append(args, "--league", shellQuote(flags.league))
	}
	for _, id := range flags.matches {
		args = append(args, "--match", strconv.FormatInt(id, 10))
	}
	args = append(args, "--mode", string(result.Mode))
	if result.Mode == schedule.ModeOptimized {
		args = append(args, "--iterations", strconv.Itoa(result.Iterations))
	}
	args = append(args,
		"--line-mode", string(result.LineMode),
		"--seed", strconv.FormatInt(result.Seed, 10))
	return strings.Join(args, " ")
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t'\"$`\\") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func writeResult(ctx context.Context, s *store.Store, result *schedule.Result, path string) error {
	if path == "" {
		return nil
	}
	d, err := workbookData(ctx, s)
	if err != nil {
		return err
	}
	d.Apply(result)
	return saveWorkbook(d, path)
}

// names resolves team and facility IDs for display.
type names struct {
	teams      map[int64]string
	facilities map[int64]string
}

func loadNames(ctx context.Context, s *store.Store) (*names, error) {
	n := &names{teams: make(map[int64]string), facilities: make(map[int64]string)}
	teams, err := s.Teams(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		n.teams[t.ID] = t.Name
	}
	facilities, err := s.Facilities(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range facilities {
		n.facilities[f.ID] = f.Name
	}
	return n, nil
}

func (n *names) match(m model.Match) string {
	return fmt.Sprintf("#%d %s @ %s", m.ID, n.teams[m.VisitorTeamID], n.teams[m.HomeTeamID])
}

func groupsString(groups []schedule.LineGroup) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = fmt.Sprintf("%s×%d", g.Time, g.Lines)
	}
	return strings.Join(parts, ", ")
}

func printResult(ctx context.Context, s *store.Store, result *schedule.Result) error {
	n, err := loadNames(ctx, s)
	if err != nil {
		return err
	}

	fmt.Printf("Seed %d, %s mode, %d trial(s), best trial %d\n\n",
		result.Seed, result.Mode, result.Iterations, result.BestIteration+1)
	for _, mr := range result.Matches {
		if p := mr.Placement; p != nil {
			round := ""
			if !p.InRound {
				round = " (outside round window)"
			}
			fmt.Printf("  ✓ %-40s %s %s  %-24s %s  %s%s\n",
				n.match(mr.Match), model.FormatDate(p.Date), p.Date.Format("Mon"),
				n.facilities[p.FacilityID], groupsString(p.Groups), p.Quality, round)
		} else {
			fmt.Printf("  ✗ %-40s %s\n", n.match(mr.Match), mr.Failure)
		}
	}

	fmt.Printf("\n%d scheduled, %d unscheduled, average quality %.1f\n",
		result.Scheduled, result.Failed, result.AverageQuality())
	counts := result.QualityCounts()
	for _, q := range schedule.Legend {
		fmt.Printf("  %3d %-10s %3d  %s\n", int(q), q, counts[q], q.Describe())
	}
	failures := result.FailureCounts()
	for _, kind := range []schedule.FailureKind{schedule.NoAvailability, schedule.AllConflicted} {
		if failures[kind] > 0 {
			fmt.Printf("  ⚠ %s: %d\n", kind, failures[kind])
		}
	}
	return nil
}

func resolveFacility(ctx context.Context, s *store.Store, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	facilities, err := s.Facilities(ctx)
	if err != nil {
		return 0, err
	}
	for _, f := range facilities {
		if strings.EqualFold(f.Name, ref) {
			return f.ID, nil
		}
	}
	return 0, fmt.Errorf("facility %q: %w", ref, store.ErrNotFound)
}

func (c *cli) runCheck(ctx context.Context, matchID int64, facility, date string, times []string, lineName string) error {
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	facilityID, err := resolveFacility(ctx, s, facility)
	if err != nil {
		return err
	}
	day, err := model.ParseDate(date)
	if err != nil {
		return err
	}
	lineMode, err := model.ParseLineMode(lineName)
	if err != nil {
		return err
	}
	if lineName == "" && len(times) > 1 {
		lineMode = model.LineModeSplitTimes
	}

	check, err := c.newPlanner(s).PreviewSingle(ctx, planner.SingleRequest{
		MatchID:    matchID,
		FacilityID: facilityID,
		Date:       day,
		Times:      times,
		Mode:       lineMode,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Quality: %d %s (%s)\n", int(check.Quality), check.Quality, check.Quality.Describe())
	if !check.InRound {
		fmt.Println("⚠ Date is outside the match's round window")
	}
	for _, b := range check.Bookings {
		fmt.Printf("  %s %s: %d line(s)\n", model.FormatDate(b.Date), b.Time, b.Lines)
	}
	if check.Feasible {
		fmt.Println("✓ Placement is feasible")
		return nil
	}
	for _, msg := range check.Conflicts {
		fmt.Printf("✗ %s\n", msg)
	}
	return fmt.Errorf("placement has %d conflict(s)", len(check.Conflicts))
}

func (c *cli) runClear(ctx context.Context, args []string) error {
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	p := c.newPlanner(s)
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid match ID %q", arg)
		}
		if err := p.Unschedule(ctx, id); err != nil {
			return err
		}
		fmt.Printf("✓ Cleared match %d\n", id)
	}
	return nil
}
