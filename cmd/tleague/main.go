package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/derekprior/tleague/internal/config"
	"github.com/derekprior/tleague/internal/excel"
	"github.com/derekprior/tleague/internal/logging"
	"github.com/derekprior/tleague/internal/store"
	"github.com/derekprior/tleague/internal/validator"
)

const (
	defaultAppConfig  = "tleague.yaml"
	defaultLeagueFile = "league.yaml"
)

// cli holds what every command shares once the root has loaded the
// configuration.
type cli struct {
	configPath string
	dbPath     string
	app        *config.App
}

func (c *cli) openStore() (*store.Store, error) {
	s, err := store.Open(c.app.Database.Filename)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return s, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted")
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "tleague",
		Short: "Tennis league match scheduler",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := config.LoadApp(c.configPath)
			if err != nil {
				return err
			}
			if c.dbPath != "" {
				app.Database.Filename = c.dbPath
			}
			if err := logging.Setup(app.Environment, app.LogLevel, nil); err != nil {
				return err
			}
			c.app = app
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", defaultAppConfig, "Path to the application config file")
	rootCmd.PersistentFlags().StringVar(&c.dbPath, "db", "", "Path to the SQLite database (overrides config)")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter league file in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultLeagueFile, "Output path for the league file")

	importCmd := &cobra.Command{
		Use:          "import <league.yaml>",
		Short:        "Load facilities, leagues, teams and matches into the database",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0])
		},
	}

	validateCmd := &cobra.Command{
		Use:          "validate",
		Short:        "Audit the committed schedule for rule violations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context())
		},
	}

	var exportPath string
	exportCmd := &cobra.Command{
		Use:          "export",
		Short:        "Write the committed schedule to an Excel workbook",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), exportPath)
		},
	}
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "schedule.xlsx", "Output Excel file path")

	var runsLimit int
	runsCmd := &cobra.Command{
		Use:          "runs",
		Short:        "List recent scheduling runs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRuns(cmd.Context(), runsLimit)
		},
	}
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "Number of runs to show")

	configCmd := &cobra.Command{
		Use:          "config",
		Short:        "Print the effective configuration",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.app.Marshal()
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}

	rootCmd.AddCommand(initCmd, importCmd, newScheduleCmd(c), validateCmd, exportCmd, runsCmd, configCmd)
	return rootCmd
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}
	if _, err := config.LoadFromBytes([]byte(config.DefaultLeagueFile)); err != nil {
		return fmt.Errorf("starter league file is invalid: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(config.DefaultLeagueFile), 0644); err != nil {
		return fmt.Errorf("writing league file: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

func (c *cli) runImport(ctx context.Context, path string) error {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("loading league file: %w", err)
	}

	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	sum, err := s.Import(ctx, cfg)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	fmt.Printf("✓ Imported %d facilities, %d leagues, %d teams, %d matches\n",
		sum.Facilities, sum.Leagues, sum.Teams, sum.Matches)
	return nil
}

func (c *cli) runValidate(ctx context.Context) error {
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	violations, err := validator.Validate(ctx, s, c.app.Scheduling.MatchDuration)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ Rule violation: %s\n", v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Warning: %s\n", v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d warnings\n", errors, warnings)
	if errors > 0 {
		return fmt.Errorf("%d constraint violations found", errors)
	}
	return nil
}

// workbookData loads everything a workbook shows from the database.
func workbookData(ctx context.Context, s *store.Store) (*excel.Data, error) {
	d, err := validator.Load(ctx, s)
	if err != nil {
		return nil, err
	}
	return &excel.Data{
		Facilities: d.Facilities,
		Leagues:    d.Leagues,
		Teams:      d.Teams,
		Matches:    d.Matches,
	}, nil
}

func saveWorkbook(d *excel.Data, path string) error {
	f, err := excel.Generate(d)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	log.Debug().Str("path", path).Msg("Saved workbook")
	fmt.Printf("✓ Schedule saved to %s\n", path)
	return nil
}

func (c *cli) runExport(ctx context.Context, path string) error {
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := workbookData(ctx, s)
	if err != nil {
		return err
	}
	return saveWorkbook(d, path)
}

func (c *cli) runRuns(ctx context.Context, limit int) error {
	s, err := c.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.Runs(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No scheduling runs recorded")
		return nil
	}
	fmt.Printf("%-36s  %-20s  %-20s  %-9s  %5s  %9s  %6s  %7s\n",
		"Run", "When", "Seed", "Mode", "Iters", "Scheduled", "Failed", "Quality")
	for _, r := range runs {
		fmt.Printf("%-36s  %-20s  %-20d  %-9s  %5d  %9d  %6d  %7.1f\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Seed, r.Mode,
			r.Iterations, r.Scheduled, r.Failed+r.CommitFailures, r.AverageQuality)
	}
	return nil
}
