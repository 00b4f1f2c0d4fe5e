package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/derekprior/tleague/internal/model"
	"github.com/derekprior/tleague/internal/schedule"
	"github.com/derekprior/tleague/internal/store"
)

func run(t *testing.T, dir string, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "tleague.yaml"),
		"--db", filepath.Join(dir, "tleague.db"),
	}, args...))
	return cmd.ExecuteContext(context.Background())
}

func TestCommandWorkflow(t *testing.T) {
	dir := t.TempDir()
	leagueFile := filepath.Join(dir, "league.yaml")
	workbook := filepath.Join(dir, "schedule.xlsx")

	steps := [][]string{
		{"init", "-o", leagueFile},
		{"import", leagueFile},
		{"schedule", "preview", "--mode", "optimized", "--iterations", "5", "--seed", "3"},
		{"schedule", "execute", "--mode", "optimized", "--iterations", "5", "--seed", "3"},
		{"validate"},
		{"export", "-o", workbook},
		{"runs"},
		{"config"},
	}
	for _, args := range steps {
		if err := run(t, dir, args...); err != nil {
			t.Fatalf("tleague %v: %v", args, err)
		}
	}

	if _, err := os.Stat(workbook); err != nil {
		t.Errorf("workbook not written: %v", err)
	}

	t.Run("init refuses to overwrite", func(t *testing.T) {
		if err := run(t, dir, "init", "-o", leagueFile); err == nil {
			t.Error("expected error when league file exists")
		}
	})

	t.Run("import refuses duplicate leagues", func(t *testing.T) {
		if err := run(t, dir, "import", leagueFile); err == nil {
			t.Error("expected error importing the same league twice")
		}
	})

	t.Run("clear unbooks matches", func(t *testing.T) {
		s, err := store.Open(filepath.Join(dir, "tleague.db"))
		if err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		scheduled, err := s.ScheduledMatches(context.Background())
		s.Close()
		if err != nil || len(scheduled) == 0 {
			t.Fatalf("ScheduledMatches() = %d, %v", len(scheduled), err)
		}

		if err := run(t, dir, "schedule", "clear", "1"); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if err := run(t, dir, "schedule", "clear", "9999"); err == nil {
			t.Error("expected error clearing a missing match")
		}
	})

	t.Run("rejects unknown modes", func(t *testing.T) {
		if err := run(t, dir, "schedule", "preview", "--mode", "fastest"); err == nil {
			t.Error("expected error for unknown mode")
		}
	})
}

func TestExecuteHint(t *testing.T) {
	result := &schedule.Result{
		Seed:       3,
		Mode:       schedule.ModeOptimized,
		Iterations: 5,
		LineMode:   model.LineModeSameTime,
	}

	tests := []struct {
		name  string
		cli   cli
		flags runFlags
		want  string
	}{
		{
			name:  "whole schedule",
			cli:   cli{configPath: defaultAppConfig},
			flags: runFlags{},
			want:  "tleague schedule execute --mode optimized --iterations 5 --line-mode same_time --seed 3",
		},
		{
			name:  "scoped run",
			cli:   cli{configPath: defaultAppConfig, dbPath: "league data.db"},
			flags: runFlags{league: "Spring 3.5", matches: []int64{4, 7}},
			want: "tleague --db 'league data.db' schedule execute --league 'Spring 3.5' --match 4 --match 7" +
				" --mode optimized --iterations 5 --line-mode same_time --seed 3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cli.executeHint(&tt.flags, result); got != tt.want {
				t.Errorf("executeHint() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("standard mode omits iterations", func(t *testing.T) {
		c := cli{configPath: "other.yaml"}
		got := c.executeHint(&runFlags{}, &schedule.Result{Seed: -9, Mode: schedule.ModeStandard, Iterations: 1, LineMode: model.LineModeSplitTimes})
		want := "tleague --config other.yaml schedule execute --mode standard --line-mode split_times --seed -9"
		if got != want {
			t.Errorf("executeHint() = %q, want %q", got, want)
		}
	})
}
