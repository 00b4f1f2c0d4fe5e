package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/derekprior/tleague/internal/config"
	"github.com/derekprior/tleague/internal/store"
)

// NewTestStore creates a temporary SQLite database with migrations applied.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// SeedLeague imports a league file into s.
func SeedLeague(t *testing.T, s *store.Store, yaml string) store.ImportSummary {
	t.Helper()

	cfg, err := config.LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("parse league file: %v", err)
	}
	sum, err := s.Import(context.Background(), cfg)
	if err != nil {
		t.Fatalf("import league file: %v", err)
	}
	return sum
}

// LeagueYAML is a small league: four teams at one facility open Tuesdays at
// 18:00 and Saturdays at 09:00 with 6 courts, 3 lines per match.
const LeagueYAML = `
facilities:
  - name: Riverside
    schedule:
      tuesday:
        - time: "18:00"
          courts: 6
      saturday:
        - time: "09:00"
          courts: 6
    closures:
      - date: "2026-04-18"
        reason: Club championship

leagues:
  - name: Spring 3.5
    start_date: "2026-04-07"
    end_date: "2026-05-31"
    preferred_days: [tuesday, saturday]
    lines_per_match: 3
    strategy: round_robin
    teams:
      - name: Aces
        facilities: [Riverside]
        preferred_days: [saturday]
      - name: Baseliners
        facilities: [Riverside]
      - name: Drop Shots
        facilities: [Riverside]
      - name: Net Rushers
        facilities: [Riverside]
`
