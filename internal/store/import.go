package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/derekprior/tleague/internal/config"
	"github.com/derekprior/tleague/internal/model"
	"github.com/derekprior/tleague/internal/strategy"
)

// ImportSummary counts the records an import created or updated.
type ImportSummary struct {
	Facilities int
	Leagues    int
	Teams      int
	Matches    int
}

// Import loads a league file in one transaction. Facilities are matched by
// name and updated; leagues must be new. Leagues without explicit matches
// get pairings from their strategy.
func (s *Store) Import(ctx context.Context, cfg *config.Config) (ImportSummary, error) {
	var sum ImportSummary
	err := s.inTx(ctx, func(tx *Store) error {
		facilityIDs := make(map[string]int64, len(cfg.Facilities))
		for _, f := range cfg.Facilities {
			mf, err := f.Model(0)
			if err != nil {
				return err
			}
			id, err := tx.SaveFacility(ctx, mf)
			if err != nil {
				return err
			}
			facilityIDs[f.Name] = id
			sum.Facilities++
		}
		// Teams may use facilities imported by an earlier file.
		existing, err := tx.Facilities(ctx)
		if err != nil {
			return err
		}
		for _, f := range existing {
			if _, ok := facilityIDs[f.Name]; !ok {
				facilityIDs[f.Name] = f.ID
			}
		}

		for _, l := range cfg.Leagues {
			n, err := tx.importLeague(ctx, l, facilityIDs)
			if err != nil {
				return err
			}
			sum.Leagues++
			sum.Teams += len(l.Teams)
			sum.Matches += n
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}

	log.Info().
		Int("facilities", sum.Facilities).
		Int("leagues", sum.Leagues).
		Int("teams", sum.Teams).
		Int("matches", sum.Matches).
		Msg("Imported league file")
	return sum, nil
}

func (s *Store) importLeague(ctx context.Context, l config.League, facilityIDs map[string]int64) (int, error) {
	ml, err := l.Model(0)
	if err != nil {
		return 0, err
	}

	pairings := make([]strategy.Pairing, 0, len(l.Matches))
	for _, m := range l.Matches {
		pairings = append(pairings, strategy.Pairing{Home: m.Home, Visitor: m.Visitor, Round: m.Round})
	}
	if len(pairings) == 0 {
		strat, err := strategy.Get(l.Strategy)
		if err != nil {
			return 0, fmt.Errorf("league %q: %w", l.Name, err)
		}
		names := make([]string, len(l.Teams))
		for i, t := range l.Teams {
			names[i] = t.Name
		}
		pairings = strat.GeneratePairings(names)
	}

	leagueID, err := s.CreateLeague(ctx, ml)
	if err != nil {
		return 0, err
	}
	teamIDs := make(map[string]int64, len(l.Teams))
	for _, t := range l.Teams {
		mt, err := t.Model(0, leagueID, facilityIDs)
		if err != nil {
			return 0, fmt.Errorf("league %q: %w", l.Name, err)
		}
		id, err := s.CreateTeam(ctx, mt)
		if err != nil {
			return 0, err
		}
		teamIDs[t.Name] = id
	}

	for _, p := range pairings {
		if _, err := s.CreateMatch(ctx, model.Match{
			LeagueID:      leagueID,
			HomeTeamID:    teamIDs[p.Home],
			VisitorTeamID: teamIDs[p.Visitor],
			Round:         p.Round,
		}); err != nil {
			return 0, fmt.Errorf("league %q: %s vs %s: %w", l.Name, p.Home, p.Visitor, err)
		}
	}
	return len(pairings), nil
}
