package strategy

import (
	"fmt"
)

// Pairing is a single matchup between two teams in a numbered round.
type Pairing struct {
	Home    string
	Visitor string
	Round   int
	Label   string // unique identifier like "Match 1"
}

// Strategy generates the matchups of one league's season.
type Strategy interface {
	GeneratePairings(teams []string) []Pairing
}

// Get returns a Strategy by name. An empty name selects a single round robin.
func Get(name string) (Strategy, error) {
	switch name {
	case "", "round_robin":
		return &RoundRobin{Cycles: 1}, nil
	case "double_round_robin":
		return &RoundRobin{Cycles: 2}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// RoundRobin pairs every team with every other team once per cycle using
// the circle method. Each round has every team at most once; with an odd
// number of teams one team sits out each round. Later cycles swap home and
// visitor and continue the round numbering.
type RoundRobin struct {
	Cycles int
}

func (s *RoundRobin) GeneratePairings(names []string) []Pairing {
	if len(names) < 2 {
		return nil
	}
	cycles := s.Cycles
	if cycles < 1 {
		cycles = 1
	}

	teams := append([]string(nil), names...)
	if len(teams)%2 == 1 {
		teams = append(teams, "") // bye
	}
	n := len(teams)
	rounds := n - 1

	var base []Pairing
	for r := 0; r < rounds; r++ {
		for i := 0; i < n/2; i++ {
			home, visitor := teams[i], teams[n-1-i]
			if home == "" || visitor == "" {
				continue
			}
			// Alternate the fixed team's home games by round and the
			// rotating pairs by position.
			if (i == 0 && r%2 == 1) || (i > 0 && i%2 == 1) {
				home, visitor = visitor, home
			}
			base = append(base, Pairing{Home: home, Visitor: visitor, Round: r + 1})
		}
		// Keep teams[0] fixed and rotate the rest one step clockwise.
		last := teams[n-1]
		copy(teams[2:], teams[1:n-1])
		teams[1] = last
	}

	pairings := make([]Pairing, 0, len(base)*cycles)
	for c := 0; c < cycles; c++ {
		for _, p := range base {
			if c%2 == 1 {
				p.Home, p.Visitor = p.Visitor, p.Home
			}
			p.Round += c * rounds
			p.Label = fmt.Sprintf("Match %d", len(pairings)+1)
			pairings = append(pairings, p)
		}
	}
	return pairings
}

// Rounds returns how many rounds the strategy produces for n teams.
func (s *RoundRobin) Rounds(n int) int {
	if n < 2 {
		return 0
	}
	cycles := s.Cycles
	if cycles < 1 {
		cycles = 1
	}
	if n%2 == 1 {
		n++
	}
	return (n - 1) * cycles
}
