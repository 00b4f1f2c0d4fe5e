package schedule

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/derekprior/tleague/internal/model"
)

// Mode selects between a single pass and a seeded multi-trial search.
type Mode string

const (
	ModeStandard  Mode = "standard"
	ModeOptimized Mode = "optimized"
)

// ParseMode accepts "standard" or "optimized"; empty means standard.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeStandard:
		return ModeStandard, nil
	case ModeOptimized:
		return ModeOptimized, nil
	default:
		return "", fmt.Errorf("unknown scheduling mode %q", s)
	}
}

// Phase is where a run is in its lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// Status is reported to Options.Progress as a run advances. Iteration is
// 1-based while running.
type Status struct {
	Phase     Phase
	Iteration int
	Total     int
}

// Options parameterize a run.
type Options struct {
	Mode          Mode
	Iterations    int // trials in optimized mode; ignored in standard mode
	Seed          int64
	LineMode      model.LineMode
	MatchDuration time.Duration
	Progress      func(Status)
}

func (o Options) trials() (int, error) {
	switch o.Mode {
	case ModeStandard, "":
		return 1, nil
	case ModeOptimized:
		if o.Iterations < 1 {
			return 0, fmt.Errorf("optimized mode needs at least 1 iteration, got %d", o.Iterations)
		}
		return o.Iterations, nil
	default:
		return 0, fmt.Errorf("unknown scheduling mode %q", o.Mode)
	}
}

// Optimize schedules snap.Matches. The first trial keeps the input order;
// later trials (optimized mode only) shuffle it with a source derived from
// Seed and the trial index, so equal inputs always give equal results.
// The trial scheduling the most matches wins, then the one with the higher
// average quality; ties keep the earlier trial.
//
// Cancellation is honored between trials and returns ctx.Err() without a
// result. Per-match failures never abort the run; structural problems in
// snap return an error wrapping ErrInvalidSnapshot.
func Optimize(ctx context.Context, snap *Snapshot, opts Options) (*Result, error) {
	trials, err := opts.trials()
	if err != nil {
		return nil, err
	}
	lineMode := opts.LineMode
	switch lineMode {
	case "":
		lineMode = model.LineModeSameTime
	case model.LineModeSameTime, model.LineModeSplitTimes:
	default:
		return nil, fmt.Errorf("line mode %q cannot be used for automatic scheduling", lineMode)
	}

	report := func(s Status) {
		if opts.Progress != nil {
			opts.Progress(s)
		}
	}
	report(Status{Phase: PhaseIdle, Total: trials})

	p, err := newPlan(snap, opts.MatchDuration)
	if err != nil {
		return nil, err
	}
	a := &assigner{plan: p, lineMode: lineMode}

	var best *trial
	bestIdx, ran := 0, 0
	for i := 0; i < trials; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report(Status{Phase: PhaseRunning, Iteration: i + 1, Total: trials})

		var rng *rand.Rand
		if i > 0 {
			rng = rand.New(rand.NewSource(trialSeed(opts.Seed, i)))
		}
		t := a.run(snap.Matches, rng, p.base.Clone())
		ran++
		if best == nil || t.beats(best) {
			best, bestIdx = t, i
		}
	}
	report(Status{Phase: PhaseCompleted, Iteration: ran, Total: trials})

	mode := opts.Mode
	if mode == "" {
		mode = ModeStandard
	}
	return &Result{
		Seed:          opts.Seed,
		Mode:          mode,
		LineMode:      lineMode,
		Iterations:    ran,
		BestIteration: bestIdx,
		Matches:       best.results,
		Scheduled:     best.scheduled,
		Failed:        len(best.results) - best.scheduled,
		TotalQuality:  best.quality,
	}, nil
}

// trialSeed mixes the run seed with a trial index (splitmix64 finalizer) so
// neighbouring seeds do not produce overlapping trial sequences.
func trialSeed(seed int64, iteration int) int64 {
	z := uint64(seed) + uint64(iteration)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
