// Package planner runs the scheduling engine against persisted data: it
// gathers a snapshot from the store, optimizes, and commits placements.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/derekprior/tleague/internal/model"
	"github.com/derekprior/tleague/internal/schedule"
	"github.com/derekprior/tleague/internal/store"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// Store is the data the planner reads and writes.
type Store interface {
	UnscheduledMatches(ctx context.Context, scope model.Scope) ([]model.Match, error)
	ScheduledMatches(ctx context.Context) ([]model.Match, error)
	Match(ctx context.Context, id int64) (model.Match, error)
	Facility(ctx context.Context, id int64) (model.Facility, error)
	Team(ctx context.Context, id int64) (model.Team, error)
	League(ctx context.Context, id int64) (model.League, error)
	LeagueRounds(ctx context.Context, leagueID int64) (int, error)
	CommitAssignment(ctx context.Context, matchID int64, bookings []model.Booking) error
	ClearAssignment(ctx context.Context, matchID int64) error
	RecordRun(ctx context.Context, run store.Run) error
}

// Request describes an automatic scheduling run. A nil Seed asks the
// planner to pick one; the chosen seed is reported in the result so the run
// can be repeated.
type Request struct {
	Scope      model.Scope
	Mode       schedule.Mode  `validate:"omitempty,oneof=standard optimized"`
	Iterations int            `validate:"gte=0,lte=10000"`
	Seed       *int64
	LineMode   model.LineMode `validate:"omitempty,oneof=same_time split_times"`
}

// SingleRequest is a manual placement to check.
type SingleRequest struct {
	MatchID    int64          `validate:"required"`
	FacilityID int64          `validate:"required"`
	Date       time.Time      `validate:"required"`
	Times      []string       `validate:"required,min=1,dive,required"`
	Mode       model.LineMode `validate:"omitempty,oneof=same_time split_times custom"`
}

// SingleCheck is the verdict on a SingleRequest.
type SingleCheck struct {
	Feasible  bool
	Quality   schedule.Quality
	InRound   bool
	Bookings  []model.Booking
	Conflicts []string
}

// CommitFailure is a placement the store refused.
type CommitFailure struct {
	MatchID int64
	Err     error
}

// Execution is the outcome of Execute.
type Execution struct {
	RunID     string
	Result    *schedule.Result
	Committed []int64
	Failures  []CommitFailure
}

// Planner coordinates the store and the engine.
type Planner struct {
	store         Store
	validate      *validator.Validate
	iterations    int
	matchDuration time.Duration
	newSeed       func() int64
}

// Option configures a Planner.
type Option func(*Planner)

// WithIterations sets the trial count used in optimized mode when a request
// does not specify one.
func WithIterations(n int) Option {
	return func(p *Planner) { p.iterations = n }
}

// WithMatchDuration sets how long a match occupies its teams.
func WithMatchDuration(d time.Duration) Option {
	return func(p *Planner) { p.matchDuration = d }
}

// WithSeedSource replaces the generator of seeds for requests without one.
func WithSeedSource(fn func() int64) Option {
	return func(p *Planner) { p.newSeed = fn }
}

// New returns a Planner over s.
func New(s Store, opts ...Option) *Planner {
	p := &Planner{
		store:         s,
		validate:      validator.New(),
		iterations:    50,
		matchDuration: schedule.DefaultMatchDuration,
		newSeed:       rand.Int63,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preview runs the engine without writing anything.
func (p *Planner) Preview(ctx context.Context, req Request) (*schedule.Result, error) {
	_, result, err := p.run(ctx, req)
	return result, err
}

// Execute runs the engine exactly as Preview would for the same seed, then
// commits every placement. A refused commit is reported in the execution and
// does not undo the others. Cancellation stops further commits.
func (p *Planner) Execute(ctx context.Context, req Request) (*Execution, error) {
	runID, result, err := p.run(ctx, req)
	if err != nil {
		return nil, err
	}

	exec := &Execution{RunID: runID, Result: result}
	for _, mr := range result.Matches {
		if mr.Placement == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Warn().Str("run_id", runID).Int("committed", len(exec.Committed)).Msg("Execution cancelled")
			return exec, err
		}
		if err := p.store.CommitAssignment(ctx, mr.Match.ID, mr.Placement.Bookings()); err != nil {
			log.Error().Err(err).Str("run_id", runID).Int64("match_id", mr.Match.ID).Msg("Failed to commit placement")
			exec.Failures = append(exec.Failures, CommitFailure{MatchID: mr.Match.ID, Err: err})
			continue
		}
		exec.Committed = append(exec.Committed, mr.Match.ID)
	}

	if err := p.store.RecordRun(ctx, store.Run{
		ID:             runID,
		Seed:           result.Seed,
		Mode:           string(result.Mode),
		LineMode:       string(result.LineMode),
		Iterations:     result.Iterations,
		Scheduled:      len(exec.Committed),
		Failed:         result.Failed,
		CommitFailures: len(exec.Failures),
		AverageQuality: result.AverageQuality(),
	}); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("Failed to record run")
	}

	log.Info().
		Str("run_id", runID).
		Int("committed", len(exec.Committed)).
		Int("commit_failures", len(exec.Failures)).
		Msg("Executed schedule")
	return exec, nil
}

func (p *Planner) run(ctx context.Context, req Request) (string, *schedule.Result, error) {
	if err := p.validate.StructCtx(ctx, req); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	opts := schedule.Options{
		Mode:          req.Mode,
		Iterations:    req.Iterations,
		LineMode:      req.LineMode,
		MatchDuration: p.matchDuration,
	}
	if opts.Mode == "" {
		opts.Mode = schedule.ModeStandard
	}
	if opts.Mode == schedule.ModeOptimized && opts.Iterations == 0 {
		opts.Iterations = p.iterations
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	} else {
		opts.Seed = p.newSeed()
	}

	snap, err := p.snapshot(ctx, req.Scope)
	if err != nil {
		return "", nil, err
	}

	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().
		Int64("seed", opts.Seed).
		Str("mode", string(opts.Mode)).
		Int("matches", len(snap.Matches)).
		Int("committed", len(snap.Committed)).
		Msg("Starting scheduling run")

	opts.Progress = func(s schedule.Status) {
		if s.Phase == schedule.PhaseRunning {
			logger.Debug().Int("iteration", s.Iteration).Int("total", s.Total).Msg("Running trial")
		}
	}
	start := time.Now()
	result, err := schedule.Optimize(ctx, snap, opts)
	if err != nil {
		logger.Error().Err(err).Msg("Scheduling run failed")
		return "", nil, err
	}

	logger.Info().
		Int("scheduled", result.Scheduled).
		Int("failed", result.Failed).
		Float64("average_quality", result.AverageQuality()).
		Int("best_iteration", result.BestIteration).
		Dur("elapsed", time.Since(start)).
		Msg("Finished scheduling run")
	return runID, result, nil
}

// snapshot loads everything a run over scope reads. Matches in scope that
// already hold some bookings are placed again from scratch, so their own
// bookings are left out of the committed set.
func (p *Planner) snapshot(ctx context.Context, scope model.Scope) (*schedule.Snapshot, error) {
	matches, err := p.store.UnscheduledMatches(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("loading unscheduled matches: %w", err)
	}
	scheduled, err := p.store.ScheduledMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading scheduled matches: %w", err)
	}

	pending := make(map[int64]bool, len(matches))
	snap := &schedule.Snapshot{}
	for _, m := range matches {
		pending[m.ID] = true
		m.Bookings = nil
		snap.Matches = append(snap.Matches, m)
	}
	for _, m := range scheduled {
		if !pending[m.ID] {
			snap.Committed = append(snap.Committed, m)
		}
	}

	if err := p.loadReferences(ctx, snap, snap.Matches); err != nil {
		return nil, err
	}
	return snap, nil
}

// loadReferences fills the leagues, teams and facilities that matches refer
// to. Leagues that derive rounds from their matches get the count over the
// whole league, so a match's round window never depends on the scope.
func (p *Planner) loadReferences(ctx context.Context, snap *schedule.Snapshot, matches []model.Match, extraFacilities ...int64) error {
	leagues := make(map[int64]bool)
	teams := make(map[int64]bool)
	facilities := make(map[int64]bool)

	addFacility := func(id int64) error {
		if facilities[id] {
			return nil
		}
		f, err := p.store.Facility(ctx, id)
		if err != nil {
			return fmt.Errorf("loading facility %d: %w", id, err)
		}
		facilities[id] = true
		snap.Facilities = append(snap.Facilities, f)
		return nil
	}

	for _, m := range matches {
		if !leagues[m.LeagueID] {
			l, err := p.store.League(ctx, m.LeagueID)
			if err != nil {
				return fmt.Errorf("loading league %d: %w", m.LeagueID, err)
			}
			leagues[m.LeagueID] = true
			snap.Leagues = append(snap.Leagues, l)
			if l.MatchesPerTeam == 0 {
				n, err := p.store.LeagueRounds(ctx, l.ID)
				if err != nil {
					return fmt.Errorf("loading rounds of league %d: %w", l.ID, err)
				}
				if snap.Rounds == nil {
					snap.Rounds = make(map[int64]int)
				}
				snap.Rounds[l.ID] = n
			}
		}
		for _, tid := range m.Teams() {
			if teams[tid] {
				continue
			}
			t, err := p.store.Team(ctx, tid)
			if err != nil {
				return fmt.Errorf("loading team %d: %w", tid, err)
			}
			teams[tid] = true
			snap.Teams = append(snap.Teams, t)
			for _, fid := range t.FacilityIDs {
				if err := addFacility(fid); err != nil {
					return err
				}
			}
		}
	}
	for _, fid := range extraFacilities {
		if err := addFacility(fid); err != nil {
			return err
		}
	}
	return nil
}

// PreviewSingle checks a manual placement of one match without writing
// anything. The match's current bookings are ignored, so a scheduled match
// can be checked for a move.
func (p *Planner) PreviewSingle(ctx context.Context, req SingleRequest) (*SingleCheck, error) {
	if err := p.validate.StructCtx(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	m, err := p.store.Match(ctx, req.MatchID)
	if err != nil {
		return nil, fmt.Errorf("loading match %d: %w", req.MatchID, err)
	}
	scheduled, err := p.store.ScheduledMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading scheduled matches: %w", err)
	}

	m.Bookings = nil
	snap := &schedule.Snapshot{Matches: []model.Match{m}}
	for _, other := range scheduled {
		if other.ID != m.ID {
			snap.Committed = append(snap.Committed, other)
		}
	}
	if err := p.loadReferences(ctx, snap, snap.Matches, req.FacilityID); err != nil {
		return nil, err
	}

	check, err := schedule.CheckPlacement(snap, schedule.Proposal{
		MatchID:    m.ID,
		FacilityID: req.FacilityID,
		Date:       req.Date,
		Times:      req.Times,
		Mode:       req.Mode,
	}, p.matchDuration)
	if err != nil {
		return nil, err
	}
	return &SingleCheck{
		Feasible:  check.Feasible,
		Quality:   check.Quality,
		InRound:   check.InRound,
		Bookings:  check.Placement.Bookings(),
		Conflicts: check.ConflictMessages(),
	}, nil
}

// Unschedule removes every booking of a match.
func (p *Planner) Unschedule(ctx context.Context, matchID int64) error {
	if err := p.store.ClearAssignment(ctx, matchID); err != nil {
		return fmt.Errorf("unscheduling match %d: %w", matchID, err)
	}
	log.Info().Int64("match_id", matchID).Msg("Unscheduled match")
	return nil
}
