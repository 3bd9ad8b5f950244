// Package engine steps a population of customer agents through calendar
// time, one simulated day at a time, and aggregates the outcomes into a run
// result. Days are strictly ordered; within a day, agents are evaluated in
// parallel on keyed random sub-streams so the worker count never changes the
// outcome of a given seed.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"campaign-forecast/internal/calendar"
	"campaign-forecast/internal/domain"
	"campaign-forecast/internal/estimator"
	"campaign-forecast/internal/randsrc"
)

// State tracks the engine lifecycle.
type State int

const (
	StateInitialized State = iota
	StateRunning
	StateCompleted
)

// Options tune a simulation run.
type Options struct {
	BaselineWindowDays int
	Workers            int
	MaxImpactFactor    float64
	MinOrderValue      float64
}

// Engine drives one simulation run. It owns the simulation state; agents
// only ever touch their own tallies.
type Engine struct {
	cal    *calendar.Calendar
	agents []*agent
	src    *randsrc.Source
	opts   Options
	logger zerolog.Logger

	state   State
	current time.Time
	agg     *aggregator
	awards  []domain.PrizeAward
	quality domain.QualityReport
}

// New constructs an Engine over the given profiles. Agent iteration order is
// the profile input order and stays fixed for the whole run, which keeps a
// given seed reproducible.
func New(cal *calendar.Calendar, profiles []estimator.Profile, src *randsrc.Source, quality domain.QualityReport, opts Options, logger zerolog.Logger) (*Engine, error) {
	if cal == nil {
		return nil, fmt.Errorf("calendar is required")
	}
	if src == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxImpactFactor < 1 {
		opts.MaxImpactFactor = 1
	}
	if opts.BaselineWindowDays < 0 {
		return nil, fmt.Errorf("baseline window cannot be negative")
	}

	agents := make([]*agent, 0, len(profiles))
	for _, profile := range profiles {
		agents = append(agents, newAgent(profile, opts.MaxImpactFactor, opts.MinOrderValue))
	}

	return &Engine{
		cal:     cal,
		agents:  agents,
		src:     src,
		opts:    opts,
		logger:  logger.With().Str("component", "engine").Logger(),
		state:   StateInitialized,
		current: cal.Start().AddDate(0, 0, -opts.BaselineWindowDays),
		agg:     newAggregator(),
		quality: quality,
	}, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Run executes the simulation from the baseline window start through the
// campaign end. Cancellation is honoured between days, never mid-day: an
// aborted run still returns a partial result consistent through the last
// fully aggregated day, alongside the context error.
func (e *Engine) Run(ctx context.Context) (domain.RunResult, error) {
	if e.state != StateInitialized {
		return domain.RunResult{}, fmt.Errorf("engine already ran")
	}
	e.state = StateRunning

	start := e.current
	end := e.cal.End()
	e.logger.Info().
		Time("from", start).
		Time("to", end).
		Int("agents", len(e.agents)).
		Int("workers", e.opts.Workers).
		Uint64("seed", e.src.Seed()).
		Msg("simulation started")

	for ; !e.current.After(end); e.current = e.current.AddDate(0, 0, 1) {
		select {
		case <-ctx.Done():
			e.logger.Warn().Time("date", e.current).Msg("run aborted; returning partial result")
			return e.finalize(false), ctx.Err()
		default:
		}

		eff := e.cal.EffectFor(e.current)
		outcomes := e.stepDay(e.current, eff)
		e.agg.recordDay(e.current, outcomes)

		if eff.Prize != nil {
			e.drawPrize(e.current, *eff.Prize)
		}

		e.logger.Debug().
			Time("date", e.current).
			Int("orders", len(outcomes)).
			Msg("day simulated")
	}

	return e.finalize(true), nil
}

// stepDay evaluates every agent for one day. Results land in a slice indexed
// by agent position and are merged in that fixed order, so per-day totals are
// identical no matter how the goroutines interleave.
func (e *Engine) stepDay(date time.Time, eff calendar.Effect) []domain.OrderOutcome {
	results := make([]*domain.OrderOutcome, len(e.agents))

	if e.opts.Workers == 1 {
		for i, a := range e.agents {
			results[i] = a.step(date, eff, e.src.Agent(a.profile.CustomerID, date))
		}
	} else {
		var group errgroup.Group
		group.SetLimit(e.opts.Workers)
		for i, a := range e.agents {
			group.Go(func() error {
				results[i] = a.step(date, eff, e.src.Agent(a.profile.CustomerID, date))
				return nil
			})
		}
		// Agent steps never fail; the group is used purely for bounded
		// fan-out and joining.
		_ = group.Wait()
	}

	outcomes := make([]domain.OrderOutcome, 0, len(results))
	for _, outcome := range results {
		if outcome != nil {
			outcomes = append(outcomes, *outcome)
		}
	}
	return outcomes
}

// drawPrize raffles the day's prize among agents, weighted by their
// cumulative ticket counts, and boosts the winner's impact factor. The draw
// uses a scheduler-level sub-stream keyed by date alone so it never perturbs
// any agent stream.
func (e *Engine) drawPrize(date time.Time, prize calendar.Prize) {
	totalTickets := 0
	for _, a := range e.agents {
		totalTickets += a.tickets
	}
	if totalTickets == 0 {
		return
	}

	rng := e.src.Stream("raffle", date)
	pick := rng.Int64N(int64(totalTickets))
	for _, a := range e.agents {
		pick -= int64(a.tickets)
		if pick < 0 {
			a.boostImpact(prize.ImpactIncrease)
			e.awards = append(e.awards, domain.PrizeAward{
				Date:       date,
				Prize:      prize.Name,
				CustomerID: a.profile.CustomerID,
			})
			e.logger.Debug().
				Time("date", date).
				Str("prize", prize.Name).
				Int64("customer_id", a.profile.CustomerID).
				Msg("raffle prize awarded")
			return
		}
	}
}

func (e *Engine) finalize(completed bool) domain.RunResult {
	e.state = StateCompleted

	result := e.agg.finalize(
		e.src.Seed(),
		e.cal.Start().AddDate(0, 0, -e.opts.BaselineWindowDays),
		e.cal.Start(),
		e.cal.End(),
		completed,
	)
	result.Awards = e.awards
	result.Quality = e.quality

	e.logger.Info().
		Bool("completed", completed).
		Int("days", len(result.Days)).
		Int("orders", result.TotalOrders).
		Str("revenue", result.TotalRevenue.String()).
		Str("lift_pct", result.LiftPercent.String()).
		Msg("simulation finished")

	return result
}
