package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"campaign-forecast/internal/calendar"
	"campaign-forecast/internal/domain"
	"campaign-forecast/internal/engine"
	"campaign-forecast/internal/estimator"
	"campaign-forecast/internal/loader"
	"campaign-forecast/internal/randsrc"
)

// Run executes one full simulation: load customers, fit profiles, step the
// campaign, print the summary, and persist the result when a database is
// configured.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	customers, quality, err := a.loadCustomers(ctx, opts)
	if err != nil {
		return err
	}
	if len(customers) == 0 {
		return errors.New("customer population is empty; nothing to simulate")
	}

	sim := a.Config.Simulation
	seed := sim.Seed
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	cal, err := a.newCalendar()
	if err != nil {
		return err
	}

	est := estimator.New(estimator.Params{
		DefaultDailyProbability: sim.DefaultDailyProbability,
		DefaultOrderValue:       sim.DefaultOrderValue,
		MinHistoryDays:          sim.MinHistoryDays,
		MinValueSamples:         sim.MinValueSamples,
		PopulationVariance:      sim.PopulationVariance,
	}, a.Logger)
	profiles := est.Fit(customers)

	eng, err := engine.New(cal, profiles, randsrc.New(seed), quality, engine.Options{
		BaselineWindowDays: sim.BaselineWindowDays,
		Workers:            a.Config.ResolveWorkers(opts.Workers),
		MaxImpactFactor:    sim.MaxImpactFactor,
		MinOrderValue:      sim.MinOrderValue,
	}, a.Logger)
	if err != nil {
		return err
	}

	result, runErr := eng.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	printRunSummary(result)

	if opts.JSONPath != "" {
		if err := writeResultJSON(opts.JSONPath, result); err != nil {
			return err
		}
	}

	if err := a.persistResult(result); err != nil {
		a.Logger.Error().Err(err).Msg("failed to persist run result")
	}

	if errors.Is(runErr, context.Canceled) {
		a.Logger.Warn().Msg("run was cancelled; summary covers completed days only")
	}
	return nil
}

func (a *App) loadCustomers(ctx context.Context, opts RunOptions) ([]domain.CustomerRecord, domain.QualityReport, error) {
	ld := loader.New(loader.Options{
		ReconcileTolerance: a.Config.Simulation.ReconcileTolerance,
	}, a.Logger)

	if a.Config.Input.Source == "postgres" {
		store, closeStore, err := a.openStore(ctx)
		if err != nil {
			return nil, domain.QualityReport{}, err
		}
		if store == nil {
			return nil, domain.QualityReport{}, errors.New("input.source is postgres but database.dsn is not configured")
		}
		defer closeStore()
		return ld.LoadPostgres(ctx, store.Pool())
	}

	path := a.Config.Input.Path
	if opts.InputPath != "" {
		path = opts.InputPath
	}
	return ld.LoadFile(path)
}

func (a *App) newCalendar() (*calendar.Calendar, error) {
	cfg := a.Config
	weekly := make(map[string]calendar.Prize, len(cfg.Calendar.WeeklyPrizes))
	for day, prize := range cfg.Calendar.WeeklyPrizes {
		weekly[day] = calendar.Prize{Name: prize.Name, ImpactIncrease: prize.ImpactIncrease}
	}
	draws := make(map[time.Time]calendar.Prize, len(cfg.Calendar.Draws))
	for _, draw := range cfg.Calendar.Draws {
		draws[draw.Date] = calendar.Prize{Name: draw.Name, ImpactIncrease: draw.ImpactIncrease}
	}

	return calendar.New(calendar.Options{
		CampaignStart:  cfg.Simulation.CampaignStart,
		CampaignEnd:    cfg.Simulation.CampaignEnd,
		BaselineUplift: cfg.Simulation.BaselineUplift,
		WeeklyPrizes:   weekly,
		Draws:          draws,
	})
}

func (a *App) persistResult(result domain.RunResult) error {
	if a.Config.Database.DSN == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	if err := store.SaveRun(ctx, result); err != nil {
		return err
	}
	a.Logger.Info().Str("run_id", result.ID.String()).Msg("run result persisted")
	return nil
}

func printRunSummary(result domain.RunResult) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintf(writer, "Run\t%s\n", result.ID)
	fmt.Fprintf(writer, "Seed\t%d\n", result.Seed)
	fmt.Fprintf(writer, "Baseline window\t%s – %s\n",
		result.BaselineStart.Format(time.DateOnly),
		result.CampaignStart.AddDate(0, 0, -1).Format(time.DateOnly))
	fmt.Fprintf(writer, "Campaign window\t%s – %s\n",
		result.CampaignStart.Format(time.DateOnly),
		result.CampaignEnd.Format(time.DateOnly))
	fmt.Fprintf(writer, "Days simulated\t%d\n", len(result.Days))
	fmt.Fprintf(writer, "Total orders\t%d\n", result.TotalOrders)
	fmt.Fprintf(writer, "Total revenue\t%s\n", result.TotalRevenue.StringFixed(2))
	fmt.Fprintf(writer, "Tickets issued\t%d\n", result.TotalTickets)
	fmt.Fprintf(writer, "Baseline avg/day\t%s\n", result.BaselineAvgDaily.StringFixed(2))
	fmt.Fprintf(writer, "Campaign avg/day\t%s\n", result.CampaignAvgDaily.StringFixed(2))
	fmt.Fprintf(writer, "Lift\t%s (%s%%)\n", result.LiftAbsolute.StringFixed(2), result.LiftPercent.StringFixed(2))
	fmt.Fprintf(writer, "Prize draws\t%d\n", len(result.Awards))
	fmt.Fprintf(writer, "Data quality\t%d skipped orders, %d total mismatches\n",
		result.Quality.SkippedOrders, result.Quality.MismatchedTotals)
	if !result.Completed {
		fmt.Fprintln(writer, "Status\tPARTIAL (run aborted)")
	}

	writer.Flush()
}

func writeResultJSON(path string, result domain.RunResult) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
