package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints recently persisted runs.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show runs")
	}
	if closeStore != nil {
		defer closeStore()
	}

	runs, err := store.ListRecentRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "no runs found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Created (UTC)\tRun\tSeed\tCampaign\tOrders\tRevenue\tTickets\tLift\tLift%\tStatus")

	for _, run := range runs {
		status := "complete"
		if !run.Completed {
			status = "partial"
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%d\t%s – %s\t%d\t%s\t%d\t%s\t%s\t%s\n",
			run.CreatedAt.UTC().Format(time.RFC3339),
			shortID(run.ID.String()),
			run.Seed,
			run.CampaignStart.Format(time.DateOnly),
			run.CampaignEnd.Format(time.DateOnly),
			run.TotalOrders,
			run.TotalRevenue.StringFixed(2),
			run.TotalTickets,
			run.LiftAbsolute.StringFixed(2),
			run.LiftPercent.StringFixed(2),
			status,
		)
	}

	writer.Flush()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
