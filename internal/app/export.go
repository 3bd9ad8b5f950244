package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	chart "github.com/wcharczuk/go-chart/v2"

	"campaign-forecast/internal/domain"
)

// Export renders a persisted run's daily series as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	runID, err := a.resolveRunID(ctx, store, opts.RunID)
	if err != nil {
		return err
	}

	days, err := store.ListRunDays(ctx, runID)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		a.Logger.Info().Str("run_id", runID.String()).Msg("run has no daily series to export")
		return nil
	}

	downsampled := downsampleDays(days, opts.MaxPoints)
	a.Logger.Info().
		Str("run_id", runID.String()).
		Int("total", len(days)).
		Int("exported", len(downsampled)).
		Msg("exporting daily series")

	if opts.CSVPath != "" {
		if err := writeDaysCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeDaysPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) resolveRunID(ctx context.Context, store interface {
	LatestRunID(context.Context) (uuid.UUID, error)
}, raw string) (uuid.UUID, error) {
	if raw == "" {
		id, err := store.LatestRunID(ctx)
		if err != nil {
			return uuid.Nil, fmt.Errorf("resolve latest run: %w", err)
		}
		return id, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --run value: %w", err)
	}
	return id, nil
}

func downsampleDays(days []domain.DailyTotal, max int) []domain.DailyTotal {
	if max <= 0 || len(days) <= max {
		return days
	}

	result := make([]domain.DailyTotal, 0, max)
	step := float64(len(days)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(days) {
			idx = len(days) - 1
		}
		result = append(result, days[idx])
	}
	return result
}

func writeDaysCSV(path string, days []domain.DailyTotal) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"day", "orders", "revenue", "tickets"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, day := range days {
		record := []string{
			day.Date.Format(time.DateOnly),
			fmt.Sprintf("%d", day.Orders),
			day.Revenue.String(),
			fmt.Sprintf("%d", day.Tickets),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeDaysPNG(path string, days []domain.DailyTotal) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(days))
	revenue := make([]float64, len(days))
	orders := make([]float64, len(days))

	for i, day := range days {
		x[i] = day.Date
		revenue[i] = day.Revenue.InexactFloat64()
		orders[i] = float64(day.Orders)
	}

	valueFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Revenue",
			ValueFormatter: valueFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Orders",
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Revenue",
				XValues: x,
				YValues: revenue,
			},
			chart.TimeSeries{
				Name:    "Orders",
				XValues: x,
				YValues: orders,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
