package estimator

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"campaign-forecast/internal/domain"
)

func testParams() Params {
	return Params{
		DefaultDailyProbability: 0.01,
		DefaultOrderValue:       35.0,
		MinHistoryDays:          30,
		MinValueSamples:         3,
		PopulationVariance:      25.0,
	}
}

func customerWithOrders(id int64, totals []float64, daysApart int) domain.CustomerRecord {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	customer := domain.CustomerRecord{ID: id}
	spending := decimal.Zero
	for i, total := range totals {
		amount := decimal.NewFromFloat(total)
		customer.Orders = append(customer.Orders, domain.OrderRecord{
			ID:         int64(i + 1),
			TotalSpent: amount,
			PlacedAt:   start.AddDate(0, 0, i*daysApart),
		})
		spending = spending.Add(amount)
	}
	customer.TotalOrders = len(totals)
	customer.HistoricalSpending = spending
	if len(totals) > 0 {
		customer.AverageOrderValue = spending.Div(decimal.NewFromInt(int64(len(totals))))
	}
	return customer
}

func TestZeroHistoryCustomerGetsDefaultProbability(t *testing.T) {
	est := New(testParams(), zerolog.Nop())

	profiles := est.Fit([]domain.CustomerRecord{{ID: 9}})
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	if profiles[0].BaseDailyProbability != 0.01 {
		t.Fatalf("expected default probability 0.01, got %f", profiles[0].BaseDailyProbability)
	}
	if profiles[0].MeanValue != 35.0 {
		t.Fatalf("expected default order value 35, got %f", profiles[0].MeanValue)
	}
}

func TestBaseProbabilityFromHistorySpan(t *testing.T) {
	est := New(testParams(), zerolog.Nop())

	// 5 orders spread over 100 days.
	customer := customerWithOrders(1, []float64{10, 20, 30, 40, 50}, 25)
	profiles := est.Fit([]domain.CustomerRecord{customer})

	want := 5.0 / 100.0
	if math.Abs(profiles[0].BaseDailyProbability-want) > 1e-9 {
		t.Fatalf("expected probability %f, got %f", want, profiles[0].BaseDailyProbability)
	}
}

func TestHistorySpanFloorProtectsSingleOrderCustomers(t *testing.T) {
	est := New(testParams(), zerolog.Nop())

	customer := customerWithOrders(1, []float64{100}, 1)
	profiles := est.Fit([]domain.CustomerRecord{customer})

	want := 1.0 / 30.0
	if math.Abs(profiles[0].BaseDailyProbability-want) > 1e-9 {
		t.Fatalf("expected floored probability %f, got %f", want, profiles[0].BaseDailyProbability)
	}
}

func TestProbabilityIsCappedAtOne(t *testing.T) {
	est := New(testParams(), zerolog.Nop())

	// 90 orders over a span floored to 30 days would exceed 1.
	totals := make([]float64, 90)
	for i := range totals {
		totals[i] = 15
	}
	customer := customerWithOrders(1, totals, 0)
	profiles := est.Fit([]domain.CustomerRecord{customer})

	if profiles[0].BaseDailyProbability != 1.0 {
		t.Fatalf("expected capped probability 1.0, got %f", profiles[0].BaseDailyProbability)
	}
}

func TestThinHistoryFallsBackToPopulationVariance(t *testing.T) {
	est := New(testParams(), zerolog.Nop())

	// One rich history plus one single-order customer. The single-order
	// customer cannot support a variance estimate of its own.
	rich := customerWithOrders(1, []float64{20, 40, 60, 80}, 10)
	thin := customerWithOrders(2, []float64{100}, 1)
	profiles := est.Fit([]domain.CustomerRecord{rich, thin})

	if profiles[1].Sigma <= 0 {
		t.Fatalf("thin history should inherit population spread, got sigma %f", profiles[1].Sigma)
	}
	if profiles[1].MeanValue != 100 {
		t.Fatalf("thin history keeps its own mean, got %f", profiles[1].MeanValue)
	}
}

func TestLogNormalParams(t *testing.T) {
	mu, sigma := logNormalParams(40, 0)
	if sigma != 0 {
		t.Fatalf("zero variance should degenerate to a point mass, sigma %f", sigma)
	}
	if math.Abs(mu-math.Log(40)) > 1e-9 {
		t.Fatalf("expected mu ln(40), got %f", mu)
	}

	mean, variance := 50.0, 400.0
	mu, sigma = logNormalParams(mean, variance)
	sigma2 := sigma * sigma
	gotMean := math.Exp(mu + sigma2/2)
	if math.Abs(gotMean-mean) > 1e-6 {
		t.Fatalf("log-normal expectation should recover the mean: want %f got %f", mean, gotMean)
	}
}
