// Package estimator derives each customer's purchase profile from their
// historical orders: a base daily order probability and the parameters of a
// log-normal order-value distribution.
package estimator

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"

	"campaign-forecast/internal/domain"
)

// Params tune the estimation. Zero-history customers receive
// DefaultDailyProbability so new-customer acquisition during the campaign
// stays possible.
type Params struct {
	DefaultDailyProbability float64
	DefaultOrderValue       float64
	MinHistoryDays          int
	MinValueSamples         int
	// PopulationVariance backstops the spread estimate when the whole
	// population offers fewer than MinValueSamples order totals.
	PopulationVariance float64
}

// Profile is the derived purchase behaviour of one customer. Immutable for
// the duration of a run; shared read-only with the customer's agent.
type Profile struct {
	CustomerID int64

	// BaseDailyProbability is the chance of an order on an arbitrary
	// non-campaign day, within [0,1].
	BaseDailyProbability float64

	// MeanValue, Mu and Sigma parameterise the log-normal order-value
	// distribution: a sampled value is exp(Mu + Sigma*N(0,1)) with
	// expectation MeanValue.
	MeanValue float64
	Mu        float64
	Sigma     float64
}

// Estimator converts customer records into purchase profiles.
type Estimator struct {
	params Params
	logger zerolog.Logger
}

// New constructs an Estimator.
func New(params Params, logger zerolog.Logger) *Estimator {
	return &Estimator{
		params: params,
		logger: logger.With().Str("component", "estimator").Logger(),
	}
}

// Fit derives one profile per customer, in input order. Customers with thin
// histories fall back to population-wide statistics.
func (e *Estimator) Fit(customers []domain.CustomerRecord) []Profile {
	popMean, popVariance := e.populationStats(customers)

	profiles := make([]Profile, 0, len(customers))
	for _, customer := range customers {
		profiles = append(profiles, e.fitCustomer(customer, popMean, popVariance))
	}

	e.logger.Debug().
		Int("customers", len(customers)).
		Float64("population_mean", popMean).
		Float64("population_variance", popVariance).
		Msg("profiles fitted")

	return profiles
}

func (e *Estimator) fitCustomer(customer domain.CustomerRecord, popMean, popVariance float64) Profile {
	profile := Profile{
		CustomerID:           customer.ID,
		BaseDailyProbability: e.baseProbability(customer),
	}

	mean := customer.AverageOrderValue.InexactFloat64()
	if mean <= 0 {
		mean = popMean
	}
	if mean <= 0 {
		mean = e.params.DefaultOrderValue
	}

	variance := popVariance
	if len(customer.Orders) >= e.params.MinValueSamples {
		if v, err := stats.Variance(orderTotals(customer.Orders)); err == nil {
			variance = v
		}
	}
	if variance < 0 {
		variance = 0
	}

	profile.MeanValue = mean
	profile.Mu, profile.Sigma = logNormalParams(mean, variance)
	return profile
}

// baseProbability estimates orders-per-day from the span of observed
// history, floored at MinHistoryDays so single-order customers do not come
// out as daily buyers.
func (e *Estimator) baseProbability(customer domain.CustomerRecord) float64 {
	if customer.TotalOrders == 0 || len(customer.Orders) == 0 {
		return e.params.DefaultDailyProbability
	}

	first := customer.Orders[0].PlacedAt
	last := customer.Orders[len(customer.Orders)-1].PlacedAt
	spanDays := int(last.Sub(first).Hours() / 24)
	if spanDays < e.params.MinHistoryDays {
		spanDays = e.params.MinHistoryDays
	}

	p := float64(customer.TotalOrders) / float64(spanDays)
	if p > 1 {
		p = 1
	}
	return p
}

// populationStats returns mean and variance of order totals across the whole
// population, falling back to configured defaults when the sample is too
// thin.
func (e *Estimator) populationStats(customers []domain.CustomerRecord) (float64, float64) {
	var totals []float64
	for _, customer := range customers {
		totals = append(totals, orderTotals(customer.Orders)...)
	}

	mean := e.params.DefaultOrderValue
	variance := e.params.PopulationVariance

	if len(totals) > 0 {
		if m, err := stats.Mean(totals); err == nil && m > 0 {
			mean = m
		}
	}
	if len(totals) >= e.params.MinValueSamples {
		if v, err := stats.Variance(totals); err == nil {
			variance = v
		}
	}
	return mean, variance
}

func orderTotals(orders []domain.OrderRecord) []float64 {
	totals := make([]float64, 0, len(orders))
	for _, order := range orders {
		totals = append(totals, order.TotalSpent.InexactFloat64())
	}
	return totals
}

// logNormalParams converts an observed mean and variance into log-space
// parameters. A zero variance degenerates to a point mass at the mean.
func logNormalParams(mean, variance float64) (mu, sigma float64) {
	if mean <= 0 {
		return 0, 0
	}
	if variance <= 0 {
		return math.Log(mean), 0
	}
	sigma2 := math.Log(1 + variance/(mean*mean))
	mu = math.Log(mean) - sigma2/2
	return mu, math.Sqrt(sigma2)
}
