// Package loader normalises raw customer and order data into the in-memory
// records the simulation engine consumes. Validation and the total-vs-lines
// reconciliation happen here, once, at the load boundary; per-record issues
// are absorbed into a quality report and never abort a load.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"campaign-forecast/internal/domain"
)

// Options tune loader behaviour.
type Options struct {
	// ReconcileTolerance is the accepted relative gap between an order's
	// total and the sum of its line subtotals, with an absolute floor of
	// 0.01 for rounding noise.
	ReconcileTolerance float64
}

// Loader validates and normalises customer records.
type Loader struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Loader.
func New(opts Options, logger zerolog.Logger) *Loader {
	return &Loader{opts: opts, logger: logger.With().Str("component", "loader").Logger()}
}

type rawOrderLine struct {
	ProductName  string   `json:"product_name"`
	ProductPrice *float64 `json:"product_price"`
	Quantity     int      `json:"quantity"`
}

type rawOrder struct {
	OrderID    int64          `json:"order_id"`
	TotalSpent float64        `json:"total_spent"`
	OrderDate  string         `json:"order_date"`
	OrderLines []rawOrderLine `json:"order_lines"`
}

type rawCustomer struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	CreatedAt string     `json:"created_at"`
	Orders    []rawOrder `json:"historical_purchase_frequency"`
}

// LoadFile reads a JSON customer export and normalises it.
func (l *Loader) LoadFile(path string) ([]domain.CustomerRecord, domain.QualityReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.QualityReport{}, fmt.Errorf("read customer file: %w", err)
	}

	var raws []rawCustomer
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, domain.QualityReport{}, fmt.Errorf("decode customer file: %w", err)
	}

	customers, report := l.normalize(raws)
	return customers, report, nil
}

// normalize converts raw records into validated CustomerRecords. Derived
// fields (spending, average order value, order count) are always recomputed
// from the orders that survive validation; total_spent is authoritative and
// order lines are advisory.
func (l *Loader) normalize(raws []rawCustomer) ([]domain.CustomerRecord, domain.QualityReport) {
	var report domain.QualityReport

	customers := make([]domain.CustomerRecord, 0, len(raws))
	for _, raw := range raws {
		customer := domain.CustomerRecord{
			ID:    raw.ID,
			Email: raw.Email,
		}
		if created, err := parseTimestamp(raw.CreatedAt); err == nil {
			customer.CreatedAt = created
		}

		for _, rawOrd := range raw.Orders {
			order, ok := l.normalizeOrder(raw.ID, rawOrd, &report)
			if !ok {
				report.SkippedOrders++
				continue
			}
			customer.Orders = append(customer.Orders, order)
		}

		finalizeCustomer(&customer)
		customers = append(customers, customer)
	}

	report.CustomersLoaded = len(customers)
	l.logReport(report)
	return customers, report
}

// finalizeCustomer orders the history chronologically and recomputes the
// derived aggregates from the surviving orders.
func finalizeCustomer(customer *domain.CustomerRecord) {
	sort.Slice(customer.Orders, func(i, j int) bool {
		return customer.Orders[i].PlacedAt.Before(customer.Orders[j].PlacedAt)
	})

	spending := decimal.Zero
	for _, order := range customer.Orders {
		spending = spending.Add(order.TotalSpent)
	}
	customer.HistoricalSpending = spending
	customer.TotalOrders = len(customer.Orders)
	if customer.TotalOrders > 0 {
		customer.AverageOrderValue = spending.
			Div(decimal.NewFromInt(int64(customer.TotalOrders))).
			Round(2)
	}
}

func (l *Loader) logReport(report domain.QualityReport) {
	l.logger.Info().
		Int("customers", report.CustomersLoaded).
		Int("skipped_orders", report.SkippedOrders).
		Int("mismatched_totals", report.MismatchedTotals).
		Msg("customer records loaded")
}

func (l *Loader) normalizeOrder(customerID int64, raw rawOrder, report *domain.QualityReport) (domain.OrderRecord, bool) {
	placedAt, err := parseTimestamp(raw.OrderDate)
	if err != nil {
		l.logger.Warn().
			Int64("customer_id", customerID).
			Int64("order_id", raw.OrderID).
			Str("order_date", raw.OrderDate).
			Msg("unparseable order date; order skipped")
		return domain.OrderRecord{}, false
	}
	if raw.TotalSpent < 0 {
		l.logger.Warn().
			Int64("customer_id", customerID).
			Int64("order_id", raw.OrderID).
			Float64("total_spent", raw.TotalSpent).
			Msg("negative order total; order skipped")
		return domain.OrderRecord{}, false
	}

	order := domain.OrderRecord{
		ID:         raw.OrderID,
		TotalSpent: decimal.NewFromFloat(raw.TotalSpent).Round(2),
		PlacedAt:   placedAt,
	}

	linesComplete := true
	for _, rawLine := range raw.OrderLines {
		if rawLine.ProductPrice == nil || *rawLine.ProductPrice < 0 || rawLine.Quantity < 1 {
			linesComplete = false
			continue
		}
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductName: rawLine.ProductName,
			UnitPrice:   decimal.NewFromFloat(*rawLine.ProductPrice).Round(2),
			Quantity:    rawLine.Quantity,
		})
	}

	// Incomplete line data skips the reconciliation check entirely; the
	// order value derivations fall back to total_spent either way.
	if linesComplete {
		l.checkReconciliation(customerID, order, report)
	}

	return order, true
}

// checkReconciliation compares an order's total against its line subtotals.
// Header/footer pricing discrepancies are expected in real exports, so a
// mismatch downgrades to a quality warning and total_spent stays
// authoritative.
func (l *Loader) checkReconciliation(customerID int64, order domain.OrderRecord, report *domain.QualityReport) {
	if len(order.Lines) == 0 || l.reconciles(order) {
		return
	}
	report.MismatchedTotals++
	l.logger.Warn().
		Int64("customer_id", customerID).
		Int64("order_id", order.ID).
		Str("total_spent", order.TotalSpent.String()).
		Str("lines_total", order.LinesTotal().String()).
		Msg("order lines do not reconcile with total; using total_spent")
}

func (l *Loader) reconciles(order domain.OrderRecord) bool {
	diff := order.TotalSpent.Sub(order.LinesTotal()).Abs()
	tolerance := order.TotalSpent.Mul(decimal.NewFromFloat(l.opts.ReconcileTolerance))
	floor := decimal.NewFromFloat(0.01)
	if tolerance.LessThan(floor) {
		tolerance = floor
	}
	return diff.LessThanOrEqual(tolerance)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.000 -0700",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", value)
}
