package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is a single product position inside an order.
type OrderLine struct {
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Subtotal returns price times quantity for this line.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderRecord is one historical customer order. TotalSpent is authoritative;
// order lines are advisory and may not reconcile exactly with it.
type OrderRecord struct {
	ID         int64
	TotalSpent decimal.Decimal
	PlacedAt   time.Time
	Lines      []OrderLine
}

// LinesTotal sums the line subtotals.
func (o OrderRecord) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// CustomerRecord is a customer with their full order history. Records are
// immutable once loaded; the derived fields are recomputed at load time from
// the orders that survived validation.
type CustomerRecord struct {
	ID                 int64
	Email              string
	CreatedAt          time.Time
	Orders             []OrderRecord
	HistoricalSpending decimal.Decimal
	AverageOrderValue  decimal.Decimal
	TotalOrders        int
}

// QualityReport aggregates per-record data issues observed during loading.
// None of these abort a run.
type QualityReport struct {
	CustomersLoaded  int
	SkippedOrders    int
	MismatchedTotals int
}
