package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func writeDataset(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func newTestLoader() *Loader {
	return New(Options{ReconcileTolerance: 0.01}, zerolog.Nop())
}

func TestLoadFileRecomputesDerivedFields(t *testing.T) {
	path := writeDataset(t, `[
      {
        "id": 1,
        "email": "a@example.com",
        "created_at": "2024-01-10",
        "historical_purchase_frequency": [
          {
            "order_id": 2,
            "total_spent": 60.0,
            "order_date": "2025-03-01",
            "order_lines": [
              {"product_name": "Brazil Santos", "product_price": 30.0, "quantity": 2}
            ]
          },
          {
            "order_id": 1,
            "total_spent": 40.0,
            "order_date": "2025-01-01",
            "order_lines": [
              {"product_name": "House Espresso", "product_price": 20.0, "quantity": 2}
            ]
          }
        ]
      }
    ]`)

	customers, report, err := newTestLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("load should succeed: %v", err)
	}
	if len(customers) != 1 {
		t.Fatalf("expected 1 customer, got %d", len(customers))
	}

	customer := customers[0]
	if customer.TotalOrders != 2 {
		t.Fatalf("expected 2 orders, got %d", customer.TotalOrders)
	}
	if !customer.HistoricalSpending.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected spending 100, got %s", customer.HistoricalSpending)
	}
	if !customer.AverageOrderValue.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected average 50, got %s", customer.AverageOrderValue)
	}
	if !customer.Orders[0].PlacedAt.Before(customer.Orders[1].PlacedAt) {
		t.Fatal("orders should be sorted chronologically")
	}
	if report.SkippedOrders != 0 || report.MismatchedTotals != 0 {
		t.Fatalf("clean dataset should report no issues: %+v", report)
	}
}

func TestMismatchedLinesAreWarnedNotFatal(t *testing.T) {
	path := writeDataset(t, `[
      {
        "id": 1,
        "email": "a@example.com",
        "created_at": "2024-01-10",
        "historical_purchase_frequency": [
          {
            "order_id": 1,
            "total_spent": 100.0,
            "order_date": "2025-01-01",
            "order_lines": [
              {"product_name": "Ceramic Cup", "product_price": 10.0, "quantity": 2}
            ]
          }
        ]
      }
    ]`)

	customers, report, err := newTestLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("load should succeed: %v", err)
	}
	if report.MismatchedTotals != 1 {
		t.Fatalf("expected 1 mismatch, got %d", report.MismatchedTotals)
	}

	// total_spent stays authoritative for all derivations.
	if !customers[0].HistoricalSpending.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("spending should follow total_spent, got %s", customers[0].HistoricalSpending)
	}
}

func TestMalformedOrdersAreSkippedNotFatal(t *testing.T) {
	path := writeDataset(t, `[
      {
        "id": 1,
        "email": "a@example.com",
        "created_at": "2024-01-10",
        "historical_purchase_frequency": [
          {"order_id": 1, "total_spent": 40.0, "order_date": "not-a-date", "order_lines": []},
          {"order_id": 2, "total_spent": -5.0, "order_date": "2025-01-01", "order_lines": []},
          {"order_id": 3, "total_spent": 25.0, "order_date": "2025-02-01", "order_lines": []}
        ]
      }
    ]`)

	customers, report, err := newTestLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("load should succeed: %v", err)
	}
	if report.SkippedOrders != 2 {
		t.Fatalf("expected 2 skipped orders, got %d", report.SkippedOrders)
	}
	if customers[0].TotalOrders != 1 {
		t.Fatalf("expected the valid order to survive, got %d", customers[0].TotalOrders)
	}
}

func TestIncompleteLinesSkipReconciliation(t *testing.T) {
	path := writeDataset(t, `[
      {
        "id": 1,
        "email": "a@example.com",
        "created_at": "2024-01-10",
        "historical_purchase_frequency": [
          {
            "order_id": 1,
            "total_spent": 100.0,
            "order_date": "2025-01-01",
            "order_lines": [
              {"product_name": "Unknown", "product_price": null, "quantity": 1}
            ]
          }
        ]
      }
    ]`)

	_, report, err := newTestLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("load should succeed: %v", err)
	}
	if report.MismatchedTotals != 0 {
		t.Fatalf("incomplete lines should not count as mismatch, got %d", report.MismatchedTotals)
	}
	if report.SkippedOrders != 0 {
		t.Fatalf("order with incomplete lines should still load, got %d skips", report.SkippedOrders)
	}
}

func TestTolerantReconciliationAcceptsRoundingNoise(t *testing.T) {
	path := writeDataset(t, `[
      {
        "id": 1,
        "email": "a@example.com",
        "created_at": "2024-01-10",
        "historical_purchase_frequency": [
          {
            "order_id": 1,
            "total_spent": 100.0,
            "order_date": "2025-01-01",
            "order_lines": [
              {"product_name": "Colombia Supremo", "product_price": 33.33, "quantity": 3}
            ]
          }
        ]
      }
    ]`)

	_, report, err := newTestLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("load should succeed: %v", err)
	}
	if report.MismatchedTotals != 0 {
		t.Fatalf("0.01 gap within tolerance should not count, got %d", report.MismatchedTotals)
	}
}
