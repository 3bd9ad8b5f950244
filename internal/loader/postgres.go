package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"campaign-forecast/internal/domain"
)

const (
	selectCustomersSQL = `SELECT
        id,
        email,
        created_at
    FROM customers
    ORDER BY id;`

	selectOrdersSQL = `SELECT
        o.id,
        o.customer_id,
        o.total_spent::text,
        o.placed_at
    FROM orders o
    ORDER BY o.customer_id, o.placed_at, o.id;`

	selectOrderLinesSQL = `SELECT
        ol.order_id,
        pv.name,
        ol.unit_price::text,
        ol.quantity
    FROM order_lines ol
    JOIN product_variants pv ON pv.id = ol.product_variant_id
    ORDER BY ol.order_id, ol.id;`
)

// LoadPostgres extracts customers, orders, and order lines from the
// warehouse and applies the same validation and reconciliation as file
// input.
func (l *Loader) LoadPostgres(ctx context.Context, pool *pgxpool.Pool) ([]domain.CustomerRecord, domain.QualityReport, error) {
	var report domain.QualityReport

	customers, index, err := l.fetchCustomers(ctx, pool)
	if err != nil {
		return nil, report, err
	}

	orderOwner, err := l.fetchOrders(ctx, pool, customers, index, &report)
	if err != nil {
		return nil, report, err
	}

	if err := l.fetchOrderLines(ctx, pool, customers, orderOwner); err != nil {
		return nil, report, err
	}

	for i := range customers {
		for _, order := range customers[i].Orders {
			l.checkReconciliation(customers[i].ID, order, &report)
		}
		finalizeCustomer(&customers[i])
	}

	report.CustomersLoaded = len(customers)
	l.logReport(report)
	return customers, report, nil
}

func (l *Loader) fetchCustomers(ctx context.Context, pool *pgxpool.Pool) ([]domain.CustomerRecord, map[int64]int, error) {
	rows, err := pool.Query(ctx, selectCustomersSQL)
	if err != nil {
		return nil, nil, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.CustomerRecord
	index := make(map[int64]int)
	for rows.Next() {
		var customer domain.CustomerRecord
		if err := rows.Scan(&customer.ID, &customer.Email, &customer.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan customer: %w", err)
		}
		index[customer.ID] = len(customers)
		customers = append(customers, customer)
	}
	if rows.Err() != nil {
		return nil, nil, rows.Err()
	}
	return customers, index, nil
}

// fetchOrders attaches orders to their customers and returns a map from
// order id to the owning customer's index, used to route order lines.
func (l *Loader) fetchOrders(ctx context.Context, pool *pgxpool.Pool, customers []domain.CustomerRecord, index map[int64]int, report *domain.QualityReport) (map[int64]int, error) {
	rows, err := pool.Query(ctx, selectOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	owner := make(map[int64]int)
	for rows.Next() {
		var (
			orderID    int64
			customerID int64
			totalStr   string
			placedAt   time.Time
		)
		if err := rows.Scan(&orderID, &customerID, &totalStr, &placedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		idx, ok := index[customerID]
		if !ok {
			report.SkippedOrders++
			l.logger.Warn().Int64("order_id", orderID).Int64("customer_id", customerID).
				Msg("order references unknown customer; order skipped")
			continue
		}

		total, convErr := decimal.NewFromString(totalStr)
		if convErr != nil || total.IsNegative() {
			report.SkippedOrders++
			l.logger.Warn().Int64("order_id", orderID).Str("total_spent", totalStr).
				Msg("unusable order total; order skipped")
			continue
		}

		owner[orderID] = idx
		customers[idx].Orders = append(customers[idx].Orders, domain.OrderRecord{
			ID:         orderID,
			TotalSpent: total.Round(2),
			PlacedAt:   placedAt.UTC(),
		})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return owner, nil
}

func (l *Loader) fetchOrderLines(ctx context.Context, pool *pgxpool.Pool, customers []domain.CustomerRecord, owner map[int64]int) error {
	rows, err := pool.Query(ctx, selectOrderLinesSQL)
	if err != nil {
		return fmt.Errorf("select order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID  int64
			name     string
			priceStr string
			quantity int
		)
		if err := rows.Scan(&orderID, &name, &priceStr, &quantity); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}

		idx, ok := owner[orderID]
		if !ok {
			continue
		}

		price, convErr := decimal.NewFromString(priceStr)
		if convErr != nil || price.IsNegative() || quantity < 1 {
			continue
		}

		orders := customers[idx].Orders
		for i := range orders {
			if orders[i].ID == orderID {
				orders[i].Lines = append(orders[i].Lines, domain.OrderLine{
					ProductName: name,
					UnitPrice:   price.Round(2),
					Quantity:    quantity,
				})
				break
			}
		}
	}
	return rows.Err()
}
