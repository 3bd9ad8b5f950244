package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"time"
)

// catalogItem is one product the synthetic generator can place on an order
// line, with a weight governing how often it shows up.
type catalogItem struct {
	Name   string
	Price  float64
	Weight int
}

var exampleCatalog = []catalogItem{
	{Name: "Brazil Santos", Price: 18.50, Weight: 9},
	{Name: "Ethiopia Yirgacheffe", Price: 24.00, Weight: 7},
	{Name: "Colombia Supremo", Price: 21.00, Weight: 8},
	{Name: "Guatemala Antigua", Price: 22.50, Weight: 5},
	{Name: "Caramel Blend", Price: 16.00, Weight: 6},
	{Name: "Hazelnut Blend", Price: 16.00, Weight: 4},
	{Name: "House Espresso", Price: 14.50, Weight: 10},
	{Name: "Decaf Evening", Price: 15.00, Weight: 2},
	{Name: "Ceramic Cup", Price: 9.90, Weight: 3},
	{Name: "Metal Capsule Holder", Price: 29.00, Weight: 1},
}

type generatedLine struct {
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
	Quantity     int     `json:"quantity"`
}

type generatedOrder struct {
	OrderID    int64           `json:"order_id"`
	TotalSpent float64         `json:"total_spent"`
	OrderDate  string          `json:"order_date"`
	OrderLines []generatedLine `json:"order_lines"`
}

type generatedCustomer struct {
	ID        int64            `json:"id"`
	Email     string           `json:"email"`
	CreatedAt string           `json:"created_at"`
	Orders    []generatedOrder `json:"historical_purchase_frequency"`
}

// Generate writes a synthetic customer dataset usable as simulation input.
// The output is deterministic for a given seed, which makes the generated
// files usable as test fixtures.
func (a *App) Generate(opts GenerateOptions) error {
	if opts.Customers <= 0 {
		return errors.New("--customers must be greater than zero")
	}
	if !opts.From.Before(opts.To) {
		return errors.New("history window is empty; --from must be before --to")
	}

	rng := rand.New(rand.NewPCG(opts.Seed, uint64(opts.Customers)))
	windowDays := int(opts.To.Sub(opts.From).Hours() / 24)

	customers := make([]generatedCustomer, 0, opts.Customers)
	orderID := int64(1)
	for i := 0; i < opts.Customers; i++ {
		customer := generatedCustomer{
			ID:        int64(i + 1),
			Email:     fmt.Sprintf("customer%d@example.com", i+1),
			CreatedAt: opts.From.Format(time.DateOnly),
		}

		// Roughly a fifth of the population has no history, mirroring
		// freshly acquired customers.
		orderCount := 0
		if rng.Float64() >= 0.2 {
			orderCount = 1 + rng.IntN(12)
		}

		offsets := make([]int, orderCount)
		for j := range offsets {
			offsets[j] = rng.IntN(windowDays)
		}
		sort.Ints(offsets)

		for _, offset := range offsets {
			order := a.generateOrder(rng, orderID, opts.From.AddDate(0, 0, offset))
			customer.Orders = append(customer.Orders, order)
			orderID++
		}

		customers = append(customers, customer)
	}

	if err := ensureDir(opts.OutPath); err != nil {
		return err
	}
	file, err := os.Create(opts.OutPath)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(customers); err != nil {
		return err
	}

	a.Logger.Info().
		Str("path", opts.OutPath).
		Int("customers", len(customers)).
		Uint64("seed", opts.Seed).
		Msg("example dataset generated")
	return nil
}

func (a *App) generateOrder(rng *rand.Rand, orderID int64, date time.Time) generatedOrder {
	lineCount := 1 + rng.IntN(3)
	order := generatedOrder{
		OrderID:   orderID,
		OrderDate: date.Format(time.DateOnly),
	}

	total := 0.0
	for i := 0; i < lineCount; i++ {
		item := pickCatalogItem(rng)
		quantity := 1 + rng.IntN(3)
		order.OrderLines = append(order.OrderLines, generatedLine{
			ProductName:  item.Name,
			ProductPrice: item.Price,
			Quantity:     quantity,
		})
		total += item.Price * float64(quantity)
	}

	order.TotalSpent = roundCents(total)
	return order
}

func pickCatalogItem(rng *rand.Rand) catalogItem {
	totalWeight := 0
	for _, item := range exampleCatalog {
		totalWeight += item.Weight
	}
	pick := rng.IntN(totalWeight)
	for _, item := range exampleCatalog {
		pick -= item.Weight
		if pick < 0 {
			return item
		}
	}
	return exampleCatalog[len(exampleCatalog)-1]
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
