package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"pizza-ordering-api/models"
	"pizza-ordering-api/pricing"

	"github.com/shopspring/decimal"
)

// OrderSummary is the per-order row of the admin report.
type OrderSummary struct {
	ID        uint      `json:"id"`
	Total     float64   `json:"total"`
	ItemCount int       `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
}

type Totals struct {
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
	Items   int     `json:"items"`
}

type Summary struct {
	Summary Totals         `json:"summary"`
	Orders  []OrderSummary `json:"orders"`
}

func itemCountOf(o models.Order) int {
	if o.ItemCount > 0 {
		return o.ItemCount
	}
	n := 0
	for _, line := range o.Items {
		n += line.Qty
	}
	return n
}

// Summarize totals revenue and item counts over the given orders, keeping
// their order.
func Summarize(orders []models.Order) Summary {
	out := Summary{Orders: make([]OrderSummary, 0, len(orders))}
	revenue := decimal.Zero
	for _, o := range orders {
		row := OrderSummary{
			ID:        o.ID,
			Total:     o.Totals.Total,
			ItemCount: itemCountOf(o),
			CreatedAt: o.CreatedAt,
		}
		out.Orders = append(out.Orders, row)
		revenue = revenue.Add(pricing.Money(row.Total))
		out.Summary.Items += row.ItemCount
	}
	out.Summary.Orders = len(orders)
	out.Summary.Revenue = pricing.Cents(revenue)
	return out
}

var csvHeader = []string{
	"id", "createdAt", "updatedAt", "status", "fulfillmentMethod",
	"customerName", "customerPhone", "customerAddress", "customerEmail",
	"itemCount", "items", "subtotal", "tax", "total",
}

func money(v float64) string {
	return pricing.Money(v).StringFixed(2)
}

func describeItems(items []models.LineItem) string {
	out := ""
	for i, line := range items {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%dx %s", line.Qty, line.Name)
		if line.Meta != "" {
			out += " (" + line.Meta + ")"
		}
	}
	return out
}

// WriteCSV streams one row per order after a header row.
func WriteCSV(w io.Writer, orders []models.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range orders {
		record := []string{
			strconv.FormatUint(uint64(o.ID), 10),
			o.CreatedAt.UTC().Format(time.RFC3339),
			o.UpdatedAt.UTC().Format(time.RFC3339),
			string(o.Status),
			string(o.FulfillmentMethod),
			o.Customer.Name,
			o.Customer.Phone,
			o.Customer.Address,
			o.Customer.Email,
			strconv.Itoa(itemCountOf(o)),
			describeItems(o.Items),
			money(o.Totals.Subtotal),
			money(o.Totals.Tax),
			money(o.Totals.Total),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename names the CSV download for the given day.
func Filename(now time.Time) string {
	return "orders-" + now.UTC().Format("2006-01-02") + ".csv"
}
