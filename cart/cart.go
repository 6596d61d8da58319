package cart

import (
	"math"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/models"
	"pizza-ordering-api/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const CustomPizzaName = "Custom Pizza"

// Cart is the ordered list of lines bound to one session. The zero value is an
// empty cart. No two lines share (name, meta).
type Cart struct {
	Items []models.LineItem `json:"items"`
}

// Summary is what the cart endpoints report alongside the lines.
type Summary struct {
	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
}

// Adjustment changes a line's quantity by a signed delta or to an absolute
// qty. Delta wins when both are numeric.
type Adjustment struct {
	Delta models.Number `json:"delta"`
	Qty   models.Number `json:"qty"`
}

// StandardInput is a preset (or otherwise pre-priced) line.
type StandardInput struct {
	Name  string        `json:"name"`
	Meta  string        `json:"meta"`
	Price models.Number `json:"price"`
	Qty   models.Number `json:"qty"`
}

func invalidQuantity() error { return apperrors.Validation("Invalid quantity value") }

func itemNotFound() error { return apperrors.NotFound("Cart item not found") }

// wholeQuantity converts a posted quantity to a positive count.
func wholeQuantity(n models.Number) (int, bool) {
	if !n.Valid {
		return 0, false
	}
	q := math.Floor(n.Value)
	if q < 1 || q > math.MaxInt32 {
		return 0, false
	}
	return int(q), true
}

// CheckCustomQuantity rejects an explicitly posted quantity that is not a
// positive number. An absent quantity means one pizza.
func CheckCustomQuantity(n models.Number) error {
	if !n.Set {
		return nil
	}
	if _, ok := wholeQuantity(n); !ok {
		return invalidQuantity()
	}
	return nil
}

// Len is the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.Items)
}

// Lines returns a copy of the lines.
func (c *Cart) Lines() []models.LineItem {
	out := make([]models.LineItem, len(c.Items))
	copy(out, c.Items)
	return out
}

// Summary computes subtotal = Σ price×qty and total = subtotal×(1+taxRate), both at cents.
func (c *Cart) Summary(taxRate float64) Summary {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(pricing.Money(item.Price).Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	total := subtotal.Mul(decimal.NewFromInt(1).Add(pricing.Money(taxRate)))
	return Summary{Subtotal: pricing.Cents(subtotal), Total: pricing.Cents(total)}
}

// AddCustom inserts a configured pizza priced by the pricing engine.
func (c *Cart) AddCustom(quote pricing.Quote) (models.LineItem, error) {
	if quote.Total <= 0 || quote.Quantity <= 0 {
		return models.LineItem{}, apperrors.Validation("Invalid pricing result for custom pizza")
	}
	return c.insert(models.LineItem{
		Name:  CustomPizzaName,
		Meta:  quote.Describe(),
		Price: quote.UnitPrice(),
		Qty:   quote.Quantity,
	}), nil
}

// AddStandard inserts a pre-priced line. A missing qty means one.
func (c *Cart) AddStandard(in StandardInput) (models.LineItem, error) {
	if in.Name == "" || !in.Price.Positive() {
		return models.LineItem{}, apperrors.Validation("Invalid cart item payload")
	}
	price := pricing.RoundCents(in.Price.Value)
	if price <= 0 {
		return models.LineItem{}, apperrors.Validation("Invalid cart item payload")
	}
	qty := 1
	if in.Qty.Set {
		var ok bool
		if qty, ok = wholeQuantity(in.Qty); !ok {
			return models.LineItem{}, invalidQuantity()
		}
	}
	return c.insert(models.LineItem{
		Name:  in.Name,
		Meta:  in.Meta,
		Price: price,
		Qty:   qty,
	}), nil
}

// insert merges into the line with the same (name, meta) or appends a new one.
func (c *Cart) insert(line models.LineItem) models.LineItem {
	for i := range c.Items {
		if c.Items[i].Name == line.Name && c.Items[i].Meta == line.Meta {
			c.Items[i].Qty += line.Qty
			return c.Items[i]
		}
	}
	line.ID = uuid.NewString()
	c.Items = append(c.Items, line)
	return line
}

func (c *Cart) indexOf(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Adjust applies a delta or absolute quantity. A result of zero or less
// removes the line.
func (c *Cart) Adjust(id string, adj Adjustment) error {
	index := c.indexOf(id)
	if index < 0 {
		return itemNotFound()
	}

	var next float64
	switch {
	case adj.Delta.Valid:
		next = float64(c.Items[index].Qty) + math.Trunc(adj.Delta.Value)
	case adj.Qty.Valid:
		next = math.Floor(adj.Qty.Value)
	case adj.Delta.Set || adj.Qty.Set:
		return invalidQuantity()
	default:
		return apperrors.Validation("No update value provided")
	}
	if math.IsNaN(next) || math.IsInf(next, 0) || next > math.MaxInt32 {
		return invalidQuantity()
	}

	if next <= 0 {
		c.removeAt(index)
		return nil
	}
	c.Items[index].Qty = int(next)
	return nil
}

// Remove deletes a line by id.
func (c *Cart) Remove(id string) error {
	index := c.indexOf(id)
	if index < 0 {
		return itemNotFound()
	}
	c.removeAt(index)
	return nil
}

func (c *Cart) removeAt(index int) {
	c.Items = append(c.Items[:index], c.Items[index+1:]...)
	if len(c.Items) == 0 {
		c.Items = nil
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}
