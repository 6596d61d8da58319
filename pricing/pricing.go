package pricing

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/catalog"
	"pizza-ordering-api/models"

	"github.com/shopspring/decimal"
)

// IDList accepts either a JSON array of ids or a single id string.
type IDList []string

func (l *IDList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var one string
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		if one == "" {
			*l = nil
		} else {
			*l = IDList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Request is a pizza configuration. Every id is optional; missing ids fall
// back to the configured defaults. Toppings may arrive as "toppings" (price
// preview) or "toppingIds" (cart insert).
type Request struct {
	SizeID     string        `json:"sizeId"`
	BaseID     string        `json:"baseId"`
	SauceID    string        `json:"sauceId"`
	CheeseID   string        `json:"cheeseId"`
	Toppings   IDList        `json:"toppings"`
	ToppingIDs IDList        `json:"toppingIds"`
	Quantity   models.Number `json:"quantity"`
}

// ToppingList returns the toppings in request order.
func (r Request) ToppingList() []string {
	if len(r.Toppings) > 0 {
		return r.Toppings
	}
	return r.ToppingIDs
}

// EffectiveQuantity is the requested quantity, or 1 when absent, non-numeric or not positive.
func (r Request) EffectiveQuantity() int {
	if !r.Quantity.Valid {
		return 1
	}
	q := math.Floor(r.Quantity.Value)
	if q < 1 || q > math.MaxInt32 {
		return 1
	}
	return int(q)
}

type Breakdown struct {
	Base     float64 `json:"base"`
	Sauce    float64 `json:"sauce"`
	Cheese   float64 `json:"cheese"`
	Toppings float64 `json:"toppings"`
}

// Details carries the resolved components. Sauce and cheese are nil only when
// their category has no available items at all.
type Details struct {
	Size     models.Component   `json:"size"`
	Base     models.Component   `json:"base"`
	Sauce    *models.Component  `json:"sauce"`
	Cheese   *models.Component  `json:"cheese"`
	Toppings []models.Component `json:"toppings"`
}

type Quote struct {
	Currency            string    `json:"currency"`
	Quantity            int       `json:"quantity"`
	SinglePizzaSubtotal float64   `json:"singlePizzaSubtotal"`
	Total               float64   `json:"total"`
	Breakdown           Breakdown `json:"breakdown"`
	Details             Details   `json:"details"`
}

// UnitPrice is the per-pizza price carried on a cart line.
func (q Quote) UnitPrice() float64 {
	if q.Quantity <= 0 {
		return q.Total
	}
	return Cents(Money(q.Total).Div(decimal.NewFromInt(int64(q.Quantity))))
}

// Describe renders the resolved configuration for a cart line,
// e.g. `Large (14") | Classic Hand-Tossed | Alfredo | Mozzarella | Toppings: Bacon`.
func (q Quote) Describe() string {
	parts := []string{q.Details.Size.Name, q.Details.Base.Name}
	if q.Details.Sauce != nil {
		parts = append(parts, q.Details.Sauce.Name)
	}
	if q.Details.Cheese != nil {
		parts = append(parts, q.Details.Cheese.Name)
	}
	if len(q.Details.Toppings) > 0 {
		names := make([]string, len(q.Details.Toppings))
		for i, t := range q.Details.Toppings {
			names[i] = t.Name
		}
		parts = append(parts, "Toppings: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, " | ")
}

func find(items []models.Component, id string) (models.Component, bool) {
	if id == "" {
		return models.Component{}, false
	}
	for _, item := range items {
		if item.Matches(id) {
			return item, true
		}
	}
	return models.Component{}, false
}

// resolve looks up id, then the default id, then the first item.
func resolve(items []models.Component, id, defaultID string) (models.Component, bool) {
	if item, ok := find(items, id); ok {
		return item, true
	}
	if item, ok := find(items, defaultID); ok {
		return item, true
	}
	if len(items) > 0 {
		return items[0], true
	}
	return models.Component{}, false
}

func invalidConfiguration() error {
	return apperrors.Validation("Invalid pizza configuration")
}

// Calculate prices a pizza configuration against an availability snapshot.
// It reads nothing but its arguments.
func Calculate(snap catalog.Snapshot, req Request) (Quote, error) {
	rules := snap.Rules

	size, ok := resolve(snap.Sizes, req.SizeID, rules.DefaultSizeID)
	if !ok {
		return Quote{}, invalidConfiguration()
	}
	base, ok := resolve(snap.Bases, req.BaseID, rules.DefaultBaseID)
	if !ok {
		return Quote{}, invalidConfiguration()
	}

	details := Details{Size: size.Clone(), Base: base.Clone(), Toppings: []models.Component{}}

	doughAndSize := Money(base.Amount(models.CategoryBases, 0)).
		Mul(Money(size.Amount(models.CategorySizes, 1)))

	sauceAmount := decimal.Zero
	if sauce, ok := resolve(snap.Sauces, req.SauceID, rules.DefaultSauceID); ok {
		c := sauce.Clone()
		details.Sauce = &c
		sauceAmount = Money(sauce.Amount(models.CategorySauces, 0))
	}

	cheeseAmount := decimal.Zero
	if cheese, ok := resolve(snap.Cheeses, req.CheeseID, rules.DefaultCheeseID); ok {
		c := cheese.Clone()
		details.Cheese = &c
		cheeseAmount = Money(cheese.Amount(models.CategoryCheeses, 0))
	}

	requested := req.ToppingList()
	limit := rules.MaxToppings
	if limit <= 0 {
		limit = catalog.MaxToppings
	}
	if len(requested) > limit {
		requested = requested[:limit]
	}
	toppingsAmount := decimal.Zero
	for _, id := range requested {
		topping, ok := find(snap.Toppings, id)
		if !ok {
			continue
		}
		details.Toppings = append(details.Toppings, topping.Clone())
		toppingsAmount = toppingsAmount.Add(Money(topping.Amount(models.CategoryToppings, 0)))
	}

	single := doughAndSize.Add(sauceAmount).Add(cheeseAmount).Add(toppingsAmount)
	quantity := req.EffectiveQuantity()
	total := single.Mul(decimal.NewFromInt(int64(quantity)))

	return Quote{
		Currency:            Currency,
		Quantity:            quantity,
		SinglePizzaSubtotal: Cents(single),
		Total:               Cents(total),
		Breakdown: Breakdown{
			Base:     Cents(doughAndSize),
			Sauce:    Cents(sauceAmount),
			Cheese:   Cents(cheeseAmount),
			Toppings: Cents(toppingsAmount),
		},
		Details: details,
	}, nil
}
