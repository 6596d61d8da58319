package checkout

import (
	"context"
	"strings"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/cart"
	"pizza-ordering-api/logger"
	"pizza-ordering-api/metrics"
	"pizza-ordering-api/models"
	"pizza-ordering-api/orders"
	"pizza-ordering-api/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreator is the slice of the order store checkout needs.
type OrderCreator interface {
	Create(ctx context.Context, in orders.NewOrder) (models.Order, error)
}

type CustomerInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

// LineInput is a cart line as posted by the client. Prices are re-checked
// here; client totals are never read.
type LineInput struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Meta  string        `json:"meta"`
	Price models.Number `json:"price"`
	Qty   models.Number `json:"qty"`
}

// Request is the checkout body. A nil Cart means "use the session cart".
type Request struct {
	Customer          CustomerInput `json:"customer"`
	Cart              []LineInput   `json:"cart"`
	FulfillmentMethod string        `json:"fulfillmentMethod"`
}

type Service struct {
	orders  OrderCreator
	taxRate float64
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewService(store OrderCreator, taxRate float64, log *logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{orders: store, taxRate: taxRate, log: log, metrics: m}
}

// Submit validates the request, prices the lines, stores the order and, on
// success, empties the session cart.
func (s *Service) Submit(ctx context.Context, req Request, sessionCart *cart.Cart) (models.Order, error) {
	method, err := parseFulfillment(req.FulfillmentMethod)
	if err != nil {
		return s.reject(ctx, "fulfillment", err)
	}

	customer, err := validateCustomer(req.Customer, method)
	if err != nil {
		return s.reject(ctx, "customer", err)
	}

	var lines []models.LineItem
	if req.Cart != nil {
		lines = NormalizeLines(req.Cart)
	} else if sessionCart != nil {
		lines = normalizeSessionLines(sessionCart.Lines())
	}
	if len(lines) == 0 {
		return s.reject(ctx, "empty_cart", apperrors.Validation("Cart is empty or invalid"))
	}

	order, err := s.orders.Create(ctx, orders.NewOrder{
		Customer:          customer,
		Items:             lines,
		Totals:            ComputeTotals(lines, s.taxRate),
		FulfillmentMethod: method,
	})
	if err != nil {
		return models.Order{}, err
	}

	if sessionCart != nil {
		sessionCart.Clear()
	}
	s.metrics.IncOrderCreated(string(order.FulfillmentMethod))
	return order, nil
}

func (s *Service) reject(ctx context.Context, reason string, err error) (models.Order, error) {
	s.metrics.IncCheckoutRejected(reason)
	s.log.Debug(s.log.WithField(ctx, "reason", reason), "checkout.rejected")
	return models.Order{}, err
}

func parseFulfillment(raw string) (models.FulfillmentMethod, error) {
	switch models.FulfillmentMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case "", models.FulfillmentPickup:
		return models.FulfillmentPickup, nil
	case models.FulfillmentDelivery:
		return models.FulfillmentDelivery, nil
	}
	return "", apperrors.Validation("Invalid fulfillment method")
}

func validateCustomer(in CustomerInput, method models.FulfillmentMethod) (models.Customer, error) {
	c := models.Customer{
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		Email:   strings.TrimSpace(in.Email),
	}
	if c.Name == "" || c.Phone == "" {
		return models.Customer{}, apperrors.Validation("Name and phone are required")
	}
	if method == models.FulfillmentDelivery && c.Address == "" {
		return models.Customer{}, apperrors.Validation("Address is required for delivery")
	}
	return c, nil
}

// NormalizeLines drops lines whose price or qty is not a positive number and
// returns fresh copies of the rest. A missing qty counts as one.
func NormalizeLines(in []LineInput) []models.LineItem {
	out := make([]models.LineItem, 0, len(in))
	for _, line := range in {
		if !line.Price.Positive() {
			continue
		}
		price := pricing.RoundCents(line.Price.Value)
		if price <= 0 {
			continue
		}
		qty := 1
		if line.Qty.Set {
			if !line.Qty.Positive() || line.Qty.Value < 1 {
				continue
			}
			qty = int(line.Qty.Value)
		}
		name := line.Name
		if name == "" {
			name = cart.CustomPizzaName
		}
		id := line.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, models.LineItem{
			ID:    id,
			Name:  name,
			Meta:  line.Meta,
			Price: price,
			Qty:   qty,
		})
	}
	return out
}

func normalizeSessionLines(in []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, 0, len(in))
	for _, line := range in {
		if line.Price > 0 && line.Qty > 0 {
			out = append(out, line)
		}
	}
	return out
}

// ComputeTotals derives subtotal, tax and total from the lines alone.
// total is exactly subtotal + tax after each is rounded to cents.
func ComputeTotals(lines []models.LineItem, taxRate float64) models.Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(pricing.Money(line.Price).Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(pricing.Money(taxRate)).Round(2)
	return models.Totals{
		Subtotal: pricing.Cents(subtotal),
		Tax:      pricing.Cents(tax),
		Total:    pricing.Cents(subtotal.Add(tax)),
	}
}
