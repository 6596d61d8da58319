package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"
	"time"

	"pizza-ordering-api/models"

	"gorm.io/gorm"
)

// legacyLine decodes an item leniently; old files hold numeric ids and
// stringly typed prices.
type legacyLine struct {
	ID    any           `json:"id"`
	Name  string        `json:"name"`
	Meta  string        `json:"meta"`
	Price models.Number `json:"price"`
	Qty   models.Number `json:"qty"`
}

// MigrateLegacy imports the flat JSON order file into an empty store in one
// transaction. Malformed records are skipped with a warning and an unreadable
// file is reported but never fatal. It returns the number of imported orders.
func (s *Store) MigrateLegacy(ctx context.Context, path string) (int, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, nil
	}
	logCtx := s.log.WithField(ctx, "path", path)

	existing, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		s.log.Debug(logCtx, "order.legacy_skipped_store_not_empty")
		return 0, nil
	}

	contents, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		s.log.Warn(s.log.WithField(logCtx, "error", err.Error()), "order.legacy_unreadable")
		return 0, nil
	}
	if strings.TrimSpace(string(contents)) == "" {
		return 0, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(contents, &records); err != nil {
		s.log.Warn(s.log.WithField(logCtx, "error", err.Error()), "order.legacy_invalid_json")
		return 0, nil
	}

	orders := make([]models.Order, 0, len(records))
	seen := make(map[uint]bool, len(records))
	for i, raw := range records {
		order, reason := parseLegacyOrder(raw, s.timestamp())
		if reason == "" && seen[order.ID] {
			reason = "duplicate id"
		}
		if reason != "" {
			s.log.Warn(s.log.WithFields(logCtx, map[string]any{"index": i, "reason": reason}), "order.legacy_record_skipped")
			continue
		}
		seen[order.ID] = true
		orders = append(orders, order)
	}
	if len(orders) == 0 {
		return 0, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&orders, 100).Error
	})
	if err != nil {
		return 0, fmt.Errorf("import legacy orders: %w", err)
	}

	s.log.Info(s.log.WithField(logCtx, "count", len(orders)), "order.legacy_migrated")
	return len(orders), nil
}

func finiteNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func numberField(m map[string]any, key string) float64 {
	f, _ := finiteNumber(m[key])
	return f
}

func timeField(m map[string]any, key string, fallback time.Time) time.Time {
	raw := stringField(m, key)
	if raw == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fallback
	}
	return t.UTC().Truncate(time.Millisecond)
}

// parseLegacyOrder returns the order, or a non-empty reason when the record
// lacks a finite positive integer id, a numeric totals.total, an items array
// or a customer object.
func parseLegacyOrder(raw json.RawMessage, now time.Time) (models.Order, string) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return models.Order{}, "not an object"
	}

	id, ok := finiteNumber(doc["id"])
	if !ok || id < 1 || id != math.Trunc(id) || id > math.MaxUint32 {
		return models.Order{}, "invalid id"
	}

	totals, ok := doc["totals"].(map[string]any)
	if !ok {
		return models.Order{}, "missing totals"
	}
	total, ok := finiteNumber(totals["total"])
	if !ok {
		return models.Order{}, "invalid totals.total"
	}

	rawItems, ok := doc["items"].([]any)
	if !ok {
		return models.Order{}, "items is not an array"
	}

	customer, ok := doc["customer"].(map[string]any)
	if !ok {
		return models.Order{}, "missing customer"
	}

	var envelope struct {
		Items []legacyLine `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return models.Order{}, "malformed items"
	}
	items := make([]models.LineItem, 0, len(rawItems))
	for _, line := range envelope.Items {
		qty := 1
		if line.Qty.Valid && line.Qty.Value >= 1 {
			qty = int(line.Qty.Value)
		}
		items = append(items, models.LineItem{
			ID:    legacyLineID(line.ID),
			Name:  line.Name,
			Meta:  line.Meta,
			Price: line.Price.Value,
			Qty:   qty,
		})
	}

	status := models.OrderStatus(stringField(doc, "status"))
	if !status.IsValid() {
		status = models.StatusPending
	}
	fulfillment := models.FulfillmentPickup
	if stringField(doc, "fulfillmentMethod") == string(models.FulfillmentDelivery) {
		fulfillment = models.FulfillmentDelivery
	}

	count := itemCount(items)
	if n, ok := finiteNumber(doc["itemCount"]); ok && n >= 0 {
		count = int(n)
	}

	createdAt := timeField(doc, "createdAt", now)
	return models.Order{
		ID: uint(id),
		Customer: models.Customer{
			Name:    stringField(customer, "name"),
			Phone:   stringField(customer, "phone"),
			Address: stringField(customer, "address"),
			Email:   stringField(customer, "email"),
		},
		Items: items,
		Totals: models.Totals{
			Subtotal: numberField(totals, "subtotal"),
			Tax:      numberField(totals, "tax"),
			Total:    total,
		},
		FulfillmentMethod: fulfillment,
		Status:            status,
		ItemCount:         count,
		CreatedAt:         createdAt,
		UpdatedAt:         timeField(doc, "updatedAt", createdAt),
	}, ""
}

func legacyLineID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	}
	return ""
}
