package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/logger"
	"pizza-ordering-api/models"
	"pizza-ordering-api/statemachine"

	"gorm.io/gorm"
)

// NewOrder is the payload for Create. Zero values take defaults: status
// Pending, fulfillment pickup, itemCount Σ qty.
type NewOrder struct {
	Customer          models.Customer
	Items             []models.LineItem
	Totals            models.Totals
	FulfillmentMethod models.FulfillmentMethod
	ItemCount         *int
	Status            models.OrderStatus
}

// Store is the durable order log. Every mutation is committed before it
// returns; ids are assigned as max(id)+1 under a process-wide lock.
type Store struct {
	db         *gorm.DB
	log        *logger.Logger
	mirrorPath string
	now        func() time.Time

	mu sync.Mutex
}

type Option func(*Store)

// WithMirror writes a JSON copy of the whole log to path after every mutation.
func WithMirror(path string) Option {
	return func(s *Store) { s.mirrorPath = strings.TrimSpace(path) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(db *gorm.DB, log *logger.Logger, opts ...Option) *Store {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{db: db, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func orderNotFound() error { return apperrors.NotFound("Order not found") }

// ParseID converts a path parameter to an order id. Anything that is not a
// positive integer cannot name an order, so it reports NotFound.
func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, orderNotFound()
	}
	return uint(id), nil
}

func itemCount(items []models.LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Qty
	}
	return n
}

func (s *Store) Create(ctx context.Context, in NewOrder) (models.Order, error) {
	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	if err := statemachine.CanTransition("", status); err != nil {
		return models.Order{}, err
	}

	fulfillment := models.FulfillmentPickup
	if in.FulfillmentMethod == models.FulfillmentDelivery {
		fulfillment = models.FulfillmentDelivery
	}

	items := make([]models.LineItem, len(in.Items))
	copy(items, in.Items)

	count := itemCount(items)
	if in.ItemCount != nil {
		count = *in.ItemCount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timestamp()
	order := models.Order{
		Customer:          in.Customer,
		Items:             items,
		Totals:            in.Totals,
		FulfillmentMethod: fulfillment,
		Status:            status,
		ItemCount:         count,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxID uint
		if err := tx.Model(&models.Order{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return fmt.Errorf("next order id: %w", err)
		}
		order.ID = maxID + 1
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, apperrors.Internal(err, "Failed to create order")
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"order_id": order.ID,
		"items":    order.ItemCount,
		"total":    order.Totals.Total,
	}), "order.created")
	s.mirror(ctx)
	return order, nil
}

func (s *Store) Get(ctx context.Context, id uint) (models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Order{}, orderNotFound()
	}
	if err != nil {
		return models.Order{}, apperrors.Internal(err, "Failed to load order")
	}
	return normalize(order), nil
}

// List returns every order, most recent first.
func (s *Store) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to load orders")
	}
	for i := range orders {
		orders[i] = normalize(orders[i])
	}
	return orders, nil
}

// SetStatus moves an order to status and records the change. Setting the
// current status again only refreshes updatedAt.
func (s *Store) SetStatus(ctx context.Context, id uint, status models.OrderStatus, actor string) (models.Order, error) {
	if err := statemachine.CanTransition("", status); err != nil {
		return models.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return err
		}
		if err := statemachine.CanTransition(order.Status, status); err != nil {
			return err
		}

		previous := order.Status
		now := s.timestamp()
		err := tx.Model(&order).Updates(map[string]any{
			"status":     status,
			"updated_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		order.Status = status
		order.UpdatedAt = now

		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: previous,
			ToStatus:   status,
			ChangedBy:  actor,
			CreatedAt:  now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("record status history: %w", err)
		}
		return nil
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.Order{}, orderNotFound()
	case apperrors.As(err) != nil:
		return models.Order{}, err
	case err != nil:
		return models.Order{}, apperrors.Internal(err, "Failed to update order status")
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"order_id": order.ID,
		"status":   string(status),
		"actor":    actor,
	}), "order.status_changed")
	s.mirror(ctx)
	return normalize(order), nil
}

// History returns the status changes for an order, oldest first.
func (s *Store) History(ctx context.Context, id uint) ([]models.OrderStatusHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	var rows []models.OrderStatusHistory
	err := s.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to load order history")
	}
	for i := range rows {
		rows[i].CreatedAt = rows[i].CreatedAt.UTC()
	}
	return rows, nil
}

// Count reports how many orders are stored.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// normalize pins timestamps to UTC and never returns nil items.
func normalize(order models.Order) models.Order {
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	if order.Items == nil {
		order.Items = []models.LineItem{}
	}
	return order
}
