package models

import "time"

// OrderStatus is one step of the kitchen workflow.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPreparing OrderStatus = "Preparing"
	StatusReady     OrderStatus = "Ready"
	StatusComplete  OrderStatus = "Complete"
)

// OrderStatuses lists the workflow in order.
var OrderStatuses = []OrderStatus{StatusPending, StatusPreparing, StatusReady, StatusComplete}

func (s OrderStatus) IsValid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// FulfillmentMethod is how the customer receives the order.
type FulfillmentMethod string

const (
	FulfillmentPickup   FulfillmentMethod = "pickup"
	FulfillmentDelivery FulfillmentMethod = "delivery"
)

// LineItem is a cart row and, once checked out, an order row snapshot.
type LineItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Meta  string  `json:"meta"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Email   string `json:"email,omitempty"`
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Order ids are assigned by the order store, never by the database.
type Order struct {
	ID                uint              `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Customer          Customer          `json:"customer" gorm:"embedded;embeddedPrefix:customer_"`
	Items             []LineItem        `json:"items" gorm:"serializer:json;type:text;not null"`
	Totals            Totals            `json:"totals" gorm:"embedded;embeddedPrefix:totals_"`
	FulfillmentMethod FulfillmentMethod `json:"fulfillmentMethod" gorm:"not null;default:'pickup'"`
	Status            OrderStatus       `json:"status" gorm:"not null;default:'Pending';index"`
	ItemCount         int               `json:"itemCount"`
	CreatedAt         time.Time         `json:"createdAt" gorm:"autoCreateTime:false;index"`
	UpdatedAt         time.Time         `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

// OrderStatusHistory tracks every status change (audit trail).
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  string      `json:"changedBy"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
}
