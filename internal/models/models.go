package models

import (
	"time"

	"github.com/google/uuid"
)

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OrderStatus is one of: open, assigned, en_route, completed, cancelled.
type OrderStatus string

const (
	StatusOpen      OrderStatus = "open"
	StatusAssigned  OrderStatus = "assigned"
	StatusEnRoute   OrderStatus = "en_route"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition can leave the status.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status value.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusEnRoute, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID        string      `json:"id"`
	RiderID   string      `json:"rider_id"`
	DriverID  string      `json:"driver_id,omitempty"`
	Status    OrderStatus `json:"status"`
	Pickup    Coord       `json:"from"`
	Dest      Coord       `json:"to"`
	Price     float64     `json:"price"`
	PaymentID string      `json:"-"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Event is a single realtime frame. Type selects which fields are set:
// "order_status" carries OrderID+Status, "driver_position" carries
// DriverID+Loc, "hello" carries only the timestamp.
type Event struct {
	Type     string      `json:"type"`
	OrderID  string      `json:"orderId,omitempty"`
	Status   OrderStatus `json:"status,omitempty"`
	DriverID string      `json:"driver_id,omitempty"`
	Loc      *Coord      `json:"loc,omitempty"`
	At       time.Time   `json:"at"`
}

const (
	EventHello          = "hello"
	EventOrderStatus    = "order_status"
	EventDriverPosition = "driver_position"
)

func OrderStatusEvent(orderID string, status OrderStatus) Event {
	return Event{Type: EventOrderStatus, OrderID: orderID, Status: status, At: time.Now()}
}

type QuoteRequest struct {
	From  *Coord `json:"from"`
	To    *Coord `json:"to"`
	Class string `json:"class"`
}

type Quote struct {
	DistanceKm float64 `json:"distance_km"`
	Minutes    float64 `json:"minutes"`
	Price      float64 `json:"price"`
	Class      string  `json:"class"`
}

type OrderRequest struct {
	From  *Coord  `json:"from"`
	To    *Coord  `json:"to"`
	Price float64 `json:"price"`
}

func NewID() string { return uuid.NewString() }
