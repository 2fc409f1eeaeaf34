package domain

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusReady, StatusCompleted, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Cancellable reports whether the customer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// NextAllowed reports whether to is a single step of the fulfilment state
// machine from s (or a cancellation from a cancellable state).
func (s OrderStatus) NextAllowed(to OrderStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusReady || to == StatusCancelled
	case StatusReady:
		return to == StatusCompleted
	case StatusCompleted, StatusCancelled:
		return false
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetBanking PaymentMethod = "net_banking"
)

var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentUPI, PaymentNetBanking}

func (p PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if p == v {
			return true
		}
	}
	return false
}

// MaxNotesLen bounds Order.Notes, counted in characters.
const MaxNotesLen = 500

type Order struct {
	ID             string        `json:"id"`
	CustomerID     string        `json:"customerId"`
	FarmerID       string        `json:"farmerId"`
	ProductID      string        `json:"productId"`
	Quantity       int           `json:"quantity"`
	TotalPrice     float64       `json:"totalPrice"`
	Status         OrderStatus   `json:"status"`
	PickupDate     time.Time     `json:"pickupDate"`
	PickupLocation string        `json:"pickupLocation"`
	Notes          string        `json:"notes"`
	Payment        bool          `json:"payment"`
	PaymentMethod  PaymentMethod `json:"paymentMethod"`
	PaymentDate    *time.Time    `json:"paymentDate,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`

	Product  *ProductSummary `json:"product,omitempty"`
	Customer *UserSummary    `json:"customer,omitempty"`
	Farmer   *UserSummary    `json:"farmer,omitempty"`
}

type ProductSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category,omitempty"`
	Price       float64  `json:"price"`
	Unit        Unit     `json:"unit"`
	Images      []string `json:"images"`
}

// StatusCounts is the per-status breakdown that accompanies order lists.
type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Ready     int `json:"ready"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

func (c *StatusCounts) Add(s OrderStatus) {
	c.Total++
	switch s {
	case StatusPending:
		c.Pending++
	case StatusConfirmed:
		c.Confirmed++
	case StatusReady:
		c.Ready++
	case StatusCompleted:
		c.Completed++
	case StatusCancelled:
		c.Cancelled++
	}
}

// ListStats is returned next to an order list. TotalRevenue is only set on
// the farmer view.
type ListStats struct {
	StatusCounts
	TotalRevenue *float64 `json:"totalRevenue,omitempty"`
}

type OrderStats struct {
	TotalOrders  int     `json:"totalOrders"`
	Pending      int     `json:"pending"`
	Confirmed    int     `json:"confirmed"`
	Ready        int     `json:"ready"`
	Completed    int     `json:"completed"`
	Cancelled    int     `json:"cancelled"`
	TotalRevenue float64 `json:"totalRevenue"`
	PaidOrders   int     `json:"paidOrders"`
	UnpaidOrders int     `json:"unpaidOrders"`
}

// NewOrder holds the caller-supplied part of an order.
type NewOrder struct {
	ProductID     string
	Quantity      int
	PickupDate    time.Time
	Notes         string
	PaymentMethod PaymentMethod
	// IdempotencyKey, when set, makes a retried request fail instead of
	// placing a second order.
	IdempotencyKey string
}

// CheckoutLine reports the outcome of one cart line at checkout.
type CheckoutLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	OrderID   string `json:"orderId,omitempty"`
	Error     string `json:"error,omitempty"`
}
