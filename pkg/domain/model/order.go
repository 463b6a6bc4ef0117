package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound      = newError(ErrNotFound, "order not found")
	ErrOptimisticLock     = newError(ErrConflict, "order has been modified by another transaction")
	ErrInvalidTransition  = newError(ErrConflict, "order status does not allow this transition")
	ErrInvalidState       = newError(ErrConflict, "order is cancelled")
	ErrAlreadyRequested   = newError(ErrConflict, "request has already been submitted for this order")
	ErrInvoiceNotAllowed  = newError(ErrForbidden, "invoice is available once the order is processing")
	ErrUnknownOrderStatus = newError(ErrValidation, "unknown order status")
)

const MaxRequestReasonLength = 500

type OrderStatus string

const (
	Pending    OrderStatus = "pending"
	Processing OrderStatus = "processing"
	Shipped    OrderStatus = "shipped"
	Delivered  OrderStatus = "delivered"
	Cancelled  OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{Pending, Processing, Shipped, Delivered, Cancelled}

func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, status := range orderStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", ErrUnknownOrderStatus
}

// Terminal states are never left.
func (s OrderStatus) Terminal() bool {
	return s == Cancelled || s == Delivered
}

func (s OrderStatus) Invoiceable() bool {
	return s == Processing || s == Shipped || s == Delivered
}

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCOD    PaymentMethod = "cod"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentOnline, PaymentCOD:
		return PaymentMethod(s), true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type RequestStatus string

const (
	RequestNone      RequestStatus = ""
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

func ParseResolution(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case RequestApproved, RequestRejected, RequestCompleted:
		return RequestStatus(s), true
	}
	return RequestNone, false
}

type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

func (a ShippingAddress) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"shippingAddress.fullName", a.FullName},
		{"shippingAddress.address", a.Address},
		{"shippingAddress.city", a.City},
		{"shippingAddress.postalCode", a.PostalCode},
		{"shippingAddress.country", a.Country},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// OrderLine is a requested product and quantity, before pricing.
type OrderLine struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// OrderItem is a line frozen at creation time.
type OrderItem struct {
	ProductID   uuid.UUID       `json:"productId"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	ExtraCharge decimal.Decimal `json:"extraCharge"`
}

type Totals struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	ExtraCharges  decimal.Decimal `json:"extraCharges"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

type SideRequest struct {
	Requested   bool          `json:"requested"`
	Status      RequestStatus `json:"status,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	RequestedAt *time.Time    `json:"requestedAt,omitempty"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	Totals
	Status               OrderStatus `json:"status"`
	Return               SideRequest `json:"return"`
	Exchange             SideRequest `json:"exchange"`
	InvoiceURL           string      `json:"invoiceUrl,omitempty"`
	InvoiceID            string      `json:"invoicePublicId,omitempty"`
	ExpectedDeliveryDate time.Time   `json:"expectedDeliveryDate"`
	DeliveredAt          *time.Time  `json:"deliveredAt,omitempty"`
	CancelledAt          *time.Time  `json:"cancelledAt,omitempty"`
	Version              int         `json:"-"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

func (o *Order) StockLines() []StockLine {
	lines := make([]StockLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

func (o *Order) HasInvoice() bool {
	return o.InvoiceID != ""
}

type OrderFilter struct {
	Status *OrderStatus
	UserID *uuid.UUID
}

type OrderStats struct {
	CountByStatus map[OrderStatus]int
	Revenue       decimal.Decimal
}

type OrderRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, order *Order) error
	// Update persists mutable fields; it fails with ErrOptimisticLock unless
	// the stored version is order.Version-1.
	Update(ctx context.Context, order *Order) error
	// Cancel is Update for a cancelled order that also returns the stock of
	// its items; both happen or neither does.
	Cancel(ctx context.Context, order *Order) error
	Find(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, filter OrderFilter, page Page) ([]Order, int, error)
	Stats(ctx context.Context) (OrderStats, error)
}

// Invoice is a rendered invoice document together with where it is stored.
type Invoice struct {
	ID      string
	URL     string
	Content []byte
}

type InvoiceRenderer interface {
	Render(order *Order) ([]byte, error)
}

type StoredFile struct {
	ID  string
	URL string
}

type FileStorage interface {
	Upload(ctx context.Context, name string, content []byte) (StoredFile, error)
	Fetch(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}
