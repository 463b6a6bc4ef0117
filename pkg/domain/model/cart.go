package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrCartItemNotFound = newError(ErrNotFound, "cart item not found")

type CartItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}

func (i CartItem) SameLine(productID uuid.UUID, size, color string) bool {
	return i.ProductID == productID && i.Size == size && i.Color == color
}

type Cart struct {
	UserID    uuid.UUID
	Items     []CartItem
	UpdatedAt time.Time
}

func (c *Cart) IndexOf(productID uuid.UUID, size, color string) int {
	for i, item := range c.Items {
		if item.SameLine(productID, size, color) {
			return i
		}
	}
	return -1
}

// CartLine is a cart item priced at the current catalog price.
type CartLine struct {
	CartItem
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Available bool            `json:"available"`
}

type CartView struct {
	UserID      uuid.UUID       `json:"userId"`
	Items       []CartLine      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CartRepository interface {
	// Find returns an empty cart when the user has none yet.
	Find(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Clear(ctx context.Context, userID uuid.UUID) error
}
