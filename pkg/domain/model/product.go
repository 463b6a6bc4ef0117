package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound   = newError(ErrNotFound, "product not found")
	ErrInsufficientStock = newError(ErrConflict, "insufficient stock quantity")
	ErrInvalidQuantity   = newError(ErrValidation, "quantity must be a positive number")
)

// DefaultTaxRate applies to products without an explicit tax rate, in percent.
var DefaultTaxRate = decimal.NewFromInt(10)

type Product struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"salePrice,omitempty"`
	TaxRate     *decimal.Decimal `json:"taxRate,omitempty"`
	ExtraCharge decimal.Decimal  `json:"extraCharge"`
	Stock       int              `json:"stock"`
	Images      []string         `json:"images"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// EffectivePrice is what a customer is charged per unit: the sale price when
// it undercuts the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && !p.SalePrice.IsNegative() && p.SalePrice.LessThan(p.Price) {
		return *p.SalePrice
	}
	return p.Price
}

func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// CatalogItem is the read-only view of a product consumed by pricing and ordering.
type CatalogItem struct {
	ProductID      uuid.UUID
	Name           string
	PrimaryImage   string
	EffectivePrice decimal.Decimal
	TaxRate        decimal.Decimal
	ExtraCharge    decimal.Decimal
	Stock          int
}

func (p Product) CatalogItem(defaultTaxRate decimal.Decimal) CatalogItem {
	taxRate := defaultTaxRate
	if p.TaxRate != nil {
		taxRate = *p.TaxRate
	}
	return CatalogItem{
		ProductID:      p.ID,
		Name:           p.Name,
		PrimaryImage:   p.PrimaryImage(),
		EffectivePrice: p.EffectivePrice(),
		TaxRate:        taxRate,
		ExtraCharge:    p.ExtraCharge,
		Stock:          p.Stock,
	}
}

type Catalog interface {
	Get(ctx context.Context, productID uuid.UUID) (CatalogItem, error)
}

type ProductFilter struct {
	Category string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

type ProductRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, filter ProductFilter, page Page) ([]Product, int, error)
	Count(ctx context.Context) (int, error)
	CountLowStock(ctx context.Context, threshold int) (int, error)
}

type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// StockLedger changes stock counts with atomic conditional updates; no
// implementation may read-then-write.
type StockLedger interface {
	Reserve(ctx context.Context, productID uuid.UUID, quantity int) error
	Release(ctx context.Context, productID uuid.UUID, quantity int) error
	// ReserveAll reserves every line or none of them.
	ReserveAll(ctx context.Context, lines []StockLine) error
	ReleaseAll(ctx context.Context, lines []StockLine) error
}
