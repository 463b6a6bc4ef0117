package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ecommerce/pkg/domain/model"
)

type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	SalePrice   *decimal.Decimal
	TaxRate     *decimal.Decimal
	ExtraCharge decimal.Decimal
	Stock       int
	Images      []string
}

func (in ProductInput) validate() error {
	var invalid []string
	if strings.TrimSpace(in.Name) == "" {
		invalid = append(invalid, "name")
	}
	if !validAmount(in.Price) {
		invalid = append(invalid, "price")
	}
	if in.SalePrice != nil && !validAmount(*in.SalePrice) {
		invalid = append(invalid, "salePrice")
	}
	if in.TaxRate != nil && !validAmount(*in.TaxRate) {
		invalid = append(invalid, "taxRate")
	}
	if !validAmount(in.ExtraCharge) {
		invalid = append(invalid, "extraCharge")
	}
	if in.Stock < 0 {
		invalid = append(invalid, "stock")
	}
	if len(invalid) > 0 {
		return model.NewValidationError("invalid product fields", invalid...)
	}
	return nil
}

// validAmount accepts non-negative values with at most two decimal places,
// the precision product prices and rates are stored at.
func validAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Round(2))
}

type ProductService interface {
	model.Catalog

	CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*model.Product, error)
	// AdjustStock receives (positive) or writes off (negative) stock.
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (*model.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter, page model.Page) ([]model.Product, int, error)
}

func NewProductService(repo model.ProductRepository, ledger model.StockLedger, defaultTaxRate decimal.Decimal, dispatcher EventDispatcher) ProductService {
	return &productService{repo: repo, ledger: ledger, defaultTaxRate: defaultTaxRate, dispatcher: dispatcher}
}

type productService struct {
	repo           model.ProductRepository
	ledger         model.StockLedger
	defaultTaxRate decimal.Decimal
	dispatcher     EventDispatcher
}

// Get is the catalog accessor used by pricing and ordering.
func (s *productService) Get(ctx context.Context, productID uuid.UUID) (model.CatalogItem, error) {
	product, err := s.repo.Find(ctx, productID)
	if err != nil {
		return model.CatalogItem{}, err
	}
	return product.CatalogItem(s.defaultTaxRate), nil
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	productID, err := s.repo.NextID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &model.Product{ID: productID, CreatedAt: now}
	applyProductInput(product, input)
	product.Stock = input.Stock
	product.UpdatedAt = now

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct edits catalog data; stock only moves through AdjustStock.
func (s *productService) UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*model.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product, err := s.repo.Find(ctx, productID)
	if err != nil {
		return nil, err
	}
	applyProductInput(product, input)
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (*model.Product, error) {
	var err error
	switch {
	case delta > 0:
		err = s.ledger.Release(ctx, productID, delta)
	case delta < 0:
		err = s.ledger.Reserve(ctx, productID, -delta)
	default:
		return nil, model.ErrInvalidQuantity
	}
	if err != nil {
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.StockChanged{ProductID: productID, ChangeAmount: delta})
	return s.repo.Find(ctx, productID)
}

func (s *productService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	return s.repo.Delete(ctx, productID)
}

func (s *productService) GetProduct(ctx context.Context, productID uuid.UUID) (*model.Product, error) {
	return s.repo.Find(ctx, productID)
}

func (s *productService) ListProducts(ctx context.Context, filter model.ProductFilter, page model.Page) ([]model.Product, int, error) {
	return s.repo.List(ctx, filter, page)
}

func applyProductInput(product *model.Product, input ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Category = input.Category
	product.Price = input.Price
	product.SalePrice = input.SalePrice
	product.TaxRate = input.TaxRate
	product.ExtraCharge = input.ExtraCharge
	product.Images = input.Images
}
