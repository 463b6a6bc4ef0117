package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ecommerce/pkg/domain/model"
)

type CartItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Size      string
	Color     string
}

// CartService keeps carts priced at live catalog prices; nothing is
// snapshotted until checkout.
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*model.CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, input CartItemInput) (*model.CartView, error)
	// UpdateItem sets the quantity of a line; zero removes it.
	UpdateItem(ctx context.Context, userID uuid.UUID, input CartItemInput) (*model.CartView, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID, size, color string) (*model.CartView, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

func NewCartService(repo model.CartRepository, catalog model.Catalog) CartService {
	return &cartService{repo: repo, catalog: catalog}
}

type cartService struct {
	repo    model.CartRepository
	catalog model.Catalog
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.CartView, error) {
	cart, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, input CartItemInput) (*model.CartView, error) {
	input = normalizeCartInput(input)
	if input.Quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}
	product, err := s.catalog.Get(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}

	quantity := input.Quantity
	index := cart.IndexOf(input.ProductID, input.Size, input.Color)
	if index >= 0 {
		quantity += cart.Items[index].Quantity
	}
	if quantity > product.Stock {
		return nil, model.ErrInsufficientStock
	}

	if index >= 0 {
		cart.Items[index].Quantity = quantity
	} else {
		cart.Items = append(cart.Items, model.CartItem{
			ProductID: input.ProductID,
			Quantity:  quantity,
			Size:      input.Size,
			Color:     input.Color,
		})
	}
	return s.save(ctx, cart)
}

func (s *cartService) UpdateItem(ctx context.Context, userID uuid.UUID, input CartItemInput) (*model.CartView, error) {
	input = normalizeCartInput(input)
	if input.Quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}
	cart, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	index := cart.IndexOf(input.ProductID, input.Size, input.Color)
	if index < 0 {
		return nil, model.ErrCartItemNotFound
	}

	if input.Quantity == 0 {
		cart.Items = append(cart.Items[:index], cart.Items[index+1:]...)
		return s.save(ctx, cart)
	}

	product, err := s.catalog.Get(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if input.Quantity > product.Stock {
		return nil, model.ErrInsufficientStock
	}
	cart.Items[index].Quantity = input.Quantity
	return s.save(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID, size, color string) (*model.CartView, error) {
	cart, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	index := cart.IndexOf(productID, strings.TrimSpace(size), strings.TrimSpace(color))
	if index < 0 {
		return nil, model.ErrCartItemNotFound
	}
	cart.Items = append(cart.Items[:index], cart.Items[index+1:]...)
	return s.save(ctx, cart)
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}

func (s *cartService) save(ctx context.Context, cart *model.Cart) (*model.CartView, error) {
	cart.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

// price recomputes the total from current effective prices. Lines whose
// product disappeared stay in the cart but do not count.
func (s *cartService) price(ctx context.Context, cart *model.Cart) (*model.CartView, error) {
	view := &model.CartView{
		UserID:      cart.UserID,
		Items:       make([]model.CartLine, 0, len(cart.Items)),
		TotalAmount: decimal.Zero,
		UpdatedAt:   cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		line := model.CartLine{CartItem: item, UnitPrice: decimal.Zero, LineTotal: decimal.Zero}

		product, err := s.catalog.Get(ctx, item.ProductID)
		switch {
		case errors.Is(err, model.ErrProductNotFound):
		case err != nil:
			return nil, err
		default:
			line.Name = product.Name
			line.Image = product.PrimaryImage
			line.UnitPrice = product.EffectivePrice
			line.LineTotal = product.EffectivePrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.Available = product.Stock >= item.Quantity
			view.TotalAmount = view.TotalAmount.Add(line.LineTotal)
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}

func normalizeCartInput(input CartItemInput) CartItemInput {
	input.Size = strings.TrimSpace(input.Size)
	input.Color = strings.TrimSpace(input.Color)
	return input
}
