package tests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
)

func setupCart(t *testing.T) (service.CartService, *mockProductRepository, *mockCartRepository) {
	t.Helper()
	products := newMockProductRepository()
	carts := newMockCartRepository()
	catalog := service.NewProductService(products, products, model.DefaultTaxRate, &mockEventDispatcher{})
	return service.NewCartService(carts, catalog), products, carts
}

func TestCartAddItem(t *testing.T) {
	carts, products, _ := setupCart(t)
	userID := uuid.New()
	shirt := products.add("Shirt", 25, 10, 0, 5)

	view, err := carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: shirt.ID, Quantity: 2, Size: "M"})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assertMoney(t, "50", view.TotalAmount)
	assert.True(t, view.Items[0].Available)
	assert.Equal(t, "Shirt", view.Items[0].Name)

	t.Run("Same line is merged", func(t *testing.T) {
		view, err := carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: shirt.ID, Quantity: 1, Size: " M "})
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		assert.Equal(t, 3, view.Items[0].Quantity)
	})

	t.Run("Different variant is a new line", func(t *testing.T) {
		view, err := carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: shirt.ID, Quantity: 1, Size: "L"})
		require.NoError(t, err)
		assert.Len(t, view.Items, 2)
		assertMoney(t, "100", view.TotalAmount)
	})

	t.Run("Merged quantity beyond stock", func(t *testing.T) {
		_, err := carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: shirt.ID, Quantity: 3, Size: "M"})
		assert.ErrorIs(t, err, model.ErrInsufficientStock)
	})

	t.Run("Invalid quantity", func(t *testing.T) {
		_, err := carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: shirt.ID, Quantity: 0})
		assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	})

	t.Run("Unknown product", func(t *testing.T) {
		_, err := carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: uuid.New(), Quantity: 1})
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})

	// Adding to a cart never touches stock.
	assert.Equal(t, 5, products.stock(shirt.ID))
}

func TestCartUsesLivePrices(t *testing.T) {
	carts, products, _ := setupCart(t)
	userID := uuid.New()
	lamp := products.add("Lamp", 40, 10, 0, 10)

	_, err := carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: lamp.ID, Quantity: 2})
	require.NoError(t, err)

	sale := decimal.NewFromInt(30)
	discounted := *lamp
	discounted.SalePrice = &sale
	require.NoError(t, products.Update(context.Background(), &discounted))

	view, err := carts.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assertMoney(t, "30", view.Items[0].UnitPrice)
	assertMoney(t, "60", view.TotalAmount)
}

func TestCartKeepsVanishedProducts(t *testing.T) {
	carts, products, _ := setupCart(t)
	userID := uuid.New()
	kept := products.add("Kept", 10, 10, 0, 10)
	gone := products.add("Gone", 99, 10, 0, 10)

	for _, p := range []*model.Product{kept, gone} {
		_, err := carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: p.ID, Quantity: 1})
		require.NoError(t, err)
	}
	require.NoError(t, products.Delete(context.Background(), gone.ID))

	view, err := carts.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assertMoney(t, "10", view.TotalAmount)
	assert.False(t, view.Items[1].Available)
	assertMoney(t, "0", view.Items[1].LineTotal)
}

func TestCartUpdateAndRemove(t *testing.T) {
	carts, products, repo := setupCart(t)
	userID := uuid.New()
	pen := products.add("Pen", 2, 10, 0, 4)
	_, err := carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: pen.ID, Quantity: 1, Color: "blue"})
	require.NoError(t, err)

	view, err := carts.UpdateItem(context.Background(), userID, service.CartItemInput{ProductID: pen.ID, Quantity: 4, Color: "blue"})
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)

	_, err = carts.UpdateItem(context.Background(), userID, service.CartItemInput{ProductID: pen.ID, Quantity: 5, Color: "blue"})
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	_, err = carts.UpdateItem(context.Background(), userID, service.CartItemInput{ProductID: pen.ID, Quantity: 1, Color: "red"})
	assert.ErrorIs(t, err, model.ErrCartItemNotFound)

	view, err = carts.UpdateItem(context.Background(), userID, service.CartItemInput{ProductID: pen.ID, Quantity: 0, Color: "blue"})
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = carts.RemoveItem(context.Background(), userID, pen.ID, "", "blue")
	assert.ErrorIs(t, err, model.ErrCartItemNotFound)

	_, err = carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: pen.ID, Quantity: 1})
	require.NoError(t, err)
	view, err = carts.RemoveItem(context.Background(), userID, pen.ID, "", "")
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = carts.AddItem(context.Background(), userID, service.CartItemInput{ProductID: pen.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, carts.ClearCart(context.Background(), userID))
	cart, err := repo.Find(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
