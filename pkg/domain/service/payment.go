package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ecommerce/pkg/domain/model"
)

type PaymentService interface {
	CreateIntent(ctx context.Context, userID, orderID uuid.UUID) (*model.PaymentIntent, error)
}

func NewPaymentService(orders model.OrderRepository, gateway model.PaymentGateway, currency string) PaymentService {
	return &paymentService{orders: orders, gateway: gateway, currency: currency}
}

type paymentService struct {
	orders   model.OrderRepository
	gateway  model.PaymentGateway
	currency string
}

// CreateIntent asks the gateway for a provider order covering the order
// total, referenced by the order id.
func (s *paymentService) CreateIntent(ctx context.Context, userID, orderID uuid.UUID) (*model.PaymentIntent, error) {
	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	if order.PaymentMethod != model.PaymentOnline ||
		order.Status == model.Cancelled ||
		order.PaymentStatus != model.PaymentPending {
		return nil, model.ErrPaymentNotRequired
	}

	amountMinor := order.TotalAmount.Mul(hundred).Round(0).IntPart()
	if amountMinor <= 0 {
		return nil, model.ErrInvalidAmount
	}

	intent, err := s.gateway.CreateIntent(ctx, amountMinor, s.currency, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: create payment intent: %v", model.ErrUpstream, err)
	}
	intent.OrderID = orderID
	return intent, nil
}
