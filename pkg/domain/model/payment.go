package model

import (
	"context"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotRequired = newError(ErrConflict, "order does not accept online payment")
	ErrInvalidAmount      = newError(ErrValidation, "amount must be positive")
)

// PaymentIntent is the provider-side order created for an online payment.
type PaymentIntent struct {
	ID          string    `json:"id"`
	OrderID     uuid.UUID `json:"orderId"`
	AmountMinor int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Reference   string    `json:"receipt"`
	Status      string    `json:"status"`
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, reference string) (*PaymentIntent, error)
}

type MailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}
