package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserRegistered struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

func (e UserRegistered) Type() string { return "UserRegistered" }

type OrderPlaced struct {
	OrderID     uuid.UUID
	UserID      uuid.UUID
	TotalAmount decimal.Decimal
}

func (e OrderPlaced) Type() string { return "OrderPlaced" }

type OrderCancelled struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
}

func (e OrderCancelled) Type() string { return "OrderCancelled" }

type OrderStatusChanged struct {
	OrderID   uuid.UUID
	UserID    uuid.UUID
	OldStatus OrderStatus
	NewStatus OrderStatus
}

func (e OrderStatusChanged) Type() string { return "OrderStatusChanged" }

type ReturnRequested struct {
	OrderID uuid.UUID
	Reason  string
}

func (e ReturnRequested) Type() string { return "ReturnRequested" }

type ExchangeRequested struct {
	OrderID uuid.UUID
	Reason  string
}

func (e ExchangeRequested) Type() string { return "ExchangeRequested" }

type InvoiceAttached struct {
	OrderID   uuid.UUID
	InvoiceID string
}

func (e InvoiceAttached) Type() string { return "InvoiceAttached" }

type StockChanged struct {
	ProductID    uuid.UUID
	ChangeAmount int
}

func (e StockChanged) Type() string { return "StockChanged" }

type RoleAssigned struct {
	UserID uuid.UUID
	RoleID *uuid.UUID
}

func (e RoleAssigned) Type() string { return "RoleAssigned" }
