package service

import (
	"context"

	"github.com/shopspring/decimal"

	"ecommerce/pkg/domain/model"
)

const LowStockThreshold = 5

type DashboardStats struct {
	OrdersByStatus   map[model.OrderStatus]int `json:"ordersByStatus"`
	TotalOrders      int                       `json:"totalOrders"`
	Revenue          decimal.Decimal           `json:"revenue"`
	Users            int                       `json:"users"`
	Products         int                       `json:"products"`
	LowStockProducts int                       `json:"lowStockProducts"`
}

type DashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

func NewDashboardService(orders model.OrderRepository, users model.UserRepository, products model.ProductRepository) DashboardService {
	return &dashboardService{orders: orders, users: users, products: products}
}

type dashboardService struct {
	orders   model.OrderRepository
	users    model.UserRepository
	products model.ProductRepository
}

func (s *dashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	orderStats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, err
	}
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	productCount, err := s.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.products.CountLowStock(ctx, LowStockThreshold)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		OrdersByStatus:   make(map[model.OrderStatus]int, len(model.OrderStatuses())),
		Revenue:          orderStats.Revenue,
		Users:            userCount,
		Products:         productCount,
		LowStockProducts: lowStock,
	}
	for _, status := range model.OrderStatuses() {
		count := orderStats.CountByStatus[status]
		stats.OrdersByStatus[status] = count
		stats.TotalOrders += count
	}
	return stats, nil
}
