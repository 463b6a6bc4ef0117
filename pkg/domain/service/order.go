package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ecommerce/pkg/domain/model"
)

const DefaultDeliveryDays = 5

type PlaceOrderRequest struct {
	Items           []model.OrderLine
	PaymentMethod   string
	ShippingAddress model.ShippingAddress
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, request PlaceOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Order, int, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)
	RequestReturn(ctx context.Context, userID, orderID uuid.UUID, reason string) (*model.Order, error)
	RequestExchange(ctx context.Context, userID, orderID uuid.UUID, reason string) (*model.Order, error)
	Invoice(ctx context.Context, userID, orderID uuid.UUID) (*model.Invoice, error)

	ListAllOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]model.Order, int, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error)
	ResolveReturn(ctx context.Context, orderID uuid.UUID, status model.RequestStatus) (*model.Order, error)
	ResolveExchange(ctx context.Context, orderID uuid.UUID, status model.RequestStatus) (*model.Order, error)
}

type OrderServiceConfig struct {
	DeliveryDays int
}

func NewOrderService(
	repo model.OrderRepository,
	catalog model.Catalog,
	ledger model.StockLedger,
	carts model.CartRepository,
	pricing PricingEngine,
	invoices InvoiceGenerator,
	dispatcher EventDispatcher,
	config OrderServiceConfig,
) OrderService {
	if config.DeliveryDays <= 0 {
		config.DeliveryDays = DefaultDeliveryDays
	}
	return &orderService{
		repo:       repo,
		catalog:    catalog,
		ledger:     ledger,
		carts:      carts,
		pricing:    pricing,
		invoices:   invoices,
		dispatcher: dispatcher,
		config:     config,
	}
}

type orderService struct {
	repo       model.OrderRepository
	catalog    model.Catalog
	ledger     model.StockLedger
	carts      model.CartRepository
	pricing    PricingEngine
	invoices   InvoiceGenerator
	dispatcher EventDispatcher
	config     OrderServiceConfig
}

func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, request PlaceOrderRequest) (*model.Order, error) {
	paymentMethod, err := validatePlaceOrder(request)
	if err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, 0, len(request.Items))
	for _, line := range request.Items {
		product, err := s.catalog.Get(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, line.ProductID)
		}
		if product.Stock < line.Quantity {
			return nil, fmt.Errorf("%w for %s", model.ErrInsufficientStock, product.Name)
		}
		items = append(items, Snapshot(product, line.Quantity))
	}
	totals := s.pricing.ComputeTotals(items)

	orderID, err := s.repo.NextID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	order := &model.Order{
		ID:                   orderID,
		UserID:               userID,
		Items:                items,
		ShippingAddress:      request.ShippingAddress,
		PaymentMethod:        paymentMethod,
		PaymentStatus:        model.PaymentPending,
		Totals:               totals,
		Status:               model.Pending,
		ExpectedDeliveryDate: now.AddDate(0, 0, s.config.DeliveryDays),
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	lines := order.StockLines()
	if err := s.ledger.ReserveAll(ctx, lines); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, order); err != nil {
		if releaseErr := s.ledger.ReleaseAll(ctx, lines); releaseErr != nil {
			log.WithError(releaseErr).WithField("orderID", orderID).Error("failed to release stock of unsaved order")
		}
		return nil, err
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		log.WithError(err).WithField("userID", userID).Warn("failed to clear cart after order placement")
	}

	_ = s.dispatcher.Dispatch(model.OrderPlaced{OrderID: orderID, UserID: userID, TotalAmount: totals.TotalAmount})
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	return s.findOwned(ctx, userID, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Order, int, error) {
	return s.repo.List(ctx, model.OrderFilter{UserID: &userID}, page)
}

func (s *orderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.findOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.cancel(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) RequestReturn(ctx context.Context, userID, orderID uuid.UUID, reason string) (*model.Order, error) {
	order, err := s.findOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.openRequest(ctx, order, &order.Return, reason); err != nil {
		return nil, err
	}
	_ = s.dispatcher.Dispatch(model.ReturnRequested{OrderID: orderID, Reason: order.Return.Reason})
	return order, nil
}

func (s *orderService) RequestExchange(ctx context.Context, userID, orderID uuid.UUID, reason string) (*model.Order, error) {
	order, err := s.findOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.openRequest(ctx, order, &order.Exchange, reason); err != nil {
		return nil, err
	}
	_ = s.dispatcher.Dispatch(model.ExchangeRequested{OrderID: orderID, Reason: order.Exchange.Reason})
	return order, nil
}

// Invoice returns the cached invoice, rendering and storing it on first use.
func (s *orderService) Invoice(ctx context.Context, userID, orderID uuid.UUID) (*model.Invoice, error) {
	order, err := s.findOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Invoiceable() {
		return nil, model.ErrInvoiceNotAllowed
	}
	if order.HasInvoice() {
		return s.invoices.Load(ctx, order)
	}

	invoice, err := s.invoices.Generate(ctx, order)
	if err != nil {
		return nil, err
	}
	order.InvoiceID = invoice.ID
	order.InvoiceURL = invoice.URL
	if err := s.updateOrder(ctx, order); err != nil {
		if discardErr := s.invoices.Discard(ctx, invoice); discardErr != nil {
			log.WithError(discardErr).WithField("invoiceID", invoice.ID).Warn("failed to discard orphaned invoice")
		}
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.InvoiceAttached{OrderID: orderID, InvoiceID: invoice.ID})
	return invoice, nil
}

func (s *orderService) ListAllOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]model.Order, int, error) {
	return s.repo.List(ctx, filter, page)
}

// UpdateStatus applies an admin transition. Any listed status may be set
// except that terminal states are never left and cancellation still
// requires a pending order.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if _, err := model.ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}
	order, err := s.repo.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if status == model.Cancelled {
		if err := s.cancel(ctx, order); err != nil {
			return nil, err
		}
		return order, nil
	}
	if order.Status.Terminal() {
		return nil, model.ErrInvalidTransition
	}

	oldStatus := order.Status
	order.Status = status
	if status == model.Delivered {
		now := time.Now().UTC()
		order.DeliveredAt = &now
		if order.PaymentMethod == model.PaymentCOD {
			order.PaymentStatus = model.PaymentPaid
		}
	}
	if err := s.updateOrder(ctx, order); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.OrderStatusChanged{
		OrderID:   orderID,
		UserID:    order.UserID,
		OldStatus: oldStatus,
		NewStatus: status,
	})
	return order, nil
}

func (s *orderService) ResolveReturn(ctx context.Context, orderID uuid.UUID, status model.RequestStatus) (*model.Order, error) {
	return s.resolveRequest(ctx, orderID, status, func(o *model.Order) *model.SideRequest { return &o.Return })
}

func (s *orderService) ResolveExchange(ctx context.Context, orderID uuid.UUID, status model.RequestStatus) (*model.Order, error) {
	return s.resolveRequest(ctx, orderID, status, func(o *model.Order) *model.SideRequest { return &o.Exchange })
}

func (s *orderService) resolveRequest(ctx context.Context, orderID uuid.UUID, status model.RequestStatus, side func(*model.Order) *model.SideRequest) (*model.Order, error) {
	if _, ok := model.ParseResolution(string(status)); !ok {
		return nil, model.NewValidationError("invalid fields", "status")
	}
	order, err := s.repo.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	request := side(order)
	if !request.Requested {
		return nil, model.ErrInvalidTransition
	}
	request.Status = status
	if request == &order.Return && status == model.RequestCompleted && order.PaymentStatus == model.PaymentPaid {
		order.PaymentStatus = model.PaymentRefunded
	}
	if err := s.updateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) cancel(ctx context.Context, order *model.Order) error {
	if order.Status != model.Pending {
		return model.ErrInvalidTransition
	}
	now := time.Now().UTC()
	cancelled := *order
	cancelled.Status = model.Cancelled
	cancelled.CancelledAt = &now
	cancelled.Version++
	cancelled.UpdatedAt = now

	// The version check makes sure stock is released once per order.
	if err := s.repo.Cancel(ctx, &cancelled); err != nil {
		return err
	}
	*order = cancelled

	_ = s.dispatcher.Dispatch(model.OrderCancelled{OrderID: order.ID, UserID: order.UserID})
	return nil
}

func (s *orderService) openRequest(ctx context.Context, order *model.Order, request *model.SideRequest, reason string) error {
	if order.Status == model.Cancelled {
		return model.ErrInvalidState
	}
	if request.Requested {
		return model.ErrAlreadyRequested
	}
	now := time.Now().UTC()
	request.Requested = true
	request.Status = model.RequestPending
	request.Reason = truncate(reason, model.MaxRequestReasonLength)
	request.RequestedAt = &now
	return s.updateOrder(ctx, order)
}

func (s *orderService) findOwned(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.repo.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) updateOrder(ctx context.Context, order *model.Order) error {
	order.Version++
	order.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, order)
}

func validatePlaceOrder(request PlaceOrderRequest) (model.PaymentMethod, error) {
	var missing []string
	if len(request.Items) == 0 {
		missing = append(missing, "items")
	}
	if request.PaymentMethod == "" {
		missing = append(missing, "paymentMethod")
	}
	missing = append(missing, request.ShippingAddress.MissingFields()...)
	if len(missing) > 0 {
		return "", model.NewValidationError("missing required fields", missing...)
	}

	var invalid []string
	method, ok := model.ParsePaymentMethod(request.PaymentMethod)
	if !ok {
		invalid = append(invalid, "paymentMethod")
	}
	for i, line := range request.Items {
		if line.ProductID == uuid.Nil {
			invalid = append(invalid, fmt.Sprintf("items[%d].productId", i))
		}
		if line.Quantity < 1 {
			invalid = append(invalid, fmt.Sprintf("items[%d].quantity", i))
		}
	}
	if len(invalid) > 0 {
		return "", model.NewValidationError("invalid fields", invalid...)
	}
	return method, nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
