package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"ecommerce/pkg/domain/model"
)

const (
	orderColumns = `order_id, user_id, shipping_address, payment_method, payment_status,
		items_price, tax_price, extra_charges, shipping_price, total_amount, status,
		return_request, exchange_request, invoice_url, invoice_id, expected_delivery_date,
		delivered_at, cancelled_at, version, created_at, updated_at`

	orderItemColumns = `order_id, position, product_id, name, image, quantity, price, tax_rate, extra_charge`
)

type orderRow struct {
	ID                   uuid.UUID                         `db:"order_id"`
	UserID               uuid.UUID                         `db:"user_id"`
	ShippingAddress      jsonColumn[model.ShippingAddress] `db:"shipping_address"`
	PaymentMethod        string                            `db:"payment_method"`
	PaymentStatus        string                            `db:"payment_status"`
	ItemsPrice           decimal.Decimal                   `db:"items_price"`
	TaxPrice             decimal.Decimal                   `db:"tax_price"`
	ExtraCharges         decimal.Decimal                   `db:"extra_charges"`
	ShippingPrice        decimal.Decimal                   `db:"shipping_price"`
	TotalAmount          decimal.Decimal                   `db:"total_amount"`
	Status               string                            `db:"status"`
	Return               jsonColumn[model.SideRequest]     `db:"return_request"`
	Exchange             jsonColumn[model.SideRequest]     `db:"exchange_request"`
	InvoiceURL           string                            `db:"invoice_url"`
	InvoiceID            string                            `db:"invoice_id"`
	ExpectedDeliveryDate time.Time                         `db:"expected_delivery_date"`
	DeliveredAt          sql.NullTime                      `db:"delivered_at"`
	CancelledAt          sql.NullTime                      `db:"cancelled_at"`
	Version              int                               `db:"version"`
	CreatedAt            time.Time                         `db:"created_at"`
	UpdatedAt            time.Time                         `db:"updated_at"`
}

func (r orderRow) toModel() model.Order {
	return model.Order{
		ID:              r.ID,
		UserID:          r.UserID,
		Items:           []model.OrderItem{},
		ShippingAddress: r.ShippingAddress.V,
		PaymentMethod:   model.PaymentMethod(r.PaymentMethod),
		PaymentStatus:   model.PaymentStatus(r.PaymentStatus),
		Totals: model.Totals{
			ItemsPrice:    r.ItemsPrice,
			TaxPrice:      r.TaxPrice,
			ExtraCharges:  r.ExtraCharges,
			ShippingPrice: r.ShippingPrice,
			TotalAmount:   r.TotalAmount,
		},
		Status:               model.OrderStatus(r.Status),
		Return:               r.Return.V,
		Exchange:             r.Exchange.V,
		InvoiceURL:           r.InvoiceURL,
		InvoiceID:            r.InvoiceID,
		ExpectedDeliveryDate: r.ExpectedDeliveryDate,
		DeliveredAt:          timePtr(r.DeliveredAt),
		CancelledAt:          timePtr(r.CancelledAt),
		Version:              r.Version,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

type orderItemRow struct {
	OrderID     uuid.UUID       `db:"order_id"`
	Position    int             `db:"position"`
	ProductID   uuid.UUID       `db:"product_id"`
	Name        string          `db:"name"`
	Image       string          `db:"image"`
	Quantity    int             `db:"quantity"`
	Price       decimal.Decimal `db:"price"`
	TaxRate     decimal.Decimal `db:"tax_rate"`
	ExtraCharge decimal.Decimal `db:"extra_charge"`
}

func (r orderItemRow) toModel() model.OrderItem {
	return model.OrderItem{
		ProductID:   r.ProductID,
		Name:        r.Name,
		Image:       r.Image,
		Quantity:    r.Quantity,
		Price:       r.Price,
		TaxRate:     r.TaxRate,
		ExtraCharge: r.ExtraCharge,
	}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}

func NewOrderRepository(db *sqlx.DB) model.OrderRepository {
	return &orderRepository{db: db}
}

type orderRepository struct {
	db *sqlx.DB
}

func (r *orderRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (`+orderColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID, order.UserID, jsonColumn[model.ShippingAddress]{V: order.ShippingAddress},
			string(order.PaymentMethod), string(order.PaymentStatus),
			order.ItemsPrice, order.TaxPrice, order.ExtraCharges, order.ShippingPrice, order.TotalAmount,
			string(order.Status),
			jsonColumn[model.SideRequest]{V: order.Return}, jsonColumn[model.SideRequest]{V: order.Exchange},
			order.InvoiceURL, order.InvoiceID, order.ExpectedDeliveryDate,
			nullTime(order.DeliveredAt), nullTime(order.CancelledAt),
			order.Version, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "insert order")
		}
		for i, item := range order.Items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO order_item (`+orderItemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				order.ID, i, item.ProductID, item.Name, item.Image, item.Quantity,
				item.Price, item.TaxRate, item.ExtraCharge,
			)
			if err != nil {
				return errors.Wrap(err, "insert order item")
			}
		}
		return nil
	})
}

// Update writes the mutable part of an order. Items and totals are frozen at
// creation and never rewritten.
func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return updateOrder(ctx, r.db, order)
}

// Cancel stores the cancelled order and returns its stock in one transaction,
// so a failed release leaves the order pending.
func (r *orderRepository) Cancel(ctx context.Context, order *model.Order) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := updateOrder(ctx, tx, order); err != nil {
			return err
		}
		return releaseLines(ctx, tx, order.StockLines())
	})
}

func updateOrder(ctx context.Context, db sqlx.ExtContext, order *model.Order) error {
	result, err := db.ExecContext(ctx,
		`UPDATE orders
		SET payment_status = ?, status = ?, return_request = ?, exchange_request = ?,
		    invoice_url = ?, invoice_id = ?, delivered_at = ?, cancelled_at = ?,
		    version = ?, updated_at = ?
		WHERE order_id = ? AND version = ?`,
		string(order.PaymentStatus), string(order.Status),
		jsonColumn[model.SideRequest]{V: order.Return}, jsonColumn[model.SideRequest]{V: order.Exchange},
		order.InvoiceURL, order.InvoiceID, nullTime(order.DeliveredAt), nullTime(order.CancelledAt),
		order.Version, order.UpdatedAt,
		order.ID, order.Version-1,
	)
	if err != nil {
		return errors.Wrap(err, "update order")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	if err := sqlx.GetContext(ctx, db, &exists, `SELECT COUNT(*) FROM orders WHERE order_id = ?`, order.ID); err != nil {
		return errors.Wrap(err, "check order")
	}
	if exists == 0 {
		return model.ErrOrderNotFound
	}
	return model.ErrOptimisticLock
}

func (r *orderRepository) Find(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find order")
	}

	orders := []model.Order{row.toModel()}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter, page model.Page) ([]model.Order, int, error) {
	var (
		conditions []string
		args       []interface{}
		where      string
	)
	if filter.UserID != nil {
		conditions = append(conditions, `user_id = ?`)
		args = append(args, *filter.UserID)
	}
	if filter.Status != nil {
		conditions = append(conditions, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if len(conditions) > 0 {
		where = ` WHERE ` + strings.Join(conditions, ` AND `)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders`+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+orderColumns+` FROM orders`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset())...,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}
	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toModel())
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) Stats(ctx context.Context) (model.OrderStats, error) {
	stats := model.OrderStats{CountByStatus: make(map[model.OrderStatus]int)}

	var counts []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &counts, `SELECT status, COUNT(*) AS count FROM orders GROUP BY status`); err != nil {
		return stats, errors.Wrap(err, "count orders by status")
	}
	for _, c := range counts {
		stats.CountByStatus[model.OrderStatus(c.Status)] = c.Count
	}

	err := r.db.GetContext(ctx, &stats.Revenue,
		`SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> ?`, string(model.Cancelled))
	return stats, errors.Wrap(err, "sum revenue")
}

func (r *orderRepository) loadItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]int, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for i, order := range orders {
		index[order.ID] = i
		ids = append(ids, order.ID)
	}

	query, args, err := sqlx.In(
		`SELECT `+orderItemColumns+` FROM order_item WHERE order_id IN (?) ORDER BY order_id, position`, ids)
	if err != nil {
		return errors.WithStack(err)
	}
	var rows []orderItemRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "load order items")
	}
	for _, row := range rows {
		i := index[row.OrderID]
		orders[i].Items = append(orders[i].Items, row.toModel())
	}
	return nil
}
