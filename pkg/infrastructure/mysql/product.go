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
	productColumns = `product_id, name, description, category, price, sale_price, tax_rate, extra_charge, stock, images, created_at, updated_at`

	effectivePriceExpr = `CASE WHEN sale_price IS NOT NULL AND sale_price >= 0 AND sale_price < price THEN sale_price ELSE price END`
)

type productRow struct {
	ID          uuid.UUID            `db:"product_id"`
	Name        string               `db:"name"`
	Description string               `db:"description"`
	Category    string               `db:"category"`
	Price       decimal.Decimal      `db:"price"`
	SalePrice   decimal.NullDecimal  `db:"sale_price"`
	TaxRate     decimal.NullDecimal  `db:"tax_rate"`
	ExtraCharge decimal.Decimal      `db:"extra_charge"`
	Stock       int                  `db:"stock"`
	Images      jsonColumn[[]string] `db:"images"`
	CreatedAt   time.Time            `db:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at"`
}

func (r productRow) toModel() model.Product {
	product := model.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		ExtraCharge: r.ExtraCharge,
		Stock:       r.Stock,
		Images:      r.Images.V,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.SalePrice.Valid {
		salePrice := r.SalePrice.Decimal
		product.SalePrice = &salePrice
	}
	if r.TaxRate.Valid {
		taxRate := r.TaxRate.Decimal
		product.TaxRate = &taxRate
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	return product
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func images(p *model.Product) jsonColumn[[]string] {
	if p.Images == nil {
		return jsonColumn[[]string]{V: []string{}}
	}
	return jsonColumn[[]string]{V: p.Images}
}

func NewProductRepository(db *sqlx.DB) model.ProductRepository {
	return &productRepository{db: db}
}

type productRepository struct {
	db *sqlx.DB
}

func (r *productRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO product (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Category, p.Price, nullDecimal(p.SalePrice), nullDecimal(p.TaxRate),
		p.ExtraCharge, p.Stock, images(p), p.CreatedAt, p.UpdatedAt,
	)
	return errors.Wrap(err, "insert product")
}

// Update writes catalog fields only. The stock column belongs to the ledger.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE product
		SET name = ?, description = ?, category = ?, price = ?, sale_price = ?, tax_rate = ?,
		    extra_charge = ?, images = ?, updated_at = ?
		WHERE product_id = ?`,
		p.Name, p.Description, p.Category, p.Price, nullDecimal(p.SalePrice), nullDecimal(p.TaxRate),
		p.ExtraCharge, images(p), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	return expectAffected(result, func() error {
		_, err := r.Find(ctx, p.ID)
		return err
	})
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product WHERE product_id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) Find(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM product WHERE product_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product")
	}
	product := row.toModel()
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter model.ProductFilter, page model.Page) ([]model.Product, int, error) {
	where, args := productConditions(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM product`+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	var rows []productRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+productColumns+` FROM product`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Offset())...,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}
	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toModel())
	}
	return products, total, nil
}

func (r *productRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM product`)
	return count, errors.Wrap(err, "count products")
}

func (r *productRepository) CountLowStock(ctx context.Context, threshold int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM product WHERE stock <= ?`, threshold)
	return count, errors.Wrap(err, "count low stock products")
}

func productConditions(filter model.ProductFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Category != "" {
		conditions = append(conditions, `category = ?`)
		args = append(args, filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, `name LIKE ?`)
		args = append(args, "%"+escapeLike(search)+"%")
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, effectivePriceExpr+` >= ?`)
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, effectivePriceExpr+` <= ?`)
		args = append(args, *filter.MaxPrice)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conditions, ` AND `), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
