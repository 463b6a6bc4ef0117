package mysql

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ecommerce/pkg/domain/model"
)

const (
	reserveStockQuery  = `UPDATE product SET stock = stock - ? WHERE product_id = ? AND stock >= ?`
	releaseStockQuery  = `UPDATE product SET stock = stock + ? WHERE product_id = ?`
	productExistsQuery = `SELECT COUNT(*) FROM product WHERE product_id = ?`
)

// NewStockLedger returns a ledger that moves stock with conditional UPDATEs,
// so the row lock taken by MySQL serialises concurrent reservations.
func NewStockLedger(db *sqlx.DB) model.StockLedger {
	return &stockLedger{db: db}
}

type stockLedger struct {
	db *sqlx.DB
}

func (l *stockLedger) Reserve(ctx context.Context, productID uuid.UUID, quantity int) error {
	return l.ReserveAll(ctx, []model.StockLine{{ProductID: productID, Quantity: quantity}})
}

func (l *stockLedger) Release(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}
	result, err := l.db.ExecContext(ctx, releaseStockQuery, quantity, productID)
	if err != nil {
		return errors.Wrap(err, "release stock")
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

func (l *stockLedger) ReserveAll(ctx context.Context, lines []model.StockLine) error {
	merged, err := mergeLines(lines)
	if err != nil {
		return err
	}
	return withTx(ctx, l.db, func(tx *sqlx.Tx) error {
		for _, line := range merged {
			result, err := tx.ExecContext(ctx, reserveStockQuery, line.Quantity, line.ProductID, line.Quantity)
			if err != nil {
				return errors.Wrap(err, "reserve stock")
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return errors.WithStack(err)
			}
			if affected > 0 {
				continue
			}

			var exists int
			if err := tx.GetContext(ctx, &exists, productExistsQuery, line.ProductID); err != nil {
				return errors.Wrap(err, "check product")
			}
			if exists == 0 {
				return errors.WithMessage(model.ErrProductNotFound, line.ProductID.String())
			}
			return errors.WithMessage(model.ErrInsufficientStock, line.ProductID.String())
		}
		return nil
	})
}

// ReleaseAll returns stock of every line in one transaction. Lines whose
// product has been deleted since are skipped.
func (l *stockLedger) ReleaseAll(ctx context.Context, lines []model.StockLine) error {
	if _, err := mergeLines(lines); err != nil {
		return err
	}
	return withTx(ctx, l.db, func(tx *sqlx.Tx) error {
		return releaseLines(ctx, tx, lines)
	})
}

func releaseLines(ctx context.Context, db sqlx.ExecerContext, lines []model.StockLine) error {
	merged, err := mergeLines(lines)
	if err != nil {
		return err
	}
	for _, line := range merged {
		result, err := db.ExecContext(ctx, releaseStockQuery, line.Quantity, line.ProductID)
		if err != nil {
			return errors.Wrap(err, "release stock")
		}
		if affected, err := result.RowsAffected(); err == nil && affected == 0 {
			log.WithField("productID", line.ProductID).Warn("released stock of a missing product")
		}
	}
	return nil
}

// mergeLines sums quantities per product and orders them by id so that
// concurrent transactions lock rows in the same order.
func mergeLines(lines []model.StockLine) ([]model.StockLine, error) {
	totals := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, model.ErrInvalidQuantity
		}
		totals[line.ProductID] += line.Quantity
	}
	merged := make([]model.StockLine, 0, len(totals))
	for productID, quantity := range totals {
		merged = append(merged, model.StockLine{ProductID: productID, Quantity: quantity})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ProductID.String() < merged[j].ProductID.String()
	})
	return merged, nil
}
