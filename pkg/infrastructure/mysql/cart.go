package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"ecommerce/pkg/domain/model"
)

type cartRow struct {
	UserID    uuid.UUID                    `db:"user_id"`
	Items     jsonColumn[[]model.CartItem] `db:"items"`
	UpdatedAt time.Time                    `db:"updated_at"`
}

func NewCartRepository(db *sqlx.DB) model.CartRepository {
	return &cartRepository{db: db}
}

type cartRepository struct {
	db *sqlx.DB
}

func (r *cartRepository) Find(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	var row cartRow
	err := r.db.GetContext(ctx, &row, `SELECT user_id, items, updated_at FROM cart WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.Cart{UserID: userID, Items: []model.CartItem{}}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find cart")
	}
	return &model.Cart{UserID: row.UserID, Items: row.Items.V, UpdatedAt: row.UpdatedAt}, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *model.Cart) error {
	items := cart.Items
	if items == nil {
		items = []model.CartItem{}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart (user_id, items, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE items = VALUES(items), updated_at = VALUES(updated_at)`,
		cart.UserID, jsonColumn[[]model.CartItem]{V: items}, cart.UpdatedAt,
	)
	return errors.Wrap(err, "save cart")
}

// Clear empties the cart but keeps its row.
func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cart SET items = JSON_ARRAY(), updated_at = ? WHERE user_id = ?`,
		time.Now().UTC(), userID,
	)
	return errors.Wrap(err, "clear cart")
}
