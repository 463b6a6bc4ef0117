package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce/pkg/domain/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestReserveAllCommitsWhenEveryLineFits(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewStockLedger(db)
	first, second := uuid.MustParse("00000000-0000-0000-0000-000000000001"), uuid.MustParse("00000000-0000-0000-0000-000000000002")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(reserveStockQuery)).
		WithArgs(5, first, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(reserveStockQuery)).
		WithArgs(1, second, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ledger.ReserveAll(context.Background(), []model.StockLine{
		{ProductID: second, Quantity: 1},
		{ProductID: first, Quantity: 2},
		{ProductID: first, Quantity: 3},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveAllRollsBackOnInsufficientStock(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewStockLedger(db)
	first, second := uuid.MustParse("00000000-0000-0000-0000-000000000001"), uuid.MustParse("00000000-0000-0000-0000-000000000002")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(reserveStockQuery)).
		WithArgs(1, first, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(reserveStockQuery)).
		WithArgs(9, second, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(productExistsQuery)).
		WithArgs(second).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := ledger.ReserveAll(context.Background(), []model.StockLine{
		{ProductID: first, Quantity: 1},
		{ProductID: second, Quantity: 9},
	})

	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveUnknownProduct(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewStockLedger(db)
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(reserveStockQuery)).
		WithArgs(2, productID, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(productExistsQuery)).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err := ledger.Reserve(context.Background(), productID, 2)

	assert.ErrorIs(t, err, model.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewStockLedger(db)

	err := ledger.Reserve(context.Background(), uuid.New(), 0)

	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseAllSkipsMissingProducts(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewStockLedger(db)
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(releaseStockQuery)).
		WithArgs(3, productID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := ledger.ReleaseAll(context.Background(), []model.StockLine{{ProductID: productID, Quantity: 3}})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseReportsDriverErrors(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewStockLedger(db)
	productID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(releaseStockQuery)).
		WithArgs(4, productID).
		WillReturnError(errors.New("connection reset"))

	err := ledger.Release(context.Background(), productID, 4)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderUpdateOptimisticLock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	order := &model.Order{ID: uuid.New(), Status: model.Processing, Version: 3}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE order_id = ?`)).
		WithArgs(order.ID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := repo.Update(context.Background(), order)

	assert.ErrorIs(t, err, model.ErrOptimisticLock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCancelReleasesStockInSameTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	productID := uuid.New()
	order := &model.Order{
		ID:      uuid.New(),
		Status:  model.Cancelled,
		Items:   []model.OrderItem{{ProductID: productID, Quantity: 2}},
		Version: 2,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(releaseStockQuery)).
		WithArgs(2, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Cancel(context.Background(), order))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCancelRollsBackWhenReleaseFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	productID := uuid.New()
	order := &model.Order{
		ID:      uuid.New(),
		Status:  model.Cancelled,
		Items:   []model.OrderItem{{ProductID: productID, Quantity: 2}},
		Version: 2,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(releaseStockQuery)).
		WithArgs(2, productID).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := repo.Cancel(context.Background(), order)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}
