package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paircall-service/internal/models"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func itemRow(id string, price int64, stock int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "description", "category", "price", "stock", "purchase_count",
		"is_active", "is_featured", "created_at", "updated_at",
	}).AddRow(id, "Rose", "a rose", models.CategoryGift, price, stock, 0, true, false, now, now)
}

func TestPurchaseDebitsAtomically(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStoreRepo(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM store_items WHERE id=\$1 AND is_active=TRUE FOR UPDATE`).
		WithArgs("item-1").
		WillReturnRows(itemRow("item-1", 150, 10))
	mock.ExpectExec(`UPDATE users SET gems = gems - \$2.+WHERE id=\$1 AND gems >= \$2`).
		WithArgs("alice", int64(150)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE store_items SET stock = stock - \$2`).
		WithArgs("item-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO purchases`).
		WithArgs(sqlmock.AnyArg(), "alice", "item-1", 1, int64(150), int64(150)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "item_id", "quantity", "unit_price", "total_price", "status", "created_at",
		}).AddRow("p1", "alice", "item-1", 1, int64(150), int64(150), "completed", now))
	mock.ExpectCommit()

	purchase, err := repo.Purchase(context.Background(), "alice", "item-1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(150), purchase.TotalPrice)
	assert.Equal(t, "completed", purchase.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseInsufficientGemsRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStoreRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM store_items WHERE id=\$1 AND is_active=TRUE FOR UPDATE`).
		WithArgs("item-1").
		WillReturnRows(itemRow("item-1", 150, 10))
	// The guarded debit matches no row when the balance is short.
	mock.ExpectExec(`UPDATE users SET gems = gems - \$2.+WHERE id=\$1 AND gems >= \$2`).
		WithArgs("alice", int64(300)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Purchase(context.Background(), "alice", "item-1", 2)
	require.ErrorIs(t, err, ErrInsufficientGems)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseInsufficientStockRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStoreRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM store_items WHERE id=\$1 AND is_active=TRUE FOR UPDATE`).
		WithArgs("item-1").
		WillReturnRows(itemRow("item-1", 150, 1))
	mock.ExpectRollback()

	_, err := repo.Purchase(context.Background(), "alice", "item-1", 5)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseUnknownItem(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStoreRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM store_items WHERE id=\$1 AND is_active=TRUE FOR UPDATE`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Purchase(context.Background(), "alice", "missing", 1)
	require.ErrorIs(t, err, ErrItemNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
