package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"paircall-service/internal/models"
)

var (
	ErrItemNotFound      = errors.New("store item not found")
	ErrPurchaseNotFound  = errors.New("purchase not found")
	ErrInsufficientGems  = errors.New("insufficient gems")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const itemColumns = `id, name, description, category, price, stock, purchase_count, is_active, is_featured, created_at, updated_at`
const purchaseColumns = `id, user_id, item_id, quantity, unit_price, total_price, status, created_at`

// StoreRepository defines interactions for the item catalog and purchases.
type StoreRepository interface {
	ListItems(ctx context.Context, query models.ItemQuery) ([]models.StoreItem, error)
	GetItem(ctx context.Context, itemID string) (models.StoreItem, error)
	FeaturedItems(ctx context.Context, limit int) ([]models.StoreItem, error)
	CountByCategory(ctx context.Context) (map[string]int, error)
	Purchase(ctx context.Context, userID, itemID string, quantity int) (models.Purchase, error)
	ListPurchases(ctx context.Context, userID, statusFilter string, offset, limit int) ([]models.Purchase, error)
	GetPurchase(ctx context.Context, purchaseID string) (models.Purchase, error)
}

// StoreRepo is a sqlx-backed repository.
type StoreRepo struct {
	db *sqlx.DB
}

// NewStoreRepo constructs StoreRepo.
func NewStoreRepo(db *sqlx.DB) *StoreRepo {
	return &StoreRepo{db: db}
}

// ListItems returns active catalog entries matching the query.
func (r *StoreRepo) ListItems(ctx context.Context, query models.ItemQuery) ([]models.StoreItem, error) {
	where := []string{"is_active = TRUE"}
	args := []interface{}{}

	addWhere := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if query.Category != "" {
		addWhere("category = $%d", query.Category)
	}
	if query.MinPrice > 0 {
		addWhere("price >= $%d", query.MinPrice)
	}
	if query.MaxPrice > 0 {
		addWhere("price <= $%d", query.MaxPrice)
	}
	if query.Query != "" {
		addWhere("(name ILIKE $%d OR description ILIKE $%[1]d)", "%"+query.Query+"%")
	}

	orderColumn := "purchase_count"
	switch query.SortBy {
	case "name":
		orderColumn = "name"
	case "price":
		orderColumn = "price"
	case "created_at":
		orderColumn = "created_at"
	}
	direction := "DESC"
	if query.Order == "asc" {
		direction = "ASC"
	}

	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, query.Offset)

	sqlQuery := fmt.Sprintf(`SELECT %s FROM store_items WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		itemColumns, strings.Join(where, " AND "), orderColumn, direction, len(args)-1, len(args))

	var items []models.StoreItem
	err := r.db.SelectContext(ctx, &items, sqlQuery, args...)
	return items, err
}

// GetItem retrieves a single active item.
func (r *StoreRepo) GetItem(ctx context.Context, itemID string) (models.StoreItem, error) {
	var item models.StoreItem
	err := r.db.GetContext(ctx, &item,
		`SELECT `+itemColumns+` FROM store_items WHERE id=$1 AND is_active=TRUE`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoreItem{}, ErrItemNotFound
	}
	return item, err
}

// FeaturedItems returns featured items, most purchased first.
func (r *StoreRepo) FeaturedItems(ctx context.Context, limit int) ([]models.StoreItem, error) {
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	var items []models.StoreItem
	err := r.db.SelectContext(ctx, &items,
		`SELECT `+itemColumns+` FROM store_items
         WHERE is_featured=TRUE AND is_active=TRUE
         ORDER BY purchase_count DESC, created_at DESC LIMIT $1`, limit)
	return items, err
}

// CountByCategory returns the number of active items per category.
func (r *StoreRepo) CountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT category, COUNT(*) FROM store_items WHERE is_active=TRUE GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

// Purchase debits quantity*price gems, decrements stock, and appends the
// purchase record, all in one transaction. The balance debit is guarded by
// the gems >= total predicate so a concurrent purchase can never overdraw.
func (r *StoreRepo) Purchase(ctx context.Context, userID, itemID string, quantity int) (models.Purchase, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Purchase{}, err
	}
	defer tx.Rollback()

	var item models.StoreItem
	err = tx.GetContext(ctx, &item,
		`SELECT `+itemColumns+` FROM store_items WHERE id=$1 AND is_active=TRUE FOR UPDATE`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Purchase{}, ErrItemNotFound
	}
	if err != nil {
		return models.Purchase{}, err
	}

	if item.Stock < quantity {
		return models.Purchase{}, ErrInsufficientStock
	}

	total := item.Price * int64(quantity)

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET gems = gems - $2, updated_at=NOW() WHERE id=$1 AND gems >= $2`,
		userID, total)
	if err != nil {
		return models.Purchase{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.Purchase{}, err
	}
	if count == 0 {
		return models.Purchase{}, ErrInsufficientGems
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE store_items SET stock = stock - $2, purchase_count = purchase_count + $2, updated_at=NOW() WHERE id=$1`,
		itemID, quantity); err != nil {
		return models.Purchase{}, err
	}

	var purchase models.Purchase
	err = tx.GetContext(ctx, &purchase,
		`INSERT INTO purchases (id, user_id, item_id, quantity, unit_price, total_price, status)
         VALUES ($1, $2, $3, $4, $5, $6, 'completed')
         RETURNING `+purchaseColumns,
		uuid.NewString(), userID, itemID, quantity, item.Price, total)
	if err != nil {
		return models.Purchase{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Purchase{}, err
	}
	return purchase, nil
}

// ListPurchases returns the user's purchase history, newest first.
func (r *StoreRepo) ListPurchases(ctx context.Context, userID, statusFilter string, offset, limit int) ([]models.Purchase, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id=$1`
	args := []interface{}{userID}
	if statusFilter != "" {
		args = append(args, statusFilter)
		query += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	args = append(args, offset, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`, len(args)-1, len(args))

	var purchases []models.Purchase
	err := r.db.SelectContext(ctx, &purchases, query, args...)
	return purchases, err
}

// GetPurchase retrieves a single purchase record.
func (r *StoreRepo) GetPurchase(ctx context.Context, purchaseID string) (models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.GetContext(ctx, &purchase,
		`SELECT `+purchaseColumns+` FROM purchases WHERE id=$1`, purchaseID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Purchase{}, ErrPurchaseNotFound
	}
	return purchase, err
}
