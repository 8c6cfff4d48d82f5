package models

import "time"

// Store item categories.
const (
	CategoryFilter = "filter"
	CategoryGift   = "gift"
	CategoryVIP    = "vip"
	CategoryGems   = "gems"
)

// Categories lists every store category in display order.
var Categories = []string{CategoryFilter, CategoryGift, CategoryVIP, CategoryGems}

// StoreItem is a purchasable catalog entry priced in gems.
type StoreItem struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	Category      string    `db:"category" json:"category"`
	Price         int64     `db:"price" json:"price"`
	Stock         int       `db:"stock" json:"stock"`
	PurchaseCount int       `db:"purchase_count" json:"purchase_count"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	IsFeatured    bool      `db:"is_featured" json:"is_featured"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Purchase records a completed balance debit for an item.
type Purchase struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	ItemID     string    `db:"item_id" json:"item_id"`
	Quantity   int       `db:"quantity" json:"quantity"`
	UnitPrice  int64     `db:"unit_price" json:"unit_price"`
	TotalPrice int64     `db:"total_price" json:"total_price"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ItemQuery holds the filters for GET /store/items.
type ItemQuery struct {
	Category string
	MinPrice int64
	MaxPrice int64
	Query    string
	SortBy   string
	Order    string
	Offset   int
	Limit    int
}
