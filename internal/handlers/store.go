package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paircall-service/internal/models"
	"paircall-service/internal/observability"
	"paircall-service/internal/repositories"
	"paircall-service/internal/telemetry"
)

// StoreHandler manages the item catalog and gem purchases.
type StoreHandler struct {
	store   repositories.StoreRepository
	users   repositories.UserRepository
	emitter *telemetry.AuditEmitter
}

// NewStoreHandler builds a StoreHandler.
func NewStoreHandler(store repositories.StoreRepository, users repositories.UserRepository, emitter *telemetry.AuditEmitter) *StoreHandler {
	return &StoreHandler{store: store, users: users, emitter: emitter}
}

// ListItems returns the filtered catalog.
func (h *StoreHandler) ListItems(c *gin.Context) {
	query := models.ItemQuery{
		Category: c.Query("category"),
		MinPrice: int64Query(c, "min_price"),
		MaxPrice: int64Query(c, "max_price"),
		Query:    c.Query("q"),
		SortBy:   c.Query("sort_by"),
		Order:    c.Query("order"),
		Offset:   intQuery(c, "offset"),
		Limit:    intQuery(c, "limit"),
	}

	items, err := h.store.ListItems(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GetItem returns a single catalog entry.
func (h *StoreHandler) GetItem(c *gin.Context) {
	item, err := h.store.GetItem(c.Request.Context(), c.Param("item_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load item"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// Featured returns the featured items.
func (h *StoreHandler) Featured(c *gin.Context) {
	items, err := h.store.FeaturedItems(c.Request.Context(), intQuery(c, "limit"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load featured items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// Categories returns the category list with active item counts.
func (h *StoreHandler) Categories(c *gin.Context) {
	counts, err := h.store.CountByCategory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load categories"})
		return
	}

	type categoryEntry struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	entries := make([]categoryEntry, 0, len(models.Categories))
	for _, name := range models.Categories {
		entries = append(entries, categoryEntry{Name: name, Count: counts[name]})
	}
	c.JSON(http.StatusOK, gin.H{"categories": entries})
}

// Purchase debits gems and records the purchase atomically. A balance or
// stock shortfall leaves the account untouched.
func (h *StoreHandler) Purchase(c *gin.Context) {
	var req struct {
		ItemID   string `json:"item_id" binding:"required"`
		Quantity int    `json:"quantity" binding:"required,gte=1,lte=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUserID(c)
	purchase, err := h.store.Purchase(c.Request.Context(), userID, req.ItemID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrItemNotFound):
			observability.IncPurchase("item_not_found")
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		case errors.Is(err, repositories.ErrInsufficientGems):
			observability.IncPurchase("insufficient_gems")
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient gems"})
		case errors.Is(err, repositories.ErrInsufficientStock):
			observability.IncPurchase("insufficient_stock")
			c.JSON(http.StatusConflict, gin.H{"error": "insufficient stock"})
		default:
			observability.IncPurchase("error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "purchase failed"})
		}
		return
	}

	observability.IncPurchase("completed")
	h.emitter.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("purchase %s: item %s x%d for %d gems", purchase.ID, purchase.ItemID, purchase.Quantity, purchase.TotalPrice),
		requestIDFromContext(c), &userID)

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusCreated, gin.H{"purchase": purchase})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"purchase": purchase, "remaining_gems": user.Gems})
}

// ListPurchases returns the caller's purchase history.
func (h *StoreHandler) ListPurchases(c *gin.Context) {
	purchases, err := h.store.ListPurchases(c.Request.Context(), currentUserID(c),
		c.Query("status"), intQuery(c, "offset"), intQuery(c, "limit"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load purchases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases, "count": len(purchases)})
}

// GetPurchase returns one purchase record; callers may only see their own.
func (h *StoreHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.store.GetPurchase(c.Request.Context(), c.Param("purchase_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrPurchaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "purchase not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load purchase"})
		return
	}
	if purchase.UserID != currentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase not found"})
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func int64Query(c *gin.Context, key string) int64 {
	value, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
