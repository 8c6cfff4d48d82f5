package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paircall-service/internal/mocks"
	"paircall-service/internal/models"
	"paircall-service/internal/repositories"
)

func setupStoreRouter(handler *StoreHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/store/items", handler.ListItems)
	r.GET("/store/items/:item_id", handler.GetItem)
	r.POST("/store/purchase", handler.Purchase)
	r.GET("/store/purchases/:purchase_id", handler.GetPurchase)
	return r
}

func TestPurchaseDebitsBalance(t *testing.T) {
	store := new(mocks.StoreRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	handler := NewStoreHandler(store, users, nil)
	router := setupStoreRouter(handler, "alice")

	// Balance 1595, one item at 150 gems: purchase succeeds, 1445 remain.
	store.On("Purchase", mock.Anything, "alice", "item-1", 1).
		Return(models.Purchase{ID: "p1", UserID: "alice", ItemID: "item-1", Quantity: 1, UnitPrice: 150, TotalPrice: 150, Status: "completed"}, nil).Once()
	users.On("GetByID", mock.Anything, "alice").Return(models.User{ID: "alice", Gems: 1445}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/store/purchase", bytes.NewBufferString(`{"item_id":"item-1","quantity":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Purchase      models.Purchase `json:"purchase"`
		RemainingGems int64           `json:"remaining_gems"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(150), resp.Purchase.TotalPrice)
	assert.Equal(t, int64(1445), resp.RemainingGems)
	store.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestPurchaseInsufficientGems(t *testing.T) {
	store := new(mocks.StoreRepositoryMock)
	handler := NewStoreHandler(store, new(mocks.UserRepositoryMock), nil)
	router := setupStoreRouter(handler, "alice")

	store.On("Purchase", mock.Anything, "alice", "item-1", 5).
		Return(models.Purchase{}, repositories.ErrInsufficientGems).Once()

	req := httptest.NewRequest(http.MethodPost, "/store/purchase", bytes.NewBufferString(`{"item_id":"item-1","quantity":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	store.AssertExpectations(t)
}

func TestPurchaseOutOfStock(t *testing.T) {
	store := new(mocks.StoreRepositoryMock)
	handler := NewStoreHandler(store, new(mocks.UserRepositoryMock), nil)
	router := setupStoreRouter(handler, "alice")

	store.On("Purchase", mock.Anything, "alice", "item-1", 2).
		Return(models.Purchase{}, repositories.ErrInsufficientStock).Once()

	req := httptest.NewRequest(http.MethodPost, "/store/purchase", bytes.NewBufferString(`{"item_id":"item-1","quantity":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	store.AssertExpectations(t)
}

func TestPurchaseInvalidQuantity(t *testing.T) {
	handler := NewStoreHandler(new(mocks.StoreRepositoryMock), new(mocks.UserRepositoryMock), nil)
	router := setupStoreRouter(handler, "alice")

	req := httptest.NewRequest(http.MethodPost, "/store/purchase", bytes.NewBufferString(`{"item_id":"item-1","quantity":0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListItemsPassesFilters(t *testing.T) {
	store := new(mocks.StoreRepositoryMock)
	handler := NewStoreHandler(store, new(mocks.UserRepositoryMock), nil)
	router := setupStoreRouter(handler, "alice")

	store.On("ListItems", mock.Anything, models.ItemQuery{
		Category: "gift", MinPrice: 10, MaxPrice: 500, SortBy: "price", Order: "asc", Limit: 5,
	}).Return([]models.StoreItem{{ID: "item-1", Name: "Rose", Price: 50}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/store/items?category=gift&min_price=10&max_price=500&sort_by=price&order=asc&limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestGetPurchaseOfOtherUserHidden(t *testing.T) {
	store := new(mocks.StoreRepositoryMock)
	handler := NewStoreHandler(store, new(mocks.UserRepositoryMock), nil)
	router := setupStoreRouter(handler, "alice")

	store.On("GetPurchase", mock.Anything, "p9").
		Return(models.Purchase{ID: "p9", UserID: "mallory"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/store/purchases/p9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	store.AssertExpectations(t)
}
