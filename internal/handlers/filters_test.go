package handlers

import (
	"bytes"
	"context"
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

func setupFilterRouter(handler *FilterHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/filters", handler.List)
	r.POST("/filters", handler.Create)
	r.GET("/filters/active", handler.Active)
	r.GET("/filters/:filter_id", handler.Get)
	r.PUT("/filters/:filter_id", handler.Update)
	r.DELETE("/filters/:filter_id", handler.Delete)
	r.POST("/filters/:filter_id/apply", handler.Apply)
	r.PUT("/filters/:filter_id/activate", handler.Activate)
	return r
}

func TestCreateFilter(t *testing.T) {
	filters := new(mocks.FilterRepositoryMock)
	handler := NewFilterHandler(filters, testPresence(t))
	router := setupFilterRouter(handler, "alice")

	filters.On("Create", mock.Anything, mock.MatchedBy(func(f models.Filter) bool {
		return f.UserID == "alice" && f.Name == "nearby women"
	})).Return(models.Filter{ID: "f1", UserID: "alice", Name: "nearby women", IsActive: true}, nil).Once()

	body := bytes.NewBufferString(`{"name":"nearby women","genders":["female"],"age_min":21,"age_max":35}`)
	req := httptest.NewRequest(http.MethodPost, "/filters", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"nearby women"`)
	filters.AssertExpectations(t)
}

func TestCreateFilterLimitReached(t *testing.T) {
	filters := new(mocks.FilterRepositoryMock)
	handler := NewFilterHandler(filters, testPresence(t))
	router := setupFilterRouter(handler, "alice")

	filters.On("Create", mock.Anything, mock.Anything).
		Return(models.Filter{}, repositories.ErrFilterLimit).Once()

	req := httptest.NewRequest(http.MethodPost, "/filters", bytes.NewBufferString(`{"name":"one too many"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "maximum number of filters")
	filters.AssertExpectations(t)
}

func TestCreateFilterDuplicateNameConflict(t *testing.T) {
	filters := new(mocks.FilterRepositoryMock)
	handler := NewFilterHandler(filters, testPresence(t))
	router := setupFilterRouter(handler, "alice")

	filters.On("Create", mock.Anything, mock.Anything).
		Return(models.Filter{}, repositories.ErrFilterNameTaken).Once()

	req := httptest.NewRequest(http.MethodPost, "/filters", bytes.NewBufferString(`{"name":"favorites"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	filters.AssertExpectations(t)
}

func TestGetFilterNotOwnedForbidden(t *testing.T) {
	filters := new(mocks.FilterRepositoryMock)
	handler := NewFilterHandler(filters, testPresence(t))
	router := setupFilterRouter(handler, "alice")

	filters.On("GetByID", mock.Anything, "f9").
		Return(models.Filter{ID: "f9", UserID: "bob", Name: "bobs"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/filters/f9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	filters.AssertExpectations(t)
}

func TestActivateFilter(t *testing.T) {
	filters := new(mocks.FilterRepositoryMock)
	handler := NewFilterHandler(filters, testPresence(t))
	router := setupFilterRouter(handler, "alice")

	filters.On("GetByID", mock.Anything, "f1").
		Return(models.Filter{ID: "f1", UserID: "alice", Name: "favorites"}, nil).Once()
	filters.On("Activate", mock.Anything, "alice", "f1").
		Return(models.Filter{ID: "f1", UserID: "alice", Name: "favorites", IsActive: true}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/filters/f1/activate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_active":true`)
	filters.AssertExpectations(t)
}

func TestActiveFilterNotFound(t *testing.T) {
	filters := new(mocks.FilterRepositoryMock)
	handler := NewFilterHandler(filters, testPresence(t))
	router := setupFilterRouter(handler, "alice")

	filters.On("ActiveForUser", mock.Anything, "alice").
		Return(models.Filter{}, repositories.ErrNoActiveFilter).Once()

	req := httptest.NewRequest(http.MethodGet, "/filters/active", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	filters.AssertExpectations(t)
}

func TestApplyFilterOnlyOnlineDropsOfflineMatches(t *testing.T) {
	filters := new(mocks.FilterRepositoryMock)
	presenceStore := testPresence(t)
	handler := NewFilterHandler(filters, presenceStore)
	router := setupFilterRouter(handler, "alice")

	filter := models.Filter{ID: "f1", UserID: "alice", Name: "online only", OnlyOnline: true}
	filters.On("GetByID", mock.Anything, "f1").Return(filter, nil).Once()
	filters.On("Apply", mock.Anything, filter, 0).
		Return([]models.User{{ID: "bob", Username: "bob"}, {ID: "carol", Username: "carol"}}, nil).Once()

	require.NoError(t, presenceStore.SetOnline(context.Background(), "bob"))

	req := httptest.NewRequest(http.MethodPost, "/filters/f1/apply", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), `"bob"`)
	assert.NotContains(t, rec.Body.String(), `"carol"`)
	filters.AssertExpectations(t)
}
