package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paircall-service/internal/mocks"
	"paircall-service/internal/models"
	"paircall-service/internal/presence"
	"paircall-service/internal/repositories"
	"paircall-service/internal/ws"
)

func testPresence(t *testing.T) *presence.Store {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return presence.NewStore(client)
}

func setupFriendRouter(handler *FriendHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/friends", handler.List)
	r.POST("/friends/request", handler.Request)
	r.PUT("/friends/:id/accept", handler.Accept)
	r.PUT("/friends/:id/reject", handler.Reject)
	r.DELETE("/friends/:id", handler.Remove)
	return r
}

func TestFriendRequestSuccess(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	handler := NewFriendHandler(friendships, users, testPresence(t), ws.NewHub())
	router := setupFriendRouter(handler, "alice")

	users.On("GetByID", mock.Anything, "bob").Return(models.User{ID: "bob", IsActive: true}, nil).Once()
	friendships.On("GetBetween", mock.Anything, "alice", "bob").
		Return(models.Friendship{}, repositories.ErrFriendshipNotFound).Once()
	friendships.On("Create", mock.Anything, "alice", "bob").
		Return(models.Friendship{ID: "f1", UserID: "alice", FriendID: "bob", Status: models.FriendshipPending}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/request", bytes.NewBufferString(`{"friend_id":"bob"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	friendships.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestFriendRequestDuplicateConflict(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	handler := NewFriendHandler(friendships, users, testPresence(t), nil)
	router := setupFriendRouter(handler, "alice")

	users.On("GetByID", mock.Anything, "bob").Return(models.User{ID: "bob", IsActive: true}, nil).Once()
	friendships.On("GetBetween", mock.Anything, "alice", "bob").
		Return(models.Friendship{ID: "f1", Status: models.FriendshipPending}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/request", bytes.NewBufferString(`{"friend_id":"bob"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	friendships.AssertExpectations(t)
}

func TestFriendRequestToSelfRejected(t *testing.T) {
	handler := NewFriendHandler(new(mocks.FriendshipRepositoryMock), new(mocks.UserRepositoryMock), testPresence(t), nil)
	router := setupFriendRouter(handler, "alice")

	req := httptest.NewRequest(http.MethodPost, "/friends/request", bytes.NewBufferString(`{"friend_id":"alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcceptNonPendingConflict(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendHandler(friendships, new(mocks.UserRepositoryMock), testPresence(t), nil)
	router := setupFriendRouter(handler, "bob")

	friendships.On("GetByID", mock.Anything, "f1").
		Return(models.Friendship{ID: "f1", UserID: "alice", FriendID: "bob", Status: models.FriendshipAccepted}, nil).Once()
	friendships.On("UpdateStatus", mock.Anything, "f1", models.FriendshipAccepted).
		Return(models.Friendship{}, repositories.ErrNotPending).Once()

	req := httptest.NewRequest(http.MethodPut, "/friends/f1/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	friendships.AssertExpectations(t)
}

func TestAcceptBySenderForbidden(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendHandler(friendships, new(mocks.UserRepositoryMock), testPresence(t), nil)
	router := setupFriendRouter(handler, "alice")

	friendships.On("GetByID", mock.Anything, "f1").
		Return(models.Friendship{ID: "f1", UserID: "alice", FriendID: "bob", Status: models.FriendshipPending}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/friends/f1/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	friendships.AssertExpectations(t)
}

func TestRejectPendingNotifiesSender(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	hub := ws.NewHub()
	handler := NewFriendHandler(friendships, new(mocks.UserRepositoryMock), testPresence(t), hub)
	router := setupFriendRouter(handler, "bob")

	rejected := models.Friendship{ID: "f1", UserID: "alice", FriendID: "bob", Status: models.FriendshipRejected}
	friendships.On("GetByID", mock.Anything, "f1").
		Return(models.Friendship{ID: "f1", UserID: "alice", FriendID: "bob", Status: models.FriendshipPending}, nil).Once()
	friendships.On("UpdateStatus", mock.Anything, "f1", models.FriendshipRejected).Return(rejected, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/friends/f1/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	friendships.AssertExpectations(t)
}

func TestRemoveFriendEitherSide(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	handler := NewFriendHandler(friendships, new(mocks.UserRepositoryMock), testPresence(t), nil)
	router := setupFriendRouter(handler, "bob")

	friendships.On("GetByID", mock.Anything, "f1").
		Return(models.Friendship{ID: "f1", UserID: "alice", FriendID: "bob", Status: models.FriendshipAccepted}, nil).Once()
	friendships.On("Delete", mock.Anything, "f1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/friends/f1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	friendships.AssertExpectations(t)
}

func TestListFriendsEnriched(t *testing.T) {
	friendships := new(mocks.FriendshipRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	store := testPresence(t)
	handler := NewFriendHandler(friendships, users, store, nil)
	router := setupFriendRouter(handler, "alice")

	require.NoError(t, store.SetOnline(context.Background(), "bob"))

	friendships.On("ListForUser", mock.Anything, "alice", "accepted").
		Return([]models.Friendship{{ID: "f1", UserID: "alice", FriendID: "bob", Status: models.FriendshipAccepted}}, nil).Once()
	users.On("GetByIDs", mock.Anything, []string{"bob"}).
		Return([]models.User{{ID: "bob", Username: "bob", DisplayName: "Bob", IsActive: true}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends?status=accepted", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"is_online":true`)
	friendships.AssertExpectations(t)
	users.AssertExpectations(t)
}
