package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"paircall-service/internal/models"
	"paircall-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	var created models.User
	if val := args.Get(0); val != nil {
		created = val.(models.User)
	}
	return created, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByIDs(ctx context.Context, userIDs []string) ([]models.User, error) {
	args := m.Called(ctx, userIDs)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, userID string, update models.UserUpdate) (models.User, error) {
	args := m.Called(ctx, userID, update)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) UpdateStatus(ctx context.Context, userID string, status string) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

func (m *UserRepositoryMock) UpdatePassword(ctx context.Context, userID string, hashedPassword string) error {
	args := m.Called(ctx, userID, hashedPassword)
	return args.Error(0)
}

func (m *UserRepositoryMock) Deactivate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) Search(ctx context.Context, search models.UserSearch) ([]models.User, error) {
	args := m.Called(ctx, search)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type FriendshipRepositoryMock struct {
	mock.Mock
}

func (m *FriendshipRepositoryMock) Create(ctx context.Context, userID, friendID string) (models.Friendship, error) {
	args := m.Called(ctx, userID, friendID)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) GetByID(ctx context.Context, friendshipID string) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) GetBetween(ctx context.Context, userID, friendID string) (models.Friendship, error) {
	args := m.Called(ctx, userID, friendID)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) UpdateStatus(ctx context.Context, friendshipID, status string) (models.Friendship, error) {
	args := m.Called(ctx, friendshipID, status)
	var friendship models.Friendship
	if val := args.Get(0); val != nil {
		friendship = val.(models.Friendship)
	}
	return friendship, args.Error(1)
}

func (m *FriendshipRepositoryMock) Delete(ctx context.Context, friendshipID string) error {
	args := m.Called(ctx, friendshipID)
	return args.Error(0)
}

func (m *FriendshipRepositoryMock) ListForUser(ctx context.Context, userID, statusFilter string) ([]models.Friendship, error) {
	args := m.Called(ctx, userID, statusFilter)
	var friendships []models.Friendship
	if val := args.Get(0); val != nil {
		friendships = val.([]models.Friendship)
	}
	return friendships, args.Error(1)
}

func (m *FriendshipRepositoryMock) ListSent(ctx context.Context, userID string) ([]models.Friendship, error) {
	args := m.Called(ctx, userID)
	var friendships []models.Friendship
	if val := args.Get(0); val != nil {
		friendships = val.([]models.Friendship)
	}
	return friendships, args.Error(1)
}

func (m *FriendshipRepositoryMock) ListReceived(ctx context.Context, userID string) ([]models.Friendship, error) {
	args := m.Called(ctx, userID)
	var friendships []models.Friendship
	if val := args.Get(0); val != nil {
		friendships = val.([]models.Friendship)
	}
	return friendships, args.Error(1)
}

func (m *FriendshipRepositoryMock) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, senderID, receiverID, content string) (models.ChatMessage, error) {
	args := m.Called(ctx, senderID, receiverID, content)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetByID(ctx context.Context, messageID string) (models.ChatMessage, error) {
	args := m.Called(ctx, messageID)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversation(ctx context.Context, userID, peerID string, offset, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, userID, peerID, offset, limit)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListLatestPerPeer(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, userID)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageID string) (models.ChatMessage, error) {
	args := m.Called(ctx, messageID)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCountByPeer(ctx context.Context, userID string) (map[string]int, error) {
	args := m.Called(ctx, userID)
	var counts map[string]int
	if val := args.Get(0); val != nil {
		counts = val.(map[string]int)
	}
	return counts, args.Error(1)
}

type StoreRepositoryMock struct {
	mock.Mock
}

func (m *StoreRepositoryMock) ListItems(ctx context.Context, query models.ItemQuery) ([]models.StoreItem, error) {
	args := m.Called(ctx, query)
	var items []models.StoreItem
	if val := args.Get(0); val != nil {
		items = val.([]models.StoreItem)
	}
	return items, args.Error(1)
}

func (m *StoreRepositoryMock) GetItem(ctx context.Context, itemID string) (models.StoreItem, error) {
	args := m.Called(ctx, itemID)
	var item models.StoreItem
	if val := args.Get(0); val != nil {
		item = val.(models.StoreItem)
	}
	return item, args.Error(1)
}

func (m *StoreRepositoryMock) FeaturedItems(ctx context.Context, limit int) ([]models.StoreItem, error) {
	args := m.Called(ctx, limit)
	var items []models.StoreItem
	if val := args.Get(0); val != nil {
		items = val.([]models.StoreItem)
	}
	return items, args.Error(1)
}

func (m *StoreRepositoryMock) CountByCategory(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	var counts map[string]int
	if val := args.Get(0); val != nil {
		counts = val.(map[string]int)
	}
	return counts, args.Error(1)
}

func (m *StoreRepositoryMock) Purchase(ctx context.Context, userID, itemID string, quantity int) (models.Purchase, error) {
	args := m.Called(ctx, userID, itemID, quantity)
	var purchase models.Purchase
	if val := args.Get(0); val != nil {
		purchase = val.(models.Purchase)
	}
	return purchase, args.Error(1)
}

func (m *StoreRepositoryMock) ListPurchases(ctx context.Context, userID, statusFilter string, offset, limit int) ([]models.Purchase, error) {
	args := m.Called(ctx, userID, statusFilter, offset, limit)
	var purchases []models.Purchase
	if val := args.Get(0); val != nil {
		purchases = val.([]models.Purchase)
	}
	return purchases, args.Error(1)
}

func (m *StoreRepositoryMock) GetPurchase(ctx context.Context, purchaseID string) (models.Purchase, error) {
	args := m.Called(ctx, purchaseID)
	var purchase models.Purchase
	if val := args.Get(0); val != nil {
		purchase = val.(models.Purchase)
	}
	return purchase, args.Error(1)
}

type CallRepositoryMock struct {
	mock.Mock
}

func (m *CallRepositoryMock) Create(ctx context.Context, callerID, calleeID string) (models.Call, error) {
	args := m.Called(ctx, callerID, calleeID)
	var call models.Call
	if val := args.Get(0); val != nil {
		call = val.(models.Call)
	}
	return call, args.Error(1)
}

func (m *CallRepositoryMock) GetByID(ctx context.Context, callID string) (models.Call, error) {
	args := m.Called(ctx, callID)
	var call models.Call
	if val := args.Get(0); val != nil {
		call = val.(models.Call)
	}
	return call, args.Error(1)
}

func (m *CallRepositoryMock) ListForUser(ctx context.Context, userID string, offset, limit int) ([]models.Call, error) {
	args := m.Called(ctx, userID, offset, limit)
	var calls []models.Call
	if val := args.Get(0); val != nil {
		calls = val.([]models.Call)
	}
	return calls, args.Error(1)
}

func (m *CallRepositoryMock) ActiveForUser(ctx context.Context, userID string) (models.Call, error) {
	args := m.Called(ctx, userID)
	var call models.Call
	if val := args.Get(0); val != nil {
		call = val.(models.Call)
	}
	return call, args.Error(1)
}

func (m *CallRepositoryMock) Accept(ctx context.Context, callID string) (models.Call, error) {
	args := m.Called(ctx, callID)
	var call models.Call
	if val := args.Get(0); val != nil {
		call = val.(models.Call)
	}
	return call, args.Error(1)
}

func (m *CallRepositoryMock) Reject(ctx context.Context, callID string) (models.Call, error) {
	args := m.Called(ctx, callID)
	var call models.Call
	if val := args.Get(0); val != nil {
		call = val.(models.Call)
	}
	return call, args.Error(1)
}

func (m *CallRepositoryMock) End(ctx context.Context, callID string) (models.Call, error) {
	args := m.Called(ctx, callID)
	var call models.Call
	if val := args.Get(0); val != nil {
		call = val.(models.Call)
	}
	return call, args.Error(1)
}

type FilterRepositoryMock struct {
	mock.Mock
}

func (m *FilterRepositoryMock) Create(ctx context.Context, filter models.Filter) (models.Filter, error) {
	args := m.Called(ctx, filter)
	var created models.Filter
	if val := args.Get(0); val != nil {
		created = val.(models.Filter)
	}
	return created, args.Error(1)
}

func (m *FilterRepositoryMock) GetByID(ctx context.Context, filterID string) (models.Filter, error) {
	args := m.Called(ctx, filterID)
	var filter models.Filter
	if val := args.Get(0); val != nil {
		filter = val.(models.Filter)
	}
	return filter, args.Error(1)
}

func (m *FilterRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.Filter, error) {
	args := m.Called(ctx, userID)
	var filters []models.Filter
	if val := args.Get(0); val != nil {
		filters = val.([]models.Filter)
	}
	return filters, args.Error(1)
}

func (m *FilterRepositoryMock) Update(ctx context.Context, filterID string, update models.FilterUpdate) (models.Filter, error) {
	args := m.Called(ctx, filterID, update)
	var filter models.Filter
	if val := args.Get(0); val != nil {
		filter = val.(models.Filter)
	}
	return filter, args.Error(1)
}

func (m *FilterRepositoryMock) Delete(ctx context.Context, filterID string) error {
	args := m.Called(ctx, filterID)
	return args.Error(0)
}

func (m *FilterRepositoryMock) ActiveForUser(ctx context.Context, userID string) (models.Filter, error) {
	args := m.Called(ctx, userID)
	var filter models.Filter
	if val := args.Get(0); val != nil {
		filter = val.(models.Filter)
	}
	return filter, args.Error(1)
}

func (m *FilterRepositoryMock) Activate(ctx context.Context, userID, filterID string) (models.Filter, error) {
	args := m.Called(ctx, userID, filterID)
	var filter models.Filter
	if val := args.Get(0); val != nil {
		filter = val.(models.Filter)
	}
	return filter, args.Error(1)
}

func (m *FilterRepositoryMock) Apply(ctx context.Context, filter models.Filter, limit int) ([]models.User, error) {
	args := m.Called(ctx, filter, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.FriendshipRepository = (*FriendshipRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.StoreRepository = (*StoreRepositoryMock)(nil)
var _ repositories.CallRepository = (*CallRepositoryMock)(nil)
var _ repositories.FilterRepository = (*FilterRepositoryMock)(nil)
