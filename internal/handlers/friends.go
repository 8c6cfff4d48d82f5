package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"paircall-service/internal/models"
	"paircall-service/internal/presence"
	"paircall-service/internal/repositories"
	"paircall-service/internal/ws"
)

// FriendHandler manages the social graph endpoints.
type FriendHandler struct {
	friendships repositories.FriendshipRepository
	users       repositories.UserRepository
	presence    *presence.Store
	hub         *ws.Hub
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friendships repositories.FriendshipRepository, users repositories.UserRepository, presenceStore *presence.Store, hub *ws.Hub) *FriendHandler {
	return &FriendHandler{friendships: friendships, users: users, presence: presenceStore, hub: hub}
}

// List returns the caller's friendships enriched with profiles and presence.
func (h *FriendHandler) List(c *gin.Context) {
	userID := currentUserID(c)
	statusFilter := c.Query("status")

	friendships, err := h.friendships.ListForUser(c.Request.Context(), userID, statusFilter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load friends"})
		return
	}

	entries, err := h.enrich(c, userID, friendships)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load friend profiles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": entries, "count": len(entries)})
}

// Request creates a pending friend request.
func (h *FriendHandler) Request(c *gin.Context) {
	var req struct {
		FriendID string `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUserID(c)
	if req.FriendID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot send a friend request to yourself"})
		return
	}

	target, err := h.users.GetByID(c.Request.Context(), req.FriendID)
	if err != nil || !target.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if _, err := h.friendships.GetBetween(c.Request.Context(), userID, req.FriendID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "friendship already exists"})
		return
	} else if !errors.Is(err, repositories.ErrFriendshipNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check friendship"})
		return
	}

	friendship, err := h.friendships.Create(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create friend request"})
		return
	}

	h.notify(req.FriendID, ws.TypeFriendRequest, friendship)
	c.JSON(http.StatusCreated, friendship)
}

// Accept moves a pending request addressed to the caller to accepted.
func (h *FriendHandler) Accept(c *gin.Context) {
	h.resolve(c, models.FriendshipAccepted, ws.TypeFriendAccepted)
}

// Reject moves a pending request addressed to the caller to rejected.
func (h *FriendHandler) Reject(c *gin.Context) {
	h.resolve(c, models.FriendshipRejected, ws.TypeFriendRejected)
}

func (h *FriendHandler) resolve(c *gin.Context, status, notifyType string) {
	userID := currentUserID(c)

	friendship, err := h.friendships.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "friend request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load friend request"})
		return
	}
	if friendship.FriendID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the recipient can resolve a friend request"})
		return
	}

	updated, err := h.friendships.UpdateStatus(c.Request.Context(), friendship.ID, status)
	if err != nil {
		if errors.Is(err, repositories.ErrNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "friend request is not pending"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update friend request"})
		return
	}

	h.notify(updated.UserID, notifyType, updated)
	c.JSON(http.StatusOK, updated)
}

// Remove hard-deletes the friendship from either side.
func (h *FriendHandler) Remove(c *gin.Context) {
	userID := currentUserID(c)

	friendship, err := h.friendships.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "friendship not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load friendship"})
		return
	}
	if friendship.UserID != userID && friendship.FriendID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not part of this friendship"})
		return
	}

	if err := h.friendships.Delete(c.Request.Context(), friendship.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove friend"})
		return
	}

	peer := friendship.UserID
	if peer == userID {
		peer = friendship.FriendID
	}
	h.notify(peer, ws.TypeFriendRemoved, friendship)
	c.Status(http.StatusNoContent)
}

// PendingSent lists pending requests the caller sent.
func (h *FriendHandler) PendingSent(c *gin.Context) {
	h.pending(c, h.friendships.ListSent)
}

// PendingReceived lists pending requests addressed to the caller.
func (h *FriendHandler) PendingReceived(c *gin.Context) {
	h.pending(c, h.friendships.ListReceived)
}

func (h *FriendHandler) pending(c *gin.Context, list func(ctx context.Context, userID string) ([]models.Friendship, error)) {
	userID := currentUserID(c)
	friendships, err := list(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load requests"})
		return
	}

	entries, err := h.enrich(c, userID, friendships)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profiles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": entries, "count": len(entries)})
}

// enrich joins friendships with the counterpart's profile and presence.
func (h *FriendHandler) enrich(c *gin.Context, userID string, friendships []models.Friendship) ([]models.FriendEntry, error) {
	peerIDs := make([]string, 0, len(friendships))
	for _, friendship := range friendships {
		peerIDs = append(peerIDs, peerOf(friendship, userID))
	}

	users, err := h.users.GetByIDs(c.Request.Context(), peerIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}

	entries := make([]models.FriendEntry, 0, len(friendships))
	for _, friendship := range friendships {
		peerID := peerOf(friendship, userID)
		peer, ok := byID[peerID]
		if !ok {
			continue
		}

		online, err := h.presence.IsOnline(c.Request.Context(), peerID)
		if err != nil {
			log.Printf("presence lookup failed for %s: %v", peerID, err)
		}

		entries = append(entries, models.FriendEntry{
			FriendshipID:    friendship.ID,
			UserID:          peer.ID,
			Username:        peer.Username,
			DisplayName:     peer.DisplayName,
			ProfileImageURL: peer.ProfileImageURL,
			Status:          friendship.Status,
			IsOnline:        online,
			CreatedAt:       friendship.CreatedAt,
			UpdatedAt:       friendship.UpdatedAt,
		})
	}
	return entries, nil
}

func (h *FriendHandler) notify(userID, envelopeType string, friendship models.Friendship) {
	if h.hub == nil {
		return
	}
	h.hub.SendEnvelope(userID, envelopeType, friendship)
}

func peerOf(friendship models.Friendship, userID string) string {
	if friendship.UserID == userID {
		return friendship.FriendID
	}
	return friendship.UserID
}
