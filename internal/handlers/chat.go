package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paircall-service/internal/models"
	"paircall-service/internal/repositories"
	"paircall-service/internal/ws"
)

// ChatHandler manages direct-message endpoints.
type ChatHandler struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
	hub      *ws.Hub
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(messages repositories.MessageRepository, users repositories.UserRepository, hub *ws.Hub) *ChatHandler {
	return &ChatHandler{messages: messages, users: users, hub: hub}
}

// ListChats returns one summary per conversation: peer, last message,
// unread count.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := currentUserID(c)

	latest, err := h.messages.ListLatestPerPeer(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chats"})
		return
	}

	unread, err := h.messages.UnreadCountByPeer(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load unread counts"})
		return
	}

	peerIDs := make([]string, 0, len(latest))
	for _, msg := range latest {
		peerIDs = append(peerIDs, peerIDOf(msg, userID))
	}
	users, err := h.users.GetByIDs(c.Request.Context(), peerIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load peers"})
		return
	}
	byID := make(map[string]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}

	summaries := make([]models.ChatSummary, 0, len(latest))
	for _, msg := range latest {
		msg := msg
		peerID := peerIDOf(msg, userID)
		peer := byID[peerID]
		summaries = append(summaries, models.ChatSummary{
			PeerID:          peerID,
			PeerUsername:    peer.Username,
			PeerDisplayName: peer.DisplayName,
			LastMessage:     &msg,
			UnreadCount:     unread[peerID],
		})
	}

	c.JSON(http.StatusOK, gin.H{"chats": summaries, "count": len(summaries)})
}

// GetMessages returns the paginated history with one peer, oldest first.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := currentUserID(c)
	peerID := c.Param("user_id")

	msgs, err := h.messages.ListConversation(c.Request.Context(), userID, peerID,
		intQuery(c, "offset"), intQuery(c, "limit"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// SendMessage persists a message and pushes it to the receiver when online.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUserID(c)
	receiverID := c.Param("user_id")
	if receiverID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	receiver, err := h.users.GetByID(c.Request.Context(), receiverID)
	if err != nil || !receiver.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), userID, receiverID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store message"})
		return
	}

	if h.hub != nil {
		h.hub.SendEnvelope(receiverID, ws.TypeMessage, msg)
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkRead flips a message to read. Only the receiver may do this.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := currentUserID(c)

	msg, err := h.messages.GetByID(c.Request.Context(), c.Param("message_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load message"})
		return
	}
	if msg.ReceiverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the receiver can mark a message read"})
		return
	}

	updated, err := h.messages.MarkRead(c.Request.Context(), msg.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark message read"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteMessage soft-deletes a message. Only the sender may do this.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID := currentUserID(c)

	msg, err := h.messages.GetByID(c.Request.Context(), c.Param("message_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load message"})
		return
	}
	if msg.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the sender can delete a message"})
		return
	}

	if err := h.messages.SoftDelete(c.Request.Context(), msg.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}
	c.Status(http.StatusNoContent)
}

// UnreadCount returns the total number of unread messages for the caller.
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	count, err := h.messages.UnreadCount(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not count unread messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func peerIDOf(msg models.ChatMessage, userID string) string {
	if msg.SenderID == userID {
		return msg.ReceiverID
	}
	return msg.SenderID
}
