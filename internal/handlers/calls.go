package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paircall-service/internal/models"
	"paircall-service/internal/repositories"
	"paircall-service/internal/ws"
)

// CallHandler manages video call lifecycle endpoints. Media and signaling
// payloads travel over the gateway; these endpoints own the call records.
type CallHandler struct {
	calls   repositories.CallRepository
	users   repositories.UserRepository
	friends repositories.FriendshipRepository
	hub     *ws.Hub
}

// NewCallHandler builds a CallHandler.
func NewCallHandler(calls repositories.CallRepository, users repositories.UserRepository, friends repositories.FriendshipRepository, hub *ws.Hub) *CallHandler {
	return &CallHandler{calls: calls, users: users, friends: friends, hub: hub}
}

// List returns the caller's call history.
func (h *CallHandler) List(c *gin.Context) {
	calls, err := h.calls.ListForUser(c.Request.Context(), currentUserID(c),
		intQuery(c, "offset"), intQuery(c, "limit"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load calls"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls, "count": len(calls)})
}

// Start creates a ringing call and notifies the callee when online.
func (h *CallHandler) Start(c *gin.Context) {
	var req struct {
		CalleeID string `json:"callee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUserID(c)
	if req.CalleeID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot call yourself"})
		return
	}

	callee, err := h.users.GetByID(c.Request.Context(), req.CalleeID)
	if err != nil || !callee.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	friends, err := h.friends.AreFriends(c.Request.Context(), userID, req.CalleeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify friendship"})
		return
	}
	if !friends {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only call friends"})
		return
	}

	call, err := h.calls.Create(c.Request.Context(), userID, req.CalleeID)
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyInCall) {
			c.JSON(http.StatusConflict, gin.H{"error": "a call is already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start call"})
		return
	}

	if h.hub != nil {
		h.hub.SendEnvelope(req.CalleeID, ws.TypeIncomingCall, call)
	}
	c.JSON(http.StatusCreated, call)
}

// Accept answers a ringing call. Callee only.
func (h *CallHandler) Accept(c *gin.Context) {
	h.transition(c, func(call models.Call, userID string) bool {
		return call.CalleeID == userID
	}, h.calls.Accept)
}

// Reject declines a ringing call. Callee only.
func (h *CallHandler) Reject(c *gin.Context) {
	h.transition(c, func(call models.Call, userID string) bool {
		return call.CalleeID == userID
	}, h.calls.Reject)
}

// End hangs up a ringing or active call. Either party.
func (h *CallHandler) End(c *gin.Context) {
	h.transition(c, func(call models.Call, userID string) bool {
		return call.CallerID == userID || call.CalleeID == userID
	}, h.calls.End)
}

func (h *CallHandler) transition(c *gin.Context, allowed func(models.Call, string) bool, apply func(ctx context.Context, callID string) (models.Call, error)) {
	userID := currentUserID(c)

	call, err := h.calls.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrCallNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load call"})
		return
	}
	if !allowed(call, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not part of this call"})
		return
	}

	updated, err := apply(c.Request.Context(), call.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrCallConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "call is not in a valid state for this transition"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update call"})
		return
	}

	if h.hub != nil {
		peer := updated.CallerID
		if peer == userID {
			peer = updated.CalleeID
		}
		h.hub.SendEnvelope(peer, ws.TypeCallSignal, updated)
	}
	c.JSON(http.StatusOK, updated)
}

// Active returns the caller's current ringing or active call.
func (h *CallHandler) Active(c *gin.Context) {
	call, err := h.calls.ActiveForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveCall) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active call"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load call"})
		return
	}
	c.JSON(http.StatusOK, call)
}
