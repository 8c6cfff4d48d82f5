package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paircall-service/internal/models"
	"paircall-service/internal/presence"
	"paircall-service/internal/repositories"
)

// UserHandler manages profile and discovery endpoints.
type UserHandler struct {
	users    repositories.UserRepository
	presence *presence.Store
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users repositories.UserRepository, presenceStore *presence.Store) *UserHandler {
	return &UserHandler{users: users, presence: presenceStore}
}

// GetMe returns the caller's profile.
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe applies a partial profile update.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var update models.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if update.PreferredAgeMin != nil && update.PreferredAgeMax != nil &&
		*update.PreferredAgeMin > *update.PreferredAgeMax {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preferred_age_min exceeds preferred_age_max"})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentUserID(c), update)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteMe deactivates the account; the row stays for existing references.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID := currentUserID(c)

	if err := h.users.Deactivate(c.Request.Context(), userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deactivate account"})
		return
	}

	if err := h.presence.SetOffline(c.Request.Context(), userID); err != nil {
		log.Printf("presence set offline failed for %s: %v", userID, err)
	}

	c.Status(http.StatusNoContent)
}

// OnlineUsers lists the public profiles of everyone currently online.
func (h *UserHandler) OnlineUsers(c *gin.Context) {
	ids, err := h.presence.OnlineUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load presence"})
		return
	}

	users, err := h.users.GetByIDs(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}

	profiles := make([]models.User, 0, len(users))
	for _, user := range users {
		if !user.IsActive || !user.IsProfilePublic {
			continue
		}
		profiles = append(profiles, user.PublicProfile())
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles, "count": len(profiles)})
}

// Search filters public active profiles.
func (h *UserHandler) Search(c *gin.Context) {
	search := models.UserSearch{
		Gender:  c.Query("gender"),
		Country: c.Query("country"),
		Query:   c.Query("q"),
		AgeMin:  intQuery(c, "age_min"),
		AgeMax:  intQuery(c, "age_max"),
		Offset:  intQuery(c, "offset"),
		Limit:   intQuery(c, "limit"),
	}

	users, err := h.users.Search(c.Request.Context(), search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	profiles := make([]models.User, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.PublicProfile())
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles, "count": len(profiles)})
}

// GetUser returns another user's public profile.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
		return
	}
	if !user.IsActive || !user.IsProfilePublic {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user.PublicProfile())
}

func intQuery(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}
