package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"paircall-service/internal/models"
	"paircall-service/internal/presence"
	"paircall-service/internal/repositories"
)

// FilterHandler manages saved match filters and runs them against the user
// directory.
type FilterHandler struct {
	filters  repositories.FilterRepository
	presence *presence.Store
}

// NewFilterHandler builds a FilterHandler.
func NewFilterHandler(filters repositories.FilterRepository, presenceStore *presence.Store) *FilterHandler {
	return &FilterHandler{filters: filters, presence: presenceStore}
}

// List returns every filter the caller saved.
func (h *FilterHandler) List(c *gin.Context) {
	filters, err := h.filters.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load filters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"filters": filters, "count": len(filters)})
}

// Create saves a new filter. Names are unique per user and each account may
// keep at most ten filters.
func (h *FilterHandler) Create(c *gin.Context) {
	var req struct {
		Name         string   `json:"name" binding:"required,min=1,max=50"`
		AgeMin       *int     `json:"age_min" binding:"omitempty,gte=18,lte=100"`
		AgeMax       *int     `json:"age_max" binding:"omitempty,gte=18,lte=100"`
		Genders      []string `json:"genders"`
		Countries    []string `json:"countries"`
		OnlyOnline   bool     `json:"only_online"`
		OnlyVerified bool     `json:"only_verified"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter, err := h.filters.Create(c.Request.Context(), models.Filter{
		UserID:       currentUserID(c),
		Name:         req.Name,
		AgeMin:       req.AgeMin,
		AgeMax:       req.AgeMax,
		Genders:      pq.StringArray(req.Genders),
		Countries:    pq.StringArray(req.Countries),
		OnlyOnline:   req.OnlyOnline,
		OnlyVerified: req.OnlyVerified,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrFilterLimit):
			c.JSON(http.StatusBadRequest, gin.H{"error": "maximum number of filters (10) reached"})
		case errors.Is(err, repositories.ErrFilterNameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "filter with this name already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create filter"})
		}
		return
	}
	c.JSON(http.StatusCreated, filter)
}

// Get returns one of the caller's filters.
func (h *FilterHandler) Get(c *gin.Context) {
	filter, ok := h.ownFilter(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, filter)
}

// Update changes a filter's criteria or name.
func (h *FilterHandler) Update(c *gin.Context) {
	filter, ok := h.ownFilter(c)
	if !ok {
		return
	}

	var update models.FilterUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.filters.Update(c.Request.Context(), filter.ID, update)
	if err != nil {
		if errors.Is(err, repositories.ErrFilterNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "filter with this name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update filter"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes a filter.
func (h *FilterHandler) Delete(c *gin.Context) {
	filter, ok := h.ownFilter(c)
	if !ok {
		return
	}

	if err := h.filters.Delete(c.Request.Context(), filter.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete filter"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "filter deleted"})
}

// Apply runs a filter against the user directory. The only_online criterion
// and the is_online decoration come from presence.
func (h *FilterHandler) Apply(c *gin.Context) {
	filter, ok := h.ownFilter(c)
	if !ok {
		return
	}

	candidates, err := h.filters.Apply(c.Request.Context(), filter, intQuery(c, "limit"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not apply filter"})
		return
	}

	online := map[string]bool{}
	if ids, err := h.presence.OnlineUsers(c.Request.Context()); err != nil {
		log.Printf("online users lookup failed: %v", err)
	} else {
		for _, id := range ids {
			online[id] = true
		}
	}

	matches := make([]gin.H, 0, len(candidates))
	for _, user := range candidates {
		isOnline := online[user.ID]
		if filter.OnlyOnline && !isOnline {
			continue
		}
		matches = append(matches, gin.H{"user": user.PublicProfile(), "is_online": isOnline})
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches, "count": len(matches)})
}

// Active returns the caller's currently active filter.
func (h *FilterHandler) Active(c *gin.Context) {
	filter, err := h.filters.ActiveForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveFilter) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active filter"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load filter"})
		return
	}
	c.JSON(http.StatusOK, filter)
}

// Activate marks one filter active; every other filter of the caller is
// deactivated in the same step.
func (h *FilterHandler) Activate(c *gin.Context) {
	filter, ok := h.ownFilter(c)
	if !ok {
		return
	}

	activated, err := h.filters.Activate(c.Request.Context(), currentUserID(c), filter.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not activate filter"})
		return
	}
	c.JSON(http.StatusOK, activated)
}

func (h *FilterHandler) ownFilter(c *gin.Context) (models.Filter, bool) {
	filter, err := h.filters.GetByID(c.Request.Context(), c.Param("filter_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrFilterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "filter not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load filter"})
		}
		return models.Filter{}, false
	}
	if filter.UserID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your filter"})
		return models.Filter{}, false
	}
	return filter, true
}
