package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"paircall-service/internal/auth"
	"paircall-service/internal/models"
	"paircall-service/internal/presence"
	"paircall-service/internal/repositories"
	"paircall-service/internal/telemetry"
)

// AuthHandler manages registration, login and token endpoints.
type AuthHandler struct {
	users    repositories.UserRepository
	tokens   *auth.TokenManager
	presence *presence.Store
	emitter  *telemetry.AuditEmitter
	debug    bool
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, tokens *auth.TokenManager, presenceStore *presence.Store, emitter *telemetry.AuditEmitter, debug bool) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, presence: presenceStore, emitter: emitter, debug: debug}
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (h *AuthHandler) issueTokens(userID string) (tokenPair, error) {
	access, err := h.tokens.GenerateAccessToken(userID)
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := h.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return tokenPair{}, err
	}
	return tokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Register creates a new account and returns tokens plus the profile.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email           string `json:"email" binding:"required,email"`
		Username        string `json:"username" binding:"required,min=3,max=30"`
		Password        string `json:"password" binding:"required,min=8"`
		DisplayName     string `json:"display_name"`
		Age             int    `json:"age" binding:"required,gte=18,lte=120"`
		Gender          string `json:"gender" binding:"required"`
		Country         string `json:"country" binding:"required"`
		PreferredGender string `json:"preferred_gender"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process password"})
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	user, err := h.users.Create(c.Request.Context(), models.User{
		Email:            req.Email,
		Username:         req.Username,
		DisplayName:      displayName,
		HashedPassword:   hashed,
		Age:              req.Age,
		Gender:           req.Gender,
		Country:          req.Country,
		PreferredGender:  req.PreferredGender,
		PreferredAgeMin:  18,
		PreferredAgeMax:  99,
		IsProfilePublic:  true,
		AllowRandomCalls: true,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	pair, err := h.issueTokens(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}

	if err := h.presence.SetOnline(c.Request.Context(), user.ID); err != nil {
		log.Printf("presence set online failed for %s: %v", user.ID, err)
	}
	_ = h.users.UpdateStatus(c.Request.Context(), user.ID, models.StatusOnline)
	user.Status = models.StatusOnline

	h.emitter.Emit(c.Request.Context(), "INFO", "user registered", requestIDFromContext(c), &user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
	})
}

// Login authenticates OAuth2-style form credentials. The username field
// carries the email.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `form:"username" binding:"required"`
		Password string `form:"password" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load account"})
		return
	}

	if !auth.CheckPassword(req.Password, user.HashedPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account is deactivated"})
		return
	}

	pair, err := h.issueTokens(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}

	if err := h.presence.SetOnline(c.Request.Context(), user.ID); err != nil {
		log.Printf("presence set online failed for %s: %v", user.ID, err)
	}
	_ = h.users.UpdateStatus(c.Request.Context(), user.ID, models.StatusOnline)

	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
	})
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is returned unchanged.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil || !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	access, err := h.tokens.GenerateAccessToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": req.RefreshToken,
		"token_type":    "bearer",
	})
}

// Logout marks the user offline. Tokens simply expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := currentUserID(c)

	if err := h.presence.SetOffline(c.Request.Context(), userID); err != nil {
		log.Printf("presence set offline failed for %s: %v", userID, err)
	}
	_ = h.users.UpdateStatus(c.Request.Context(), userID, models.StatusOffline)

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's full profile.
func (h *AuthHandler) Me(c *gin.Context) {
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

// ForgotPassword always answers with a neutral message so the endpoint
// cannot be used to probe for registered emails.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"message": "if the email is registered, a reset link has been sent"}

	if _, err := h.users.GetByEmail(c.Request.Context(), req.Email); err == nil {
		token, err := h.tokens.GeneratePasswordResetToken(req.Email)
		if err == nil {
			log.Printf("password reset requested for %s", req.Email)
			if h.debug {
				resp["reset_token"] = token
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ResetPassword sets a new password from a valid reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := h.tokens.ValidatePasswordResetToken(req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired reset token"})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired reset token"})
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process password"})
		return
	}

	if err := h.users.UpdatePassword(c.Request.Context(), user.ID, hashed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update password"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "INFO", "password reset", requestIDFromContext(c), &user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
