package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// Token kinds carried in the claims so one kind cannot stand in for another.
const (
	kindAccess  = "access"
	kindRefresh = "refresh"
	kindReset   = "reset"
)

// Claims is the JWT payload for every token this service issues.
type Claims struct {
	jwt.RegisteredClaims
	Kind string `json:"kind"`
}

// TokenManager issues and validates HMAC-signed JWTs.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewTokenManager builds a TokenManager with the given lifetimes.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   time.Hour,
	}
}

// GenerateAccessToken issues a short-lived access token for the user.
func (m *TokenManager) GenerateAccessToken(userID string) (string, error) {
	return m.sign(userID, kindAccess, m.accessTTL)
}

// GenerateRefreshToken issues a long-lived refresh token for the user.
func (m *TokenManager) GenerateRefreshToken(userID string) (string, error) {
	return m.sign(userID, kindRefresh, m.refreshTTL)
}

// GeneratePasswordResetToken issues a one-hour reset token bound to the email.
func (m *TokenManager) GeneratePasswordResetToken(email string) (string, error) {
	return m.sign(email, kindReset, m.resetTTL)
}

// ValidateAccessToken returns the user id carried by a valid access token.
func (m *TokenManager) ValidateAccessToken(token string) (string, error) {
	return m.verify(token, kindAccess)
}

// ValidateRefreshToken returns the user id carried by a valid refresh token.
func (m *TokenManager) ValidateRefreshToken(token string) (string, error) {
	return m.verify(token, kindRefresh)
}

// ValidatePasswordResetToken returns the email carried by a valid reset token.
func (m *TokenManager) ValidatePasswordResetToken(token string) (string, error) {
	return m.verify(token, kindReset)
}

func (m *TokenManager) sign(subject, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenManager) verify(tokenString, kind string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Kind != kind || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
