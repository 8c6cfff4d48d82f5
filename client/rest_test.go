package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRefreshesOnceAndRetries(t *testing.T) {
	var protectedCalls, refreshCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]string{
				"access_token":  "fresh",
				"refresh_token": "refresh-1",
			})
		case "/protected":
			protectedCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	rest := NewREST(server.URL, nil)
	rest.SetTokens("stale", "refresh-1")

	var out map[string]string
	require.NoError(t, rest.Do(context.Background(), http.MethodGet, "/protected", nil, &out))

	assert.Equal(t, "yes", out["ok"])
	assert.Equal(t, int32(2), protectedCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, "fresh", rest.AccessToken())
}

func TestDoSecond401SurfacesUnauthorized(t *testing.T) {
	var protectedCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "still-bad"})
		case "/protected":
			protectedCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	rest := NewREST(server.URL, nil)
	rest.SetTokens("stale", "refresh-1")

	err := rest.Do(context.Background(), http.MethodGet, "/protected", nil, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	// Exactly one retry, never more.
	assert.Equal(t, int32(2), protectedCalls.Load())
}

func TestDoWithoutRefreshTokenFailsFast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	rest := NewREST(server.URL, nil)
	err := rest.Do(context.Background(), http.MethodGet, "/protected", nil, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestDoSurfacesAPIErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "cannot message yourself"})
	}))
	defer server.Close()

	rest := NewREST(server.URL, nil)
	rest.SetTokens("token", "refresh")

	err := rest.Do(context.Background(), http.MethodPost, "/chats/alice/messages", map[string]string{"content": "hi"}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "cannot message yourself", apiErr.Detail)
}

func TestDoServerErrorGeneric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rest := NewREST(server.URL, nil)
	rest.SetTokens("token", "refresh")

	err := rest.Do(context.Background(), http.MethodGet, "/chats", nil, nil)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
