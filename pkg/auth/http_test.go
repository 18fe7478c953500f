package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTokenProvider_Token(t *testing.T) {
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)
		require.NoError(t, r.ParseForm())
		if r.FormValue("email") != "user@example.com" || r.FormValue("password") != "hunter2" {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"idToken":"token-123"}`))
	}))
	defer authServer.Close()

	provider := NewHTTPTokenProvider(NewHTTPTokenProviderOptions{
		AuthURL:  authServer.URL,
		Email:    "user@example.com",
		Password: "hunter2",
	})
	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-123", token)

	badProvider := NewHTTPTokenProvider(NewHTTPTokenProviderOptions{
		AuthURL:  authServer.URL,
		Email:    "user@example.com",
		Password: "wrong",
	})
	_, err = badProvider.Token(context.Background())
	assert.Error(t, err)
}

func TestStaticTokenProvider(t *testing.T) {
	provider := NewStaticTokenProvider("fixed")
	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed", token)
}
