package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// LoginResponseBody is the response body of a successful login request.
type LoginResponseBody struct {
	IDToken string `json:"idToken"`
}

// HTTPTokenProvider logs in against an auth server and returns the ID token.
type HTTPTokenProvider struct {
	authURL  string
	email    string
	password string
	client   *http.Client
}

var _ TokenProvider = &HTTPTokenProvider{}

type NewHTTPTokenProviderOptions struct {
	AuthURL  string
	Email    string
	Password string
	// Client is the HTTP client to use. Defaults to http.DefaultClient.
	Client *http.Client
}

// NewHTTPTokenProvider creates a new HTTPTokenProvider.
func NewHTTPTokenProvider(opts NewHTTPTokenProviderOptions) *HTTPTokenProvider {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTokenProvider{
		authURL:  opts.AuthURL,
		email:    opts.Email,
		password: opts.Password,
		client:   client,
	}
}

// Token posts the credentials to the auth server and returns the ID token.
func (p *HTTPTokenProvider) Token(ctx context.Context) (string, error) {
	values := url.Values{}
	values.Set("email", p.email)
	values.Set("password", p.password)
	requestBody := strings.NewReader(values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL+"/login", requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to login: status: %s, body: %s", resp.Status, string(b))
	}

	loginResponse := &LoginResponseBody{}
	if err := json.NewDecoder(resp.Body).Decode(loginResponse); err != nil {
		return "", fmt.Errorf("failed to decode login response: %v", err)
	}

	return loginResponse.IDToken, nil
}
