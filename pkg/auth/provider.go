package auth

import "context"

// TokenProvider supplies the bearer credential attached at connect time.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider returns a fixed token.
type StaticTokenProvider struct {
	token string
}

var _ TokenProvider = &StaticTokenProvider{}

// NewStaticTokenProvider creates a TokenProvider that always returns token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

func (p *StaticTokenProvider) Token(_ context.Context) (string, error) {
	return p.token, nil
}
