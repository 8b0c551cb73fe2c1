package auth

import (
	"context"
	"errors"
)

var ErrNoToken = errors.New("auth: no bearer token configured")

// StaticTokenSource supplies a fixed bearer token, typically loaded from
// configuration. The session/auth collaborator that refreshes tokens lives
// outside this service; it only has to satisfy the TokenSource port.
type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	_ = ctx
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}
