package auth

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned for missing, malformed or expired credentials.
var ErrUnauthorized = errors.New("invalid or expired credential")

// Verifier validates a bearer credential and resolves the external user
// identity it was issued for.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}
