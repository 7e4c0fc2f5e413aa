// Package auth verifies bearer tokens issued by Supabase and carries the
// resulting identity through request contexts.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// ResolveUser returns the user a request acts for. With an authenticated
// identity the token subject wins and a different claimed id is rejected;
// without one the claimed id is required.
func ResolveUser(ctx context.Context, claimed string) (string, error) {
	claimed = strings.TrimSpace(claimed)
	if id, ok := FromContext(ctx); ok {
		if claimed != "" && claimed != id.UserID {
			return "", apperr.Auth("userId does not match the authenticated user")
		}
		return id.UserID, nil
	}
	if claimed == "" {
		return "", apperr.Validation("userId is required")
	}
	return claimed, nil
}
