package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// SupabaseVerifier asks the Supabase auth server who owns a token.
type SupabaseVerifier struct {
	baseURL string
	apiKey  string
	client  HTTPClient
}

func NewSupabaseVerifier(baseURL, apiKey string, client HTTPClient) *SupabaseVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &SupabaseVerifier{baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey, client: client}
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, &apperr.UpstreamError{Provider: "supabase", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return Identity{}, apperr.Auth("invalid or expired token")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return Identity{}, &apperr.UpstreamError{Provider: "supabase", StatusCode: resp.StatusCode}
	}

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return Identity{}, &apperr.UpstreamError{Provider: "supabase", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode user: %w", err)}
	}
	if user.ID == "" {
		return Identity{}, apperr.Auth("invalid or expired token")
	}

	id := Identity{UserID: user.ID, Email: user.Email}
	// The server already vouched for the token; exp only bounds caching.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			id.ExpiresAt = exp.Time
		}
	}
	return id, nil
}
