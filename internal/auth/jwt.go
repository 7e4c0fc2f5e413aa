package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
)

type supabaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier checks Supabase access tokens locally against the project's
// HS256 signing secret. The subject claim is the user id.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	claims := &supabaseClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return Identity{}, apperr.Auth("token expired")
	}
	if err != nil {
		return Identity{}, apperr.Auth("invalid token")
	}
	if claims.Subject == "" {
		return Identity{}, apperr.Auth("token has no subject")
	}

	id := Identity{UserID: claims.Subject, Email: claims.Email}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
