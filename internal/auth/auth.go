// Package auth verifies bearer tokens minted by the external identity
// provider and exposes the resulting viewer identity to handlers. The
// service never signs user tokens itself outside of tests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated viewer. A zero Identity means anonymous
// (shared-link preview): no viewer flags, no writes.
type Identity struct {
	UserID string
	Name   string
}

func (id Identity) Anonymous() bool {
	return id.UserID == ""
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the viewer identity, or a zero Identity when
// the request carried no valid token.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}

// Verifier parses HMAC-signed bearer tokens. The subject claim is the user
// id; an optional "name" claim carries the display name.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, ErrInvalidToken
	}

	id := Identity{UserID: sub}
	if name, ok := claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

// Sign mints a token for the given identity. Used by tests and local
// tooling; production tokens come from the identity provider.
func Sign(secret, userID, name string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(ttl).Unix(),
	}
	if name != "" {
		claims["name"] = name
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
