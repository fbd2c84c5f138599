// Package auth derives the session identity from the session token and
// signs tokens for the in-memory contract server used in tests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/johndosdos/chatter-client/internal/model"
)

type ContextKey string

const UserIDKey ContextKey = "userId"

// Claims is the payload of a session token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// MakeJWT signs a session token for a user.
func MakeJWT(userID uuid.UUID, username, tokenSecret string, expiresIn time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	})

	return token.SignedString([]byte(tokenSecret))
}

// ValidateJWT verifies a session token and returns its claims.
func ValidateJWT(tokenString, tokenSecret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(tokenSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("internal/auth: failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("internal/auth: token is invalid")
	}

	if claims.Subject == "" {
		return nil, errors.New("internal/auth: subject claim is missing")
	}

	return claims, nil
}

// IdentityFromToken reads the session identity out of a session token
// without verifying its signature; the client does not hold the server's
// secret. Expired tokens are rejected so a stale login fails early.
func IdentityFromToken(tokenString string) (model.Identity, error) {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return model.Identity{}, fmt.Errorf("internal/auth: failed to parse token: %w", err)
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return model.Identity{}, errors.New("internal/auth: session token expired")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Identity{}, fmt.Errorf("internal/auth: invalid subject claim: %w", err)
	}

	return model.Identity{UserID: model.ID(userID.String()), Username: claims.Username}, nil
}

// GetUserFromContext returns the user ID stored by the session middleware.
func GetUserFromContext(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.UUID{}, errors.New("internal/auth: user ID missing from context")
	}
	if userID == uuid.Nil {
		return uuid.UUID{}, errors.New("internal/auth: empty user ID in context")
	}
	return userID, nil
}
