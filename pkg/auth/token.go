package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintActorToken signs an actor token. The gateway normally does this; the
// API uses it in tests and the migrate CLI uses it for local tooling.
func MintActorToken(cfg config.AuthConfig, now time.Time, actorID uuid.UUID, role string) (string, error) {
	if !cfg.TokensEnabled() {
		return "", fmt.Errorf("actor token secret is required")
	}
	if actorID == uuid.Nil {
		return "", fmt.Errorf("actor id is required")
	}
	ttl := cfg.ActorTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	claims := ActorClaims{
		ActorID: actorID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.ActorTokenIssuer,
			Subject:   actorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.ActorTokenSecret))
	if err != nil {
		return "", fmt.Errorf("signing actor token: %w", err)
	}
	return signed, nil
}

// ParseActorToken validates signature, issuer and expiry and returns the
// claims. Tokens without an actor id are rejected.
func ParseActorToken(cfg config.AuthConfig, tokenString string) (*ActorClaims, error) {
	if !cfg.TokensEnabled() {
		return nil, fmt.Errorf("actor token secret is required")
	}

	claims := &ActorClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwtSigningMethod.Alg()})}
	if cfg.ActorTokenIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.ActorTokenIssuer))
	}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.ActorTokenSecret), nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	if claims.ActorID == uuid.Nil {
		return nil, fmt.Errorf("actor token has no actor id")
	}
	return claims, nil
}
