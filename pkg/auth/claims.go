package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActorClaims identify the clinician or pharmacist on whose behalf the
// gateway forwards a request.
type ActorClaims struct {
	ActorID uuid.UUID `json:"actor_id"`
	Role    string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}
