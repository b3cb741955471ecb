package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/api/responses"
	pkgAuth "github.com/angelmondragon/rxguard-backend/pkg/auth"
	"github.com/angelmondragon/rxguard-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

const actorIDHeader = "X-Actor-Id"

// Actor resolves the acting user. With a token secret configured only a
// signed bearer token is accepted; otherwise the X-Actor-Id header is
// trusted when cfg.TrustActorHeader is set. A request without either
// passes through anonymously.
func Actor(cfg config.AuthConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var (
				actorID uuid.UUID
				role    string
			)

			switch {
			case cfg.TokensEnabled():
				token := bearerToken(r)
				if token == "" {
					break
				}
				claims, err := pkgAuth.ParseActorToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor token"))
					return
				}
				actorID = claims.ActorID
				role = claims.Role
			case cfg.TrustActorHeader:
				raw := strings.TrimSpace(r.Header.Get(actorIDHeader))
				if raw == "" {
					break
				}
				parsed, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "actor id must be a uuid").
						WithDetails(map[string]any{"header": actorIDHeader}))
					return
				}
				actorID = parsed
			}

			if actorID != uuid.Nil {
				ctx = WithActor(ctx, actorID, role)
				if logg != nil {
					ctx = logg.WithActorID(ctx, actorID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor rejects requests that Actor could not attribute.
func RequireActor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ActorIDFromContext(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole limits a route to the listed roles. Actors resolved from the
// X-Actor-Id header carry no role and are let through; only a token role
// outside the list is refused.
func RequireRole(logg *logger.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(role)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := ActorRoleFromContext(r.Context())
			if role != "" {
				if _, ok := allowed[strings.ToLower(role)]; !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role may not perform this action"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
