package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"online_judge/internal/common"
	"online_judge/internal/common/security"
	"online_judge/internal/domain/model"
	"online_judge/internal/platform/session"
)

type contextKey string

const (
	PrincipalCtxKey contextKey = "principal"
	SessionIDCtxKey contextKey = "sessionID"
)

// LoadSession resolves cookie -> signed token -> session id -> Principal. Any miss along
// the way, a store outage included, leaves the request anonymous.
func LoadSession(tokens *security.SessionTokens, store session.Store, cookieName string, log zerolog.Logger) func(http.Handler) http.Handler {
	verify := jwtauth.Verify(tokens.Auth(), security.TokenFromCookie(cookieName))

	return func(next http.Handler) http.Handler {
		load := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				next.ServeHTTP(w, r)
				return
			}

			sessionID, err := security.GetSessionIDFromClaims(jwt.MapClaims(claims))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := store.Get(r.Context(), sessionID)
			if err != nil {
				log.Error().Err(err).Msg("failed to load session, serving request anonymously")
			}
			if principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sessionID, principal)))
		})
		return verify(load)
	}
}

// WithSession attaches a resolved session to ctx.
func WithSession(ctx context.Context, sessionID string, p *model.Principal) context.Context {
	ctx = context.WithValue(ctx, SessionIDCtxKey, sessionID)
	return context.WithValue(ctx, PrincipalCtxKey, p)
}

// PrincipalFromContext returns nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(PrincipalCtxKey).(*model.Principal)
	return p
}

func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(SessionIDCtxKey).(string)
	return sid
}

// RequireCapability rejects the request with 401 unless the caller holds required.
func RequireCapability(required model.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := security.Authorize(PrincipalFromContext(r.Context()), required); err != nil {
				common.RespondWithDomainError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
