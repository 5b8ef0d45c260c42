package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/stockroom/stockroom/internal/core/domain"
)

type contextKey struct{}

var actorKey contextKey

// ActorFrom returns the authenticated actor attached to the request
// context, if any.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

// WithActor attaches an actor to the context. Exposed for handler tests.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Verifier validates a bearer token and resolves the actor it describes.
type Verifier interface {
	Verify(token string) (domain.Actor, error)
}

// Middleware extracts the bearer token, verifies it and stores the actor in
// the request context. Requests without a valid token get 401.
func Middleware(verifier Verifier, unauthorized http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, r)
				return
			}
			actor, err := verifier.Verify(token)
			if err != nil {
				unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireRole gates a route on the actor holding one of the given roles.
func RequireRole(forbidden http.HandlerFunc, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok || !actor.HasAnyRole(roles...) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
