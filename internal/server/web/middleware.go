package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

type ctxKey string

const identityKey ctxKey = "identity"

// TokenVerifier resolves a session token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *services.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller established by Authenticate, or nil.
func IdentityFromContext(ctx context.Context) *services.Identity {
	id, _ := ctx.Value(identityKey).(*services.Identity)
	return id
}

// Authenticate reads the session token from the cookie, then from a bearer
// header, and attaches the identity of the first one that verifies to the
// request context. A bad token never rejects the request; handlers decide
// whether identity is required.
func Authenticate(verifier TokenVerifier, logger logging.Logger) func(http.Handler) http.Handler {
	logger = logger.With("module", "auth_middleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, c := range tokensFromRequest(r) {
				userID, err := verifier.Verify(c.token)
				if err != nil {
					reason := "invalid"
					if errors.Is(err, common.ErrTokenExpired) {
						reason = "expired"
					}
					logger.Warn(r.Context(), "session token rejected",
						"reason", reason, "source", c.source, "path", r.URL.Path)
					continue
				}

				ctx := WithIdentity(r.Context(), &services.Identity{UserID: userID})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID tags each request with an id, reusing a sane inbound
// X-Request-ID, echoes it on the response and stores it on the context so
// every log line of the request carries request_id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.ContextWith(r.Context(), "request_id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type tokenCandidate struct {
	source string
	token  string
}

// tokensFromRequest lists the presented tokens in the order they are tried.
func tokensFromRequest(r *http.Request) []tokenCandidate {
	var out []tokenCandidate
	if c, err := r.Cookie(common.SessionCookieName); err == nil && c.Value != "" {
		out = append(out, tokenCandidate{source: "cookie", token: c.Value})
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		if t := strings.TrimSpace(h[7:]); t != "" {
			out = append(out, tokenCandidate{source: "bearer", token: t})
		}
	}
	return out
}
