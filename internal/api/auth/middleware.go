package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/devcamper-api/app/observability/metrics"
	"github.com/FACorreiaa/devcamper-api/internal/api"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

const (
	// CookieName is the session cookie carrying the credential.
	CookieName = "token"
	// loggedOut is the value written over the cookie on logout.
	loggedOut = "none"
)

// PrincipalFinder resolves a credential subject to its principal.
type PrincipalFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*types.User, error)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, u *types.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}

// PrincipalFromContext returns the principal attached by Authenticate.
func PrincipalFromContext(ctx context.Context) (*types.User, bool) {
	u, ok := ctx.Value(principalKey{}).(*types.User)
	return u, ok && u != nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != loggedOut {
		return c.Value
	}
	return ""
}

// Authenticate verifies the request credential and attaches the principal it
// names. A credential whose principal no longer exists is rejected.
func Authenticate(tokens *TokenManager, users PrincipalFinder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			reject := func(reason string) {
				l.WarnContext(ctx, "Authentication failed", slog.String("reason", reason), slog.String("path", r.URL.Path))
				metrics.Get().AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
				api.HandleError(w, r, types.ErrUnauthenticated)
			}

			raw := tokenFromRequest(r)
			if raw == "" {
				reject("missing")
				return
			}
			id, err := tokens.Verify(raw)
			if err != nil {
				reject("invalid")
				return
			}
			user, err := users.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					reject("unknown_principal")
					return
				}
				api.HandleError(w, r, err)
				return
			}

			l.DebugContext(ctx, "Authenticated", slog.String("userID", user.ID.String()))
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, user)))
		})
	}
}

// RequireRoles lets the request through only when the principal holds one of
// roles. It must run after Authenticate.
func RequireRoles(logger *slog.Logger, roles ...types.Role) func(http.Handler) http.Handler {
	allowed := make(map[types.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user, ok := PrincipalFromContext(ctx)
			if !ok {
				logger.ErrorContext(ctx, "Role check ran without a principal", slog.String("path", r.URL.Path))
				api.HandleError(w, r, types.ErrUnauthenticated)
				return
			}
			if _, permitted := allowed[user.Role]; !permitted {
				logger.WarnContext(ctx, "Role not permitted",
					slog.String("userID", user.ID.String()), slog.String("role", string(user.Role)))
				api.HandleError(w, r, types.NewError(types.ErrForbidden,
					"User role %s is not authorized to access this route", user.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
