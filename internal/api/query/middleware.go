package query

import (
	"context"
	"net/http"

	"github.com/FACorreiaa/devcamper-api/internal/api"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

type resultsKey struct{}

// Middleware runs the listing for res before the handler and stores the
// envelope on the request context. Failures are answered directly.
func (b *Builder) Middleware(res *Resource, populate ...Populate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env, err := b.List(r.Context(), res, r.URL.Query(), populate...)
			if err != nil {
				api.HandleError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), resultsKey{}, env)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResultsFromContext returns the envelope stored by Middleware.
func ResultsFromContext(ctx context.Context) (*types.ListEnvelope, bool) {
	env, ok := ctx.Value(resultsKey{}).(*types.ListEnvelope)
	return env, ok
}

// WriteResults emits the stored envelope, or a server error when the
// route was wired without Middleware.
func WriteResults(w http.ResponseWriter, r *http.Request) {
	env, ok := ResultsFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Server Error")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, env)
}
