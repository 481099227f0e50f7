package odata

import (
	"context"
	"net/http"

	"github.com/nlstn/go-odata-query/internal/observability"
)

type optionsKey struct{}

// Middleware parses the query options of every request. Invalid options are
// answered with a 400 OData error response; valid ones are stored in the request
// context for OptionsFromContext.
func Middleware(p *Parser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			opts, err := p.Parse(r.Context(), r.URL.Query())
			if err != nil {
				if werr := WriteError(w, err); werr != nil {
					p.logger.ErrorContext(r.Context(), "failed to write error response", "error", werr)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithOptions(r.Context(), opts)))
		})
		return observability.ServerTimingMiddleware(p.obs, h)
	}
}

// ContextWithOptions returns a copy of ctx carrying opts.
func ContextWithOptions(ctx context.Context, opts *QueryOptions) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

// OptionsFromContext returns the options stored by Middleware.
func OptionsFromContext(ctx context.Context) (*QueryOptions, bool) {
	opts, ok := ctx.Value(optionsKey{}).(*QueryOptions)
	return opts, ok && opts != nil
}
