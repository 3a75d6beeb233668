// Package requesttime pins a single "now" per HTTP request so that credential
// issuance and expiry checks inside one request agree on the time.
package requesttime

import (
	"net/http"

	"github.com/benbjohnson/clock"

	"passport-iam/pkg/requestcontext"
)

// Middleware stores clk.Now() in the request context. Tests pass clock.NewMock().
func Middleware(clk clock.Clock) func(http.Handler) http.Handler {
	if clk == nil {
		clk = clock.New()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clk.Now().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
