package http

import (
	"net/http"

	apperrors "github.com/naveen554/jaggaer-storefront/pkg/errors"
	"github.com/naveen554/jaggaer-storefront/pkg/httputil"
	"github.com/naveen554/jaggaer-storefront/pkg/logger"
)

// sessionHeader carries the shopping session. Sessions are opaque IDs minted
// by the presentation layer; the storefront only requires their presence.
const sessionHeader = "X-Session-ID"

// RequireSession rejects requests without a session header. Catalog routes
// do not use it; cart and checkout routes are meaningless without a session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(sessionHeader) == "" {
			httputil.WriteError(w, r, apperrors.InvalidInput("missing "+sessionHeader+" header"), logger.FromContext(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionID(r *http.Request) string {
	return r.Header.Get(sessionHeader)
}
