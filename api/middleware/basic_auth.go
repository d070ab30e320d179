package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/tapsnap/tapsnap-backend/api/responses"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
)

// BasicAuth guards an endpoint with a single shared credential pair. When no
// credential is configured the middleware rejects everything: an unset
// secret must behave exactly like a wrong one.
func BasicAuth(realm, expectedUser, expectedPass string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()

			okUser := subtle.ConstantTimeCompare([]byte(user), []byte(expectedUser)) == 1
			okPass := subtle.ConstantTimeCompare([]byte(pass), []byte(expectedPass)) == 1

			if !ok || expectedUser == "" || expectedPass == "" || !okUser || !okPass {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "realm", realm), "basic_auth.rejected")
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
				responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
