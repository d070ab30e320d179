package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/tapsnap/tapsnap-backend/api/responses"
	pkgerrors "github.com/tapsnap/tapsnap-backend/pkg/errors"
	"github.com/tapsnap/tapsnap-backend/pkg/logger"
	"github.com/tapsnap/tapsnap-backend/pkg/redis"
)

type rateLimiterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimit applies a fixed-window counter per caller identity. The identity
// is the Basic auth username when present, otherwise the remote IP. A store
// failure lets the request through: the limiter protects the backend, it is
// not an availability dependency.
func RateLimit(store rateLimiterStore, scope string, max int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || max <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			identity := callerIdentity(r)
			key := redis.RateLimitKey(scope, identity)

			count, err := store.IncrWithTTL(r.Context(), key, window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "scope", scope), "rate_limit.store_unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}

			if count > max {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{
						"scope":    scope,
						"identity": identity,
						"count":    count,
					})
					logg.Warn(ctx, "rate_limit.exceeded")
				}
				responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func callerIdentity(r *http.Request) string {
	if user, _, ok := r.BasicAuth(); ok && user != "" {
		return user
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
