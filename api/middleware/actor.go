package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/gatepass-backend/pkg/logger"
)

const (
	actorHeader    = "X-Actor-Id"
	maxActorLength = 200
)

// Actor records who is acting. Identity is asserted by the caller; the
// fallback applies when the header is absent.
func Actor(fallback string, logg *logger.Logger) func(http.Handler) http.Handler {
	fallback = strings.TrimSpace(fallback)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(actorHeader))
			if actor == "" {
				actor = fallback
			}
			if len(actor) > maxActorLength {
				actor = actor[:maxActorLength]
			}

			ctx := WithActorID(r.Context(), actor)
			if logg != nil && actor != "" {
				ctx = logg.WithActorID(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
