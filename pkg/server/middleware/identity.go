package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/identity"
)

// PeerIdentity makes the identity of the connecting process available to
// handlers. Requests on connections without peer credentials are refused.
func PeerIdentity(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, ok := identity.Get(r.Context())
			if !ok {
				logger.Error("request without peer credentials", zap.String("request_id", RequestID(r.Context())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]string{"message": "peer credentials unavailable"},
				})
				return
			}

			// The connection identity is shared by every request on it.
			id := *conn
			ctx := identity.Set(r.Context(), id.WithRequestID(RequestID(r.Context())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
