package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/identity"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/metrics"
)

// RequestIDHeader carries the id of a request in the response.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID returns the id RequestLogger assigned to the request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// RequestLogger assigns every request an id, logs it once it is done and
// records it in m. m may be nil.
func RequestLogger(logger *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := uuid.NewString()
			w.Header().Set(RequestIDHeader, reqID)

			rec := &statusRecorder{ResponseWriter: w}
			ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			operation := Operation(r)

			fields := []zap.Field{
				zap.String("request_id", reqID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.EscapedPath()),
				zap.String("operation", operation),
				zap.Int("status", status),
				zap.Duration("duration", elapsed),
			}
			if id, ok := identity.Get(r.Context()); ok {
				fields = append(fields, zap.Uint32("uid", id.UID), zap.Int32("pid", id.PID))
			}
			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request failed", fields...)
			default:
				logger.Info("request", fields...)
			}

			if m != nil {
				m.ObserveRequest(r.Method, operation, status, elapsed)
			}
		})
	}
}

// Operation names what a request does, for logs and metrics.
func Operation(r *http.Request) string {
	path := r.URL.EscapedPath()
	switch {
	case path == "/":
		return "status"
	case path == "/metrics":
		return "metrics"
	case path != "/secrets" && !strings.HasPrefix(path, "/secrets/"):
		return "other"
	}

	container := path == "/secrets" || strings.HasSuffix(path, "/")
	switch r.Method {
	case http.MethodGet:
		if container {
			return "list"
		}
		return "get"
	case http.MethodPut, http.MethodPost:
		if container {
			return "mkdir"
		}
		return "create"
	case http.MethodDelete:
		return "delete"
	}
	return "other"
}
