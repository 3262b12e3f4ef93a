package endpoints

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/audit"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/config"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/identity"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store/memory"
)

const testUID = 1000

func TestMain(m *testing.M) {
	audit.DefaultLogger.SetWriter(io.Discard)
	os.Exit(m.Run())
}

func testLimits() store.Limits {
	return store.Limits{MaxSecrets: 10, MaxPayloadSize: 64, MaxNestLevel: 4}
}

func newTestServer(t *testing.T, namespaces store.NamespaceStore, healthStore store.HealthStore) *server.Server {
	t.Helper()
	cfg := config.Default()
	cfg.SocketPath = filepath.Join(t.TempDir(), "secrets.socket")
	s := server.NewServer(namespaces, healthStore, cfg, zaptest.NewLogger(t))
	RegisterAll(s)
	return s
}

// newMemoryServer serves an in-memory registry enforcing limits.
func newMemoryServer(t *testing.T, limits store.Limits) *server.Server {
	t.Helper()
	return newTestServer(t, memory.NewRegistry(limits, nil), nil)
}

type requestOption func(*http.Request) *http.Request

func withHeader(key, value string) requestOption {
	return func(r *http.Request) *http.Request {
		r.Header.Set(key, value)
		return r
	}
}

func asUID(uid uint32) requestOption {
	return func(r *http.Request) *http.Request {
		return r.WithContext(identity.Set(r.Context(), identity.New(uid, uid, 4242)))
	}
}

// do sends a request straight to the router, as the connection identity
// middleware would after reading peer credentials.
func do(s *server.Server, method, target, body string, opts ...requestOption) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(identity.Set(context.Background(), identity.New(testUID, testUID, 4242)))
	for _, opt := range opts {
		req = opt(req)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func errorMessageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Message
}
