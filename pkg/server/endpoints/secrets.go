package endpoints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/audit"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/identity"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/logging"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/model"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

// SecretTypeSimple is the only value type of the JSON envelope.
const SecretTypeSimple = "simple"

// envelopeOverhead bounds the JSON around an envelope value. Escaping may
// grow each value byte to six body bytes.
const envelopeOverhead = 1024

// SecretEnvelope is the JSON form of a secret value.
type SecretEnvelope struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func RegisterSecretsEndpoints(s *server.Server) {
	router := s.Router
	namespaces := s.Namespaces
	logger := s.Logger.Named("secrets")

	// GET /secrets - List the root container
	router.HandleFunc("/secrets", handleGet(namespaces, logger)).Methods("GET")

	// GET /secrets/{path} - Fetch a secret, or list a container when the
	// path ends with a separator
	router.HandleFunc("/secrets/{path:.*}", handleGet(namespaces, logger)).Methods("GET")

	// PUT /secrets/{path} - Create a secret, or a container when the path
	// ends with a separator
	router.HandleFunc("/secrets/{path:.*}", handlePut(namespaces, logger)).Methods("PUT")

	// POST /secrets/{path}/ - Create a container
	router.HandleFunc("/secrets/{path:.*}", handlePost(namespaces, logger)).Methods("POST")

	// DELETE /secrets/{path} - Delete a secret or an empty container
	router.HandleFunc("/secrets/{path:.*}", handleDelete(namespaces, logger)).Methods("DELETE")
}

// request is a resolved request on a namespace.
type request struct {
	id   *identity.Identity
	ns   store.SecretsStore
	path model.Path
}

func (req request) subject() audit.Subject {
	return audit.Subject{
		User:   req.id.Principal(),
		Client: req.id.Client(),
		Path:   req.path.String(),
		Kind:   req.path.Kind.String(),
	}
}

// resolve finds the caller's namespace and the addressed path. It answers
// the request itself and returns false on failure.
func resolve(w http.ResponseWriter, r *http.Request, namespaces store.NamespaceStore, logger *zap.Logger) (request, bool) {
	id, ok := identity.Get(r.Context())
	if !ok {
		respondWithStoreError(w, logger, fmt.Errorf("peer credentials unavailable"))
		return request{}, false
	}

	raw, err := url.PathUnescape(mux.Vars(r)["path"])
	if err != nil {
		respondWithStoreError(w, logger, fmt.Errorf("%w: %v", store.ErrBadRequest, err))
		return request{}, false
	}
	p, err := model.ParsePath(raw)
	if err != nil {
		respondWithStoreError(w, logger, err)
		return request{}, false
	}

	ns, err := namespaces.Namespace(id.UID)
	if err != nil {
		respondWithStoreError(w, logger, err)
		return request{}, false
	}
	return request{id: id, ns: ns, path: p}, true
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func handleGet(namespaces store.NamespaceStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := resolve(w, r, namespaces, logger)
		if !ok {
			return
		}

		if req.path.Kind == model.KindContainer {
			names, err := req.ns.List(req.path)
			audit.Log(audit.ListEvent{
				Subject:      req.subject(),
				Count:        len(names),
				Success:      err == nil,
				ErrorMessage: errorMessage(err),
			})
			if err != nil {
				respondWithStoreError(w, logger, err)
				return
			}
			respondWithJSON(w, http.StatusOK, names)
			return
		}

		value, err := req.ns.Get(req.path)
		audit.Log(audit.FetchEvent{
			Subject:      req.subject(),
			Success:      err == nil,
			ErrorMessage: errorMessage(err),
		})
		if err != nil {
			respondWithStoreError(w, logger, err)
			return
		}

		// A JSON string cannot carry invalid UTF-8, so such values are
		// always answered raw.
		if wantsJSON(r) && utf8.Valid(value) {
			respondWithJSON(w, http.StatusOK, SecretEnvelope{Type: SecretTypeSimple, Value: string(value)})
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(value)
	}
}

func handlePut(namespaces store.NamespaceStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := resolve(w, r, namespaces, logger)
		if !ok {
			return
		}
		if req.path.Kind == model.KindContainer {
			createContainer(w, req, logger)
			return
		}

		value, err := readValue(r, namespaces.Limits().MaxPayloadSize)
		if err == nil {
			logger.Debug("creating secret", zap.Stringer("path", req.path), logging.Value("value", value))
			err = req.ns.Create(req.path, value)
		}
		audit.Log(audit.CreateEvent{
			Subject:      req.subject(),
			Success:      err == nil,
			ErrorMessage: errorMessage(err),
		})
		if err != nil {
			respondWithStoreError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// handlePost creates containers. A path without a trailing separator is
// rejected by the store.
func handlePost(namespaces store.NamespaceStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := resolve(w, r, namespaces, logger)
		if !ok {
			return
		}
		createContainer(w, req, logger)
	}
}

func createContainer(w http.ResponseWriter, req request, logger *zap.Logger) {
	err := req.ns.CreateContainer(req.path)
	audit.Log(audit.CreateEvent{
		Subject:      req.subject(),
		Success:      err == nil,
		ErrorMessage: errorMessage(err),
	})
	if err != nil {
		respondWithStoreError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func handleDelete(namespaces store.NamespaceStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := resolve(w, r, namespaces, logger)
		if !ok {
			return
		}

		err := req.ns.Delete(req.path)
		audit.Log(audit.DeleteEvent{
			Subject:      req.subject(),
			Success:      err == nil,
			ErrorMessage: errorMessage(err),
		})
		if err != nil {
			respondWithStoreError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// readValue reads the secret value of a request body, which is either the
// raw value or a JSON envelope.
func readValue(r *http.Request, limit int64) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return readBody(r.Body, limit)
	}

	body, err := readBody(r.Body, 6*limit+envelopeOverhead)
	if err != nil {
		return nil, err
	}
	var envelope SecretEnvelope
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed secret envelope: %v", store.ErrBadRequest, err)
	}
	if envelope.Type != SecretTypeSimple {
		return nil, fmt.Errorf("%w: unsupported secret type %q", store.ErrBadRequest, envelope.Type)
	}
	return []byte(envelope.Value), nil
}

// readBody reads at most limit bytes. Larger bodies are rejected without
// being read whole.
func readBody(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", store.ErrBadRequest, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", store.ErrPayloadTooLarge, limit)
	}
	return data, nil
}
