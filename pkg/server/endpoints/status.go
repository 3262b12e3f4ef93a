package endpoints

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/identity"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

// StatusResponse represents the response from /
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version"`
	UID     uint32       `json:"uid"`
	Usage   store.Usage  `json:"usage"`
	Limits  store.Limits `json:"limits"`
}

// StatusErrorResponse represents a failed health check
type StatusErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// RegisterStatusEndpoints registers the status endpoint
func RegisterStatusEndpoints(s *server.Server) {
	// GET / - Daemon status and the caller's usage
	s.Router.HandleFunc("/", handleStatus(s.Namespaces, s.HealthStore, s.Logger)).Methods("GET")
}

func handleStatus(namespaces store.NamespaceStore, healthStore store.HealthStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if healthStore != nil {
			if err := healthStore.CheckStorage(); err != nil {
				logger.Error("storage check failed", zap.Error(err))
				respondWithJSON(w, http.StatusServiceUnavailable, StatusErrorResponse{
					Status: "error",
					Error:  "storage check failed",
				})
				return
			}
		}

		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithError(w, http.StatusInternalServerError, map[string]string{"message": "peer credentials unavailable"})
			return
		}
		ns, err := namespaces.Namespace(id.UID)
		if err != nil {
			respondWithStoreError(w, logger, err)
			return
		}

		respondWithJSON(w, http.StatusOK, StatusResponse{
			Status:  "ok",
			Version: server.Version,
			UID:     id.UID,
			Usage:   ns.Usage(),
			Limits:  namespaces.Limits(),
		})
	}
}
