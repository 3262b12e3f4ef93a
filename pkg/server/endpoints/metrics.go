package endpoints

import (
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server"
)

// RegisterMetricsEndpoint exposes the prometheus registry when metrics are
// enabled.
func RegisterMetricsEndpoint(s *server.Server) {
	if s.Metrics == nil {
		return
	}
	s.Router.Handle("/metrics", s.Metrics.Handler()).Methods("GET")
}
