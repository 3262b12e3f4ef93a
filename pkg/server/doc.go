// Package server provides the HTTP server of the secrets daemon.
//
// The server speaks HTTP/1.1 over a Unix domain socket. The kernel reports
// the credentials of the connecting process, and every request operates on
// the namespace of the caller's UID. It uses gorilla/mux for routing.
//
// # Server Setup
//
//	srv := server.NewServer(registry, storage, cfg, logger)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
// The Server struct holds:
//
//   - Namespaces: one namespace per principal
//   - HealthStore: storage health checks for the status endpoint
//   - Config: the loaded configuration
//   - Metrics: Prometheus metrics, nil when disabled
//   - Router: HTTP request router
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - /secrets/{path} - Secret and container management
//   - / - Status
//   - /metrics - Prometheus metrics
package server
