package store

// HealthStore provides health check operations
type HealthStore interface {
	// CheckStorage verifies the backing storage is usable
	CheckStorage() error
}
