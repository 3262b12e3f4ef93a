package store

import (
	"errors"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/model"
)

// Client errors. Each maps to exactly one response status.
var (
	// ErrBadRequest is returned for requests that can never succeed, such as
	// creating a container without a trailing separator.
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound is returned when an entry doesn't exist, or when listing a
	// container that is absent or empty.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an entry already exists at the target
	// name, or when deleting a container that still has children.
	ErrConflict = errors.New("conflict")

	// ErrPayloadTooLarge is returned when a value exceeds the payload limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrNestingLimitExceeded is returned when a container would be nested
	// deeper than the configured level.
	ErrNestingLimitExceeded = errors.New("containers nesting level exceeded")

	// ErrQuotaExceeded is returned when the namespace already holds the
	// maximum number of secrets.
	ErrQuotaExceeded = errors.New("secrets quota exceeded")
)

// Usage reports how many entries a namespace holds. The root is not counted.
type Usage struct {
	Secrets    int `json:"secrets"`
	Containers int `json:"containers"`
}

// SecretsStore abstracts the operations on a single namespace.
type SecretsStore interface {
	// Get returns the value of a secret.
	// Returns ErrNotFound if no secret exists at p.
	Get(p model.Path) ([]byte, error)

	// List returns the sorted names of the children of a container.
	// Returns ErrNotFound if the container is absent or empty.
	List(p model.Path) ([]string, error)

	// Create stores a new secret. Existing secrets are never overwritten.
	Create(p model.Path, value []byte) error

	// CreateContainer creates a new, empty container.
	CreateContainer(p model.Path) error

	// Delete removes a secret or an empty container.
	Delete(p model.Path) error

	// Usage returns the current entry counts.
	Usage() Usage
}

// NamespaceStore hands out the namespace owned by a principal.
type NamespaceStore interface {
	// Namespace returns the namespace of uid, loading it on first use.
	Namespace(uid uint32) (SecretsStore, error)

	// Limits returns the limits every namespace enforces.
	Limits() Limits

	// Usage returns the entry counts of every loaded namespace.
	Usage() map[uint32]Usage
}
