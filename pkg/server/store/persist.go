package store

import "github.com/doodlesbykumbi/secrets-in-go/pkg/model"

// Record is the persisted form of one entry. Value is nil for containers.
type Record struct {
	Path  model.Path
	Value []byte
}

// Persister stores snapshots of a namespace durably.
type Persister interface {
	// Load returns the last saved snapshot, or nothing if none exists.
	Load() ([]Record, error)

	// Save replaces the stored snapshot. It must not return before the
	// snapshot is durable.
	Save(records []Record) error
}

// PersisterFactory returns the persister backing the namespace of uid.
type PersisterFactory func(uid uint32) (Persister, error)
