package file

import (
	"fmt"
	"os"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

// Ensure Storage implements store.HealthStore
var _ store.HealthStore = (*Storage)(nil)

// Storage is the directory holding every namespace file.
type Storage struct {
	dir string
}

// NewStorage creates dir with owner-only permissions if needed.
func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is not set")
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Storage) Dir() string {
	return s.dir
}

// Persister returns the persister of uid. It satisfies store.PersisterFactory.
func (s *Storage) Persister(uid uint32) (store.Persister, error) {
	return NewPersister(s.dir, uid), nil
}

// CheckStorage verifies the directory exists and is writable.
func (s *Storage) CheckStorage() error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}

	tmp, err := os.CreateTemp(s.dir, ".health.*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	_ = tmp.Close()
	return os.Remove(name)
}
