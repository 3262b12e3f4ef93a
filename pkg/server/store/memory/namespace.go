package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/model"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

// Ensure Namespace implements store.SecretsStore
var _ store.SecretsStore = (*Namespace)(nil)

// Namespace is the tree of entries owned by one principal.
//
// Writers hold commitMu for the whole check-persist-apply sequence and take
// mu exclusively only to apply the change in memory. Entries are only ever
// written with both locks held, so a commitMu holder may read them without mu.
type Namespace struct {
	commitMu sync.Mutex
	mu       sync.RWMutex

	entries    map[string]*model.Entry
	secrets    int
	containers int

	quota     *Quota
	persister store.Persister
}

// NewNamespace creates a namespace enforcing quota and loads the snapshot
// held by persister, if any. A nil persister keeps the namespace in memory
// only.
func NewNamespace(quota *Quota, persister store.Persister) (*Namespace, error) {
	n := &Namespace{
		entries:   map[string]*model.Entry{"": model.NewContainer(model.Root())},
		quota:     quota,
		persister: persister,
	}
	if persister == nil {
		return n, nil
	}

	records, err := persister.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load namespace: %w", err)
	}
	if err := n.restore(records); err != nil {
		return nil, fmt.Errorf("failed to restore namespace: %w", err)
	}
	return n, nil
}

// restore inserts records parents first. Limits are not applied: a snapshot
// written under looser limits is still served.
func (n *Namespace) restore(records []store.Record) error {
	sorted := make([]store.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path.Level() < sorted[j].Path.Level()
	})

	for _, r := range sorted {
		if r.Path.IsRoot() {
			continue
		}
		if err := n.checkParent(r.Path); err != nil {
			return err
		}
		if _, ok := n.entries[r.Path.Key()]; ok {
			return fmt.Errorf("duplicate entry %s", r.Path)
		}
		var entry *model.Entry
		if r.Path.Kind == model.KindContainer {
			entry = model.NewContainer(r.Path)
		} else {
			entry = model.NewSecret(r.Path, r.Value)
		}
		n.insert(entry)
	}
	return nil
}

// Get returns a copy of the value of the secret at p.
func (n *Namespace) Get(p model.Path) ([]byte, error) {
	if p.Kind != model.KindSecret {
		return nil, fmt.Errorf("%w: %s is a container", store.ErrNotFound, p)
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	entry, ok := n.entries[p.Key()]
	if !ok || entry.Kind() != model.KindSecret {
		return nil, fmt.Errorf("%w: secret %s", store.ErrNotFound, p)
	}
	value := make([]byte, len(entry.Value))
	copy(value, entry.Value)
	return value, nil
}

// List returns the sorted child names of the container at p. An empty
// container is reported exactly like an absent one.
func (n *Namespace) List(p model.Path) ([]string, error) {
	if p.Kind != model.KindContainer {
		return nil, fmt.Errorf("%w: %s is not a container path", store.ErrBadRequest, p)
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	entry, ok := n.entries[p.Key()]
	if !ok || entry.Kind() != model.KindContainer {
		return nil, fmt.Errorf("%w: container %s", store.ErrNotFound, p)
	}
	if entry.IsEmpty() {
		return nil, fmt.Errorf("%w: container %s is empty", store.ErrNotFound, p)
	}
	return entry.ChildNames(), nil
}

// Create stores a new secret at p.
func (n *Namespace) Create(p model.Path, value []byte) error {
	if p.Kind != model.KindSecret {
		return fmt.Errorf("%w: %s is a container path", store.ErrBadRequest, p)
	}
	if err := n.quota.CheckPayload(p, len(value)); err != nil {
		return err
	}

	n.commitMu.Lock()
	defer n.commitMu.Unlock()

	if err := n.checkParent(p); err != nil {
		return err
	}
	if existing, ok := n.entries[p.Key()]; ok {
		return fmt.Errorf("%w: %s already exists", store.ErrConflict, existing.Path)
	}
	if err := n.quota.CheckSecretCount(n.secrets); err != nil {
		return err
	}

	return n.commit(model.NewSecret(p, value), nil)
}

// CreateContainer creates an empty container at p.
func (n *Namespace) CreateContainer(p model.Path) error {
	if p.Kind != model.KindContainer {
		return fmt.Errorf("%w: container path %s must end with %q", store.ErrBadRequest, p, model.Separator)
	}
	if p.IsRoot() {
		return fmt.Errorf("%w: the root container always exists", store.ErrConflict)
	}
	if err := n.quota.CheckNesting(p); err != nil {
		return err
	}

	n.commitMu.Lock()
	defer n.commitMu.Unlock()

	if err := n.checkParent(p); err != nil {
		return err
	}
	if existing, ok := n.entries[p.Key()]; ok {
		return fmt.Errorf("%w: %s already exists", store.ErrConflict, existing.Path)
	}

	return n.commit(model.NewContainer(p), nil)
}

// Delete removes the secret or empty container at p.
func (n *Namespace) Delete(p model.Path) error {
	if p.IsRoot() {
		return fmt.Errorf("%w: the root container cannot be deleted", store.ErrBadRequest)
	}

	n.commitMu.Lock()
	defer n.commitMu.Unlock()

	entry, ok := n.entries[p.Key()]
	if !ok || entry.Kind() != p.Kind {
		return fmt.Errorf("%w: %s %s", store.ErrNotFound, p.Kind, p)
	}
	if entry.Kind() == model.KindContainer && !entry.IsEmpty() {
		return fmt.Errorf("%w: container %s is not empty", store.ErrConflict, p)
	}

	return n.commit(nil, entry)
}

// Usage returns the current entry counts.
func (n *Namespace) Usage() store.Usage {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return store.Usage{Secrets: n.secrets, Containers: n.containers}
}

func (n *Namespace) checkParent(p model.Path) error {
	parent := p.Parent()
	entry, ok := n.entries[parent.Key()]
	if !ok || entry.Kind() != model.KindContainer {
		return fmt.Errorf("%w: parent container %s does not exist", store.ErrNotFound, parent)
	}
	return nil
}

// commit persists the namespace as it will look after adding add and
// removing remove, then applies the change. Callers hold commitMu.
func (n *Namespace) commit(add, remove *model.Entry) error {
	if n.persister != nil {
		if err := n.persister.Save(n.snapshot(add, remove)); err != nil {
			return fmt.Errorf("failed to persist namespace: %w", err)
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if remove != nil {
		n.unlink(remove)
	}
	if add != nil {
		n.insert(add)
	}
	return nil
}

func (n *Namespace) snapshot(add, remove *model.Entry) []store.Record {
	records := make([]store.Record, 0, len(n.entries))
	for key, entry := range n.entries {
		if key == "" || entry == remove {
			continue
		}
		records = append(records, store.Record{Path: entry.Path, Value: entry.Value})
	}
	if add != nil {
		records = append(records, store.Record{Path: add.Path, Value: add.Value})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Path.String() < records[j].Path.String()
	})
	return records
}

func (n *Namespace) insert(entry *model.Entry) {
	n.entries[entry.Path.Key()] = entry
	n.entries[entry.Path.Parent().Key()].Children[entry.Path.Name()] = struct{}{}
	if entry.Kind() == model.KindSecret {
		n.secrets++
	} else {
		n.containers++
	}
}

func (n *Namespace) unlink(entry *model.Entry) {
	delete(n.entries, entry.Path.Key())
	delete(n.entries[entry.Path.Parent().Key()].Children, entry.Path.Name())
	if entry.Kind() == model.KindSecret {
		n.secrets--
	} else {
		n.containers--
	}
}
