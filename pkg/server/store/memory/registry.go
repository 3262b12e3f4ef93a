package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

// Ensure Registry implements store.NamespaceStore
var _ store.NamespaceStore = (*Registry)(nil)

// Registry owns one Namespace per principal. All namespaces share a single
// Quota, so replacing the limits applies to every principal at once.
type Registry struct {
	mu         sync.Mutex
	namespaces map[uint32]*Namespace
	loading    map[uint32]*load

	quota        *Quota
	newPersister store.PersisterFactory
}

// load is a namespace being read from its persister. Requests for the same
// uid wait on once; a failed load is retried by the next request.
type load struct {
	once sync.Once
	ns   *Namespace
	err  error
}

// NewRegistry creates a registry enforcing limits. A nil factory keeps every
// namespace in memory only.
func NewRegistry(limits store.Limits, factory store.PersisterFactory) *Registry {
	return &Registry{
		namespaces:   map[uint32]*Namespace{},
		loading:      map[uint32]*load{},
		quota:        NewQuota(limits),
		newPersister: factory,
	}
}

// Namespace returns the namespace of uid, loading it from its persister on
// first use. A load only holds up requests of the same uid.
func (r *Registry) Namespace(uid uint32) (store.SecretsStore, error) {
	r.mu.Lock()
	if ns, ok := r.namespaces[uid]; ok {
		r.mu.Unlock()
		return ns, nil
	}
	l, ok := r.loading[uid]
	if !ok {
		l = &load{}
		r.loading[uid] = l
	}
	r.mu.Unlock()

	l.once.Do(func() {
		l.ns, l.err = r.load(uid)

		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.loading, uid)
		if l.err == nil {
			r.namespaces[uid] = l.ns
		}
	})
	if l.err != nil {
		return nil, l.err
	}
	return l.ns, nil
}

func (r *Registry) load(uid uint32) (*Namespace, error) {
	var persister store.Persister
	if r.newPersister != nil {
		var err error
		persister, err = r.newPersister(uid)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage for uid %d: %w", uid, err)
		}
	}

	ns, err := NewNamespace(r.quota, persister)
	if err != nil {
		return nil, fmt.Errorf("uid %d: %w", uid, err)
	}
	return ns, nil
}

// Limits returns the limits currently enforced.
func (r *Registry) Limits() store.Limits {
	return r.quota.Limits()
}

// SetLimits replaces the limits of every namespace, including the ones not
// loaded yet.
func (r *Registry) SetLimits(l store.Limits) {
	r.quota.SetLimits(l)
}

// Usage returns the entry counts of every loaded namespace.
func (r *Registry) Usage() map[uint32]store.Usage {
	r.mu.Lock()
	loaded := make(map[uint32]*Namespace, len(r.namespaces))
	for uid, ns := range r.namespaces {
		loaded[uid] = ns
	}
	r.mu.Unlock()

	usage := make(map[uint32]store.Usage, len(loaded))
	for uid, ns := range loaded {
		usage[uid] = ns.Usage()
	}
	return usage
}

// Principals returns the UIDs of the loaded namespaces, sorted.
func (r *Registry) Principals() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	uids := make([]uint32, 0, len(r.namespaces))
	for uid := range r.namespaces {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids
}
