// Package store defines the storage contract of the secrets server.
//
// This package holds the interfaces the endpoints depend on, the limits
// that bound a namespace, and the sentinel errors that make up the error
// taxonomy of the service. Implementations live in subpackages so that
// handlers can be tested against mocks.
//
// # Available Stores
//
//   - SecretsStore: path-addressed operations on one namespace
//   - NamespaceStore: hands out the namespace owned by a principal (UID)
//   - Persister: durable snapshot storage for one namespace
//   - HealthStore: checks that the backing storage is usable
//
// # Usage
//
//	storage, err := file.NewStorage(dir)
//	if err != nil {
//	    return err
//	}
//	registry := memory.NewRegistry(store.DefaultLimits(), storage.Persister)
//	ns, err := registry.Namespace(uid)
//	if err != nil {
//	    return err
//	}
//	value, err := ns.Get(model.MustParsePath("db/password"))
//	if errors.Is(err, store.ErrNotFound) {
//	    // Handle not found
//	}
package store
