// Package memory provides the in-memory namespace tree that implements
// store.SecretsStore, the quota enforcer consulted by its mutations, and a
// registry holding one namespace per principal.
//
// Entries are kept in an arena keyed by path rather than as a linked tree;
// containers record the names of their children. Mutations are serialized
// per namespace and persisted through a store.Persister before they become
// visible, so readers never wait on disk I/O.
package memory
