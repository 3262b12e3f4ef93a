// Package model defines the namespace entities of the secrets store.
//
// A namespace is a tree of entries addressed by slash-separated paths. An
// entry is either a secret, a leaf that holds an opaque value, or a
// container, an interior node that holds other entries. The kind of an
// entry is encoded in the path itself: a trailing separator addresses a
// container.
//
// # Paths
//
//	p, err := model.ParsePath("apps/db/")
//	// p.Kind == model.KindContainer, p.Segments == []string{"apps", "db"}
//
//	p, err = model.ParsePath("apps/db/password")
//	// p.Kind == model.KindSecret, p.Parent().String() == "apps/db/"
//
// The empty path and "/" both address the root container, which exists
// implicitly and has nesting level 0.
//
// # Core Types
//
//   - Kind: secret or container
//   - Path: validated, normalized address of an entry
//   - Entry: a node of the namespace tree
package model
