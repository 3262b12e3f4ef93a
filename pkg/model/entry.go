package model

import "sort"

// Entry is a node of a namespace tree. Value is set only for secrets and
// Children only for containers.
type Entry struct {
	Path     Path
	Value    []byte
	Children map[string]struct{}
}

// NewSecret returns a secret entry holding a copy of value.
func NewSecret(p Path, value []byte) *Entry {
	v := make([]byte, len(value))
	copy(v, value)
	return &Entry{Path: p, Value: v}
}

// NewContainer returns an empty container entry.
func NewContainer(p Path) *Entry {
	return &Entry{Path: p, Children: map[string]struct{}{}}
}

// Kind returns the kind of the entry.
func (e *Entry) Kind() Kind {
	return e.Path.Kind
}

// IsEmpty reports whether a container has no children.
func (e *Entry) IsEmpty() bool {
	return len(e.Children) == 0
}

// ChildNames returns the names of the immediate children, sorted.
func (e *Entry) ChildNames() []string {
	names := make([]string, 0, len(e.Children))
	for name := range e.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
