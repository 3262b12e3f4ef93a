package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// Separator splits path segments. A trailing separator addresses a container.
	Separator = "/"

	// MaxSegmentLength bounds a single path segment in bytes.
	MaxSegmentLength = 255
)

// ErrInvalidPath is returned for paths that cannot address any entry.
var ErrInvalidPath = errors.New("invalid path")

// Path is a validated address of an entry in a namespace.
type Path struct {
	Segments []string
	Kind     Kind
}

// Root returns the path of the implicit root container.
func Root() Path {
	return Path{Kind: KindContainer}
}

// ParsePath validates raw and splits it into segments. The empty string and
// "/" address the root container.
func ParsePath(raw string) (Path, error) {
	if raw == "" || raw == Separator {
		return Root(), nil
	}

	kind := KindSecret
	trimmed := raw
	if strings.HasSuffix(raw, Separator) {
		kind = KindContainer
		trimmed = strings.TrimSuffix(raw, Separator)
	}

	segments := strings.Split(trimmed, Separator)
	for _, segment := range segments {
		if err := validateSegment(segment); err != nil {
			return Path{}, fmt.Errorf("%w %q: %v", ErrInvalidPath, raw, err)
		}
	}

	return Path{Segments: segments, Kind: kind}, nil
}

// MustParsePath is like ParsePath but panics on error. Intended for tests
// and constants.
func MustParsePath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func validateSegment(segment string) error {
	switch segment {
	case "":
		return errors.New("empty segment")
	case ".", "..":
		return fmt.Errorf("relative segment %q", segment)
	}
	if len(segment) > MaxSegmentLength {
		return fmt.Errorf("segment longer than %d bytes", MaxSegmentLength)
	}
	if !utf8.ValidString(segment) {
		return errors.New("segment is not valid UTF-8")
	}
	for _, r := range segment {
		if r < 0x20 || r == 0x7f {
			return errors.New("segment contains control characters")
		}
	}
	return nil
}

// IsRoot reports whether p addresses the root container.
func (p Path) IsRoot() bool {
	return len(p.Segments) == 0
}

// Level is the nesting level of p: the number of segments. The root is at
// level 0 and a top-level container at level 1.
func (p Path) Level() int {
	return len(p.Segments)
}

// Name returns the last segment, or "" for the root.
func (p Path) Name() string {
	if p.IsRoot() {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// Parent returns the container holding p. The parent of the root is the root.
func (p Path) Parent() Path {
	if p.IsRoot() {
		return p
	}
	return Path{Segments: p.Segments[:len(p.Segments)-1], Kind: KindContainer}
}

// Child returns the path of the entry called name inside container p.
func (p Path) Child(name string, kind Kind) Path {
	segments := make([]string, 0, len(p.Segments)+1)
	segments = append(segments, p.Segments...)
	return Path{Segments: append(segments, name), Kind: kind}
}

// Key is the kind-independent identity of p. A secret and a container with
// the same segments share a key, so they can never coexist.
func (p Path) Key() string {
	return strings.Join(p.Segments, Separator)
}

// String renders p the way it is parsed, with a trailing separator for
// containers.
func (p Path) String() string {
	if p.IsRoot() {
		return Separator
	}
	return p.Key() + p.Kind.Suffix()
}
