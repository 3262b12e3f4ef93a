package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		segments []string
		kind     Kind
	}{
		{name: "empty is root", raw: "", segments: nil, kind: KindContainer},
		{name: "separator is root", raw: "/", segments: nil, kind: KindContainer},
		{name: "top-level secret", raw: "foo", segments: []string{"foo"}, kind: KindSecret},
		{name: "top-level container", raw: "cont/", segments: []string{"cont"}, kind: KindContainer},
		{name: "nested secret", raw: "cont/cfoo", segments: []string{"cont", "cfoo"}, kind: KindSecret},
		{name: "nested container", raw: "a/b/c/", segments: []string{"a", "b", "c"}, kind: KindContainer},
		{name: "unicode segment", raw: "clé", segments: []string{"clé"}, kind: KindSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePath(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, len(tt.segments), len(p.Segments))
			for i := range tt.segments {
				assert.Equal(t, tt.segments[i], p.Segments[i])
			}
		})
	}
}

func TestParsePath_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty segment", raw: "a//b"},
		{name: "leading separator", raw: "/foo"},
		{name: "double trailing separator", raw: "foo//"},
		{name: "dot segment", raw: "a/./b"},
		{name: "dot-dot segment", raw: "../etc/passwd"},
		{name: "control character", raw: "foo\x00bar"},
		{name: "newline", raw: "foo\nbar"},
		{name: "invalid utf-8", raw: "foo\xffbar"},
		{name: "overlong segment", raw: strings.Repeat("x", MaxSegmentLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePath(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}

func TestPath_Navigation(t *testing.T) {
	p := MustParsePath("a/b/c")

	assert.Equal(t, 3, p.Level())
	assert.Equal(t, "c", p.Name())
	assert.Equal(t, "a/b/c", p.Key())
	assert.Equal(t, "a/b/c", p.String())

	parent := p.Parent()
	assert.Equal(t, KindContainer, parent.Kind)
	assert.Equal(t, "a/b/", parent.String())
	assert.Equal(t, "a/", parent.Parent().String())
	assert.True(t, parent.Parent().Parent().IsRoot())
	assert.True(t, Root().Parent().IsRoot())

	child := parent.Child("d", KindContainer)
	assert.Equal(t, "a/b/d/", child.String())
	assert.Equal(t, "a/b/c", p.String(), "Child must not alias the parent's segments")
}

func TestPath_KeySharedAcrossKinds(t *testing.T) {
	assert.Equal(t, MustParsePath("foo").Key(), MustParsePath("foo/").Key())
	assert.Equal(t, "/", Root().String())
	assert.Equal(t, "", Root().Key())
}

func TestKind_Strings(t *testing.T) {
	assert.Equal(t, "secret", KindSecret.String())
	assert.Equal(t, "container", KindContainer.String())

	k, err := KindString("Container")
	require.NoError(t, err)
	assert.Equal(t, KindContainer, k)

	_, err = KindString("folder")
	assert.Error(t, err)
}

func TestEntry(t *testing.T) {
	value := []byte("bar")
	secret := NewSecret(MustParsePath("foo"), value)
	value[0] = 'x'
	assert.Equal(t, []byte("bar"), secret.Value, "NewSecret must copy the value")
	assert.Equal(t, KindSecret, secret.Kind())

	cont := NewContainer(MustParsePath("cont/"))
	assert.True(t, cont.IsEmpty())
	cont.Children["b"] = struct{}{}
	cont.Children["a"] = struct{}{}
	assert.False(t, cont.IsEmpty())
	assert.Equal(t, []string{"a", "b"}, cont.ChildNames())
}
