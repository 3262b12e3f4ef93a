package memory

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/model"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

var p = model.MustParsePath

func newTestNamespace(t *testing.T, limits store.Limits) *Namespace {
	t.Helper()
	ns, err := NewNamespace(NewQuota(limits), nil)
	require.NoError(t, err)
	return ns
}

func testLimits() store.Limits {
	return store.Limits{MaxSecrets: 10, MaxPayloadSize: 2 * 1024, MaxNestLevel: 4}
}

// fakePersister records saved snapshots and fails on demand.
type fakePersister struct {
	mu      sync.Mutex
	records []store.Record
	saves   int
	failErr error
}

func (f *fakePersister) Load() ([]store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, nil
}

func (f *fakePersister) Save(records []store.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.records = records
	f.saves++
	return nil
}

func TestNamespace_CRD(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	_, err := ns.List(model.Root())
	assert.ErrorIs(t, err, store.ErrNotFound, "listing an empty root is a 404")

	require.NoError(t, ns.Create(p("foo"), []byte("bar")))

	value, err := ns.Get(p("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), value)

	names, err := ns.List(model.Root())
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, names)

	err = ns.Create(p("foo"), []byte("baz"))
	assert.ErrorIs(t, err, store.ErrConflict)
	value, err = ns.Get(p("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), value, "a conflicting create must keep the first value")

	require.NoError(t, ns.Delete(p("foo")))
	_, err = ns.Get(p("foo"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, ns.Delete(p("foo")), store.ErrNotFound)
}

func TestNamespace_NeverCreated(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	for _, raw := range []string{"missing", "cont/missing", "a/b/c"} {
		_, err := ns.Get(p(raw))
		assert.ErrorIs(t, err, store.ErrNotFound, raw)
		assert.ErrorIs(t, ns.Delete(p(raw)), store.ErrNotFound, raw)
	}
	assert.ErrorIs(t, ns.Delete(p("cont/")), store.ErrNotFound)
	_, err := ns.List(p("cont/"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNamespace_GetReturnsCopy(t *testing.T) {
	ns := newTestNamespace(t, testLimits())
	require.NoError(t, ns.Create(p("foo"), []byte("bar")))

	value, err := ns.Get(p("foo"))
	require.NoError(t, err)
	value[0] = 'x'

	value, err = ns.Get(p("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), value)
}

func TestNamespace_SecretQuota(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	for i := 0; i < 10; i++ {
		require.NoError(t, ns.Create(p(fmt.Sprint(i)), []byte("value")))
	}

	err := ns.Create(p("10"), []byte("value"))
	assert.ErrorIs(t, err, store.ErrQuotaExceeded)
	assert.Equal(t, 10, ns.Usage().Secrets)

	// A conflict is reported before the quota.
	err = ns.Create(p("3"), []byte("value"))
	assert.ErrorIs(t, err, store.ErrConflict)

	require.NoError(t, ns.Delete(p("0")))
	require.NoError(t, ns.Create(p("10"), []byte("value")))
	assert.Equal(t, 10, ns.Usage().Secrets)
}

func TestNamespace_ContainersDoNotCountAgainstQuota(t *testing.T) {
	limits := testLimits()
	limits.MaxSecrets = 1
	ns := newTestNamespace(t, limits)

	require.NoError(t, ns.Create(p("only"), []byte("v")))
	require.NoError(t, ns.CreateContainer(p("a/")))
	require.NoError(t, ns.CreateContainer(p("b/")))
	assert.ErrorIs(t, ns.Create(p("a/x"), []byte("v")), store.ErrQuotaExceeded)
	assert.Equal(t, store.Usage{Secrets: 1, Containers: 2}, ns.Usage())
}

func TestNamespace_UnboundedSecrets(t *testing.T) {
	limits := testLimits()
	limits.MaxSecrets = -1
	ns := newTestNamespace(t, limits)

	for i := 0; i < 100; i++ {
		require.NoError(t, ns.Create(p(fmt.Sprint(i)), nil))
	}
	assert.Equal(t, 100, ns.Usage().Secrets)
}

func TestNamespace_ZeroSecretQuota(t *testing.T) {
	limits := testLimits()
	limits.MaxSecrets = 0
	ns := newTestNamespace(t, limits)

	assert.ErrorIs(t, ns.Create(p("foo"), nil), store.ErrQuotaExceeded)
}

func TestNamespace_PayloadSize(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	exact := []byte(strings.Repeat("x", 2*1024))
	require.NoError(t, ns.Create(p("foo"), exact))

	over := append(exact, 'x')
	assert.ErrorIs(t, ns.Create(p("bar"), over), store.ErrPayloadTooLarge)
	_, err := ns.Get(p("bar"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, ns.Create(p("empty"), []byte{}))
}

func TestNamespace_Containers(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	assert.ErrorIs(t, ns.CreateContainer(p("mycontainer")), store.ErrBadRequest)

	require.NoError(t, ns.CreateContainer(p("mycontainer/")))
	assert.ErrorIs(t, ns.CreateContainer(p("mycontainer/")), store.ErrConflict)

	_, err := ns.List(p("mycontainer/"))
	assert.ErrorIs(t, err, store.ErrNotFound, "an empty container lists like an absent one")

	require.NoError(t, ns.Create(p("mycontainer/foo"), []byte("containedfooval")))
	value, err := ns.Get(p("mycontainer/foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("containedfooval"), value)

	names, err := ns.List(p("mycontainer/"))
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, names)

	assert.ErrorIs(t, ns.Delete(p("mycontainer/")), store.ErrConflict)

	require.NoError(t, ns.Delete(p("mycontainer/foo")))
	require.NoError(t, ns.Delete(p("mycontainer/")))
	assert.ErrorIs(t, ns.Delete(p("mycontainer/")), store.ErrNotFound)
}

func TestNamespace_NestingLevel(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	container := "mycontainer"
	for x := 0; x < 4; x++ {
		container += fmt.Sprintf("%d/", x)
		require.NoError(t, ns.CreateContainer(p(container)), container)
	}

	container += "4/"
	assert.ErrorIs(t, ns.CreateContainer(p(container)), store.ErrNestingLimitExceeded)

	// Secrets may live in the deepest container.
	require.NoError(t, ns.Create(p("mycontainer0/1/2/3/leaf"), []byte("v")))
}

func TestNamespace_NoImplicitAncestors(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	assert.ErrorIs(t, ns.Create(p("cont/cfoo"), []byte("v")), store.ErrNotFound)
	assert.ErrorIs(t, ns.CreateContainer(p("a/b/")), store.ErrNotFound)

	require.NoError(t, ns.Create(p("leaf"), []byte("v")))
	assert.ErrorIs(t, ns.Create(p("leaf/child"), []byte("v")), store.ErrNotFound,
		"a secret cannot act as a parent")
	assert.Equal(t, store.Usage{Secrets: 1}, ns.Usage())
}

func TestNamespace_KindsShareNames(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	require.NoError(t, ns.Create(p("foo"), []byte("v")))
	assert.ErrorIs(t, ns.CreateContainer(p("foo/")), store.ErrConflict)

	require.NoError(t, ns.CreateContainer(p("bar/")))
	assert.ErrorIs(t, ns.Create(p("bar"), []byte("v")), store.ErrConflict)

	_, err := ns.Get(p("bar"))
	assert.ErrorIs(t, err, store.ErrNotFound, "a container is not a secret")
	_, err = ns.Get(p("bar/"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = ns.List(p("foo/"))
	assert.ErrorIs(t, err, store.ErrNotFound, "a secret is not a container")
	assert.ErrorIs(t, ns.Delete(p("foo/")), store.ErrNotFound)
	assert.ErrorIs(t, ns.Delete(p("bar")), store.ErrNotFound)
}

func TestNamespace_Root(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	assert.ErrorIs(t, ns.CreateContainer(model.Root()), store.ErrConflict)
	assert.ErrorIs(t, ns.Delete(model.Root()), store.ErrBadRequest)
	_, err := ns.List(p("foo"))
	assert.ErrorIs(t, err, store.ErrBadRequest)
}

func TestNamespace_CheckOrder(t *testing.T) {
	limits := testLimits()
	limits.MaxSecrets = 1
	limits.MaxPayloadSize = 4
	ns := newTestNamespace(t, limits)
	require.NoError(t, ns.Create(p("foo"), []byte("v")))

	// Payload size is structural and precedes the conflict check.
	assert.ErrorIs(t, ns.Create(p("foo"), []byte("too large")), store.ErrPayloadTooLarge)
	// A missing parent precedes the quota.
	assert.ErrorIs(t, ns.Create(p("none/bar"), []byte("v")), store.ErrNotFound)
	// Nesting is checked before the parent exists.
	assert.ErrorIs(t, ns.CreateContainer(p("a/b/c/d/e/")), store.ErrNestingLimitExceeded)
}

func TestNamespace_PersistFailureLeavesNoTrace(t *testing.T) {
	persister := &fakePersister{}
	ns, err := NewNamespace(NewQuota(testLimits()), persister)
	require.NoError(t, err)

	require.NoError(t, ns.Create(p("keep"), []byte("v")))
	require.NoError(t, ns.CreateContainer(p("cont/")))

	diskFull := errors.New("no space left on device")
	persister.failErr = diskFull

	err = ns.Create(p("lost"), []byte("v"))
	assert.ErrorIs(t, err, diskFull)
	assert.NotErrorIs(t, err, store.ErrConflict)
	_, err = ns.Get(p("lost"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, ns.Delete(p("keep")), diskFull)
	_, err = ns.Get(p("keep"))
	assert.NoError(t, err)

	assert.ErrorIs(t, ns.CreateContainer(p("other/")), diskFull)
	assert.Equal(t, store.Usage{Secrets: 1, Containers: 1}, ns.Usage())
}

func TestNamespace_PersistsEveryMutation(t *testing.T) {
	persister := &fakePersister{}
	ns, err := NewNamespace(NewQuota(testLimits()), persister)
	require.NoError(t, err)

	require.NoError(t, ns.CreateContainer(p("cont/")))
	require.NoError(t, ns.Create(p("cont/foo"), []byte("bar")))
	require.NoError(t, ns.Create(p("top"), []byte("v")))
	require.NoError(t, ns.Delete(p("top")))
	assert.Equal(t, 4, persister.saves)

	// Failed requests are not persisted.
	assert.Error(t, ns.Create(p("cont/foo"), []byte("again")))
	assert.Equal(t, 4, persister.saves)

	require.Len(t, persister.records, 2)
	assert.Equal(t, "cont/", persister.records[0].Path.String())
	assert.Equal(t, "cont/foo", persister.records[1].Path.String())
	assert.Equal(t, []byte("bar"), persister.records[1].Value)
}

func TestNamespace_Restore(t *testing.T) {
	persister := &fakePersister{records: []store.Record{
		{Path: p("a/b/c"), Value: []byte("deep")},
		{Path: p("a/b/")},
		{Path: p("a/")},
		{Path: p("top"), Value: []byte("v")},
	}}
	ns, err := NewNamespace(NewQuota(testLimits()), persister)
	require.NoError(t, err)

	value, err := ns.Get(p("a/b/c"))
	require.NoError(t, err)
	assert.Equal(t, []byte("deep"), value)

	names, err := ns.List(model.Root())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "top"}, names)
	assert.Equal(t, store.Usage{Secrets: 2, Containers: 2}, ns.Usage())
}

func TestNamespace_RestoreRejectsOrphans(t *testing.T) {
	persister := &fakePersister{records: []store.Record{
		{Path: p("missing/child"), Value: []byte("v")},
	}}
	_, err := NewNamespace(NewQuota(testLimits()), persister)
	assert.ErrorIs(t, err, store.ErrNotFound)

	persister = &fakePersister{records: []store.Record{
		{Path: p("dup"), Value: []byte("v")},
		{Path: p("dup/")},
	}}
	_, err = NewNamespace(NewQuota(testLimits()), persister)
	assert.Error(t, err)
}

func TestNamespace_ConcurrentDistinctKeys(t *testing.T) {
	limits := testLimits()
	limits.MaxSecrets = -1
	ns, err := NewNamespace(NewQuota(limits), &fakePersister{})
	require.NoError(t, err)
	require.NoError(t, ns.CreateContainer(p("parallel/")))

	const n = 64
	var wg sync.WaitGroup
	errs := make(chan error, 3*n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := p(fmt.Sprintf("parallel/key%d", i))
			want := fmt.Sprintf("value%d", i)
			if err := ns.Create(key, []byte(want)); err != nil {
				errs <- err
				return
			}
			got, err := ns.Get(key)
			if err != nil {
				errs <- err
				return
			}
			if string(got) != want {
				errs <- fmt.Errorf("%s: got %q, want %q", key, got, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	names, err := ns.List(p("parallel/"))
	require.NoError(t, err)
	assert.Len(t, names, n)
	assert.Equal(t, n, ns.Usage().Secrets)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, ns.Delete(p(fmt.Sprintf("parallel/key%d", i))))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, ns.Usage().Secrets)
	_, err = ns.List(p("parallel/"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNamespace_ConcurrentSameKey(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := ns.Create(p("contended"), []byte(fmt.Sprint(i)))
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, store.ErrConflict)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, ns.Usage().Secrets)
}

func TestNamespace_ConcurrentQuota(t *testing.T) {
	ns := newTestNamespace(t, testLimits())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = ns.Create(p(fmt.Sprint(i)), []byte("v"))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, ns.Usage().Secrets, "concurrent creates must never overshoot the quota")
}
