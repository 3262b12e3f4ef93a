package memory

import (
	"fmt"
	"sync/atomic"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/model"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

// Quota enforces store.Limits. Limits can be replaced while requests are
// being served; every check sees one consistent set.
type Quota struct {
	limits atomic.Pointer[store.Limits]
}

// NewQuota creates a Quota enforcing l.
func NewQuota(l store.Limits) *Quota {
	q := &Quota{}
	q.SetLimits(l)
	return q
}

// Limits returns the limits currently enforced.
func (q *Quota) Limits() store.Limits {
	return *q.limits.Load()
}

// SetLimits replaces the enforced limits.
func (q *Quota) SetLimits(l store.Limits) {
	q.limits.Store(&l)
}

// CheckPayload fails with store.ErrPayloadTooLarge when size exceeds the
// payload limit.
func (q *Quota) CheckPayload(p model.Path, size int) error {
	limit := q.Limits().MaxPayloadSize
	if int64(size) > limit {
		return fmt.Errorf("%w: %s holds %d bytes, limit is %d", store.ErrPayloadTooLarge, p, size, limit)
	}
	return nil
}

// CheckNesting fails with store.ErrNestingLimitExceeded when container p
// would sit deeper than the nesting limit.
func (q *Quota) CheckNesting(p model.Path) error {
	limit := q.Limits().MaxNestLevel
	if p.Level() > limit {
		return fmt.Errorf("%w: %s is at level %d, limit is %d", store.ErrNestingLimitExceeded, p, p.Level(), limit)
	}
	return nil
}

// CheckSecretCount fails with store.ErrQuotaExceeded when a namespace that
// already holds current secrets may not take another one.
func (q *Quota) CheckSecretCount(current int) error {
	limit := q.Limits().MaxSecrets
	if limit >= 0 && current >= limit {
		return fmt.Errorf("%w: namespace holds %d secrets, limit is %d", store.ErrQuotaExceeded, current, limit)
	}
	return nil
}
