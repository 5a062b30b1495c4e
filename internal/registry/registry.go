// Package registry implements the process-wide, fixed-capacity table of
// tags: key uniqueness, creator permissions, descriptor allocation, and
// the use-count gate that serializes destruction against concurrent
// readers and writers.
package registry

import (
	"errors"
	"sync"

	"github.com/ehrlich-b/tagbus/internal/constants"
	"github.com/ehrlich-b/tagbus/internal/level"
)

// AnyUID is the owner sentinel that disables the permission check entirely.
const AnyUID int32 = -1

// permissionDenied gates an operation on owner against caller uid. The
// check is symmetric in the sentinel: a tag owned by "any" admits every
// caller, and a caller presenting "any" (the facade's internal acquire
// path for Send/Receive/Ctl, which carry no per-call uid in the external
// interface) is never denied either. Only two concrete, differing uids
// produce Permission.
func permissionDenied(owner, caller int32) bool {
	return owner != AnyUID && caller != AnyUID && owner != caller
}

var (
	ErrKeyExists  = errors.New("registry: key already exists")
	ErrCapacity   = errors.New("registry: no free descriptor")
	ErrNotFound   = errors.New("registry: descriptor not found")
	ErrPermission = errors.New("registry: permission denied")
	ErrPrivateTag = errors.New("registry: tag is private")
	ErrRemoving   = errors.New("registry: tag is being removed")
	ErrBusy       = errors.New("registry: tag busy")
)

// Tag is one live rendezvous namespace. A Tag is owned exclusively by the
// Registry slot that holds it; callers only ever see it through Acquire,
// which bumps UseCount for the duration of a borrowed operation.
type Tag struct {
	Desc     int32
	Key      int32
	Private  bool
	OwnerUID int32
	Levels   *level.Table

	// UseCount and Removing are mutated only while the Registry's lock is
	// held; see Registry.Acquire/Release/BeginRemove/FinalizeRemove.
	UseCount int64
	Removing bool
}

// Registry is the fixed-capacity descriptor table described in spec §4.1.
// A single mutex serializes every structural mutation and every use-count
// change; readers take the same lock for the (short) duration of a lookup.
type Registry struct {
	mu        sync.Mutex
	slots     []*Tag
	nextHint  int
	maxLevels int
}

// New returns an empty registry sized for constants.MaxTags descriptors,
// each with a level table capped at constants.MaxLevels.
func New() *Registry {
	return NewWithCapacity(constants.MaxTags, constants.MaxLevels)
}

// NewWithCapacity returns an empty registry with the given descriptor and
// per-tag level capacity, for tests and Config-driven Controller tuning.
func NewWithCapacity(maxTags, maxLevels int) *Registry {
	return &Registry{slots: make([]*Tag, maxTags), maxLevels: maxLevels}
}

// Insert creates a new tag under the write lock, scanning for an existing
// non-private tag with the same key, then allocating the first empty slot
// at or after the rotating search hint.
func (r *Registry) Insert(key int32, private bool, ownerUID int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !private {
		for _, t := range r.slots {
			if t != nil && !t.Private && t.Key == key {
				return -1, ErrKeyExists
			}
		}
	}

	n := len(r.slots)
	idx := -1
	for i := 0; i < n; i++ {
		c := (r.nextHint + i) % n
		if r.slots[c] == nil {
			idx = c
			break
		}
	}
	if idx == -1 {
		return -1, ErrCapacity
	}

	r.slots[idx] = &Tag{
		Desc:     int32(idx),
		Key:      key,
		Private:  private,
		OwnerUID: ownerUID,
		Levels:   level.NewTableWithCapacity(r.maxLevels),
	}
	r.nextHint = (idx + 1) % n
	return int32(idx), nil
}

// LookupByKey finds a non-private tag by key, applying the permission gate
// against the requester's uid. Private tags are never matched: spec §6
// guarantees a tag created with the private sentinel is unreachable by key.
func (r *Registry) LookupByKey(key int32, uid int32) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.slots {
		if t == nil || t.Key != key {
			continue
		}
		if t.Private {
			return -1, ErrPrivateTag
		}
		if permissionDenied(t.OwnerUID, uid) {
			return -1, ErrPermission
		}
		return t.Desc, nil
	}
	return -1, ErrNotFound
}

// Acquire borrows the tag at desc for the duration of one facade operation.
// Every successful Acquire must be paired with exactly one Release.
func (r *Registry) Acquire(desc int32, uid int32) (*Tag, error) {
	if desc < 0 || int(desc) >= len(r.slots) {
		return nil, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.slots[desc]
	if t == nil {
		return nil, ErrNotFound
	}
	if t.Removing {
		return nil, ErrRemoving
	}
	if permissionDenied(t.OwnerUID, uid) {
		return nil, ErrPermission
	}
	t.UseCount++
	return t, nil
}

// Release returns a borrowed tag handle obtained from Acquire.
func (r *Registry) Release(t *Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.UseCount--
}

// BeginRemove marks a tag for removal without blocking: it fails with
// ErrBusy immediately if any other reader currently holds it.
func (r *Registry) BeginRemove(desc int32, uid int32) (*Tag, error) {
	if desc < 0 || int(desc) >= len(r.slots) {
		return nil, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.slots[desc]
	if t == nil {
		return nil, ErrNotFound
	}
	if t.Removing {
		return nil, ErrRemoving
	}
	if permissionDenied(t.OwnerUID, uid) {
		return nil, ErrPermission
	}
	if t.UseCount > 0 {
		return nil, ErrBusy
	}
	t.Removing = true
	t.UseCount = 1 // the removing operation counts as the sole reader
	return t, nil
}

// AbortRemove undoes a BeginRemove whose subsequent level-table cleanup
// failed (live waiters), restoring the tag to normal service.
func (r *Registry) AbortRemove(t *Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.Removing = false
	t.UseCount = 0
}

// FinalizeRemove detaches the slot under the write lock. The caller is
// responsible for discarding the tag's level table after this returns.
func (r *Registry) FinalizeRemove(t *Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[t.Desc] = nil
	r.nextHint = int(t.Desc)
}

// Snapshot returns every live tag for read-only inspection (status export,
// shutdown). Callers must not mutate the returned tags' Removing/UseCount
// fields directly.
func (r *Registry) Snapshot() []*Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Tag, 0, len(r.slots))
	for _, t := range r.slots {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// DrainForShutdown marks every live tag as removing and detaches it from
// the registry in one pass, returning the tags for the caller to tear down
// (wake receivers, clean up levels) outside the lock. No permission check.
func (r *Registry) DrainForShutdown() []*Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Tag
	for i, t := range r.slots {
		if t == nil {
			continue
		}
		t.Removing = true
		r.slots[i] = nil
		out = append(out, t)
	}
	r.nextHint = 0
	return out
}
