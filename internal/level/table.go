// Package level implements the per-tag level table: the rendezvous points
// producers publish to and consumers block on. A level is identified by a
// number in [0, MaxLevels) and holds at most one pending message at a
// time; publishing replaces the whole level record with a fresh empty
// successor rather than resetting it in place, so a receiver that has
// already observed "empty" can never be handed a recycled slot out from
// under it. Go's garbage collector, not a hazard-pointer or epoch scheme,
// is what makes that replacement memory-safe here; the replace protocol
// itself still matters independent of memory safety, because it is what
// gives the non-buffering handshake its exactly-once wake semantics (see
// Publish and WakeAll).
package level

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ehrlich-b/tagbus/internal/constants"
)

var (
	// ErrNotFound is returned by Publish when the level has not been
	// created yet (no receiver has ever blocked on it).
	ErrNotFound = errors.New("level: not found")
	// ErrBusy is returned by Publish when a concurrent publisher won the
	// publish race, and by Cleanup(force=false) when waiters remain.
	ErrBusy = errors.New("level: busy")
	// ErrCapacity is returned by FindOrInsert once a tag's level table is full.
	ErrCapacity = errors.New("level: table full")
)

// Message is an immutable copy of published bytes, or the distinguished
// cancellation token WakeAll publishes to every level.
type Message struct {
	Data      []byte
	Cancelled bool
}

// Level is a single rendezvous point for one level number within one tag.
type Level struct {
	number  int32
	message atomic.Pointer[Message]
	waiters atomic.Int64
	mu      sync.Mutex
	cond    *sync.Cond
}

func newLevel(number int32) *Level {
	l := &Level{number: number}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Number returns the level's number.
func (l *Level) Number() int32 { return l.number }

// Waiters returns the current count of blocked receivers.
func (l *Level) Waiters() int64 { return l.waiters.Load() }

// Wait implements the receiver protocol from spec §4.3: increment waiters,
// block until a message is published or ctx is cancelled, decrement
// waiters, and return a copy truncated to at most len(buf) bytes copied
// into buf. The boolean return reports whether the wake was an
// awake-all cancellation token rather than a real message.
func (l *Level) Wait(ctx context.Context, buf []byte) (n int, cancelled bool, err error) {
	l.waiters.Add(1)
	defer l.waiters.Add(-1)

	// A goroutine bridges ctx cancellation into the sync.Cond predicate:
	// sync.Cond has no native context support, so cancellation broadcasts
	// the same condition variable a publish would.
	stop := make(chan struct{})
	defer close(stop)
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				l.mu.Lock()
				l.cond.Broadcast()
				l.mu.Unlock()
			case <-stop:
			}
		}()
	}

	l.mu.Lock()
	for l.message.Load() == nil {
		if ctx != nil && ctx.Err() != nil {
			l.mu.Unlock()
			return 0, false, ctx.Err()
		}
		l.cond.Wait()
	}
	l.mu.Unlock()

	msg := l.message.Load()
	if msg.Cancelled {
		return 0, true, nil
	}
	n = copy(buf, msg.Data)
	return n, false, nil
}

// Table is the set of live level records for one tag.
type Table struct {
	mu        sync.RWMutex
	slots     []*Level
	maxLevels int
}

// NewTable returns an empty level table capped at constants.MaxLevels.
func NewTable() *Table {
	return NewTableWithCapacity(constants.MaxLevels)
}

// NewTableWithCapacity returns an empty level table capped at maxLevels,
// for tests and Config-driven Controller tuning.
func NewTableWithCapacity(maxLevels int) *Table {
	return &Table{maxLevels: maxLevels}
}

func (t *Table) find(n int32) *Level {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.slots {
		if s.number == n {
			return s
		}
	}
	return nil
}

// Find returns the level slot for n without creating it.
func (t *Table) Find(n int32) (*Level, bool) {
	s := t.find(n)
	return s, s != nil
}

// FindOrInsert returns the level for n, inserting a fresh empty one under
// the write lock if absent. The check-then-insert is atomic with respect
// to the write lock, so no separate duplicate guard is required: this is
// the only insertion path, and every caller reaches it only after holding
// its tag's use-count (spec §4.4).
func (t *Table) FindOrInsert(n int32) (*Level, error) {
	if s := t.find(n); s != nil {
		return s, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.slots {
		if s.number == n {
			return s, nil
		}
	}
	if len(t.slots) >= t.maxLevels {
		return nil, ErrCapacity
	}
	s := newLevel(n)
	t.slots = append(t.slots, s)
	return s, nil
}

// replace swaps the slot holding `old` for a fresh empty successor with the
// same level number. A no-op if `old` was already replaced or removed.
func (t *Table) replace(old *Level) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.slots {
		if s == old {
			t.slots[i] = newLevel(old.number)
			return
		}
	}
}

// Publish implements spec §4.2: locate the level, CAS its message from
// empty to data, wake every waiter, then replace the level with a fresh
// empty successor. A lost CAS race returns ErrBusy and the caller's
// payload is discarded, never queued.
func (t *Table) Publish(n int32, data []byte) error {
	s := t.find(n)
	if s == nil {
		return ErrNotFound
	}
	if !s.message.CompareAndSwap(nil, &Message{Data: data}) {
		return ErrBusy
	}
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
	t.replace(s)
	return nil
}

// WakeAll publishes the distinguished cancellation token to every live
// level, waking every blocked receiver with a cancelled-by-awake outcome.
// A level a concurrent Send has already won is left untouched: that
// receiver observes the real message, not the token (spec §9, "awake-all
// vs. a racing send").
func (t *Table) WakeAll() {
	t.mu.RLock()
	snapshot := append([]*Level(nil), t.slots...)
	t.mu.RUnlock()

	token := &Message{Cancelled: true}
	for _, s := range snapshot {
		if !s.message.CompareAndSwap(nil, token) {
			continue
		}
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
		t.replace(s)
	}
}

// Cleanup detaches every level. With force=false it refuses (ErrBusy) if
// any level still has blocked waiters; this is what makes REMOVE strict.
func (t *Table) Cleanup(force bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !force {
		for _, s := range t.slots {
			if s.waiters.Load() > 0 {
				return ErrBusy
			}
		}
	}
	t.slots = nil
	return nil
}

// Info is a point-in-time (number, waiters) pair for status export.
type Info struct {
	Number  int32
	Waiters int64
}

// Snapshot lists every live level's number and waiter count.
func (t *Table) Snapshot() []Info {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Info, 0, len(t.slots))
	for _, s := range t.slots {
		out = append(out, Info{Number: s.number, Waiters: s.waiters.Load()})
	}
	return out
}
