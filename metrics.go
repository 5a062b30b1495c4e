package tagbus

import (
	"sync/atomic"
)

// Metrics is an interfaces.Observer implementation: atomic counters for
// sends, receives, and per-tag lifecycle events. A Controller reports to
// it only once it is installed with SetObserver; a new Controller starts
// with a no-op observer.
type Metrics struct {
	SendsOK      atomic.Uint64
	SendsFailed  atomic.Uint64
	SendBytes    atomic.Uint64
	ReceivesOK   atomic.Uint64
	ReceivesInterrupted atomic.Uint64
	ReceivesCancelled   atomic.Uint64
	ReceiveBytes atomic.Uint64

	TagsCreated atomic.Uint64
	TagsRemoved atomic.Uint64

	MaxWaitersObserved atomic.Int64
}

// NewMetrics returns a zero-valued Metrics ready for use as an Observer.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveSend implements interfaces.Observer.
func (m *Metrics) ObserveSend(tagDesc int32, level int32, bytes int, success bool) {
	if success {
		m.SendsOK.Add(1)
		m.SendBytes.Add(uint64(bytes))
	} else {
		m.SendsFailed.Add(1)
	}
}

// ObserveReceive implements interfaces.Observer. outcome is one of
// "ok", "interrupted", "cancelled".
func (m *Metrics) ObserveReceive(tagDesc int32, level int32, bytes int, outcome string) {
	switch outcome {
	case "ok":
		m.ReceivesOK.Add(1)
		m.ReceiveBytes.Add(uint64(bytes))
	case "cancelled":
		m.ReceivesCancelled.Add(1)
	default:
		m.ReceivesInterrupted.Add(1)
	}
}

// ObserveWaiters implements interfaces.Observer, tracking the high-water
// mark of waiters seen on any single level.
func (m *Metrics) ObserveWaiters(tagDesc int32, level int32, waiters int64) {
	for {
		cur := m.MaxWaitersObserved.Load()
		if waiters <= cur {
			return
		}
		if m.MaxWaitersObserved.CompareAndSwap(cur, waiters) {
			return
		}
	}
}

// ObserveTagCreated implements interfaces.Observer.
func (m *Metrics) ObserveTagCreated(tagDesc int32) {
	m.TagsCreated.Add(1)
}

// ObserveTagRemoved implements interfaces.Observer.
func (m *Metrics) ObserveTagRemoved(tagDesc int32) {
	m.TagsRemoved.Add(1)
}

// MetricsSnapshot is a point-in-time read of Metrics' counters.
type MetricsSnapshot struct {
	SendsOK             uint64
	SendsFailed         uint64
	SendBytes           uint64
	ReceivesOK          uint64
	ReceivesInterrupted uint64
	ReceivesCancelled   uint64
	ReceiveBytes        uint64
	TagsCreated         uint64
	TagsRemoved         uint64
	MaxWaitersObserved  int64
}

// Snapshot reads every counter into a MetricsSnapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		SendsOK:             m.SendsOK.Load(),
		SendsFailed:         m.SendsFailed.Load(),
		SendBytes:           m.SendBytes.Load(),
		ReceivesOK:          m.ReceivesOK.Load(),
		ReceivesInterrupted: m.ReceivesInterrupted.Load(),
		ReceivesCancelled:   m.ReceivesCancelled.Load(),
		ReceiveBytes:        m.ReceiveBytes.Load(),
		TagsCreated:         m.TagsCreated.Load(),
		TagsRemoved:         m.TagsRemoved.Load(),
		MaxWaitersObserved:  m.MaxWaitersObserved.Load(),
	}
}
