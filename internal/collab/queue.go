package collab

import "sync"

// SignalQueue is a thread-safe FIFO of emitted signals.
//
// The engine enqueues on its own goroutine; a combat or puzzle subsystem
// may drain from another. The queue is unbounded so emitting never blocks
// a choice resolution.
type SignalQueue struct {
	mu      sync.Mutex
	signals []Signal
	closed  bool
	notify  chan struct{} // buffered, size 1
}

// NewSignalQueue returns an empty queue.
func NewSignalQueue() *SignalQueue {
	return &SignalQueue{
		signals: make([]Signal, 0, 8),
		notify:  make(chan struct{}, 1),
	}
}

// Emit implements Signals. Signals emitted after Close are dropped.
func (q *SignalQueue) Emit(s Signal) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.signals = append(q.signals, s)

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// TryNext pops the oldest signal without blocking.
func (q *SignalQueue) TryNext() (Signal, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.signals) == 0 {
		return Signal{}, false
	}
	s := q.signals[0]
	q.signals[0] = Signal{}
	if len(q.signals) == 1 {
		q.signals = q.signals[:0]
	} else {
		q.signals = q.signals[1:]
	}
	return s, true
}

// Drain pops every pending signal in order.
func (q *SignalQueue) Drain() []Signal {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Signal, len(q.signals))
	copy(out, q.signals)
	q.signals = q.signals[:0]
	return out
}

// Wait returns a channel that fires when signals may be available.
// Use with select and TryNext for context-aware consumers.
func (q *SignalQueue) Wait() <-chan struct{} {
	return q.notify
}

// Len returns the number of pending signals.
func (q *SignalQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.signals)
}

// Close stops accepting signals and wakes waiters.
func (q *SignalQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.notify)
}
