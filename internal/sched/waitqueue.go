package sched

// WaitQueue is an ordered sequence of threads supporting enqueue-at-head
// and dequeue-from-tail, giving FIFO wakeup order (spec.md section 3). The
// global run queue is one distinguished WaitQueue.
//
// A WaitQueue carries no lock of its own: every mutation happens inside
// the owning Scheduler's critical section, mirroring the spec's IPL
// discipline ("any operation that reads or mutates the run queue MUST
// execute at IPL HIGH", generalized here to every wait queue since
// interrupt handlers may wake threads on any of them).
type WaitQueue struct {
	head, tail *Thread
	size       int
}

// NewWaitQueue returns an empty, initialized wait queue (spec.md's
// queue_init).
func NewWaitQueue() *WaitQueue {
	return &WaitQueue{}
}

// Len returns the number of threads currently linked on the queue. Callers
// outside the owning scheduler's critical section should treat this as a
// snapshot, the same way a real kernel's queue size is only meaningful at
// IPL HIGH.
func (q *WaitQueue) Len() int { return q.size }

// Empty reports whether the queue currently holds no threads.
func (q *WaitQueue) Empty() bool { return q.size == 0 }

func (q *WaitQueue) enqueueHead(t *Thread) {
	t.waitChannel = q
	t.prev = nil
	t.next = q.head
	if q.head != nil {
		q.head.prev = t
	}
	q.head = t
	if q.tail == nil {
		q.tail = t
	}
	q.size++
}

func (q *WaitQueue) dequeueTail() *Thread {
	t := q.tail
	if t == nil {
		return nil
	}
	q.remove(t)
	return t
}

// remove splices t out of the queue, wherever it currently sits. Used by
// dequeueTail (t == q.tail) and by cancel, which must yank a thread out of
// the middle of a cancellable sleep.
func (q *WaitQueue) remove(t *Thread) {
	if t.prev != nil {
		t.prev.next = t.next
	} else {
		q.head = t.next
	}
	if t.next != nil {
		t.next.prev = t.prev
	} else {
		q.tail = t.prev
	}
	t.prev, t.next = nil, nil
	t.waitChannel = nil
	q.size--
}
