package pipeline

import (
	"errors"
	"time"

	"github.com/HasinZaman/pipelined-server/pkg/queue"
)

// enqueueLockRetries bounds how many times tryEnqueue retries a push that
// only failed because the queue's lock was momentarily contended. Lock
// contention is not backpressure and must not cost an item the way a full
// queue does.
const enqueueLockRetries = 3

// idleBackoff is the pause taken between empty polls of a stage's input
// queue. The component design notes that busy-polling with try_lock burns
// CPU when idle and that a blocking queue is strictly better without
// changing the contract; this backoff is the cheapest mitigation that
// preserves the polling model described in the concurrency section.
const idleBackoff = time.Millisecond

// pollLoop repeatedly pops items from input, invoking handle for each one,
// forever. It is the shared shape behind every stage worker.
func pollLoop(input *queue.Queue, handle func(item any)) {
	for {
		item, ok := input.TryPopFront()
		if !ok {
			time.Sleep(idleBackoff)
			continue
		}
		handle(item)
	}
}

// tryEnqueue pushes an item onto a downstream queue, dropping the item only
// when the queue is genuinely full. A lock-contended push is retried a
// handful of times first: ErrLocked reflects a transient race for the
// queue's mutex, not backpressure, and dropping on it would lose an item
// even though the queue had room.
func tryEnqueue(q *queue.Queue, item any, onDrop func()) {
	var err error
	for attempt := 0; attempt <= enqueueLockRetries; attempt++ {
		err = q.TryPushBack(item)
		if err == nil || !errors.Is(err, queue.ErrLocked) {
			break
		}
	}
	if err != nil && onDrop != nil {
		onDrop()
	}
}
