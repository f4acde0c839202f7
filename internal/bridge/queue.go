package bridge

import "sync"

// Queue is a Sink that hands commands to deliver on its own goroutine, in
// order, without ever blocking the publisher.
type Queue struct {
	deliver func(Command)

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Command
	closed  bool
	done    chan struct{}
}

// NewQueue starts a Queue calling deliver for every published command
func NewQueue(deliver func(Command)) *Queue {
	q := &Queue{
		deliver: deliver,
		done:    make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Publish enqueues cmd. Commands published after Close are dropped.
func (q *Queue) Publish(cmd Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = append(q.pending, cmd)
	q.cond.Signal()
}

// Close stops the queue after the already queued commands are delivered
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, cmd := range batch {
			q.deliver(cmd)
		}
	}
}
