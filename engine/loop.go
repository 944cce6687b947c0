package engine

import (
	"context"
	"sync"
)

// Task is a unit of deferred work run by a [Loop].
type Task func(ctx context.Context)

// Loop serializes deferred work onto the goroutine that owns an [Engine].
//
// Post may be called from any goroutine. Drain and Run execute tasks on the
// calling goroutine, in the order they were posted.
type Loop struct {
	mu    sync.Mutex
	queue []Task
	wake  chan struct{}
}

// NewLoop returns an empty loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues t.
func (l *Loop) Post(t Task) {
	l.mu.Lock()
	l.queue = append(l.queue, t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.queue)
}

// Drain runs queued tasks, including any they post, until the queue is
// empty or ctx is done. It returns the number of tasks run.
func (l *Loop) Drain(ctx context.Context) int {
	n := 0

	for ctx.Err() == nil {
		t, ok := l.pop()
		if !ok {
			break
		}

		t(ctx)
		n++
	}

	return n
}

// Run drains the queue whenever work is posted until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain(ctx)

		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-l.wake:
		}
	}
}

// Wait blocks until a task is posted or ctx is done.
func (l *Loop) Wait(ctx context.Context) error {
	if l.Len() > 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-l.wake:
		return nil
	}
}

func (l *Loop) pop() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}

	t := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]

	return t, true
}
