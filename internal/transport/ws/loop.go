package ws

import (
	"context"
	"errors"

	"github.com/tiltlab/arlabyrinth/internal/dispatcher"
)

// ErrLoopStopped is returned for events submitted after the loop exited.
var ErrLoopStopped = errors.New("main loop stopped")

// DispatchFunc runs one event. It is only ever called from the loop goroutine.
type DispatchFunc func(dispatcher.Event) (any, error)

type job struct {
	event dispatcher.Event
	fn    func()
	reply chan result
}

type result struct {
	value any
	err   error
}

// Loop serializes every dispatch onto one goroutine. Game components are
// not safe for concurrent use, so all connections go through it.
type Loop struct {
	dispatch DispatchFunc
	inbox    chan job
	done     chan struct{}
}

// NewLoop creates a loop with the given inbox size.
func NewLoop(dispatch DispatchFunc, queue int) *Loop {
	if queue <= 0 {
		queue = 64
	}
	return &Loop{
		dispatch: dispatch,
		inbox:    make(chan job, queue),
		done:     make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-l.inbox:
			if j.fn != nil {
				j.fn()
				j.reply <- result{}
				continue
			}
			v, err := l.dispatch(j.event)
			j.reply <- result{value: v, err: err}
		}
	}
}

// Do submits e and waits for its result.
func (l *Loop) Do(ctx context.Context, e dispatcher.Event) (any, error) {
	return l.submit(ctx, job{event: e, reply: make(chan result, 1)})
}

// Exec runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Exec(ctx context.Context, fn func()) error {
	_, err := l.submit(ctx, job{fn: fn, reply: make(chan result, 1)})
	return err
}

func (l *Loop) submit(ctx context.Context, j job) (any, error) {
	select {
	case l.inbox <- j:
	case <-l.done:
		return nil, ErrLoopStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-j.reply:
		return r.value, r.err
	case <-l.done:
		return nil, ErrLoopStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
