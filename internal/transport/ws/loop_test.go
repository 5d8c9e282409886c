package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiltlab/arlabyrinth/internal/dispatcher"
)

func TestLoop_SerializesDispatch(t *testing.T) {
	var (
		running int
		maxSeen int
		calls   int
	)
	loop := NewLoop(func(e dispatcher.Event) (any, error) {
		running++
		if running > maxSeen {
			maxSeen = running
		}
		calls++
		running--
		return e.Command, nil
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := loop.Do(ctx, dispatcher.Event{Command: ":X:"})
			assert.NoError(t, err)
			assert.Equal(t, ":X:", v)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, calls)
	assert.Equal(t, 1, maxSeen)
}

func TestLoop_ReturnsHandlerError(t *testing.T) {
	boom := errors.New("boom")
	loop := NewLoop(func(dispatcher.Event) (any, error) { return nil, boom }, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	_, err := loop.Do(ctx, dispatcher.Event{Command: ":X:"})
	assert.ErrorIs(t, err, boom)
}

func TestLoop_Stopped(t *testing.T) {
	loop := NewLoop(func(dispatcher.Event) (any, error) { return nil, nil }, 1)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	// fill the inbox so the send cannot succeed
	loop.inbox <- job{}
	_, err := loop.Do(context.Background(), dispatcher.Event{Command: ":X:"})
	require.ErrorIs(t, err, ErrLoopStopped)
}

func TestLoop_ContextCancelled(t *testing.T) {
	loop := NewLoop(func(dispatcher.Event) (any, error) { return nil, nil }, 1)
	loop.inbox <- job{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := loop.Do(ctx, dispatcher.Event{Command: ":X:"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoop_ExecSharesTheLoop(t *testing.T) {
	var order []string
	loop := NewLoop(func(e dispatcher.Event) (any, error) {
		order = append(order, e.Command)
		return nil, nil
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	_, err := loop.Do(ctx, dispatcher.Event{Command: ":A:"})
	require.NoError(t, err)
	require.NoError(t, loop.Exec(ctx, func() { order = append(order, "exec") }))
	_, err = loop.Do(ctx, dispatcher.Event{Command: ":B:"})
	require.NoError(t, err)

	assert.Equal(t, []string{":A:", "exec", ":B:"}, order)

	cancel()
	<-loop.done
	assert.ErrorIs(t, loop.Exec(context.Background(), func() {}), ErrLoopStopped)
}
