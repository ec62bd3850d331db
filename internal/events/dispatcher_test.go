package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_RunsHooksInRegistrationOrder(t *testing.T) {
	d := NewDispatcher()
	var calls []string

	d.Listen("app.init", func(ctx context.Context, event Event) error {
		calls = append(calls, "first")
		return nil
	})
	d.Listen("app.*", func(ctx context.Context, event Event) error {
		calls = append(calls, "wildcard")
		return nil
	})
	d.Listen("app.init", func(ctx context.Context, event Event) error {
		calls = append(calls, "second:"+event.Payload.(string))
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), "app.init", "payload"))
	require.Equal(t, []string{"first", "wildcard", "second:payload"}, calls)
}

func TestDispatcher_FirstErrorAborts(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("boom")
	called := false

	d.Listen("x", func(context.Context, Event) error { return boom })
	d.Listen("x", func(context.Context, Event) error {
		called = true
		return nil
	})

	err := d.Dispatch(context.Background(), "x", nil)
	require.ErrorIs(t, err, boom)
	require.EqualError(t, err, "hook x: boom")
	require.False(t, called)
}

func TestDispatcher_NoListeners(t *testing.T) {
	d := NewDispatcher()

	require.NoError(t, d.Dispatch(context.Background(), "nothing", nil))
	require.False(t, d.HasListeners("nothing"))
}

func TestDispatcher_WildcardMatching(t *testing.T) {
	d := NewDispatcher()
	count := 0
	d.Listen("user.*", func(context.Context, Event) error {
		count++
		return nil
	})

	for _, name := range []string{"user.created", "user.updated", "order.created"} {
		require.NoError(t, d.Dispatch(context.Background(), name, nil))
	}
	require.Equal(t, 2, count)
}

func TestDispatcher_Forget(t *testing.T) {
	d := NewDispatcher()
	noop := func(context.Context, Event) error { return nil }
	d.Listen("a", noop)
	d.Listen("b", noop)
	d.Listen("a", noop)

	require.Equal(t, []string{"a", "b"}, d.Events())

	d.Forget("a")
	require.False(t, d.HasListeners("a"))
	require.True(t, d.HasListeners("b"))
	require.Equal(t, []string{"b"}, d.Events())
}

func TestDispatcher_Concurrent(t *testing.T) {
	d := NewDispatcher()
	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Listen("tick", func(context.Context, Event) error {
				mu.Lock()
				total++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, d.Dispatch(context.Background(), "tick", nil))
	require.Equal(t, 16, total)
}
