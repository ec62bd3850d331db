package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kitpress-go/framework/internal/config"
)

func TestScheduler_Add(t *testing.T) {
	s := New(nil, nil)

	require.NoError(t, s.Add("cleanup", "0 */5 * * * *", func(context.Context) error { return nil }))
	require.ErrorIs(t, s.Add("broken", "not a spec", func(context.Context) error { return nil }), ErrInvalidJob)
	require.ErrorIs(t, s.Add("", "* * * * * *", func(context.Context) error { return nil }), ErrInvalidJob)
	require.ErrorIs(t, s.Add("nil", "* * * * * *", nil), ErrInvalidJob)

	require.NoError(t, s.Add("cleanup", "0 0 * * * *", func(context.Context) error { return nil }))

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	require.Equal(t, "cleanup", jobs[0].Name)
	require.Equal(t, "0 0 * * * *", jobs[0].Spec)
}

func TestScheduler_RunRecordsResults(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	boom := errors.New("boom")
	fail := false

	require.NoError(t, s.Add("report", "@daily", func(context.Context) error {
		if fail {
			return boom
		}
		return nil
	}))

	require.NoError(t, s.Run(ctx, "report"))
	fail = true
	require.ErrorIs(t, s.Run(ctx, "report"), boom)
	require.ErrorIs(t, s.Run(ctx, "missing"), ErrJobNotFound)

	info := s.Jobs()[0]
	require.EqualValues(t, 2, info.RunCount)
	require.EqualValues(t, 1, info.FailCount)
	require.ErrorIs(t, info.LastError, boom)
	require.False(t, info.LastRun.IsZero())
}

func TestScheduler_Remove(t *testing.T) {
	s := New(nil, nil)
	require.NoError(t, s.Add("a", "@hourly", func(context.Context) error { return nil }))

	require.NoError(t, s.Remove("a"))
	require.ErrorIs(t, s.Remove("a"), ErrJobNotFound)
	require.Empty(t, s.Jobs())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil, nil)
	var runs atomic.Int32
	require.NoError(t, s.Add("tick", "* * * * * *", func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	require.NoError(t, s.Start())
	require.True(t, s.Running())
	require.ErrorIs(t, s.Start(), ErrAlreadyRunning)

	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.False(t, s.Running())
	require.NoError(t, s.Stop(ctx))
}

func TestFromConfig(t *testing.T) {
	overrides := config.MapSource{"config/cron": {
		"timezone": "Europe/Berlin",
		"jobs": map[string]any{
			"digest": map[string]any{"schedule": "0 0 7 * * *", "hook": "mail.digest"},
		},
	}}
	store := config.New(config.WithOverrides(overrides))
	require.NoError(t, store.Load("cron"))

	var fired []string
	trigger := func(_ context.Context, event string, data any) error {
		fired = append(fired, event+":"+data.(string))
		return nil
	}

	s, err := FromConfig(store, trigger, nil)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), "digest"))
	require.Equal(t, []string{"mail.digest:digest"}, fired)
}

func TestFromConfig_Errors(t *testing.T) {
	tests := map[string]map[string]any{
		"bad timezone": {"timezone": "Mars/Olympus"},
		"missing hook": {"jobs": map[string]any{"x": map[string]any{"schedule": "@daily"}}},
		"bad spec":     {"jobs": map[string]any{"x": map[string]any{"schedule": "whenever", "hook": "h"}}},
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			store := config.New(config.WithOverrides(config.MapSource{"config/cron": doc}))
			require.NoError(t, store.Load("cron"))

			_, err := FromConfig(store, func(context.Context, string, any) error { return nil }, nil)
			require.Error(t, err)
		})
	}
}
