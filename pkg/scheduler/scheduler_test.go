package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestAddDaily_RejectsBadTime(t *testing.T) {
	s := New(logger.Nop())
	require.Error(t, s.AddDaily("digest", "25:99", func(context.Context) {}))
	require.Error(t, s.AddDaily("digest", "morning", func(context.Context) {}))
	require.NoError(t, s.AddDaily("digest", "09:00", func(context.Context) {}))
}

func TestAddEvery_RejectsBadInterval(t *testing.T) {
	s := New(logger.Nop())
	require.Error(t, s.AddEvery("sync", "soon", func(context.Context) {}))
	require.NoError(t, s.AddEvery("sync", "1d", func(context.Context) {}))
}

func TestAddEvery_RunsAndStops(t *testing.T) {
	var runs atomic.Int32

	s := New(logger.Nop())
	require.NoError(t, s.AddEvery("tick", "10ms", func(context.Context) {
		runs.Add(1)
	}))

	s.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	s.Stop()

	got := runs.Load()
	require.Greater(t, got, int32(1))

	// No further runs after Stop.
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, got, runs.Load())
}

func TestUntilNext(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)

	require.Equal(t, 30*time.Minute, untilNext(now, 9, 0))
	// Already past today: schedules tomorrow.
	require.Equal(t, 23*time.Hour+30*time.Minute, untilNext(now, 8, 0))
}
