package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopSelfTerminates(t *testing.T) {
	ticker := NewManualTicker()
	var frames atomic.Int32
	loop := NewLoop(ticker.Factory(), func() bool {
		return frames.Add(1) < 3
	})

	loop.Start()
	require.True(t, loop.Running())
	for i := 0; i < 3; i++ {
		require.True(t, ticker.Tick(), "tick %d", i)
	}
	assert.False(t, ticker.Tick(), "loop stopped after the frame returned false")
	assert.False(t, loop.Running())
	assert.Equal(t, int32(3), frames.Load())

	loop.Stop()
}

func TestLoopStopIsSynchronous(t *testing.T) {
	ticker := NewManualTicker()
	var frames atomic.Int32
	loop := NewLoop(ticker.Factory(), func() bool {
		frames.Add(1)
		return true
	})

	loop.Start()
	loop.Start()
	require.True(t, ticker.Tick())
	require.True(t, ticker.Tick())

	loop.Stop()
	loop.Stop()
	assert.False(t, loop.Running())
	seen := frames.Load()
	assert.False(t, ticker.Tick())
	assert.Equal(t, seen, frames.Load())

	loop.Start()
	require.True(t, ticker.Tick())
	require.True(t, ticker.Tick())
	loop.Stop()
	assert.Greater(t, frames.Load(), seen)
}

func TestEveryFrameTicks(t *testing.T) {
	done := make(chan struct{})
	var frames atomic.Int32
	loop := NewLoop(EveryFrame(200), func() bool {
		if frames.Add(1) == 2 {
			close(done)
			return false
		}
		return true
	})
	loop.Start()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop never ticked")
	}
	loop.Stop()
}

func TestDebouncerCoalesces(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })
	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncerCancel(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { calls.Add(1) })
	d.Trigger()
	d.Cancel()
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, calls.Load())

	assert.Equal(t, DefaultDebounce, NewDebouncer(0, func() {}).delay)
}
