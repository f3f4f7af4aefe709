// Package sched provides the display-synchronised frame loop used for live
// previews and the trailing-edge debouncer used for resize notifications.
package sched

import (
	"sync"
	"time"
)

// DefaultFPS is the preview refresh rate.
const DefaultFPS = 60

// Ticker delivers frame ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// EveryFrame returns a ticker factory for the given refresh rate.
func EveryFrame(fps int) func() Ticker {
	if fps <= 0 {
		fps = DefaultFPS
	}
	interval := time.Second / time.Duration(fps)
	return func() Ticker { return timeTicker{time.NewTicker(interval)} }
}

// Loop calls a frame function once per tick until the function returns false
// or Stop is called.
type Loop struct {
	newTicker func() Ticker
	frame     func() bool

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewLoop(newTicker func() Ticker, frame func() bool) *Loop {
	if newTicker == nil {
		newTicker = EveryFrame(DefaultFPS)
	}
	return &Loop{newTicker: newTicker, frame: frame}
}

// Start begins ticking. Starting a running loop does nothing.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	l.stop, l.done = stop, done
	t := l.newTicker()

	go func() {
		defer close(done)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C():
			}
			select {
			case <-stop:
				return
			default:
			}
			if !l.frame() {
				l.mu.Lock()
				if l.stop == stop {
					l.stop, l.done = nil, nil
				}
				l.mu.Unlock()
				return
			}
		}
	}()
}

// Stop halts the loop and returns once no frame is running. It is safe to
// call repeatedly but must not be called from the frame function.
func (l *Loop) Stop() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the loop is ticking.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stop != nil
}

// ManualTicker drives loops from Tick instead of the clock, for
// deterministic tests. Each loop start gets a fresh ticker.
type ManualTicker struct {
	mu  sync.Mutex
	cur *manualTick
}

type manualTick struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (m *manualTick) C() <-chan time.Time { return m.ch }

func (m *manualTick) Stop() { m.once.Do(func() { close(m.stopped) }) }

func NewManualTicker() *ManualTicker { return &ManualTicker{} }

// Factory is passed to NewLoop.
func (m *ManualTicker) Factory() func() Ticker {
	return func() Ticker {
		t := &manualTick{ch: make(chan time.Time), stopped: make(chan struct{})}
		m.mu.Lock()
		m.cur = t
		m.mu.Unlock()
		return t
	}
}

// Tick delivers one tick and reports whether a running loop received it.
// A second Tick returns only after the frame started by the first finished.
func (m *ManualTicker) Tick() bool {
	m.mu.Lock()
	t := m.cur
	m.mu.Unlock()
	if t == nil {
		return false
	}
	select {
	case t.ch <- time.Now():
		return true
	case <-t.stopped:
		return false
	}
}
