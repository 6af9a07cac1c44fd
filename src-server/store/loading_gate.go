package store

import (
	"context"
	"sync"
	"time"
)

// LoadingGate wraps asynchronous work behind a busy signal. The signal
// stays up for at least the configured minimum so a spinner never shows
// for a flicker-length interval. The gate owns its timers: a caller's
// context ending does not kill the pending minimum-visible window, only
// Close does, so nothing toggles state after the gate is torn down.
type LoadingGate struct {
	minVisible time.Duration

	mu      sync.Mutex
	active  int
	started time.Time

	busy      *Value[bool]
	done      chan struct{}
	closeOnce sync.Once
}

func NewLoadingGate(minVisible time.Duration) *LoadingGate {
	g := &LoadingGate{
		minVisible: minVisible,
		busy:       NewValue[bool](),
		done:       make(chan struct{}),
	}
	g.busy.Set(false)
	return g
}

func (g *LoadingGate) Busy() *Value[bool] {
	return g.busy
}

// Close tears the gate down: pending minimum-visible timers die and the
// busy signal is never touched again. Idempotent.
func (g *LoadingGate) Close() {
	g.closeOnce.Do(func() {
		close(g.done)
	})
}

func (g *LoadingGate) closed() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

func (g *LoadingGate) enter() {
	g.mu.Lock()
	g.active++
	if g.active == 1 {
		g.started = time.Now()
	}
	g.mu.Unlock()
	if !g.closed() {
		g.busy.Set(true)
	}
}

// leave schedules the busy signal down once the last unit of work is
// done, honoring the minimum visible duration.
func (g *LoadingGate) leave() {
	g.mu.Lock()
	g.active--
	if g.active > 0 {
		g.mu.Unlock()
		return
	}
	remaining := g.minVisible - time.Since(g.started)
	g.mu.Unlock()

	if remaining <= 0 {
		if !g.closed() {
			g.busy.Set(false)
		}
		return
	}

	timer := time.NewTimer(remaining)
	go func() {
		defer timer.Stop()
		select {
		case <-g.done:
		case <-timer.C:
			g.mu.Lock()
			stillIdle := g.active == 0
			g.mu.Unlock()
			if stillIdle && !g.closed() {
				g.busy.Set(false)
			}
		}
	}()
}

// Run is the fire-and-forget shape: the work runs on its own goroutine
// and onSuccess fires only when it returned nil with the caller's
// context still live.
func (g *LoadingGate) Run(ctx context.Context, work func(context.Context) error, onSuccess func()) {
	g.enter()
	go func() {
		err := work(ctx)
		g.leave()
		if err == nil && ctx.Err() == nil && onSuccess != nil {
			onSuccess()
		}
	}()
}

// Gated is the pass-through shape: the result flows back to the caller
// so further steps can compose on it.
func Gated[T any](g *LoadingGate, ctx context.Context, work func(context.Context) (T, error)) (T, error) {
	g.enter()
	defer g.leave()
	return work(ctx)
}
