package arena

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotRunning is returned when a countdown is started for a session whose
// timer is not running.
var ErrNotRunning = errors.New("session timer is not running")

// TickSource delivers ticks until stopped.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

// NewTickSource returns a TickSource ticking every d.
type NewTickSource func(d time.Duration) TickSource

type timeTicker struct {
	t *time.Ticker
}

// TimeTicker is the NewTickSource backed by time.Ticker.
func TimeTicker(d time.Duration) TickSource {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// Tick reports one countdown step.
type Tick struct {
	Index int
	Timer Timer

	// Expired is set on the tick that takes the countdown to zero. The
	// receiver decides what happens next; the machine does not complete
	// tasks on its own.
	Expired bool
}

// Countdown is a running countdown. Stop it when the view goes away.
type Countdown struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Stop ends the countdown. It does not wait: a tick whose timer step
// finished before Stop may still reach onTick afterwards. No timer step
// happens after Stop returns.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed when the countdown goroutine has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// StartCountdown decrements the current task's timer once per second while
// the session stays active and running, calling onTick after each step.
// The countdown ends after the expiring tick, when the session is paused,
// advanced, ended or reset, when ctx is done, or when Stop is called.
func (m *Machine) StartCountdown(ctx context.Context, newSource NewTickSource, onTick func(Tick)) (*Countdown, error) {
	if newSource == nil {
		newSource = TimeTicker
	}

	m.mu.Lock()
	if !running(m.state) {
		m.mu.Unlock()
		return nil, ErrNotRunning
	}
	epoch := m.epoch
	m.mu.Unlock()

	c := &Countdown{stop: make(chan struct{}), done: make(chan struct{})}
	src := newSource(time.Second)
	go func() {
		defer close(c.done)
		defer src.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-src.C():
			}
			tick, ok := m.step(epoch, c.stop)
			if !ok {
				return
			}
			if onTick != nil {
				onTick(tick)
			}
			if tick.Expired {
				return
			}
		}
	}()
	return c, nil
}

// step applies one tick if the countdown is still current.
func (m *Machine) step(epoch uint64, stop <-chan struct{}) (Tick, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-stop:
		return Tick{}, false
	default:
	}
	if m.epoch != epoch || !running(m.state) {
		return Tick{}, false
	}

	sess := m.state.Session
	remaining := max(sess.Timer.Remaining-1, 0)
	state, err := m.dispatchLocked(UpdateTimer{Remaining: remaining, Running: true})
	if err != nil {
		return Tick{}, false
	}
	return Tick{
		Index:   state.Session.CurrentIndex,
		Timer:   state.Session.Timer,
		Expired: remaining == 0,
	}, true
}
