package countdown

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Real is the wall clock.
func Real() Clock { return realClock{} }

type phase int

const (
	idle phase = iota
	running
	paused
)

// Countdown is a cancellable, pausable one-shot timer. Every Start or Stop bumps the
// generation, and onExpire receives the generation it was armed with so a receiver
// can discard expirations that raced with a restart.
type Countdown struct {
	mu        sync.Mutex
	clock     Clock
	onExpire  func(gen uint64)
	timer     Timer
	gen       uint64
	seq       uint64
	phase     phase
	deadline  time.Time
	remaining time.Duration
}

func New(clock Clock, onExpire func(gen uint64)) *Countdown {
	if clock == nil {
		clock = Real()
	}
	return &Countdown{clock: clock, onExpire: onExpire}
}

// Start (re)arms the countdown for d and returns the new generation.
func (c *Countdown) Start(d time.Duration) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
	c.gen++
	c.remaining = d
	c.arm()
	return c.gen
}

// Pause freezes the remaining duration. It reports false when not running.
func (c *Countdown) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != running {
		return false
	}
	c.stopTimer()
	c.remaining = max(c.deadline.Sub(c.clock.Now()), 0)
	c.phase = paused
	return true
}

// Resume continues a paused countdown with exactly the duration left at Pause.
func (c *Countdown) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != paused {
		return false
	}
	c.arm()
	return true
}

func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
	c.gen++
	c.phase = idle
	c.remaining = 0
}

func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case running:
		return max(c.deadline.Sub(c.clock.Now()), 0)
	case paused:
		return c.remaining
	default:
		return 0
	}
}

func (c *Countdown) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == paused
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == running
}

// Current reports whether gen is still the live generation.
func (c *Countdown) Current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// arm must be called with mu held.
func (c *Countdown) arm() {
	c.seq++
	gen, seq := c.gen, c.seq
	c.phase = running
	c.deadline = c.clock.Now().Add(c.remaining)
	c.timer = c.clock.AfterFunc(c.remaining, func() { c.fire(gen, seq) })
}

func (c *Countdown) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// fire ignores timers armed before the latest Start, Pause or Stop.
func (c *Countdown) fire(gen, seq uint64) {
	c.mu.Lock()
	if c.gen != gen || c.seq != seq || c.phase != running {
		c.mu.Unlock()
		return
	}
	c.phase = idle
	c.timer = nil
	c.remaining = 0
	c.mu.Unlock()

	if c.onExpire != nil {
		c.onExpire(gen)
	}
}
