// Package clock maps real wall-clock time onto simulation time and drives
// an event.Loop forward as that mapping advances.
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
)

// State is one of the clock's four lifecycle states.
type State uint8

const (
	Init State = iota
	Running
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DefaultMaxTickTime is the default clamp on a single UpdateTime step: a
// wall-clock gap larger than this (a debugger pause, a suspended process,
// a slow first tick) is clamped down rather than dumped into simulation
// time all at once.
const DefaultMaxTickTime = 50 * time.Millisecond

const (
	tpsSampleSize       = 20
	tpsWarningThreshold = 15.0
)

// Clock owns the simulation time axis: it converts elapsed wall-clock time
// into simulation time at a configurable speed, and can drive an
// event.Loop's ReachTime once per tick while running.
type Clock struct {
	mu          sync.Mutex
	state       State
	speed       float64
	simTime     fixed.Time
	lastWall    time.Time
	maxTickTime time.Duration

	tps atomic.Uint64

	log *slog.Logger
}

// New returns a Clock in the Init state, at 1x speed, with
// DefaultMaxTickTime as its clamp.
func New(log *slog.Logger) *Clock {
	if log == nil {
		log = slog.Default()
	}
	return &Clock{
		state:       Init,
		speed:       1.0,
		maxTickTime: DefaultMaxTickTime,
		log:         log,
	}
}

// State returns the clock's current lifecycle state.
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Speed returns the clock's current time-dilation factor.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// GetTime returns the clock's current simulation time.
func (c *Clock) GetTime() fixed.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.simTime
}

// GetTimeMillis returns the clock's current simulation time in
// milliseconds, for display and logging.
func (c *Clock) GetTimeMillis() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.simTime.Float() * 1000
}

// TPS returns the most recently measured ticks-per-second of a running
// Run loop, or 0 if none has been observed yet.
func (c *Clock) TPS() float64 {
	return math.Float64frombits(c.tps.Load())
}

// SetMaxTickTime overrides the clamp UpdateTime applies to a single step's
// elapsed wall-clock time. d <= 0 is ignored.
func (c *Clock) SetMaxTickTime(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxTickTime = d
}

// SetSpeed flushes any wall-clock time already accrued at the old speed,
// then changes the dilation factor. Flushing first keeps a change in
// speed from retroactively altering how much simulation time already
// elapsed.
func (c *Clock) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateTimeLocked(time.Now())
	c.speed = speed
}

// Start transitions Init -> Running.
func (c *Clock) Start() error { return c.transition(Init, Running) }

// Pause transitions Running -> Paused.
func (c *Clock) Pause() error { return c.transition(Running, Paused) }

// Resume transitions Paused -> Running.
func (c *Clock) Resume() error { return c.transition(Paused, Running) }

// Stop transitions any non-Stopped state to Stopped.
func (c *Clock) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Stopped {
		return nil
	}
	c.updateTimeLocked(time.Now())
	c.state = Stopped
	return nil
}

func (c *Clock) transition(from, to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return fmt.Errorf("clock: cannot move to %s from %s, requires %s", to, c.state, from)
	}
	// Flush before changing state: wall-clock time already elapsed must be
	// accounted for under the state it actually occurred in.
	c.updateTimeLocked(time.Now())
	c.state = to
	if to == Running {
		c.lastWall = time.Now()
	}
	return nil
}

// UpdateTime advances the clock's simulation time to reflect now having
// elapsed, and returns the resulting simulation time. It is a no-op the
// first time it's called (there is no prior wall-clock checkpoint yet),
// a no-op if now hasn't moved forward, and clamps any gap larger than
// maxTickTime so a stalled process doesn't dump a huge jump into
// simulation time on its next tick.
func (c *Clock) UpdateTime(now time.Time) fixed.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateTimeLocked(now)
}

func (c *Clock) updateTimeLocked(now time.Time) fixed.Time {
	if c.lastWall.IsZero() {
		c.lastWall = now
		return c.simTime
	}
	elapsed := now.Sub(c.lastWall)
	c.lastWall = now
	if elapsed <= 0 {
		return c.simTime
	}
	if elapsed > c.maxTickTime {
		elapsed = c.maxTickTime
	}
	if c.state == Running {
		delta := fixed.FromDuration(elapsed).Mul(c.speed)
		c.simTime = c.simTime.Add(delta)
	}
	return c.simTime
}

// Run drives loop.ReachTime once per tick at the given wall-clock
// interval until ctx is cancelled, sampling the realised ticks-per-second
// the way the ambient tick loop this is grounded on does, and warning if
// it drops below tpsWarningThreshold.
func (c *Clock) Run(ctx context.Context, interval time.Duration, loop *event.Loop, state any) {
	tc := time.NewTicker(interval)
	defer tc.Stop()

	lastTick := time.Now()
	var (
		durationSum time.Duration
		ticksCount  int
		warned      bool
	)

	for {
		select {
		case <-ctx.Done():
			return
		case tickStart := <-tc.C:
			duration := tickStart.Sub(lastTick)
			lastTick = tickStart
			if duration > 0 {
				durationSum += duration
				ticksCount++
				if ticksCount >= tpsSampleSize {
					avg := durationSum / time.Duration(ticksCount)
					if avg > 0 {
						tps := 1.0 / avg.Seconds()
						c.tps.Store(math.Float64bits(tps))
						if tps < tpsWarningThreshold {
							if !warned {
								c.log.Warn("clock: tick rate dropped below threshold", "tps", tps)
								warned = true
							}
						} else if warned {
							warned = false
						}
					}
					durationSum, ticksCount = 0, 0
				}
			}

			t := c.UpdateTime(tickStart)
			if err := loop.ReachTime(t, state); err != nil {
				c.log.Error("clock: loop did not settle", "err", err, "time", t)
			}
		}
	}
}
