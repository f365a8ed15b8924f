package curve

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
	"github.com/haldane-rts/chronos/engine/keyframe"
)

// Continuous linearly interpolates between consecutive keyframes, holding
// flat at the first keyframe's value before it and the last keyframe's
// value after it.
type Continuous[T Interpolable[T]] struct {
	*event.Entity

	mu     sync.RWMutex
	frames *keyframe.Container[T]
	hint   atomic.Int32
}

// NewContinuous returns a Continuous curve holding defaultValue at fixed.Min.
func NewContinuous[T Interpolable[T]](loop *event.Loop, name string, defaultValue T) *Continuous[T] {
	return &Continuous[T]{
		Entity: event.NewEntity(loop, name),
		frames: keyframe.New(defaultValue),
	}
}

// Get returns the curve's interpolated value at t.
func (c *Continuous[T]) Get(t fixed.Time) T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, pos := continuousValueAt(c.frames, int(c.hint.Load()), t)
	c.hint.Store(int32(pos))
	return v
}

// continuousValueAt computes Get's interpolation directly against frames,
// so callers that already hold the curve's lock (Sync, across two curves)
// can read a value without recursively re-acquiring it.
func continuousValueAt[T Interpolable[T]](frames *keyframe.Container[T], hint int, t fixed.Time) (T, int) {
	pos := frames.Last(t, hint)
	a := frames.Get(pos)
	if pos+1 >= frames.Size() || a.Time == t {
		return a.Value, pos
	}
	b := frames.Get(pos + 1)
	if b.Time == a.Time || a.Time == fixed.Min {
		return b.Value, pos
	}
	frac := float64(t-a.Time) / float64(b.Time-a.Time)
	return Lerp(a.Value, b.Value, frac), pos
}

// Size returns the number of keyframes, including the sentinel.
func (c *Continuous[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames.Size()
}

// KeyframeAt returns the raw keyframe stored at position pos.
func (c *Continuous[T]) KeyframeAt(pos int) keyframe.Keyframe[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames.Get(pos)
}

// Frame returns the latest keyframe with time <= t.
func (c *Continuous[T]) Frame(t fixed.Time) keyframe.Keyframe[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pos := c.frames.Last(t, int(c.hint.Load()))
	c.hint.Store(int32(pos))
	return c.frames.Get(pos)
}

// NextFrame returns the first keyframe with time strictly after t, or the
// final keyframe if none exists.
func (c *Continuous[T]) NextFrame(t fixed.Time) keyframe.Keyframe[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pos := c.frames.Last(t, int(c.hint.Load())) + 1
	if pos >= c.frames.Size() {
		pos = c.frames.Size() - 1
	}
	return c.frames.Get(pos)
}

// SetInsert writes v at t, replacing only the rightmost existing same-time
// keyframe if any, and notifies dependents.
func (c *Continuous[T]) SetInsert(t fixed.Time, v T) {
	c.mu.Lock()
	pos := c.frames.Last(t, int(c.hint.Load()))
	pos = c.frames.InsertOverwrite(keyframe.Keyframe[T]{Time: t, Value: v}, pos, false)
	c.hint.Store(int32(pos))
	c.mu.Unlock()
	c.Entity.Changes(t)
}

// SetReplace writes v at t, discarding every keyframe already at that exact
// time, and notifies dependents.
func (c *Continuous[T]) SetReplace(t fixed.Time, v T) {
	c.mu.Lock()
	pos := c.frames.Last(t, int(c.hint.Load()))
	pos = c.frames.InsertOverwrite(keyframe.Keyframe[T]{Time: t, Value: v}, pos, true)
	c.hint.Store(int32(pos))
	c.mu.Unlock()
	c.Entity.Changes(t)
}

// Erase removes every keyframe at exactly t and notifies dependents.
func (c *Continuous[T]) Erase(t fixed.Time) {
	c.mu.Lock()
	pos := c.frames.EraseAt(t, int(c.hint.Load()))
	c.hint.Store(int32(pos))
	c.mu.Unlock()
	c.Entity.Changes(t)
}

// Compress drops every interior keyframe that lies exactly on the
// straight line between its neighbors, leaving the curve's shape
// unchanged but its keyframe count reduced. It is idempotent: running it
// twice in a row is a no-op the second time.
func (c *Continuous[T]) Compress() {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := []keyframe.Keyframe[T]{c.frames.Get(0)}
	for i := 1; i < c.frames.Size()-1; i++ {
		prev := kept[len(kept)-1]
		cur := c.frames.Get(i)
		next := c.frames.Get(i + 1)
		if onLine(prev, cur, next) {
			continue
		}
		kept = append(kept, cur)
	}
	if c.frames.Size() > 1 {
		kept = append(kept, c.frames.Get(c.frames.Size()-1))
	}

	fresh := keyframe.New(kept[0].Value)
	for _, kf := range kept[1:] {
		fresh.InsertAfter(kf, fresh.Size()-1)
	}
	c.frames = fresh
	c.hint.Store(0)
}

func onLine[T Interpolable[T]](a, b, c keyframe.Keyframe[T]) bool {
	if b.Time == a.Time || c.Time == b.Time || c.Time == a.Time {
		return false
	}
	frac := float64(b.Time-a.Time) / float64(c.Time-a.Time)
	expected := Lerp(a.Value, c.Value, frac)
	return reflect.DeepEqual(expected, b.Value)
}

// Sync replaces c's keyframes at or after start with other's, and
// notifies dependents at start.
func (c *Continuous[T]) Sync(other *Continuous[T], start fixed.Time) {
	SyncContinuous(c, other, start, func(v T) T { return v })
}

// SyncContinuous is the typed cross-value-type sync counterpart to
// Discrete's SyncDiscrete. Following openage's BaseCurve::sync, it also
// guarantees the boundary: if neither side has a keyframe at exactly
// start, the plain container copy would otherwise leave dst reading its
// own pre-sync value for start <= t < the next copied keyframe, rather
// than src's. A keyframe is inserted at start whenever dst's synced value
// there doesn't already match src's, so Get(t) matches src for every
// t >= start as the property requires.
func SyncContinuous[T Interpolable[T], U Interpolable[U]](dst *Continuous[T], src *Continuous[U], start fixed.Time, convert func(U) T) {
	src.mu.RLock()
	srcVal, srcHint := continuousValueAt(src.frames, int(src.hint.Load()), start)
	src.hint.Store(int32(srcHint))
	src.mu.RUnlock()

	dst.mu.Lock()
	pos := keyframe.SyncWith(dst.frames, src.frames, start, convert)

	want := convert(srcVal)
	dstVal, dstHint := continuousValueAt(dst.frames, pos, start)
	if !reflect.DeepEqual(dstVal, want) {
		pos = dst.frames.InsertOverwrite(keyframe.Keyframe[T]{Time: start, Value: want}, dstHint, false)
	} else {
		pos = dstHint
	}
	dst.hint.Store(int32(pos))
	dst.mu.Unlock()
	dst.Entity.Changes(start)
}
