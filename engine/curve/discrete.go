package curve

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
	"github.com/haldane-rts/chronos/engine/keyframe"
)

// Discrete is a step function: its value at t is whatever the most recent
// keyframe at or before t set it to, with no interpolation between
// keyframes. It embeds *event.Entity so dependents registered on it are
// notified whenever the curve's shape changes.
type Discrete[T any] struct {
	*event.Entity

	mu     sync.RWMutex
	frames *keyframe.Container[T]
	hint   atomic.Int32
}

// NewDiscrete returns a Discrete curve holding defaultValue at fixed.Min.
func NewDiscrete[T any](loop *event.Loop, name string, defaultValue T) *Discrete[T] {
	return &Discrete[T]{
		Entity: event.NewEntity(loop, name),
		frames: keyframe.New(defaultValue),
	}
}

// Get returns the curve's value at t.
func (d *Discrete[T]) Get(t fixed.Time) T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, pos := discreteValueAt(d.frames, int(d.hint.Load()), t)
	d.hint.Store(int32(pos))
	return v
}

// discreteValueAt computes Get's step lookup directly against frames, so
// callers that already hold the curve's lock (Sync, across two curves)
// can read a value without recursively re-acquiring it.
func discreteValueAt[T any](frames *keyframe.Container[T], hint int, t fixed.Time) (T, int) {
	pos := frames.Last(t, hint)
	return frames.Get(pos).Value, pos
}

// Size returns the number of keyframes, including the sentinel.
func (d *Discrete[T]) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frames.Size()
}

// KeyframeAt returns the raw keyframe stored at position pos.
func (d *Discrete[T]) KeyframeAt(pos int) keyframe.Keyframe[T] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frames.Get(pos)
}

// Frame returns the latest keyframe with time <= t.
func (d *Discrete[T]) Frame(t fixed.Time) keyframe.Keyframe[T] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	pos := d.frames.Last(t, int(d.hint.Load()))
	d.hint.Store(int32(pos))
	return d.frames.Get(pos)
}

// NextFrame returns the first keyframe with time strictly after t, or the
// final keyframe if none exists.
func (d *Discrete[T]) NextFrame(t fixed.Time) keyframe.Keyframe[T] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	pos := d.frames.Last(t, int(d.hint.Load())) + 1
	if pos >= d.frames.Size() {
		pos = d.frames.Size() - 1
	}
	return d.frames.Get(pos)
}

// SetInsert writes v at t, replacing only the most recently inserted
// same-time keyframe if one exists (InsertOverwrite with overwriteAll
// false), and notifies dependents.
func (d *Discrete[T]) SetInsert(t fixed.Time, v T) {
	d.mu.Lock()
	pos := d.frames.Last(t, int(d.hint.Load()))
	pos = d.frames.InsertOverwrite(keyframe.Keyframe[T]{Time: t, Value: v}, pos, false)
	d.hint.Store(int32(pos))
	d.mu.Unlock()
	d.Entity.Changes(t)
}

// SetReplace writes v at t, discarding every keyframe already at that exact
// time, and notifies dependents.
func (d *Discrete[T]) SetReplace(t fixed.Time, v T) {
	d.mu.Lock()
	pos := d.frames.Last(t, int(d.hint.Load()))
	pos = d.frames.InsertOverwrite(keyframe.Keyframe[T]{Time: t, Value: v}, pos, true)
	d.hint.Store(int32(pos))
	d.mu.Unlock()
	d.Entity.Changes(t)
}

// SetLast makes v at t the curve's final keyframe: it is inserted after
// any keyframes at or before t, and every keyframe after it is erased.
func (d *Discrete[T]) SetLast(t fixed.Time, v T) {
	d.mu.Lock()
	pos := d.frames.InsertAfter(keyframe.Keyframe[T]{Time: t, Value: v}, d.frames.Size()-1)
	pos = d.frames.EraseAfter(pos)
	d.hint.Store(int32(pos))
	d.mu.Unlock()
	d.Entity.Changes(t)
}

// Erase removes every keyframe at exactly t and notifies dependents.
func (d *Discrete[T]) Erase(t fixed.Time) {
	d.mu.Lock()
	pos := d.frames.EraseAt(t, int(d.hint.Load()))
	d.hint.Store(int32(pos))
	d.mu.Unlock()
	d.Entity.Changes(t)
}

// Clear discards every keyframe but the sentinel and notifies dependents.
func (d *Discrete[T]) Clear() {
	d.mu.Lock()
	d.frames.Clear()
	d.hint.Store(0)
	d.mu.Unlock()
	d.Entity.Changes(fixed.Min)
}

// Sync replaces d's keyframes at or after start with other's, and notifies
// dependents at start.
func (d *Discrete[T]) Sync(other *Discrete[T], start fixed.Time) {
	SyncDiscrete(d, other, start, func(v T) T { return v })
}

// SyncDiscrete is the typed cross-value-type sync: it copies src's
// keyframes at or after start into dst via convert. A free function, not a
// method, since Go methods cannot add type parameters beyond the
// receiver's. Following openage's BaseCurve::sync, it also guarantees the
// boundary: if neither side has a keyframe at exactly start, the plain
// container copy would otherwise leave dst reading its own pre-sync value
// for start <= t < the next copied keyframe, rather than src's. A
// keyframe is inserted at start whenever dst's synced value there doesn't
// already match src's, so Get(t) matches src for every t >= start as the
// property requires.
func SyncDiscrete[T, U any](dst *Discrete[T], src *Discrete[U], start fixed.Time, convert func(U) T) {
	src.mu.RLock()
	srcVal, srcHint := discreteValueAt(src.frames, int(src.hint.Load()), start)
	src.hint.Store(int32(srcHint))
	src.mu.RUnlock()

	dst.mu.Lock()
	pos := keyframe.SyncWith(dst.frames, src.frames, start, convert)

	want := convert(srcVal)
	dstVal, dstHint := discreteValueAt(dst.frames, pos, start)
	if !reflect.DeepEqual(dstVal, want) {
		pos = dst.frames.InsertOverwrite(keyframe.Keyframe[T]{Time: start, Value: want}, dstHint, false)
	} else {
		pos = dstHint
	}
	dst.hint.Store(int32(pos))
	dst.mu.Unlock()
	dst.Entity.Changes(start)
}
