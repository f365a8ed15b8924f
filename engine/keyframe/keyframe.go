// Package keyframe implements KeyframeContainer[T], the ordered,
// hint-accelerated sequence of (time, value) pairs that every Curve variant
// is built on.
package keyframe

import (
	"fmt"

	"github.com/haldane-rts/chronos/engine/fixed"
)

// Keyframe is an immutable (timestamp, value) pair. T must be copyable and
// comparable for Discrete-style curves; interpolated curves additionally
// require T to satisfy curve.Interpolable.
type Keyframe[T any] struct {
	Time  fixed.Time
	Value T
}

// Container is an ordered sequence of Keyframe[T], indexed by dense integer
// position. It is never empty: position 0 always holds a sentinel keyframe
// at fixed.Min. Timestamps are non-decreasing across positions; equal
// timestamps are permitted and order-preserving.
type Container[T any] struct {
	frames []Keyframe[T]
}

// New returns a Container holding only the TIME_MIN sentinel with the given
// default value.
func New[T any](defaultValue T) *Container[T] {
	return &Container[T]{frames: []Keyframe[T]{{Time: fixed.Min, Value: defaultValue}}}
}

// Size returns the number of keyframes, including the sentinel.
func (c *Container[T]) Size() int { return len(c.frames) }

// Get returns the keyframe at pos.
func (c *Container[T]) Get(pos int) Keyframe[T] { return c.frames[pos] }

func (c *Container[T]) clampHint(hint int) int {
	if hint < 0 {
		return 0
	}
	if hint >= len(c.frames) {
		return len(c.frames) - 1
	}
	return hint
}

// Last returns the position of the closest keyframe with time <= t, using
// hint as a starting point. With a good hint this is O(1) amortised;
// without one it is O(n) from the closest end. When several keyframes
// share time == t, the rightmost of that group is returned.
func (c *Container[T]) Last(t fixed.Time, hint int) int {
	pos := c.clampHint(hint)
	if c.frames[pos].Time <= t {
		for pos+1 < len(c.frames) && c.frames[pos+1].Time <= t {
			pos++
		}
		return pos
	}
	for pos > 0 && c.frames[pos].Time > t {
		pos--
	}
	return pos
}

// LastBefore returns the position of the closest keyframe with time < t. If
// a group of keyframes shares time == t, LastBefore returns the position
// immediately before that group. At t == fixed.Min, no keyframe is ever
// strictly before the sentinel, so LastBefore returns position 0 (the
// sentinel itself) as the best available floor.
func (c *Container[T]) LastBefore(t fixed.Time, hint int) int {
	pos := c.clampHint(hint)
	if c.frames[pos].Time < t {
		for pos+1 < len(c.frames) && c.frames[pos+1].Time < t {
			pos++
		}
		return pos
	}
	for pos > 0 && c.frames[pos].Time >= t {
		pos--
	}
	return pos
}

// groupBounds returns the half-open range [start, end) of positions whose
// time equals t. start == end when no keyframe has that exact time.
func (c *Container[T]) groupBounds(t fixed.Time, hint int) (start, end int) {
	start = c.LastBefore(t, hint) + 1
	end = c.Last(t, hint) + 1
	if end < start {
		end = start
	}
	return
}

func (c *Container[T]) insertAt(pos int, kf Keyframe[T]) {
	var zero Keyframe[T]
	c.frames = append(c.frames, zero)
	copy(c.frames[pos+1:], c.frames[pos:len(c.frames)-1])
	c.frames[pos] = kf
}

// InsertBefore inserts kf immediately before any existing keyframes sharing
// its timestamp, and returns the position it was inserted at.
func (c *Container[T]) InsertBefore(kf Keyframe[T], hint int) int {
	pos := c.LastBefore(kf.Time, hint) + 1
	c.insertAt(pos, kf)
	return pos
}

// InsertAfter inserts kf immediately after any existing keyframes sharing
// its timestamp, and returns the position it was inserted at.
func (c *Container[T]) InsertAfter(kf Keyframe[T], hint int) int {
	pos := c.Last(kf.Time, hint) + 1
	c.insertAt(pos, kf)
	return pos
}

// InsertOverwrite replaces the existing same-time keyframe with kf (or, if
// overwriteAll is set, every keyframe sharing kf's timestamp) and returns
// the resulting position. If no keyframe currently shares the timestamp,
// it behaves like InsertAfter. When exactly one of several same-time
// keyframes is replaced (overwriteAll == false), the rightmost of the
// group is the one replaced, matching the tie-break Discrete.Get uses.
func (c *Container[T]) InsertOverwrite(kf Keyframe[T], hint int, overwriteAll bool) int {
	start, end := c.groupBounds(kf.Time, hint)
	if start == end {
		c.insertAt(start, kf)
		return start
	}
	if overwriteAll {
		c.frames = append(c.frames[:start], c.frames[end:]...)
		c.insertAt(start, kf)
		return start
	}
	c.frames[end-1] = kf
	return end - 1
}

// Erase removes the keyframe at pos (the sentinel at position 0 is never
// removed) and returns the position now occupying that slot, clamped to the
// container's new size.
func (c *Container[T]) Erase(pos int) int {
	if pos <= 0 || pos >= len(c.frames) {
		return c.clampHint(pos)
	}
	c.frames = append(c.frames[:pos], c.frames[pos+1:]...)
	return c.clampHint(pos)
}

// EraseAt removes every keyframe at exactly time t (never the sentinel)
// and returns the resulting position.
func (c *Container[T]) EraseAt(t fixed.Time, hint int) int {
	start, end := c.groupBounds(t, hint)
	if start == 0 {
		start = 1
	}
	if start >= end {
		return c.clampHint(start - 1)
	}
	c.frames = append(c.frames[:start], c.frames[end:]...)
	return c.clampHint(start - 1)
}

// EraseAfter truncates the container to everything at or before pos.
func (c *Container[T]) EraseAfter(pos int) int {
	pos = c.clampHint(pos)
	if pos+1 < len(c.frames) {
		c.frames = c.frames[:pos+1]
	}
	return pos
}

// Clear removes every keyframe except the TIME_MIN sentinel at position 0.
func (c *Container[T]) Clear() {
	c.frames = c.frames[:1]
}

// Sync erases self for t >= start, then appends every keyframe of other
// with time >= start. If other has no keyframe at exactly start, a
// boundary keyframe at start holding other's value there is inserted, so
// Last-based reads of both containers agree for every t >= start. It
// returns the resulting last position.
func (c *Container[T]) Sync(other *Container[T], start fixed.Time) int {
	pos := SyncWith(c, other, start, func(v T) T { return v })
	if src := other.Get(other.Last(start, 0)); src.Time < start {
		c.InsertBefore(Keyframe[T]{Time: start, Value: src.Value}, 0)
		pos = len(c.frames) - 1
	}
	return pos
}

// SyncWith is the typed cross-container sync: it copies keyframes from a
// Container[U] into a Container[T] via convert. It is a free function,
// not a method, because Go methods cannot introduce additional type
// parameters beyond the receiver's.
func SyncWith[T, U any](dst *Container[T], src *Container[U], start fixed.Time, convert func(U) T) int {
	cut := dst.LastBefore(start, 0) + 1
	if cut < 1 {
		cut = 1
	}
	if cut < len(dst.frames) {
		dst.frames = dst.frames[:cut]
	}

	srcStart := src.LastBefore(start, 0) + 1
	for i := srcStart; i < src.Size(); i++ {
		kf := src.Get(i)
		dst.frames = append(dst.frames, Keyframe[T]{Time: kf.Time, Value: convert(kf.Value)})
	}
	return len(dst.frames) - 1
}

// CheckIntegrity verifies the non-decreasing timestamp invariant. A
// violation here is a programmer error per the core's error-handling
// design: it is never expected to trip in correctly used code, but is
// cheap to check and fatal when it does.
func (c *Container[T]) CheckIntegrity() error {
	for i := 1; i < len(c.frames); i++ {
		if c.frames[i].Time < c.frames[i-1].Time {
			return fmt.Errorf("keyframe: timestamps not non-decreasing at position %d (%v < %v)", i, c.frames[i].Time, c.frames[i-1].Time)
		}
	}
	return nil
}
