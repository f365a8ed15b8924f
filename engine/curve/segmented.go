package curve

import (
	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
	"github.com/haldane-rts/chronos/engine/keyframe"
)

// Segmented behaves like Continuous within each segment, but additionally
// supports SetInsertJump: inserting a keyframe that starts a brand new
// segment with a discontinuous value, rather than interpolating smoothly
// from whatever came before it. It reuses Continuous.Get unchanged: two
// keyframes sharing a timestamp already form a same-time group the
// keyframe container resolves with rightmost-wins tie-break, which is
// exactly a jump discontinuity at that instant.
type Segmented[T Interpolable[T]] struct {
	*Continuous[T]
}

// NewSegmented returns a Segmented curve holding defaultValue at fixed.Min.
func NewSegmented[T Interpolable[T]](loop *event.Loop, name string, defaultValue T) *Segmented[T] {
	return &Segmented[T]{Continuous: NewContinuous(loop, name, defaultValue)}
}

// SetInsertJump starts a discontinuity at t: left becomes the value every
// query strictly before t observes (overwriting any keyframe already at
// t), and right becomes the value every query at or after t observes until
// the next keyframe. Queries land on right because InsertAfter places it
// to the right of left within the same-time group, and Get's tie-break
// returns the rightmost of a same-time group.
func (s *Segmented[T]) SetInsertJump(t fixed.Time, left, right T) {
	s.mu.Lock()
	pos := s.frames.Last(t, int(s.hint.Load()))
	pos = s.frames.InsertOverwrite(keyframe.Keyframe[T]{Time: t, Value: left}, pos, true)
	pos = s.frames.InsertAfter(keyframe.Keyframe[T]{Time: t, Value: right}, pos)
	s.hint.Store(int32(pos))
	s.mu.Unlock()
	s.Entity.Changes(t)
}
