// Package curve implements the four keyframe-backed value curves: Discrete,
// Continuous, Segmented and DiscreteMod. Each wraps a keyframe.Container and
// an event.Entity, so dependents are notified whenever a curve's shape
// changes.
package curve

import (
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Interpolable is the constraint Continuous and Segmented curves require of
// their value type: enough vector-space structure to linearly interpolate
// between two keyframes.
type Interpolable[T any] interface {
	Add(T) T
	Sub(T) T
	Scale(float64) T
}

// Lerp linearly interpolates from a to b by frac, clamped to [0, 1] by the
// caller's own keyframe-bounds arithmetic.
func Lerp[T Interpolable[T]](a, b T, frac float64) T {
	return a.Add(b.Sub(a).Scale(frac))
}

// Scalar adapts any ordinary numeric type into an Interpolable[Scalar[T]],
// so Continuous/Segmented curves of plain floats or ints don't need a
// bespoke wrapper at every call site.
type Scalar[T constraints.Float | constraints.Integer] struct {
	V T
}

// S is shorthand for constructing a Scalar.
func S[T constraints.Float | constraints.Integer](v T) Scalar[T] { return Scalar[T]{V: v} }

func (s Scalar[T]) Add(o Scalar[T]) Scalar[T] { return Scalar[T]{V: s.V + o.V} }
func (s Scalar[T]) Sub(o Scalar[T]) Scalar[T] { return Scalar[T]{V: s.V - o.V} }
func (s Scalar[T]) Scale(f float64) Scalar[T] { return Scalar[T]{V: T(float64(s.V) * f)} }

// Vec3 adapts mgl64.Vec3 to the Interpolable contract: mgl64 names its
// scalar multiplication Mul, not Scale.
type Vec3 struct {
	mgl64.Vec3
}

func (v Vec3) Add(o Vec3) Vec3     { return Vec3{v.Vec3.Add(o.Vec3)} }
func (v Vec3) Sub(o Vec3) Vec3     { return Vec3{v.Vec3.Sub(o.Vec3)} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.Vec3.Mul(f)} }

// Quat adapts mgl64.Quat to the Interpolable contract, normalizing its
// Scale name (mgl64.Quat already calls it Scale, unlike Vec3's Mul) so
// Continuous[Quat] and Continuous[Vec3] share one code path.
type Quat struct {
	mgl64.Quat
}

func (q Quat) Add(o Quat) Quat     { return Quat{q.Quat.Add(o.Quat)} }
func (q Quat) Sub(o Quat) Quat     { return Quat{q.Quat.Sub(o.Quat)} }
func (q Quat) Scale(f float64) Quat { return Quat{q.Quat.Scale(f)} }
