// Package fixed implements the signed fixed-point time scalar used
// throughout the engine as the sole time axis.
package fixed

import (
	"fmt"
	"math"
	"time"
)

// fractionalBits is the number of bits below the binary point. A Time value
// stores time*2^fractionalBits in its underlying int64 mantissa.
const fractionalBits = 16

const scale = 1 << fractionalBits

// Time is a totally ordered, signed fixed-point scalar. It is the only
// representation of simulation time used by curves and the event loop; all
// comparisons are exact, there is no epsilon.
type Time int64

// Distinguished constants. TIME_MIN and TIME_MAX bound the representable
// range; TIME_ZERO is the additive identity.
const (
	Min  Time = math.MinInt64
	Max  Time = math.MaxInt64
	Zero Time = 0
)

// FromFloat constructs a Time from a floating point number of seconds.
func FromFloat(seconds float64) Time {
	return Time(math.Round(seconds * scale))
}

// FromDuration constructs a Time from a wall-clock duration, treating the
// duration as a count of simulation seconds. This is the bridge the Clock
// uses between wall time and sim time.
func FromDuration(d time.Duration) Time {
	return FromFloat(d.Seconds())
}

// Duration converts the Time back to a wall-clock duration, the inverse of
// FromDuration.
func (t Time) Duration() time.Duration {
	return time.Duration(t.Float() * float64(time.Second))
}

// Float returns the Time as a floating point number of seconds.
func (t Time) Float() float64 {
	return float64(t) / scale
}

// Add returns t + u.
func (t Time) Add(u Time) Time { return t + u }

// Sub returns t - u.
func (t Time) Sub(u Time) Time { return t - u }

// Mul scales a time delta by a fraction, rounding to the nearest
// representable tick. This is the hook curves need for interpolation:
// `kf[e].value + (kf[n].value - kf[e].value) * (t - kf[e].time) / ...`
// operates on values, but the equivalent scaling of a time delta by a
// fraction uses this method.
func (t Time) Mul(frac float64) Time {
	return Time(math.Round(float64(t) * frac))
}

// Cmp returns -1, 0 or 1 if t is less than, equal to, or greater than u.
func (t Time) Cmp(u Time) int {
	switch {
	case t < u:
		return -1
	case t > u:
		return 1
	default:
		return 0
	}
}

// Less reports whether t sorts strictly before u. It exists so Time can be
// used directly as a heap/sort comparator without repeating Cmp(u) < 0 at
// every call site.
func (t Time) Less(u Time) bool { return t < u }

// Mod computes a non-negative modulus of t by interval, used by
// DiscreteMod curves to wrap a query time into a cyclic domain.
func Mod(t, interval Time) Time {
	if interval <= 0 {
		return 0
	}
	m := t % interval
	if m < 0 {
		m += interval
	}
	return m
}

// String renders the Time in seconds, e.g. "12.0625", rather than the raw
// tick count.
func (t Time) String() string {
	switch t {
	case Min:
		return "-inf"
	case Max:
		return "+inf"
	}
	return fmt.Sprintf("%g", t.Float())
}
