package console

import (
	"fmt"
	"strconv"

	"github.com/haldane-rts/chronos/engine/curve"
	"github.com/haldane-rts/chronos/engine/fixed"
)

// ScalarContinuous adapts a *curve.Continuous[curve.Scalar[T]] to the
// console's Curve interface, so it can be addressed by name from the set
// and get commands.
type ScalarContinuous[T interface{ ~float64 | ~int | ~int64 }] struct {
	C *curve.Continuous[curve.Scalar[T]]
}

func (s ScalarContinuous[T]) Get(t fixed.Time) string {
	return fmt.Sprint(s.C.Get(t).V)
}

func (s ScalarContinuous[T]) Set(t fixed.Time, raw string) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	s.C.SetInsert(t, curve.S(T(v)))
	return nil
}

func (s ScalarContinuous[T]) Sync(other Curve, start fixed.Time) error {
	o, ok := other.(ScalarContinuous[T])
	if !ok {
		return fmt.Errorf("console: cannot sync %T from %T", s, other)
	}
	s.C.Sync(o.C, start)
	return nil
}

// ScalarDiscrete adapts a *curve.Discrete[curve.Scalar[T]] to the console's
// Curve interface.
type ScalarDiscrete[T interface{ ~float64 | ~int | ~int64 }] struct {
	C *curve.Discrete[curve.Scalar[T]]
}

func (s ScalarDiscrete[T]) Get(t fixed.Time) string {
	return fmt.Sprint(s.C.Get(t).V)
}

func (s ScalarDiscrete[T]) Set(t fixed.Time, raw string) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	s.C.SetInsert(t, curve.S(T(v)))
	return nil
}

func (s ScalarDiscrete[T]) Sync(other Curve, start fixed.Time) error {
	o, ok := other.(ScalarDiscrete[T])
	if !ok {
		return fmt.Errorf("console: cannot sync %T from %T", s, other)
	}
	s.C.Sync(o.C, start)
	return nil
}
