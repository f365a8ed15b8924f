// Package txguard recovers from the one specific panic a handler callback
// can trigger by reaching through a stale EntityRef/EventRef after the
// thing it pointed at has released: anything else still propagates.
package txguard

import "github.com/haldane-rts/chronos/engine/event"

// Run resolves ref and, if it is still live, invokes fn. It reports
// whether fn ran. A panic carrying event.ErrReleased anywhere inside fn
// is swallowed and reported as ok == false; any other panic propagates.
func Run(ref event.EntityRef, fn func()) (ok bool) {
	return run(ref, fn)
}

// Value is Run for callbacks that produce a value.
func Value[T any](ref event.EntityRef, fn func() T) (value T, ok bool) {
	ok = run(ref, func() {
		value = fn()
	})
	return
}

func run(ref event.EntityRef, fn func()) (ok bool) {
	if _, live := ref.Resolve(); !live {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			if msg, isStr := r.(string); isStr && msg == event.ErrReleased {
				ok = false
				return
			}
			panic(r)
		}
	}()
	fn()
	return true
}
