package event

// Params is the string-keyed heterogeneous parameter map threaded into
// Setup, Predict and Invoke. Values must round-trip through Go's own
// any/interface{} container, which already gives the "Any-style" contract
// the spec asks for; Params deliberately stays a plain map rather than
// growing bespoke boxing so it cannot drift into a general-purpose dynamic
// object (see the "Dynamic parameter map" design note).
type Params map[string]any

// Contains reports whether key is present.
func (p Params) Contains(key string) bool {
	_, ok := p[key]
	return ok
}

// CheckType reports whether key is present and holds a value assignable to T.
func CheckType[T any](p Params, key string) bool {
	v, ok := p[key]
	if !ok {
		return false
	}
	_, ok = v.(T)
	return ok
}

// Get returns the value stored at key if it is present and of type T,
// otherwise def.
func Get[T any](p Params, key string, def T) T {
	v, ok := p[key]
	if !ok {
		return def
	}
	t, ok := v.(T)
	if !ok {
		return def
	}
	return t
}

// With returns a shallow copy of p with key set to value, leaving p
// unmodified.
func (p Params) With(key string, value any) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[key] = value
	return out
}
