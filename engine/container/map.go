package container

import (
	"sync"

	"github.com/brentp/intintmap"
	"github.com/haldane-rts/chronos/engine/event"
	"github.com/haldane-rts/chronos/engine/fixed"
)

type mapEntry[V any] struct {
	alive fixed.Time
	dead  fixed.Time
	value V
}

// UnorderedMap is a hash-based container curve where every entry carries
// an [alive, dead) lifetime: At(t, k) is valid only while t falls inside
// that window. Keys are unique at any instant, but Insert/Kill/Birth let
// the same key's entry be reused across disjoint lifetimes.
type UnorderedMap[K comparable, V any] struct {
	*event.Entity

	mu    sync.RWMutex
	items map[K]mapEntry[V]
}

// NewUnorderedMap returns an empty UnorderedMap curve.
func NewUnorderedMap[K comparable, V any](loop *event.Loop, name string) *UnorderedMap[K, V] {
	return &UnorderedMap[K, V]{Entity: event.NewEntity(loop, name), items: make(map[K]mapEntry[V])}
}

// Insert stores v at key with the given lifetime and notifies dependents
// at alive.
func (m *UnorderedMap[K, V]) Insert(alive, dead fixed.Time, key K, v V) {
	m.mu.Lock()
	m.items[key] = mapEntry[V]{alive: alive, dead: dead, value: v}
	m.mu.Unlock()
	m.Entity.Changes(alive)
}

// Set is shorthand for Insert(t, fixed.Max, key, v): a convenience for
// callers that don't yet know the entry's death time.
func (m *UnorderedMap[K, V]) Set(t fixed.Time, key K, v V) {
	m.Insert(t, fixed.Max, key, v)
}

// At returns the value stored at key if it is alive at t (alive <= t <
// dead).
func (m *UnorderedMap[K, V]) At(t fixed.Time, key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var zero V
	e, ok := m.items[key]
	if !ok || t < e.alive || t >= e.dead {
		return zero, false
	}
	return e.value, true
}

// Get returns the value currently stored at key regardless of lifetime,
// for callers that already know the key is live (e.g. right after
// Insert). Prefer At for time-aware lookups.
func (m *UnorderedMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[key]
	return e.value, ok
}

// Kill stamps key's entry dead at t and notifies dependents, if the key is
// currently present.
func (m *UnorderedMap[K, V]) Kill(t fixed.Time, key K) bool {
	m.mu.Lock()
	e, ok := m.items[key]
	if !ok {
		m.mu.Unlock()
		return false
	}
	e.dead = t
	m.items[key] = e
	m.mu.Unlock()
	m.Entity.Changes(t)
	return true
}

// Birth stamps key's entry alive at t and notifies dependents, if the key
// is currently present. This lets a previously killed entry be revived at
// a later time without re-supplying its value: if the entry is already
// dead at t, its death time is cleared to fixed.Max.
func (m *UnorderedMap[K, V]) Birth(t fixed.Time, key K) bool {
	m.mu.Lock()
	e, ok := m.items[key]
	if !ok {
		m.mu.Unlock()
		return false
	}
	e.alive = t
	if e.dead <= t {
		e.dead = fixed.Max
	}
	m.items[key] = e
	m.mu.Unlock()
	m.Entity.Changes(t)
	return true
}

// Delete unconditionally removes key and notifies dependents at t if it
// was present.
func (m *UnorderedMap[K, V]) Delete(t fixed.Time, key K) bool {
	m.mu.Lock()
	_, ok := m.items[key]
	if ok {
		delete(m.items, key)
	}
	m.mu.Unlock()
	if ok {
		m.Entity.Changes(t)
	}
	return ok
}

// Clean removes every entry whose dead time is strictly before t. Per
// spec §9 the eviction policy beyond this is left unspecified; Clean
// implements only the one concrete operation the source names.
func (m *UnorderedMap[K, V]) Clean(t fixed.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.items {
		if e.dead < t {
			delete(m.items, k)
		}
	}
}

// Size returns the number of entries, live or dead.
func (m *UnorderedMap[K, V]) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Range calls fn for every entry alive at t, stopping early if fn returns
// false. Go's map iteration order is randomized; callers that need
// determinism should sort the keys they care about themselves.
func (m *UnorderedMap[K, V]) Range(t fixed.Time, fn func(K, V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, e := range m.items {
		if t < e.alive || t >= e.dead {
			continue
		}
		if !fn(k, e.value) {
			return
		}
	}
}

// IntKeyedMap is the int64-keyed specialization: an intintmap.Map holds
// key -> slot index, so lookups avoid Go's generic map hashing overhead on
// the hot At/Insert path, with entries held in a parallel slice. Slots are
// reused in place when a key is revived rather than appended again.
type IntKeyedMap[V any] struct {
	*event.Entity

	mu      sync.RWMutex
	idx     *intintmap.Map
	keys    []int64
	entries []mapEntry[V]
	present []bool // distinct from the alive/dead time window: false means Delete'd/Clean'd out
	count   int
}

// NewIntKeyedMap returns an empty int64-keyed map curve.
func NewIntKeyedMap[V any](loop *event.Loop, name string) *IntKeyedMap[V] {
	return &IntKeyedMap[V]{
		Entity: event.NewEntity(loop, name),
		idx:    intintmap.New(64, 0.6),
	}
}

// slotLocked resolves key to its slice slot, reporting false both when the
// key was never inserted and when it was Delete'd/Clean'd out since.
// intintmap has no delete operation, so presence is tracked in the
// parallel present slice rather than by removing the index entry.
func (m *IntKeyedMap[V]) slotLocked(key int64) (int, bool) {
	slotPlus1, ok := m.idx.Get(key)
	if !ok {
		return 0, false
	}
	slot := int(slotPlus1 - 1)
	if !m.present[slot] {
		return 0, false
	}
	return slot, true
}

// Insert stores v at key with the given lifetime and notifies dependents
// at alive. Reinserting a previously Delete'd/Clean'd key reuses its slot
// rather than growing the backing slice.
func (m *IntKeyedMap[V]) Insert(alive, dead fixed.Time, key int64, v V) {
	m.mu.Lock()
	if slotPlus1, ok := m.idx.Get(key); ok {
		slot := int(slotPlus1 - 1)
		m.entries[slot] = mapEntry[V]{alive: alive, dead: dead, value: v}
		if !m.present[slot] {
			m.present[slot] = true
			m.count++
		}
	} else {
		m.entries = append(m.entries, mapEntry[V]{alive: alive, dead: dead, value: v})
		m.keys = append(m.keys, key)
		m.present = append(m.present, true)
		m.idx.Put(key, int64(len(m.entries)))
		m.count++
	}
	m.mu.Unlock()
	m.Entity.Changes(alive)
}

// Set is shorthand for Insert(t, fixed.Max, key, v).
func (m *IntKeyedMap[V]) Set(t fixed.Time, key int64, v V) {
	m.Insert(t, fixed.Max, key, v)
}

// At returns the value at key if it is alive at t.
func (m *IntKeyedMap[V]) At(t fixed.Time, key int64) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var zero V
	slot, ok := m.slotLocked(key)
	if !ok {
		return zero, false
	}
	e := m.entries[slot]
	if t < e.alive || t >= e.dead {
		return zero, false
	}
	return e.value, true
}

// Get returns the value currently stored at key regardless of lifetime.
func (m *IntKeyedMap[V]) Get(key int64) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var zero V
	slot, ok := m.slotLocked(key)
	if !ok {
		return zero, false
	}
	return m.entries[slot].value, true
}

// Kill stamps key's entry dead at t and notifies dependents, if present.
func (m *IntKeyedMap[V]) Kill(t fixed.Time, key int64) bool {
	m.mu.Lock()
	slot, ok := m.slotLocked(key)
	if !ok {
		m.mu.Unlock()
		return false
	}
	m.entries[slot].dead = t
	m.mu.Unlock()
	m.Entity.Changes(t)
	return true
}

// Birth stamps key's entry alive at t and notifies dependents, if present.
func (m *IntKeyedMap[V]) Birth(t fixed.Time, key int64) bool {
	m.mu.Lock()
	slot, ok := m.slotLocked(key)
	if !ok {
		m.mu.Unlock()
		return false
	}
	m.entries[slot].alive = t
	m.mu.Unlock()
	m.Entity.Changes(t)
	return true
}

// Delete unconditionally removes key and notifies dependents at t, if it
// was present. The slot is marked absent rather than compacted, since
// intintmap does not support removing a key once inserted; Insert/Set
// reclaims it on the key's next reinsertion.
func (m *IntKeyedMap[V]) Delete(t fixed.Time, key int64) bool {
	m.mu.Lock()
	slot, ok := m.slotLocked(key)
	if !ok {
		m.mu.Unlock()
		return false
	}
	var zero V
	m.entries[slot] = mapEntry[V]{value: zero}
	m.present[slot] = false
	m.count--
	m.mu.Unlock()
	m.Entity.Changes(t)
	return true
}

// Clean removes every entry whose dead time is strictly before t, the
// same way Delete does. Per spec §9 the eviction policy beyond this one
// concrete operation is left unspecified.
func (m *IntKeyedMap[V]) Clean(t fixed.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.present[i] && m.entries[i].dead < t {
			var zero V
			m.entries[i] = mapEntry[V]{value: zero}
			m.present[i] = false
			m.count--
		}
	}
}

// Size returns the number of entries currently present (inserted and not
// yet Delete'd/Clean'd), independent of their alive/dead time window.
func (m *IntKeyedMap[V]) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

// Range calls fn for every entry alive at t, stopping early if fn returns
// false.
func (m *IntKeyedMap[V]) Range(t fixed.Time, fn func(int64, V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, k := range m.keys {
		if !m.present[i] {
			continue
		}
		e := m.entries[i]
		if t < e.alive || t >= e.dead {
			continue
		}
		if !fn(k, e.value) {
			return
		}
	}
}
