package listing

// accumulator is an identifier-keyed set that remembers first-insertion order.
// Upserting an identifier that is already present overwrites its value in place.
type accumulator[T any] struct {
	index map[string]int
	items []T
	keys  []string
}

func newAccumulator[T any]() *accumulator[T] {
	return &accumulator[T]{index: make(map[string]int)}
}

// upsert stores item under id, last write wins
func (a *accumulator[T]) upsert(id string, item T) {
	if i, ok := a.index[id]; ok {
		a.items[i] = item
		return
	}
	a.index[id] = len(a.items)
	a.items = append(a.items, item)
	a.keys = append(a.keys, id)
}

// remove deletes id and reports whether it was present
func (a *accumulator[T]) remove(id string) bool {
	i, ok := a.index[id]
	if !ok {
		return false
	}
	a.items = append(a.items[:i], a.items[i+1:]...)
	a.keys = append(a.keys[:i], a.keys[i+1:]...)
	delete(a.index, id)
	for j := i; j < len(a.keys); j++ {
		a.index[a.keys[j]] = j
	}
	return true
}

func (a *accumulator[T]) get(id string) (T, bool) {
	i, ok := a.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return a.items[i], true
}

func (a *accumulator[T]) clear() {
	a.index = make(map[string]int)
	a.items = nil
	a.keys = nil
}

func (a *accumulator[T]) len() int {
	return len(a.items)
}

// values returns a copy in insertion order
func (a *accumulator[T]) values() []T {
	out := make([]T, len(a.items))
	copy(out, a.items)
	return out
}
