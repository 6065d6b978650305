package hexgame

import "sort"

// Indexable is anything keyed by a stable integer id.
type Indexable interface {
	Index() int
}

// OrderedList keeps items sorted by Index with constant-time lookup.
type OrderedList[T Indexable] struct {
	items []T
	byID  map[int]T
}

func NewOrderedList[T Indexable]() *OrderedList[T] {
	return &OrderedList[T]{byID: make(map[int]T)}
}

// Insert adds item. It returns false when the id is already present.
func (l *OrderedList[T]) Insert(item T) bool {
	id := item.Index()
	if _, ok := l.byID[id]; ok {
		return false
	}
	l.byID[id] = item
	i := sort.Search(len(l.items), func(i int) bool { return l.items[i].Index() > id })
	var zero T
	l.items = append(l.items, zero)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = item
	return true
}

func (l *OrderedList[T]) Delete(id int) bool {
	if _, ok := l.byID[id]; !ok {
		return false
	}
	delete(l.byID, id)
	for i, it := range l.items {
		if it.Index() == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			break
		}
	}
	return true
}

func (l *OrderedList[T]) Get(id int) (T, bool) {
	it, ok := l.byID[id]
	return it, ok
}

// All returns the items in ascending id order.
func (l *OrderedList[T]) All() []T {
	return append([]T(nil), l.items...)
}

func (l *OrderedList[T]) Count() int { return len(l.items) }

// NextID returns one past the largest id, or 0 for an empty list.
func (l *OrderedList[T]) NextID() int {
	if len(l.items) == 0 {
		return 0
	}
	return l.items[len(l.items)-1].Index() + 1
}
