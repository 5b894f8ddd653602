package stringcfg

import "container/list"

// lru is a fixed-capacity least-recently-used map. It is not safe for
// concurrent use; Configurator guards it.
type lru[K comparable, V any] struct {
	cap   int
	ll    *list.List
	items map[K]*list.Element
}

type lruItem[K comparable, V any] struct {
	key K
	val V
}

func newLRU[K comparable, V any](capacity int) *lru[K, V] {
	return &lru[K, V]{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[K]*list.Element),
	}
}

func (c *lru[K, V]) get(key K) (V, bool) {
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*lruItem[K, V]).val, true
	}
	var zero V
	return zero, false
}

// add inserts or refreshes key and reports whether an older entry was
// evicted to make room.
func (c *lru[K, V]) add(key K, val V) (evicted bool) {
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*lruItem[K, V]).val = val
		return false
	}
	c.items[key] = c.ll.PushFront(&lruItem[K, V]{key: key, val: val})
	if c.ll.Len() <= c.cap {
		return false
	}
	oldest := c.ll.Back()
	c.ll.Remove(oldest)
	delete(c.items, oldest.Value.(*lruItem[K, V]).key)
	return true
}

func (c *lru[K, V]) len() int {
	return c.ll.Len()
}
