package cache

import (
	"container/list"
	"sync"
	"time"
)

// UserCache is an LRU cache partitioned by user. Entries older than the TTL
// read as missing, and all of a user's entries can be dropped at once when
// that user writes.
type UserCache[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	order    *list.List
	byUser   map[string]map[string]*list.Element
}

type entry[T any] struct {
	user, key string
	value     T
	expiresAt time.Time
}

// NewUserCache holds at most capacity entries across all users.
func NewUserCache[T any](capacity int, ttl time.Duration) *UserCache[T] {
	return &UserCache[T]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		order:    list.New(),
		byUser:   make(map[string]map[string]*list.Element),
	}
}

func (c *UserCache[T]) Get(user, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.byUser[user][key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if c.now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *UserCache[T]) Set(user, key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{user: user, key: key, value: value, expiresAt: c.now().Add(c.ttl)}
	keys, ok := c.byUser[user]
	if !ok {
		keys = make(map[string]*list.Element)
		c.byUser[user] = keys
	}
	if elem, ok := keys[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	keys[key] = c.order.PushFront(e)

	for c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
}

// InvalidateUser drops every entry of user and returns how many there were.
func (c *UserCache[T]) InvalidateUser(user string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.byUser[user]
	for _, elem := range keys {
		c.order.Remove(elem)
	}
	delete(c.byUser, user)
	return len(keys)
}

func (c *UserCache[T]) remove(elem *list.Element) {
	e := elem.Value.(*entry[T])
	c.order.Remove(elem)
	if keys := c.byUser[e.user]; keys != nil {
		delete(keys, e.key)
		if len(keys) == 0 {
			delete(c.byUser, e.user)
		}
	}
}

// CleanExpired removes expired entries and returns how many went away.
func (c *UserCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			c.remove(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *UserCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
