// internal/store/cell.go
//
// A Cell is the observable value every piece of session state lives in.
// Writers replace the whole value with Set; readers either Get it or
// Subscribe and get called back on every replacement.

package store

// Unsubscribe removes a subscriber registered with Cell.Subscribe.
// Calling it more than once is a no-op.
type Unsubscribe func()

type subscriber[T any] struct {
	fn     func(T)
	active bool
}

// Cell holds a value and notifies subscribers synchronously when it changes.
//
// A Cell is owned by a single session and is not safe for concurrent use:
// Set runs every subscriber on the calling goroutine before it returns.
// A subscriber that calls Set (on this or another cell) runs those
// notifications first; avoiding mutual recursion is up to the caller.
type Cell[T any] struct {
	value T
	subs  []*subscriber[T]
}

// New creates a cell holding initial.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	return c.value
}

// Set replaces the value and notifies every subscriber in subscription
// order. Equal values still notify.
func (c *Cell[T]) Set(value T) {
	c.value = value
	// Snapshot so subscribers added during notification wait for the next Set.
	subs := append([]*subscriber[T](nil), c.subs...)
	for _, sub := range subs {
		if !sub.active {
			continue
		}
		sub.fn(value)
	}
}

// Update sets the value returned by fn applied to the current value.
func (c *Cell[T]) Update(fn func(T) T) {
	if fn == nil {
		return
	}
	c.Set(fn(c.value))
}

// Subscribe registers fn and immediately calls it with the current value.
func (c *Cell[T]) Subscribe(fn func(T)) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	sub := &subscriber[T]{fn: fn, active: true}
	c.subs = append(c.subs, sub)
	fn(c.value)
	return func() {
		c.remove(sub)
	}
}

// Subscribers reports how many subscribers are currently registered.
func (c *Cell[T]) Subscribers() int {
	return len(c.subs)
}

func (c *Cell[T]) remove(target *subscriber[T]) {
	if !target.active {
		return
	}
	target.active = false
	for i, sub := range c.subs {
		if sub == target {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}
