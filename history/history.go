// Package history provides the bounded, most-recent-first buffers the session
// keeps for sent commands and received responses.
package history

// Buffer is a fixed-capacity sequence ordered most-recent-first. Pushing into
// a full buffer evicts the oldest entry.
//
// Buffer is not safe for concurrent use; the session serializes all access
// under its own mutex.
type Buffer struct {
	items    []string
	capacity int
}

// NewBuffer returns an empty buffer holding at most capacity entries.
// Capacities below 1 are clamped to 1.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		items:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// PushFront inserts item as the most recent entry, evicting the oldest entry
// first when the buffer is at capacity.
func (b *Buffer) PushFront(item string) {
	if len(b.items) == b.capacity {
		b.items = b.items[:len(b.items)-1]
	}
	b.items = append([]string{item}, b.items...)
}

// PopOldest removes and returns the oldest entry. ok is false when the buffer
// is empty, in which case nothing is removed.
func (b *Buffer) PopOldest() (item string, ok bool) {
	if len(b.items) == 0 {
		return "", false
	}
	item = b.items[len(b.items)-1]
	b.items = b.items[:len(b.items)-1]
	return item, true
}

// Items returns a copy of the buffer contents, most recent first.
func (b *Buffer) Items() []string {
	out := make([]string, len(b.items))
	copy(out, b.items)
	return out
}

// Len returns the number of entries currently held.
func (b *Buffer) Len() int {
	return len(b.items)
}

// Cap returns the configured capacity.
func (b *Buffer) Cap() int {
	return b.capacity
}
