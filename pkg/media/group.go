// ABOUTME: Fixed-capacity buffer pool for pipeline output buffers
// ABOUTME: Acquire hands out pre-allocated buffers; Release returns them
package media

import "errors"

// ErrExhausted is returned by Group.Acquire when every buffer in the
// group is checked out. Groups are sized for the pipeline's in-flight
// concurrency up front, so hitting this indicates a capacity bug in the
// caller, not a transient condition worth retrying.
var ErrExhausted = errors.New("media: buffer group exhausted")

// Group is a fixed set of equally sized, reusable buffers. Stages
// acquire one buffer per output and never allocate output memory
// directly.
type Group struct {
	free chan *Buffer
	size int
}

// NewGroup pre-allocates count buffers of size bytes each.
func NewGroup(count, size int) *Group {
	g := &Group{
		free: make(chan *Buffer, count),
		size: size,
	}
	for i := 0; i < count; i++ {
		b := NewBuffer(make([]byte, size))
		b.release = g.put
		g.free <- b
	}
	return g
}

// Acquire checks a buffer out of the group. The buffer's window covers
// its full capacity and carries no timestamp.
func (g *Group) Acquire() (*Buffer, error) {
	select {
	case b := <-g.free:
		b.released = false
		return b, nil
	default:
		return nil, ErrExhausted
	}
}

// BufferSize returns the capacity of each buffer in the group.
func (g *Group) BufferSize() int {
	return g.size
}

func (g *Group) put(b *Buffer) {
	b.offset = 0
	b.length = g.size
	g.free <- b
}
