// ABOUTME: Media buffer with a movable data window and timestamp metadata
// ABOUTME: Supports single-owner handoff and release back to a pool
package media

import "fmt"

// Buffer is a reusable block of media data. The valid payload is the
// window [RangeOffset, RangeOffset+RangeLength) over the backing slice;
// consumption is expressed by shrinking the window with SetRange rather
// than by copying.
type Buffer struct {
	data   []byte
	offset int
	length int

	timeUs  int64
	hasTime bool

	release  func(*Buffer)
	released bool
}

// NewBuffer wraps data in a Buffer whose window covers the whole slice.
// Buffers created this way are not pooled; Release is a metadata reset.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data, length: len(data)}
}

// Data returns the full backing slice, ignoring the window.
func (b *Buffer) Data() []byte {
	return b.data
}

// Bytes returns the current window of the payload.
func (b *Buffer) Bytes() []byte {
	return b.data[b.offset : b.offset+b.length]
}

// SetRange moves the payload window. Panics if the window falls outside
// the backing slice; a stage corrupting its cursor arithmetic is a bug,
// not a recoverable condition.
func (b *Buffer) SetRange(offset, length int) {
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		panic(fmt.Sprintf("media: SetRange [%d,%d) outside buffer of %d bytes",
			offset, offset+length, len(b.data)))
	}
	b.offset = offset
	b.length = length
}

// RangeOffset returns the window start.
func (b *Buffer) RangeOffset() int {
	return b.offset
}

// RangeLength returns the window length.
func (b *Buffer) RangeLength() int {
	return b.length
}

// TimeUs returns the buffer timestamp in microseconds and whether one
// has been set.
func (b *Buffer) TimeUs() (int64, bool) {
	return b.timeUs, b.hasTime
}

// SetTimeUs stamps the buffer with a timestamp in microseconds.
func (b *Buffer) SetTimeUs(us int64) {
	b.timeUs = us
	b.hasTime = true
}

// ClearTimeUs removes the timestamp.
func (b *Buffer) ClearTimeUs() {
	b.timeUs = 0
	b.hasTime = false
}

// Release ends the caller's ownership of the buffer. Pooled buffers
// return to their Group; detached buffers just reset their metadata.
// Releasing twice panics: it means two owners thought they held the
// buffer.
func (b *Buffer) Release() {
	if b.released {
		panic("media: buffer released twice")
	}
	b.ClearTimeUs()
	if b.release != nil {
		b.released = true
		b.release(b)
		return
	}
	b.offset = 0
	b.length = len(b.data)
}
