// Package buf provides a growable byte buffer used by the pipeline
// executor's rotating scratch buffers, with grow-by-doubling allocation.
package buf

// Buffer is an owned, growable byte container. The zero value is ready to
// use. Bytes exposes the contents without copying and Clone returns an
// independent copy, which is what the pipeline executor needs to rotate
// two scratch buffers between stages.
type Buffer struct {
	data []byte
}

// New returns a Buffer pre-sized to hold at least capacity bytes without
// reallocating.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Append copies p onto the end of the buffer, growing as needed.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(c byte) {
	b.data = append(b.data, c)
}

// AppendString copies s onto the end of the buffer.
func (b *Buffer) AppendString(s string) {
	b.data = append(b.data, s...)
}

// Bytes returns the buffer's contents. The returned slice is valid until the
// next call to Append/Reset; callers that need to retain it must copy.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len reports the number of bytes currently held.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Reset empties the buffer without releasing its backing array, so the next
// stage in a pipeline can reuse the allocation.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// Clone returns a new, independently owned copy of the buffer's contents.
func (b *Buffer) Clone() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}
