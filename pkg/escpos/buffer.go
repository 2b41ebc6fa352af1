// pkg/escpos/buffer.go
package escpos

// chunk is either a single byte or a byte slice
type chunk struct {
	single bool
	b      byte
	data   []byte
}

func (c chunk) size() int {
	if c.single {
		return 1
	}
	return len(c.data)
}

// Buffer is an append-only queue of byte chunks. Output order is insertion
// order; nothing is validated here.
type Buffer struct {
	chunks []chunk
}

// PushByte appends a single byte chunk
func (b *Buffer) PushByte(v byte) {
	b.chunks = append(b.chunks, chunk{single: true, b: v})
}

// Push appends data as one chunk. The slice is kept by reference.
func (b *Buffer) Push(data []byte) {
	b.chunks = append(b.chunks, chunk{data: data})
}

// Len returns the number of queued chunks
func (b *Buffer) Len() int {
	return len(b.chunks)
}

// Size returns the number of bytes Flatten would produce
func (b *Buffer) Size() int {
	total := 0
	for _, c := range b.chunks {
		total += c.size()
	}
	return total
}

// Flatten copies every chunk into one slice and empties the buffer
func (b *Buffer) Flatten() []byte {
	out := make([]byte, b.Size())

	offset := 0
	for _, c := range b.chunks {
		if c.single {
			out[offset] = c.b
			offset++
			continue
		}
		offset += copy(out[offset:], c.data)
	}

	b.Reset()
	return out
}

// Reset drops every queued chunk
func (b *Buffer) Reset() {
	b.chunks = nil
}
