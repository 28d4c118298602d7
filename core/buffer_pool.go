package core

import (
	"bytes"
	"sync"
)

const (
	minEncodeBufferSize = 64 * 1024
	encodeClassFactor   = 4
)

// BufferPool hands out reusable buffers for image encoding, grouped by size
// class. Buffers that grew past the largest class are not pooled.
type BufferPool struct {
	classes []int
	pools   []*sync.Pool
}

// NewBufferPool builds classes from 64 KiB up to maxPooled, growing by 4x.
func NewBufferPool(maxPooled int) *BufferPool {
	if maxPooled < minEncodeBufferSize {
		maxPooled = minEncodeBufferSize
	}

	var classes []int
	for size := minEncodeBufferSize; size < maxPooled; size *= encodeClassFactor {
		classes = append(classes, size)
	}
	classes = append(classes, maxPooled)

	pools := make([]*sync.Pool, len(classes))
	for i, size := range classes {
		sz := size
		pools[i] = &sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, sz))
			},
		}
	}
	return &BufferPool{classes: classes, pools: pools}
}

// Get returns an empty buffer with room for at least hint bytes when hint fits a class.
func (p *BufferPool) Get(hint int) *bytes.Buffer {
	for i, size := range p.classes {
		if hint <= size {
			buf := p.pools[i].Get().(*bytes.Buffer)
			buf.Reset()
			return buf
		}
	}
	return bytes.NewBuffer(make([]byte, 0, hint))
}

// Put returns buf to the largest class it can serve.
func (p *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	idx := p.classFor(buf.Cap())
	if idx < 0 {
		return
	}
	buf.Reset()
	p.pools[idx].Put(buf)
}

// classFor returns the index of the largest class not above capacity, or -1
// when the buffer is too small for any class or too large to keep.
func (p *BufferPool) classFor(capacity int) int {
	if capacity > p.classes[len(p.classes)-1]*encodeClassFactor {
		return -1
	}
	idx := -1
	for i, size := range p.classes {
		if size <= capacity {
			idx = i
		}
	}
	return idx
}
