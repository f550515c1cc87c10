package stream

import (
	"sync"

	"github.com/tesselslate/deskctl/internal/capture"
)

// Frame is a single captured image.
type Frame struct {
	ID        uint64 // Sequence number, starting at 1
	Timestamp int64  // Capture time in Unix milliseconds
	Image     *capture.Image
}

// FrameBuffer is a bounded FIFO of frames. When full, pushing a frame drops
// the oldest one so that consumers always see recent frames.
type FrameBuffer struct {
	mu      sync.Mutex
	frames  []Frame
	head    int
	size    int
	dropped uint64
}

// NewFrameBuffer creates a buffer which holds up to capacity frames.
func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameBuffer{frames: make([]Frame, capacity)}
}

// Push adds a frame to the buffer. It returns true if the oldest frame was
// dropped to make room.
func (b *FrameBuffer) Push(f Frame) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	dropped := b.size == len(b.frames)
	if dropped {
		b.frames[b.head] = Frame{}
		b.head = (b.head + 1) % len(b.frames)
		b.size--
		b.dropped++
	}
	b.frames[(b.head+b.size)%len(b.frames)] = f
	b.size++
	return dropped
}

// Pop removes and returns the oldest frame.
func (b *FrameBuffer) Pop() (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.size == 0 {
		return Frame{}, false
	}
	f := b.frames[b.head]
	b.frames[b.head] = Frame{}
	b.head = (b.head + 1) % len(b.frames)
	b.size--
	return f, true
}

// Len returns the number of buffered frames.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the capacity of the buffer.
func (b *FrameBuffer) Cap() int {
	return len(b.frames)
}

// Dropped returns the number of frames dropped since creation.
func (b *FrameBuffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
