package websocket

import (
	"errors"
	"sync"

	"github.com/eapache/queue"
)

// ErrOutboxClosed is returned by Send once the connection is going away
var ErrOutboxClosed = errors.New("outbox closed")

// outbox is the unbounded outbound queue of one connection. Producers never
// block; the write pump drains it whenever ready fires.
type outbox struct {
	mu     sync.Mutex
	frames *queue.Queue
	closed bool
	ready  chan struct{}
}

func newOutbox() *outbox {
	return &outbox{
		frames: queue.New(),
		ready:  make(chan struct{}, 1),
	}
}

// Send queues frame for delivery
func (o *outbox) Send(frame []byte) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrOutboxClosed
	}
	o.frames.Add(frame)
	o.mu.Unlock()

	o.signal()
	return nil
}

// Close stops accepting frames. Frames already queued are still drained.
func (o *outbox) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}

// drain removes every queued frame in order and reports whether the outbox
// has been closed.
func (o *outbox) drain() ([][]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	frames := make([][]byte, 0, o.frames.Length())
	for o.frames.Length() > 0 {
		frames = append(frames, o.frames.Remove().([]byte))
	}
	return frames, o.closed
}

// Len returns the number of frames waiting
func (o *outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frames.Length()
}
