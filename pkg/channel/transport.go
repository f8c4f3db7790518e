package channel

import "sync"

// Transport moves raw frames between the editor and the simulator context.
// Frames within one direction arrive in post order.
type Transport interface {
	// Post writes a frame to the peer.
	Post(b []byte) error
	// Inbound returns the channel of frames from the peer. The channel is
	// closed when the transport closes.
	Inbound() <-chan []byte
	// Close tears down the transport. Safe to call multiple times.
	Close() error
}

const pipeBufferSize = 64

// PipeTransport is an in-process Transport pair, used when the simulator runs
// embedded in the same process and as a test double for the wire transports.
type PipeTransport struct {
	peer      chan []byte
	inbound   chan []byte
	closeOnce sync.Once
	lock      sync.Mutex
	closed    bool
}

// NewPipe returns two connected transports: frames posted on one side arrive
// on the other side's Inbound channel.
func NewPipe() (*PipeTransport, *PipeTransport) {
	a := make(chan []byte, pipeBufferSize)
	b := make(chan []byte, pipeBufferSize)
	left := &PipeTransport{peer: a, inbound: b}
	right := &PipeTransport{peer: b, inbound: a}
	return left, right
}

func (t *PipeTransport) Post(b []byte) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.closed {
		return &ErrDisconnected{}
	}
	select {
	case t.peer <- b:
		return nil
	default:
		return &ErrBackpressure{}
	}
}

func (t *PipeTransport) Inbound() <-chan []byte {
	return t.inbound
}

// Close marks this side closed and closes the peer-facing channel so the
// other side's read loop ends. The inbound channel is left to the peer.
func (t *PipeTransport) Close() error {
	t.closeOnce.Do(func() {
		t.lock.Lock()
		t.closed = true
		t.lock.Unlock()
		close(t.peer)
	})
	return nil
}
