package channel

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ottobit/simbridge/pkg/log"
	"github.com/ottobit/simbridge/pkg/messages"
)

// Config tunes a Channel. Zero fields take the defaults below.
type Config struct {
	// Timeout bounds one wait for a correlated reply.
	Timeout time.Duration
	// RetryAttempts is the number of additional sends after the first.
	RetryAttempts int
	// RetryDelay is the linear backoff unit: the wait before attempt n is
	// RetryDelay * n.
	RetryDelay time.Duration
	// MaxPending bounds in-flight sends; above it SendMessage rejects
	// immediately.
	MaxPending int
	// Source stamps outbound envelopes.
	Source string
}

const (
	DefaultTimeout       = 5 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
	DefaultMaxPending    = 32
)

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxPending == 0 {
		c.MaxPending = DefaultMaxPending
	}
	if c.Source == "" {
		c.Source = messages.SourceEditor
	}
	return c
}

// Handler receives the payload of an inbound message.
type Handler func(data json.RawMessage)

type handlerEntry struct {
	id      int
	handler Handler
}

// Channel provides request/response and event framing between the program
// editor and the simulator context, over any Transport.
type Channel struct {
	config Config

	lock        sync.Mutex
	transport   Transport
	handlers    map[messages.MessageType][]handlerEntry
	pending     map[uint64]chan *messages.Message
	isConnected bool
	isReady     bool
	done        chan struct{}

	seq       uint64
	handlerID int
}

func NewChannel(config Config) *Channel {
	return &Channel{
		config:   config.withDefaults(),
		handlers: make(map[messages.MessageType][]handlerEntry),
		pending:  make(map[uint64]chan *messages.Message),
	}
}

// Initialize binds the channel to a transport and starts dispatching inbound
// frames. A nil transport is a silent no-op: the caller retries or defers
// until the simulator is mounted.
func (c *Channel) Initialize(transport Transport) {
	if transport == nil {
		log.Warn("Channel initialize skipped: transport not available")
		return
	}

	c.lock.Lock()
	c.transport = transport
	c.isConnected = true
	c.isReady = false
	c.done = make(chan struct{})
	c.lock.Unlock()

	go c.readPump(transport)
}

func (c *Channel) readPump(transport Transport) {
	for b := range transport.Inbound() {
		msg, err := messages.DeserializeMessage(b)
		if err != nil {
			// Protocol noise or version skew; drop silently.
			log.Debug("Dropping inbound frame: %v", err)
			continue
		}

		if msg.Type == messages.MessageTypeReady {
			c.lock.Lock()
			c.isReady = true
			c.lock.Unlock()
		}

		if msg.ReplyTo != 0 {
			c.lock.Lock()
			waiter, ok := c.pending[msg.ReplyTo]
			if ok {
				delete(c.pending, msg.ReplyTo)
			}
			c.lock.Unlock()
			if ok {
				waiter <- msg
			}
		}

		c.dispatch(msg)
	}
}

// dispatch runs registered handlers synchronously in registration order.
func (c *Channel) dispatch(msg *messages.Message) {
	c.lock.Lock()
	entries := append([]handlerEntry(nil), c.handlers[msg.Type]...)
	c.lock.Unlock()

	for _, entry := range entries {
		entry.handler(msg.Data)
	}
}

// SendMessage posts a framed message and waits for the correlated reply.
// It returns ErrNotInitialized before Initialize, ErrBackpressure when too
// many sends are in flight, and ErrTimeout when every attempt (with linear
// backoff between them) goes unanswered.
func (c *Channel) SendMessage(ctx context.Context, msg *messages.Message) (*messages.Message, error) {
	c.lock.Lock()
	transport := c.transport
	done := c.done
	if transport == nil || !c.isConnected {
		c.lock.Unlock()
		return nil, &ErrNotInitialized{}
	}
	if len(c.pending) >= c.config.MaxPending {
		c.lock.Unlock()
		return nil, &ErrBackpressure{}
	}

	seq := atomic.AddUint64(&c.seq, 1)
	msg.Seq = seq
	if msg.Source == "" {
		msg.Source = c.config.Source
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	waiter := make(chan *messages.Message, 1)
	c.pending[seq] = waiter
	c.lock.Unlock()

	defer func() {
		c.lock.Lock()
		delete(c.pending, seq)
		c.lock.Unlock()
	}()

	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.config.RetryDelay
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-done:
				return nil, &ErrDisconnected{}
			}
		}

		if err := transport.Post(b); err != nil {
			log.Debug("Post attempt %d failed: %v", attempt+1, err)
			continue
		}

		select {
		case reply := <-waiter:
			return reply, nil
		case <-time.After(c.config.Timeout):
			log.Debug("No reply for %s (seq %d) within %s", msg.Type, seq, c.config.Timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
			return nil, &ErrDisconnected{}
		}
	}

	return nil, &ErrTimeout{}
}

// OnMessage subscribes a handler to a message type and returns an id for
// OffMessage. Multiple handlers per type run in registration order.
func (c *Channel) OnMessage(msgType messages.MessageType, handler Handler) int {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.handlerID++
	c.handlers[msgType] = append(c.handlers[msgType], handlerEntry{
		id:      c.handlerID,
		handler: handler,
	})
	return c.handlerID
}

// OffMessage removes the handler registered under id for the given type.
func (c *Channel) OffMessage(msgType messages.MessageType, id int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	entries := c.handlers[msgType]
	for i, entry := range entries {
		if entry.id == id {
			c.handlers[msgType] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(c.handlers[msgType]) == 0 {
		delete(c.handlers, msgType)
	}
}

// ConnectionStatus reports transport presence and simulator readiness.
// The two are distinct: a channel can be connected before the simulator has
// sent READY.
func (c *Channel) ConnectionStatus() (isConnected bool, isReady bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.isConnected, c.isReady
}

// Disconnect tears down the transport and fails pending sends. It is safe to
// call multiple times.
func (c *Channel) Disconnect() {
	c.lock.Lock()
	transport := c.transport
	c.transport = nil
	c.isConnected = false
	c.isReady = false
	c.handlers = make(map[messages.MessageType][]handlerEntry)
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.lock.Unlock()

	if transport != nil {
		if err := transport.Close(); err != nil {
			log.Debug("Error closing transport: %v", err)
		}
	}
}
