package channel

// ErrNotInitialized is returned when sending before Initialize. This is a
// programmer error surfaced synchronously to catch integration bugs early.
type ErrNotInitialized struct{}

func (e *ErrNotInitialized) Error() string {
	return "channel is not initialized"
}

// ErrTimeout is returned when no correlated reply arrived within the
// configured timeout across all retry attempts.
type ErrTimeout struct{}

func (e *ErrTimeout) Error() string {
	return "timed out waiting for reply"
}

// ErrBackpressure is returned immediately when the number of in-flight sends
// is at capacity.
type ErrBackpressure struct{}

func (e *ErrBackpressure) Error() string {
	return "too many pending sends"
}

// ErrDisconnected is returned to pending senders when the channel is torn down.
type ErrDisconnected struct{}

func (e *ErrDisconnected) Error() string {
	return "channel is disconnected"
}

func IsTimeout(err error) bool {
	_, ok := err.(*ErrTimeout)
	return ok
}

func IsBackpressure(err error) bool {
	_, ok := err.(*ErrBackpressure)
	return ok
}
