package device

// Connection abstracts a physical device link. Callers depend only on this
// three-method contract; a real USB or Bluetooth transport substitutes
// without changing call sites.
type Connection interface {
	Connect() error
	Disconnect() error
	IsConnected() bool
}

// Uploader is the extension point for transports that can receive compiled
// code. The current micro:bit implementation validates the payload but
// performs no real I/O.
type Uploader interface {
	UploadCode(code string) error
}

// ErrNotConnected is returned when uploading without an open connection.
type ErrNotConnected struct{}

func (e *ErrNotConnected) Error() string {
	return "device is not connected"
}

// ErrUnsupportedTransport is returned by transports that are declared but
// not implemented.
type ErrUnsupportedTransport struct {
	Transport string
}

func (e *ErrUnsupportedTransport) Error() string {
	return "unsupported transport: " + e.Transport
}
