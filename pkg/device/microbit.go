package device

import (
	"strings"
	"sync"

	"github.com/ottobit/simbridge/pkg/log"
)

// MicrobitConnection is a minimal two-state machine over a micro:bit USB
// link. Connect is a logical handshake only; no physical negotiation happens
// at this layer.
type MicrobitConnection struct {
	lock      sync.Mutex
	connected bool
}

func NewMicrobitConnection() *MicrobitConnection {
	return &MicrobitConnection{}
}

// Connect transitions to connected. It always succeeds unless a transport
// implementation overrides the handshake.
func (c *MicrobitConnection) Connect() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.connected {
		return nil
	}
	c.connected = true
	log.Info("micro:bit connected (USB)")
	return nil
}

// Disconnect transitions to disconnected. Idempotent.
func (c *MicrobitConnection) Disconnect() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.connected {
		return nil
	}
	c.connected = false
	log.Info("micro:bit disconnected")
	return nil
}

func (c *MicrobitConnection) IsConnected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.connected
}

// GetConnectionStatus is a pure read alias for IsConnected.
func (c *MicrobitConnection) GetConnectionStatus() bool {
	return c.IsConnected()
}

// UploadCode accepts a hex artifact for flashing. The current implementation
// validates the payload shape and stops short of real I/O.
func (c *MicrobitConnection) UploadCode(code string) error {
	if !c.IsConnected() {
		return &ErrNotConnected{}
	}
	if err := validateHex(code); err != nil {
		return err
	}
	log.Info("Uploaded %d bytes to micro:bit", len(code))
	return nil
}

func validateHex(code string) error {
	if strings.TrimSpace(code) == "" {
		return &ErrInvalidHex{Reason: "empty payload"}
	}
	for _, line := range strings.Split(strings.TrimSpace(code), "\n") {
		if !strings.HasPrefix(line, ":") {
			return &ErrInvalidHex{Reason: "record missing start code"}
		}
	}
	return nil
}

// ErrInvalidHex is returned for payloads that are not Intel HEX records.
type ErrInvalidHex struct {
	Reason string
}

func (e *ErrInvalidHex) Error() string {
	return "invalid hex payload: " + e.Reason
}

// BluetoothConnection is a declared-but-stubbed transport.
type BluetoothConnection struct{}

func NewBluetoothConnection() *BluetoothConnection {
	return &BluetoothConnection{}
}

func (c *BluetoothConnection) Connect() error {
	return &ErrUnsupportedTransport{Transport: "bluetooth"}
}

func (c *BluetoothConnection) Disconnect() error {
	return nil
}

func (c *BluetoothConnection) IsConnected() bool {
	return false
}
