package actuator

import (
	"time"

	"go.bug.st/serial"
)

// Port is the byte-oriented connection to one controller. Production uses a
// real serial port; tests substitute an in-memory implementation.
type Port interface {
	Write(p []byte) (int, error)
	Close() error
}

// PortOpener opens the port for a controller device path. It is the seam
// between the gateway and the physical link.
type PortOpener func(device string) (Port, error)

// DefaultBaudRate matches the controller firmware.
const DefaultBaudRate = 9600

// SerialOpener returns a PortOpener for real serial hardware. The short
// settle delay after open mirrors the controller's reset-on-connect
// behavior: commands written immediately after open are lost.
func SerialOpener(baudRate int) PortOpener {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return func(device string) (Port, error) {
		port, err := serial.Open(device, &serial.Mode{BaudRate: baudRate})
		if err != nil {
			return nil, err
		}
		time.Sleep(2 * time.Second)
		_ = port.ResetInputBuffer()
		return port, nil
	}
}
