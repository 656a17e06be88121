package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// DefaultBaudRate matches the factory setting of HC-06 modules.
const DefaultBaudRate = 9600

// SerialDiscoverer opens a local serial port instead of a Bluetooth socket,
// for peripherals wired straight to the host (or an rfcomm tty bound by the
// OS). The device name passed to FindPairedDevice is ignored; the port path
// identifies the peripheral.
type SerialDiscoverer struct {
	Path     string
	BaudRate int
}

// FindPairedDevice opens the configured port at 8N1.
func (d *SerialDiscoverer) FindPairedDevice(ctx context.Context, name string) (Transport, error) {
	baud := d.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	log.Debug().Str("port", d.Path).Int("baud", baud).Msg("opening serial port")
	port, err := serial.Open(d.Path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		var portErr *serial.PortError
		if errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, d.Path)
		}
		return nil, fmt.Errorf("opening serial port %s: %w", d.Path, err)
	}

	return NewStream(port), nil
}
