package transport

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const (
	bluezBusName         = "org.bluez"
	bluezDeviceInterface = "org.bluez.Device1"

	// DefaultRFCOMMChannel is where HC-06 class modules expose the Serial
	// Port Profile.
	DefaultRFCOMMChannel = 1
)

// BluezDiscoverer finds paired devices through the BlueZ D-Bus API and dials
// them over an RFCOMM socket.
type BluezDiscoverer struct {
	conn    *dbus.Conn
	channel uint8
}

// NewBluezDiscoverer connects to the system bus. A channel of 0 selects
// DefaultRFCOMMChannel.
func NewBluezDiscoverer(channel uint8) (*BluezDiscoverer, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: system D-Bus: %v", ErrUnavailable, err)
	}
	if channel == 0 {
		channel = DefaultRFCOMMChannel
	}
	return &BluezDiscoverer{conn: conn, channel: channel}, nil
}

// FindPairedDevice enumerates BlueZ's managed objects, matches a paired
// device by Name or Alias, and opens an RFCOMM stream to it.
func (d *BluezDiscoverer) FindPairedDevice(ctx context.Context, name string) (Transport, error) {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	obj := d.conn.Object(bluezBusName, "/")
	call := obj.CallWithContext(ctx, "org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0)
	if call.Err != nil {
		return nil, fmt.Errorf("%w: listing BlueZ objects: %v", ErrUnavailable, call.Err)
	}
	if err := call.Store(&objects); err != nil {
		return nil, fmt.Errorf("%w: decoding BlueZ objects: %v", ErrUnavailable, err)
	}

	for path, ifaces := range objects {
		dev, ok := ifaces[bluezDeviceInterface]
		if !ok {
			continue
		}
		paired, _ := dev["Paired"].Value().(bool)
		devName, _ := dev["Name"].Value().(string)
		alias, _ := dev["Alias"].Value().(string)
		if !paired || (devName != name && alias != name) {
			continue
		}
		address, _ := dev["Address"].Value().(string)
		if address == "" {
			continue
		}
		log.Debug().
			Str("device", name).
			Str("address", address).
			Str("path", string(path)).
			Uint8("channel", d.channel).
			Msg("dialing RFCOMM")
		return dialRFCOMM(address, d.channel)
	}

	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// dialRFCOMM opens a stream RFCOMM socket to the given Bluetooth address.
// The socket is switched to non-blocking after connect so the runtime poller
// manages it, which is what lets Close unblock a pending read.
func dialRFCOMM(address string, channel uint8) (Transport, error) {
	addr, err := parseBDAddr(address)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("%w: RFCOMM socket: %v", ErrUnavailable, err)
	}
	sa := &unix.SockaddrRFCOMM{Addr: addr, Channel: channel}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("connecting RFCOMM to %s channel %d: %w", address, channel, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setting RFCOMM socket non-blocking: %w", err)
	}

	return NewStream(os.NewFile(uintptr(fd), "rfcomm:"+address)), nil
}

// parseBDAddr converts a textual AA:BB:CC:DD:EE:FF address into the
// little-endian byte order bdaddr_t sockaddrs use.
func parseBDAddr(address string) ([6]byte, error) {
	var addr [6]byte
	parts := strings.Split(address, ":")
	if len(parts) != 6 {
		return addr, fmt.Errorf("malformed bluetooth address %q", address)
	}
	for i, part := range parts {
		b, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return addr, fmt.Errorf("malformed bluetooth address %q: %v", address, err)
		}
		addr[5-i] = byte(b)
	}
	return addr, nil
}
