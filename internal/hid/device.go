package hid

import (
	"fmt"
	"sync"

	"github.com/karalabe/hid"

	"github.com/thalaguer/buzzer/internal/buzz"
)

// Sony vendor and product identifiers for Buzz receivers. The wireless
// dongle and the wired handset chain present the same report layout.
const (
	VendorSony          uint16 = 0x054C
	ProductBuzzWireless uint16 = 0x1000
	ProductBuzzWired    uint16 = 0x0002
)

// Device wraps an opened HID handle and satisfies buzz.Transport.
type Device struct {
	mu     sync.Mutex
	device *hid.Device
	closed bool
}

// Opener discovers and claims a Buzz receiver. It satisfies
// buzz.TransportOpener; a zero VendorID/ProductID means "try the known
// Buzz identifiers in order" (wireless receiver first, then wired).
type Opener struct {
	VendorID  uint16
	ProductID uint16
}

// Open enumerates matching devices and claims the first interface that can
// be opened. Errors map onto the driver's taxonomy: no match is
// buzz.ErrDeviceNotFound, a match with no input-capable interface is
// buzz.ErrEndpointNotFound, and open failures on every candidate are
// buzz.ErrInterfaceUnavailable.
func (o Opener) Open() (buzz.Transport, error) {
	candidates := o.candidates()

	var found []hid.DeviceInfo
	for _, c := range candidates {
		found = append(found, hid.Enumerate(c.vendor, c.product)...)
		if len(found) > 0 {
			break
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w (tried %s)", buzz.ErrDeviceNotFound, describeCandidates(candidates))
	}

	usable := found[:0]
	for _, info := range found {
		if inputCapable(info) {
			usable = append(usable, info)
		}
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: 0x%04X:0x%04X", buzz.ErrEndpointNotFound,
			found[0].VendorID, found[0].ProductID)
	}

	// Some receivers expose several interfaces and not all of them open;
	// try each until one succeeds.
	var lastErr error
	for _, info := range usable {
		dev, err := info.Open()
		if err == nil {
			return &Device{device: dev}, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: 0x%04X:0x%04X: %v", buzz.ErrInterfaceUnavailable,
		usable[0].VendorID, usable[0].ProductID, lastErr)
}

type candidate struct {
	vendor  uint16
	product uint16
}

func (o Opener) candidates() []candidate {
	if o.VendorID != 0 && o.ProductID != 0 {
		return []candidate{{o.VendorID, o.ProductID}}
	}
	return []candidate{
		{VendorSony, ProductBuzzWireless},
		{VendorSony, ProductBuzzWired},
	}
}

func describeCandidates(cs []candidate) string {
	s := ""
	for i, c := range cs {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("0x%04X:0x%04X", c.vendor, c.product)
	}
	return s
}

// inputCapable filters out vendor-defined side channels some dongles
// present alongside the report interface.
func inputCapable(info hid.DeviceInfo) bool {
	// Usage pages at or above 0xFF00 are vendor-defined control channels.
	return info.UsagePage < 0xFF00
}

// Read blocks until the device delivers an input report.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, buzz.ErrClosed
	}
	dev := d.device
	d.mu.Unlock()

	return dev.Read(p)
}

// Write sends an output report to the device.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, buzz.ErrClosed
	}
	return d.device.Write(p)
}

// Close releases the claimed interface and unblocks a pending Read.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.device.Close()
}
