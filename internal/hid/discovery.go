package hid

import (
	"github.com/karalabe/hid"
)

// DeviceInfo describes a discovered HID device for listing and selection.
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Path         string
	Manufacturer string
	Product      string
	SerialNumber string
	UsagePage    uint16
	Usage        uint16
}

// ListDevices returns every HID device visible on the system.
func ListDevices() ([]DeviceInfo, error) {
	devices := hid.Enumerate(0, 0)

	result := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		result[i] = DeviceInfo{
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Path:         d.Path,
			Manufacturer: d.Manufacturer,
			Product:      d.Product,
			SerialNumber: d.Serial,
			UsagePage:    d.UsagePage,
			Usage:        d.Usage,
		}
	}

	return result, nil
}

// IsBuzzReceiver reports whether the device identifiers match a known Buzz
// receiver.
func IsBuzzReceiver(vendorID, productID uint16) bool {
	return vendorID == VendorSony &&
		(productID == ProductBuzzWireless || productID == ProductBuzzWired)
}
