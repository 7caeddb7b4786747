package registry

import (
	"path"
	"strings"
)

const devicePrefix = "device_"

// Match is a registry entry selected for a device.
type Match struct {
	Repository   string // e.g. "device_acme_widget"
	Manufacturer string // e.g. "acme"
	Device       string // e.g. "widget"
}

// Path returns the checkout path for the device tree, device/<manufacturer>/<device>.
func (m Match) Path() string {
	return path.Join("device", m.Manufacturer, m.Device)
}

// DeviceFromProduct strips the ROM prefix from a lunch product name:
// "rising_widget" -> "widget". A product without "_" is returned unchanged.
func DeviceFromProduct(product string) string {
	if i := strings.Index(product, "_"); i >= 0 {
		return product[i+1:]
	}
	return product
}

// MatchDevice returns the first repository named
// device_<manufacturer>_<device> with a non-empty manufacturer.
func MatchDevice(names []string, device string) (Match, bool) {
	suffix := "_" + device
	for _, name := range names {
		if !strings.HasPrefix(name, devicePrefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		if len(name) <= len(devicePrefix)+len(suffix) {
			continue
		}
		return Match{
			Repository:   name,
			Manufacturer: name[len(devicePrefix) : len(name)-len(suffix)],
			Device:       device,
		}, true
	}
	return Match{}, false
}
