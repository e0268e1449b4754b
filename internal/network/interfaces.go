package network

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// DefaultSysfsRoot is where Linux exposes network device attributes.
const DefaultSysfsRoot = "/sys/class/net"

// NetworkInterface represents a single network interface.
//
//nolint:revive // network.NetworkInterface reads fine at call sites outside the package
type NetworkInterface struct {
	Name        string      `json:"name" yaml:"name"`
	MACAddress  string      `json:"mac_address" yaml:"mac_address"`
	LinkState   string      `json:"link_state" yaml:"link_state"`
	Wireless    bool        `json:"wireless" yaml:"wireless"`
	IPAddresses []IPAddress `json:"ip_addresses" yaml:"ip_addresses"`
}

// Up reports whether the link is up.
func (i NetworkInterface) Up() bool {
	return i.LinkState == LinkUp
}

// GetInterfaces enumerates all non-loopback network interfaces on the system.
func GetInterfaces() ([]NetworkInterface, error) {
	return getInterfaces(net.Interfaces, DefaultSysfsRoot)
}

func getInterfaces(list func() ([]net.Interface, error), sysfsRoot string) ([]NetworkInterface, error) {
	ifaces, err := list()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate network interfaces: %w", err)
	}

	result := make([]NetworkInterface, 0, len(ifaces))

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := GetAddresses(iface)
		if err != nil {
			return nil, err
		}

		result = append(result, NetworkInterface{
			Name:        iface.Name,
			MACAddress:  iface.HardwareAddr.String(),
			LinkState:   GetLinkState(iface),
			Wireless:    IsWireless(sysfsRoot, iface.Name),
			IPAddresses: addrs,
		})
	}

	return result, nil
}

// IsWireless reports whether the named interface is an 802.11 device.
// cfg80211 drivers expose a "wireless" or "phy80211" entry under sysfs.
func IsWireless(sysfsRoot, name string) bool {
	for _, entry := range []string{"wireless", "phy80211"} {
		if _, err := os.Stat(filepath.Join(sysfsRoot, name, entry)); err == nil {
			return true
		}
	}
	return false
}

// WirelessReason derives why the identity may be unreadable from the
// wireless interfaces present.
func WirelessReason(ifaces []NetworkInterface) string {
	found := false
	for _, iface := range ifaces {
		if !iface.Wireless {
			continue
		}
		found = true
		if iface.Up() {
			return ReasonUnreadable
		}
	}

	if !found {
		return ReasonNoWireless
	}
	return ReasonWirelessDown
}
