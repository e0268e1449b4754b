package network

import (
	"fmt"
	"net"
	"strings"
)

// IPAddress represents an IP address assignment.
type IPAddress struct {
	IP     string `json:"ip" yaml:"ip"`
	Prefix int    `json:"prefix" yaml:"prefix"`
	Family string `json:"family" yaml:"family"`
}

// GetAddresses extracts IP addresses assigned to a network interface.
func GetAddresses(iface net.Interface) ([]IPAddress, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("failed to get addresses for interface %s: %w", iface.Name, err)
	}

	return toIPAddresses(addrs), nil
}

func toIPAddresses(addrs []net.Addr) []IPAddress {
	result := []IPAddress{}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		family := "ipv4"
		if ipNet.IP.To4() == nil {
			family = "ipv6"
		}

		ones, _ := ipNet.Mask.Size()

		// Drop a zone identifier if present (fe80::1%wlan0 -> fe80::1)
		ipStr := ipNet.IP.String()
		if idx := strings.Index(ipStr, "%"); idx != -1 {
			ipStr = ipStr[:idx]
		}

		result = append(result, IPAddress{
			IP:     ipStr,
			Prefix: ones,
			Family: family,
		})
	}

	return result
}
