package network

import (
	"net"
)

// Link states.
const (
	LinkUp   = "up"
	LinkDown = "down"
)

// GetLinkState determines the link state (up/down) of a network interface.
func GetLinkState(iface net.Interface) string {
	if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagRunning != 0 {
		return LinkUp
	}
	return LinkDown
}
