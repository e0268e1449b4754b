// Package network reads the identity of the associated network and watches
// the local interfaces for changes.
//
//go:generate go tool mockgen -destination=mock_provider.go -package=network github.com/fzdarsky/portalpass/internal/network IdentityProvider
package network

import (
	"context"
	"strings"
)

// UnknownSSID is the sentinel some platforms report when the SSID is hidden
// from the caller.
const UnknownSSID = "<unknown ssid>"

// offAny is printed by wireless-tools when the interface is not associated.
const offAny = "off/any"

// Reasons an identity may be unknown.
const (
	ReasonNoWireless         = "no wireless interface found"
	ReasonWirelessDown       = "wireless interface is down"
	ReasonCommandUnavailable = "network identity command is not available"
	ReasonUnreadable         = "network identity is unreadable (not associated, or access denied)"
)

// IdentityProvider returns the raw identifier of the associated network.
// Implementations may return an empty string, a sentinel, or an error; the
// Probe normalizes all of those.
type IdentityProvider interface {
	CurrentIdentity(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to IdentityProvider.
type ProviderFunc func(ctx context.Context) (string, error)

// CurrentIdentity calls f(ctx).
func (f ProviderFunc) CurrentIdentity(ctx context.Context) (string, error) {
	return f(ctx)
}

// Identity is the normalized network identity.
type Identity struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Known bool   `json:"known" yaml:"known"`
	// Reason explains why the identity is unknown.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// KnownIdentity creates a known identity.
func KnownIdentity(name string) Identity {
	return Identity{Name: name, Known: true}
}

// UnknownIdentity creates an unknown identity with a reason.
func UnknownIdentity(reason string) Identity {
	return Identity{Reason: reason}
}

// Is reports whether the identity is known and equal to target.
// The comparison is exact and case-sensitive.
func (i Identity) Is(target string) bool {
	return i.Known && i.Name == target
}

// OffTarget reports whether the identity is known and differs from target.
func (i Identity) OffTarget(target string) bool {
	return i.Known && i.Name != target
}

// String implements fmt.Stringer.
func (i Identity) String() string {
	if i.Known {
		return i.Name
	}
	if i.Reason != "" {
		return "unknown (" + i.Reason + ")"
	}
	return "unknown"
}

// Normalize cleans a raw identifier. It returns false when the value is empty
// or one of the unknown sentinels.
func Normalize(raw string) (string, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))

	if cleaned == "" ||
		strings.EqualFold(cleaned, UnknownSSID) ||
		strings.EqualFold(cleaned, offAny) {
		return "", false
	}

	return cleaned, true
}
