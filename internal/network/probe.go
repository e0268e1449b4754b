package network

import (
	"context"
	"errors"
)

// Probe normalizes the output of an IdentityProvider into an Identity.
type Probe struct {
	provider   IdentityProvider
	interfaces func() ([]NetworkInterface, error)
}

// NewProbe creates a probe over provider.
func NewProbe(provider IdentityProvider) *Probe {
	return &Probe{
		provider:   provider,
		interfaces: GetInterfaces,
	}
}

// WithInterfaces replaces the interface enumerator used to explain an unknown
// identity.
func (p *Probe) WithInterfaces(list func() ([]NetworkInterface, error)) *Probe {
	p.interfaces = list
	return p
}

// Identity reads the current identity. It never fails: an unreadable identity
// is returned as unknown with a Reason.
func (p *Probe) Identity(ctx context.Context) Identity {
	raw, err := p.provider.CurrentIdentity(ctx)
	if err != nil {
		if errors.Is(err, ErrCommandUnavailable) {
			return UnknownIdentity(ReasonCommandUnavailable)
		}
		return UnknownIdentity(p.reason())
	}

	name, ok := Normalize(raw)
	if !ok {
		return UnknownIdentity(p.reason())
	}

	return KnownIdentity(name)
}

func (p *Probe) reason() string {
	if p.interfaces == nil {
		return ReasonUnreadable
	}

	ifaces, err := p.interfaces()
	if err != nil {
		return ReasonUnreadable
	}

	return WirelessReason(ifaces)
}
