package orchestrator

import (
	"fmt"

	"github.com/fzdarsky/portalpass/internal/credentials"
	"github.com/fzdarsky/portalpass/internal/network"
	"github.com/fzdarsky/portalpass/pkg/protocol"
)

// MessageReachable is the outcome of a probe that found working connectivity.
const MessageReachable = "network is reachable, no action needed"

func (o *Orchestrator) becomeReady(id string, trigger Trigger) {
	req := o.newRequest(id, ActionBecomeReady, false)
	req.log.Info("Evaluating network", map[string]any{"trigger": string(trigger)})

	stored := o.prefill(req)
	identity := o.readIdentity()

	switch {
	case identity.Is(o.target):
		o.onTarget(req, stored, identity)

	case identity.Known:
		msg := fmt.Sprintf("on network %s, switch to %s", identity.Name, o.target)
		req.status(SeverityWarning, msg)
		req.openNetworkSettings(msg)
		req.done(protocol.Failed(protocol.KindValidation, msg))

	default:
		o.reachabilityGated(req, stored, identity)
	}
}

func (o *Orchestrator) onTarget(req *request, stored credentials.Credentials, identity network.Identity) {
	req.status(SeverityInfo, fmt.Sprintf("connected to %s, authenticating…", o.target))

	if o.autoAttemptMade {
		if o.authenticated {
			req.done(protocol.Succeeded(fmt.Sprintf("already authenticated on %s", o.target)))
			return
		}
		msg := "automatic login was already attempted, log in manually"
		req.status(SeverityInfo, msg)
		req.done(protocol.Failed(protocol.KindValidation, msg))
		return
	}
	o.autoAttemptMade = true

	if !stored.Valid() {
		msg := fmt.Sprintf("connected to %s, enter your credentials and log in", o.target)
		req.status(SeverityInfo, msg)
		req.done(protocol.Failed(protocol.KindValidation, msg))
		return
	}

	o.startLogin(req, stored, identity)
}

// reachabilityGated handles an unknown identity: probe once, then log in
// automatically only when the internet is not reachable.
func (o *Orchestrator) reachabilityGated(req *request, stored credentials.Credentials, identity network.Identity) {
	if !stored.Valid() || o.autoAttemptMade {
		msg := fmt.Sprintf("cannot determine the network (%s), confirm you are on %s and log in manually",
			identity.Reason, o.target)
		req.status(SeverityWarning, msg)
		req.done(protocol.Failed(protocol.KindObservability, msg))
		return
	}

	// The guard closes before the probe starts so that a trigger arriving
	// during the probe cannot start a second attempt.
	o.autoAttemptMade = true
	o.probing = true
	req.status(SeverityInfo, "checking internet connectivity…")

	ctx := o.ctx
	go func() {
		reachable := o.prober.Probe(ctx)
		o.post(func() { o.finishProbe(req, identity, reachable) })
	}()
}

func (o *Orchestrator) finishProbe(req *request, identity network.Identity, reachable bool) {
	o.probing = false
	req.log.Info("Reachability probe finished", map[string]any{"reachable": reachable})

	if reachable {
		msg := fmt.Sprintf("%s; if you are on %s, confirm and act manually", MessageReachable, o.target)
		req.status(SeverityInfo, msg)
		req.done(protocol.Succeeded(MessageReachable))
		return
	}

	stored := o.prefill(req)
	if !stored.Valid() {
		msg := fmt.Sprintf("internet is not reachable, confirm you are on %s and log in manually", o.target)
		req.status(SeverityWarning, msg)
		req.done(protocol.Failed(protocol.KindValidation, msg))
		return
	}

	o.startLogin(req, stored, identity)
}

// prefill loads the stored pair into the form and locks it when valid. A form
// unlocked by a failed login is left for the user to edit.
func (o *Orchestrator) prefill(req *request) credentials.Credentials {
	stored, ok := o.loadStored(req)
	if ok && !o.editing {
		o.form = stored
		o.locked = true
	}
	return stored
}

// loadStored returns the stored pair and whether it is valid.
func (o *Orchestrator) loadStored(req *request) (credentials.Credentials, bool) {
	stored, err := o.store.Load()
	if err != nil {
		req.log.Warn("Failed to load stored credentials", map[string]any{"error": err})
		req.notify(SeverityWarning, fmt.Sprintf("stored credentials are unavailable: %v", err))
		return credentials.Credentials{}, false
	}
	return stored, stored.Valid()
}

func (o *Orchestrator) readIdentity() network.Identity {
	o.current = o.identity.Identity(o.ctx)
	return o.current
}
