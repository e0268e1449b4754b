package orchestrator

import (
	"fmt"

	"github.com/fzdarsky/portalpass/internal/credentials"
	"github.com/fzdarsky/portalpass/pkg/protocol"
)

// Logout rejection messages.
const (
	MessageNothingToLogOut  = "no stored credentials, nothing to log out"
	MessageLogoutInProgress = "a logout is already in progress"
)

func (o *Orchestrator) requestLogout(id string) {
	req := o.newRequest(id, ActionLogout, true)
	req.log.Info("Logout requested", nil)

	identity := o.readIdentity()
	if identity.OffTarget(o.target) {
		msg := fmt.Sprintf("on network %s, switch to %s before logging out", identity.Name, o.target)
		req.openNetworkSettings(msg)
		o.reject(req, msg)
		return
	}

	if _, ok := o.loadStored(req); !ok {
		o.reject(req, MessageNothingToLogOut)
		return
	}

	if o.logoutInFlight {
		o.reject(req, MessageLogoutInProgress)
		return
	}

	if !identity.Known {
		req.notify(SeverityWarning, fmt.Sprintf("cannot determine the network (%s), logging out anyway", identity.Reason))
	}

	o.logoutInFlight = true
	ctx := o.ctx
	go func() {
		outcome := o.portal.Logout(ctx)
		o.post(func() { o.finishLogout(req, outcome) })
	}()
}

func (o *Orchestrator) finishLogout(req *request, outcome protocol.Outcome) {
	o.logoutInFlight = false
	req.log.Info("Logout finished", map[string]any{
		"success": outcome.Success,
		"message": outcome.Message,
	})

	if !outcome.Success {
		msg := "logout failed: " + outcome.Message
		if outcome.IsProxyInterference() {
			msg = MessageDisableProxy
		}
		req.status(SeverityError, msg)
		req.notify(SeverityError, msg)
		req.done(outcome)
		return
	}

	if err := o.store.Clear(); err != nil {
		req.log.Warn("Failed to clear credentials", map[string]any{"error": err})
		req.notify(SeverityWarning, fmt.Sprintf("failed to clear stored credentials: %v", err))
	}
	o.form = credentials.Credentials{}
	o.locked = false
	o.editing = false
	o.loginEnabled = true
	o.authenticated = false
	o.autoAttemptMade = false

	msg := "logged out"
	if outcome.Message != protocol.MessageLoggedOut {
		msg += ": " + outcome.Message
	}
	req.status(SeveritySuccess, msg)
	req.notify(SeveritySuccess, msg)
	req.done(outcome)
}
