package orchestrator

import (
	"fmt"

	"github.com/fzdarsky/portalpass/internal/credentials"
	"github.com/fzdarsky/portalpass/internal/network"
	"github.com/fzdarsky/portalpass/pkg/protocol"
)

// Local rejection messages.
const (
	MessageDisableProxy       = "the portal returned an empty response, disable any HTTP(S) proxy and try again"
	MessageCredentialsMissing = "username and password are required"
	MessageLoginInProgress    = "a login is already in progress"
	MessageAlreadyLoggedIn    = "already logged in, log out first"
	MessageCredentialsLocked  = "stored credentials are locked, log out to change them"
)

func (o *Orchestrator) requestLogin(id string, input credentials.Credentials) {
	req := o.newRequest(id, ActionLogin, true)
	req.log.Info("Login requested", nil)

	entered := input.Trimmed()
	if entered.Username == "" && entered.Password == "" {
		if !o.form.Valid() {
			if stored, ok := o.loadStored(req); ok {
				o.form = stored
			}
		}
	} else {
		if o.locked && entered != o.form.Trimmed() {
			o.reject(req, MessageCredentialsLocked)
			return
		}
		o.form = input
	}
	creds := o.form

	if !o.loginEnabled {
		o.reject(req, MessageAlreadyLoggedIn)
		return
	}

	o.startLogin(req, creds, o.readIdentity())
}

// startLogin applies the local gates and submits the pair.
func (o *Orchestrator) startLogin(req *request, creds credentials.Credentials, identity network.Identity) {
	if identity.OffTarget(o.target) {
		msg := fmt.Sprintf("on network %s, switch to %s before logging in", identity.Name, o.target)
		if req.user {
			req.openNetworkSettings(msg)
		}
		o.reject(req, msg)
		return
	}

	creds = creds.Trimmed()
	if !creds.Valid() {
		o.reject(req, MessageCredentialsMissing)
		return
	}

	if o.loginBusy() {
		o.reject(req, MessageLoginInProgress)
		return
	}

	o.loginInFlight = true
	req.log.Info("Submitting credentials", map[string]any{
		"username":  creds.Username,
		"automatic": !req.user,
	})

	ctx := o.ctx
	go func() {
		outcome := o.portal.Login(ctx, creds.Username, creds.Password)
		o.post(func() { o.finishLogin(req, creds, identity, outcome) })
	}()
}

func (o *Orchestrator) finishLogin(req *request, creds credentials.Credentials, identity network.Identity, outcome protocol.Outcome) {
	o.loginInFlight = false
	req.log.Info("Login finished", map[string]any{
		"success": outcome.Success,
		"message": outcome.Message,
	})

	switch {
	case outcome.Success:
		if err := o.store.Save(creds.Username, creds.Password); err != nil {
			req.log.Warn("Failed to save credentials", map[string]any{"error": err})
			req.notify(SeverityWarning, fmt.Sprintf("failed to save credentials: %v", err))
		}
		o.form = creds
		o.locked = true
		o.editing = false
		o.authenticated = true
		if req.user {
			o.autoAttemptMade = false
		} else {
			o.loginEnabled = false
		}
		req.status(SeveritySuccess, "logged in: "+outcome.Message)
		req.notify(SeveritySuccess, "logged in: "+outcome.Message)

	case outcome.IsProxyInterference():
		o.unlock(creds)
		req.status(SeverityError, MessageDisableProxy)
		req.notify(SeverityError, MessageDisableProxy)

	case !req.user:
		reason := outcome.Message
		if !identity.Known {
			reason = identity.Reason
		}
		req.status(SeverityWarning, fmt.Sprintf(
			"automatic login failed (%s), confirm you are on %s and log in manually", reason, o.target))

	default:
		o.unlock(creds)
		req.status(SeverityError, "login failed: "+outcome.Message)
		req.notify(SeverityError, outcome.Message)
	}

	req.done(outcome)
}

// unlock re-enables editing after a failed attempt. Become-ready keeps the
// edited form until the next success or logout.
func (o *Orchestrator) unlock(creds credentials.Credentials) {
	o.form = creds
	o.locked = false
	o.editing = true
}

// reject ends a request without a network call. Only user requests notify.
func (o *Orchestrator) reject(req *request, msg string) {
	req.log.Info("Request rejected", map[string]any{"reason": msg})
	if req.user {
		req.notify(SeverityWarning, msg)
	}
	req.status(SeverityWarning, msg)
	req.done(protocol.Failed(protocol.KindValidation, msg))
}
