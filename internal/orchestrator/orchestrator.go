// Package orchestrator decides when to authenticate against the portal.
//
// All decision state is owned by the goroutine running Orchestrator.Run.
// Entry points post to its inbox; probes and portal calls run on their own
// goroutines and post their results back, so no lock guards the state.
package orchestrator

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/fzdarsky/portalpass/internal/credentials"
	"github.com/fzdarsky/portalpass/internal/logging"
	"github.com/fzdarsky/portalpass/internal/network"
	"github.com/fzdarsky/portalpass/internal/portal"
	"github.com/fzdarsky/portalpass/internal/reachability"
)

const (
	inboxSize  = 16
	eventsSize = 64
)

// ErrStopped is returned when the control goroutine is not running anymore.
var ErrStopped = errors.New("orchestrator stopped")

// IdentitySource reads the normalized network identity.
type IdentitySource interface {
	Identity(ctx context.Context) network.Identity
}

// Dependencies are the collaborators of the orchestrator.
type Dependencies struct {
	Target   string
	Identity IdentitySource
	Prober   reachability.Checker
	Portal   portal.Authenticator
	Store    credentials.Store
	Logger   *logging.Logger
}

// State is a copy of the control state.
type State struct {
	Target            string           `json:"target" yaml:"target"`
	Identity          network.Identity `json:"identity" yaml:"identity"`
	AutoAttemptMade   bool             `json:"auto_attempt_made" yaml:"auto_attempt_made"`
	Authenticated     bool             `json:"authenticated" yaml:"authenticated"`
	CredentialsLocked bool             `json:"credentials_locked" yaml:"credentials_locked"`
	LoginEnabled      bool             `json:"login_enabled" yaml:"login_enabled"`
	LoginBusy         bool             `json:"login_busy" yaml:"login_busy"`
	LogoutBusy        bool             `json:"logout_busy" yaml:"logout_busy"`
	Username          string           `json:"username,omitempty" yaml:"username,omitempty"`
	Status            string           `json:"status,omitempty" yaml:"status,omitempty"`
}

// Orchestrator is the auto-authentication state machine.
type Orchestrator struct {
	target   string
	identity IdentitySource
	prober   reachability.Checker
	portal   portal.Authenticator
	store    credentials.Store
	logger   *logging.Logger

	inbox   chan func()
	events  chan Event
	stopped chan struct{}

	// Owned by the control goroutine.
	ctx             context.Context
	current         network.Identity
	autoAttemptMade bool
	authenticated   bool
	locked          bool
	editing         bool
	loginEnabled    bool
	loginInFlight   bool
	logoutInFlight  bool
	probing         bool
	form            credentials.Credentials
	status          string
}

// New creates an orchestrator. Run must be called for requests to be served.
func New(deps Dependencies) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Orchestrator{
		target:       deps.Target,
		identity:     deps.Identity,
		prober:       deps.Prober,
		portal:       deps.Portal,
		store:        deps.Store,
		logger:       logger,
		inbox:        make(chan func(), inboxSize),
		events:       make(chan Event, eventsSize),
		stopped:      make(chan struct{}),
		loginEnabled: true,
	}
}

// Events returns the event stream. It is closed when Run returns.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// Run serves requests until ctx is cancelled. It must be called once.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.ctx = ctx
	defer close(o.events)
	defer close(o.stopped)

	o.logger.Debug("Orchestrator started", map[string]any{"target": o.target})

	for {
		select {
		case <-ctx.Done():
			o.logger.Debug("Orchestrator stopped", nil)
			return nil
		case fn := <-o.inbox:
			fn()
		}
	}
}

// BecomeReady evaluates the network and may log in automatically.
// It returns the attempt ID carried by the resulting events.
func (o *Orchestrator) BecomeReady(trigger Trigger) string {
	id := uuid.NewString()
	o.post(func() { o.becomeReady(id, trigger) })
	return id
}

// RequestLogin performs a user-initiated login. Empty credentials use the
// form, which is pre-filled from the store.
func (o *Orchestrator) RequestLogin(creds credentials.Credentials) string {
	id := uuid.NewString()
	o.post(func() { o.requestLogin(id, creds) })
	return id
}

// RequestLogout performs a user-initiated logout.
func (o *Orchestrator) RequestLogout() string {
	id := uuid.NewString()
	o.post(func() { o.requestLogout(id) })
	return id
}

// Snapshot returns a copy of the control state.
func (o *Orchestrator) Snapshot(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	if !o.postContext(ctx, func() { reply <- o.snapshot() }) {
		if ctx.Err() != nil {
			return State{}, ctx.Err()
		}
		return State{}, ErrStopped
	}

	select {
	case s := <-reply:
		return s, nil
	case <-o.stopped:
		return State{}, ErrStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

func (o *Orchestrator) snapshot() State {
	return State{
		Target:            o.target,
		Identity:          o.current,
		AutoAttemptMade:   o.autoAttemptMade,
		Authenticated:     o.authenticated,
		CredentialsLocked: o.locked,
		LoginEnabled:      o.loginEnabled,
		LoginBusy:         o.loginBusy(),
		LogoutBusy:        o.logoutInFlight,
		Username:          o.form.Username,
		Status:            o.status,
	}
}

// post hands fn to the control goroutine. It is dropped when Run has returned.
func (o *Orchestrator) post(fn func()) {
	if !o.postContext(context.Background(), fn) {
		o.logger.Warn("Request dropped, orchestrator is not running", nil)
	}
}

func (o *Orchestrator) postContext(ctx context.Context, fn func()) bool {
	// A stopped orchestrator must not accept work into a free inbox slot.
	select {
	case <-o.stopped:
		return false
	default:
	}

	select {
	case o.inbox <- fn:
		return true
	case <-o.stopped:
		return false
	case <-ctx.Done():
		return false
	}
}

// emit never blocks the control goroutine.
func (o *Orchestrator) emit(e Event) {
	select {
	case o.events <- e:
	default:
		o.logger.Warn("Event dropped, consumer is too slow", map[string]any{
			"kind":    string(e.Kind),
			"action":  string(e.Action),
			"attempt": e.Attempt,
		})
	}
}

func (o *Orchestrator) loginBusy() bool {
	return o.loginInFlight || o.probing
}
