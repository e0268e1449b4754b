package orchestrator

import (
	"github.com/fzdarsky/portalpass/internal/logging"
	"github.com/fzdarsky/portalpass/pkg/protocol"
)

// request tracks one entry-point call until its done event.
type request struct {
	o      *Orchestrator
	id     string
	action Action
	// user is set for user-initiated requests.
	user   bool
	log    *logging.ContextLogger
	closed bool
}

func (o *Orchestrator) newRequest(id string, action Action, user bool) *request {
	return &request{
		o:      o,
		id:     id,
		action: action,
		user:   user,
		log: o.logger.WithFields(map[string]any{
			"attempt": id,
			"action":  string(action),
		}),
	}
}

func (r *request) status(severity Severity, text string) {
	r.o.status = text
	r.o.emit(Event{Kind: EventStatus, Action: r.action, Attempt: r.id, Text: text, Severity: severity})
}

func (r *request) notify(severity Severity, text string) {
	r.o.emit(Event{Kind: EventNotification, Action: r.action, Attempt: r.id, Text: text, Severity: severity})
}

func (r *request) openNetworkSettings(text string) {
	r.o.emit(Event{Kind: EventOpenNetworkSettings, Action: r.action, Attempt: r.id, Text: text, Severity: SeverityWarning})
}

// done closes the request. Later calls are ignored.
func (r *request) done(outcome protocol.Outcome) {
	if r.closed {
		return
	}
	r.closed = true

	severity := SeveritySuccess
	if !outcome.Success {
		severity = SeverityError
	}

	r.log.Debug("Request settled", map[string]any{
		"success": outcome.Success,
		"kind":    string(outcome.Kind),
	})

	r.o.emit(Event{
		Kind:     EventDone,
		Action:   r.action,
		Attempt:  r.id,
		Text:     outcome.Message,
		Severity: severity,
		Outcome:  &outcome,
	})
}
