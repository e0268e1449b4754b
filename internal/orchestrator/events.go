package orchestrator

import (
	"github.com/fzdarsky/portalpass/pkg/protocol"
)

// Trigger names why the orchestrator is asked to evaluate the network.
type Trigger string

// Triggers.
const (
	TriggerStartup           Trigger = "startup"
	TriggerPermissionGranted Trigger = "permission-granted"
	TriggerForeground        Trigger = "foreground"
	TriggerNetworkChange     Trigger = "network-change"
)

// ParseTrigger parses a trigger name.
func ParseTrigger(s string) (Trigger, bool) {
	switch t := Trigger(s); t {
	case TriggerStartup, TriggerPermissionGranted, TriggerForeground, TriggerNetworkChange:
		return t, true
	default:
		return "", false
	}
}

// Action names the request an event belongs to.
type Action string

// Actions.
const (
	ActionBecomeReady Action = "become-ready"
	ActionLogin       Action = "login"
	ActionLogout      Action = "logout"
)

// EventKind classifies events.
type EventKind string

// Event kinds.
const (
	// EventStatus replaces the current status line.
	EventStatus EventKind = "status"
	// EventNotification is a transient message for the user.
	EventNotification EventKind = "notification"
	// EventOpenNetworkSettings asks the presentation to direct the user to
	// the network settings.
	EventOpenNetworkSettings EventKind = "open-network-settings"
	// EventDone closes a request. Exactly one is emitted per request.
	EventDone EventKind = "done"
)

// Severity of an event.
type Severity string

// Severities.
const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is emitted by the orchestrator for the presentation layer.
type Event struct {
	Kind     EventKind `json:"kind" yaml:"kind"`
	Action   Action    `json:"action" yaml:"action"`
	Attempt  string    `json:"attempt" yaml:"attempt"`
	Text     string    `json:"text,omitempty" yaml:"text,omitempty"`
	Severity Severity  `json:"severity" yaml:"severity"`
	// Outcome is set on done events.
	Outcome *protocol.Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}
