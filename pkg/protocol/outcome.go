package protocol

import "fmt"

// ErrorKind classifies why an operation did not succeed.
type ErrorKind string

// Outcome error kinds.
const (
	// KindNone marks a successful outcome.
	KindNone ErrorKind = ""
	// KindObservability indicates the network identity could not be read.
	KindObservability ErrorKind = "observability"
	// KindTransport indicates a timeout, DNS or connection failure.
	KindTransport ErrorKind = "transport"
	// KindProtocol indicates the portal understood and rejected the request.
	KindProtocol ErrorKind = "protocol"
	// KindMalformed indicates the portal reply could not be decoded.
	KindMalformed ErrorKind = "malformed"
	// KindValidation indicates the request was rejected before any network call.
	KindValidation ErrorKind = "validation"
)

// User-facing messages produced while decoding replies.
const (
	// MessageSucceeded is used when a successful reply carries no message.
	MessageSucceeded = "operation succeeded"
	// MessageLoggedOut is used when a non-JSON logout page is recognised.
	MessageLoggedOut = "logged out"
	// ProxyInterferenceMessage is reported for an empty reply body. An empty
	// body is what an intercepting HTTP(S) proxy typically leaves behind.
	ProxyInterferenceMessage = "empty response from the portal, possibly caused by a proxy"
)

// Outcome is the result of a login or logout call.
type Outcome struct {
	Success bool      `json:"success" yaml:"success"`
	Message string    `json:"message" yaml:"message"`
	Kind    ErrorKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Succeeded creates a successful outcome.
func Succeeded(message string) Outcome {
	return Outcome{Success: true, Message: message}
}

// Failed creates a failed outcome of the given kind.
func Failed(kind ErrorKind, message string) Outcome {
	return Outcome{Success: false, Message: message, Kind: kind}
}

// NetworkError creates a transport failure outcome for err.
func NetworkError(err error) Outcome {
	return Failed(KindTransport, fmt.Sprintf("network error: %v", err))
}

// IsProxyInterference reports whether o is the empty-reply failure.
func (o Outcome) IsProxyInterference() bool {
	return !o.Success && o.Message == ProxyInterferenceMessage
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if o.Success {
		return "ok: " + o.Message
	}
	if o.Kind != KindNone {
		return fmt.Sprintf("failed (%s): %s", o.Kind, o.Message)
	}
	return "failed: " + o.Message
}
