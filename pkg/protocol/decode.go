package protocol

import (
	"encoding/json"
	"strings"
)

// logoutKeywords mark a non-JSON logout confirmation page.
var logoutKeywords = []string{"logout", "log out", "logged out"}

// successKeyword marks a non-JSON confirmation page in the portal's own language.
const successKeyword = "成功"

// DecodeReply turns a raw portal reply body into an Outcome.
//
// JSON replies succeed on reply code 0 or 101. Failed JSON replies take their
// message from results.io_reply_msg, then reply_msg, then the raw body.
// Bodies that are not JSON are classified lexically.
func DecodeReply(body []byte) Outcome {
	text := string(body)

	var reply Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return decodeText(text)
	}

	if reply.Succeeded() {
		msg := reply.ReplyMsg
		if isBlank(msg) {
			msg = MessageSucceeded
		}
		return Succeeded(msg)
	}

	var detail string
	if reply.Results != nil {
		detail = reply.Results.IOReplyMsg
	}

	switch {
	case !isBlank(detail):
		return Failed(KindProtocol, detail)
	case !isBlank(reply.ReplyMsg):
		return Failed(KindProtocol, reply.ReplyMsg)
	default:
		return Failed(KindProtocol, text)
	}
}

// decodeText classifies a reply body that is not valid JSON.
func decodeText(text string) Outcome {
	if isBlank(text) {
		return Failed(KindMalformed, ProxyInterferenceMessage)
	}

	lower := strings.ToLower(text)
	for _, kw := range logoutKeywords {
		if strings.Contains(lower, kw) {
			return Succeeded(MessageLoggedOut)
		}
	}

	if strings.Contains(text, successKeyword) {
		return Succeeded(text)
	}

	return Failed(KindMalformed, text)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
