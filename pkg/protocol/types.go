// Package protocol defines the wire types and reply decoding for the campus portal API.
package protocol

// DefaultDomain is the authentication domain sent with every login request.
const DefaultDomain = "default"

// Portal reply codes that mean the request succeeded.
const (
	// ReplyCodeLoginSuccess is returned by the login endpoint on success.
	ReplyCodeLoginSuccess = 0
	// ReplyCodeLogoutSuccess is returned by the logout endpoint once the session is offline.
	ReplyCodeLogoutSuccess = 101

	// replyCodeMissing is used when a JSON reply carries no reply_code.
	replyCodeMissing = -1
)

// LoginRequest is the JSON body posted to the login endpoint.
type LoginRequest struct {
	Domain   string `json:"domain"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewLoginRequest creates a login request. An empty domain selects
// DefaultDomain.
func NewLoginRequest(domain, username, password string) LoginRequest {
	if domain == "" {
		domain = DefaultDomain
	}
	return LoginRequest{
		Domain:   domain,
		Username: username,
		Password: password,
	}
}

// Reply is the JSON envelope returned by both portal endpoints.
type Reply struct {
	ReplyCode *int          `json:"reply_code"`
	ReplyMsg  string        `json:"reply_msg"`
	Results   *ReplyResults `json:"results,omitempty"`
}

// ReplyResults carries the detailed sub-code message, e.g. "E010 密码无效".
type ReplyResults struct {
	IOReplyMsg string `json:"io_reply_msg"`
}

// Code returns the reply code, or -1 when the reply did not carry one.
func (r *Reply) Code() int {
	if r.ReplyCode == nil {
		return replyCodeMissing
	}
	return *r.ReplyCode
}

// Succeeded reports whether the reply code is one of the success codes.
func (r *Reply) Succeeded() bool {
	code := r.Code()
	return code == ReplyCodeLoginSuccess || code == ReplyCodeLogoutSuccess
}
