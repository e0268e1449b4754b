package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/fzdarsky/portalpass/internal/config"
	"github.com/fzdarsky/portalpass/pkg/protocol"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	userAgent       = "portalpass/1.0"
	// maxReplySize caps how much of a reply body is read.
	maxReplySize = 1 << 20
)

// Authenticator is the portal protocol as consumed by the orchestrator.
// Implementations never return Go errors; every failure is an Outcome.
type Authenticator interface {
	Login(ctx context.Context, username, password string) protocol.Outcome
	Logout(ctx context.Context) protocol.Outcome
}

// Client is an HTTP client for the portal API.
//
// Client does not retry. Each call is a single request, so a caller that
// retries after a failure never produces a hidden duplicate submission.
type Client struct {
	loginURL   string
	logoutURL  string
	domain     string
	httpClient *http.Client
}

// NewClient creates a new portal client from the configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	timeout, err := cfg.PortalTimeout()
	if err != nil {
		return nil, err
	}

	return &Client{
		loginURL:  cfg.Portal.LoginURL,
		logoutURL: cfg.Portal.LogoutURL,
		domain:    cfg.Portal.Domain,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Login posts the credentials to the login endpoint.
// The body is produced by encoding/json so quotes and backslashes in either
// value are escaped correctly.
func (c *Client) Login(ctx context.Context, username, password string) protocol.Outcome {
	req := protocol.NewLoginRequest(c.domain, username, password)

	body, err := json.Marshal(req)
	if err != nil {
		return protocol.Failed(protocol.KindValidation, fmt.Sprintf("failed to encode login request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, bytes.NewReader(body))
	if err != nil {
		return protocol.NetworkError(err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)

	return c.do(httpReq)
}

// Logout asks the logout endpoint to end the current session.
func (c *Client) Logout(ctx context.Context) protocol.Outcome {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.logoutURL, nil)
	if err != nil {
		return protocol.NetworkError(err)
	}

	return c.do(httpReq)
}

// do executes a request and decodes the reply body regardless of status code;
// the portal reports rejections in the body.
func (c *Client) do(req *http.Request) protocol.Outcome {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return protocol.NetworkError(describeTransportError(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return protocol.NetworkError(fmt.Errorf("failed to read reply: %w", err))
	}

	return protocol.DecodeReply(body)
}

// describeTransportError strips the "Post \"url\":" wrapper net/http adds
// and names the common failure classes.
func describeTransportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("cannot resolve %s: %w", dnsErr.Name, err)
	}

	if errors.Is(err, context.Canceled) {
		return errors.New("request cancelled")
	}

	return err
}
