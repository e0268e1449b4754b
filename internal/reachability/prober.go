// Package reachability checks whether the device already has outbound internet access.
//
//go:generate go tool mockgen -destination=mock_prober.go -package=reachability github.com/fzdarsky/portalpass/internal/reachability Checker
package reachability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fzdarsky/portalpass/internal/config"
)

// Checker reports whether an external endpoint is reachable.
type Checker interface {
	Probe(ctx context.Context) bool
}

// Prober issues a single bounded request to a well-known external endpoint.
//
// Redirects are not followed. A captive portal that intercepts the request
// answers with a redirect to its login page, and that must count as
// unreachable.
type Prober struct {
	url     string
	method  string
	timeout time.Duration
	client  *http.Client
}

// NewProber creates a prober from the reachability settings.
func NewProber(cfg *config.Config) (*Prober, error) {
	timeout, err := cfg.ProbeTimeout()
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(cfg.Reachability.Method)
	if method != http.MethodHead && method != http.MethodGet {
		return nil, fmt.Errorf("unsupported probe method %q", cfg.Reachability.Method)
	}

	return &Prober{
		url:     cfg.Reachability.URL,
		method:  method,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Probe returns true only for a 2xx answer received within the timeout.
// It never blocks longer than the configured timeout.
func (p *Prober) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, p.method, p.url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Target returns the probed URL.
func (p *Prober) Target() string {
	return p.url
}
