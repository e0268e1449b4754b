// Package portal implements the HTTP client for the campus portal login and logout endpoints.
//
//go:generate go tool mockgen -destination=mock_client.go -package=portal github.com/fzdarsky/portalpass/internal/portal Authenticator
package portal
