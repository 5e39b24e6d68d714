package turnstile

import (
	"context"
	"net"
)

// Verifier is the contract request handlers depend on.
type Verifier interface {
	// Verify checks a Turnstile token. An empty idempotencyKey and a nil
	// userIP are left out of the outgoing request.
	Verify(ctx context.Context, token, idempotencyKey string, userIP net.IP) (*VerifyResult, error)
}

// Provider hides the secret key and the request construction from callers.
type Provider struct {
	settings Settings
	client   *Client
}

// NewProvider creates a provider for the given settings and client.
func NewProvider(settings Settings, client *Client) *Provider {
	return &Provider{
		settings: settings,
		client:   client,
	}
}

// Verify builds the siteverify request from the stored secret and the
// caller's values and returns the client's result unchanged.
func (p *Provider) Verify(ctx context.Context, token, idempotencyKey string, userIP net.IP) (*VerifyResult, error) {
	req := &VerifyRequest{
		Secret:         p.settings.secretKey,
		Response:       token,
		IdempotencyKey: idempotencyKey,
	}
	if len(userIP) > 0 {
		req.RemoteIP = userIP.String()
	}
	return p.client.Verify(ctx, req)
}

// SiteKey returns the public key the widget is rendered with.
func (p *Provider) SiteKey() string {
	return p.settings.SiteKey()
}
