package turnstile_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformconfig "github.com/qolzam/telar-turnstile/internal/platform/config"
	"github.com/qolzam/telar-turnstile/internal/testutil"
	"github.com/qolzam/telar-turnstile/internal/turnstile"
)

const (
	testSiteKey   = "1x00000000000000000000AA"
	testSecretKey = "1x0000000000000000000000000000000AA"
)

func newProvider(t *testing.T, baseURL string) *turnstile.Provider {
	t.Helper()
	p, err := turnstile.Register(platformconfig.TurnstileConfig{
		BaseURL:   baseURL,
		SiteKey:   testSiteKey,
		SecretKey: testSecretKey,
		Timeout:   5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return p
}

func decodeBody(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

func TestProvider_Verify_BuildsRequest(t *testing.T) {
	t.Parallel()

	server := testutil.NewSiteverifyServer(t, testutil.SuccessBody)
	p := newProvider(t, server.URL)

	_, err := p.Verify(context.Background(), "client-token", "", nil)
	require.NoError(t, err)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/siteverify", reqs[0].Path)
	assert.Equal(t, "application/json", reqs[0].ContentType)

	body := decodeBody(t, reqs[0].Body)
	assert.Equal(t, testSecretKey, body["secret"])
	assert.Equal(t, "client-token", body["response"])
	assert.NotEqual(t, body["secret"], body["response"])
	assert.NotContains(t, body, "remoteip")
	assert.NotContains(t, body, "idempotency_key")
}

func TestProvider_Verify_OptionalFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		ip     net.IP
		wantIP string
	}{
		{name: "ipv4", ip: net.ParseIP("203.0.113.7"), wantIP: "203.0.113.7"},
		{name: "ipv6", ip: net.ParseIP("2001:db8::1"), wantIP: "2001:db8::1"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := testutil.NewSiteverifyServer(t, testutil.SuccessBody)
			p := newProvider(t, server.URL)

			_, err := p.Verify(context.Background(), "client-token", "b6f5e4c1-key", tc.ip)
			require.NoError(t, err)

			body := decodeBody(t, server.Requests()[0].Body)
			assert.Equal(t, tc.wantIP, body["remoteip"])
			assert.Equal(t, "b6f5e4c1-key", body["idempotency_key"])
		})
	}
}

func TestProvider_Verify_Success(t *testing.T) {
	t.Parallel()

	server := testutil.NewSiteverifyServer(t, testutil.SuccessBody)
	p := newProvider(t, server.URL)

	result, err := p.Verify(context.Background(), "client-token", "", nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotNil(t, result.ErrorCodes)
	assert.Empty(t, result.ErrorCodes)
	assert.True(t, result.ChallengeTS.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "example.com", result.Hostname)
}

func TestProvider_Verify_FailurePassesThrough(t *testing.T) {
	t.Parallel()

	server := testutil.NewSiteverifyServer(t, testutil.InvalidTokenBody)
	p := newProvider(t, server.URL)

	result, err := p.Verify(context.Background(), "bad-token", "", nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, []string{"invalid-input-response"}, result.ErrorCodes)
	assert.Equal(t, "example.com", result.Hostname)
}

func TestProvider_Verify_OptionalCloudflareFields(t *testing.T) {
	t.Parallel()

	body := `{"success":true,"challenge_ts":"2024-01-01T00:00:00.123Z","hostname":"example.com","action":"login","cdata":"session-1","metadata":{"ephemeral_id":"x"}}`
	server := testutil.NewSiteverifyServer(t, body)
	p := newProvider(t, server.URL)

	result, err := p.Verify(context.Background(), "client-token", "", nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{}, result.ErrorCodes)
	assert.Equal(t, "login", result.Action)
	assert.Equal(t, "session-1", result.CData)
}

func TestProvider_Verify_CanceledInFlight(t *testing.T) {
	t.Parallel()

	server := testutil.NewBlockingSiteverifyServer(t, testutil.SuccessBody)
	p := newProvider(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	var (
		result *turnstile.VerifyResult
		err    error
	)
	go func() {
		defer close(done)
		result, err = p.Verify(ctx, "client-token", "", nil)
	}()

	server.WaitForRequest(t)
	cancel()
	<-done

	require.Nil(t, result)
	var cancelErr *turnstile.CancellationError
	require.ErrorAs(t, err, &cancelErr)
	assert.ErrorIs(t, err, turnstile.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvider_Verify_AlreadyCanceled(t *testing.T) {
	t.Parallel()

	server := testutil.NewSiteverifyServer(t, testutil.SuccessBody)
	p := newProvider(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Verify(ctx, "client-token", "", nil)
	require.Nil(t, result)
	require.ErrorIs(t, err, turnstile.ErrCanceled)
	assert.Empty(t, server.Requests())
}

func TestProvider_Verify_DeadlineExceeded(t *testing.T) {
	t.Parallel()

	server := testutil.NewBlockingSiteverifyServer(t, testutil.SuccessBody)
	p := newProvider(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Verify(ctx, "client-token", "", nil)
	require.ErrorIs(t, err, turnstile.ErrCanceled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProvider_Verify_DecodeErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"malformed json":      `{"success":tru`,
		"empty body":          ``,
		"missing success":     `{"error-codes":[],"hostname":"example.com"}`,
		"wrong success type":  `{"success":"yes"}`,
		"wrong codes type":    `{"success":false,"error-codes":"invalid-input-response"}`,
		"invalid timestamp":   `{"success":true,"challenge_ts":"yesterday"}`,
		"not an object":       `[true]`,
		"html error document": `<html><body>oops</body></html>`,
	}

	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := testutil.NewSiteverifyServer(t, body)
			p := newProvider(t, server.URL)

			result, err := p.Verify(context.Background(), "client-token", "", nil)
			require.Nil(t, result)
			var decodeErr *turnstile.DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.ErrorIs(t, err, turnstile.ErrDecode)
		})
	}
}

func TestProvider_Verify_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusBadGateway} {
		status := status
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			t.Parallel()

			server := testutil.NewSiteverifyServerWithStatus(t, status, testutil.SuccessBody)
			p := newProvider(t, server.URL)

			result, err := p.Verify(context.Background(), "client-token", "", nil)
			require.Nil(t, result)
			var transportErr *turnstile.TransportError
			require.ErrorAs(t, err, &transportErr)
			assert.Equal(t, status, transportErr.StatusCode)
			assert.ErrorIs(t, err, turnstile.ErrTransport)
		})
	}
}

func TestProvider_Verify_NetworkFailure(t *testing.T) {
	t.Parallel()

	server := testutil.NewSiteverifyServer(t, testutil.SuccessBody)
	url := server.URL
	server.Close()

	p := newProvider(t, url)
	_, err := p.Verify(context.Background(), "client-token", "", nil)

	var transportErr *turnstile.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Zero(t, transportErr.StatusCode)
	assert.NotErrorIs(t, err, turnstile.ErrCanceled)
}

func TestProvider_Verify_ClientTimeout(t *testing.T) {
	t.Parallel()

	server := testutil.NewBlockingSiteverifyServer(t, testutil.SuccessBody)
	p, err := turnstile.Register(platformconfig.TurnstileConfig{
		BaseURL:   server.URL,
		SiteKey:   testSiteKey,
		SecretKey: testSecretKey,
	}, &http.Client{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = p.Verify(context.Background(), "client-token", "", nil)
	require.ErrorIs(t, err, turnstile.ErrTransport)
}

func TestProvider_Verify_TrailingSlashBaseURL(t *testing.T) {
	t.Parallel()

	server := testutil.NewSiteverifyServer(t, testutil.SuccessBody)
	p := newProvider(t, server.URL+"/")

	_, err := p.Verify(context.Background(), "client-token", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "/siteverify", server.Requests()[0].Path)
}

func TestProvider_SiteKey(t *testing.T) {
	t.Parallel()

	p := newProvider(t, "https://challenges.cloudflare.com/turnstile/v0")
	assert.Equal(t, testSiteKey, p.SiteKey())
}

type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	return nil, errors.New("unexpected round trip")
}

func TestRegister_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	for _, baseURL := range []string{"", "   "} {
		transport := &countingTransport{}
		p, err := turnstile.Register(platformconfig.TurnstileConfig{
			BaseURL:   baseURL,
			SiteKey:   testSiteKey,
			SecretKey: testSecretKey,
		}, &http.Client{Transport: transport})

		require.Nil(t, p)
		var cfgErr *turnstile.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "BaseURL", cfgErr.Field)
		assert.ErrorIs(t, err, turnstile.ErrConfiguration)
		assert.Zero(t, transport.calls)
	}
}

func TestRegister_ValidatesSettings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		cfg       platformconfig.TurnstileConfig
		wantField string
	}{
		{
			name:      "relative base url",
			cfg:       platformconfig.TurnstileConfig{BaseURL: "challenges.cloudflare.com", SiteKey: testSiteKey, SecretKey: testSecretKey},
			wantField: "BaseURL",
		},
		{
			name:      "unsupported scheme",
			cfg:       platformconfig.TurnstileConfig{BaseURL: "ftp://challenges.cloudflare.com", SiteKey: testSiteKey, SecretKey: testSecretKey},
			wantField: "BaseURL",
		},
		{
			name:      "missing site key",
			cfg:       platformconfig.TurnstileConfig{BaseURL: "https://challenges.cloudflare.com/turnstile/v0", SecretKey: testSecretKey},
			wantField: "SiteKey",
		},
		{
			name:      "missing secret key",
			cfg:       platformconfig.TurnstileConfig{BaseURL: "https://challenges.cloudflare.com/turnstile/v0", SiteKey: testSiteKey, SecretKey: " "},
			wantField: "SecretKey",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p, err := turnstile.Register(tc.cfg, nil)
			require.Nil(t, p)
			var cfgErr *turnstile.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.wantField, cfgErr.Field)
		})
	}
}

func TestNewSettings(t *testing.T) {
	t.Parallel()

	s, err := turnstile.NewSettings("https://challenges.cloudflare.com/turnstile/v0/", testSiteKey, testSecretKey)
	require.NoError(t, err)
	assert.Equal(t, "https://challenges.cloudflare.com/turnstile/v0", s.BaseURL())
	assert.Equal(t, testSiteKey, s.SiteKey())
	assert.NotContains(t, fmt.Sprintf("%+v", s), testSecretKey)
	assert.NotContains(t, fmt.Sprintf("%#v", s), testSecretKey)
}

func TestVerifyRequest_RedactsSecret(t *testing.T) {
	t.Parallel()

	req := turnstile.VerifyRequest{Secret: testSecretKey, Response: "client-token", RemoteIP: "203.0.113.7"}
	for _, format := range []string{"%v", "%+v", "%s", "%#v"} {
		out := fmt.Sprintf(format, req)
		assert.NotContains(t, out, testSecretKey, format)
		assert.Contains(t, out, "client-token", format)
	}
}
