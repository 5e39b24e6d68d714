package turnstile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/qolzam/telar-turnstile/internal/pkg/log"
)

const (
	siteverifyPath   = "/siteverify"
	maxResponseBytes = 64 << 10

	// DefaultTimeout bounds a single siteverify call when no client is supplied.
	DefaultTimeout = 10 * time.Second
)

// Client performs the siteverify call. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client rooted at baseURL. A nil httpClient is replaced
// by one with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Verify posts the request to {baseURL}/siteverify once and decodes the
// answer. There are no retries.
func (c *Client) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResult, error) {
	var resp verifyResponse
	if err := c.postJSON(ctx, siteverifyPath, req, &resp); err != nil {
		return nil, err
	}
	if resp.Success == nil {
		return nil, &DecodeError{Cause: errors.New(`missing "success" field`)}
	}
	return resp.result(), nil
}

// postJSON sends in as a JSON body and decodes the 2xx answer into out.
func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return &CancellationError{Cause: err}
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &CancellationError{Cause: ctxErr}
		}
		log.ErrorWithContext(ctx, "Turnstile call to %s failed: %v", url, err)
		return &TransportError{Cause: err}
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &CancellationError{Cause: ctxErr}
		}
		return &TransportError{StatusCode: httpResp.StatusCode, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		log.WarnWithContext(ctx, "Turnstile %s returned status %d", url, httpResp.StatusCode)
		return &TransportError{StatusCode: httpResp.StatusCode}
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return &DecodeError{Cause: errors.New("empty response body")}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &DecodeError{Cause: err}
	}
	return nil
}
