package turnstile

import (
	"fmt"
	"time"
)

// VerifyRequest is the siteverify payload.
// https://developers.cloudflare.com/turnstile/get-started/server-side-validation/
type VerifyRequest struct {
	Secret         string `json:"secret"`
	Response       string `json:"response"`
	RemoteIP       string `json:"remoteip,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// String keeps the secret out of logs and error messages.
func (r VerifyRequest) String() string {
	return fmt.Sprintf("VerifyRequest{Secret: [REDACTED], Response: %q, RemoteIP: %q, IdempotencyKey: %q}",
		r.Response, r.RemoteIP, r.IdempotencyKey)
}

// GoString is used by %#v and spew.
func (r VerifyRequest) GoString() string {
	return r.String()
}

// VerifyResult is the siteverify answer. ErrorCodes is never nil.
type VerifyResult struct {
	Success     bool      `json:"success"`
	ErrorCodes  []string  `json:"error-codes"`
	ChallengeTS time.Time `json:"challenge_ts"`
	Hostname    string    `json:"hostname"`
	Action      string    `json:"action,omitempty"`
	CData       string    `json:"cdata,omitempty"`
}

// verifyResponse mirrors VerifyResult on the wire. Success is a pointer so
// a body without the field is rejected instead of reading as a failure.
type verifyResponse struct {
	Success     *bool     `json:"success"`
	ErrorCodes  []string  `json:"error-codes"`
	ChallengeTS time.Time `json:"challenge_ts"`
	Hostname    string    `json:"hostname"`
	Action      string    `json:"action"`
	CData       string    `json:"cdata"`
}

func (r *verifyResponse) result() *VerifyResult {
	codes := r.ErrorCodes
	if codes == nil {
		codes = []string{}
	}
	return &VerifyResult{
		Success:     *r.Success,
		ErrorCodes:  codes,
		ChallengeTS: r.ChallengeTS,
		Hostname:    r.Hostname,
		Action:      r.Action,
		CData:       r.CData,
	}
}
