package testutil

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/qolzam/telar-turnstile/internal/turnstile"
)

// FakeTurnstileVerifier is a test-only implementation of the turnstile.Verifier interface.
type FakeTurnstileVerifier struct {
	// Result is returned when Err is nil.
	Result *turnstile.VerifyResult
	// Err is returned instead of a result when set.
	Err error
	// ExpectedToken can be used to assert that a specific token was passed.
	ExpectedToken string

	mu    sync.Mutex
	calls []FakeTurnstileCall
}

// FakeTurnstileCall records the arguments of one Verify call.
type FakeTurnstileCall struct {
	Token          string
	IdempotencyKey string
	UserIP         net.IP
}

// Verify implements the turnstile.Verifier interface for tests.
func (f *FakeTurnstileVerifier) Verify(ctx context.Context, token, idempotencyKey string, userIP net.IP) (*turnstile.VerifyResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeTurnstileCall{Token: token, IdempotencyKey: idempotencyKey, UserIP: userIP})
	f.mu.Unlock()

	if f.ExpectedToken != "" && f.ExpectedToken != token {
		return nil, fmt.Errorf("received unexpected turnstile token. Got '%s', want '%s'", token, f.ExpectedToken)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}

// Calls returns the recorded Verify calls.
func (f *FakeTurnstileVerifier) Calls() []FakeTurnstileCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeTurnstileCall(nil), f.calls...)
}
