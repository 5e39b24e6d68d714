package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const (
	// SuccessBody is a passing siteverify answer.
	SuccessBody = `{"success":true,"error-codes":[],"challenge_ts":"2024-01-01T00:00:00Z","hostname":"example.com"}`
	// InvalidTokenBody is a failing siteverify answer.
	InvalidTokenBody = `{"success":false,"error-codes":["invalid-input-response"],"challenge_ts":"2024-01-01T00:00:00Z","hostname":"example.com"}`
)

// SiteverifyServer is a mock siteverify endpoint that records what it receives.
type SiteverifyServer struct {
	*httptest.Server

	status  int
	body    string
	block   chan struct{}
	arrived chan struct{}

	mu       sync.Mutex
	requests []RecordedRequest
}

// RecordedRequest is one request seen by the mock endpoint.
type RecordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// NewSiteverifyServer starts a mock endpoint answering 200 with body.
// The server is closed when the test ends.
func NewSiteverifyServer(t *testing.T, body string) *SiteverifyServer {
	return newSiteverifyServer(t, http.StatusOK, body, false)
}

// NewSiteverifyServerWithStatus starts a mock endpoint answering status with body.
func NewSiteverifyServerWithStatus(t *testing.T, status int, body string) *SiteverifyServer {
	return newSiteverifyServer(t, status, body, false)
}

// NewBlockingSiteverifyServer starts a mock endpoint that records requests
// but never answers until Release is called or the client goes away.
func NewBlockingSiteverifyServer(t *testing.T, body string) *SiteverifyServer {
	return newSiteverifyServer(t, http.StatusOK, body, true)
}

func newSiteverifyServer(t *testing.T, status int, body string, blocking bool) *SiteverifyServer {
	t.Helper()
	s := &SiteverifyServer{
		status:  status,
		body:    body,
		arrived: make(chan struct{}, 64),
	}
	if blocking {
		s.block = make(chan struct{})
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(func() {
		s.Release()
		s.Close()
	})
	return s
}

func (s *SiteverifyServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	s.mu.Unlock()

	select {
	case s.arrived <- struct{}{}:
	default:
	}

	if s.block != nil {
		select {
		case <-s.block:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.status)
	_, _ = io.WriteString(w, s.body)
}

// Release lets blocked requests answer. Safe to call more than once.
func (s *SiteverifyServer) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.block == nil {
		return
	}
	select {
	case <-s.block:
	default:
		close(s.block)
	}
}

// Requests returns the recorded requests.
func (s *SiteverifyServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// WaitForRequest blocks until the next request reaches the endpoint.
func (s *SiteverifyServer) WaitForRequest(t *testing.T) {
	t.Helper()
	select {
	case <-s.arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a siteverify request")
	}
}
