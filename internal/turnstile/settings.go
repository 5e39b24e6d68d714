package turnstile

import (
	"fmt"
	"net/url"
	"strings"
)

// Settings is the process-wide Turnstile configuration. It is immutable once
// built by NewSettings and safe for concurrent reads.
type Settings struct {
	baseURL   string
	siteKey   string
	secretKey string
}

// NewSettings validates the three required values and returns the snapshot.
// BaseURL must be an absolute http(s) URL; a trailing slash is dropped.
func NewSettings(baseURL, siteKey, secretKey string) (Settings, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return Settings{}, &ConfigurationError{Field: "BaseURL", Reason: "is required"}
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Settings{}, &ConfigurationError{Field: "BaseURL", Reason: "must be an absolute http(s) URL"}
	}
	if strings.TrimSpace(siteKey) == "" {
		return Settings{}, &ConfigurationError{Field: "SiteKey", Reason: "is required"}
	}
	if strings.TrimSpace(secretKey) == "" {
		return Settings{}, &ConfigurationError{Field: "SecretKey", Reason: "is required"}
	}

	return Settings{
		baseURL:   strings.TrimRight(baseURL, "/"),
		siteKey:   siteKey,
		secretKey: secretKey,
	}, nil
}

func (s Settings) BaseURL() string { return s.baseURL }

func (s Settings) SiteKey() string { return s.siteKey }

func (s Settings) String() string {
	return fmt.Sprintf("Settings{BaseURL: %q, SiteKey: %q, SecretKey: [REDACTED]}", s.baseURL, s.siteKey)
}

func (s Settings) GoString() string { return s.String() }
