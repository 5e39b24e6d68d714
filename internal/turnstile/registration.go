package turnstile

import (
	"net/http"
	"strings"

	"github.com/qolzam/telar-turnstile/internal/pkg/log"
	platformconfig "github.com/qolzam/telar-turnstile/internal/platform/config"
)

// Register validates the Turnstile section and wires settings, client and
// provider. It fails with a *ConfigurationError before anything else is
// built when BaseURL is missing, so the caller can halt startup.
// A nil httpClient is replaced by one using cfg.Timeout.
func Register(cfg platformconfig.TurnstileConfig, httpClient *http.Client) (*Provider, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, &ConfigurationError{Field: "BaseURL", Reason: "is required"}
	}

	settings, err := NewSettings(cfg.BaseURL, cfg.SiteKey, cfg.SecretKey)
	if err != nil {
		return nil, err
	}

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log.Info("Cloudflare Turnstile verification registered for %s", settings.BaseURL())
	return NewProvider(settings, NewClient(settings.BaseURL(), httpClient)), nil
}
