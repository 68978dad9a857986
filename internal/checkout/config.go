package checkout

import (
	"errors"
	"fmt"
	"strings"
)

// UIMode selects how the payment UI is presented: a full redirect to the
// provider (hosted) or rendered inline on the storefront (embedded).
type UIMode string

const (
	UIModeHosted   UIMode = "hosted"
	UIModeEmbedded UIMode = "embedded"
)

// ErrInvalidConfig is returned when a checkout config is missing a required
// return target.
var ErrInvalidConfig = errors.New("checkout: invalid config")

// Config is the tagged union of per-mode checkout configuration. The
// required URL set is a property of the concrete type, not a runtime lookup:
// hosted mode needs success and cancel URLs, embedded mode needs a return
// URL. Only HostedConfig and EmbeddedConfig implement it.
type Config interface {
	UIMode() UIMode
	validate() error
	apply(req *SessionRequest)
}

// HostedConfig configures a hosted-mode checkout.
type HostedConfig struct {
	SuccessURL string
	CancelURL  string
}

func (c HostedConfig) UIMode() UIMode { return UIModeHosted }

func (c HostedConfig) validate() error {
	if c.SuccessURL == "" {
		return fmt.Errorf("%w: hosted mode requires a success URL", ErrInvalidConfig)
	}
	if c.CancelURL == "" {
		return fmt.Errorf("%w: hosted mode requires a cancel URL", ErrInvalidConfig)
	}
	return nil
}

func (c HostedConfig) apply(req *SessionRequest) {
	// The success URL is where the shopper lands after paying, so it
	// needs the session id to look the payment up again.
	req.SuccessURL = withSessionIDPlaceholder(c.SuccessURL)
	req.CancelURL = c.CancelURL
}

// EmbeddedConfig configures an embedded-mode checkout.
type EmbeddedConfig struct {
	ReturnURL string
}

func (c EmbeddedConfig) UIMode() UIMode { return UIModeEmbedded }

func (c EmbeddedConfig) validate() error {
	if c.ReturnURL == "" {
		return fmt.Errorf("%w: embedded mode requires a return URL", ErrInvalidConfig)
	}
	return nil
}

func (c EmbeddedConfig) apply(req *SessionRequest) {
	req.ReturnURL = withSessionIDPlaceholder(c.ReturnURL)
}

// SessionIDPlaceholder is the token the provider substitutes with the real
// session id when redirecting the shopper back.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// withSessionIDPlaceholder appends session_id={CHECKOUT_SESSION_ID} to the
// URL's query string, keeping any existing query parameters.
func withSessionIDPlaceholder(url string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "session_id=" + SessionIDPlaceholder
}
