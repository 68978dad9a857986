// Package stripe adapts the checkout.PaymentGateway port to the Stripe API:
// form-encoded session create/retrieve calls plus webhook signature
// verification. No SDK is used; the surface this module needs is three
// endpoints and one HMAC scheme.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/storefront-go/checkout/internal/checkout"
)

const defaultBaseURL = "https://api.stripe.com"

// APIError is a non-2xx answer from the Stripe API.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %s (status %d, type %s, code %s)", e.Message, e.StatusCode, e.Type, e.Code)
}

// Client implements checkout.PaymentGateway against the Stripe API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	secretKey     string
	webhookSecret string
	tolerance     time.Duration
	now           func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API host (tests, mocks).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// New builds a client with the account's secret key and webhook signing
// secret.
func New(secretKey, webhookSecret string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       defaultBaseURL,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		tolerance:     signatureTolerance,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession creates a checkout session from the builder's request.
func (c *Client) CreateSession(ctx context.Context, req *checkout.SessionRequest) (checkout.CreatedSession, error) {
	form := encodeSessionRequest(req)

	var resp sessionJSON
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &resp); err != nil {
		return checkout.CreatedSession{}, err
	}

	return checkout.CreatedSession{
		ID:           resp.ID,
		URL:          resp.URL,
		ClientSecret: resp.ClientSecret,
	}, nil
}

// RetrieveSession fetches a session, expanding the given paths. Callers pass
// ExpandForReconciliation to get everything the reconciler snapshots.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string, expand []string) (*checkout.SessionSnapshot, error) {
	form := url.Values{}
	for _, e := range expand {
		form.Add("expand[]", e)
	}

	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID)
	if encoded := form.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp sessionJSON
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.snapshot(), nil
}

// ExpandForReconciliation lists the paths the reconciler needs expanded on a
// retrieved session.
var ExpandForReconciliation = []string{
	"line_items.data.price.product",
	"payment_intent.payment_method",
	"shipping_cost.shipping_rate",
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("stripe: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("stripe: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var wrapper struct {
			Error struct {
				Type    string `json:"type"`
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(data, &wrapper)
		return &APIError{
			StatusCode: resp.StatusCode,
			Type:       wrapper.Error.Type,
			Code:       wrapper.Error.Code,
			Message:    wrapper.Error.Message,
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("stripe: decode response: %w", err)
	}
	return nil
}

// encodeSessionRequest flattens the request into Stripe's bracketed form
// encoding.
func encodeSessionRequest(req *checkout.SessionRequest) url.Values {
	form := url.Values{}
	form.Set("mode", req.Mode)
	form.Set("ui_mode", string(req.UIMode))

	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	switch req.UIMode {
	case checkout.UIModeHosted:
		form.Set("success_url", req.SuccessURL)
		form.Set("cancel_url", req.CancelURL)
	case checkout.UIModeEmbedded:
		form.Set("return_url", req.ReturnURL)
	}

	for i, li := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(li.Quantity))
		form.Set(prefix+"[price_data][currency]", li.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(li.UnitAmountMinor, 10))
		form.Set(prefix+"[price_data][product_data][name]", li.ProductName)
		if li.ProductDescription != "" {
			form.Set(prefix+"[price_data][product_data][description]", li.ProductDescription)
		}
		for j, img := range li.ProductImages {
			form.Set(fmt.Sprintf("%s[price_data][product_data][images][%d]", prefix, j), img)
		}
		if li.ProductID != "" {
			form.Set(prefix+"[price_data][product_data][metadata][product_id]", li.ProductID)
		}
	}

	for i, country := range req.ShippingAllowedCountries {
		form.Set(fmt.Sprintf("shipping_address_collection[allowed_countries][%d]", i), country)
	}
	for i, rate := range req.ShippingRates {
		prefix := fmt.Sprintf("shipping_options[%d][shipping_rate_data]", i)
		form.Set(prefix+"[type]", "fixed_amount")
		form.Set(prefix+"[display_name]", rate.DisplayName)
		form.Set(prefix+"[fixed_amount][amount]", strconv.FormatInt(rate.AmountMinor, 10))
		form.Set(prefix+"[fixed_amount][currency]", rate.Currency)
		if est := rate.DeliveryEstimate; est != nil {
			if est.Minimum != nil {
				form.Set(prefix+"[delivery_estimate][minimum][unit]", est.Minimum.Unit)
				form.Set(prefix+"[delivery_estimate][minimum][value]", strconv.Itoa(est.Minimum.Value))
			}
			if est.Maximum != nil {
				form.Set(prefix+"[delivery_estimate][maximum][unit]", est.Maximum.Unit)
				form.Set(prefix+"[delivery_estimate][maximum][value]", strconv.Itoa(est.Maximum.Value))
			}
		}
	}

	return form
}

var _ checkout.PaymentGateway = (*Client)(nil)

// errors used by webhook verification, declared here so the package's error
// surface sits together.
var (
	// ErrSignatureInvalid is returned when the signature header does not
	// match the payload or is outside the timestamp tolerance.
	ErrSignatureInvalid = errors.New("stripe: invalid webhook signature")

	// ErrInvalidPayload is returned when the webhook body is not a
	// well-formed event.
	ErrInvalidPayload = errors.New("stripe: invalid webhook payload")
)
