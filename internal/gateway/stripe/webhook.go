package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/storefront-go/checkout/internal/checkout"
)

// signatureTolerance bounds how old a signed webhook may be. Replays of a
// captured delivery outside this window are rejected even with a valid
// signature.
const signatureTolerance = 5 * time.Minute

// eventJSON is the webhook envelope: event identity plus the id of the
// session it refers to.
type eventJSON struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the Stripe-Signature header against the raw payload
// and returns the typed event. The scheme is HMAC-SHA256 over
// "<timestamp>.<payload>" with the endpoint's signing secret; the header
// carries the timestamp as t= and one or more candidate signatures as v1=.
func (c *Client) VerifyWebhook(payload []byte, signatureHeader string) (checkout.Event, error) {
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return checkout.Event{}, err
	}

	age := c.now().Sub(time.Unix(timestamp, 0))
	if age > c.tolerance || age < -c.tolerance {
		return checkout.Event{}, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}

	expected := computeSignature(c.webhookSecret, timestamp, payload)
	if !anySignatureMatches(signatures, expected) {
		return checkout.Event{}, ErrSignatureInvalid
	}

	var ev eventJSON
	if err := json.Unmarshal(payload, &ev); err != nil {
		return checkout.Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if ev.ID == "" || ev.Type == "" {
		return checkout.Event{}, fmt.Errorf("%w: missing event id or type", ErrInvalidPayload)
	}

	return checkout.Event{
		ID:        ev.ID,
		Type:      checkout.EventType(ev.Type),
		SessionID: ev.Data.Object.ID,
		CreatedAt: time.Unix(ev.Created, 0).UTC(),
	}, nil
}

// parseSignatureHeader splits "t=1492774577,v1=5257a86...,v1=..." into the
// timestamp and the candidate signatures. Elements with other prefixes
// (v0 test-mode signatures, future schemes) are skipped.
func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64 = -1
	var signatures []string

	for _, element := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(element), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrSignatureInvalid)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed header", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func computeSignature(secret string, timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func anySignatureMatches(candidates []string, expected []byte) bool {
	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return true
		}
	}
	return false
}
