package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-go/checkout/internal/checkout"
)

const testSecret = "whsec_test"

func sign(secret string, ts time.Time, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func signedHeader(t *testing.T, secret string, ts time.Time, payload string) string {
	t.Helper()
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), sign(secret, ts, payload))
}

func testClientAt(now time.Time) *Client {
	c := New("sk_test", testSecret)
	c.now = func() time.Time { return now }
	return c
}

func TestVerifyWebhook(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	payload := fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"created": %d,
		"data": {"object": {"id": "cs_test_1"}}
	}`, now.Unix())

	c := testClientAt(now)
	ev, err := c.VerifyWebhook([]byte(payload), signedHeader(t, testSecret, now, payload))
	require.NoError(t, err)

	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, checkout.EventSessionCompleted, ev.Type)
	assert.Equal(t, "cs_test_1", ev.SessionID)
	assert.Equal(t, now, ev.CreatedAt)
}

func TestVerifyWebhook_WrongSecret(t *testing.T) {
	now := time.Now()
	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`

	c := testClientAt(now)
	_, err := c.VerifyWebhook([]byte(payload), signedHeader(t, "whsec_other", now, payload))
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyWebhook_TamperedPayload(t *testing.T) {
	now := time.Now()
	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`
	header := signedHeader(t, testSecret, now, payload)

	c := testClientAt(now)
	_, err := c.VerifyWebhook([]byte(payload+" "), header)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyWebhook_StaleTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`
	signedAt := now.Add(-signatureTolerance - time.Minute)

	c := testClientAt(now)
	_, err := c.VerifyWebhook([]byte(payload), signedHeader(t, testSecret, signedAt, payload))
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyWebhook_MalformedHeader(t *testing.T) {
	c := testClientAt(time.Now())

	for _, header := range []string{"", "t=abc,v1=00", "v1=00", "t=123"} {
		_, err := c.VerifyWebhook([]byte(`{}`), header)
		assert.ErrorIs(t, err, ErrSignatureInvalid, "header %q", header)
	}
}

func TestVerifyWebhook_SecondSignatureAccepted(t *testing.T) {
	now := time.Now()
	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`

	// A rotated-secret signature ahead of the valid one still verifies.
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s",
		now.Unix(), sign("whsec_rotated", now, payload), sign(testSecret, now, payload))

	c := testClientAt(now)
	_, err := c.VerifyWebhook([]byte(payload), header)
	assert.NoError(t, err)
}

func TestVerifyWebhook_InvalidPayload(t *testing.T) {
	now := time.Now()
	c := testClientAt(now)

	payload := `{not json`
	_, err := c.VerifyWebhook([]byte(payload), signedHeader(t, testSecret, now, payload))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	payload = `{"type":"checkout.session.completed"}`
	_, err = c.VerifyWebhook([]byte(payload), signedHeader(t, testSecret, now, payload))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
