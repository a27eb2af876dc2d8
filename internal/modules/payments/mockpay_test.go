package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockpay_WebhookRoundTrip(t *testing.T) {
	m := NewMockpay("whsec_test")

	payload := mockpayWebhookPayload{ID: "evt_1", Type: "payment.completed"}
	payload.Data.PaymentRef = "pay_abc"
	payload.Data.AmountCents = 5000
	payload.Data.Currency = "EUR"
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	h := http.Header{}
	h.Set("X-Mockpay-Signature", m.SignWebhook(time.Now(), body))

	ev, err := m.VerifyAndParseWebhook(h, body)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.EventID)
	assert.Equal(t, "payment.completed", ev.Type)
	assert.Equal(t, "pay_abc", ev.PaymentRef)
	assert.Equal(t, 5000, ev.AmountCents)
}

func TestMockpay_WebhookRejectsBadSignature(t *testing.T) {
	m := NewMockpay("whsec_test")
	other := NewMockpay("whsec_other")

	body := []byte(`{"id":"evt_1","type":"payment.completed","data":{}}`)

	h := http.Header{}
	h.Set("X-Mockpay-Signature", other.SignWebhook(time.Now(), body))
	_, err := m.VerifyAndParseWebhook(h, body)
	assert.Error(t, err)

	// tampered body
	h.Set("X-Mockpay-Signature", m.SignWebhook(time.Now(), body))
	_, err = m.VerifyAndParseWebhook(h, append(body, ' '))
	assert.Error(t, err)

	// missing header
	_, err = m.VerifyAndParseWebhook(http.Header{}, body)
	assert.Error(t, err)
}

func TestMockpay_ChargeAndCancel(t *testing.T) {
	m := NewMockpay("whsec_test")
	ctx := context.Background()

	charge, err := m.Charge(ctx, ChargeRequest{OrderID: "ord-1", AmountCents: 1000, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, charge.Status)
	assert.NotEmpty(t, charge.ProviderRef)

	cancel, err := m.Cancel(ctx, CancelRequest{PaymentRef: charge.ProviderRef, AmountCents: 1000, Currency: "EUR", Reason: "test"})
	require.NoError(t, err)
	assert.Equal(t, RefundCompleted, cancel.Status)

	_, err = m.Cancel(ctx, CancelRequest{AmountCents: 1000})
	assert.Error(t, err, "missing payment ref must fail")
}
