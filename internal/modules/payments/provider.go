package payments

import (
	"context"
	"net/http"
)

type ChargeRequest struct {
	OrderID        string
	AmountCents    int
	Currency       string
	Method         string
	IdempotencyKey string
}

type ChargeResponse struct {
	ProviderRef string
	Status      string // completed|initiated|failed
}

type CancelRequest struct {
	PaymentRef     string // payment.provider_ref
	AmountCents    int
	Currency       string
	Reason         string
	IdempotencyKey string
}

type CancelResponse struct {
	ProviderRef string // refund reference at the gateway
	Status      string // completed|initiated|failed
}

type VerifyResult struct {
	ProviderRef string
	Status      string // completed|pending|cancelled|failed
	AmountCents int
	Currency    string
}

type WebhookEvent struct {
	EventID string
	Type    string // payment.completed|payment.failed|refund.completed|refund.failed

	PaymentRef string
	RefundRef  string

	AmountCents int
	Currency    string
}

// Provider is the gateway capability surface. The ledger treats it as
// opaque: boolean-ish outcomes plus references, nothing interpreted
// further. Alternate processors implement this and register in the
// factory.
type Provider interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (ChargeResponse, error)
	Cancel(ctx context.Context, req CancelRequest) (CancelResponse, error)
	Verify(ctx context.Context, providerRef string) (VerifyResult, error)

	// Webhook: verify signature + parse event
	VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error)
}
