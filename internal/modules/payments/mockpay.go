package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const mockpaySignatureHeader = "X-Mockpay-Signature"

// Mockpay is an in-process gateway adapter for development and tests.
// Charges and cancellations settle synchronously; webhooks are signed
// with HMAC-SHA256 over "<unix-ts>.<body>" in the same header format a
// real processor would use: "t=<ts>,v1=<hex>".
type Mockpay struct {
	secret []byte
}

func NewMockpay(secret string) *Mockpay {
	return &Mockpay{secret: []byte(secret)}
}

func (m *Mockpay) Name() string { return "mockpay" }

func (m *Mockpay) Charge(ctx context.Context, req ChargeRequest) (ChargeResponse, error) {
	_ = ctx
	if req.AmountCents <= 0 {
		return ChargeResponse{Status: StatusFailed}, fmt.Errorf("mockpay: non-positive amount")
	}
	return ChargeResponse{
		ProviderRef: "pay_" + uuid.NewString(),
		Status:      StatusCompleted,
	}, nil
}

func (m *Mockpay) Cancel(ctx context.Context, req CancelRequest) (CancelResponse, error) {
	_ = ctx
	if req.PaymentRef == "" {
		return CancelResponse{Status: RefundFailed}, fmt.Errorf("mockpay: missing payment ref")
	}
	if req.AmountCents <= 0 {
		return CancelResponse{Status: RefundFailed}, fmt.Errorf("mockpay: non-positive amount")
	}
	return CancelResponse{
		ProviderRef: "re_" + uuid.NewString(),
		Status:      RefundCompleted,
	}, nil
}

func (m *Mockpay) Verify(ctx context.Context, providerRef string) (VerifyResult, error) {
	_ = ctx
	if providerRef == "" {
		return VerifyResult{}, fmt.Errorf("mockpay: missing provider ref")
	}
	return VerifyResult{ProviderRef: providerRef, Status: StatusCompleted}, nil
}

type mockpayWebhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		PaymentRef  string `json:"payment_ref"`
		RefundRef   string `json:"refund_ref"`
		AmountCents int    `json:"amount_cents"`
		Currency    string `json:"currency"`
	} `json:"data"`
}

func (m *Mockpay) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	sigHeader := headers.Get(mockpaySignatureHeader)
	if sigHeader == "" {
		return WebhookEvent{}, fmt.Errorf("mockpay: missing %s header", mockpaySignatureHeader)
	}

	ts, sig, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return WebhookEvent{}, err
	}

	expected := computeSignature(m.secret, ts, body)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return WebhookEvent{}, fmt.Errorf("mockpay: signature mismatch")
	}

	var p mockpayWebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return WebhookEvent{}, fmt.Errorf("mockpay: invalid payload: %w", err)
	}
	if p.ID == "" || p.Type == "" {
		return WebhookEvent{}, fmt.Errorf("mockpay: payload missing id or type")
	}

	return WebhookEvent{
		EventID:     p.ID,
		Type:        p.Type,
		PaymentRef:  p.Data.PaymentRef,
		RefundRef:   p.Data.RefundRef,
		AmountCents: p.Data.AmountCents,
		Currency:    p.Data.Currency,
	}, nil
}

// SignWebhook produces the signature header for a raw body, for tests and
// the mockwebhook tool.
func (m *Mockpay) SignWebhook(t time.Time, body []byte) string {
	ts := t.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeSignature(m.secret, ts, body))
}

func parseSignatureHeader(h string) (int64, string, error) {
	var ts int64
	var sig string
	for _, part := range strings.Split(h, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("mockpay: bad timestamp in signature header")
			}
			ts = n
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return 0, "", fmt.Errorf("mockpay: malformed signature header")
	}
	return ts, sig, nil
}

func computeSignature(secret []byte, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
