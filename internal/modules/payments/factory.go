package payments

import (
	"fmt"

	"kavella.com/app/internal/config"
)

// NewProvider selects the gateway adapter by configuration at process
// start. Real processors plug in here without touching the ledger.
func NewProvider(cfg config.Config) (Provider, error) {
	switch cfg.PaymentProvider {
	case "mockpay":
		if cfg.MockWebhookSecret == "" {
			return nil, fmt.Errorf("payments: MOCK_WEBHOOK_SECRET required for mockpay")
		}
		return NewMockpay(cfg.MockWebhookSecret), nil
	default:
		return nil, fmt.Errorf("payments: unknown PAYMENT_PROVIDER: %s", cfg.PaymentProvider)
	}
}
