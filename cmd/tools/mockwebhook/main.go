// Dev tool: signs and sends a mockpay webhook to a running server.
package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"kavella.com/app/internal/modules/payments"
)

type webhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		PaymentRef  string `json:"payment_ref"`
		RefundRef   string `json:"refund_ref"`
		AmountCents int    `json:"amount_cents"`
		Currency    string `json:"currency"`
	} `json:"data"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/webhooks/mockpay", "Webhook URL")
	secret := flag.String("secret", os.Getenv("MOCK_WEBHOOK_SECRET"), "Webhook secret")
	eventID := flag.String("event-id", "evt_"+randomHex(8), "Event ID")
	eventType := flag.String("type", "payment.completed", "Event type (payment.completed, payment.failed, refund.completed, refund.failed)")
	paymentRef := flag.String("payment-ref", "pay_"+randomHex(8), "Payment ref (for payment events)")
	refundRef := flag.String("refund-ref", "", "Refund ref (for refund events)")
	amount := flag.Int("amount", 5000, "Amount in cents")
	currency := flag.String("currency", "EUR", "Currency")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and MOCK_WEBHOOK_SECRET not set\n")
		os.Exit(1)
	}

	payload := webhookPayload{
		ID:   *eventID,
		Type: *eventType,
	}
	payload.Data.PaymentRef = *paymentRef
	payload.Data.RefundRef = *refundRef
	payload.Data.AmountCents = *amount
	payload.Data.Currency = *currency

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	sigHeader := payments.NewMockpay(*secret).SignWebhook(time.Now(), body)

	fmt.Printf("X-Mockpay-Signature: %s\n", sigHeader)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest("POST", *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Mockpay-Signature", sigHeader)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
