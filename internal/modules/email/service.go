// Package email renders and dispatches transactional notifications.
// Delivery is fire-and-forget: a failed send is logged and never fails
// the operation that triggered it.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

const sendTimeout = 10 * time.Second

type Notifier struct {
	sender  Sender
	log     *slog.Logger
	enabled bool
}

func NewNotifier(sender Sender, log *slog.Logger, enabled bool) *Notifier {
	return &Notifier{sender: sender, log: log, enabled: enabled}
}

// dispatch sends in the background, detached from the request context.
func (n *Notifier) dispatch(kind string, m Message) {
	if !n.enabled || m.To == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.sender.Send(ctx, m); err != nil {
			n.log.Error("email send failed", "kind", kind, "to", m.To, "err", err)
		}
	}()
}

// formatAmount renders cents as a decimal amount with its currency code.
func formatAmount(cents int, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}

type OrderConfirmationData struct {
	Email       string
	Name        string
	OrderNumber string
	FinalCents  int
	Currency    string
}

func (n *Notifier) OrderConfirmation(d OrderConfirmationData) {
	total := formatAmount(d.FinalCents, d.Currency)
	m := Message{
		To:      d.Email,
		ToName:  d.Name,
		Subject: "Order confirmation - Kavella",
		Text: "Hello " + d.Name + ",\n\nWe received your order " + d.OrderNumber +
			". Total: " + total + "\n\nThank you for shopping with us!",
		HTML: `
<html>
  <body style="font-family: sans-serif;">
    <h2>Order confirmation</h2>
    <p>Hello ` + d.Name + `,</p>
    <p>We received your order.</p>
    <p><strong>Order number:</strong> ` + d.OrderNumber + `</p>
    <p><strong>Total:</strong> ` + total + `</p>
    <p>Thank you for shopping with us!</p>
    <p>The Kavella team</p>
  </body>
</html>
`,
	}
	n.dispatch("order_confirmation", m)
}

type ShipmentUpdateData struct {
	Email          string
	Name           string
	OrderNumber    string
	Carrier        string
	TrackingNumber string
	Delivered      bool
}

func (n *Notifier) ShipmentUpdate(d ShipmentUpdateData) {
	subject := "Your order is on its way - Kavella"
	lead := "Your order " + d.OrderNumber + " has shipped"
	if d.Delivered {
		subject = "Your order was delivered - Kavella"
		lead = "Your order " + d.OrderNumber + " was delivered"
	}
	tracking := ""
	if d.TrackingNumber != "" {
		tracking = "\nCarrier: " + d.Carrier + "\nTracking number: " + d.TrackingNumber
	}
	m := Message{
		To:      d.Email,
		ToName:  d.Name,
		Subject: subject,
		Text:    "Hello " + d.Name + ",\n\n" + lead + "." + tracking + "\n\nThe Kavella team",
		HTML: `
<html>
  <body style="font-family: sans-serif;">
    <h2>Shipment update</h2>
    <p>Hello ` + d.Name + `,</p>
    <p>` + lead + `.</p>
    <p><strong>Carrier:</strong> ` + d.Carrier + `</p>
    <p><strong>Tracking number:</strong> ` + d.TrackingNumber + `</p>
    <p>The Kavella team</p>
  </body>
</html>
`,
	}
	n.dispatch("shipment_update", m)
}

type RefundNoticeData struct {
	Email       string
	Name        string
	OrderNumber string
	AmountCents int
	Currency    string
}

func (n *Notifier) RefundNotice(d RefundNoticeData) {
	amount := formatAmount(d.AmountCents, d.Currency)
	m := Message{
		To:      d.Email,
		ToName:  d.Name,
		Subject: "Refund processed - Kavella",
		Text: "Hello " + d.Name + ",\n\nWe refunded " + amount + " for order " +
			d.OrderNumber + ". Depending on your bank it can take a few days to appear.\n\nThe Kavella team",
		HTML: `
<html>
  <body style="font-family: sans-serif;">
    <h2>Refund processed</h2>
    <p>Hello ` + d.Name + `,</p>
    <p>We refunded <strong>` + amount + `</strong> for order ` + d.OrderNumber + `.</p>
    <p>Depending on your bank it can take a few days to appear.</p>
    <p>The Kavella team</p>
  </body>
</html>
`,
	}
	n.dispatch("refund_notice", m)
}
