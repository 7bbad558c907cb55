// Package notify renders and dispatches order-confirmation messages. Sends
// are best effort: a failed send is reported as a warning and never aborts
// the other send, because the customer's charge has already succeeded.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmateus/vendhub/internal/domain"
)

// Message is one outbound confirmation with plain-text and rich-text bodies.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Transport delivers a single message, fire-and-forget.
type Transport interface {
	Send(ctx context.Context, m Message) error
}

type Notifier struct {
	transport Transport
	from      string
	operator  string
}

// NewNotifier builds a notifier that sends from and copies the operator
// address on every order.
func NewNotifier(transport Transport, from, operator string) *Notifier {
	return &Notifier{transport: transport, from: from, operator: operator}
}

// Send dispatches the confirmation to the customer and to the operator. Both
// sends are always attempted; failures come back as a warning list.
func (n *Notifier) Send(ctx context.Context, data domain.OrderData, items []domain.CartItem, total float64) []error {
	text, html := render(data, items, total)

	var warnings []error
	for _, to := range []string{data.Email, n.operator} {
		err := n.transport.Send(ctx, Message{
			From:    n.from,
			To:      to,
			Subject: "Order Made!",
			Text:    text,
			HTML:    html,
		})
		if err != nil {
			warnings = append(warnings, fmt.Errorf("send to %s: %w", to, err))
		}
	}
	return warnings
}

// Recipients is how many messages one confirmation produces.
func (n *Notifier) Recipients() int { return 2 }

func render(data domain.OrderData, items []domain.CartItem, total float64) (text, html string) {
	var tb, hb strings.Builder

	tb.WriteString("Order Made!\n\n")
	fmt.Fprintf(&tb, "Apt %s\nName: %s\nEmail: %s\n\nItems Ordered:\n", data.Apartment, data.Name, data.Email)

	hb.WriteString("<h1>Order Made!</h1>")
	fmt.Fprintf(&hb, "<p><strong>Apt:</strong> %s<br><strong>Name:</strong> %s<br><strong>Email:</strong> %s</p>",
		data.Apartment, data.Name, data.Email)
	hb.WriteString("<h2>Items Ordered:</h2><ul>")

	for _, it := range items {
		subtotal := it.Price * float64(it.Quantity)
		fmt.Fprintf(&tb, "%s x%d - $%.2f\n", it.Name, it.Quantity, subtotal)
		fmt.Fprintf(&hb, "<li>%s x%d - $%.2f</li>", it.Name, it.Quantity, subtotal)
	}

	fmt.Fprintf(&tb, "\nTotal:\n$%.2f\n", total)
	fmt.Fprintf(&hb, "</ul><h2>Total:</h2><p><strong>$%.2f</strong></p>", total)

	return tb.String(), hb.String()
}
