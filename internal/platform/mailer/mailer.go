// Package mailer sends donation receipts to donors over SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/harambee/harambee-donations/internal/domain"
)

// Sender implements domain.ReceiptSender on an SMTP client.
type Sender struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewSender creates an SMTP receipt sender.
func NewSender(host string, port int, username, password, from, fromName string) (*Sender, error) {
	c, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
	)
	if err != nil {
		return nil, err
	}
	return &Sender{client: c, from: from, fromName: fromName}, nil
}

// Send delivers a plain-text receipt for a completed donation.
func (s *Sender) Send(ctx context.Context, d *domain.Donation) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return err
	}
	if err := msg.To(d.DonorEmail); err != nil {
		return err
	}
	msg.Subject("Thank you for your donation")
	msg.SetBodyString(mail.TypeTextPlain, receiptBody(d))
	return s.client.DialAndSendWithContext(ctx, msg)
}

func receiptBody(d *domain.Donation) string {
	body := fmt.Sprintf(
		"Dear %s,\n\nThank you for your donation of %s %s.\n\nReference: %s\n",
		d.DonorName, d.Currency, d.Amount.StringFixed(2), d.MerchantReference)
	if d.ConfirmationCode != nil {
		body += fmt.Sprintf("Confirmation code: %s\n", *d.ConfirmationCode)
	}
	if d.PaymentMethod != nil {
		body += fmt.Sprintf("Payment method: %s\n", *d.PaymentMethod)
	}
	body += fmt.Sprintf("Date: %s\n", d.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	return body
}
