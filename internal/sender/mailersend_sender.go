package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/VinayKumar7512/EventNest/pkg/logger"
)

const sendTimeout = 5 * time.Second

// MailerSendSender implements Sender using the MailerSend API
type MailerSendSender struct {
	client    *mailersend.Mailersend
	fromName  string
	fromEmail string
}

// NewMailerSendSender creates a new MailerSend-backed sender
func NewMailerSendSender(apiKey, fromName, fromEmail string) *MailerSendSender {
	return &MailerSendSender{
		client:    mailersend.NewMailersend(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send delivers one email
func (s *MailerSendSender) Send(ctx context.Context, msg *Message) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	message := s.client.Email.NewMessage()
	message.SetFrom(mailersend.From{
		Name:  s.fromName,
		Email: s.fromEmail,
	})
	message.SetRecipients([]mailersend.Recipient{
		{Email: msg.To},
	})
	message.SetSubject(msg.Subject)
	message.SetText(msg.Body)

	res, err := s.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Get().Debug(fmt.Sprintf("Email sent, message id: %s", res.Header.Get("X-Message-Id")))
	return nil
}
