// Package notify delivers rendered messages by e-mail to employees and by
// Telegram to the organizing team's channel.
package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

// MailDialer sends prepared messages. *gomail.Dialer satisfies it.
type MailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer e-mails employees, one message per recipient.
type Mailer struct {
	dialer MailDialer
	from   string
}

// NewMailer returns a Mailer sending through an SMTP server.
func NewMailer(host string, port int, user, password, from string) *Mailer {
	return NewMailerWithDialer(gomail.NewDialer(host, port, user, password), from)
}

// NewMailerWithDialer returns a Mailer sending through d.
func NewMailerWithDialer(d MailDialer, from string) *Mailer {
	return &Mailer{dialer: d, from: from}
}

// SendToUsers mails msg to every user with an address. Users without one
// are skipped.
func (m *Mailer) SendToUsers(ctx context.Context, users []model.UserProfile, msg model.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	messages := make([]*gomail.Message, 0, len(users))
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		messages = append(messages, m.compose(u, msg))
	}
	if len(messages) == 0 {
		return nil
	}
	if err := m.dialer.DialAndSend(messages...); err != nil {
		return fmt.Errorf("send mail to %d users: %w", len(messages), err)
	}
	return nil
}

func (m *Mailer) compose(u model.UserProfile, msg model.Message) *gomail.Message {
	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetAddressHeader("To", u.Email, u.DisplayName)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/plain", msg.Body)
	return message
}
