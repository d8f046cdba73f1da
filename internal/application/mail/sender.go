package mail

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/go-member-api/internal/domain"
)

type mailer interface {
	SendHTML(ctx context.Context, to, subject, body string) error
}

// Sender composes and delivers the member mails: find-id results,
// temporary passwords and verification codes.
type Sender struct {
	mailer mailer
}

func NewSender(m mailer) *Sender {
	return &Sender{mailer: m}
}

// Send delivers content to the given address using the template for category.
// Delivery failures are reported as domain.ErrMailSend.
func (s *Sender) Send(ctx context.Context, to, content string, category domain.MailCategory) error {
	subject, body := compose(category, content)
	if err := s.mailer.SendHTML(ctx, to, subject, body); err != nil {
		slog.Warn("mail delivery failed", "category", string(category), "to", to, "err", err)
		return fmt.Errorf("%w: %v", domain.ErrMailSend, err)
	}
	return nil
}

func compose(category domain.MailCategory, content string) (subject, body string) {
	c := html.EscapeString(content)
	switch category {
	case domain.MailID:
		return "[Member] Your user id lookup result",
			"<h3>Here is the user id registered with this email.</h3><h1>" + c + "</h1><h3>Thank you.</h3>"
	case domain.MailPassword:
		return "[Member] Your temporary password",
			"<h3>Here is your temporary password.</h3><h1>" + c + "</h1>" +
				"<h3>Please sign in with it and change your password right away.</h3><h3>Thank you.</h3>"
	default:
		return "[Member] Your verification code",
			"<h3>Here is your verification code.</h3><h1>" + c + "</h1><h3>Thank you.</h3>"
	}
}
