package mail

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"

	"ecommerce/pkg/domain/model"
)

const dialTimeout = 15 * time.Second

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSender picks the SMTP sender when a host is configured and falls back
// to logging mails otherwise.
func NewSender(config SMTPConfig) model.MailSender {
	if config.Host == "" {
		return &logSender{}
	}
	s := &smtpSender{config: config}
	s.deliver = s.dialAndSend
	return s
}

type smtpSender struct {
	config  SMTPConfig
	deliver func(ctx context.Context, msg *gomail.Msg) error
}

func (s *smtpSender) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := buildMessage(s.config.From, to, subject, html, time.Now())
	if err != nil {
		return err
	}
	if err := s.deliver(ctx, msg); err != nil {
		return errors.Wrapf(err, "send mail to %s", to)
	}
	return nil
}

func (s *smtpSender) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(s.config.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(dialTimeout),
	}
	if s.config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.config.Username),
			gomail.WithPassword(s.config.Password),
		)
	}
	client, err := gomail.NewClient(s.config.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "create smtp client")
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// buildMessage creates a single-part HTML mail. Header values are MIME encoded,
// so line breaks in the subject cannot start new headers.
func buildMessage(from, to, subject, html string, now time.Time) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, errors.Wrapf(err, "invalid sender address %q", from)
	}
	if err := msg.To(to); err != nil {
		return nil, errors.Wrapf(err, "invalid recipient address %q", to)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(now)
	msg.SetBodyString(gomail.TypeTextHTML, html)
	return msg, nil
}

type logSender struct{}

func (s *logSender) Send(_ context.Context, to, subject, _ string) error {
	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("mail delivery is not configured, mail logged")
	return nil
}
