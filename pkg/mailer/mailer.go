package mailer

import (
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/prepai-labs/compliance-monitor/pkg/config"
	appErrors "github.com/prepai-labs/compliance-monitor/pkg/errors"
)

// Attachment is a named binary payload included with a message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a single outbound email. The whole send is treated as atomic
// pass/fail regardless of the recipient count.
type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// SMTPMailer delivers messages over an authenticated SMTP connection.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPMailer constructs a mailer from SMTP configuration.
func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send composes and delivers the message. Connection and authentication
// failures surface as a typed delivery error.
func (m *SMTPMailer) Send(msg Message) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.cfg.From)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	for _, att := range msg.Attachments {
		content := att.Content
		gm.Attach(att.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(gm); err != nil {
		m.logger.Error("smtp send failed",
			zap.String("host", m.cfg.Host),
			zap.Int("recipients", len(msg.To)),
			zap.Error(err),
		)
		return appErrors.Wrap(err, appErrors.ErrMailDelivery.Code, appErrors.ErrMailDelivery.Status, "send alert email")
	}

	m.logger.Info("alert email sent",
		zap.Int("recipients", len(msg.To)),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
