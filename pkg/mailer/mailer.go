package mailer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/campushub/campushub-api/pkg/config"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Message is an outbound e-mail.
type Message struct {
	To       []Address
	Subject  string
	Text     string
	HTML     string
	Category string
}

// Address is a display name and mailbox pair.
type Address struct {
	Name  string
	Email string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks a provider from configuration; anything but "sendgrid" logs messages instead of sending.
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Provider == "sendgrid" && cfg.SendgridAPIKey != "" {
		return NewSendgrid(cfg.SendgridAPIKey, cfg.FromName, cfg.FromAddress)
	}
	return &LogMailer{logger: logger}
}

// Sendgrid sends through the SendGrid v3 API.
type Sendgrid struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	host       string
}

// NewSendgrid builds a SendGrid mailer.
func NewSendgrid(key, fromName, fromAddress string) *Sendgrid {
	return &Sendgrid{
		key:        key,
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: "[" + fromName + "] ",
		host:       sendgridHost,
	}
}

// Send posts the message and treats any 4xx/5xx as a failure.
func (s *Sendgrid) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.build(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid responded %d: %s", res.StatusCode, strings.TrimSpace(res.Body))
	}
	return nil
}

func (s *Sendgrid) build(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Email))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	if msg.Category != "" {
		m.AddCategories(msg.Category)
	}
	return m
}

// LogMailer writes messages to the logger; used in development.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a logging mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message.
func (l *LogMailer) Send(_ context.Context, msg Message) error {
	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		recipients = append(recipients, to.Email)
	}
	l.logger.Info("mail sent",
		zap.Strings("to", recipients),
		zap.String("subject", msg.Subject),
		zap.String("category", msg.Category),
		zap.String("body", msg.Text),
	)
	return nil
}
