package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/pkg/jobs"
	"github.com/campushub/campushub-api/pkg/mailer"
)

// JobTypeSendMail is the queue job that delivers one mailer.Message.
const JobTypeSendMail = "mail.send"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService composes mails and hands them to the background queue.
type NotificationService struct {
	queue   jobEnqueuer
	mailer  mailer.Mailer
	appName string
	logger  *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(queue jobEnqueuer, m mailer.Mailer, appName string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if appName == "" {
		appName = "CampusHub"
	}
	return &NotificationService{queue: queue, mailer: m, appName: appName, logger: logger}
}

// SendMailJob is the queue handler for JobTypeSendMail.
func (s *NotificationService) SendMailJob(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	return s.mailer.Send(ctx, msg)
}

// ImportSummary queues a report of a finished spreadsheet import.
func (s *NotificationService) ImportSummary(to mailer.Address, filename string, summary models.ImportSummary) error {
	if strings.TrimSpace(to.Email) == "" {
		return nil
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Your import of %s has finished.\n\n", filename)
	fmt.Fprintf(&body, "Rows processed: %d\nImported: %d\nRejected: %d\n", summary.Total, summary.SuccessCount, summary.ErrorCount)
	if len(summary.Errors) > 0 {
		body.WriteString("\nRejected rows:\n")
		for _, rowErr := range summary.Errors {
			fmt.Fprintf(&body, "  row %d: %s\n", rowErr.Row, rowErr.Message)
		}
	}
	return s.enqueue(mailer.Message{
		To:       []mailer.Address{to},
		Subject:  fmt.Sprintf("[%s] Schedule import: %d imported, %d rejected", s.appName, summary.SuccessCount, summary.ErrorCount),
		Text:     body.String(),
		Category: "schedule-import",
	})
}

// PaymentReceipt queues a confirmation for a settled payment.
func (s *NotificationService) PaymentReceipt(to mailer.Address, payment models.Payment) error {
	if strings.TrimSpace(to.Email) == "" {
		return nil
	}
	return s.enqueue(mailer.Message{
		To:      []mailer.Address{to},
		Subject: fmt.Sprintf("[%s] Payment received", s.appName),
		Text: fmt.Sprintf("We received your payment of %.2f %s (reference %s). Your subscription is now active.\n",
			payment.Amount, payment.Currency, payment.ID),
		Category: "payment-receipt",
	})
}

func (s *NotificationService) enqueue(msg mailer.Message) error {
	if s == nil || s.queue == nil {
		return nil
	}
	if err := s.queue.Enqueue(jobs.Job{Type: JobTypeSendMail, Payload: msg}); err != nil {
		s.logger.Warn("queue mail failed", zap.String("subject", msg.Subject), zap.Error(err))
		return err
	}
	return nil
}
