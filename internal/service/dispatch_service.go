package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/prepai-labs/compliance-monitor/internal/models"
	"github.com/prepai-labs/compliance-monitor/pkg/mailer"
)

type staffReader interface {
	ListStaffByRoles(ctx context.Context, roles []models.UserRole) ([]models.Staff, error)
}

type mailSender interface {
	Send(msg mailer.Message) error
}

// DispatchResult summarises one delivery attempt.
type DispatchResult struct {
	Recipients     int
	SkippedNoEmail int
}

// DispatchService resolves the recipient set and delivers the alert message
// with both report artifacts attached. The send is atomic pass/fail; a
// transport failure is surfaced so the caller leaves the run marker
// untouched and the next eligible cycle retries.
type DispatchService struct {
	staff   staffReader
	mail    mailSender
	metrics *MetricsService
	logger  *zap.Logger
}

// NewDispatchService constructs a DispatchService.
func NewDispatchService(staff staffReader, mail mailSender, metrics *MetricsService, logger *zap.Logger) *DispatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchService{staff: staff, mail: mail, metrics: metrics, logger: logger}
}

// Dispatch sends one message with the two artifacts to all eligible staff.
// Staff entries without an email address are skipped silently.
func (s *DispatchService) Dispatch(ctx context.Context, inactiveReport, missedReport []byte, inactiveCount, missedCount int) (*DispatchResult, error) {
	staff, err := s.staff.ListStaffByRoles(ctx, models.NotifiableStaffRoles)
	if err != nil {
		return nil, fmt.Errorf("resolve recipients: %w", err)
	}

	emails := make([]string, 0, len(staff))
	skipped := 0
	for _, member := range staff {
		email := strings.TrimSpace(member.Email)
		if email == "" {
			skipped++
			continue
		}
		emails = append(emails, email)
	}

	if len(emails) == 0 {
		s.logger.Warn("no staff recipients with email addresses, nothing delivered",
			zap.Int("skipped", skipped))
		return &DispatchResult{Recipients: 0, SkippedNoEmail: skipped}, nil
	}

	msg := mailer.Message{
		To:      emails,
		Subject: fmt.Sprintf("PrepAI Daily Alert: %d Inactive, %d Tasks Missed", inactiveCount, missedCount),
		Body: fmt.Sprintf("Hello Staff,\n\n"+
			"The system has detected issues requiring your attention.\n"+
			"1. Inactive Students: %d\n"+
			"2. Tasks with Missing Submissions: %d\n\n"+
			"Please find the two separate detailed reports attached.",
			inactiveCount, missedCount),
		Attachments: []mailer.Attachment{
			{Filename: "inactive_students.pdf", Content: inactiveReport},
			{Filename: "missed_tasks.pdf", Content: missedReport},
		},
	}

	if err := s.mail.Send(msg); err != nil {
		s.metrics.RecordDispatchFailure()
		return nil, err
	}

	s.logger.Info("compliance alert dispatched",
		zap.Int("recipients", len(emails)),
		zap.Int("skipped_no_email", skipped),
	)
	return &DispatchResult{Recipients: len(emails), SkippedNoEmail: skipped}, nil
}
