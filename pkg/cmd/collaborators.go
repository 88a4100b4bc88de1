package cmd

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fieldkit/cascade/pkg/protocol"
)

// LogCollaborators returns Messenger, Commissions and Signer implementations
// that log what they would have delivered and succeed. They stand in for the
// real gateway integrations in development and single-binary deployments.
func LogCollaborators(logger *slog.Logger) (protocol.Messenger, protocol.Commissions, protocol.Signer) {
	l := logger.With("module", "collaborators")

	return &logMessenger{logger: l}, &logCommissions{logger: l}, &logSigner{logger: l}
}

type logMessenger struct {
	logger *slog.Logger
}

func (m *logMessenger) SendSMS(ctx context.Context, msg protocol.Message) error {
	m.logger.InfoContext(ctx, "SMS (dry run)", "recipient", msg.Recipient, "body", msg.Body)

	return nil
}

func (m *logMessenger) SendEmail(ctx context.Context, msg protocol.Message) error {
	m.logger.InfoContext(ctx, "Email (dry run)", "recipient", msg.Recipient, "subject", msg.Subject)

	return nil
}

type logCommissions struct {
	logger *slog.Logger
}

func (c *logCommissions) CreateCommission(ctx context.Context, req protocol.CommissionRequest) (map[string]any, error) {
	id := uuid.New().String()

	c.logger.InfoContext(ctx, "Commission (dry run)",
		"commission_id", id,
		"record_type", req.RecordType,
		"record_id", req.RecordID)

	return map[string]any{"commission_id": id}, nil
}

type logSigner struct {
	logger *slog.Logger
}

func (s *logSigner) SendAgreement(ctx context.Context, req protocol.AgreementRequest) error {
	s.logger.InfoContext(ctx, "Agreement (dry run)",
		"agreement_id", req.AgreementID,
		"recipient", req.Recipient)

	return nil
}
