package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fieldkit/cascade/pkg/fieldpath"
	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/protocol"
)

// AgreementObjectType is the logical object type agreements are created under.
const AgreementObjectType = "Agreement"

type agreementHandler struct {
	templateID     string
	recipientField string
	deps           Deps
}

type AgreementFactory struct{}

func (AgreementFactory) Type() models.ActionType { return models.ActionTypeSendAgreement }

func (AgreementFactory) Create(config map[string]any, deps Deps) (Handler, error) {
	return &agreementHandler{
		templateID:     stringConfig(config, "template_id"),
		recipientField: stringConfig(config, "recipient_field"),
		deps:           deps,
	}, nil
}

// Execute persists the agreement record in SENT state and hands delivery to
// the e-signature collaborator. Actual signature flow happens outside the
// engine.
func (h *agreementHandler) Execute(ctx context.Context, ectx ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	recipient := resolveRecipient(h.recipientField, defaultEmailFields, ectx.Record)
	if recipient == "" {
		return nil, fmt.Errorf("SEND_AGREEMENT: no recipient resolved for record %s", ectx.RecordID())
	}

	agreement := map[string]any{
		"template_id":       h.templateID,
		"recipient":         recipient,
		"status":            "SENT",
		"related_object":    ectx.ObjectType,
		"related_record_id": ectx.RecordID(),
		"created_by":        ectx.UserID,
	}

	created, err := h.deps.Objects.Create(ctx, AgreementObjectType, agreement)
	if err != nil {
		return nil, fmt.Errorf("SEND_AGREEMENT: %w", err)
	}

	agreementID := fieldpath.Stringify(created["id"])

	if err := h.deps.Signer.SendAgreement(ctx, protocol.AgreementRequest{
		AgreementID: agreementID,
		TemplateID:  h.templateID,
		Recipient:   recipient,
		UserID:      ectx.UserID,
		Record:      ectx.Record,
	}); err != nil {
		return nil, fmt.Errorf("SEND_AGREEMENT delivery: %w", err)
	}

	logger.InfoContext(ctx, "Agreement sent", "agreement_id", agreementID, "recipient", recipient)

	return map[string]any{
		"agreement_id": agreementID,
		"recipient":    recipient,
		"status":       "SENT",
	}, nil
}
