package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/protocol"
	"github.com/fieldkit/cascade/pkg/template"
)

// sendMessageHandler covers both SMS and email delivery; the channel only
// changes the recipient defaults and which Messenger method is called.
type sendMessageHandler struct {
	actionType     models.ActionType
	messageTmpl    string
	subjectTmpl    string
	recipientField string
	deps           Deps
}

func newSendMessageHandler(actionType models.ActionType, config map[string]any, deps Deps) (Handler, error) {
	message := stringConfig(config, "message")
	if message == "" {
		return nil, configErrorf("%s: message is required", actionType)
	}

	return &sendMessageHandler{
		actionType:     actionType,
		messageTmpl:    message,
		subjectTmpl:    stringConfig(config, "subject"),
		recipientField: stringConfig(config, "recipient_field"),
		deps:           deps,
	}, nil
}

func (h *sendMessageHandler) Execute(ctx context.Context, ectx ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	defaults := defaultPhoneFields
	if h.actionType == models.ActionTypeSendEmail {
		defaults = defaultEmailFields
	}

	recipient := resolveRecipient(h.recipientField, defaults, ectx.Record)
	if recipient == "" {
		return nil, fmt.Errorf("%s: no recipient resolved for record %s", h.actionType, ectx.RecordID())
	}

	msg := protocol.Message{
		Recipient: recipient,
		Subject:   template.Interpolate(h.subjectTmpl, ectx.Record),
		Body:      template.Interpolate(h.messageTmpl, ectx.Record),
		UserID:    ectx.UserID,
		Record:    ectx.Record,
	}

	var err error
	if h.actionType == models.ActionTypeSendEmail {
		err = h.deps.Messenger.SendEmail(ctx, msg)
	} else {
		err = h.deps.Messenger.SendSMS(ctx, msg)
	}

	if err != nil {
		return nil, fmt.Errorf("%s delivery failed: %w", h.actionType, err)
	}

	logger.InfoContext(ctx, "Message sent", "channel", h.actionType, "recipient", recipient)

	return map[string]any{"recipient": recipient}, nil
}

type SendSMSFactory struct{}

func (SendSMSFactory) Type() models.ActionType { return models.ActionTypeSendSMS }

func (SendSMSFactory) Create(config map[string]any, deps Deps) (Handler, error) {
	return newSendMessageHandler(models.ActionTypeSendSMS, config, deps)
}

type SendEmailFactory struct{}

func (SendEmailFactory) Type() models.ActionType { return models.ActionTypeSendEmail }

func (SendEmailFactory) Create(config map[string]any, deps Deps) (Handler, error) {
	return newSendMessageHandler(models.ActionTypeSendEmail, config, deps)
}
