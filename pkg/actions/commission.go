package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/protocol"
)

type commissionHandler struct {
	deps Deps
}

type CommissionFactory struct{}

func (CommissionFactory) Type() models.ActionType { return models.ActionTypeCreateCommission }

func (CommissionFactory) Create(_ map[string]any, deps Deps) (Handler, error) {
	return &commissionHandler{deps: deps}, nil
}

func (h *commissionHandler) Execute(ctx context.Context, ectx ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	commission, err := h.deps.Commissions.CreateCommission(ctx, protocol.CommissionRequest{
		RecordType:   ectx.ObjectType,
		RecordID:     ectx.RecordID(),
		Record:       ectx.Record,
		TriggerEvent: ectx.Event,
		UserID:       ectx.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("CREATE_COMMISSION for %s/%s: %w", ectx.ObjectType, ectx.RecordID(), err)
	}

	logger.InfoContext(ctx, "Commission created",
		"record_type", ectx.ObjectType,
		"record_id", ectx.RecordID())

	return commission, nil
}
