// Package protocol defines the contracts between the automation engine and
// its external collaborators. Concrete integrations (SMS/email gateways,
// commission accounting, e-signature delivery) live outside this repository;
// the engine only depends on these interfaces.
package protocol

import (
	"context"

	"github.com/fieldkit/cascade/pkg/models"
)

// Message is a rendered outbound notification. Body has already been
// interpolated against the triggering record.
type Message struct {
	Recipient string
	Subject   string
	Body      string
	UserID    string
	Record    map[string]any
}

// Messenger delivers SMS and email notifications.
type Messenger interface {
	SendSMS(ctx context.Context, msg Message) error
	SendEmail(ctx context.Context, msg Message) error
}

// CommissionRequest carries the triggering context a commission is computed from.
type CommissionRequest struct {
	RecordType   string
	RecordID     string
	Record       map[string]any
	TriggerEvent models.TriggerEvent
	UserID       string
}

// Commissions creates commission entries for closed business.
type Commissions interface {
	CreateCommission(ctx context.Context, req CommissionRequest) (map[string]any, error)
}

// AgreementRequest asks the e-signature collaborator to deliver an agreement
// record that the engine already persisted in SENT state.
type AgreementRequest struct {
	AgreementID string
	TemplateID  string
	Recipient   string
	UserID      string
	Record      map[string]any
}

// Signer delivers agreements for electronic signature.
type Signer interface {
	SendAgreement(ctx context.Context, req AgreementRequest) error
}
