package actions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/objects"
	"github.com/fieldkit/cascade/pkg/protocol"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeMessenger struct {
	sms    []protocol.Message
	emails []protocol.Message
	err    error
}

func (m *fakeMessenger) SendSMS(_ context.Context, msg protocol.Message) error {
	if m.err != nil {
		return m.err
	}

	m.sms = append(m.sms, msg)

	return nil
}

func (m *fakeMessenger) SendEmail(_ context.Context, msg protocol.Message) error {
	if m.err != nil {
		return m.err
	}

	m.emails = append(m.emails, msg)

	return nil
}

type fakeCommissions struct {
	requests []protocol.CommissionRequest
	err      error
}

func (c *fakeCommissions) CreateCommission(_ context.Context, req protocol.CommissionRequest) (map[string]any, error) {
	if c.err != nil {
		return nil, c.err
	}

	c.requests = append(c.requests, req)

	return map[string]any{"commission_id": "com-1"}, nil
}

type fakeSigner struct {
	requests []protocol.AgreementRequest
	err      error
}

func (s *fakeSigner) SendAgreement(_ context.Context, req protocol.AgreementRequest) error {
	if s.err != nil {
		return s.err
	}

	s.requests = append(s.requests, req)

	return nil
}

type testHarness struct {
	deps        Deps
	store       *objects.MemoryStore
	messenger   *fakeMessenger
	commissions *fakeCommissions
	signer      *fakeSigner
	audited     []*models.AuditLogEntry
}

func newTestHarness(registeredTypes ...string) *testHarness {
	h := &testHarness{
		store:       objects.NewMemoryStore(),
		messenger:   &fakeMessenger{},
		commissions: &fakeCommissions{},
		signer:      &fakeSigner{},
	}

	registry := objects.NewRegistry()
	for _, objectType := range registeredTypes {
		registry.Register(objectType, h.store)
	}

	h.deps = Deps{
		Objects:     registry,
		Messenger:   h.messenger,
		Commissions: h.commissions,
		Signer:      h.signer,
		Audit: func(_ context.Context, entry *models.AuditLogEntry) {
			h.audited = append(h.audited, entry)
		},
		Now: func() time.Time { return testNow },
	}

	return h
}

func testExecutionContext(record map[string]any) ExecutionContext {
	return ExecutionContext{
		ExecutionID: "exec-test",
		WorkflowID:  "wf-test",
		ObjectType:  "Opportunity",
		Event:       models.TriggerEventUpdate,
		Record:      record,
		UserID:      "user-1",
	}
}

var errCollaboratorDown = errors.New("collaborator unavailable")
