package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/passwordless/internal/identity/usecase"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/shandysiswandi/passwordless/internal/pkg/messaging"
	"github.com/shandysiswandi/passwordless/internal/pkg/uid"
	"github.com/shandysiswandi/passwordless/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// Notifier hands codes to the notification module through the broker.
type Notifier struct {
	client messaging.Publisher
	uid    uid.NumberID
	ins    instrument.Instrumentation
}

func NewNotifier(client messaging.Publisher, id uid.NumberID, ins instrument.Instrumentation) *Notifier {
	return &Notifier{client: client, uid: id, ins: ins}
}

func (m *Notifier) SendOTP(ctx context.Context, in usecase.OTPNotification) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "SendOTP")
	defer span.End()

	body, err := json.Marshal(event.OTPRequestedMessage{
		EventID:   m.uid.Generate(),
		Email:     in.Email,
		Code:      in.Code,
		ExpiresAt: in.ExpiresAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.OTPRequestedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(in.Email),
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
