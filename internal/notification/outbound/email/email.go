package email

import (
	"context"

	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/shandysiswandi/passwordless/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
	sent   metric.Int64Counter
}

// New returns the mail adapter and registers the notification.email.sent
// counter, labelled by outcome.
func New(client mail.Mail, ins instrument.Instrumentation) (*Mail, error) {
	sent, err := ins.Meter("notification.outbound.email").Int64Counter(
		"notification.email.sent",
		metric.WithDescription("Login code emails handed to the mail provider"),
	)
	if err != nil {
		return nil, err
	}

	return &Mail{client: client, ins: ins, sent: sent}, nil
}

func (m *Mail) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	if err := m.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.sent.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		return err
	}

	m.sent.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "sent")))
	return nil
}
