package email

import (
	"context"

	"github.com/shandysiswandi/passwordless/internal/identity/usecase"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/shandysiswandi/passwordless/internal/pkg/mail"
	"github.com/shandysiswandi/passwordless/internal/shared/otpmail"
	"go.opentelemetry.io/otel/codes"
)

// Notifier delivers codes synchronously through the mail client.
type Notifier struct {
	client  mail.Mail
	from    string
	appName string
	ins     instrument.Instrumentation
}

func NewNotifier(client mail.Mail, from, appName string, ins instrument.Instrumentation) *Notifier {
	return &Notifier{client: client, from: from, appName: appName, ins: ins}
}

func (n *Notifier) SendOTP(ctx context.Context, in usecase.OTPNotification) error {
	ctx, span := n.ins.Tracer("identity.outbound.email").Start(ctx, "SendOTP")
	defer span.End()

	msg, err := otpmail.Render(n.from, otpmail.Data{
		AppName:   n.appName,
		Email:     in.Email,
		Code:      in.Code,
		ExpiresAt: in.ExpiresAt,
		ValidFor:  in.ValidFor,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := n.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
