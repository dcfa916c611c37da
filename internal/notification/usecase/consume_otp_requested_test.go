package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/passwordless/internal/pkg/clock"
	"github.com/shandysiswandi/passwordless/internal/pkg/config"
	"github.com/shandysiswandi/passwordless/internal/pkg/idempotency"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/shandysiswandi/passwordless/internal/pkg/mail"
	"github.com/shandysiswandi/passwordless/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMail struct {
	mock.Mock
}

func (m *mockMail) Send(ctx context.Context, msg mail.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// memIdempotency mirrors StateTracker without Redis.
type memIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
}

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	if m.done[key] {
		m.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.done[key] = true
	m.mu.Unlock()
	return nil
}

func newUsecase(t *testing.T) (*Usecase, *mockMail, *clock.Fixed) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: Acme\nmail:\n  from: no-reply@acme.test\n"))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewFixed(time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC))
	m := &mockMail{}
	return NewNotification(Dependency{
		Config:      cfg,
		Clock:       clk,
		Validator:   v,
		Idempotency: &memIdempotency{done: map[string]bool{}},
		RepoMail:    m,
		Instrument:  instrument.NewNoop(),
	}), m, clk
}

func TestUsecase_ConsumeOTPRequested(t *testing.T) {
	ctx := context.Background()

	t.Run("sends once per event", func(t *testing.T) {
		uc, m, clk := newUsecase(t)
		in := ConsumeOTPRequestedInput{EventID: 7, Email: "a@x", Code: "482910", ExpiresAt: clk.Now().Add(5 * time.Minute)}

		m.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
			return msg.From == "no-reply@acme.test" &&
				assert.ObjectsAreEqual([]string{"a@x"}, msg.To) &&
				msg.Subject == "Your Acme login code"
		})).Return(nil).Once()

		require.NoError(t, uc.ConsumeOTPRequested(ctx, in))
		require.NoError(t, uc.ConsumeOTPRequested(ctx, in))
		m.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("delivery failure is retried", func(t *testing.T) {
		uc, m, clk := newUsecase(t)
		in := ConsumeOTPRequestedInput{EventID: 8, Email: "a@x", Code: "482910", ExpiresAt: clk.Now().Add(time.Minute)}

		boom := errors.New("smtp down")
		m.On("Send", mock.Anything, mock.Anything).Return(boom).Once()
		m.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

		assert.ErrorIs(t, uc.ConsumeOTPRequested(ctx, in), boom)
		assert.NoError(t, uc.ConsumeOTPRequested(ctx, in))
		m.AssertNumberOfCalls(t, "Send", 2)
	})

	t.Run("expired code is dropped", func(t *testing.T) {
		uc, m, clk := newUsecase(t)
		in := ConsumeOTPRequestedInput{EventID: 9, Email: "a@x", Code: "482910", ExpiresAt: clk.Now()}

		assert.NoError(t, uc.ConsumeOTPRequested(ctx, in))
		m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("invalid payload is dropped", func(t *testing.T) {
		uc, m, clk := newUsecase(t)

		for _, in := range []ConsumeOTPRequestedInput{
			{Email: "a@x", Code: "482910", ExpiresAt: clk.Now().Add(time.Minute)},
			{EventID: 1, Email: "nope", Code: "482910", ExpiresAt: clk.Now().Add(time.Minute)},
			{EventID: 1, Email: "a@x", Code: "abc", ExpiresAt: clk.Now().Add(time.Minute)},
		} {
			assert.NoError(t, uc.ConsumeOTPRequested(ctx, in))
		}
		m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}
