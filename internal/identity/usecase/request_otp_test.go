package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUsecase_RequestOTP(t *testing.T) {
	t.Run("invalid email shape", func(t *testing.T) {
		h := newHarness(t, testConfig)

		for _, email := range []string{"", "no-at-sign"} {
			err := h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: email})
			assertMessage(t, err, goerror.CodeBadRequest, "Valid email required")
		}
		assert.Zero(t, h.ledger.Len())
		h.notifier.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
	})

	t.Run("stores digest and notifies", func(t *testing.T) {
		h := newHarness(t, testConfig)

		h.notifier.On("SendOTP", mock.Anything, OTPNotification{
			Email:     "a@x",
			Code:      "100000",
			ExpiresAt: h.clock.Now().Add(5 * time.Minute),
			ValidFor:  5 * time.Minute,
		}).Return(nil).Once()

		require.NoError(t, h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: "a@x"}))
		h.notifier.AssertExpectations(t)

		entry, err := h.ledger.Get(context.Background(), "a@x")
		require.NoError(t, err)
		assert.NotEqual(t, "100000", entry.CodeDigest)
		assert.Zero(t, entry.Attempts)
		assert.Equal(t, h.clock.Now().Add(5*time.Minute), entry.ExpiresAt)
	})

	t.Run("notifier failure keeps entry", func(t *testing.T) {
		h := newHarness(t, testConfig)
		h.notifier.On("SendOTP", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

		err := h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: "a@x"})
		assertMessage(t, err, goerror.CodeInternal, "Failed to send OTP")
		assert.Equal(t, 1, h.ledger.Len())
	})

	t.Run("generator failure", func(t *testing.T) {
		h := newHarness(t, testConfig)
		h.otp.err = errors.New("entropy exhausted")

		err := h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: "a@x"})
		assertMessage(t, err, goerror.CodeInternal, "Internal server error")
		assert.Zero(t, h.ledger.Len())
	})

	t.Run("second request replaces first code", func(t *testing.T) {
		h := newHarness(t, testConfig)
		ctx := context.Background()

		first := h.issue(t, "a@x")
		second := h.issue(t, "a@x")
		require.NotEqual(t, first, second)

		_, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Email: "a@x", Code: first})
		assertMessage(t, err, goerror.CodeBadRequest, "Invalid OTP")

		out, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Email: "a@x", Code: second})
		require.NoError(t, err)
		assert.Equal(t, "a@x", out.User.Email)
	})

	t.Run("request resets attempts", func(t *testing.T) {
		h := newHarness(t, testConfig)
		ctx := context.Background()

		h.issue(t, "a@x")
		for range 3 {
			_, _ = h.uc.VerifyOTP(ctx, VerifyOTPInput{Email: "a@x", Code: "000000"})
		}
		code := h.issue(t, "a@x")

		_, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Email: "a@x", Code: code})
		assert.NoError(t, err)
	})
}

// tickingClock moves forward on every read.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func TestUsecase_RequestOTPExpiryMatchesLedger(t *testing.T) {
	h := newHarness(t, testConfig)
	clk := &tickingClock{t: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
	h.uc.clock = clk

	var sent OTPNotification
	h.notifier.On("SendOTP", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(OTPNotification)
	}).Return(nil).Once()

	require.NoError(t, h.uc.RequestOTP(context.Background(), RequestOTPInput{Email: "a@x"}))

	entry, err := h.ledger.Get(context.Background(), "a@x")
	require.NoError(t, err)
	assert.Equal(t, entry.ExpiresAt, sent.ExpiresAt)
}
