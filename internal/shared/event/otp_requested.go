package event

import "time"

const OTPRequestedDestination string = "identity.otp_requested"
const OTPRequestedConsumerNotification string = "identity_otp_requested_notification"

// OTPRequestedMessage asks the notification module to deliver a one-time code.
type OTPRequestedMessage struct {
	EventID   int64     `json:"event_id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}
