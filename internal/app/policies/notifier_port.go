package policies

import "context"

type Email struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
	Tags    map[string]string
}

// SendResult reports delivery. Senders never return errors; failures land in Error.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

type EmailSender interface {
	Send(ctx context.Context, email Email) SendResult
}

type Notification string

const (
	NotifyNewBookingRequest Notification = "new_booking_request"
	NotifyBookingApproved   Notification = "booking_approved"
	NotifyPaymentConfirmed  Notification = "payment_confirmed"
	NotifyBookingConfirmed  Notification = "booking_confirmed"
	NotifyBookingStarted    Notification = "booking_started"
	NotifyBookingCompleted  Notification = "booking_completed"
	NotifyBookingCancelled  Notification = "booking_cancelled"
	NotifyBookingDisputed   Notification = "booking_disputed"
)

// Notifier delivers booking notifications on a best-effort basis.
type Notifier interface {
	Notify(ctx context.Context, bookingID string, kind Notification)
}
