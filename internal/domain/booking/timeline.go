package booking

import "time"

type ActorType string

const (
	ActorRenter ActorType = "renter"
	ActorOwner  ActorType = "owner"
	ActorAdmin  ActorType = "admin"
	ActorSystem ActorType = "system"
)

func (a ActorType) Valid() bool {
	switch a {
	case ActorRenter, ActorOwner, ActorAdmin, ActorSystem:
		return true
	}
	return false
}

// Actor identifies who caused a change.
type Actor struct {
	Type ActorType
	ID   string
}

func SystemActor() Actor {
	return Actor{Type: ActorSystem}
}

// TimelineEntry is an append-only audit record on the booking.
type TimelineEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Event       string    `json:"event"`
	Description string    `json:"description"`
	Actor       ActorType `json:"actor"`
	ActorID     string    `json:"actorId,omitempty"`
}

const (
	TimelineBookingCreated   = "booking_created"
	TimelineStatusChanged    = "status_changed"
	TimelinePaymentStarted   = "payment_started"
	TimelinePaymentSucceeded = "payment_succeeded"
	TimelinePaymentFailed    = "payment_failed"
	TimelinePaymentRefunded  = "payment_refunded"
	TimelineDepositReleased  = "deposit_released"
)
