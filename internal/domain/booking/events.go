package booking

import (
	"time"

	"geargrab/internal/domain/listings"
	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/domain/shared/money"
)

type BookingCreated struct {
	BookingID BookingID           `json:"bookingId"`
	ListingID listings.ListingID  `json:"listingId"`
	OwnerID   string              `json:"ownerId"`
	RenterID  string              `json:"renterId"`
	Range     daterange.DateRange `json:"range"`
	Total     money.Money         `json:"total"`
	At        time.Time           `json:"at"`
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID BookingID `json:"bookingId"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ActorType ActorType `json:"actorType"`
	ActorID   string    `json:"actorId,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	At        time.Time `json:"at"`
}

func (e BookingStatusChanged) EventName() string     { return "booking.status_changed" }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }

type PaymentStarted struct {
	BookingID BookingID   `json:"bookingId"`
	Type      PaymentType `json:"paymentType"`
	PaymentID string      `json:"paymentId"`
	Amount    money.Money `json:"amount"`
	At        time.Time   `json:"at"`
}

func (e PaymentStarted) EventName() string     { return "booking.payment_started" }
func (e PaymentStarted) AggregateID() string   { return string(e.BookingID) }
func (e PaymentStarted) OccurredAt() time.Time { return e.At }

type PaymentSucceeded struct {
	BookingID BookingID   `json:"bookingId"`
	Type      PaymentType `json:"paymentType"`
	PaymentID string      `json:"paymentId"`
	Amount    money.Money `json:"amount"`
	At        time.Time   `json:"at"`
}

func (e PaymentSucceeded) EventName() string     { return "booking.payment_succeeded" }
func (e PaymentSucceeded) AggregateID() string   { return string(e.BookingID) }
func (e PaymentSucceeded) OccurredAt() time.Time { return e.At }

type PaymentFailed struct {
	BookingID BookingID   `json:"bookingId"`
	Type      PaymentType `json:"paymentType"`
	PaymentID string      `json:"paymentId"`
	Reason    string      `json:"reason,omitempty"`
	At        time.Time   `json:"at"`
}

func (e PaymentFailed) EventName() string     { return "booking.payment_failed" }
func (e PaymentFailed) AggregateID() string   { return string(e.BookingID) }
func (e PaymentFailed) OccurredAt() time.Time { return e.At }

type PaymentReturned struct {
	BookingID BookingID   `json:"bookingId"`
	Type      PaymentType `json:"paymentType"`
	PaymentID string      `json:"paymentId"`
	RefundID  string      `json:"refundId"`
	Amount    money.Money `json:"amount"`
	At        time.Time   `json:"at"`
}

func (e PaymentReturned) EventName() string     { return "booking.payment_returned" }
func (e PaymentReturned) AggregateID() string   { return string(e.BookingID) }
func (e PaymentReturned) OccurredAt() time.Time { return e.At }
