package booking

import (
	"context"
	"errors"

	"geargrab/internal/app/policies"
	bookingsvc "geargrab/internal/app/services/booking"
	domainbooking "geargrab/internal/domain/booking"
)

// ErrUnauthenticated is returned when a message reaches the bus without a caller identity.
var ErrUnauthenticated = errors.New("booking: authenticated user required")

// Lifecycle is the booking service surface the handlers drive.
type Lifecycle interface {
	CreateBooking(ctx context.Context, req bookingsvc.CreateRequest) (*domainbooking.Booking, error)
	UpdateBookingStatus(ctx context.Context, u bookingsvc.StatusUpdate) (*domainbooking.Booking, error)
	ApproveBooking(ctx context.Context, bookingID, ownerID string) (*domainbooking.Booking, error)
	CancelBooking(ctx context.Context, req bookingsvc.CancelRequest) (bookingsvc.CancelResult, error)
	CompleteBooking(ctx context.Context, bookingID, userID string) (*domainbooking.Booking, error)
	StartPayment(ctx context.Context, req bookingsvc.PaymentRequest) (bookingsvc.Checkout, error)
	ProcessSuccessfulPayment(ctx context.Context, res policies.PaymentResult) (bool, error)
	ProcessFailedPayment(ctx context.Context, res policies.PaymentResult) (bool, error)
	ReleaseDeposit(ctx context.Context, bookingID string) error
	GetBooking(ctx context.Context, bookingID string) (*domainbooking.Booking, error)
	ListBookings(ctx context.Context, userID string, role domainbooking.ActorType) ([]*domainbooking.Booking, error)
}

var _ Lifecycle = (*bookingsvc.Service)(nil)
