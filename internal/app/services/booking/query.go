package booking

import (
	"context"
	"fmt"

	domainbooking "geargrab/internal/domain/booking"
)

// StatusView is the read model returned to parties polling a booking.
type StatusView struct {
	ID       domainbooking.BookingID
	Status   domainbooking.Status
	RenterID string
	OwnerID  string
	Payments domainbooking.Payments
	Timeline []domainbooking.TimelineEntry
}

func (s *Service) GetBookingStatus(ctx context.Context, bookingID string) (StatusView, error) {
	if s.Bookings == nil {
		return StatusView{}, ErrNotConfigured
	}
	b, err := s.Bookings.ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return StatusView{}, err
	}
	return StatusView{
		ID:       b.ID,
		Status:   b.Status,
		RenterID: b.RenterID,
		OwnerID:  b.OwnerID,
		Payments: b.Payments,
		Timeline: append([]domainbooking.TimelineEntry(nil), b.Timeline...),
	}, nil
}

func (s *Service) GetBooking(ctx context.Context, bookingID string) (*domainbooking.Booking, error) {
	if s.Bookings == nil {
		return nil, ErrNotConfigured
	}
	return s.Bookings.ByID(ctx, domainbooking.BookingID(bookingID))
}

// ListBookings returns the bookings where userID plays the given role.
func (s *Service) ListBookings(ctx context.Context, userID string, role domainbooking.ActorType) ([]*domainbooking.Booking, error) {
	if s.Bookings == nil {
		return nil, ErrNotConfigured
	}
	switch role {
	case domainbooking.ActorRenter:
		return s.Bookings.ListByRenter(ctx, userID)
	case domainbooking.ActorOwner:
		return s.Bookings.ListByOwner(ctx, userID)
	}
	return nil, fmt.Errorf("%w: cannot list bookings as %q", ErrForbidden, role)
}
