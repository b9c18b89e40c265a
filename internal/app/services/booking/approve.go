package booking

import (
	"context"

	"geargrab/internal/app/policies"
	domainbooking "geargrab/internal/domain/booking"
)

// ApproveBooking lets the owner confirm a paid request. The renter receives a single
// booking_approved email.
func (s *Service) ApproveBooking(ctx context.Context, bookingID, ownerID string) (_ *domainbooking.Booking, err error) {
	ctx, span := s.startSpan(ctx, "booking.approve", bookingID)
	defer func() { endSpan(span, err) }()

	b, _, err := s.mutate(ctx, domainbooking.BookingID(bookingID), func(b *domainbooking.Booking) error {
		return b.Approve(ownerID, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger().InfoContext(ctx, "booking approved", "booking_id", b.ID, "owner_id", ownerID)
	s.notify(ctx, b.ID, policies.NotifyBookingApproved)
	return b, nil
}
