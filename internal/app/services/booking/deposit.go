package booking

import (
	"context"
	"fmt"

	"geargrab/internal/app/policies"
	domainbooking "geargrab/internal/domain/booking"
)

// ReleaseDeposit refunds a held security deposit of a completed booking. Anything else,
// including an already released deposit, is a no-op.
func (s *Service) ReleaseDeposit(ctx context.Context, bookingID string) (err error) {
	ctx, span := s.startSpan(ctx, "booking.release_deposit", bookingID)
	defer func() { endSpan(span, err) }()

	if s.Bookings == nil {
		return ErrNotConfigured
	}
	id := domainbooking.BookingID(bookingID)
	b, err := s.Bookings.ByID(ctx, id)
	if err != nil {
		return err
	}
	leg := b.Payments.SecurityDeposit
	if b.Status != domainbooking.StatusCompleted || leg.Status != domainbooking.LegHeld {
		s.logger().DebugContext(ctx, "deposit release skipped", "booking_id", b.ID, "status", b.Status, "deposit", leg.Status)
		return nil
	}
	if s.Gateway == nil {
		return ErrNotConfigured
	}
	refund, err := s.Gateway.Refund(ctx, policies.RefundRequest{
		PaymentID:      leg.PaymentID,
		Amount:         leg.Amount,
		Reason:         "security deposit release",
		IdempotencyKey: fmt.Sprintf("release:%s:%s", b.ID, leg.PaymentID),
	})
	if err != nil {
		return gatewayError(err)
	}
	_, _, err = s.mutate(ctx, id, func(b *domainbooking.Booking) error {
		fresh := b.Payments.SecurityDeposit
		if fresh.Status != domainbooking.LegHeld || fresh.PaymentID != leg.PaymentID {
			return errUnchanged
		}
		return b.MarkReturned(domainbooking.PaymentSecurityDeposit, refund.ID, domainbooking.SystemActor(), s.now())
	})
	if err != nil {
		return err
	}
	s.logger().InfoContext(ctx, "security deposit released", "booking_id", b.ID, "refund_id", refund.ID)
	return nil
}
