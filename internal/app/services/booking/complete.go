package booking

import (
	"context"
	"fmt"

	"geargrab/internal/app/policies"
	domainbooking "geargrab/internal/domain/booking"
	"geargrab/internal/domain/jobs"
)

// CompleteBooking closes the rental and schedules the security deposit release. Calling it
// again on a completed booking only makes sure the release job exists.
func (s *Service) CompleteBooking(ctx context.Context, bookingID, userID string) (_ *domainbooking.Booking, err error) {
	ctx, span := s.startSpan(ctx, "booking.complete", bookingID)
	defer func() { endSpan(span, err) }()

	if s.Scheduler == nil {
		return nil, ErrNotConfigured
	}
	b, applied, err := s.mutate(ctx, domainbooking.BookingID(bookingID), func(b *domainbooking.Booking) error {
		if b.Status == domainbooking.StatusCompleted {
			if _, ok := b.RoleOf(userID); !ok {
				return domainbooking.ErrNotParticipant
			}
			return errUnchanged
		}
		return b.Complete(userID, s.now())
	})
	if err != nil {
		return nil, err
	}

	runAt := b.UpdatedAt.Add(s.depositDelay())
	if err := s.Scheduler.Schedule(ctx, jobs.KindReleaseDeposit, string(b.ID), runAt); err != nil {
		s.logger().ErrorContext(ctx, "deposit release scheduling failed", "booking_id", b.ID, "error", err)
		return b, fmt.Errorf("%w: %w", ErrSchedulingFailed, err)
	}
	if !applied {
		return b, nil
	}
	s.logger().InfoContext(ctx, "booking completed", "booking_id", b.ID, "deposit_release_at", runAt)
	s.notify(ctx, b.ID, policies.NotifyBookingCompleted)
	return b, nil
}
