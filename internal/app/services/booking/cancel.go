package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"geargrab/internal/app/policies"
	domainbooking "geargrab/internal/domain/booking"
)

type CancelRequest struct {
	BookingID string
	UserID    string
	UserType  string
	Reason    string
}

// RefundOutcome reports what happened to one collected leg during cancellation.
type RefundOutcome struct {
	PaymentType domainbooking.PaymentType
	PaymentID   string
	RefundID    string
	Err         error
}

type CancelResult struct {
	Booking *domainbooking.Booking
	Refunds []RefundOutcome
}

// CancelBooking returns every collected leg to the renter and then cancels the booking.
// Refunds are attempted independently. When any of them fails the successful ones are
// recorded, the status is left as is and ErrRefundIncomplete is returned; calling again
// only retries what is still collected.
func (s *Service) CancelBooking(ctx context.Context, req CancelRequest) (_ CancelResult, err error) {
	ctx, span := s.startSpan(ctx, "booking.cancel", req.BookingID)
	defer func() { endSpan(span, err) }()

	if s.Bookings == nil {
		return CancelResult{}, ErrNotConfigured
	}
	actor := domainbooking.Actor{Type: domainbooking.ActorType(strings.TrimSpace(req.UserType)), ID: req.UserID}
	switch actor.Type {
	case domainbooking.ActorRenter, domainbooking.ActorOwner, domainbooking.ActorAdmin:
	default:
		return CancelResult{}, fmt.Errorf("%w: unknown user type %q", ErrForbidden, req.UserType)
	}

	id := domainbooking.BookingID(req.BookingID)
	current, err := s.Bookings.ByID(ctx, id)
	if err != nil {
		return CancelResult{}, err
	}
	if err := current.CheckCancellable(actor); err != nil {
		return CancelResult{}, err
	}

	outcomes := s.refundCollected(ctx, current, req.Reason)
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}

	var transitionErr error
	b, _, err := s.mutate(ctx, id, func(b *domainbooking.Booking) error {
		transitionErr = nil
		now := s.now()
		returned := 0
		for _, o := range outcomes {
			if o.Err != nil {
				continue
			}
			leg, err := b.Payments.Leg(o.PaymentType)
			if err != nil {
				return err
			}
			if !leg.Collected() || leg.PaymentID != o.PaymentID {
				continue
			}
			if err := b.MarkReturned(o.PaymentType, o.RefundID, actor, now); err != nil {
				return err
			}
			returned++
		}
		if failed > 0 || len(b.CollectedLegs()) > 0 {
			if returned == 0 {
				return errUnchanged
			}
			return nil
		}
		if err := b.TransitionTo(domainbooking.StatusCancelled, actor, req.Reason, now); err != nil {
			// The refunds already went through; keep them even though the booking moved on.
			transitionErr = err
			if returned == 0 {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CancelResult{Refunds: outcomes}, err
	}
	result := CancelResult{Booking: b, Refunds: outcomes}
	if transitionErr != nil {
		s.logger().WarnContext(ctx, "refunds recorded but booking not cancelled",
			"booking_id", b.ID,
			"status", b.Status,
			"refunds", len(outcomes)-failed,
			"error", transitionErr,
		)
		return result, transitionErr
	}
	if b.Status != domainbooking.StatusCancelled {
		errs := []error{ErrPaymentGateway, ErrRefundIncomplete}
		for _, o := range outcomes {
			if o.Err != nil {
				errs = append(errs, o.Err)
			}
		}
		return result, errors.Join(errs...)
	}
	s.logger().InfoContext(ctx, "booking cancelled", "booking_id", b.ID, "actor", actor.Type, "refunds", len(outcomes))
	s.notify(ctx, b.ID, policies.NotifyBookingCancelled)
	return result, nil
}

func (s *Service) refundCollected(ctx context.Context, b *domainbooking.Booking, reason string) []RefundOutcome {
	legs := b.CollectedLegs()
	outcomes := make([]RefundOutcome, 0, len(legs))
	for _, t := range legs {
		leg, _ := b.Payments.Leg(t)
		outcome := RefundOutcome{PaymentType: t, PaymentID: leg.PaymentID}
		if s.Gateway == nil {
			outcome.Err = ErrNotConfigured
			outcomes = append(outcomes, outcome)
			continue
		}
		refund, err := s.Gateway.Refund(ctx, policies.RefundRequest{
			PaymentID:      leg.PaymentID,
			Amount:         leg.Amount,
			Reason:         reason,
			IdempotencyKey: fmt.Sprintf("refund:%s:%s:%s", b.ID, t, leg.PaymentID),
		})
		if err != nil {
			outcome.Err = err
			s.logger().ErrorContext(ctx, "refund failed",
				"booking_id", b.ID,
				"payment_type", t,
				"payment_id", leg.PaymentID,
				"error", err,
			)
		} else {
			outcome.RefundID = refund.ID
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
