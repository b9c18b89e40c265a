package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"geargrab/internal/app/policies"
	domainbooking "geargrab/internal/domain/booking"
	"geargrab/internal/domain/shared/money"
)

type PaymentRequest struct {
	BookingID   string
	RenterID    string
	PaymentType string
	Email       string
}

// Checkout is what the client needs to confirm a charge with the payment provider.
type Checkout struct {
	BookingID    string
	PaymentID    string
	ClientSecret string
	PaymentType  domainbooking.PaymentType
	Amount       money.Money
}

// StartPayment opens a gateway charge for one leg and attaches it to the booking. The
// leg only changes once the gateway reports the outcome.
func (s *Service) StartPayment(ctx context.Context, req PaymentRequest) (_ Checkout, err error) {
	ctx, span := s.startSpan(ctx, "booking.start_payment", req.BookingID)
	defer func() { endSpan(span, err) }()

	if s.Bookings == nil || s.Gateway == nil {
		return Checkout{}, ErrNotConfigured
	}
	t, err := domainbooking.ParsePaymentType(strings.TrimSpace(req.PaymentType))
	if err != nil {
		return Checkout{}, err
	}
	id := domainbooking.BookingID(req.BookingID)
	current, err := s.Bookings.ByID(ctx, id)
	if err != nil {
		return Checkout{}, err
	}
	if req.RenterID == "" || req.RenterID != current.RenterID {
		return Checkout{}, domainbooking.ErrNotRenter
	}
	leg, err := current.CheckPaymentAllowed(t)
	if err != nil {
		return Checkout{}, err
	}

	charge, err := s.Gateway.Charge(ctx, policies.ChargeRequest{
		Amount:      leg.Amount,
		Description: fmt.Sprintf("%s payment for %s", t, current.ListingTitle),
		Metadata: map[string]string{
			policies.MetadataBookingID:   string(current.ID),
			policies.MetadataListingID:   string(current.ListingID),
			policies.MetadataRenterID:    current.RenterID,
			policies.MetadataOwnerID:     current.OwnerID,
			policies.MetadataPaymentType: string(t),
		},
		IdempotencyKey: fmt.Sprintf("booking:%s:%s:v%d", current.ID, t, current.Version),
		ReceiptEmail:   req.Email,
	})
	if err != nil {
		s.logger().ErrorContext(ctx, "charge failed", "booking_id", current.ID, "payment_type", t, "error", err)
		return Checkout{}, gatewayError(err)
	}

	b, _, err := s.mutate(ctx, id, func(b *domainbooking.Booking) error {
		fresh, err := b.Payments.Leg(t)
		if err != nil {
			return err
		}
		if fresh.PaymentID == charge.ID {
			return errUnchanged
		}
		return b.AttachPayment(t, charge.ID, req.RenterID, s.now())
	})
	if err != nil {
		return Checkout{}, err
	}
	s.logger().InfoContext(ctx, "payment started",
		"booking_id", b.ID,
		"payment_type", t,
		"payment_id", charge.ID,
		"amount", leg.Amount.String(),
	)
	return Checkout{
		BookingID:    string(b.ID),
		PaymentID:    charge.ID,
		ClientSecret: charge.ClientSecret,
		PaymentType:  t,
		Amount:       leg.Amount,
	}, nil
}

// ProcessSuccessfulPayment applies a confirmed charge. Redelivered outcomes are ignored.
// Money collected after the booking closed is returned straight away; a redelivery
// retries that return when the first attempt failed.
func (s *Service) ProcessSuccessfulPayment(ctx context.Context, res policies.PaymentResult) (applied bool, err error) {
	ctx, span := s.startSpan(ctx, "booking.payment_succeeded", res.BookingID)
	defer func() { endSpan(span, err) }()

	t, err := domainbooking.ParsePaymentType(res.PaymentType)
	if err != nil {
		return false, err
	}
	b, applied, err := s.mutate(ctx, domainbooking.BookingID(res.BookingID), func(b *domainbooking.Booking) error {
		ok, err := b.ApplyPaymentSuccess(t, res.PaymentID, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if len(b.OwedReturns()) > 0 {
		s.logger().WarnContext(ctx, "payment received for closed booking", "booking_id", b.ID, "payment_type", t, "status", b.Status)
		return applied, s.returnOwed(ctx, b)
	}
	if !applied {
		s.logger().InfoContext(ctx, "payment outcome already applied", "booking_id", res.BookingID, "payment_id", res.PaymentID)
		return false, nil
	}
	if leg, _ := b.Payments.Leg(t); res.Amount.Currency != "" && res.Amount != leg.Amount {
		s.logger().WarnContext(ctx, "paid amount differs from leg amount",
			"booking_id", b.ID,
			"payment_type", t,
			"paid", res.Amount.String(),
			"expected", leg.Amount.String(),
		)
	}
	if b.Status.IsTerminal() {
		s.logger().InfoContext(ctx, "late payment kept on closed booking", "booking_id", b.ID, "payment_type", t, "status", b.Status)
		return true, nil
	}
	s.logger().InfoContext(ctx, "payment succeeded", "booking_id", b.ID, "payment_type", t, "status", b.Status)
	switch t {
	case domainbooking.PaymentUpfront:
		s.notify(ctx, b.ID, policies.NotifyNewBookingRequest)
	case domainbooking.PaymentRental:
		s.notify(ctx, b.ID, policies.NotifyPaymentConfirmed)
	case domainbooking.PaymentSecurityDeposit:
	}
	return true, nil
}

// returnOwed refunds every leg collected after the booking closed. Refund keys match
// the ones cancellation and deposit release use, so a charge is never returned twice.
func (s *Service) returnOwed(ctx context.Context, current *domainbooking.Booking) error {
	if s.Gateway == nil {
		return ErrNotConfigured
	}
	var errs []error
	for _, t := range current.OwedReturns() {
		leg, _ := current.Payments.Leg(t)
		key := fmt.Sprintf("refund:%s:%s:%s", current.ID, t, leg.PaymentID)
		if t == domainbooking.PaymentSecurityDeposit && current.Status == domainbooking.StatusCompleted {
			key = fmt.Sprintf("release:%s:%s", current.ID, leg.PaymentID)
		}
		refund, err := s.Gateway.Refund(ctx, policies.RefundRequest{
			PaymentID:      leg.PaymentID,
			Amount:         leg.Amount,
			Reason:         fmt.Sprintf("payment received after booking was %s", current.Status),
			IdempotencyKey: key,
		})
		if err != nil {
			s.logger().ErrorContext(ctx, "late payment refund failed",
				"booking_id", current.ID,
				"payment_type", t,
				"payment_id", leg.PaymentID,
				"error", err,
			)
			errs = append(errs, gatewayError(err))
			continue
		}
		paymentID := leg.PaymentID
		_, _, err = s.mutate(ctx, current.ID, func(b *domainbooking.Booking) error {
			fresh, err := b.Payments.Leg(t)
			if err != nil {
				return err
			}
			if !fresh.Collected() || fresh.PaymentID != paymentID {
				return errUnchanged
			}
			return b.MarkReturned(t, refund.ID, domainbooking.SystemActor(), s.now())
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger().InfoContext(ctx, "late payment returned", "booking_id", current.ID, "payment_type", t, "refund_id", refund.ID)
	}
	return errors.Join(errs...)
}

// ProcessFailedPayment marks the leg failed. Nothing is refunded and no email is sent.
func (s *Service) ProcessFailedPayment(ctx context.Context, res policies.PaymentResult) (applied bool, err error) {
	ctx, span := s.startSpan(ctx, "booking.payment_failed", res.BookingID)
	defer func() { endSpan(span, err) }()

	t, err := domainbooking.ParsePaymentType(res.PaymentType)
	if err != nil {
		return false, err
	}
	b, applied, err := s.mutate(ctx, domainbooking.BookingID(res.BookingID), func(b *domainbooking.Booking) error {
		ok, err := b.ApplyPaymentFailure(t, res.PaymentID, res.FailureReason, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		s.logger().WarnContext(ctx, "payment failed",
			"booking_id", b.ID,
			"payment_type", t,
			"payment_id", res.PaymentID,
			"reason", res.FailureReason,
			"status", b.Status,
		)
	}
	return applied, nil
}
