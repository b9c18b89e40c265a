package booking

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"geargrab/internal/app/policies"
	domainbooking "geargrab/internal/domain/booking"
)

type StatusUpdate struct {
	BookingID string
	Status    string
	ActorID   string
	ActorType string
	Notes     string
}

// Parties may only move a booking into these states directly; every other change goes
// through its dedicated operation (approve, cancel, complete) or an admin.
var partyTargets = map[domainbooking.ActorType][]domainbooking.Status{
	domainbooking.ActorRenter: {domainbooking.StatusActive, domainbooking.StatusDisputed},
	domainbooking.ActorOwner:  {domainbooking.StatusActive, domainbooking.StatusDisputed},
}

// UpdateBookingStatus applies a single status transition, appends one timeline entry and
// sends the notification mapped from the new status.
func (s *Service) UpdateBookingStatus(ctx context.Context, u StatusUpdate) (_ *domainbooking.Booking, err error) {
	ctx, span := s.startSpan(ctx, "booking.update_status", u.BookingID)
	defer func() { endSpan(span, err) }()

	next, err := domainbooking.ParseStatus(strings.TrimSpace(u.Status))
	if err != nil {
		return nil, err
	}
	actor := domainbooking.Actor{Type: domainbooking.ActorType(u.ActorType), ID: u.ActorID}
	if !actor.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown actor type %q", ErrForbidden, u.ActorType)
	}

	b, _, err := s.mutate(ctx, domainbooking.BookingID(u.BookingID), func(b *domainbooking.Booking) error {
		if err := authorizeStatusChange(b, actor, next); err != nil {
			return err
		}
		return b.TransitionTo(next, actor, u.Notes, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger().InfoContext(ctx, "booking status updated", "booking_id", b.ID, "status", b.Status, "actor", actor.Type)
	if kind, ok := notificationFor(b.Status); ok {
		s.notify(ctx, b.ID, kind)
	}
	return b, nil
}

func authorizeStatusChange(b *domainbooking.Booking, actor domainbooking.Actor, next domainbooking.Status) error {
	switch actor.Type {
	case domainbooking.ActorAdmin, domainbooking.ActorSystem:
		return nil
	}
	role, ok := b.RoleOf(actor.ID)
	if !ok || role != actor.Type {
		return domainbooking.ErrNotParticipant
	}
	if !slices.Contains(partyTargets[role], next) {
		return fmt.Errorf("%w: %s cannot set status %s", ErrForbidden, role, next)
	}
	return nil
}

// notificationFor maps a status to the email sent when a booking enters it.
func notificationFor(status domainbooking.Status) (policies.Notification, bool) {
	switch status {
	case domainbooking.StatusConfirmed:
		return policies.NotifyBookingConfirmed, true
	case domainbooking.StatusActive:
		return policies.NotifyBookingStarted, true
	case domainbooking.StatusCompleted:
		return policies.NotifyBookingCompleted, true
	case domainbooking.StatusCancelled:
		return policies.NotifyBookingCancelled, true
	case domainbooking.StatusDisputed:
		return policies.NotifyBookingDisputed, true
	case domainbooking.StatusPendingPayment,
		domainbooking.StatusPendingOwnerApproval,
		domainbooking.StatusPaymentFailed:
		return "", false
	}
	return "", false
}
