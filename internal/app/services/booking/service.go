package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"geargrab/internal/app/outbox"
	"geargrab/internal/app/policies"
	"geargrab/internal/app/schedule"
	domainbooking "geargrab/internal/domain/booking"
	domainlistings "geargrab/internal/domain/listings"
	domainpricing "geargrab/internal/domain/pricing"
)

var (
	ErrForbidden        = errors.New("booking service: action not permitted for this user")
	ErrPaymentGateway   = errors.New("booking service: payment gateway failure")
	ErrRefundIncomplete = errors.New("booking service: not every refund succeeded, booking left uncancelled")
	ErrSchedulingFailed = errors.New("booking service: deposit release could not be scheduled")
	ErrNotConfigured    = errors.New("booking service: dependency not configured")

	errUnchanged = errors.New("booking service: nothing to apply")
)

const (
	maxSaveAttempts = 3

	// DefaultDepositReleaseDelay is how long a deposit stays held after completion.
	DefaultDepositReleaseDelay = 48 * time.Hour
)

// Service owns every booking state transition. Gateway calls run before the write that
// depends on them; writes go through a version-checked read-modify-write loop.
type Service struct {
	Bookings            domainbooking.Repository
	Listings            domainlistings.Repository
	Gateway             policies.PaymentGateway
	Notifier            policies.Notifier
	Scheduler           schedule.Scheduler
	Outbox              outbox.Outbox
	Encoder             outbox.EventEncoder
	Pricing             domainpricing.Calculator
	DepositReleaseDelay time.Duration
	Clock               func() time.Time
	NewID               func() string
	Logger              *slog.Logger
	Tracer              trace.Tracer
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (s *Service) depositDelay() time.Duration {
	if s.DepositReleaseDelay > 0 {
		return s.DepositReleaseDelay
	}
	return DefaultDepositReleaseDelay
}

func (s *Service) startSpan(ctx context.Context, name string, bookingID string) (context.Context, trace.Span) {
	tracer := s.Tracer
	if tracer == nil {
		tracer = otel.Tracer("geargrab/booking")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("booking.id", bookingID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, errUnchanged) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// mutate loads the booking, applies fn and saves it, retrying on version conflicts.
// fn returning errUnchanged skips the write and reports applied=false.
func (s *Service) mutate(ctx context.Context, id domainbooking.BookingID, fn func(b *domainbooking.Booking) error) (*domainbooking.Booking, bool, error) {
	if s.Bookings == nil {
		return nil, false, ErrNotConfigured
	}
	var lastErr error
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		b, err := s.Bookings.ByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if err := fn(b); err != nil {
			if errors.Is(err, errUnchanged) {
				return b, false, nil
			}
			return nil, false, err
		}
		if err := s.save(ctx, b); err != nil {
			if errors.Is(err, domainbooking.ErrConcurrentUpdate) {
				lastErr = err
				s.logger().DebugContext(ctx, "booking save conflict, retrying", "booking_id", id, "attempt", attempt)
				continue
			}
			return nil, false, err
		}
		return b, true, nil
	}
	return nil, false, fmt.Errorf("booking %s: %w", id, lastErr)
}

func (s *Service) save(ctx context.Context, b *domainbooking.Booking) error {
	if err := s.Bookings.Save(ctx, b); err != nil {
		return err
	}
	if err := outbox.RecordPending(ctx, s.Outbox, s.Encoder, b); err != nil {
		s.logger().ErrorContext(ctx, "booking events not recorded", "booking_id", b.ID, "error", err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, id domainbooking.BookingID, kind policies.Notification) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, string(id), kind)
}

func gatewayError(err error) error {
	if errors.Is(err, ErrPaymentGateway) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPaymentGateway, err)
}
