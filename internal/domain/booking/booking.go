package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"geargrab/internal/domain/listings"
	"geargrab/internal/domain/pricing"
	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/domain/shared/events"
)

var (
	ErrBookingNotFound     = errors.New("booking: not found")
	ErrConcurrentUpdate    = errors.New("booking: concurrent update detected")
	ErrInvalidTransition   = errors.New("booking: invalid status transition")
	ErrUnknownStatus       = errors.New("booking: unknown status")
	ErrUnknownPaymentType  = errors.New("booking: unknown payment type")
	ErrRenterRequired      = errors.New("booking: renter id required")
	ErrOwnerRequired       = errors.New("booking: owner id required")
	ErrSelfBooking         = errors.New("booking: owners cannot rent their own listing")
	ErrNotOwner            = errors.New("booking: only the listing owner can perform this action")
	ErrNotRenter           = errors.New("booking: only the renter can perform this action")
	ErrNotParticipant      = errors.New("booking: user is not a party to this booking")
	ErrUpfrontRequired     = errors.New("booking: upfront payment must be settled first")
	ErrPaymentNotAllowed   = errors.New("booking: payment leg cannot be charged in the current state")
	ErrNothingToCharge     = errors.New("booking: payment leg has no amount to charge")
	ErrInvalidDelivery     = errors.New("booking: unknown delivery method")
	ErrInvalidInsurance    = errors.New("booking: unknown insurance tier")
	ErrPricingRequired     = errors.New("booking: pricing snapshot required")
	ErrPaymentIDRequired   = errors.New("booking: payment id required")
	ErrLegNotRefundable    = errors.New("booking: payment leg holds no funds to return")
	ErrSpecialRequestLimit = errors.New("booking: special requests are too long")
)

const maxSpecialRequests = 2000

type BookingID string

type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
)

type InsuranceTier string

const (
	InsuranceNone    InsuranceTier = "none"
	InsuranceBasic   InsuranceTier = "basic"
	InsurancePremium InsuranceTier = "premium"
)

// Booking is one rental transaction between a renter and an owner. ResumeStatus keeps
// the status held before the booking entered payment_failed.
type Booking struct {
	ID                 BookingID
	ListingID          listings.ListingID
	ListingTitle       string
	OwnerID            string
	RenterID           string
	Range              daterange.DateRange
	DeliveryMethod     DeliveryMethod
	InsuranceTier      InsuranceTier
	SpecialRequests    string
	Pricing            pricing.Quote
	Status             Status
	Payments           Payments
	Timeline           []TimelineEntry
	ProcessedPayments  []string
	CancellationReason string
	ResumeStatus       Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
	events.EventRecorder
}

// Repository persists bookings. Save must fail with ErrConcurrentUpdate when the stored
// version differs from the one the booking was loaded with.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByRenter(ctx context.Context, renterID string) ([]*Booking, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Booking, error)
}

type CreateParams struct {
	ID              BookingID
	Listing         *listings.Listing
	RenterID        string
	Range           daterange.DateRange
	DeliveryMethod  DeliveryMethod
	InsuranceTier   InsuranceTier
	SpecialRequests string
	Pricing         pricing.Quote
	CreatedAt       time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.Listing == nil {
		return nil, listings.ErrListingNotFound
	}
	renter := strings.TrimSpace(params.RenterID)
	if renter == "" {
		return nil, ErrRenterRequired
	}
	if params.Listing.OwnerID == "" {
		return nil, ErrOwnerRequired
	}
	if renter == params.Listing.OwnerID {
		return nil, ErrSelfBooking
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.Pricing.Days <= 0 {
		return nil, ErrPricingRequired
	}
	delivery := params.DeliveryMethod
	if delivery == "" {
		delivery = DeliveryPickup
	}
	if delivery != DeliveryPickup && delivery != DeliveryDelivery {
		return nil, ErrInvalidDelivery
	}
	insurance := params.InsuranceTier
	if insurance == "" {
		insurance = InsuranceNone
	}
	switch insurance {
	case InsuranceNone, InsuranceBasic, InsurancePremium:
	default:
		return nil, ErrInvalidInsurance
	}
	if len(params.SpecialRequests) > maxSpecialRequests {
		return nil, ErrSpecialRequestLimit
	}

	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		ListingID:       params.Listing.ID,
		ListingTitle:    params.Listing.Title,
		OwnerID:         params.Listing.OwnerID,
		RenterID:        renter,
		Range:           params.Range,
		DeliveryMethod:  delivery,
		InsuranceTier:   insurance,
		SpecialRequests: strings.TrimSpace(params.SpecialRequests),
		Pricing:         params.Pricing,
		Status:          StatusPendingPayment,
		Payments: Payments{
			Upfront:         PaymentLeg{Status: LegPending, Amount: params.Pricing.ServiceFee, UpdatedAt: now},
			Rental:          PaymentLeg{Status: LegPending, Amount: params.Pricing.BasePrice, UpdatedAt: now},
			SecurityDeposit: PaymentLeg{Status: LegPending, Amount: params.Pricing.SecurityDeposit, UpdatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.appendTimeline(TimelineBookingCreated, "Booking request created", Actor{Type: ActorRenter, ID: renter}, now)
	b.Record(BookingCreated{
		BookingID: b.ID,
		ListingID: b.ListingID,
		OwnerID:   b.OwnerID,
		RenterID:  b.RenterID,
		Range:     b.Range,
		Total:     b.Pricing.TotalPrice,
		At:        now,
	})
	return b, nil
}

// RoleOf returns the relationship of userID to the booking.
func (b *Booking) RoleOf(userID string) (ActorType, bool) {
	switch {
	case userID == "":
		return "", false
	case userID == b.RenterID:
		return ActorRenter, true
	case userID == b.OwnerID:
		return ActorOwner, true
	}
	return "", false
}

// TransitionTo moves the booking along the status table. Admins may override the table
// for non-terminal bookings; terminal bookings never move.
func (b *Booking) TransitionTo(next Status, actor Actor, notes string, now time.Time) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}
	if !b.Status.CanTransitionTo(next) {
		if actor.Type != ActorAdmin || b.Status.IsTerminal() || b.Status == next {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, next)
		}
	}
	if requiresSettledUpfront(next) && !b.upfrontSettled() {
		return ErrUpfrontRequired
	}
	prev := b.Status
	b.Status = next
	switch {
	case next == StatusPaymentFailed:
		b.ResumeStatus = prev
	case prev == StatusPaymentFailed:
		b.ResumeStatus = ""
	}
	if next == StatusCancelled {
		b.CancellationReason = notes
	}
	b.touch(now)
	desc := fmt.Sprintf("Status changed from %s to %s", prev, next)
	if notes = strings.TrimSpace(notes); notes != "" {
		desc += ": " + notes
	}
	b.appendTimeline(TimelineStatusChanged, desc, actor, now)
	b.Record(BookingStatusChanged{BookingID: b.ID, From: prev, To: next, ActorType: actor.Type, ActorID: actor.ID, Notes: notes, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Approve(ownerID string, now time.Time) error {
	if ownerID == "" || ownerID != b.OwnerID {
		return ErrNotOwner
	}
	if b.Status != StatusPendingOwnerApproval {
		return fmt.Errorf("%w: approve requires %s, booking is %s", ErrInvalidTransition, StatusPendingOwnerApproval, b.Status)
	}
	return b.TransitionTo(StatusConfirmed, Actor{Type: ActorOwner, ID: ownerID}, "Approved by owner", now)
}

func (b *Booking) Complete(userID string, now time.Time) error {
	role, ok := b.RoleOf(userID)
	if !ok {
		return ErrNotParticipant
	}
	if b.Status != StatusConfirmed && b.Status != StatusActive {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, StatusCompleted)
	}
	return b.TransitionTo(StatusCompleted, Actor{Type: role, ID: userID}, "Rental marked as completed", now)
}

// CheckCancellable validates a cancellation before any refund is attempted.
func (b *Booking) CheckCancellable(actor Actor) error {
	if actor.Type != ActorAdmin && actor.Type != ActorSystem {
		role, ok := b.RoleOf(actor.ID)
		if !ok || role != actor.Type {
			return ErrNotParticipant
		}
	}
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, StatusCancelled)
	}
	return nil
}

// CollectedLegs lists legs whose funds must go back to the renter on cancellation.
func (b *Booking) CollectedLegs() []PaymentType {
	var out []PaymentType
	if b.Payments.Upfront.Status == LegPaid {
		out = append(out, PaymentUpfront)
	}
	if b.Payments.Rental.Status == LegPaid {
		out = append(out, PaymentRental)
	}
	if b.Payments.SecurityDeposit.Status == LegHeld {
		out = append(out, PaymentSecurityDeposit)
	}
	return out
}

// CheckPaymentAllowed validates that the renter may start a charge for the leg.
func (b *Booking) CheckPaymentAllowed(t PaymentType) (PaymentLeg, error) {
	leg, err := b.Payments.Leg(t)
	if err != nil {
		return PaymentLeg{}, err
	}
	if leg.Collected() || leg.Status == LegRefunded || leg.Status == LegReleased {
		return PaymentLeg{}, fmt.Errorf("%w: %s is %s", ErrPaymentNotAllowed, t, leg.Status)
	}
	if !leg.Amount.IsPositive() {
		return PaymentLeg{}, ErrNothingToCharge
	}
	switch t {
	case PaymentUpfront:
		if b.Status != StatusPendingPayment && b.Status != StatusPaymentFailed {
			return PaymentLeg{}, fmt.Errorf("%w: upfront while %s", ErrPaymentNotAllowed, b.Status)
		}
	case PaymentRental:
		if b.Payments.Upfront.Status != LegPaid {
			return PaymentLeg{}, ErrUpfrontRequired
		}
		switch b.Status {
		case StatusConfirmed, StatusActive:
		case StatusPaymentFailed:
			if b.ResumeStatus != StatusConfirmed && b.ResumeStatus != StatusActive {
				return PaymentLeg{}, fmt.Errorf("%w: rental before owner approval", ErrPaymentNotAllowed)
			}
		default:
			return PaymentLeg{}, fmt.Errorf("%w: rental while %s", ErrPaymentNotAllowed, b.Status)
		}
	case PaymentSecurityDeposit:
		if b.Payments.Upfront.Status != LegPaid {
			return PaymentLeg{}, ErrUpfrontRequired
		}
		switch b.Status {
		case StatusPendingOwnerApproval, StatusConfirmed, StatusActive, StatusPaymentFailed:
		default:
			return PaymentLeg{}, fmt.Errorf("%w: deposit while %s", ErrPaymentNotAllowed, b.Status)
		}
	}
	return *leg, nil
}

// AttachPayment records the gateway payment started for a leg.
func (b *Booking) AttachPayment(t PaymentType, paymentID string, renterID string, now time.Time) error {
	if paymentID == "" {
		return ErrPaymentIDRequired
	}
	leg, err := b.Payments.Leg(t)
	if err != nil {
		return err
	}
	if leg.Collected() {
		return fmt.Errorf("%w: %s is %s", ErrPaymentNotAllowed, t, leg.Status)
	}
	leg.PaymentID = paymentID
	leg.Status = LegPending
	leg.UpdatedAt = now.UTC()
	b.touch(now)
	b.appendTimeline(TimelinePaymentStarted, fmt.Sprintf("%s payment of %s started", legLabel(t), leg.Amount), Actor{Type: ActorRenter, ID: renterID}, now)
	b.Record(PaymentStarted{BookingID: b.ID, Type: t, PaymentID: paymentID, Amount: leg.Amount, At: b.UpdatedAt})
	return nil
}

// ApplyPaymentSuccess settles a leg after the gateway confirmed the charge. It returns
// false when the payment outcome was already applied. A charge confirmed after the
// booking was cancelled, or a deposit confirmed after completion, is recorded with
// AfterClose set and shows up in OwedReturns.
func (b *Booking) ApplyPaymentSuccess(t PaymentType, paymentID string, now time.Time) (bool, error) {
	if paymentID == "" {
		return false, ErrPaymentIDRequired
	}
	key := processedKey(paymentID, "succeeded")
	if b.processed(key) {
		return false, nil
	}
	leg, err := b.Payments.Leg(t)
	if err != nil {
		return false, err
	}
	b.ProcessedPayments = append(b.ProcessedPayments, key)
	if leg.Collected() {
		return false, nil
	}
	leg.Status = collectedStatus(t)
	leg.PaymentID = paymentID
	leg.UpdatedAt = now.UTC()
	leg.AfterClose = b.Status == StatusCancelled || (b.Status == StatusCompleted && t == PaymentSecurityDeposit)
	b.touch(now)
	desc := fmt.Sprintf("%s payment of %s received", legLabel(t), leg.Amount)
	if leg.AfterClose {
		desc += fmt.Sprintf(" after the booking was %s", b.Status)
	}
	b.appendTimeline(TimelinePaymentSucceeded, desc, SystemActor(), now)
	b.Record(PaymentSucceeded{BookingID: b.ID, Type: t, PaymentID: paymentID, Amount: leg.Amount, At: b.UpdatedAt})

	if b.Status.IsTerminal() {
		return true, nil
	}
	switch t {
	case PaymentUpfront:
		if b.Status.CanTransitionTo(StatusPendingOwnerApproval) {
			return true, b.TransitionTo(StatusPendingOwnerApproval, SystemActor(), "Upfront payment received", now)
		}
	case PaymentRental:
		if b.Status == StatusPendingOwnerApproval && b.upfrontSettled() {
			return true, b.TransitionTo(StatusConfirmed, SystemActor(), "Rental payment received", now)
		}
		return true, b.resumeAfterRecovery("Rental payment received", now)
	case PaymentSecurityDeposit:
		return true, b.resumeAfterRecovery("Security deposit received", now)
	}
	return true, nil
}

// resumeAfterRecovery leaves payment_failed for the status held before the failure once
// no leg is failed any more. It never moves the booking past owner approval.
func (b *Booking) resumeAfterRecovery(notes string, now time.Time) error {
	if b.Status != StatusPaymentFailed || b.ResumeStatus == "" || b.hasFailedLeg() {
		return nil
	}
	if !b.Status.CanTransitionTo(b.ResumeStatus) {
		return nil
	}
	return b.TransitionTo(b.ResumeStatus, SystemActor(), notes, now)
}

func (b *Booking) hasFailedLeg() bool {
	return b.Payments.Upfront.Status == LegFailed ||
		b.Payments.Rental.Status == LegFailed ||
		b.Payments.SecurityDeposit.Status == LegFailed
}

// OwedReturns lists legs collected after the booking closed that still hold funds.
func (b *Booking) OwedReturns() []PaymentType {
	var out []PaymentType
	for _, t := range []PaymentType{PaymentUpfront, PaymentRental, PaymentSecurityDeposit} {
		leg, _ := b.Payments.Leg(t)
		if leg.AfterClose && leg.Collected() {
			out = append(out, t)
		}
	}
	return out
}

// ApplyPaymentFailure marks a leg failed. Bookings that can still fail move to
// payment_failed; nothing is refunded because nothing was collected.
func (b *Booking) ApplyPaymentFailure(t PaymentType, paymentID, reason string, now time.Time) (bool, error) {
	if paymentID == "" {
		return false, ErrPaymentIDRequired
	}
	key := processedKey(paymentID, "failed")
	if b.processed(key) || b.processed(processedKey(paymentID, "succeeded")) {
		return false, nil
	}
	leg, err := b.Payments.Leg(t)
	if err != nil {
		return false, err
	}
	b.ProcessedPayments = append(b.ProcessedPayments, key)
	if leg.Collected() {
		return false, nil
	}
	leg.Status = LegFailed
	leg.PaymentID = paymentID
	leg.UpdatedAt = now.UTC()
	b.touch(now)
	desc := fmt.Sprintf("%s payment failed", legLabel(t))
	if reason != "" {
		desc += ": " + reason
	}
	b.appendTimeline(TimelinePaymentFailed, desc, SystemActor(), now)
	b.Record(PaymentFailed{BookingID: b.ID, Type: t, PaymentID: paymentID, Reason: reason, At: b.UpdatedAt})
	if b.Status.CanTransitionTo(StatusPaymentFailed) {
		return true, b.TransitionTo(StatusPaymentFailed, SystemActor(), desc, now)
	}
	return true, nil
}

// MarkReturned records a refund (or a deposit release) for a collected leg.
func (b *Booking) MarkReturned(t PaymentType, refundID string, actor Actor, now time.Time) error {
	leg, err := b.Payments.Leg(t)
	if err != nil {
		return err
	}
	if !leg.Collected() {
		return fmt.Errorf("%w: %s is %s", ErrLegNotRefundable, t, leg.Status)
	}
	leg.Status = returnedStatus(t)
	leg.RefundID = refundID
	leg.UpdatedAt = now.UTC()
	b.touch(now)
	event, desc := TimelinePaymentRefunded, fmt.Sprintf("%s payment of %s refunded", legLabel(t), leg.Amount)
	if t == PaymentSecurityDeposit {
		event, desc = TimelineDepositReleased, fmt.Sprintf("Security deposit of %s released", leg.Amount)
	}
	b.appendTimeline(event, desc, actor, now)
	b.Record(PaymentReturned{BookingID: b.ID, Type: t, PaymentID: leg.PaymentID, RefundID: refundID, Amount: leg.Amount, At: b.UpdatedAt})
	return nil
}

func (b *Booking) processed(key string) bool {
	return slices.Contains(b.ProcessedPayments, key)
}

func (b *Booking) upfrontSettled() bool {
	s := b.Payments.Upfront.Status
	return s == LegPaid || s == LegRefunded
}

func (b *Booking) touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}

func (b *Booking) appendTimeline(event, description string, actor Actor, now time.Time) {
	b.Timeline = append(b.Timeline, TimelineEntry{
		Timestamp:   now.UTC(),
		Event:       event,
		Description: description,
		Actor:       actor.Type,
		ActorID:     actor.ID,
	})
}

func requiresSettledUpfront(s Status) bool {
	switch s {
	case StatusConfirmed, StatusActive, StatusCompleted:
		return true
	}
	return false
}

func processedKey(paymentID, outcome string) string {
	return paymentID + ":" + outcome
}

func legLabel(t PaymentType) string {
	switch t {
	case PaymentUpfront:
		return "Upfront"
	case PaymentRental:
		return "Rental"
	case PaymentSecurityDeposit:
		return "Security deposit"
	}
	return string(t)
}
