package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geargrab/internal/domain/listings"
	"geargrab/internal/domain/pricing"
	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/domain/shared/money"
)

var now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	listing, err := listings.NewListing(listings.CreateListingParams{
		ID:              "l-1",
		OwnerID:         "owner",
		Title:           "Tent",
		DailyPrice:      money.Must(5000, "USD"),
		SecurityDeposit: money.Must(10000, "USD"),
		Now:             now,
	})
	require.NoError(t, err)
	listing.Activate(now)
	dr, err := daterange.New(now.Add(24*time.Hour), now.Add(96*time.Hour))
	require.NoError(t, err)
	quote, err := pricing.NewCalculator(pricing.DefaultServiceFeeBps).QuoteListing(listing, dr)
	require.NoError(t, err)
	b, err := NewBooking(CreateParams{
		ID:        "b-1",
		Listing:   listing,
		RenterID:  "renter",
		Range:     dr,
		Pricing:   quote,
		CreatedAt: now,
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingDefaults(t *testing.T) {
	b := newTestBooking(t)
	assert.Equal(t, StatusPendingPayment, b.Status)
	assert.Equal(t, DeliveryPickup, b.DeliveryMethod)
	assert.Equal(t, InsuranceNone, b.InsuranceTier)
	assert.Equal(t, money.Must(2250, "USD"), b.Payments.Upfront.Amount)
	assert.Equal(t, money.Must(15000, "USD"), b.Payments.Rental.Amount)
	assert.Equal(t, money.Must(10000, "USD"), b.Payments.SecurityDeposit.Amount)
	require.Len(t, b.PendingEvents(), 1)
	assert.Equal(t, "booking.created", b.PendingEvents()[0].EventName())
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, StatusPendingPayment.CanTransitionTo(StatusPendingOwnerApproval))
	assert.False(t, StatusPendingPayment.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusDisputed.CanTransitionTo(StatusCompleted))
	for _, s := range Statuses() {
		assert.False(t, StatusCompleted.CanTransitionTo(s))
		assert.False(t, StatusCancelled.CanTransitionTo(s))
	}
	_, err := ParseStatus("shipped")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestTransitionToRejectsIllegalMoves(t *testing.T) {
	b := newTestBooking(t)
	renter := Actor{Type: ActorRenter, ID: "renter"}

	err := b.TransitionTo(StatusActive, renter, "", now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusPendingPayment, b.Status)

	err = b.TransitionTo(StatusActive, Actor{Type: ActorAdmin}, "", now)
	assert.ErrorIs(t, err, ErrUpfrontRequired)

	require.NoError(t, b.TransitionTo(StatusCancelled, renter, "no longer needed", now))
	assert.Equal(t, "no longer needed", b.CancellationReason)
	err = b.TransitionTo(StatusPendingPayment, Actor{Type: ActorAdmin}, "", now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPaymentFlow(t *testing.T) {
	b := newTestBooking(t)

	_, err := b.CheckPaymentAllowed(PaymentRental)
	assert.ErrorIs(t, err, ErrUpfrontRequired)
	leg, err := b.CheckPaymentAllowed(PaymentUpfront)
	require.NoError(t, err)
	assert.Equal(t, int64(2250), leg.Amount.Amount)

	require.NoError(t, b.AttachPayment(PaymentUpfront, "pi_1", "renter", now))
	applied, err := b.ApplyPaymentSuccess(PaymentUpfront, "pi_1", now)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, StatusPendingOwnerApproval, b.Status)
	assert.Equal(t, LegPaid, b.Payments.Upfront.Status)

	entries := len(b.Timeline)
	applied, err = b.ApplyPaymentSuccess(PaymentUpfront, "pi_1", now)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Len(t, b.Timeline, entries)

	assert.ErrorIs(t, b.Approve("renter", now), ErrNotOwner)
	require.NoError(t, b.Approve("owner", now))
	assert.Equal(t, StatusConfirmed, b.Status)

	applied, err = b.ApplyPaymentFailure(PaymentRental, "pi_2", "card_declined", now)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, StatusPaymentFailed, b.Status)
	assert.Equal(t, StatusConfirmed, b.ResumeStatus)

	_, err = b.CheckPaymentAllowed(PaymentRental)
	require.NoError(t, err)
	applied, err = b.ApplyPaymentSuccess(PaymentRental, "pi_3", now)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Empty(t, b.ResumeStatus)
	assert.Equal(t, []PaymentType{PaymentUpfront, PaymentRental}, b.CollectedLegs())
}

func TestDepositRecoversFromPaymentFailure(t *testing.T) {
	b := newTestBooking(t)
	_, err := b.ApplyPaymentSuccess(PaymentUpfront, "pi_1", now)
	require.NoError(t, err)
	require.NoError(t, b.Approve("owner", now))
	_, err = b.ApplyPaymentFailure(PaymentSecurityDeposit, "pi_d1", "expired_card", now)
	require.NoError(t, err)
	require.Equal(t, StatusPaymentFailed, b.Status)

	_, err = b.ApplyPaymentSuccess(PaymentSecurityDeposit, "pi_d2", now)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, LegHeld, b.Payments.SecurityDeposit.Status)
}

func TestCompleteAndMarkReturned(t *testing.T) {
	b := newTestBooking(t)
	_, err := b.ApplyPaymentSuccess(PaymentUpfront, "pi_1", now)
	require.NoError(t, err)
	assert.ErrorIs(t, b.Complete("renter", now), ErrInvalidTransition)
	require.NoError(t, b.Approve("owner", now))
	_, err = b.ApplyPaymentSuccess(PaymentSecurityDeposit, "pi_d", now)
	require.NoError(t, err)

	assert.ErrorIs(t, b.Complete("stranger", now), ErrNotParticipant)
	require.NoError(t, b.Complete("renter", now))
	assert.Equal(t, StatusCompleted, b.Status)

	require.NoError(t, b.MarkReturned(PaymentSecurityDeposit, "re_d", SystemActor(), now))
	assert.Equal(t, LegReleased, b.Payments.SecurityDeposit.Status)
	assert.ErrorIs(t, b.MarkReturned(PaymentSecurityDeposit, "re_d", SystemActor(), now), ErrLegNotRefundable)
	assert.Equal(t, TimelineDepositReleased, b.Timeline[len(b.Timeline)-1].Event)
}

func TestCheckCancellable(t *testing.T) {
	b := newTestBooking(t)
	assert.NoError(t, b.CheckCancellable(Actor{Type: ActorRenter, ID: "renter"}))
	assert.NoError(t, b.CheckCancellable(Actor{Type: ActorAdmin, ID: "ops"}))
	assert.ErrorIs(t, b.CheckCancellable(Actor{Type: ActorOwner, ID: "renter"}), ErrNotParticipant)
}

func TestRentalCannotSkipOwnerApprovalAfterFailure(t *testing.T) {
	b := newTestBooking(t)
	_, err := b.ApplyPaymentSuccess(PaymentUpfront, "pi_1", now)
	require.NoError(t, err)
	_, err = b.ApplyPaymentFailure(PaymentSecurityDeposit, "pi_d1", "expired_card", now)
	require.NoError(t, err)
	require.Equal(t, StatusPaymentFailed, b.Status)
	require.Equal(t, StatusPendingOwnerApproval, b.ResumeStatus)

	_, err = b.CheckPaymentAllowed(PaymentRental)
	assert.ErrorIs(t, err, ErrPaymentNotAllowed)

	_, err = b.ApplyPaymentSuccess(PaymentRental, "pi_r", now)
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentFailed, b.Status, "deposit is still failed")

	_, err = b.ApplyPaymentSuccess(PaymentSecurityDeposit, "pi_d2", now)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingOwnerApproval, b.Status)
	for _, e := range b.Timeline {
		if e.Event == TimelineStatusChanged {
			assert.NotContains(t, e.Description, "to "+string(StatusConfirmed))
		}
	}
}

func TestSuccessAfterCancellationIsOwed(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.AttachPayment(PaymentUpfront, "pi_1", "renter", now))
	require.NoError(t, b.TransitionTo(StatusCancelled, Actor{Type: ActorRenter, ID: "renter"}, "changed plans", now))
	assert.Empty(t, b.OwedReturns())

	applied, err := b.ApplyPaymentSuccess(PaymentUpfront, "pi_1", now)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, StatusCancelled, b.Status)
	assert.Equal(t, LegPaid, b.Payments.Upfront.Status)
	assert.Equal(t, []PaymentType{PaymentUpfront}, b.OwedReturns())

	require.NoError(t, b.MarkReturned(PaymentUpfront, "re_1", SystemActor(), now))
	assert.Empty(t, b.OwedReturns())
}

func TestLateRentalOnCompletedBookingIsKept(t *testing.T) {
	b := newTestBooking(t)
	_, err := b.ApplyPaymentSuccess(PaymentUpfront, "pi_1", now)
	require.NoError(t, err)
	require.NoError(t, b.Approve("owner", now))
	require.NoError(t, b.Complete("owner", now))

	_, err = b.ApplyPaymentSuccess(PaymentRental, "pi_r", now)
	require.NoError(t, err)
	_, err = b.ApplyPaymentSuccess(PaymentSecurityDeposit, "pi_d", now)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, b.Status)
	assert.Equal(t, []PaymentType{PaymentSecurityDeposit}, b.OwedReturns())
}
