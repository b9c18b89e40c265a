package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookinghandlers "geargrab/internal/app/handlers/booking"
)

func TestValidateBookingCommands(t *testing.T) {
	v := New()
	ctx := context.Background()

	err := v.Validate(ctx, bookinghandlers.UpdateBookingStatusCommand{
		BookingID: "b-1",
		Status:    "shipped",
		ActorID:   "u-1",
		ActorType: "owner",
	})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "Status failed booking_status")

	err = v.Validate(ctx, bookinghandlers.StartPaymentCommand{BookingID: "b-1", RenterID: "r-1", PaymentType: "tip"})
	require.ErrorIs(t, err, ErrInvalid)

	err = v.Validate(ctx, bookinghandlers.CreateBookingCommand{
		ListingID: "l-1",
		RenterID:  "r-1",
		StartDate: time.Now(),
	})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "EndDate is required")

	assert.NoError(t, v.Validate(ctx, bookinghandlers.CancelBookingCommand{BookingID: "b-1", UserID: "u-1", UserType: "admin"}))
	assert.NoError(t, v.Validate(ctx, "not a struct"))
}
