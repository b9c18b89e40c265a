package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geargrab/internal/app/policies"
	domainbooking "geargrab/internal/domain/booking"
	domainlistings "geargrab/internal/domain/listings"
	domainpricing "geargrab/internal/domain/pricing"
	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/domain/shared/money"
	domainuser "geargrab/internal/domain/user"
	"geargrab/internal/infra/storage/memory"
)

type capturingSender struct {
	mu     sync.Mutex
	emails []policies.Email
	fail   map[string]bool
}

func (s *capturingSender) Send(ctx context.Context, email policies.Email) policies.SendResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[email.To] {
		return policies.SendResult{Error: "mailbox unavailable"}
	}
	s.emails = append(s.emails, email)
	return policies.SendResult{Success: true, MessageID: "m-1"}
}

func newDispatcher(t *testing.T) (*Dispatcher, *capturingSender, domainbooking.BookingID) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:         "l-1",
		OwnerID:    "owner",
		Title:      "Paddle <Board>",
		Location:   "Lisbon",
		DailyPrice: money.Must(5000, "EUR"),
		Now:        now,
	})
	require.NoError(t, err)
	listing.Activate(now)
	listings := memory.NewListingRepository()
	require.NoError(t, listings.Save(ctx, listing))

	dr, err := daterange.New(now.Add(24*time.Hour), now.Add(96*time.Hour))
	require.NoError(t, err)
	quote, err := domainpricing.NewCalculator(domainpricing.DefaultServiceFeeBps).QuoteListing(listing, dr)
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "b-1", Listing: listing, RenterID: "renter", Range: dr, Pricing: quote, CreatedAt: now,
	})
	require.NoError(t, err)
	bookings := memory.NewBookingRepository()
	require.NoError(t, bookings.Save(ctx, b))

	users := memory.NewUserDirectory()
	require.NoError(t, users.Save(ctx, &domainuser.User{ID: "renter", Email: "rita@example.com", DisplayName: "Rita"}))
	require.NoError(t, users.Save(ctx, &domainuser.User{ID: "owner", Email: "omar@example.com"}))

	templates, err := LoadTemplates()
	require.NoError(t, err)
	sender := &capturingSender{fail: map[string]bool{}}
	return &Dispatcher{
		Bookings:  bookings,
		Listings:  listings,
		Users:     users,
		Sender:    sender,
		Templates: templates,
		BaseURL:   "https://geargrab.test/",
	}, sender, b.ID
}

func TestNewBookingRequestGoesToOwner(t *testing.T) {
	d, sender, id := newDispatcher(t)
	d.Notify(context.Background(), string(id), policies.NotifyNewBookingRequest)

	require.Len(t, sender.emails, 1)
	email := sender.emails[0]
	assert.Equal(t, "omar@example.com", email.To)
	assert.Equal(t, "New booking request for Paddle <Board>", email.Subject)
	assert.Contains(t, email.Text, "Hi omar,")
	assert.Contains(t, email.Text, "Rita wants to rent")
	assert.Contains(t, email.Text, "22.50 EUR")
	assert.Contains(t, email.HTML, "Paddle &lt;Board&gt;")
	assert.Contains(t, email.HTML, `href="https://geargrab.test/bookings/b-1"`)
	assert.Equal(t, "new_booking_request", email.Tags["notification"])
}

func TestApprovedGoesToRenter(t *testing.T) {
	d, sender, id := newDispatcher(t)
	d.Notify(context.Background(), string(id), policies.NotifyBookingApproved)

	require.Len(t, sender.emails, 1)
	assert.Equal(t, "rita@example.com", sender.emails[0].To)
	assert.Contains(t, sender.emails[0].Text, "150.00 EUR")
}

func TestStatusNotificationsGoToBothParties(t *testing.T) {
	for _, kind := range []policies.Notification{
		policies.NotifyPaymentConfirmed,
		policies.NotifyBookingConfirmed,
		policies.NotifyBookingStarted,
		policies.NotifyBookingCompleted,
		policies.NotifyBookingCancelled,
		policies.NotifyBookingDisputed,
	} {
		t.Run(string(kind), func(t *testing.T) {
			d, sender, id := newDispatcher(t)
			d.Notify(context.Background(), string(id), kind)
			require.Len(t, sender.emails, 2)
			assert.Equal(t, "rita@example.com", sender.emails[0].To)
			assert.Equal(t, "omar@example.com", sender.emails[1].To)
			assert.NotEmpty(t, sender.emails[0].Subject)
			assert.NotEmpty(t, sender.emails[0].HTML)
		})
	}
}

func TestFailuresAreSwallowed(t *testing.T) {
	d, sender, id := newDispatcher(t)
	sender.fail["rita@example.com"] = true

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), string(id), policies.NotifyBookingCancelled)
		d.Notify(context.Background(), "missing", policies.NotifyBookingCancelled)
		d.Notify(context.Background(), string(id), policies.Notification("unknown"))
	})
	require.Len(t, sender.emails, 1)
	assert.Equal(t, "omar@example.com", sender.emails[0].To)
}
