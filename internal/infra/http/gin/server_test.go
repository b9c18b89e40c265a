package ginserver

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tidwall/gjson"

	bookingapp "geargrab/internal/app/handlers/booking"
	"geargrab/internal/app/outbox"
	"geargrab/internal/app/schedule"
	bookingsvc "geargrab/internal/app/services/booking"
	domainauth "geargrab/internal/domain/auth"
	domainlistings "geargrab/internal/domain/listings"
	domainpricing "geargrab/internal/domain/pricing"
	"geargrab/internal/domain/shared/money"
	"geargrab/internal/infra/auth"
	"geargrab/internal/infra/obs"
	"geargrab/internal/infra/payments/stripepay"
	"geargrab/internal/infra/storage/memory"
	"geargrab/internal/infra/validation"
)

const webhookSecret = "whsec_router_test"

var routerNow = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	listings := memory.NewListingRepository()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:              "listing-1",
		OwnerID:         "owner-1",
		Title:           "Sony A7 IV",
		DailyPrice:      money.Must(5000, "USD"),
		SecurityDeposit: money.Must(15000, "USD"),
		Now:             routerNow,
	})
	require.NoError(t, err)
	listing.Activate(routerNow)
	require.NoError(t, listings.Save(context.Background(), listing))

	box := memory.NewOutbox()
	clock := func() time.Time { return routerNow }
	svc := &bookingsvc.Service{
		Bookings:  memory.NewBookingRepository(),
		Listings:  listings,
		Gateway:   stripepay.NewMockGateway(nil),
		Scheduler: schedule.StoreScheduler{Store: memory.NewJobStore(), Now: clock},
		Outbox:    box,
		Encoder:   outbox.JSONEventEncoder{},
		Pricing:   domainpricing.NewCalculator(domainpricing.DefaultServiceFeeBps),
		Clock:     clock,
	}
	cmdBus, queryBus := bookingapp.NewBuses(svc, bookingapp.BusConfig{
		Validator:   validation.New(),
		Idempotency: memory.NewIdempotencyStore(),
		Outbox:      box,
	})
	verifier := auth.InsecureVerifier{Admins: domainauth.NewAdminSet([]string{"admin-1"})}
	return NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking:        BookingHandler{Commands: cmdBus, Queries: queryBus},
		Webhook:        WebhookHandler{Commands: cmdBus, Inbox: memory.NewInbox(), Secret: webhookSecret},
		AuthMiddleware: AuthMiddleware{Verifier: verifier}.Handle,
	})
}

func call(t *testing.T, r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createBooking(t *testing.T, r http.Handler) string {
	t.Helper()
	w := call(t, r, http.MethodPost, "/api/v1/bookings", "renter-1:renter@example.com",
		`{"listing_id":"listing-1","start_date":"2026-05-06","end_date":"2026-05-09"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return gjson.Get(w.Body.String(), "id").String()
}

func stripeEvent(t *testing.T, eventID, eventType, paymentID, bookingID string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	raw := fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"data":{"object":{"id":%q,"object":"payment_intent","amount":2250,"currency":"usd","metadata":{"bookingId":%q,"paymentType":"upfront"}}}}`,
		eventID, eventType, paymentID, bookingID)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(raw),
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req, httptest.NewRecorder()
}

func TestRouterRequiresToken(t *testing.T) {
	r := newTestRouter(t)

	w := call(t, r, http.MethodGet, "/api/v1/bookings", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, r, http.MethodGet, "/livez", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterCreateAndView(t *testing.T) {
	r := newTestRouter(t)
	id := createBooking(t, r)
	require.NotEmpty(t, id)

	w := call(t, r, http.MethodGet, "/api/v1/bookings/"+id, "owner-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "pending_payment", gjson.Get(w.Body.String(), "status").String())
	assert.Equal(t, "booking_created", gjson.Get(w.Body.String(), "timeline.0.event").String())

	w = call(t, r, http.MethodGet, "/api/v1/bookings/"+id, "stranger", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, r, http.MethodGet, "/api/v1/bookings/"+id, "admin-1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodGet, "/api/v1/bookings/missing", "renter-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(t, r, http.MethodGet, "/api/v1/bookings?role=owner", "owner-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "items.#").Int())
}

func TestRouterRejectsBadInput(t *testing.T) {
	r := newTestRouter(t)

	w := call(t, r, http.MethodPost, "/api/v1/bookings", "renter-1",
		`{"listing_id":"listing-1","start_date":"next week","end_date":"2026-05-09"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, r, http.MethodPost, "/api/v1/bookings", "owner-1",
		`{"listing_id":"listing-1","start_date":"2026-05-06","end_date":"2026-05-09"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	id := createBooking(t, r)
	w = call(t, r, http.MethodPost, "/api/v1/bookings/"+id+"/approve", "owner-1", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, r, http.MethodPost, "/api/v1/bookings/"+id+"/checkout", "renter-1", `{"payment_type":"tip"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouterPaymentFlow(t *testing.T) {
	r := newTestRouter(t)
	id := createBooking(t, r)

	w := call(t, r, http.MethodPost, "/api/v1/bookings/"+id+"/checkout", "renter-1:renter@example.com", `{"payment_type":"upfront"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paymentID := gjson.Get(w.Body.String(), "payment_id").String()
	assert.NotEmpty(t, gjson.Get(w.Body.String(), "client_secret").String())
	assert.Equal(t, int64(2250), gjson.Get(w.Body.String(), "amount.amount").Int())

	req, rec := stripeEvent(t, "evt_1", "payment_intent.succeeded", paymentID, id)
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, gjson.Get(rec.Body.String(), "applied").Bool())

	req, rec = stripeEvent(t, "evt_1", "payment_intent.succeeded", paymentID, id)
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "duplicate").Bool())

	w = call(t, r, http.MethodGet, "/api/v1/bookings/"+id, "renter-1", "")
	assert.Equal(t, "pending_owner_approval", gjson.Get(w.Body.String(), "status").String())
	assert.Equal(t, "paid", gjson.Get(w.Body.String(), "payment_status.upfront.status").String())

	w = call(t, r, http.MethodPost, "/api/v1/bookings/"+id+"/approve", "renter-1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, r, http.MethodPost, "/api/v1/bookings/"+id+"/approve", "owner-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", gjson.Get(w.Body.String(), "status").String())
}

func TestRouterWebhookRejectsBadSignature(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewBufferString(`{"id":"evt_x"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterWebhookAcknowledgesUnknownBooking(t *testing.T) {
	r := newTestRouter(t)
	req, rec := stripeEvent(t, "evt_2", "payment_intent.succeeded", "pi_orphan", "no-such-booking")
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, gjson.Get(rec.Body.String(), "applied").Bool())
}
