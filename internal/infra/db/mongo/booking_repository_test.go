package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	domainbooking "geargrab/internal/domain/booking"
	domainpricing "geargrab/internal/domain/pricing"
	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/domain/shared/money"
)

func sampleBooking() *domainbooking.Booking {
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	return &domainbooking.Booking{
		ID:        "bk_1",
		ListingID: "lst_1",
		OwnerID:   "owner",
		RenterID:  "renter",
		Range:     daterange.DateRange{Start: start, End: start.Add(72 * time.Hour)},
		Pricing: domainpricing.Quote{
			DailyPrice: money.Must(5000, "USD"),
			Days:       3,
			BasePrice:  money.Must(15000, "USD"),
			ServiceFee: money.Must(2250, "USD"),
			TotalPrice: money.Must(17250, "USD"),
		},
		Status: domainbooking.StatusPendingOwnerApproval,
		Payments: domainbooking.Payments{
			Upfront: domainbooking.PaymentLeg{Status: domainbooking.LegPaid, PaymentID: "pi_1", Amount: money.Must(2250, "USD"), UpdatedAt: start},
		},
		Timeline: []domainbooking.TimelineEntry{
			{Timestamp: start, Event: domainbooking.TimelineBookingCreated, Description: "created", Actor: domainbooking.ActorRenter, ActorID: "renter"},
		},
		ProcessedPayments: []string{"pi_1:succeeded"},
		CreatedAt:         start,
		UpdatedAt:         start,
		Version:           2,
	}
}

func TestBookingDocumentPreservesAggregate(t *testing.T) {
	b := sampleBooking()
	got := newBookingDocument(b).toAggregate()
	assert.Equal(t, b, got)
}

func TestBookingRepositoryCAS(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matched write bumps version", func(mt *mtest.T) {
		repo := NewBookingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		b := sampleBooking()
		require.NoError(t, repo.Save(context.Background(), b))
		assert.EqualValues(t, 3, b.Version)
	})

	mt.Run("stale version is a conflict", func(mt *mtest.T) {
		repo := NewBookingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		b := sampleBooking()
		err := repo.Save(context.Background(), b)
		require.ErrorIs(t, err, domainbooking.ErrConcurrentUpdate)
		assert.EqualValues(t, 2, b.Version)
	})

	mt.Run("duplicate id on upsert is a conflict", func(mt *mtest.T) {
		repo := NewBookingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))

		err := repo.Save(context.Background(), sampleBooking())
		require.ErrorIs(t, err, domainbooking.ErrConcurrentUpdate)
	})

	mt.Run("missing booking maps to not found", func(mt *mtest.T) {
		repo := NewBookingRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.agg_booking", mtest.FirstBatch))

		_, err := repo.ByID(context.Background(), "nope")
		require.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	})
}
