package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"geargrab/internal/domain/listings"
	"geargrab/internal/domain/shared/daterange"
	"geargrab/internal/domain/shared/money"
)

func TestCalculateThreeDays(t *testing.T) {
	q, err := Calculate(money.Must(5000, "USD"), 3, DefaultServiceFeeBps)
	require.NoError(t, err)
	assert.Equal(t, money.Must(15000, "USD"), q.BasePrice)
	assert.Equal(t, money.Must(2250, "USD"), q.ServiceFee)
	assert.Equal(t, money.Must(17250, "USD"), q.TotalPrice)
	assert.Equal(t, "172.50 USD", q.TotalPrice.String())
}

func TestCalculateRoundsFeeHalfUp(t *testing.T) {
	// 0.10 × 15% = 0.015, rounds to 0.02
	q, err := Calculate(money.Must(10, "USD"), 1, DefaultServiceFeeBps)
	require.NoError(t, err)
	assert.Equal(t, int64(2), q.ServiceFee.Amount)

	// 0.03 × 15% = 0.0045, rounds to 0.00
	q, err = Calculate(money.Must(3, "USD"), 1, DefaultServiceFeeBps)
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.ServiceFee.Amount)
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	_, err := Calculate(money.Must(5000, "USD"), 0, DefaultServiceFeeBps)
	assert.ErrorIs(t, err, ErrInvalidDays)
	_, err = Calculate(money.Must(-1, "USD"), 2, DefaultServiceFeeBps)
	assert.ErrorIs(t, err, ErrNegativePrice)
	_, err = Calculate(money.Must(100, "USD"), 2, -1)
	assert.ErrorIs(t, err, ErrNegativeFeeRate)
	_, err = Calculate(money.Money{Amount: 100}, 2, DefaultServiceFeeBps)
	assert.ErrorIs(t, err, ErrCurrencyUnset)
}

func TestCalculateTotalsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		daily := rapid.Int64Range(1, 10_000_000).Draw(t, "daily")
		days := rapid.IntRange(1, 365).Draw(t, "days")

		q, err := Calculate(money.Must(daily, "EUR"), days, DefaultServiceFeeBps)
		if err != nil {
			t.Fatalf("calculate: %v", err)
		}
		base := daily * int64(days)
		if q.BasePrice.Amount != base {
			t.Fatalf("base %d, want %d", q.BasePrice.Amount, base)
		}
		if q.TotalPrice.Amount != q.BasePrice.Amount+q.ServiceFee.Amount {
			t.Fatalf("total %d != base %d + fee %d", q.TotalPrice.Amount, q.BasePrice.Amount, q.ServiceFee.Amount)
		}
		// fee == round(base × 0.15) with ties rounded up, computed in exact integers
		want := (base*15 + 50) / 100
		if q.ServiceFee.Amount != want {
			t.Fatalf("fee %d, want %d", q.ServiceFee.Amount, want)
		}
	})
}

func TestQuoteListingCarriesDeposit(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	listing, err := listings.NewListing(listings.CreateListingParams{
		ID:              "l-1",
		OwnerID:         "o-1",
		Title:           "Kayak",
		DailyPrice:      money.Must(4000, "USD"),
		SecurityDeposit: money.Must(15000, "USD"),
		Now:             now,
	})
	require.NoError(t, err)
	dr, err := daterange.New(now, now.Add(36*time.Hour))
	require.NoError(t, err)

	q, err := NewCalculator(DefaultServiceFeeBps).QuoteListing(listing, dr)
	require.NoError(t, err)
	assert.Equal(t, 2, q.Days)
	assert.Equal(t, money.Must(8000, "USD"), q.BasePrice)
	assert.Equal(t, money.Must(15000, "USD"), q.SecurityDeposit)
}
