package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := New(100, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)

	_, err = New(100, "US")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAddRequiresSameCurrency(t *testing.T) {
	_, err := Must(100, "USD").Add(Must(100, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	sum, err := Must(100, "USD").Add(Must(250, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(350), sum.Amount)
}

func TestApplyRate(t *testing.T) {
	cases := []struct {
		amount int64
		bps    int64
		want   int64
	}{
		{amount: 15000, bps: 1500, want: 2250},
		{amount: 10, bps: 1500, want: 2},
		{amount: 3, bps: 1500, want: 0},
		{amount: -10, bps: 1500, want: -2},
		{amount: 999, bps: 0, want: 0},
	}
	for _, tc := range cases {
		got, err := Must(tc.amount, "USD").ApplyRate(tc.bps)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Amount, "amount=%d bps=%d", tc.amount, tc.bps)
	}

	_, err := Must(100, "USD").ApplyRate(-1)
	assert.ErrorIs(t, err, ErrNegativeRate)
}

func TestString(t *testing.T) {
	assert.Equal(t, "172.50 USD", Must(17250, "USD").String())
	assert.Equal(t, "-0.05 EUR", Must(-5, "EUR").String())
}
